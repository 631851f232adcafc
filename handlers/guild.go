package handlers

import (
	"boss-tracker-system/middleware"
	"boss-tracker-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGuildRoutes(app *fiber.App, guildService *services.GuildService, contributionService *services.ContributionService) {
	// 🔓 Public leaderboards
	app.Get("/guilds/:id/leaderboard", contributionService.GetGuildLeaderboard)
	app.Get("/guilds/:id/contributions/:member", contributionService.GetMemberContribution)

	// 🔐 Authenticated guild management
	userCtx := middleware.UserContextMiddleware()
	app.Post("/guilds", userCtx, guildService.CreateGuild)
	app.Get("/guilds/:id", userCtx, guildService.GetGuildByID)
	app.Post("/guilds/join", userCtx, guildService.JoinGuild)
	app.Delete("/guilds/:id/members/me", userCtx, guildService.LeaveGuild)

	// Ledger maintenance (admin escape hatches)
	app.Post("/guilds/:id/contributions/increment", userCtx, contributionService.IncrementMember)
	app.Post("/guilds/:id/contributions/recompute", userCtx, contributionService.RecomputeGuild)
}
