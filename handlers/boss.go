package handlers

import (
	"boss-tracker-system/middleware"
	"boss-tracker-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupBossRoutes(app *fiber.App, bossService *services.BossService) {
	// 🔓 Public read paths — timers and predictions are poll-friendly
	app.Get("/bosses", bossService.GetAllBosses)
	app.Get("/bosses/:id", bossService.GetBossByID)
	app.Get("/bosses/:id/timer", bossService.GetBossTimer)
	app.Get("/bosses/:id/predictions", bossService.GetBossPredictions)

	// 🔐 Authenticated management — user context attached per route so the
	// public reads here and in the other setups stay open
	userCtx := middleware.UserContextMiddleware()
	app.Post("/bosses", userCtx, bossService.CreateBoss)
	app.Put("/bosses/:id", userCtx, bossService.UpdateBoss)
	app.Delete("/bosses/:id", userCtx, bossService.DeleteBoss)
}
