package handlers

import (
	"boss-tracker-system/middleware"
	"boss-tracker-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupSpawnRoutes(app *fiber.App, spawnService *services.SpawnService) {
	// 🔓 Public spawn history
	app.Get("/bosses/:id/spawns", spawnService.GetSpawnHistory)

	// 🔐 Authenticated reporting and editing
	userCtx := middleware.UserContextMiddleware()
	app.Post("/spawns", userCtx, spawnService.ReportSpawn)
	app.Patch("/spawns/:event_id", userCtx, spawnService.UpdateSpawnEvent)
	app.Post("/spawns/:event_id/screenshot", userCtx, spawnService.UploadSpawnScreenshot)
	app.Delete("/spawns/:event_id", userCtx, spawnService.DeleteSpawnEvent)
}
