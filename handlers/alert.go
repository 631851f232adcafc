package handlers

import (
	"boss-tracker-system/middleware"
	"boss-tracker-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAlertRoutes(app *fiber.App, alertService *services.AlertService) {
	// All alert routes are per-user
	userCtx := middleware.UserContextMiddleware()
	app.Post("/alerts", userCtx, alertService.CreateAlertPreference)
	app.Get("/alerts", userCtx, alertService.GetMyAlertPreferences)
	app.Patch("/alerts/:pref_id", userCtx, alertService.UpdateAlertPreference)
	app.Delete("/alerts/:pref_id", userCtx, alertService.DeleteAlertPreference)
}
