package handlers

import (
	"net/http/httptest"
	"testing"

	"boss-tracker-system/services"

	"github.com/gofiber/fiber/v2"
)

// setupTestApp registers every route group in the same order main does.
// Services carry no DB; these tests only exercise routing and middleware.
func setupTestApp() *fiber.App {
	app := fiber.New()
	contributions := services.NewContributionService(nil)
	SetupBossRoutes(app, services.NewBossService(nil))
	SetupSpawnRoutes(app, services.NewSpawnService(nil, contributions))
	SetupGuildRoutes(app, services.NewGuildService(nil), contributions)
	SetupAlertRoutes(app, services.NewAlertService(nil, nil))
	return app
}

func handlerCount(t *testing.T, app *fiber.App, method, path string) int {
	t.Helper()
	for _, r := range app.GetRoutes() {
		if r.Method == method && r.Path == path {
			return len(r.Handlers)
		}
	}
	t.Fatalf("route %s %s not registered", method, path)
	return 0
}

// TestPublicRoutesCarryNoUserContext ensures the documented public reads are
// served by their handler alone, with no auth middleware leaking onto them
// from route groups registered earlier.
func TestPublicRoutesCarryNoUserContext(t *testing.T) {
	app := setupTestApp()
	public := []struct{ method, path string }{
		{"GET", "/bosses"},
		{"GET", "/bosses/:id"},
		{"GET", "/bosses/:id/timer"},
		{"GET", "/bosses/:id/predictions"},
		{"GET", "/bosses/:id/spawns"},
		{"GET", "/guilds/:id/leaderboard"},
		{"GET", "/guilds/:id/contributions/:member"},
	}
	for _, route := range public {
		if n := handlerCount(t, app, route.method, route.path); n != 1 {
			t.Fatalf("%s %s: expected 1 handler on a public route, got %d", route.method, route.path, n)
		}
	}
}

// TestSecuredRoutesPairHandlerWithUserContext ensures every authenticated
// route carries exactly the user-context middleware plus its handler.
func TestSecuredRoutesPairHandlerWithUserContext(t *testing.T) {
	app := setupTestApp()
	secured := []struct{ method, path string }{
		{"POST", "/bosses"},
		{"PUT", "/bosses/:id"},
		{"DELETE", "/bosses/:id"},
		{"POST", "/spawns"},
		{"PATCH", "/spawns/:event_id"},
		{"POST", "/spawns/:event_id/screenshot"},
		{"DELETE", "/spawns/:event_id"},
		{"POST", "/guilds"},
		{"GET", "/guilds/:id"},
		{"POST", "/guilds/join"},
		{"DELETE", "/guilds/:id/members/me"},
		{"POST", "/guilds/:id/contributions/increment"},
		{"POST", "/guilds/:id/contributions/recompute"},
		{"POST", "/alerts"},
		{"GET", "/alerts"},
		{"PATCH", "/alerts/:pref_id"},
		{"DELETE", "/alerts/:pref_id"},
	}
	for _, route := range secured {
		if n := handlerCount(t, app, route.method, route.path); n != 2 {
			t.Fatalf("%s %s: expected middleware + handler, got %d handler(s)", route.method, route.path, n)
		}
	}
}

// TestSecuredRoutesRejectMissingUserHeader ensures requests without an
// X-User-ID never reach a secured handler.
func TestSecuredRoutesRejectMissingUserHeader(t *testing.T) {
	app := setupTestApp()
	for _, route := range []struct{ method, path string }{
		{"POST", "/spawns"},
		{"POST", "/bosses"},
		{"POST", "/guilds"},
		{"GET", "/alerts"},
	} {
		resp, err := app.Test(httptest.NewRequest(route.method, route.path, nil))
		if err != nil {
			t.Fatalf("%s %s: request failed: %v", route.method, route.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 without X-User-ID, got %d", route.method, route.path, resp.StatusCode)
		}
	}
}
