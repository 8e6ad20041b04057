package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/orienta/backend/api/http/handlers"
)

// Register wires all HTTP routes onto given Fiber app.
func Register(app *fiber.App, auth *handlers.AuthHandler, google *handlers.GoogleHandler,
	usersH *handlers.UsersHandler, health *handlers.HealthHandler, authMW fiber.Handler) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Health and readiness endpoints for probes/monitoring
	v1.Get("/health", health.Health)
	v1.Get("/ready", health.Ready)

	a := v1.Group("/auth")
	a.Post("/register", auth.Register)
	a.Post("/login", auth.Login)
	a.Post("/logout", authMW, auth.Logout)
	a.Post("/token", auth.Token)
	a.Post("/token/refresh", auth.Refresh)
	a.Get("/google/login", google.Login)
	a.Get("/google/callback", google.Callback)

	// CRUD de usuarios (role-gated in the use case)
	u := v1.Group("/users", authMW)
	u.Get("/", usersH.List)
	u.Post("/", usersH.Create)
	u.Get("/:id", usersH.Get)
	u.Put("/:id", usersH.Update)
	u.Patch("/:id", usersH.Patch)
	u.Delete("/:id", usersH.Delete)
}
