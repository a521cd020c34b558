package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pulsewire/ingest/internal/config"
	"github.com/pulsewire/ingest/internal/middleware"
	"github.com/pulsewire/ingest/internal/scheduler"
	"github.com/pulsewire/ingest/internal/store"
)

// SetupRoutes configures all the routes for the application
func SetupRoutes(app *fiber.App, cfg *config.Config, contentStore store.ContentStore, engines ...*scheduler.Engine) {
	handlers := NewHandlers(contentStore, engines...)

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())

	api := app.Group("/api/v1")

	api.Get("/health", handlers.HealthCheck)
	api.Get("/schedulers", handlers.SchedulerStats)
	api.Get("/items/:type", handlers.ListItems)

	admin := api.Group("/admin", middleware.APIKeyAuth(cfg.AdminAPIKey))
	{
		admin.Post("/trigger/:type", handlers.TriggerCycle)
		admin.Delete("/items/:type/:id", handlers.DeleteItem)
	}

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})
}
