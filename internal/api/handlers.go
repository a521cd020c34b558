package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pulsewire/ingest/internal/logger"
	"github.com/pulsewire/ingest/internal/middleware"
	"github.com/pulsewire/ingest/internal/models"
	"github.com/pulsewire/ingest/internal/scheduler"
	"github.com/pulsewire/ingest/internal/store"
)

// Handlers serves the status/admin surface over the running schedulers
type Handlers struct {
	engines map[models.ContentType]*scheduler.Engine
	store   store.ContentStore
}

func NewHandlers(contentStore store.ContentStore, engines ...*scheduler.Engine) *Handlers {
	byType := make(map[models.ContentType]*scheduler.Engine, len(engines))
	for _, engine := range engines {
		byType[engine.ContentType()] = engine
	}
	return &Handlers{
		engines: byType,
		store:   contentStore,
	}
}

// HealthCheck handles GET /api/v1/health
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// SchedulerStats handles GET /api/v1/schedulers
func (h *Handlers) SchedulerStats(c *fiber.Ctx) error {
	stats := make([]scheduler.StatsSnapshot, 0, len(h.engines))
	for _, engine := range h.engines {
		stats = append(stats, engine.Stats())
	}
	return c.JSON(fiber.Map{
		"schedulers": stats,
	})
}

// ListItems handles GET /api/v1/items/:type
func (h *Handlers) ListItems(c *fiber.Ctx) error {
	ct := models.ContentType(c.Params("type"))
	if _, ok := h.engines[ct]; !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown content type",
		})
	}

	filters := store.Filters{
		Approval: models.ApprovalState(c.Query("approval")),
	}
	items, err := h.store.ListActive(c.Context(), ct, filters)
	if err != nil {
		logger.Get().Error().Err(err).Str("content_type", string(ct)).Msg("Error listing items")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list items",
		})
	}

	return c.JSON(fiber.Map{
		"total": len(items),
		"items": items,
	})
}

// TriggerRequest is the optional manual-trigger payload
type TriggerRequest struct {
	TimeoutMinutes int `json:"timeout_minutes" validate:"gte=0,lte=60"`
}

// TriggerCycle handles POST /api/v1/admin/trigger/:type. The cycle runs in
// the background; the re-entrancy guard drops the trigger when a cycle is
// already live.
func (h *Handlers) TriggerCycle(c *fiber.Ctx) error {
	ct := models.ContentType(c.Params("type"))
	engine, ok := h.engines[ct]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown content type",
		})
	}

	req := TriggerRequest{}
	if len(c.Body()) > 0 && !middleware.ParseAndValidate(c, &req) {
		return nil
	}
	timeout := 30 * time.Minute
	if req.TimeoutMinutes > 0 {
		timeout = time.Duration(req.TimeoutMinutes) * time.Minute
	}

	if engine.Busy() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"status":  "busy",
			"message": "A cycle is already in progress",
		})
	}

	logger.Get().Info().
		Str("content_type", string(ct)).
		Str("ip", c.IP()).
		Msg("Manual cycle trigger accepted")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		engine.RunCycle(ctx)
	}()

	return c.JSON(fiber.Map{
		"status":  "started",
		"message": "Cycle started in the background",
	})
}

// DeleteItem handles DELETE /api/v1/admin/items/:type/:id
func (h *Handlers) DeleteItem(c *fiber.Ctx) error {
	ct := models.ContentType(c.Params("type"))
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Item ID is required",
		})
	}

	if err := h.store.Delete(c.Context(), ct, id); err != nil {
		if err == store.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Item not found",
			})
		}
		logger.Get().Error().Err(err).Str("id", id).Msg("Error deleting item")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete item",
		})
	}

	return c.JSON(fiber.Map{
		"status": "deleted",
	})
}
