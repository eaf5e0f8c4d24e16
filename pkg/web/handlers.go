package web

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
)

// healthTimeout bounds the detection service probe.
const healthTimeout = 3 * time.Second

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

// handleCapture queues a capture on the next aggregator tick.
func (s *Server) handleCapture(c *fiber.Ctx) error {
	if s.latch == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "remote capture not enabled",
		})
	}
	s.latch.Press()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"queued": true,
		"source": s.latch.Label(),
	})
}

func (s *Server) handleGetConfig(c *fiber.Ctx) error {
	return c.JSON(s.pipeline.Settings().GetConfig())
}

// handleUpdateConfig applies a partial update, e.g. {"preset":"1080p"} or
// {"quality":80,"save_to_disk":true}.
func (s *Server) handleUpdateConfig(c *fiber.Ctx) error {
	var params map[string]interface{}
	if err := json.Unmarshal(c.Body(), &params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON body",
		})
	}

	settings := s.pipeline.Settings()
	if err := settings.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	cfg := settings.GetConfig()
	s.logger.Info("capture settings updated",
		"width", cfg.Width,
		"height", cfg.Height,
		"quality", cfg.Quality,
		"save_to_disk", cfg.SaveToDisk,
	)
	return c.JSON(cfg)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()

	if err := s.pipeline.Detector().Health(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
