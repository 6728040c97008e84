package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"monopoly-ai/platform/ai"
	"monopoly-ai/platform/cache"
	"monopoly-ai/platform/database"
	"monopoly-ai/platform/queries"
	"monopoly-ai/platform/simulation"
)

// Simulate runs a full game synchronously and returns the per-player
// results. The request carries the model manifest URLs; loading or
// configuration problems come back as 4xx, everything else as 5xx.
func Simulate(c *fiber.Ctx) error {
	db := database.PostgreSQLConnection()
	defer db.Close()

	req := new(simulation.Request)
	if err := c.BodyParser(req); err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	if req.GameId != "" && !queries.VerifyGame(req.GameId, db) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown game"})
	}

	pool := cache.CreateRedisPool()
	defer pool.Close()

	results, err := simulation.Run(c.Context(), *req, db, pool, nil)
	if err != nil {
		log.WithError(err).WithField("game", req.GameId).Error("simulation failed")
		switch {
		case errors.Is(err, ai.ErrConfiguration), errors.Is(err, ai.ErrResolution):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, ai.ErrFetchFailed):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	return c.JSON(results)
}
