package controllers

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"monopoly-ai/app/models"
	"monopoly-ai/pkg"
	"monopoly-ai/platform/database"
	"monopoly-ai/platform/queries"
)

func CreateGame(c *fiber.Ctx) error {
	db := database.PostgreSQLConnection()
	defer db.Close()

	gameCreateDto := new(models.GameCreateDto)
	if err := c.BodyParser(gameCreateDto); err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	game := &models.Game{
		Id:     pkg.RandString(8),
		Name:   gameCreateDto.Name,
		Type:   gameCreateDto.Type,
		Status: "created",
	}

	if _, err := db.Model(game).Insert(); err != nil {
		log.WithError(err).Error("could not create game")
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{"id": game.Id})
}

func GetAllAvailGames(c *fiber.Ctx) error {
	db := database.PostgreSQLConnection()
	defer db.Close()

	var games []models.Game
	if err := db.Model(&games).Where("status = ?", "created").Select(); err != nil {
		log.WithError(err).Error("could not list games")
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(games)
}

func VerifyGame(c *fiber.Ctx) error {
	db := database.PostgreSQLConnection()
	defer db.Close()

	verifyGameDto := new(models.VerifyGameDto)
	if err := c.QueryParser(verifyGameDto); err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	return c.JSON(fiber.Map{"status": queries.VerifyGame(verifyGameDto.Code, db)})
}

func GetGameResults(c *fiber.Ctx) error {
	db := database.PostgreSQLConnection()
	defer db.Close()

	results, err := queries.GetResults(c.Query("game_id"), db)
	if err != nil {
		log.WithError(err).Error("could not fetch results")
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.JSON(results)
}
