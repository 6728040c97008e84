package routes

import (
	"github.com/gofiber/fiber/v2"

	"monopoly-ai/app/controllers"
)

func GameRoutes(a *fiber.App) {
	route := a.Group("/game")

	route.Post("/create", controllers.CreateGame)
	route.Get("/verify", controllers.VerifyGame)
	route.Get("/all", controllers.GetAllAvailGames)
	route.Get("/results", controllers.GetGameResults)
	route.Post("/simulate", controllers.Simulate)
}
