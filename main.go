package main

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jwtware "github.com/gofiber/jwt/v2"

	"monopoly-ai/app/controllers"
	"monopoly-ai/pkg/routes"
	"monopoly-ai/platform/logging"
	socket "monopoly-ai/platform/sockets"
)

func main() {
	logging.Init()

	app := fiber.New()

	app.Use(cors.New())
	routes.AuthRoutes(app)
	routes.GameRoutes(app)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: controllers.JWTSecret(),
	}))

	app.Get("/user/cur", controllers.Cur)

	go socket.CreateSocketIOServer()

	addr := os.Getenv("API_ADDR")
	if addr == "" {
		addr = ":4101"
	}
	app.Listen(addr)
}
