package server

import (
	"time"

	"github.com/flowdeck/flowdeck/internal/controllers"
	"github.com/flowdeck/flowdeck/internal/version"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type HTTPServerDependencies struct {
	SessionController *controllers.SessionController
}

func NewHTTPServer(deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName: "flowdeck-engine",
	})

	router.Use(cors.New())
	router.Use(logger.New())

	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   "flowdeck-engine",
			"version":   version.GetVersion(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	v1 := router.Group("/v1")

	sessions := v1.Group("/sessions")
	sessions.Post("/", deps.SessionController.CreateSession)
	sessions.Get("/:id", deps.SessionController.GetSession)
	sessions.Post("/:id/execute", deps.SessionController.ExecuteSession)
	sessions.Post("/:id/cancel", deps.SessionController.CancelSession)
	sessions.Get("/:id/records", deps.SessionController.ListRecords)
	sessions.Post("/:id/nodes/:nodeId/execute", deps.SessionController.ExecuteNode)

	return router
}
