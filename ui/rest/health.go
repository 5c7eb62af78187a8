package rest

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ndavydoff/music-finder/config"
)

func InitRestHealth(app fiber.Router) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":        "healthy",
			"timestamp":     time.Now().Format(time.RFC3339),
			"downloads_dir": config.PathDownloads,
		})
	})
}
