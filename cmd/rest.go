package cmd

import (
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	globalConfig "github.com/ndavydoff/music-finder/config"
	"github.com/ndavydoff/music-finder/ui/rest"
	"github.com/ndavydoff/music-finder/ui/rest/middleware"
	"github.com/ndavydoff/music-finder/ui/websocket"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve the music search and download API over http",
	Run:   restServer,
}

func init() {
	rootCmd.AddCommand(restCmd)
}

func restServer(_ *cobra.Command, _ []string) {
	app := fiber.New(fiber.Config{
		BodyLimit:    int(globalConfig.MaxFileSize),
		Network:      "tcp",
		AppName:      "Music Finder " + globalConfig.AppVersion,
		ServerHeader: "Hidden",
	})

	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.Recovery())
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	if globalConfig.AppDebug {
		app.Use(logger.New())
	}

	apiGroup := app.Group(globalConfig.AppBasePath + "/api")

	if len(globalConfig.AppBasicAuthCredential) > 0 {
		account := make(map[string]string)
		for _, credential := range globalConfig.AppBasicAuthCredential {
			ba := strings.Split(credential, ":")
			if len(ba) != 2 {
				logrus.Fatalln("Basic auth is not valid, please use the format <user>:<secret>")
			}
			account[ba[0]] = ba[1]
		}
		apiGroup.Use(basicauth.New(basicauth.Config{
			Users: account,
			Next: func(c *fiber.Ctx) bool {
				// Allow CORS preflight without credentials.
				return c.Method() == fiber.MethodOptions
			},
		}))
	}

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[REST] Reception of termination signal, shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
		StopApp()
	}()

	rest.InitRestMedia(apiGroup, mediaUsecase)
	rest.InitRestUser(apiGroup, userUsecase)
	rest.InitRestHealth(apiGroup)

	// Websocket
	websocket.RegisterRoutes(apiGroup)
	go websocket.RunHub()

	apiGroup.All("/*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "API Endpoint not found",
			"path":  c.Path(),
		})
	})

	app.Use(globalConfig.AppBasePath+"/", filesystem.New(filesystem.Config{
		Root:       http.FS(EmbedStatic),
		PathPrefix: "static",
		Index:      "index.html",
	}))

	if err := app.Listen(globalConfig.AppHost + ":" + globalConfig.AppPort); err != nil {
		logrus.Fatalln("Failed to start: ", err.Error())
	}
}
