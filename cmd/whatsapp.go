package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	globalConfig "github.com/ndavydoff/music-finder/config"
	"github.com/ndavydoff/music-finder/ui/whatsapp"
)

var whatsappCmd = &cobra.Command{
	Use:   "whatsapp",
	Short: "Start the WhatsApp webhook server (Twilio)",
	Long: `Start an HTTP server that receives Twilio WhatsApp webhooks and
replies over the Twilio REST API. Requires TWILIO_ACCOUNT_SID,
TWILIO_AUTH_TOKEN, TWILIO_FROM and a public WEBHOOK_BASE_URL.`,
	Run: whatsappServer,
}

func init() {
	rootCmd.AddCommand(whatsappCmd)
	whatsappCmd.Flags().StringVar(&globalConfig.WebhookBaseURL, "webhook-base-url", globalConfig.WebhookBaseURL, "Public base URL Twilio uses to fetch media files")
}

func whatsappServer(_ *cobra.Command, _ []string) {
	if globalConfig.TwilioAccountSID == "" || globalConfig.TwilioAuthToken == "" {
		logrus.Fatalln("[WHATSAPP] TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN are required")
	}

	app := fiber.New(fiber.Config{
		Network:      "tcp",
		AppName:      "Music Finder WhatsApp " + globalConfig.AppVersion,
		ServerHeader: "Hidden",
	})
	app.Use(requestid.New())

	whatsapp.InitWebhook(app, mediaUsecase, userUsecase)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[WHATSAPP] Reception of termination signal, shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[WHATSAPP] Error during Fiber shutdown: %v", err)
		}
		StopApp()
	}()

	if err := app.Listen(globalConfig.AppHost + ":" + globalConfig.AppPort); err != nil {
		logrus.Fatalln("Failed to start: ", err.Error())
	}
}
