package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	globalConfig "github.com/ndavydoff/music-finder/config"
	"github.com/ndavydoff/music-finder/ui/telegram"
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Start the Telegram bot",
	Long:  `Start the Telegram bot. Requires TELEGRAM_TOKEN to be set.`,
	Run:   telegramBot,
}

func init() {
	rootCmd.AddCommand(telegramCmd)
	telegramCmd.Flags().StringVar(&globalConfig.TelegramToken, "token", globalConfig.TelegramToken, "Telegram bot token (overrides TELEGRAM_TOKEN)")
}

func telegramBot(_ *cobra.Command, _ []string) {
	bot, err := telegram.NewBot(mediaUsecase, userUsecase)
	if err != nil {
		logrus.Fatalf("[TELEGRAM] Failed to start bot: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[TELEGRAM] Reception of termination signal, shutting down gracefully...")
		StopApp()
		os.Exit(0)
	}()

	bot.Run(appCtx)
}
