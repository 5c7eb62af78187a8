package cmd

import (
	"context"
	"embed"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	globalConfig "github.com/ndavydoff/music-finder/config"
	"github.com/ndavydoff/music-finder/core/database"
	domainMedia "github.com/ndavydoff/music-finder/domains/media"
	domainUser "github.com/ndavydoff/music-finder/domains/user"
	"github.com/ndavydoff/music-finder/infrastructure/valkey"
	"github.com/ndavydoff/music-finder/pkg/extractor"
	"github.com/ndavydoff/music-finder/pkg/fetchworker"
	"github.com/ndavydoff/music-finder/pkg/utils"
	"github.com/ndavydoff/music-finder/repository"
	"github.com/ndavydoff/music-finder/ui/websocket"
	"github.com/ndavydoff/music-finder/usecase"
)

var (
	EmbedStatic embed.FS

	appCtx    context.Context
	appCancel context.CancelFunc

	pool     *fetchworker.Pool
	vkClient *valkey.Client

	mediaUsecase domainMedia.IMediaUsecase
	userUsecase  domainUser.IUserUsecase
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "music-finder",
	Short: "Music search and download service",
	Long: `Music Finder searches YouTube for tracks and converts them to MP3,
serving results over a REST API, a Telegram bot, a WhatsApp webhook and MCP.`,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initEnvConfig, initApp)
}

// initEnvConfig loads configuration from environment variables
func initEnvConfig() {
	if envHost := viper.GetString("app_host"); envHost != "" {
		globalConfig.AppHost = envHost
	}
	if envPort := viper.GetString("app_port"); envPort != "" {
		globalConfig.AppPort = envPort
	}
	if envDebug := viper.GetBool("app_debug"); envDebug {
		globalConfig.AppDebug = envDebug
	}
	envBasicAuth := viper.GetString("app_basic_auth")
	if envBasicAuth == "" {
		envBasicAuth = os.Getenv("APP_BASIC_AUTH")
	}
	if envBasicAuth != "" {
		globalConfig.AppBasicAuthCredential = strings.Split(envBasicAuth, ",")
	}
	if envBasePath := viper.GetString("app_base_path"); envBasePath != "" {
		globalConfig.AppBasePath = envBasePath
	}

	// Database settings
	if envDriver := viper.GetString("db_driver"); envDriver != "" {
		globalConfig.DBDriver = envDriver
	}
	if envName := viper.GetString("db_name"); envName != "" {
		globalConfig.DBName = envName
	}
	if envHost := viper.GetString("db_host"); envHost != "" {
		globalConfig.DBHost = envHost
	}
	if envPort := viper.GetInt("db_port"); envPort != 0 {
		globalConfig.DBPort = envPort
	}
	if envUser := viper.GetString("db_user"); envUser != "" {
		globalConfig.DBUser = envUser
	}
	if envPassword := viper.GetString("db_password"); envPassword != "" {
		globalConfig.DBPassword = envPassword
	}

	// Paths
	if envDownloads := viper.GetString("downloads_dir"); envDownloads != "" {
		globalConfig.PathDownloads = envDownloads
	}
	if envTemp := viper.GetString("temp_dir"); envTemp != "" {
		globalConfig.PathTemp = envTemp
	}

	// Extraction settings
	if envBinary := viper.GetString("ytdlp_binary"); envBinary != "" {
		globalConfig.YtdlpBinary = envBinary
	}
	if envWorkers := viper.GetInt("worker_pool_size"); envWorkers > 0 {
		globalConfig.WorkerPoolSize = envWorkers
	}
	if envQueue := viper.GetInt("worker_queue_size"); envQueue > 0 {
		globalConfig.WorkerQueueSize = envQueue
	}
	if envMaxSize := viper.GetInt64("max_file_size"); envMaxSize > 0 {
		globalConfig.MaxFileSize = envMaxSize
	}
	if envBotMaxSize := viper.GetInt64("bot_max_file_size"); envBotMaxSize > 0 {
		globalConfig.BotMaxFileSize = envBotMaxSize
	}
	if envSearchTTL := viper.GetInt("search_cache_ttl_secs"); envSearchTTL > 0 {
		globalConfig.SearchCacheTTL = time.Duration(envSearchTTL) * time.Second
	}
	if envDownloadTTL := viper.GetInt("download_cache_ttl_hours"); envDownloadTTL > 0 {
		globalConfig.DownloadCacheTTL = time.Duration(envDownloadTTL) * time.Hour
	}

	// Valkey settings
	if viper.IsSet("valkey_enabled") {
		globalConfig.ValkeyEnabled = viper.GetBool("valkey_enabled")
	}
	if envAddress := viper.GetString("valkey_address"); envAddress != "" {
		globalConfig.ValkeyAddress = envAddress
	}
	if envPassword := viper.GetString("valkey_password"); envPassword != "" {
		globalConfig.ValkeyPassword = envPassword
	}
	if viper.IsSet("valkey_db") {
		globalConfig.ValkeyDB = viper.GetInt("valkey_db")
	}

	// Bot surfaces
	if envToken := viper.GetString("telegram_token"); envToken != "" {
		globalConfig.TelegramToken = envToken
	}
	if envSID := viper.GetString("twilio_account_sid"); envSID != "" {
		globalConfig.TwilioAccountSID = envSID
	}
	if envToken := viper.GetString("twilio_auth_token"); envToken != "" {
		globalConfig.TwilioAuthToken = envToken
	}
	if envFrom := viper.GetString("twilio_from"); envFrom != "" {
		globalConfig.TwilioFrom = envFrom
	}
	if envBase := viper.GetString("webhook_base_url"); envBase != "" {
		globalConfig.WebhookBaseURL = envBase
	}
}

func initFlags() {
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.AppPort,
		"port", "p",
		globalConfig.AppPort,
		"change port number with --port <number> | example: --port=8080",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&globalConfig.AppDebug,
		"debug", "d",
		globalConfig.AppDebug,
		"hide or displaying log with --debug <true/false> | example: --debug=true",
	)
	rootCmd.PersistentFlags().StringSliceVarP(
		&globalConfig.AppBasicAuthCredential,
		"basic-auth", "b",
		globalConfig.AppBasicAuthCredential,
		"basic auth credential | -b=yourUsername:yourPassword",
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.DBDriver,
		"db-driver", "",
		globalConfig.DBDriver,
		`database driver, sqlite or postgres --db-driver <string> | example: --db-driver="postgres"`,
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.DBName,
		"db-name", "",
		globalConfig.DBName,
		`database name, or the file path for sqlite --db-name <string> | example: --db-name="storages/musicfinder.db"`,
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.YtdlpBinary,
		"ytdlp-binary", "",
		globalConfig.YtdlpBinary,
		`path to the yt-dlp binary --ytdlp-binary <string> | example: --ytdlp-binary="/usr/local/bin/yt-dlp"`,
	)
	rootCmd.PersistentFlags().IntVarP(
		&globalConfig.WorkerPoolSize,
		"fetch-workers", "",
		globalConfig.WorkerPoolSize,
		`number of concurrent fetch workers --fetch-workers <number> | example: --fetch-workers=16 (default: 8)`,
	)
	rootCmd.PersistentFlags().IntVarP(
		&globalConfig.WorkerQueueSize,
		"fetch-queue-size", "",
		globalConfig.WorkerQueueSize,
		`queue size per fetch worker --fetch-queue-size <number> | example: --fetch-queue-size=64 (default: 32)`,
	)
}

func initApp() {
	if globalConfig.AppDebug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if globalConfig.ServerID == "" {
		globalConfig.ServerID = uuid.NewString()
	}

	// preparing folder if not exist
	err := utils.CreateFolder(globalConfig.PathDownloads, globalConfig.PathTemp, globalConfig.PathStatics, globalConfig.PathStorages)
	if err != nil {
		logrus.Errorln(err)
	}

	appCtx, appCancel = context.WithCancel(context.Background())

	db, err := database.NewDatabase()
	if err != nil {
		logrus.Fatalf("[APP] Failed to connect database: %v", err)
	}

	userRepo, err := repository.NewUserGormRepository(db)
	if err != nil {
		logrus.Fatalf("[APP] Failed to migrate user tables: %v", err)
	}
	userUsecase = usecase.NewUserService(userRepo)

	pool = fetchworker.NewPool(globalConfig.WorkerPoolSize, globalConfig.WorkerQueueSize)
	pool.Start(appCtx)

	mediaService := usecase.NewMediaService(extractor.NewYtDlp(), pool)
	mediaService.OnEvent = func(code string, result any) {
		select {
		case websocket.Broadcast <- websocket.BroadcastMessage{Code: code, Message: code, Result: result}:
		default:
			// No hub running (bot-only modes); events are best-effort.
		}
	}
	mediaService.StartBackgroundRetention(appCtx)
	mediaUsecase = mediaService

	if globalConfig.ValkeyEnabled {
		vkClient, err = valkey.NewClient(valkey.Config{
			Address:   globalConfig.ValkeyAddress,
			Password:  globalConfig.ValkeyPassword,
			DB:        globalConfig.ValkeyDB,
			KeyPrefix: globalConfig.ValkeyKeyPrefix,
		})
		if err != nil {
			logrus.Errorf("[APP] Valkey disabled, connection failed: %v", err)
			vkClient = nil
		} else {
			websocket.SetValkeyClient(vkClient, globalConfig.ServerID)
		}
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(embedStatic embed.FS) {
	EmbedStatic = embedStatic
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp performs a clean shutdown of the worker pool and open connections.
func StopApp() {
	logrus.Info("[APP] Stopping application...")

	if appCancel != nil {
		appCancel()
	}
	if pool != nil {
		pool.Stop()
	}
	if vkClient != nil {
		vkClient.Close()
	}

	logrus.Info("[APP] Application stopped cleanly.")
}
