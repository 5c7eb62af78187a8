package config

import "time"

var (
	AppVersion             = "v2.1.0"
	AppHost                = "127.0.0.1"
	AppPort                = "8001"
	AppDebug               = false
	AppBasicAuthCredential []string
	AppBasePath            = ""

	McpPort = "8080"
	McpHost = "localhost"

	PathDownloads = "downloads"
	PathTemp      = "temp"
	PathStatics   = "static"
	PathStorages  = "storages"

	// MaxFileSize is the ceiling for the web API surface. Bot surfaces
	// use BotMaxFileSize since messaging platforms reject big uploads.
	MaxFileSize    int64 = 157286400 // 150MB
	BotMaxFileSize int64 = 52428800  // 50MB

	SearchCacheTTL    = 10 * time.Minute
	DownloadCacheTTL  = 24 * time.Hour
	RetentionInterval = 1 * time.Hour

	YtdlpBinary = "yt-dlp"

	DBDriver   = "sqlite"
	DBName     = "storages/musicfinder.db"
	DBHost     = "localhost"
	DBPort     = 5432
	DBUser     = ""
	DBPassword = ""

	WorkerPoolSize  int = 8
	WorkerQueueSize int = 32

	ValkeyEnabled         = false
	ValkeyAddress         = "127.0.0.1:6379"
	ValkeyPassword        = ""
	ValkeyDB          int = 0
	ValkeyKeyPrefix       = "musicfinder"

	TelegramToken    = ""
	TwilioAccountSID = ""
	TwilioAuthToken  = ""
	TwilioFrom       = ""
	// WebhookBaseURL is the public base URL Twilio uses to fetch media files.
	WebhookBaseURL = "http://localhost:8002"

	ServerID string
)
