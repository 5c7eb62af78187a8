package media

import (
	"context"

	"github.com/ndavydoff/music-finder/domains/track"
)

// Extractor is the blocking external extraction tool. Both calls may run
// for tens of seconds and must never be invoked while holding cache locks.
type Extractor interface {
	Search(ctx context.Context, query string, limit int) ([]track.Track, error)
	DownloadAudio(ctx context.Context, videoURL string, outputTemplate string) error
}

type CacheStats struct {
	SearchEntries   int    `json:"search_entries"`
	DownloadEntries int    `json:"download_entries"`
	DiskFiles       int    `json:"disk_files"`
	DiskSize        int64  `json:"disk_size"`
	HumanDiskSize   string `json:"human_disk_size"`
}

type RetentionSettings struct {
	Enabled      bool `json:"enabled"`
	MaxAgeHours  int  `json:"max_age_hours"`
	IntervalMins int  `json:"interval_mins"`
}

type IMediaUsecase interface {
	GetSearchResults(ctx context.Context, query string, limit int) ([]track.Track, error)
	// GetDownload returns the local artifact path and its base filename.
	// maxSize <= 0 falls back to the configured web surface ceiling.
	GetDownload(ctx context.Context, videoID string, title string, maxSize int64) (string, string, error)

	StartBackgroundRetention(ctx context.Context)
	RunRetentionNow()

	GetCacheStats(ctx context.Context) (CacheStats, error)
	ClearCache(ctx context.Context) error
	GetRetentionSettings(ctx context.Context) (RetentionSettings, error)
	SaveRetentionSettings(ctx context.Context, settings RetentionSettings) error
}
