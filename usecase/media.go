package usecase

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ndavydoff/music-finder/config"
	domainMedia "github.com/ndavydoff/music-finder/domains/media"
	"github.com/ndavydoff/music-finder/domains/track"
	pkgError "github.com/ndavydoff/music-finder/pkg/error"
	"github.com/ndavydoff/music-finder/pkg/fetchworker"
)

// cacheEntry is immutable once created; an update replaces the whole entry.
type cacheEntry[T any] struct {
	createdAt time.Time
	value     T
}

// entryValid is the single TTL check shared by both cache managers and the
// sweeper. Strict less-than: an entry aged exactly ttl is already stale.
func entryValid(createdAt time.Time, ttl time.Duration) bool {
	return time.Since(createdAt) < ttl
}

type mediaService struct {
	extractor domainMedia.Extractor
	pool      *fetchworker.Pool

	downloadsDir string
	settingsDB   string
	searchTTL    time.Duration
	downloadTTL  time.Duration

	searchMu    sync.Mutex
	searchCache map[string]cacheEntry[[]track.Track]

	downloadMu    sync.Mutex
	downloadCache map[string]cacheEntry[string]

	// OnEvent, when set, receives service events (download ready, sweep
	// done) for the websocket hub. Must not block.
	OnEvent func(code string, result any)
}

func NewMediaService(extractor domainMedia.Extractor, pool *fetchworker.Pool) *mediaService {
	return &mediaService{
		extractor:     extractor,
		pool:          pool,
		downloadsDir:  config.PathDownloads,
		settingsDB:    filepath.Join(config.PathStorages, "settings.db"),
		searchTTL:     config.SearchCacheTTL,
		downloadTTL:   config.DownloadCacheTTL,
		searchCache:   make(map[string]cacheEntry[[]track.Track]),
		downloadCache: make(map[string]cacheEntry[string]),
	}
}

// GetSearchResults serves cached results inside the TTL and otherwise runs
// the extractor through the worker pool. The lock is never held across the
// external call, so two concurrent misses for the same key may both hit the
// extractor; last write wins and the values are idempotent.
func (s *mediaService) GetSearchResults(ctx context.Context, query string, limit int) ([]track.Track, error) {
	key := fmt.Sprintf("%s|%d", query, limit)

	s.searchMu.Lock()
	if entry, ok := s.searchCache[key]; ok && entryValid(entry.createdAt, s.searchTTL) {
		s.searchMu.Unlock()
		logrus.Debugf("[CACHE] Search hit for %q", key)
		return entry.value, nil
	}
	s.searchMu.Unlock()

	res := <-s.pool.Submit("search|"+key, func(ctx context.Context) (any, error) {
		return s.extractor.Search(ctx, query, limit)
	})
	if res.Err != nil {
		// Failures are never cached; the next request retries from scratch.
		return nil, res.Err
	}
	results := res.Value.([]track.Track)

	s.searchMu.Lock()
	s.searchCache[key] = cacheEntry[[]track.Track]{createdAt: time.Now(), value: results}
	s.searchMu.Unlock()

	return results, nil
}

// GetDownload returns a cached artifact when the entry is fresh AND the file
// still exists on disk; both checks are required. A valid hit refreshes the
// entry timestamp. On miss the download runs through the worker pool.
func (s *mediaService) GetDownload(ctx context.Context, videoID string, title string, maxSize int64) (string, string, error) {
	if maxSize <= 0 {
		maxSize = config.MaxFileSize
	}

	s.downloadMu.Lock()
	if entry, ok := s.downloadCache[videoID]; ok && entryValid(entry.createdAt, s.downloadTTL) {
		if _, err := os.Stat(entry.value); err == nil {
			s.downloadCache[videoID] = cacheEntry[string]{createdAt: time.Now(), value: entry.value}
			s.downloadMu.Unlock()
			logrus.Debugf("[CACHE] Download hit for %s", videoID)
			return entry.value, filepath.Base(entry.value), nil
		}
	}
	s.downloadMu.Unlock()

	res := <-s.pool.Submit("download|"+videoID, func(ctx context.Context) (any, error) {
		return s.downloadArtifact(ctx, videoID, title, maxSize)
	})
	if res.Err != nil {
		return "", "", res.Err
	}
	path := res.Value.(string)

	s.downloadMu.Lock()
	s.downloadCache[videoID] = cacheEntry[string]{createdAt: time.Now(), value: path}
	s.downloadMu.Unlock()

	filename := filepath.Base(path)
	s.emit("DOWNLOAD_READY", map[string]string{"video_id": videoID, "filename": filename})

	return path, filename, nil
}

// downloadArtifact runs the blocking download, locates the transcoded MP3 by
// the unique id infix and enforces the size ceiling. The ceiling can only be
// checked after the full transcode; that cost is accepted.
func (s *mediaService) downloadArtifact(ctx context.Context, videoID string, title string, maxSize int64) (string, error) {
	downloadID := uuid.NewString()
	safeTitle := sanitizeTitle(title)
	template := filepath.Join(s.downloadsDir, fmt.Sprintf("%s_%s.%%(ext)s", safeTitle, downloadID))

	if err := s.extractor.DownloadAudio(ctx, "https://www.youtube.com/watch?v="+videoID, template); err != nil {
		return "", err
	}

	finalPath, err := s.locateArtifact(downloadID)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		return "", pkgError.ArtifactMissingError(fmt.Sprintf("artifact vanished after conversion: %s", finalPath))
	}
	if info.Size() > maxSize {
		if err := os.Remove(finalPath); err != nil {
			logrus.WithError(err).Errorf("[CACHE] Failed to remove oversized file %s", finalPath)
		}
		return "", pkgError.FileTooLargeError(fmt.Sprintf(
			"file too large (%s, limit %s)", humanize.Bytes(uint64(info.Size())), humanize.Bytes(uint64(maxSize))))
	}

	return finalPath, nil
}

func (s *mediaService) locateArtifact(downloadID string) (string, error) {
	entries, err := os.ReadDir(s.downloadsDir)
	if err != nil {
		return "", pkgError.ArtifactMissingError(fmt.Sprintf("cannot read downloads dir %s: %v", s.downloadsDir, err))
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.Contains(name, downloadID) && strings.HasSuffix(strings.ToLower(name), ".mp3") {
			return filepath.Join(s.downloadsDir, name), nil
		}
	}

	logrus.Errorf("[CACHE] No MP3 artifact for id %s in %s", downloadID, s.downloadsDir)
	return "", pkgError.ArtifactMissingError(fmt.Sprintf("no MP3 produced for id %s in %s", downloadID, s.downloadsDir))
}

// sanitizeTitle keeps filenames filesystem-safe: alphanumerics, spaces,
// hyphens and underscores only, trimmed, capped at 120 chars, spaces
// replaced with underscores. Empty results become "track".
func sanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}

	safe := strings.TrimSpace(b.String())
	if runes := []rune(safe); len(runes) > 120 {
		safe = strings.TrimSpace(string(runes[:120]))
	}
	if safe == "" {
		return "track"
	}
	return strings.ReplaceAll(safe, " ", "_")
}

// StartBackgroundRetention launches the periodic sweep loop. The loop stops
// when ctx is cancelled; an in-flight sweep finishes on its own since every
// file removal is independent.
func (s *mediaService) StartBackgroundRetention(ctx context.Context) {
	go func() {
		for {
			settings, err := s.GetRetentionSettings(context.Background())
			if err != nil {
				logrus.WithError(err).Warn("[CACHE] Using default retention settings")
				settings = s.defaultRetentionSettings()
			}

			if settings.Enabled {
				logrus.Info("[CACHE] Running scheduled retention sweep...")
				s.RunRetentionNow()
			}

			interval := time.Duration(settings.IntervalMins) * time.Minute
			if interval <= 0 {
				interval = config.RetentionInterval
			}

			select {
			case <-ctx.Done():
				logrus.Info("[CACHE] Background retention stopped")
				return
			case <-time.After(interval):
			}
		}
	}()
}

// RunRetentionNow performs one sweep: expired files are deleted from disk
// first, then a snapshot of the download cache is reconciled against the
// filesystem. The stored max-age setting decides what counts as expired;
// locks are only held for the map mutations, never for disk IO.
func (s *mediaService) RunRetentionNow() {
	settings, err := s.GetRetentionSettings(context.Background())
	if err != nil {
		logrus.WithError(err).Warn("[CACHE] Sweep using default retention settings")
		settings = s.defaultRetentionSettings()
	}
	maxAge := time.Duration(settings.MaxAgeHours) * time.Hour
	if maxAge <= 0 {
		maxAge = s.downloadTTL
	}

	removedFiles := s.sweepDisk(maxAge)
	removedEntries := s.sweepDownloadCache(maxAge)

	if removedFiles > 0 || removedEntries > 0 {
		logrus.Infof("[CACHE] Sweep removed %d files and %d cache entries", removedFiles, removedEntries)
	}
	s.emit("SWEEP_DONE", map[string]int{"files_removed": removedFiles, "entries_removed": removedEntries})
}

func (s *mediaService) sweepDisk(maxAge time.Duration) int {
	entries, err := os.ReadDir(s.downloadsDir)
	if err != nil {
		logrus.WithError(err).Error("[CACHE] Sweep cannot read downloads dir")
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == ".gitignore" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) > maxAge {
			path := filepath.Join(s.downloadsDir, entry.Name())
			if err := os.Remove(path); err != nil {
				logrus.WithError(err).Errorf("[CACHE] Failed to remove old file %s", path)
				continue
			}
			removed++
		}
	}
	return removed
}

func (s *mediaService) sweepDownloadCache(maxAge time.Duration) int {
	s.downloadMu.Lock()
	snapshot := make(map[string]cacheEntry[string], len(s.downloadCache))
	for id, entry := range s.downloadCache {
		snapshot[id] = entry
	}
	s.downloadMu.Unlock()

	var stale []string
	for id, entry := range snapshot {
		_, statErr := os.Stat(entry.value)
		if statErr != nil || !entryValid(entry.createdAt, maxAge) {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return 0
	}

	s.downloadMu.Lock()
	for _, id := range stale {
		delete(s.downloadCache, id)
	}
	s.downloadMu.Unlock()

	return len(stale)
}

func (s *mediaService) GetCacheStats(ctx context.Context) (domainMedia.CacheStats, error) {
	s.searchMu.Lock()
	searchEntries := len(s.searchCache)
	s.searchMu.Unlock()

	s.downloadMu.Lock()
	downloadEntries := len(s.downloadCache)
	s.downloadMu.Unlock()

	var diskFiles int
	var diskSize int64
	entries, err := os.ReadDir(s.downloadsDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() || entry.Name() == ".gitignore" {
				continue
			}
			if info, err := entry.Info(); err == nil {
				diskFiles++
				diskSize += info.Size()
			}
		}
	}

	return domainMedia.CacheStats{
		SearchEntries:   searchEntries,
		DownloadEntries: downloadEntries,
		DiskFiles:       diskFiles,
		DiskSize:        diskSize,
		HumanDiskSize:   humanize.Bytes(uint64(diskSize)),
	}, nil
}

func (s *mediaService) ClearCache(ctx context.Context) error {
	s.searchMu.Lock()
	s.searchCache = make(map[string]cacheEntry[[]track.Track])
	s.searchMu.Unlock()

	s.downloadMu.Lock()
	s.downloadCache = make(map[string]cacheEntry[string])
	s.downloadMu.Unlock()

	entries, err := os.ReadDir(s.downloadsDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == ".gitignore" {
			continue
		}
		if err := os.Remove(filepath.Join(s.downloadsDir, entry.Name())); err != nil {
			logrus.WithError(err).Errorf("[CACHE] Failed to remove %s", entry.Name())
		}
	}

	return nil
}

func (s *mediaService) defaultRetentionSettings() domainMedia.RetentionSettings {
	return domainMedia.RetentionSettings{
		Enabled:      true,
		MaxAgeHours:  int(s.downloadTTL / time.Hour),
		IntervalMins: int(config.RetentionInterval / time.Minute),
	}
}

func (s *mediaService) GetRetentionSettings(ctx context.Context) (domainMedia.RetentionSettings, error) {
	db, err := s.openSettingsDB()
	if err != nil {
		return domainMedia.RetentionSettings{}, err
	}
	defer db.Close()

	settings := s.defaultRetentionSettings()

	rows, err := db.QueryContext(ctx, `SELECT key, value FROM global_settings WHERE key LIKE 'retention_%'`)
	if err != nil {
		return settings, nil
	}
	defer rows.Close()

	for rows.Next() {
		var key, val string
		if err := rows.Scan(&key, &val); err != nil {
			continue
		}
		switch key {
		case "retention_enabled":
			settings.Enabled = val == "1" || val == "true"
		case "retention_max_age_hours":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				settings.MaxAgeHours = n
			}
		case "retention_interval_mins":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				settings.IntervalMins = n
			}
		}
	}

	return settings, nil
}

func (s *mediaService) SaveRetentionSettings(ctx context.Context, settings domainMedia.RetentionSettings) error {
	db, err := s.openSettingsDB()
	if err != nil {
		return err
	}
	defer db.Close()

	save := func(key, val string) {
		db.ExecContext(ctx, `INSERT INTO global_settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, val)
	}

	enabled := "0"
	if settings.Enabled {
		enabled = "1"
	}
	save("retention_enabled", enabled)
	save("retention_max_age_hours", strconv.Itoa(settings.MaxAgeHours))
	save("retention_interval_mins", strconv.Itoa(settings.IntervalMins))

	return nil
}

func (s *mediaService) openSettingsDB() (*sql.DB, error) {
	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on", s.settingsDB)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_settings (key TEXT PRIMARY KEY, value TEXT)`); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (s *mediaService) emit(code string, result any) {
	if s.OnEvent != nil {
		s.OnEvent(code, result)
	}
}
