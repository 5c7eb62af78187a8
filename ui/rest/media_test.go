package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainMedia "github.com/ndavydoff/music-finder/domains/media"
	"github.com/ndavydoff/music-finder/domains/track"
	pkgError "github.com/ndavydoff/music-finder/pkg/error"
	"github.com/ndavydoff/music-finder/ui/rest/middleware"
)

type stubMediaService struct {
	searchResults []track.Track
	searchErr     error
	downloadPath  string
	downloadErr   error
	sweepCalled   bool
	savedSettings *domainMedia.RetentionSettings
}

func (s *stubMediaService) GetSearchResults(ctx context.Context, query string, limit int) ([]track.Track, error) {
	return s.searchResults, s.searchErr
}

func (s *stubMediaService) GetDownload(ctx context.Context, videoID string, title string, maxSize int64) (string, string, error) {
	if s.downloadErr != nil {
		return "", "", s.downloadErr
	}
	return s.downloadPath, filepath.Base(s.downloadPath), nil
}

func (s *stubMediaService) StartBackgroundRetention(ctx context.Context) {}

func (s *stubMediaService) RunRetentionNow() { s.sweepCalled = true }

func (s *stubMediaService) GetCacheStats(ctx context.Context) (domainMedia.CacheStats, error) {
	return domainMedia.CacheStats{SearchEntries: 3, DownloadEntries: 1, HumanDiskSize: "1.0 MB"}, nil
}

func (s *stubMediaService) ClearCache(ctx context.Context) error { return nil }

func (s *stubMediaService) GetRetentionSettings(ctx context.Context) (domainMedia.RetentionSettings, error) {
	return domainMedia.RetentionSettings{Enabled: true, MaxAgeHours: 24, IntervalMins: 60}, nil
}

func (s *stubMediaService) SaveRetentionSettings(ctx context.Context, settings domainMedia.RetentionSettings) error {
	s.savedSettings = &settings
	return nil
}

func newTestApp(service domainMedia.IMediaUsecase) *fiber.App {
	app := fiber.New()
	app.Use(middleware.Recovery())
	InitRestMedia(app, service)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) (int, map[string]any) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp.StatusCode, decoded
}

func TestSearchEndpointReturnsResults(t *testing.T) {
	service := &stubMediaService{searchResults: []track.Track{
		{ID: "abc", Title: "Song A", Artist: "Artist"},
		{ID: "def", Title: "Song B", Artist: "Artist"},
	}}
	app := newTestApp(service)

	status, body := postJSON(t, app, "/search", fiber.Map{"query": "song"})
	assert.Equal(t, 200, status)
	assert.Equal(t, "SUCCESS", body["code"])

	results := body["results"].(map[string]any)
	assert.Equal(t, float64(2), results["total_results"])
	assert.Equal(t, "song", results["query"])
}

func TestSearchEndpointRejectsEmptyQuery(t *testing.T) {
	app := newTestApp(&stubMediaService{})

	status, body := postJSON(t, app, "/search", fiber.Map{"query": ""})
	assert.Equal(t, 400, status)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}

func TestSearchEndpointRejectsOversizedLimit(t *testing.T) {
	app := newTestApp(&stubMediaService{})

	status, _ := postJSON(t, app, "/search", fiber.Map{"query": "song", "limit": 100})
	assert.Equal(t, 400, status)
}

func TestSearchEndpointMapsUpstreamError(t *testing.T) {
	service := &stubMediaService{searchErr: pkgError.UpstreamError("search failed: timeout")}
	app := newTestApp(service)

	status, body := postJSON(t, app, "/search", fiber.Map{"query": "song"})
	assert.Equal(t, 502, status)
	assert.Equal(t, "UPSTREAM_EXTRACTION_FAILURE", body["code"])
}

func TestDownloadEndpointStreamsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Song_abc.mp3")
	require.NoError(t, os.WriteFile(path, []byte("mp3data"), 0644))

	service := &stubMediaService{downloadPath: path}
	app := newTestApp(service)

	payload, _ := json.Marshal(fiber.Map{"video_id": "abc", "title": "Song"})
	req := httptest.NewRequest(fiber.MethodPost, "/download", bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "audio/mpeg", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "Song.mp3")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "mp3data", string(data))
}

func TestDownloadEndpointRequiresVideoID(t *testing.T) {
	app := newTestApp(&stubMediaService{})

	status, _ := postJSON(t, app, "/download", fiber.Map{"title": "Song"})
	assert.Equal(t, 400, status)
}

func TestDownloadEndpointMapsFileTooLarge(t *testing.T) {
	service := &stubMediaService{downloadErr: pkgError.FileTooLargeError("file too large (200 MB, limit 150 MB)")}
	app := newTestApp(service)

	status, body := postJSON(t, app, "/download", fiber.Map{"video_id": "abc", "title": "Song"})
	assert.Equal(t, 413, status)
	assert.Equal(t, "FILE_TOO_LARGE", body["code"])
}

func TestCacheStatsEndpoint(t *testing.T) {
	app := newTestApp(&stubMediaService{})

	req := httptest.NewRequest(fiber.MethodGet, "/cache/stats", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	results := body["results"].(map[string]any)
	assert.Equal(t, float64(3), results["search_entries"])
}

func TestSweepEndpointTriggersRetention(t *testing.T) {
	service := &stubMediaService{}
	app := newTestApp(service)

	status, _ := postJSON(t, app, "/cache/sweep", fiber.Map{})
	assert.Equal(t, 200, status)
	assert.True(t, service.sweepCalled)
}

func TestUpdateRetentionSettingsEndpoint(t *testing.T) {
	service := &stubMediaService{}
	app := newTestApp(service)

	payload, _ := json.Marshal(domainMedia.RetentionSettings{Enabled: false, MaxAgeHours: 48, IntervalMins: 30})
	req := httptest.NewRequest(fiber.MethodPut, "/cache/settings", bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	require.NotNil(t, service.savedSettings)
	assert.Equal(t, 48, service.savedSettings.MaxAgeHours)
	assert.False(t, service.savedSettings.Enabled)
}
