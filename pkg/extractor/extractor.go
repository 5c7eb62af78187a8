// Package extractor wraps the yt-dlp command line tool. Both operations
// are blocking and are expected to run through the fetchworker pool.
package extractor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ndavydoff/music-finder/config"
	"github.com/ndavydoff/music-finder/domains/track"
	pkgError "github.com/ndavydoff/music-finder/pkg/error"
)

type YtDlp struct {
	Binary string
}

func NewYtDlp() *YtDlp {
	binary := config.YtdlpBinary
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YtDlp{Binary: binary}
}

// searchEntry mirrors the fields of one flat-playlist JSON line.
type searchEntry struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Uploader   string  `json:"uploader"`
	Duration   float64 `json:"duration"`
	Thumbnail  string  `json:"thumbnail"`
	Thumbnails []struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
}

func (y *YtDlp) Search(ctx context.Context, query string, limit int) ([]track.Track, error) {
	args := []string{
		"--dump-json",
		"--flat-playlist",
		"--skip-download",
		"--no-warnings",
		"--socket-timeout", "30",
		fmt.Sprintf("ytsearch%d:%s", limit, query),
	}

	cmd := exec.CommandContext(ctx, y.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		logrus.WithError(err).Errorf("[EXTRACTOR] Search failed for %q: %s", query, lastLine(stderr.String()))
		return nil, pkgError.UpstreamError(fmt.Sprintf("search failed: %s", extractorCause(err, stderr.String())))
	}

	results := make([]track.Track, 0, limit)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		t, err := parseSearchLine(line)
		if err != nil {
			logrus.WithError(err).Warn("[EXTRACTOR] Skipping unparseable search entry")
			continue
		}
		results = append(results, t)
		if len(results) >= limit {
			break
		}
	}

	return results, nil
}

// DownloadAudio fetches best-available audio and transcodes to 192kbps MP3.
// The final filename is not returned by yt-dlp since post-processing renames
// the file; callers locate the artifact by the unique id in outputTemplate.
func (y *YtDlp) DownloadAudio(ctx context.Context, videoURL string, outputTemplate string) error {
	args := []string{
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"--format", "bestaudio/best",
		"--no-playlist",
		"--no-warnings",
		"--socket-timeout", "60",
		"--retries", "15",
		"--fragment-retries", "15",
		"--concurrent-fragments", "4",
		"--output", outputTemplate,
		videoURL,
	}

	cmd := exec.CommandContext(ctx, y.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logrus.WithError(err).Errorf("[EXTRACTOR] Download failed for %s: %s", videoURL, lastLine(stderr.String()))
		return pkgError.UpstreamError(fmt.Sprintf("download failed: %s", extractorCause(err, stderr.String())))
	}

	return nil
}

func parseSearchLine(line []byte) (track.Track, error) {
	var entry searchEntry
	if err := json.Unmarshal(line, &entry); err != nil {
		return track.Track{}, err
	}

	title := entry.Title
	if title == "" {
		title = "Unknown"
	}
	artist := entry.Uploader
	if artist == "" {
		artist = "Unknown Artist"
	}
	thumbnail := entry.Thumbnail
	if thumbnail == "" && len(entry.Thumbnails) > 0 {
		thumbnail = entry.Thumbnails[len(entry.Thumbnails)-1].URL
	}

	return track.Track{
		ID:        entry.ID,
		Title:     title,
		Artist:    artist,
		Duration:  int(entry.Duration),
		Thumbnail: thumbnail,
		URL:       "https://www.youtube.com/watch?v=" + entry.ID,
	}, nil
}

// extractorCause prefers yt-dlp's own error line over the generic exit status.
func extractorCause(err error, stderr string) string {
	if line := lastLine(stderr); line != "" {
		return line
	}
	return err.Error()
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
