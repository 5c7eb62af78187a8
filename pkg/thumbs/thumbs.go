// Package thumbs prepares local thumbnail previews for bot replies.
// YouTube serves most thumbnails as webp, which messaging platforms do
// not accept as photo uploads, so everything is re-encoded as JPEG.
package thumbs

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	_ "golang.org/x/image/webp"

	"github.com/ndavydoff/music-finder/config"
)

const (
	fetchTimeout = 10 * time.Second
	previewWidth = 320
)

// Prepare downloads the thumbnail at url, scales it down and stores it as a
// JPEG in the temp directory. The caller owns the returned file.
func Prepare(url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("empty thumbnail url")
	}

	status, body, err := fasthttp.GetTimeout(nil, url, fetchTimeout)
	if err != nil {
		return "", fmt.Errorf("thumbnail fetch failed: %w", err)
	}
	if status != fasthttp.StatusOK {
		return "", fmt.Errorf("thumbnail fetch returned status %d", status)
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("thumbnail decode failed: %w", err)
	}

	preview := imaging.Resize(img, previewWidth, 0, imaging.Lanczos)

	if err := os.MkdirAll(config.PathTemp, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(config.PathTemp, "thumb_"+uuid.NewString()+".jpg")
	if err := imaging.Save(preview, path, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("thumbnail save failed: %w", err)
	}

	return path, nil
}
