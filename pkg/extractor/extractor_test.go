package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSearchLine(t *testing.T) {
	line := []byte(`{"id":"abc123","title":"My Song","uploader":"Some Artist","duration":215.0,"thumbnail":"https://i.ytimg.com/vi/abc123/hq720.jpg"}`)

	track, err := parseSearchLine(line)
	require.NoError(t, err)
	assert.Equal(t, "abc123", track.ID)
	assert.Equal(t, "My Song", track.Title)
	assert.Equal(t, "Some Artist", track.Artist)
	assert.Equal(t, 215, track.Duration)
	assert.Equal(t, "https://i.ytimg.com/vi/abc123/hq720.jpg", track.Thumbnail)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", track.URL)
}

func TestParseSearchLineDefaults(t *testing.T) {
	line := []byte(`{"id":"abc123"}`)

	track, err := parseSearchLine(line)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", track.Title)
	assert.Equal(t, "Unknown Artist", track.Artist)
	assert.Zero(t, track.Duration)
	assert.Empty(t, track.Thumbnail)
}

func TestParseSearchLineThumbnailFallback(t *testing.T) {
	line := []byte(`{"id":"abc123","title":"Song","thumbnails":[{"url":"small.jpg"},{"url":"large.jpg"}]}`)

	track, err := parseSearchLine(line)
	require.NoError(t, err)
	assert.Equal(t, "large.jpg", track.Thumbnail, "the last (largest) thumbnail wins")
}

func TestParseSearchLineInvalidJSON(t *testing.T) {
	_, err := parseSearchLine([]byte(`not json`))
	assert.Error(t, err)
}

func TestLastLine(t *testing.T) {
	assert.Equal(t, "ERROR: video unavailable", lastLine("WARNING: thing\nERROR: video unavailable\n\n"))
	assert.Equal(t, "", lastLine("  \n \n"))
	assert.Equal(t, "single", lastLine("single"))
}
