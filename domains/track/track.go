package track

import "time"

// Track is one search result from the extractor. Immutable once built.
type Track struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Duration  int    `json:"duration"`
	Thumbnail string `json:"thumbnail"`
	URL       string `json:"url"`
}

type SearchRequest struct {
	Query string `json:"query" form:"query"`
	Limit int    `json:"limit" form:"limit"`
}

type SearchResponse struct {
	Query        string    `json:"query"`
	TotalResults int       `json:"total_results"`
	Results      []Track   `json:"results"`
	Timestamp    time.Time `json:"timestamp"`
}

type DownloadRequest struct {
	VideoID string `json:"video_id" form:"video_id"`
	Title   string `json:"title" form:"title"`
}
