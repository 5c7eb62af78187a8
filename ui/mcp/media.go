package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ndavydoff/music-finder/config"
	domainMedia "github.com/ndavydoff/music-finder/domains/media"
)

type MediaHandler struct {
	mediaService domainMedia.IMediaUsecase
}

func InitMcpMedia(mediaService domainMedia.IMediaUsecase) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

func (h *MediaHandler) AddMediaTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(h.toolSearch(), h.handleSearch)
	mcpServer.AddTool(h.toolDownload(), h.handleDownload)
	mcpServer.AddTool(h.toolCacheStats(), h.handleCacheStats)
}

func (h *MediaHandler) toolSearch() mcp.Tool {
	return mcp.NewTool(
		"music_search",
		mcp.WithDescription("Search YouTube for music tracks and return metadata for each match."),
		mcp.WithTitleAnnotation("Search Music"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("query",
			mcp.Description("Song name, artist, or free-text search query."),
			mcp.Required(),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (1-50, default 10)."),
		),
	)
}

func (h *MediaHandler) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return nil, err
	}

	limit := request.GetInt("limit", 10)
	if limit < 1 || limit > 50 {
		limit = 10
	}

	results, err := h.mediaService.GetSearchResults(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	fallback := fmt.Sprintf("Found %d tracks for %q", len(results), query)
	return mcp.NewToolResultStructured(results, fallback), nil
}

func (h *MediaHandler) toolDownload() mcp.Tool {
	return mcp.NewTool(
		"music_download",
		mcp.WithDescription("Download a track as MP3 by its video ID and return the local file path."),
		mcp.WithTitleAnnotation("Download Track"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("video_id",
			mcp.Description("The video ID from a previous music_search result."),
			mcp.Required(),
		),
		mcp.WithString("title",
			mcp.Description("Track title, used to name the resulting file."),
			mcp.Required(),
		),
	)
}

func (h *MediaHandler) handleDownload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, err := request.RequireString("video_id")
	if err != nil {
		return nil, err
	}
	title, err := request.RequireString("title")
	if err != nil {
		return nil, err
	}

	path, filename, err := h.mediaService.GetDownload(ctx, videoID, title, config.MaxFileSize)
	if err != nil {
		return nil, err
	}

	resp := map[string]string{
		"path":     path,
		"filename": filename,
	}
	return mcp.NewToolResultStructured(resp, fmt.Sprintf("Track saved to %s", path)), nil
}

func (h *MediaHandler) toolCacheStats() mcp.Tool {
	return mcp.NewTool(
		"cache_stats",
		mcp.WithDescription("Report search/download cache sizes and disk usage of stored files."),
		mcp.WithTitleAnnotation("Cache Statistics"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

func (h *MediaHandler) handleCacheStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_ = request
	stats, err := h.mediaService.GetCacheStats(ctx)
	if err != nil {
		return nil, err
	}

	fallback := fmt.Sprintf("%d cached searches, %d cached downloads", stats.SearchEntries, stats.DownloadEntries)
	return mcp.NewToolResultStructured(stats, fallback), nil
}
