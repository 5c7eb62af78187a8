package rest

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ndavydoff/music-finder/config"
	domainMedia "github.com/ndavydoff/music-finder/domains/media"
	"github.com/ndavydoff/music-finder/domains/track"
	"github.com/ndavydoff/music-finder/pkg/utils"
	"github.com/ndavydoff/music-finder/validations"
)

type Media struct {
	Service domainMedia.IMediaUsecase
}

func InitRestMedia(app fiber.Router, service domainMedia.IMediaUsecase) Media {
	rest := Media{Service: service}
	app.Post("/search", rest.Search)
	app.Post("/download", rest.Download)
	app.Get("/cache/stats", rest.GetCacheStats)
	app.Post("/cache/clear", rest.ClearCache)
	app.Get("/cache/settings", rest.GetRetentionSettings)
	app.Put("/cache/settings", rest.UpdateRetentionSettings)
	app.Post("/cache/sweep", rest.RunSweep)

	return rest
}

func (handler *Media) Search(c *fiber.Ctx) error {
	var request track.SearchRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	if request.Limit == 0 {
		request.Limit = 10
	}

	utils.PanicIfNeeded(validations.ValidateSearch(c.UserContext(), request))

	results, err := handler.Service.GetSearchResults(c.UserContext(), request.Query, request.Limit)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Search completed",
		Results: track.SearchResponse{
			Query:        request.Query,
			TotalResults: len(results),
			Results:      results,
			Timestamp:    time.Now(),
		},
	})
}

func (handler *Media) Download(c *fiber.Ctx) error {
	var request track.DownloadRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	utils.PanicIfNeeded(validations.ValidateDownload(c.UserContext(), request))

	path, _, err := handler.Service.GetDownload(c.UserContext(), request.VideoID, request.Title, config.MaxFileSize)
	utils.PanicIfNeeded(err)

	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return c.Download(path, request.Title+".mp3")
}

func (handler *Media) GetCacheStats(c *fiber.Ctx) error {
	stats, err := handler.Service.GetCacheStats(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Cache stats retrieved",
		Results: stats,
	})
}

func (handler *Media) ClearCache(c *fiber.Ctx) error {
	err := handler.Service.ClearCache(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Cache cleared successfully",
	})
}

func (handler *Media) GetRetentionSettings(c *fiber.Ctx) error {
	settings, err := handler.Service.GetRetentionSettings(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Retention settings retrieved",
		Results: settings,
	})
}

func (handler *Media) UpdateRetentionSettings(c *fiber.Ctx) error {
	var settings domainMedia.RetentionSettings
	err := c.BodyParser(&settings)
	utils.PanicIfNeeded(err)

	utils.PanicIfNeeded(handler.Service.SaveRetentionSettings(c.UserContext(), settings))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Retention settings saved",
		Results: settings,
	})
}

func (handler *Media) RunSweep(c *fiber.Ctx) error {
	handler.Service.RunRetentionNow()

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Retention sweep executed",
	})
}
