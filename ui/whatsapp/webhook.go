package whatsapp

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/ndavydoff/music-finder/config"
	domainMedia "github.com/ndavydoff/music-finder/domains/media"
	"github.com/ndavydoff/music-finder/domains/track"
	domainUser "github.com/ndavydoff/music-finder/domains/user"
)

const searchLimit = 5

// Handler is the Twilio webhook adapter. Twilio POSTs inbound messages as
// form data; the synchronous reply is TwiML, and media messages are sent
// asynchronously through the Twilio REST API once a download completes.
type Handler struct {
	Media domainMedia.IMediaUsecase
	Users domainUser.IUserUsecase

	sessionMu sync.Mutex
	sessions  map[string][]track.Track
}

func InitWebhook(app fiber.Router, media domainMedia.IMediaUsecase, users domainUser.IUserUsecase) *Handler {
	handler := &Handler{
		Media:    media,
		Users:    users,
		sessions: make(map[string][]track.Track),
	}

	app.Post("/webhook", handler.Webhook)
	app.Get("/downloads/:filename", handler.ServeDownload)
	app.Get("/health", handler.Health)

	return handler
}

func (h *Handler) Webhook(c *fiber.Ctx) error {
	from := strings.TrimSpace(c.FormValue("From"))
	body := strings.TrimSpace(c.FormValue("Body"))
	if from == "" {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	logrus.Debugf("[WHATSAPP] Inbound from %s: %q", from, body)

	reply := h.dispatch(c.UserContext(), from, body)

	c.Set(fiber.HeaderContentType, "text/xml")
	return c.SendString(twiml(reply))
}

func (h *Handler) dispatch(ctx context.Context, from, body string) string {
	lower := strings.ToLower(body)

	switch {
	case lower == "" || lower == "hi" || lower == "hello" || lower == "start":
		return welcomeText()
	case lower == "help":
		return helpText()
	case lower == "stats":
		return h.statsText(ctx, from)
	}

	if index, err := strconv.Atoi(lower); err == nil {
		return h.startDownload(ctx, from, index)
	}

	return h.runSearch(ctx, from, body)
}

func (h *Handler) runSearch(ctx context.Context, from, query string) string {
	userID := whatsappUserID(from)

	ok, err := h.Users.CanSearch(ctx, userID)
	if err != nil {
		logrus.WithError(err).Error("[WHATSAPP] Quota check failed")
	} else if !ok {
		return limitText()
	}

	results, err := h.Media.GetSearchResults(ctx, query, searchLimit)
	if err != nil {
		logrus.WithError(err).Error("[WHATSAPP] Search failed")
		return "❌ Search failed. Please try again later."
	}
	if len(results) == 0 {
		return "😔 Nothing found. Try a different query."
	}

	if err := h.Users.RegisterSearch(ctx, userID); err != nil {
		logrus.WithError(err).Error("[WHATSAPP] Failed to register search")
	}

	h.sessionMu.Lock()
	h.sessions[from] = results
	h.sessionMu.Unlock()

	return formatSearchResults(query, results)
}

// startDownload replies immediately and performs the blocking download in
// the background; the file is delivered as a separate media message.
func (h *Handler) startDownload(ctx context.Context, from string, number int) string {
	h.sessionMu.Lock()
	results := h.sessions[from]
	h.sessionMu.Unlock()

	if number < 1 || number > len(results) {
		return "⚠️ Send a number from your last search results, or a new search query."
	}
	item := results[number-1]

	userID := whatsappUserID(from)
	ok, err := h.Users.CanDownload(ctx, userID)
	if err != nil {
		logrus.WithError(err).Error("[WHATSAPP] Quota check failed")
	} else if !ok {
		return limitText()
	}

	go h.deliverDownload(item, from, userID)

	return fmt.Sprintf("⬇️ Downloading *%s*...\nI'll send the file when it's ready.", item.Title)
}

func (h *Handler) deliverDownload(item track.Track, from, userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	_, filename, err := h.Media.GetDownload(ctx, item.ID, item.Title, config.BotMaxFileSize)
	if err != nil {
		logrus.WithError(err).Errorf("[WHATSAPP] Download failed for %s", item.ID)
		if sendErr := SendMessage(from, "❌ Download failed: "+err.Error(), ""); sendErr != nil {
			logrus.WithError(sendErr).Error("[WHATSAPP] Failed to send failure notice")
		}
		return
	}

	if err := h.Users.RegisterDownload(ctx, userID); err != nil {
		logrus.WithError(err).Error("[WHATSAPP] Failed to register download")
	}

	mediaURL := strings.TrimRight(config.WebhookBaseURL, "/") + "/downloads/" + filename
	caption := fmt.Sprintf("🎵 %s — %s", item.Artist, item.Title)
	if err := SendMessage(from, caption, mediaURL); err != nil {
		logrus.WithError(err).Error("[WHATSAPP] Failed to send media message")
	}
}

func (h *Handler) statsText(ctx context.Context, from string) string {
	userID := whatsappUserID(from)

	stats, err := h.Users.GetStats(ctx, userID)
	if err != nil {
		logrus.WithError(err).Error("[WHATSAPP] Failed to load stats")
		return "❌ Could not load your stats right now."
	}
	remaining, err := h.Users.GetRemaining(ctx, userID)
	if err != nil {
		logrus.WithError(err).Error("[WHATSAPP] Failed to load remaining quota")
		return "❌ Could not load your stats right now."
	}

	return formatStats(stats, remaining)
}

// ServeDownload exposes finished artifacts so Twilio can fetch media URLs.
func (h *Handler) ServeDownload(c *fiber.Ctx) error {
	filename := c.Params("filename")
	// Reject anything that could escape the downloads directory.
	if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	path := filepath.Join(config.PathDownloads, filename)
	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return c.SendFile(path)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func whatsappUserID(from string) string {
	return "wa:" + strings.TrimPrefix(from, "whatsapp:")
}
