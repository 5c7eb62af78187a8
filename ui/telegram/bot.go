package telegram

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/ndavydoff/music-finder/config"
	domainMedia "github.com/ndavydoff/music-finder/domains/media"
	"github.com/ndavydoff/music-finder/domains/track"
	domainUser "github.com/ndavydoff/music-finder/domains/user"
	"github.com/ndavydoff/music-finder/pkg/thumbs"
)

const searchLimit = 5

// Bot is the Telegram adapter over the media and user services. It holds a
// short-lived per-chat session with the last search results so callback
// buttons can reference tracks by index.
type Bot struct {
	api   *tgbotapi.BotAPI
	media domainMedia.IMediaUsecase
	users domainUser.IUserUsecase

	sessionMu sync.Mutex
	sessions  map[int64][]track.Track
}

func NewBot(media domainMedia.IMediaUsecase, users domainUser.IUserUsecase) (*Bot, error) {
	if config.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	api, err := tgbotapi.NewBotAPI(config.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	api.Debug = config.AppDebug

	return &Bot{
		api:      api,
		media:    media,
		users:    users,
		sessions: make(map[int64][]track.Track),
	}, nil
}

// Run polls for updates until ctx is cancelled. Each update is handled on
// its own goroutine so a long download never stalls the poll loop.
func (b *Bot) Run(ctx context.Context) {
	logrus.Infof("[TELEGRAM] Authorized as @%s", b.api.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			logrus.Info("[TELEGRAM] Bot stopped")
			return
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("[TELEGRAM] Panic in update handler: %v", r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	switch message.Command() {
	case "start":
		b.reply(chatID, welcomeText(message.From.FirstName), mainMenuKeyboard())
		return
	case "help":
		b.reply(chatID, helpText(), nil)
		return
	case "stats":
		b.sendStats(ctx, chatID)
		return
	}

	text := strings.TrimSpace(message.Text)
	switch text {
	case "", "🔍 Search":
		b.reply(chatID, "Send me a song name or artist to search!", nil)
	case "📊 Stats":
		b.sendStats(ctx, chatID)
	case "❓ Help":
		b.reply(chatID, helpText(), nil)
	default:
		b.handleSearch(ctx, chatID, text)
	}
}

func (b *Bot) handleSearch(ctx context.Context, chatID int64, query string) {
	userID := telegramUserID(chatID)

	ok, err := b.users.CanSearch(ctx, userID)
	if err != nil {
		logrus.WithError(err).Error("[TELEGRAM] Quota check failed")
	} else if !ok {
		b.sendLimitMessage(ctx, chatID)
		return
	}

	b.reply(chatID, fmt.Sprintf("🔍 Searching for <b>%s</b>...", escapeHTML(query)), nil)

	results, err := b.media.GetSearchResults(ctx, query, searchLimit)
	if err != nil {
		logrus.WithError(err).Error("[TELEGRAM] Search failed")
		b.reply(chatID, "❌ Search failed. Please try again later.", nil)
		return
	}
	if len(results) == 0 {
		b.reply(chatID, "😔 Nothing found. Try a different query.", nil)
		return
	}

	if err := b.users.RegisterSearch(ctx, userID); err != nil {
		logrus.WithError(err).Error("[TELEGRAM] Failed to register search")
	}

	b.sessionMu.Lock()
	b.sessions[chatID] = results
	b.sessionMu.Unlock()

	msg := tgbotapi.NewMessage(chatID, formatSearchResults(results))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = resultsKeyboard(results)
	if _, err := b.api.Send(msg); err != nil {
		logrus.WithError(err).Error("[TELEGRAM] Failed to send results")
	}
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	// Acknowledge immediately so the button stops spinning.
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		logrus.WithError(err).Debug("[TELEGRAM] Callback ack failed")
	}

	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID

	if plan, ok := strings.CutPrefix(callback.Data, "plan:"); ok {
		b.reply(chatID, upgradeInfoText(plan), nil)
		return
	}
	if !strings.HasPrefix(callback.Data, "dl:") {
		return
	}

	index, err := strconv.Atoi(strings.TrimPrefix(callback.Data, "dl:"))
	if err != nil {
		return
	}

	b.sessionMu.Lock()
	results := b.sessions[chatID]
	b.sessionMu.Unlock()

	if index < 0 || index >= len(results) {
		b.reply(chatID, "⚠️ That result expired. Please search again.", nil)
		return
	}

	b.handleDownload(ctx, chatID, results[index])
}

func (b *Bot) handleDownload(ctx context.Context, chatID int64, item track.Track) {
	userID := telegramUserID(chatID)

	ok, err := b.users.CanDownload(ctx, userID)
	if err != nil {
		logrus.WithError(err).Error("[TELEGRAM] Quota check failed")
	} else if !ok {
		b.sendLimitMessage(ctx, chatID)
		return
	}

	b.reply(chatID, fmt.Sprintf("⬇️ Downloading <b>%s</b>...\nThis may take a moment.", escapeHTML(item.Title)), nil)

	path, _, err := b.media.GetDownload(ctx, item.ID, item.Title, config.BotMaxFileSize)
	if err != nil {
		logrus.WithError(err).Errorf("[TELEGRAM] Download failed for %s", item.ID)
		b.reply(chatID, "❌ "+userFacingError(err), nil)
		return
	}

	if err := b.users.RegisterDownload(ctx, userID); err != nil {
		logrus.WithError(err).Error("[TELEGRAM] Failed to register download")
	}

	audio := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(path))
	audio.Title = item.Title
	audio.Performer = item.Artist
	audio.Caption = fmt.Sprintf("🎵 %s — %s", item.Artist, item.Title)

	if thumbPath, err := thumbs.Prepare(item.Thumbnail); err == nil {
		audio.Thumb = tgbotapi.FilePath(thumbPath)
		defer os.Remove(thumbPath)
	} else {
		logrus.WithError(err).Debug("[TELEGRAM] Thumbnail preparation skipped")
	}

	if _, err := b.api.Send(audio); err != nil {
		logrus.WithError(err).Error("[TELEGRAM] Failed to send audio")
		b.reply(chatID, "❌ Failed to send the file. Please try again.", nil)
	}
}

func (b *Bot) sendStats(ctx context.Context, chatID int64) {
	userID := telegramUserID(chatID)

	stats, err := b.users.GetStats(ctx, userID)
	if err != nil {
		logrus.WithError(err).Error("[TELEGRAM] Failed to load stats")
		return
	}
	remaining, err := b.users.GetRemaining(ctx, userID)
	if err != nil {
		logrus.WithError(err).Error("[TELEGRAM] Failed to load remaining quota")
		return
	}

	b.reply(chatID, formatStats(stats, remaining), nil)
}

func (b *Bot) sendLimitMessage(ctx context.Context, chatID int64) {
	remaining, err := b.users.GetRemaining(ctx, telegramUserID(chatID))
	if err != nil {
		logrus.WithError(err).Error("[TELEGRAM] Failed to load remaining quota")
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatLimitMessage(remaining))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = premiumKeyboard()
	if _, err := b.api.Send(msg); err != nil {
		logrus.WithError(err).Error("[TELEGRAM] Failed to send limit message")
	}
}

func (b *Bot) reply(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		logrus.WithError(err).Error("[TELEGRAM] Failed to send message")
	}
}

func telegramUserID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}
