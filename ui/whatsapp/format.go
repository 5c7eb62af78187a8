package whatsapp

import (
	"fmt"
	"strings"

	"github.com/ndavydoff/music-finder/domains/track"
	domainUser "github.com/ndavydoff/music-finder/domains/user"
)

func welcomeText() string {
	return "👋 *Welcome to Music Finder!*\n\n" +
		"🎵 Send me a song name or artist and I'll find it for you.\n\n" +
		"Commands:\n" +
		"• _help_ — usage guide\n" +
		"• _stats_ — your activity and limits\n\n" +
		"🚀 Try it: send *bohemian rhapsody*"
}

func helpText() string {
	return "📖 *Music Finder Guide*\n\n" +
		"🔍 Send any text to search for music\n" +
		"⬇️ Reply with a *number* from the results to download\n" +
		"📊 Send _stats_ to see your activity\n\n" +
		"💎 Plans:\n" +
		"Free: 50 searches + 20 downloads/month\n" +
		"Pro: 500 searches + 200 downloads/month\n" +
		"Premium: unlimited\n\n" +
		"⚙️ Format: MP3 192kbps"
}

func limitText() string {
	return "⚠️ *Limit Exceeded*\n\n" +
		"You reached your monthly limit.\n" +
		"💎 Upgrade your plan for more searches and downloads!"
}

func formatSearchResults(query string, results []track.Track) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎵 Results for *%s*:\n\n", query)
	for i, item := range results {
		fmt.Fprintf(&b, "*%d.* %s\n👤 %s · ⏱ %s\n\n",
			i+1, item.Title, truncate(item.Artist, 30), formatDuration(item.Duration))
	}
	b.WriteString("Reply with a number (e.g. *1*) to download 👇")
	return b.String()
}

func formatStats(stats domainUser.Stats, remaining domainUser.Remaining) string {
	return fmt.Sprintf(
		"📊 *Your Statistics*\n\n"+
			"👤 Plan: *%s*\n\n"+
			"🔍 Total searches: %d\n"+
			"⬇️ Total downloads: %d\n\n"+
			"📈 This month:\n"+
			"🔍 Searches left: %s\n"+
			"⬇️ Downloads left: %s",
		strings.ToUpper(stats.Plan),
		stats.Searches,
		stats.Downloads,
		formatQuota(remaining.Searches, remaining.Limits.SearchesPerMonth),
		formatQuota(remaining.Downloads, remaining.Limits.DownloadsPerMonth))
}

func formatQuota(value, limit int) string {
	if limit < 0 {
		return "∞"
	}
	if value < 0 {
		value = 0
	}
	return fmt.Sprintf("%d", value)
}

func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// twiml wraps a plain-text reply in the minimal TwiML envelope Twilio
// expects from a webhook response.
func twiml(message string) string {
	escaped := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	).Replace(message)
	return "<?xml version=\"1.0\" encoding=\"UTF-8\"?><Response><Message>" + escaped + "</Message></Response>"
}
