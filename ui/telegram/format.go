package telegram

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ndavydoff/music-finder/domains/track"
	domainUser "github.com/ndavydoff/music-finder/domains/user"
	pkgError "github.com/ndavydoff/music-finder/pkg/error"
)

func welcomeText(firstName string) string {
	if firstName == "" {
		firstName = "there"
	}
	return fmt.Sprintf(
		"👋 <b>Hello, %s!</b>\n\n"+
			"🎵 I'm <b>Music Finder Bot</b> — your personal music assistant!\n\n"+
			"✨ <b>What I can do:</b>\n"+
			"• Search for music on YouTube\n"+
			"• Download tracks in high quality (MP3 192kbps)\n"+
			"• Track your statistics\n\n"+
			"🚀 Just send me a song name or artist!",
		escapeHTML(firstName))
}

func helpText() string {
	return "📖 <b>Music Finder Bot Guide</b>\n\n" +
		"🔍 <b>Search:</b> send a song name or artist\n" +
		"⬇️ <b>Download:</b> pick a track from the results\n" +
		"📊 <b>Stats:</b> /stats shows your activity and limits\n\n" +
		"💎 <b>Plans:</b>\n" +
		"<b>Free:</b> 50 searches + 20 downloads/month\n" +
		"<b>Pro:</b> 500 searches + 200 downloads/month\n" +
		"<b>Premium:</b> unlimited\n\n" +
		"⚙️ Format: MP3 192kbps, files cached for 24 hours"
}

func formatSearchResults(results []track.Track) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎵 <b>Found %d tracks</b>\n\n", len(results))
	for i, item := range results {
		fmt.Fprintf(&b, "<b>%d.</b> %s\n👤 %s · ⏱ %s\n\n",
			i+1, escapeHTML(item.Title), escapeHTML(truncate(item.Artist, 30)), formatDuration(item.Duration))
	}
	b.WriteString("Pick a track to download 👇")
	return b.String()
}

func formatStats(stats domainUser.Stats, remaining domainUser.Remaining) string {
	lastActivity := "No data"
	if stats.LastActivity != nil {
		lastActivity = stats.LastActivity.Format("02.01.2006 15:04")
	}

	return fmt.Sprintf(
		"📊 <b>Your Statistics</b>\n\n"+
			"👤 Plan: <b>%s</b>\n\n"+
			"🔍 Total Searches: <b>%d</b>\n"+
			"⬇️ Total Downloads: <b>%d</b>\n\n"+
			"📈 <b>This Month:</b>\n"+
			"🔍 Searches left: <b>%s</b>\n"+
			"⬇️ Downloads left: <b>%s</b>\n\n"+
			"🕐 Last activity: <b>%s</b>",
		strings.ToUpper(stats.Plan),
		stats.Searches,
		stats.Downloads,
		formatQuota(remaining.Searches, remaining.Limits.SearchesPerMonth),
		formatQuota(remaining.Downloads, remaining.Limits.DownloadsPerMonth),
		lastActivity)
}

func formatLimitMessage(remaining domainUser.Remaining) string {
	return fmt.Sprintf(
		"⚠️ <b>Limit Exceeded</b>\n\n"+
			"You reached your monthly limit on the <b>%s</b> plan\n\n"+
			"📊 <b>Your Current Limits:</b>\n"+
			"🔍 Searches: <b>%s</b>/month\n"+
			"⬇️ Downloads: <b>%s</b>/month\n\n"+
			"💎 <b>Upgrade to get unlimited access!</b>",
		remaining.Limits.Name,
		formatQuota(remaining.Limits.SearchesPerMonth, remaining.Limits.SearchesPerMonth),
		formatQuota(remaining.Limits.DownloadsPerMonth, remaining.Limits.DownloadsPerMonth))
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

// upgradeInfoText answers plan buttons. Plan changes are applied by an
// operator through the API, so the bot only explains how to get one.
func upgradeInfoText(plan string) string {
	limits := "500 searches and 200 downloads per month"
	if plan == domainUser.PlanPremium {
		limits = "unlimited searches and downloads"
	}
	name := plan
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return fmt.Sprintf(
		"💎 <b>%s plan</b> gives you %s.\n\n"+
			"To upgrade, contact the service operator and mention your user id from /stats.",
		name, limits)
}

func userFacingError(err error) string {
	var tooLarge pkgError.FileTooLargeError
	if errors.As(err, &tooLarge) {
		return "The file is too large to send here. Try a shorter track."
	}
	var missing pkgError.ArtifactMissingError
	if errors.As(err, &missing) {
		return "Conversion failed for this track. Try another one."
	}
	return "Download failed. Please try again later."
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

func escapeHTML(s string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return replacer.Replace(s)
}
