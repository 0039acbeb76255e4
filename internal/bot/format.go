package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/mundheim/grouptrack/internal/app"
	"github.com/mundheim/grouptrack/internal/domain"
)

// Replies are sent with parse_mode=Markdown, so names and headers use the
// Bot API's *bold* markers.

const groupOnlyText = "This command only works in group chats!"

const noActivityText = "No activity recorded yet! Start chatting to earn points! 📊"

const helpText = `🤖 *Activity Tracker Bot Commands*

🏆 /leaderboard - View the top users by points
📊 /mystats - Check your personal statistics
🎯 /rank - Check your current rank
📈 /stats - General bot statistics
❓ /help - Show this help message

*Point System:*
• Messages: 1 point each
• Stickers: 1 point each
• Points accumulate forever (no reset)

Keep chatting to earn more points! 🚀`

func welcomeText(firstName string) string {
	return fmt.Sprintf(`🎉 Welcome to the Activity Tracker Bot!

Hi %s! I'm now tracking your activity in this group.

📊 *How it works:*
• Each message earns you 1 point
• Each sticker earns you 1 point
• Points accumulate over time (no daily reset)
• Compete for the top spot on the leaderboard!

🏆 *Commands:*
• /leaderboard - View top users
• /mystats - Check your personal stats
• /help - Show this help message

Good luck climbing the leaderboard! 🚀`, firstName)
}

// entryName renders "FirstName (@username)" with an Unknown fallback.
func entryName(user domain.User) string {
	name := user.FirstName
	if name == "" {
		name = "Unknown"
	}
	if user.Username != "" {
		name += fmt.Sprintf(" (@%s)", user.Username)
	}
	return name
}

func leaderboardText(leaderboard app.Leaderboard, now time.Time) string {
	if len(leaderboard.Entries) == 0 {
		return noActivityText
	}

	var sb strings.Builder
	sb.WriteString("🏆 *LEADERBOARD* 🏆\n\n")

	medals := []string{"🥇", "🥈", "🥉"}

	for i, user := range leaderboard.Entries {
		medal := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			medal = medals[i]
		}

		fmt.Fprintf(&sb, "%s *%s*\n", medal, entryName(user))
		fmt.Fprintf(&sb, "    Points: %d | Messages: %d | Stickers: %d\n\n", user.Points, user.MessageCount, user.StickerCount)
	}

	fmt.Fprintf(&sb, "📅 Last updated: %s", now.Format(time.DateTime))

	return sb.String()
}

func myStatsText(stats app.UserStats) string {
	return fmt.Sprintf(`📊 *Your Statistics*

👤 *User:* %s
🏆 *Rank:* #%d
⭐ *Total Points:* %d
💬 *Messages:* %d
🎨 *Stickers:* %d

📅 *First seen:* %s
🕐 *Last activity:* %s

Keep chatting to earn more points! 🚀`,
		stats.User.FirstName,
		stats.Rank,
		stats.User.Points,
		stats.User.MessageCount,
		stats.User.StickerCount,
		stats.User.FirstSeen.Format(time.DateOnly),
		stats.User.LastActivity.Format(time.DateOnly),
	)
}

func rankText(stats app.UserStats) string {
	encouragement := "Keep chatting to climb higher! 📈"
	if stats.Rank <= 3 {
		encouragement = "🔥 You're in the top 3! Keep it up!"
	}

	return fmt.Sprintf(`🎯 *Your Rank*

👤 *%s*
🏆 *Rank:* #%d out of %d users
⭐ *Points:* %d

%s`,
		stats.User.FirstName,
		stats.Rank,
		stats.TotalUsers,
		stats.User.Points,
		encouragement,
	)
}

func botStatsText(stats app.BotStats, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("📈 *Bot Statistics*\n\n")
	fmt.Fprintf(&sb, "👥 *Total Users:* %d\n", stats.TotalUsers)

	if stats.CurrentLeader != nil {
		fmt.Fprintf(&sb, "👑 *Current Leader:* %s (%d points)\n", entryName(*stats.CurrentLeader), stats.CurrentLeader.Points)
	}

	fmt.Fprintf(&sb, "\n📅 *Last updated:* %s", now.Format(time.DateTime))

	return sb.String()
}
