package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mundheim/grouptrack/internal/adapters/telegram"
	"github.com/mundheim/grouptrack/internal/domain"
	"github.com/mundheim/grouptrack/internal/logging"
	"github.com/mundheim/grouptrack/internal/reporting"
)

type command string

const (
	commandStart       command = "start"
	commandHelp        command = "help"
	commandLeaderboard command = "leaderboard"
	commandMyStats     command = "mystats"
	commandRank        command = "rank"
	commandStats       command = "stats"
)

// parseCommand extracts the bot command from a message text, if any.
// Commands may carry a bot mention suffix ("/leaderboard@MyBot") and arguments.
func parseCommand(text string) (command, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}

	word, _, _ := strings.Cut(text[1:], " ")
	name, _, _ := strings.Cut(word, "@")

	switch cmd := command(strings.ToLower(name)); cmd {
	case commandStart, commandHelp, commandLeaderboard, commandMyStats, commandRank, commandStats:
		return cmd, true
	default:
		return "", false
	}
}

func (w *Worker) handleCommand(ctx context.Context, cmd command, message telegram.Message) {
	user := *message.From
	chat := message.Chat

	ctx = logging.AddMetaToContext(ctx,
		slog.String("command", string(cmd)),
		slog.Int64("userID", user.ID),
		slog.Int64("chatID", chat.ID),
	)

	switch cmd {
	case commandStart:
		w.handleStart(ctx, user, chat)
	case commandHelp:
		w.reply(ctx, chat.ID, helpText)
	case commandLeaderboard:
		w.handleLeaderboard(ctx, chat)
	case commandMyStats:
		w.handleMyStats(ctx, user, chat)
	case commandRank:
		w.handleRank(ctx, user, chat)
	case commandStats:
		w.handleBotStats(ctx, chat)
	}
}

func (w *Worker) handleStart(ctx context.Context, user telegram.User, chat telegram.Chat) {
	// Silently ignored outside groups
	if !chat.IsGroup() {
		return
	}

	_, err := w.refreshUser(ctx, user.ID, user.Username, user.FirstName, user.LastName)
	if err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "Failed to register user on /start", "error", err.Error())
		reporting.Report(ctx, err)
		return
	}

	w.reply(ctx, chat.ID, welcomeText(user.FirstName))
}

func (w *Worker) handleLeaderboard(ctx context.Context, chat telegram.Chat) {
	if !chat.IsGroup() {
		w.reply(ctx, chat.ID, groupOnlyText)
		return
	}

	leaderboard, err := w.getLeaderboard(ctx, w.maxLeaderboardEntries)
	if err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "Failed to get leaderboard", "error", err.Error())
		reporting.Report(ctx, err)
		return
	}

	w.reply(ctx, chat.ID, leaderboardText(leaderboard, w.nowFunc()))
}

func (w *Worker) handleMyStats(ctx context.Context, user telegram.User, chat telegram.Chat) {
	if !chat.IsGroup() {
		w.reply(ctx, chat.ID, groupOnlyText)
		return
	}

	_, err := w.refreshUser(ctx, user.ID, user.Username, user.FirstName, user.LastName)
	if err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "Failed to refresh user", "error", err.Error())
		reporting.Report(ctx, err)
		return
	}

	stats, err := w.getUserStats(ctx, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			w.reply(ctx, chat.ID, "No stats found! Start chatting to earn points! 📊")
			return
		}
		logging.FromContext(ctx).ErrorContext(ctx, "Failed to get user stats", "error", err.Error())
		reporting.Report(ctx, err)
		return
	}

	w.reply(ctx, chat.ID, myStatsText(stats))
}

func (w *Worker) handleRank(ctx context.Context, user telegram.User, chat telegram.Chat) {
	if !chat.IsGroup() {
		w.reply(ctx, chat.ID, groupOnlyText)
		return
	}

	_, err := w.refreshUser(ctx, user.ID, user.Username, user.FirstName, user.LastName)
	if err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "Failed to refresh user", "error", err.Error())
		reporting.Report(ctx, err)
		return
	}

	stats, err := w.getUserStats(ctx, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			w.reply(ctx, chat.ID, "No rank found! Start chatting to earn points! 📊")
			return
		}
		logging.FromContext(ctx).ErrorContext(ctx, "Failed to get user rank", "error", err.Error())
		reporting.Report(ctx, err)
		return
	}

	w.reply(ctx, chat.ID, rankText(stats))
}

func (w *Worker) handleBotStats(ctx context.Context, chat telegram.Chat) {
	stats, err := w.getBotStats(ctx)
	if err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "Failed to get bot statistics", "error", err.Error())
		reporting.Report(ctx, err)
		return
	}

	w.reply(ctx, chat.ID, botStatsText(stats, w.nowFunc()))
}
