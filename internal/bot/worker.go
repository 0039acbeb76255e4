package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/mundheim/grouptrack/internal/adapters/telegram"
	"github.com/mundheim/grouptrack/internal/app"
	"github.com/mundheim/grouptrack/internal/domain"
	"github.com/mundheim/grouptrack/internal/logging"
	"github.com/mundheim/grouptrack/internal/ratelimiting"
	"github.com/mundheim/grouptrack/internal/reporting"
)

const (
	pollTimeout  = 30 * time.Second
	errorBackoff = 5 * time.Second
)

// Worker drives the bot: it long-polls the Bot API for updates and handles
// them one at a time, so events from the same user are always applied in the
// order they arrived.
type Worker struct {
	botAPI                telegram.BotAPI
	ingestActivity        app.IngestActivity
	refreshUser           app.RefreshUser
	getLeaderboard        app.GetLeaderboard
	getUserStats          app.GetUserStats
	getBotStats           app.GetBotStats
	replyRateLimiter      ratelimiting.RateLimiter
	maxLeaderboardEntries int
	nowFunc               func() time.Time
}

func NewWorker(
	botAPI telegram.BotAPI,
	ingestActivity app.IngestActivity,
	refreshUser app.RefreshUser,
	getLeaderboard app.GetLeaderboard,
	getUserStats app.GetUserStats,
	getBotStats app.GetBotStats,
	replyRateLimiter ratelimiting.RateLimiter,
	maxLeaderboardEntries int,
	nowFunc func() time.Time,
) *Worker {
	return &Worker{
		botAPI:                botAPI,
		ingestActivity:        ingestActivity,
		refreshUser:           refreshUser,
		getLeaderboard:        getLeaderboard,
		getUserStats:          getUserStats,
		getBotStats:           getBotStats,
		replyRateLimiter:      replyRateLimiter,
		maxLeaderboardEntries: maxLeaderboardEntries,
		nowFunc:               nowFunc,
	}
}

// Run polls for updates until ctx is cancelled. Poll errors are reported and
// retried after a backoff; the update offset only advances past updates that
// have been handled, so nothing is dropped on restart.
func (w *Worker) Run(ctx context.Context) error {
	var offset int64

	logging.FromContext(ctx).InfoContext(ctx, "Starting update worker")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := w.botAPI.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			logging.FromContext(ctx).ErrorContext(ctx, "Failed to get updates", "error", err.Error())
			reporting.Report(ctx, err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(errorBackoff):
			}
			continue
		}

		for _, update := range updates {
			w.handleUpdate(ctx, update)
			offset = update.UpdateID + 1
		}
	}
}

func (w *Worker) handleUpdate(ctx context.Context, update telegram.Update) {
	message := update.Message
	if message == nil || message.From == nil {
		return
	}

	user := *message.From
	if user.IsBot {
		return
	}

	if cmd, ok := parseCommand(message.Text); ok {
		w.handleCommand(ctx, cmd, *message)
		return
	}

	// Points are only earned in group chats
	if !message.Chat.IsGroup() {
		return
	}

	kind, ok := classifyActivity(*message)
	if !ok {
		return
	}

	err := w.ingestActivity(ctx, app.ActivityEvent{
		UserID:    user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Kind:      kind,
	})
	if err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "Failed to ingest activity",
			"error", err.Error(),
			"userID", user.ID,
			"chatID", message.Chat.ID,
			"kind", string(kind),
		)
		reporting.Report(ctx, err)
		return
	}

	logging.FromContext(ctx).InfoContext(ctx, "Recorded activity",
		slog.Int64("userID", user.ID),
		slog.Int64("chatID", message.Chat.ID),
		slog.String("kind", string(kind)),
	)
}

// classifyActivity maps a message to a point-earning activity kind.
// Media without text (photos, voice notes, joins) earns nothing.
func classifyActivity(message telegram.Message) (domain.ActivityKind, bool) {
	if message.Sticker != nil {
		return domain.ActivitySticker, true
	}
	if message.Text != "" {
		return domain.ActivityMessage, true
	}
	return "", false
}

// reply sends a message to the chat, subject to the per-chat rate limit.
func (w *Worker) reply(ctx context.Context, chatID int64, text string) {
	if !w.replyRateLimiter.Consume(ratelimiting.ChatKey(chatID)) {
		logging.FromContext(ctx).WarnContext(ctx, "Reply rate limit exceeded", "chatID", chatID)
		return
	}

	err := w.botAPI.SendMessage(ctx, chatID, text)
	if err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "Failed to send reply", "error", err.Error(), "chatID", chatID)
		reporting.Report(ctx, err)
	}
}
