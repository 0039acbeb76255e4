package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mundheim/grouptrack/internal/adapters/cache"
	"github.com/mundheim/grouptrack/internal/adapters/ledgerrepository"
	"github.com/mundheim/grouptrack/internal/adapters/telegram"
	"github.com/mundheim/grouptrack/internal/app"
	"github.com/mundheim/grouptrack/internal/ratelimiting"
	"github.com/stretchr/testify/require"
)

// scriptedBotAPI serves pre-built update batches, then cancels the worker's
// context so Run returns.
type scriptedBotAPI struct {
	t      *testing.T
	cancel context.CancelFunc

	mutex   sync.Mutex
	batches [][]telegram.Update
	offsets []int64
	sent    []sentMessage
}

type sentMessage struct {
	chatID int64
	text   string
}

func (api *scriptedBotAPI) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error) {
	api.mutex.Lock()
	defer api.mutex.Unlock()

	api.offsets = append(api.offsets, offset)

	if len(api.batches) == 0 {
		api.cancel()
		return nil, ctx.Err()
	}

	batch := api.batches[0]
	api.batches = api.batches[1:]
	return batch, nil
}

func (api *scriptedBotAPI) SendMessage(ctx context.Context, chatID int64, text string) error {
	api.mutex.Lock()
	defer api.mutex.Unlock()

	api.sent = append(api.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (api *scriptedBotAPI) sentMessages() []sentMessage {
	api.mutex.Lock()
	defer api.mutex.Unlock()

	return append([]sentMessage{}, api.sent...)
}

type allowAllRateLimiter struct{}

func (allowAllRateLimiter) Consume(key string) bool { return true }

type denyAllRateLimiter struct{}

func (denyAllRateLimiter) Consume(key string) bool { return false }

const (
	groupChatID   = int64(-1001)
	privateChatID = int64(42)
)

func groupMessage(updateID int64, from telegram.User, text string) telegram.Update {
	return telegram.Update{
		UpdateID: updateID,
		Message: &telegram.Message{
			From: &from,
			Chat: telegram.Chat{ID: groupChatID, Type: "supergroup"},
			Text: text,
		},
	}
}

func groupSticker(updateID int64, from telegram.User) telegram.Update {
	return telegram.Update{
		UpdateID: updateID,
		Message: &telegram.Message{
			From:    &from,
			Chat:    telegram.Chat{ID: groupChatID, Type: "group"},
			Sticker: &telegram.Sticker{FileID: "sticker-1", Emoji: "🎉"},
		},
	}
}

func privateMessage(updateID int64, from telegram.User, text string) telegram.Update {
	return telegram.Update{
		UpdateID: updateID,
		Message: &telegram.Message{
			From: &from,
			Chat: telegram.Chat{ID: privateChatID, Type: "private"},
			Text: text,
		},
	}
}

type workerFixture struct {
	worker *Worker
	api    *scriptedBotAPI
	repo   *ledgerrepository.InMemory
	run    func()
}

func newWorkerFixture(t *testing.T, rateLimiter ratelimiting.RateLimiter, batches ...[]telegram.Update) *workerFixture {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	api := &scriptedBotAPI{t: t, cancel: cancel, batches: batches}

	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	repo := ledgerrepository.NewInMemory(func() time.Time { return now })

	worker := NewWorker(
		api,
		app.BuildIngestActivity(repo, 1, 1),
		app.BuildRefreshUser(repo),
		app.BuildGetLeaderboard(cache.NewBasicCache[app.Leaderboard](), repo),
		app.BuildGetUserStats(repo),
		app.BuildGetBotStats(repo),
		rateLimiter,
		10,
		func() time.Time { return now },
	)

	return &workerFixture{
		worker: worker,
		api:    api,
		repo:   repo,
		run: func() {
			err := worker.Run(ctx)
			require.ErrorIs(t, err, context.Canceled)
		},
	}
}

func TestWorkerRun(t *testing.T) {
	t.Parallel()

	alice := telegram.User{ID: 1, FirstName: "Alice", Username: "alice"}
	bob := telegram.User{ID: 2, FirstName: "Bob", Username: "bob"}
	someBot := telegram.User{ID: 3, FirstName: "Botty", IsBot: true}

	t.Run("group messages and stickers earn points", func(t *testing.T) {
		t.Parallel()

		fixture := newWorkerFixture(t, allowAllRateLimiter{}, []telegram.Update{
			groupMessage(100, alice, "hello"),
			groupMessage(101, alice, "how is everyone"),
			groupSticker(102, alice),
			groupMessage(103, bob, "hi"),
		})

		fixture.run()

		ctx := context.Background()
		user, err := fixture.repo.GetUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, int64(3), user.Points)
		require.Equal(t, int64(2), user.MessageCount)
		require.Equal(t, int64(1), user.StickerCount)

		user, err = fixture.repo.GetUser(ctx, bob.ID)
		require.NoError(t, err)
		require.Equal(t, int64(1), user.Points)

		require.Empty(t, fixture.api.sentMessages())
	})

	t.Run("offset advances past handled updates", func(t *testing.T) {
		t.Parallel()

		fixture := newWorkerFixture(t, allowAllRateLimiter{},
			[]telegram.Update{groupMessage(100, alice, "hello")},
			[]telegram.Update{groupMessage(205, bob, "hi")},
		)

		fixture.run()

		require.Equal(t, []int64{0, 101, 206}, fixture.api.offsets)
	})

	t.Run("bot senders are ignored", func(t *testing.T) {
		t.Parallel()

		fixture := newWorkerFixture(t, allowAllRateLimiter{}, []telegram.Update{
			groupMessage(100, someBot, "beep"),
			groupMessage(101, someBot, "/leaderboard"),
		})

		fixture.run()

		count, err := fixture.repo.TotalUserCount(context.Background())
		require.NoError(t, err)
		require.Zero(t, count)
		require.Empty(t, fixture.api.sentMessages())
	})

	t.Run("private chat messages earn nothing", func(t *testing.T) {
		t.Parallel()

		fixture := newWorkerFixture(t, allowAllRateLimiter{}, []telegram.Update{
			privateMessage(100, alice, "hello"),
		})

		fixture.run()

		count, err := fixture.repo.TotalUserCount(context.Background())
		require.NoError(t, err)
		require.Zero(t, count)
	})

	t.Run("media without text earns nothing", func(t *testing.T) {
		t.Parallel()

		fixture := newWorkerFixture(t, allowAllRateLimiter{}, []telegram.Update{
			{
				UpdateID: 100,
				Message: &telegram.Message{
					From: &alice,
					Chat: telegram.Chat{ID: groupChatID, Type: "group"},
				},
			},
			{UpdateID: 101},
		})

		fixture.run()

		count, err := fixture.repo.TotalUserCount(context.Background())
		require.NoError(t, err)
		require.Zero(t, count)
	})

	t.Run("commands earn no points", func(t *testing.T) {
		t.Parallel()

		fixture := newWorkerFixture(t, allowAllRateLimiter{}, []telegram.Update{
			groupMessage(100, alice, "/mystats"),
		})

		fixture.run()

		ctx := context.Background()
		user, err := fixture.repo.GetUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Zero(t, user.Points)
		require.Zero(t, user.MessageCount)
	})
}

func TestWorkerCommands(t *testing.T) {
	t.Parallel()

	alice := telegram.User{ID: 1, FirstName: "Alice", Username: "alice"}
	bob := telegram.User{ID: 2, FirstName: "Bob", Username: "bob"}

	t.Run("leaderboard lists top users with medals", func(t *testing.T) {
		t.Parallel()

		fixture := newWorkerFixture(t, allowAllRateLimiter{}, []telegram.Update{
			groupMessage(100, alice, "hello"),
			groupMessage(101, alice, "again"),
			groupMessage(102, bob, "hi"),
			groupMessage(103, alice, "/leaderboard"),
		})

		fixture.run()

		sent := fixture.api.sentMessages()
		require.Len(t, sent, 1)
		require.Equal(t, groupChatID, sent[0].chatID)
		require.Contains(t, sent[0].text, "*LEADERBOARD*")
		require.Contains(t, sent[0].text, "🥇 *Alice (@alice)*")
		require.Contains(t, sent[0].text, "🥈 *Bob (@bob)*")
	})

	t.Run("leaderboard with no activity", func(t *testing.T) {
		t.Parallel()

		fixture := newWorkerFixture(t, allowAllRateLimiter{}, []telegram.Update{
			groupMessage(100, alice, "/leaderboard"),
		})

		fixture.run()

		sent := fixture.api.sentMessages()
		require.Len(t, sent, 1)
		require.Equal(t, noActivityText, sent[0].text)
	})

	t.Run("mystats reports counters and rank", func(t *testing.T) {
		t.Parallel()

		fixture := newWorkerFixture(t, allowAllRateLimiter{}, []telegram.Update{
			groupMessage(100, alice, "hello"),
			groupSticker(101, alice),
			groupMessage(102, alice, "/mystats"),
		})

		fixture.run()

		sent := fixture.api.sentMessages()
		require.Len(t, sent, 1)
		require.Contains(t, sent[0].text, "*Your Statistics*")
		require.Contains(t, sent[0].text, "*Rank:* #1")
		require.Contains(t, sent[0].text, "*Total Points:* 2")
		require.Contains(t, sent[0].text, "*Messages:* 1")
		require.Contains(t, sent[0].text, "*Stickers:* 1")
	})

	t.Run("mystats registers unseen users instead of failing", func(t *testing.T) {
		t.Parallel()

		fixture := newWorkerFixture(t, allowAllRateLimiter{}, []telegram.Update{
			groupMessage(100, alice, "/mystats"),
		})

		fixture.run()

		sent := fixture.api.sentMessages()
		require.Len(t, sent, 1)
		require.Contains(t, sent[0].text, "*Total Points:* 0")
	})

	t.Run("rank congratulates the top three", func(t *testing.T) {
		t.Parallel()

		fixture := newWorkerFixture(t, allowAllRateLimiter{}, []telegram.Update{
			groupMessage(100, alice, "hello"),
			groupMessage(101, alice, "/rank"),
		})

		fixture.run()

		sent := fixture.api.sentMessages()
		require.Len(t, sent, 1)
		require.Contains(t, sent[0].text, "*Rank:* #1 out of 1 users")
		require.Contains(t, sent[0].text, "top 3")
	})

	t.Run("stats reports totals and leader", func(t *testing.T) {
		t.Parallel()

		fixture := newWorkerFixture(t, allowAllRateLimiter{}, []telegram.Update{
			groupMessage(100, alice, "hello"),
			groupSticker(101, bob),
			groupMessage(102, alice, "/stats"),
		})

		fixture.run()

		sent := fixture.api.sentMessages()
		require.Len(t, sent, 1)
		require.Contains(t, sent[0].text, "*Total Users:* 2")
		require.Contains(t, sent[0].text, "*Current Leader:*")
	})

	t.Run("start replies with a welcome in groups", func(t *testing.T) {
		t.Parallel()

		fixture := newWorkerFixture(t, allowAllRateLimiter{}, []telegram.Update{
			groupMessage(100, alice, "/start"),
		})

		fixture.run()

		sent := fixture.api.sentMessages()
		require.Len(t, sent, 1)
		require.Contains(t, sent[0].text, "Hi Alice!")

		// /start also registers the user
		_, err := fixture.repo.GetUser(context.Background(), alice.ID)
		require.NoError(t, err)
	})

	t.Run("start is silent in private chats", func(t *testing.T) {
		t.Parallel()

		fixture := newWorkerFixture(t, allowAllRateLimiter{}, []telegram.Update{
			privateMessage(100, alice, "/start"),
		})

		fixture.run()

		require.Empty(t, fixture.api.sentMessages())
	})

	t.Run("group-gated commands explain themselves in private chats", func(t *testing.T) {
		t.Parallel()

		fixture := newWorkerFixture(t, allowAllRateLimiter{}, []telegram.Update{
			privateMessage(100, alice, "/leaderboard"),
			privateMessage(101, alice, "/mystats"),
			privateMessage(102, alice, "/rank"),
		})

		fixture.run()

		sent := fixture.api.sentMessages()
		require.Len(t, sent, 3)
		for _, message := range sent {
			require.Equal(t, groupOnlyText, message.text)
		}
	})

	t.Run("help works anywhere", func(t *testing.T) {
		t.Parallel()

		fixture := newWorkerFixture(t, allowAllRateLimiter{}, []telegram.Update{
			privateMessage(100, alice, "/help"),
		})

		fixture.run()

		sent := fixture.api.sentMessages()
		require.Len(t, sent, 1)
		require.Contains(t, sent[0].text, "*Activity Tracker Bot Commands*")
	})

	t.Run("command with bot mention suffix", func(t *testing.T) {
		t.Parallel()

		fixture := newWorkerFixture(t, allowAllRateLimiter{}, []telegram.Update{
			groupMessage(100, alice, "/leaderboard@GroupTrackBot"),
		})

		fixture.run()

		sent := fixture.api.sentMessages()
		require.Len(t, sent, 1)
	})

	t.Run("rate limited replies are dropped", func(t *testing.T) {
		t.Parallel()

		fixture := newWorkerFixture(t, denyAllRateLimiter{}, []telegram.Update{
			groupMessage(100, alice, "/help"),
		})

		fixture.run()

		require.Empty(t, fixture.api.sentMessages())
	})
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text     string
		expected command
		ok       bool
	}{
		{"/start", commandStart, true},
		{"/help", commandHelp, true},
		{"/leaderboard", commandLeaderboard, true},
		{"/mystats", commandMyStats, true},
		{"/rank", commandRank, true},
		{"/stats", commandStats, true},
		{"/LEADERBOARD", commandLeaderboard, true},
		{"/leaderboard@SomeBot", commandLeaderboard, true},
		{"/rank some args", commandRank, true},
		{"/unknown", "", false},
		{"hello", "", false},
		{"", "", false},
		{"leaderboard", "", false},
	}

	for _, c := range cases {
		t.Run(strings.ReplaceAll("text "+c.text, "/", "slash "), func(t *testing.T) {
			t.Parallel()

			cmd, ok := parseCommand(c.text)
			require.Equal(t, c.ok, ok)
			require.Equal(t, c.expected, cmd)
		})
	}
}
