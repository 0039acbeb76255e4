package bot

import (
	"fmt"
	"testing"
	"time"

	"github.com/mundheim/grouptrack/internal/app"
	"github.com/mundheim/grouptrack/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardText(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 1, 12, 30, 0, 0, time.UTC)

	t.Run("numbers entries past the medals", func(t *testing.T) {
		t.Parallel()

		entries := make([]domain.User, 0, 5)
		for i := range 5 {
			entries = append(entries, domain.User{
				UserID:    int64(i + 1),
				FirstName: fmt.Sprintf("User%d", i+1),
				Points:    int64(10 - i),
			})
		}

		text := leaderboardText(app.Leaderboard{Entries: entries, TotalUsers: 5}, now)

		require.Contains(t, text, "🥇 *User1*")
		require.Contains(t, text, "🥈 *User2*")
		require.Contains(t, text, "🥉 *User3*")
		require.Contains(t, text, "4. *User4*")
		require.Contains(t, text, "5. *User5*")
		require.Contains(t, text, "Last updated: 2025-03-01 12:30:00")
	})

	t.Run("empty leaderboard", func(t *testing.T) {
		t.Parallel()

		text := leaderboardText(app.Leaderboard{}, now)
		require.Equal(t, noActivityText, text)
	})
}

func TestEntryName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Alice (@alice)", entryName(domain.User{FirstName: "Alice", Username: "alice"}))
	require.Equal(t, "Alice", entryName(domain.User{FirstName: "Alice"}))
	require.Equal(t, "Unknown (@ghost)", entryName(domain.User{Username: "ghost"}))
	require.Equal(t, "Unknown", entryName(domain.User{}))
}

func TestBotStatsText(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 1, 12, 30, 0, 0, time.UTC)

	t.Run("without a leader", func(t *testing.T) {
		t.Parallel()

		text := botStatsText(app.BotStats{TotalUsers: 0}, now)
		require.Contains(t, text, "*Total Users:* 0")
		require.NotContains(t, text, "Current Leader")
	})

	t.Run("with a leader", func(t *testing.T) {
		t.Parallel()

		leader := domain.User{FirstName: "Alice", Username: "alice", Points: 12}
		text := botStatsText(app.BotStats{TotalUsers: 3, CurrentLeader: &leader}, now)
		require.Contains(t, text, "*Current Leader:* Alice (@alice) (12 points)")
	})
}

func TestRankText(t *testing.T) {
	t.Parallel()

	t.Run("outside the top three", func(t *testing.T) {
		t.Parallel()

		text := rankText(app.UserStats{
			User:       domain.User{FirstName: "Alice", Points: 1},
			Rank:       7,
			TotalUsers: 20,
		})
		require.Contains(t, text, "*Rank:* #7 out of 20 users")
		require.Contains(t, text, "Keep chatting to climb higher!")
	})
}
