package app

import (
	"context"
	"fmt"

	"github.com/mundheim/grouptrack/internal/adapters/cache"
	"github.com/mundheim/grouptrack/internal/domain"
)

type Leaderboard struct {
	Entries    []domain.User
	TotalUsers int64
}

type GetLeaderboard func(ctx context.Context, limit int) (Leaderboard, error)

// BuildGetLeaderboard derives the top-N view. Results are cached briefly so a
// chatty group spamming /leaderboard doesn't re-sort on every command.
func BuildGetLeaderboard(leaderboardCache cache.Cache[Leaderboard], repo ledgerRepository) GetLeaderboard {
	return func(ctx context.Context, limit int) (Leaderboard, error) {
		if limit <= 0 {
			return Leaderboard{}, fmt.Errorf("invalid leaderboard limit: %d", limit)
		}

		key := fmt.Sprintf("top:%d", limit)
		leaderboard, _, err := cache.GetOrCreate(ctx, leaderboardCache, key, func() (Leaderboard, error) {
			entries, err := repo.ListTopUsers(ctx, limit)
			if err != nil {
				// NOTE: LedgerRepository implementations handle their own error reporting
				return Leaderboard{}, fmt.Errorf("could not list top users: %w", err)
			}

			totalUsers, err := repo.TotalUserCount(ctx)
			if err != nil {
				return Leaderboard{}, fmt.Errorf("could not count users: %w", err)
			}

			return Leaderboard{
				Entries:    entries,
				TotalUsers: totalUsers,
			}, nil
		})
		if err != nil {
			return Leaderboard{}, fmt.Errorf("failed to cache.GetOrCreate leaderboard: %w", err)
		}

		return leaderboard, nil
	}
}
