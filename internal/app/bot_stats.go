package app

import (
	"context"
	"fmt"

	"github.com/mundheim/grouptrack/internal/domain"
)

// BotStats summarizes all tracked activity. CurrentLeader is nil when nobody
// has earned points yet.
type BotStats struct {
	TotalUsers    int64
	TotalMessages int64
	TotalStickers int64
	CurrentLeader *domain.User
}

type GetBotStats func(ctx context.Context) (BotStats, error)

func BuildGetBotStats(repo ledgerRepository) GetBotStats {
	return func(ctx context.Context) (BotStats, error) {
		totalUsers, err := repo.TotalUserCount(ctx)
		if err != nil {
			// NOTE: LedgerRepository implementations handle their own error reporting
			return BotStats{}, fmt.Errorf("could not count users: %w", err)
		}

		messages, stickers, err := repo.TotalActivityCounts(ctx)
		if err != nil {
			return BotStats{}, fmt.Errorf("could not count activities: %w", err)
		}

		stats := BotStats{
			TotalUsers:    totalUsers,
			TotalMessages: messages,
			TotalStickers: stickers,
		}

		top, err := repo.ListTopUsers(ctx, 1)
		if err != nil {
			return BotStats{}, fmt.Errorf("could not find current leader: %w", err)
		}
		if len(top) > 0 {
			leader := top[0]
			stats.CurrentLeader = &leader
		}

		return stats, nil
	}
}
