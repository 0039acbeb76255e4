package app

import (
	"context"
	"fmt"

	"github.com/mundheim/grouptrack/internal/domain"
)

// UserStats is a user's stored counters plus their standing among all users.
type UserStats struct {
	User       domain.User
	Rank       int64
	TotalUsers int64
}

type GetUserStats func(ctx context.Context, userID int64) (UserStats, error)

func BuildGetUserStats(repo ledgerRepository) GetUserStats {
	return func(ctx context.Context, userID int64) (UserStats, error) {
		user, err := repo.GetUser(ctx, userID)
		if err != nil {
			// NOTE: LedgerRepository implementations handle their own error reporting
			return UserStats{}, fmt.Errorf("could not get user: %w", err)
		}

		rank, err := repo.GetRank(ctx, userID)
		if err != nil {
			return UserStats{}, fmt.Errorf("could not get rank: %w", err)
		}

		totalUsers, err := repo.TotalUserCount(ctx)
		if err != nil {
			return UserStats{}, fmt.Errorf("could not count users: %w", err)
		}

		return UserStats{
			User:       user,
			Rank:       rank,
			TotalUsers: totalUsers,
		}, nil
	}
}
