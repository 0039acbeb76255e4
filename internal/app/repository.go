package app

import (
	"context"

	"github.com/mundheim/grouptrack/internal/domain"
)

// ledgerRepository is the slice of the ledger store the use cases consume.
type ledgerRepository interface {
	RegisterOrRefresh(ctx context.Context, userID int64, username, firstName, lastName string) (domain.User, error)
	RecordActivity(ctx context.Context, userID int64, kind domain.ActivityKind, points int64) error
	GetUser(ctx context.Context, userID int64) (domain.User, error)
	TotalUserCount(ctx context.Context) (int64, error)
	ListTopUsers(ctx context.Context, limit int) ([]domain.User, error)
	GetRank(ctx context.Context, userID int64) (int64, error)
	TotalActivityCounts(ctx context.Context) (messages, stickers int64, err error)
}
