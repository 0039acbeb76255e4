package ledgerrepository

import (
	"context"

	"github.com/mundheim/grouptrack/internal/domain"
)

// LedgerRepository owns durable state for users, their cumulative counters,
// and the append-only activity log.
type LedgerRepository interface {
	// RegisterOrRefresh creates the user on first sight and refreshes display
	// metadata and last_activity on every later call. Counters are never
	// touched here.
	RegisterOrRefresh(ctx context.Context, userID int64, username, firstName, lastName string) (domain.User, error)

	// RecordActivity atomically bumps the user's points and the counter for
	// the given kind, refreshes last_activity, and appends one activity log
	// entry. The user must already be registered; otherwise
	// domain.ErrUserNotFound is returned and nothing is written.
	RecordActivity(ctx context.Context, userID int64, kind domain.ActivityKind, points int64) error

	GetUser(ctx context.Context, userID int64) (domain.User, error)
	TotalUserCount(ctx context.Context) (int64, error)

	// ListTopUsers returns users with points, ordered by points descending
	// with ties broken by most recent activity, truncated to limit.
	ListTopUsers(ctx context.Context, limit int) ([]domain.User, error)

	// GetRank returns the competition rank: 1 plus the number of users with
	// strictly more points. domain.ErrUserNotFound for unknown users.
	GetRank(ctx context.Context, userID int64) (int64, error)

	// TotalActivityCounts returns the total message and sticker counts across
	// all users, for the ops endpoints.
	TotalActivityCounts(ctx context.Context) (messages, stickers int64, err error)
}
