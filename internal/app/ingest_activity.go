package app

import (
	"context"
	"fmt"

	"github.com/mundheim/grouptrack/internal/domain"
)

// ActivityEvent is one point-earning event attributed to a user.
type ActivityEvent struct {
	UserID    int64
	Username  string
	FirstName string
	LastName  string
	Kind      domain.ActivityKind
}

type IngestActivity func(ctx context.Context, event ActivityEvent) error

// BuildIngestActivity registers (or refreshes) the user and records one
// activity log entry with the configured point award for the event kind.
func BuildIngestActivity(repo ledgerRepository, pointsPerMessage, pointsPerSticker int64) IngestActivity {
	return func(ctx context.Context, event ActivityEvent) error {
		var points int64
		switch event.Kind {
		case domain.ActivityMessage:
			points = pointsPerMessage
		case domain.ActivitySticker:
			points = pointsPerSticker
		default:
			return fmt.Errorf("unknown activity kind: %q", event.Kind)
		}

		_, err := repo.RegisterOrRefresh(ctx, event.UserID, event.Username, event.FirstName, event.LastName)
		if err != nil {
			// NOTE: LedgerRepository implementations handle their own error reporting
			return fmt.Errorf("could not register user: %w", err)
		}

		err = repo.RecordActivity(ctx, event.UserID, event.Kind, points)
		if err != nil {
			return fmt.Errorf("could not record activity: %w", err)
		}

		return nil
	}
}

type RefreshUser func(ctx context.Context, userID int64, username, firstName, lastName string) (domain.User, error)

// BuildRefreshUser upserts display metadata without awarding points. Used for
// commands, which earn nothing but still refresh last_activity.
func BuildRefreshUser(repo ledgerRepository) RefreshUser {
	return func(ctx context.Context, userID int64, username, firstName, lastName string) (domain.User, error) {
		return repo.RegisterOrRefresh(ctx, userID, username, firstName, lastName)
	}
}
