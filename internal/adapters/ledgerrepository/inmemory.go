package ledgerrepository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mundheim/grouptrack/internal/domain"
)

// InMemory is a map-backed ledger used in development when no database is
// available, and in tests. Same semantics as the Postgres implementation,
// minus durability.
type InMemory struct {
	mu         sync.Mutex
	users      map[int64]domain.User
	activities []domain.Activity
	nowFunc    func() time.Time
}

func NewInMemory(nowFunc func() time.Time) *InMemory {
	return &InMemory{
		users:   make(map[int64]domain.User),
		nowFunc: nowFunc,
	}
}

var _ LedgerRepository = (*InMemory)(nil)

func (m *InMemory) RegisterOrRefresh(ctx context.Context, userID int64, username, firstName, lastName string) (domain.User, error) {
	if userID == 0 {
		return domain.User{}, fmt.Errorf("userID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()

	user, ok := m.users[userID]
	if !ok {
		user = domain.User{
			UserID:    userID,
			FirstSeen: now,
		}
	}
	user.Username = username
	user.FirstName = firstName
	user.LastName = lastName
	user.LastActivity = now

	m.users[userID] = user
	return user, nil
}

func (m *InMemory) RecordActivity(ctx context.Context, userID int64, kind domain.ActivityKind, points int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("%w: cannot record activity for unregistered user", domain.ErrUserNotFound)
	}

	now := m.nowFunc()

	switch kind {
	case domain.ActivityMessage:
		user.MessageCount++
	case domain.ActivitySticker:
		user.StickerCount++
	default:
		return fmt.Errorf("unknown activity kind: %q", kind)
	}
	user.Points += points
	user.LastActivity = now
	m.users[userID] = user

	m.activities = append(m.activities, domain.Activity{
		ID:           int64(len(m.activities) + 1),
		UserID:       userID,
		Kind:         kind,
		OccurredAt:   now,
		PointsEarned: points,
	})

	return nil
}

func (m *InMemory) GetUser(ctx context.Context, userID int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (m *InMemory) TotalUserCount(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return int64(len(m.users)), nil
}

func (m *InMemory) ListTopUsers(ctx context.Context, limit int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return domain.TopUsers(m.allUsersLocked(), limit), nil
}

func (m *InMemory) GetRank(ctx context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return domain.CompetitionRank(m.allUsersLocked(), userID)
}

func (m *InMemory) TotalActivityCounts(ctx context.Context) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var messages, stickers int64
	for _, user := range m.users {
		messages += user.MessageCount
		stickers += user.StickerCount
	}
	return messages, stickers, nil
}

// Activities returns a copy of the append-only log. Test helper.
func (m *InMemory) Activities(userID int64) []domain.Activity {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]domain.Activity, 0, len(m.activities))
	for _, activity := range m.activities {
		if activity.UserID == userID {
			entries = append(entries, activity)
		}
	}
	return entries
}

func (m *InMemory) allUsersLocked() []domain.User {
	users := make([]domain.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	return users
}
