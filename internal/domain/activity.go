package domain

import (
	"fmt"
	"time"
)

type ActivityKind string

const (
	ActivityMessage ActivityKind = "message"
	ActivitySticker ActivityKind = "sticker"
)

func ParseActivityKind(raw string) (ActivityKind, error) {
	switch raw {
	case string(ActivityMessage):
		return ActivityMessage, nil
	case string(ActivitySticker):
		return ActivitySticker, nil
	}
	return "", fmt.Errorf("unknown activity kind: %q", raw)
}

// Activity is one append-only ledger entry. Entries are never mutated or
// deleted; the counters on User are a cached aggregate of them.
type Activity struct {
	ID           int64
	UserID       int64
	Kind         ActivityKind
	OccurredAt   time.Time
	PointsEarned int64
}
