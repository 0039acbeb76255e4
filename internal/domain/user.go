package domain

import (
	"strings"
	"time"
)

type User struct {
	UserID       int64
	Username     string
	FirstName    string
	LastName     string
	Points       int64
	MessageCount int64
	StickerCount int64
	FirstSeen    time.Time
	LastActivity time.Time
}

// DisplayName returns the name shown in leaderboards and stats replies.
// Username is preferred, then first/last name.
func (u User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}

	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return "Unknown"
	}
	return name
}
