package domain

import (
	"slices"
)

// CompareForLeaderboard orders users by points descending, ties broken by
// most recent activity first.
func CompareForLeaderboard(a, b User) int {
	if a.Points != b.Points {
		if a.Points > b.Points {
			return -1
		}
		return 1
	}
	if a.LastActivity.After(b.LastActivity) {
		return -1
	}
	if a.LastActivity.Before(b.LastActivity) {
		return 1
	}
	return 0
}

// TopUsers returns the leaderboard view over the given users: only users with
// points, ordered per CompareForLeaderboard, truncated to limit.
func TopUsers(users []User, limit int) []User {
	top := make([]User, 0, len(users))
	for _, user := range users {
		if user.Points > 0 {
			top = append(top, user)
		}
	}

	slices.SortStableFunc(top, CompareForLeaderboard)

	if limit >= 0 && len(top) > limit {
		top = top[:limit]
	}
	return top
}

// CompetitionRank is 1 plus the number of users with strictly more points.
// Users tied on points share a rank number regardless of the leaderboard
// tie break.
func CompetitionRank(users []User, userID int64) (int64, error) {
	var target *User
	for i := range users {
		if users[i].UserID == userID {
			target = &users[i]
			break
		}
	}
	if target == nil {
		return 0, ErrUserNotFound
	}

	var rank int64 = 1
	for _, user := range users {
		if user.Points > target.Points {
			rank++
		}
	}
	return rank, nil
}
