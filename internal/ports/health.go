package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mundheim/grouptrack/internal/app"
	"github.com/mundheim/grouptrack/internal/logging"
	"github.com/mundheim/grouptrack/internal/reporting"
)

// DatabasePinger reports whether the backing store is reachable.
// *sqlx.DB satisfies this.
type DatabasePinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc adapts a function to DatabasePinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) PingContext(ctx context.Context) error {
	return f(ctx)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to marshal response: %w", err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

type healthResponse struct {
	Status        string  `json:"status"`
	Timestamp     string  `json:"timestamp"`
	UptimeSeconds float64 `json:"uptime,omitempty"`
	Database      string  `json:"database,omitempty"`
	Error         string  `json:"error,omitempty"`
}

func MakeHealthHandler(
	pinger DatabasePinger,
	startedAt time.Time,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		buildMetricsMiddleware(),
	)

	return middleware(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now()

		err := pinger.PingContext(ctx)
		if err != nil {
			logging.FromContext(ctx).ErrorContext(ctx, "Health check failed", "error", err.Error())
			reporting.Report(ctx, err)
			writeJSON(ctx, w, http.StatusServiceUnavailable, healthResponse{
				Status:    "unhealthy",
				Timestamp: now.Format(time.RFC3339),
				Error:     "Database connection failed",
			})
			return
		}

		writeJSON(ctx, w, http.StatusOK, healthResponse{
			Status:        "healthy",
			Timestamp:     now.Format(time.RFC3339),
			UptimeSeconds: now.Sub(startedAt).Seconds(),
			Database:      "connected",
		})
	})
}

type readyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

// CheckReady verifies the service can serve queries, not just reach the store.
type CheckReady func(ctx context.Context) error

func MakeReadyHandler(
	checkReady CheckReady,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		buildMetricsMiddleware(),
	)

	return middleware(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now()

		err := checkReady(ctx)
		if err != nil {
			logging.FromContext(ctx).ErrorContext(ctx, "Readiness check failed", "error", err.Error())
			reporting.Report(ctx, err)
			writeJSON(ctx, w, http.StatusServiceUnavailable, readyResponse{
				Status:    "not ready",
				Timestamp: now.Format(time.RFC3339),
				Error:     err.Error(),
			})
			return
		}

		writeJSON(ctx, w, http.StatusOK, readyResponse{
			Status:    "ready",
			Timestamp: now.Format(time.RFC3339),
		})
	})
}

type statsResponse struct {
	Users     int64  `json:"users"`
	Messages  int64  `json:"messages"`
	Stickers  int64  `json:"stickers"`
	Timestamp string `json:"timestamp"`
}

func MakeStatsHandler(
	getBotStats app.GetBotStats,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		buildMetricsMiddleware(),
	)

	return middleware(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		stats, err := getBotStats(ctx)
		if err != nil {
			logging.FromContext(ctx).ErrorContext(ctx, "Stats endpoint failed", "error", err.Error())
			// NOTE: app closures handle their own error reporting
			writeJSON(ctx, w, http.StatusInternalServerError, map[string]string{
				"error":     "Failed to fetch stats",
				"timestamp": time.Now().Format(time.RFC3339),
			})
			return
		}

		writeJSON(ctx, w, http.StatusOK, statsResponse{
			Users:     stats.TotalUsers,
			Messages:  stats.TotalMessages,
			Stickers:  stats.TotalStickers,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	})
}

type leaderboardEntry struct {
	Rank     int64  `json:"rank"`
	UserID   int64  `json:"user_id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	Points   int64  `json:"points"`
	Messages int64  `json:"messages"`
	Stickers int64  `json:"stickers"`
}

type leaderboardResponse struct {
	Entries    []leaderboardEntry `json:"entries"`
	TotalUsers int64              `json:"total_users"`
	Timestamp  string             `json:"timestamp"`
}

func MakeLeaderboardHandler(
	getLeaderboard app.GetLeaderboard,
	maxEntries int,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		buildMetricsMiddleware(),
	)

	return middleware(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		leaderboard, err := getLeaderboard(ctx, maxEntries)
		if err != nil {
			logging.FromContext(ctx).ErrorContext(ctx, "Leaderboard endpoint failed", "error", err.Error())
			writeJSON(ctx, w, http.StatusInternalServerError, map[string]string{
				"error":     "Failed to fetch leaderboard",
				"timestamp": time.Now().Format(time.RFC3339),
			})
			return
		}

		entries := make([]leaderboardEntry, 0, len(leaderboard.Entries))
		for i, user := range leaderboard.Entries {
			entries = append(entries, leaderboardEntry{
				Rank:     int64(i + 1),
				UserID:   user.UserID,
				Name:     user.DisplayName(),
				Username: user.Username,
				Points:   user.Points,
				Messages: user.MessageCount,
				Stickers: user.StickerCount,
			})
		}

		writeJSON(ctx, w, http.StatusOK, leaderboardResponse{
			Entries:    entries,
			TotalUsers: leaderboard.TotalUsers,
			Timestamp:  time.Now().Format(time.RFC3339),
		})
	})
}
