package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mundheim/grouptrack/internal/logging"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("returns fallback logger when none is set", func(t *testing.T) {
		t.Parallel()

		logger := logging.FromContext(context.Background())
		require.NotNil(t, logger)
	})

	t.Run("returns the logger added to the context", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		ctx := logging.AddToContext(context.Background(), logger)

		logging.FromContext(ctx).Info("hello")
		require.Contains(t, buf.String(), "hello")
	})

	t.Run("meta attrs are attached to the context logger", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		ctx := logging.AddToContext(context.Background(), logger)
		ctx = logging.AddMetaToContext(ctx, slog.Int64("userID", 42))

		logging.FromContext(ctx).Info("tracked")
		require.Contains(t, buf.String(), `"userID":42`)
	})
}
