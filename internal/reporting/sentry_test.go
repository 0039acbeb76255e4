package reporting

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	t.Run("bot token in request url", func(t *testing.T) {
		t.Parallel()

		err := `failed to send request: Post "https://api.telegram.org/bot123456789:AAExampleExampleExampleExample012345/getUpdates": context deadline exceeded`
		want := `failed to send request: Post "https://api.telegram.org/bot<bot-token>/getUpdates": context deadline exceeded`
		require.Equal(t, want, sanitizeError(err))
	})

	t.Run("connection reset by peer", func(t *testing.T) {
		t.Parallel()

		err := `failed to send request: read tcp [dead:beef:feb1:d745::c001]:64079->[dead:beef::6811:112a]:443: read: connection reset by peer`
		want := `failed to send request: read tcp <host>-><host>: read: connection reset by peer`
		require.Equal(t, want, sanitizeError(err))
	})

	t.Run("plain errors are untouched", func(t *testing.T) {
		t.Parallel()

		err := `failed to insert activity: connection refused`
		require.Equal(t, err, sanitizeError(err))
	})
}
