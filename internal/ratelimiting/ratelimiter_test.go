package ratelimiting_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mundheim/grouptrack/internal/ratelimiting"
)

func TestTokenBucketRateLimiter(t *testing.T) {
	t.Parallel()

	t.Run("burst is allowed, then limited", func(t *testing.T) {
		t.Parallel()

		limiter, stop := ratelimiting.NewTokenBucketRateLimiter(0.001, 2)
		defer stop()

		key := ratelimiting.ChatKey(-100)

		require.True(t, limiter.Consume(key))
		require.True(t, limiter.Consume(key))
		require.False(t, limiter.Consume(key))
	})

	t.Run("chats are limited independently", func(t *testing.T) {
		t.Parallel()

		limiter, stop := ratelimiting.NewTokenBucketRateLimiter(0.001, 1)
		defer stop()

		require.True(t, limiter.Consume(ratelimiting.ChatKey(-100)))
		require.False(t, limiter.Consume(ratelimiting.ChatKey(-100)))
		require.True(t, limiter.Consume(ratelimiting.ChatKey(-200)))
	})
}
