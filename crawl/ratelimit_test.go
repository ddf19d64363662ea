package crawl_test

import (
	"context"
	"testing"
	"time"

	"github.com/skaczmarek/librarian/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainLimiter(t *testing.T) {
	t.Parallel()

	t.Run("first request per domain proceeds immediately", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewDomainLimiter(0.001)

		start := time.Now()
		require.NoError(t, limiter.Wait(context.Background(), "a.example.org"))
		require.NoError(t, limiter.Wait(context.Background(), "b.example.org"))
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("canceled context aborts the wait", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewDomainLimiter(0.001)
		require.NoError(t, limiter.Wait(context.Background(), "example.org"))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := limiter.Wait(ctx, "example.org")
		assert.Error(t, err)
	})
}
