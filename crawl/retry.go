package crawl

import (
	"context"
	"time"

	"github.com/skaczmarek/librarian"
)

// RetryPolicy controls how page fetches are retried. Only transient
// failures are retried; terminal failures surface immediately.
type RetryPolicy struct {
	// Delays is the backoff schedule. len(Delays)+1 is the total attempt
	// budget.
	Delays []time.Duration

	// Retryable decides whether an error is worth retrying. Defaults to
	// librarian.Retryable (EUNAVAILABLE only).
	Retryable func(error) bool
}

// DefaultRetryPolicy returns the standard policy: 4 total attempts with
// backoff delays of 1s, 2s, 4s, retrying transient failures only.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Delays: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
}

// Fetch fetches the URL through fetcher, retrying per the policy. The last
// error is returned once the attempt budget is exhausted or a terminal
// failure occurs.
func (p RetryPolicy) Fetch(ctx context.Context, fetcher librarian.Fetcher, url string) (*librarian.SourcePage, error) {
	retryable := p.Retryable
	if retryable == nil {
		retryable = librarian.Retryable
	}

	var lastErr error
	for attempt := 0; attempt <= len(p.Delays); attempt++ {
		page, err := fetcher.Fetch(ctx, url)
		if err == nil {
			return page, nil
		}
		lastErr = err

		if attempt >= len(p.Delays) || !retryable(err) {
			break
		}

		select {
		case <-ctx.Done():
			return nil, librarian.WrapError(ctx.Err(), librarian.ECANCELED, "fetch %s", url)
		case <-time.After(p.Delays[attempt]):
		}
	}
	return nil, lastErr
}
