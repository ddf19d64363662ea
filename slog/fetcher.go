// Package slog provides logging decorators for the domain interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/skaczmarek/librarian"
)

// WithRunID returns a logger that stamps every entry with a fresh run
// correlation ID, so interleaved log lines from concurrent page workers can
// be grouped per invocation.
func WithRunID(logger *slog.Logger) *slog.Logger {
	return logger.With("run_id", uuid.NewString())
}

// Ensure LoggingFetcher implements librarian.Fetcher.
var _ librarian.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with per-request logging.
type LoggingFetcher struct {
	next   librarian.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next librarian.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the outcome.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (*librarian.SourcePage, error) {
	begin := time.Now()
	page, err := f.next.Fetch(ctx, url)
	if err != nil {
		f.logger.ErrorContext(ctx, "fetch",
			"url", url,
			"code", librarian.ErrorCode(err),
			"err", err,
			"duration", time.Since(begin),
		)
		return nil, err
	}
	f.logger.InfoContext(ctx, "fetch",
		"url", url,
		"bytes", len(page.HTML),
		"duration", time.Since(begin),
	)
	return page, nil
}
