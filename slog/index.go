package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/skaczmarek/librarian"
)

// Ensure LoggingIndex implements librarian.Index.
var _ librarian.Index = (*LoggingIndex)(nil)

// LoggingIndex wraps an Index with per-operation logging.
type LoggingIndex struct {
	next   librarian.Index
	logger *slog.Logger
}

// NewLoggingIndex creates a new LoggingIndex.
func NewLoggingIndex(next librarian.Index, logger *slog.Logger) *LoggingIndex {
	return &LoggingIndex{next: next, logger: logger}
}

// AddOrUpdate delegates to the wrapped index and logs the outcome.
func (i *LoggingIndex) AddOrUpdate(ctx context.Context, records []librarian.ContentRecord) error {
	begin := time.Now()
	err := i.next.AddOrUpdate(ctx, records)
	i.log(ctx, "index add_or_update", err, "count", len(records), "duration", time.Since(begin))
	return err
}

// DeleteByIDs delegates to the wrapped index and logs the outcome.
func (i *LoggingIndex) DeleteByIDs(ctx context.Context, ids []string) error {
	begin := time.Now()
	err := i.next.DeleteByIDs(ctx, ids)
	i.log(ctx, "index delete", err, "count", len(ids), "duration", time.Since(begin))
	return err
}

// BrowseByRootURL delegates to the wrapped index and logs the outcome.
func (i *LoggingIndex) BrowseByRootURL(ctx context.Context, rootURL string) ([]librarian.IndexedObject, error) {
	begin := time.Now()
	objs, err := i.next.BrowseByRootURL(ctx, rootURL)
	i.log(ctx, "index browse", err, "root_url", rootURL, "count", len(objs), "duration", time.Since(begin))
	return objs, err
}

func (i *LoggingIndex) log(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "code", librarian.ErrorCode(err), "err", err)
		i.logger.ErrorContext(ctx, msg, args...)
		return
	}
	i.logger.InfoContext(ctx, msg, args...)
}
