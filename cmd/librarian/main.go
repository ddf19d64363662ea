package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/skaczmarek/librarian"
	"github.com/skaczmarek/librarian/crawl"
	"github.com/skaczmarek/librarian/elastic"
	"github.com/skaczmarek/librarian/goquery"
	libhttp "github.com/skaczmarek/librarian/http"
	"github.com/skaczmarek/librarian/reconcile"
	libslog "github.com/skaczmarek/librarian/slog"
)

// crawlRatePerDomain throttles remote crawls to one request per second per
// domain.
const crawlRatePerDomain = 1.0

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, ErrPartial) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Index overrides the Elasticsearch index. Set for end-to-end testing.
	Index librarian.Index

	// Fetcher overrides the HTTP fetcher. Set for end-to-end testing.
	Fetcher librarian.Fetcher
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("librarian"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'librarian --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Logger = libslog.WithRunID(newLogger(stderr, cli.Verbose))

	index := m.Index
	var ensure func(context.Context) error
	if index == nil {
		esIndex, err := elastic.NewIndex(elastic.Config{
			Addresses: cli.Addresses,
			Index:     cli.IndexName,
			Username:  cli.Username,
			Password:  cli.Password,
			APIKey:    cli.APIKey,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Set LIBRARIAN_ES_ADDRESSES to point at your Elasticsearch cluster")
			return err
		}
		index = esIndex
		ensure = esIndex.EnsureIndex
	}

	// Indexing commands need the index and its mapping to exist; delete
	// treats a missing index as already empty.
	if cmd == "index" && ensure != nil {
		if err := ensure(ctx); err != nil {
			return err
		}
	}

	fetcher := m.Fetcher
	if fetcher == nil {
		fetcher = libhttp.NewFetcher()
	}

	deps.Fetcher = libslog.NewLoggingFetcher(fetcher, deps.Logger)
	deps.Extractor = goquery.NewExtractor()
	deps.Home = goquery.NewHomeParser()
	deps.Links = goquery.NewLinkExtractor()
	deps.Limiter = crawl.NewDomainLimiter(crawlRatePerDomain)
	deps.Reconciler = &reconcile.Reconciler{
		Index:  libslog.NewLoggingIndex(index, deps.Logger),
		Logger: deps.Logger,
	}

	return kongCtx.Run(deps)
}

// newLogger maps -v counts to slog levels: warnings by default, info at -v,
// debug at -vv and beyond.
func newLogger(w io.Writer, verbosity int) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbosity == 1:
		level = slog.LevelInfo
	case verbosity >= 2:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
