package main

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/skaczmarek/librarian"
	"github.com/skaczmarek/librarian/crawl"
	"github.com/skaczmarek/librarian/reconcile"
)

// ErrPartial marks runs where some pages failed but the successes were still
// reconciled. main maps it to a distinct exit status.
var ErrPartial = errors.New("some pages failed")

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Fetcher    librarian.Fetcher
	Extractor  librarian.SectionExtractor
	Home       librarian.HomeParser
	Links      librarian.LinkExtractor
	Limiter    *crawl.DomainLimiter
	Reconciler *reconcile.Reconciler
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Index  IndexCmd  `cmd:"" help:"Index documentation content"`
	Delete DeleteCmd `cmd:"" help:"Delete all records under a root URL"`

	Addresses []string `env:"LIBRARIAN_ES_ADDRESSES" default:"http://localhost:9200" help:"Elasticsearch addresses"`
	IndexName string   `name:"index" env:"LIBRARIAN_INDEX" default:"documentation" help:"Elasticsearch index name"`
	Username  string   `env:"LIBRARIAN_ES_USERNAME" help:"Elasticsearch username"`
	Password  string   `env:"LIBRARIAN_ES_PASSWORD" help:"Elasticsearch password"`
	APIKey    string   `env:"LIBRARIAN_ES_API_KEY" help:"Elasticsearch API key"`
	Verbose   int      `short:"v" type:"counter" help:"Increase log verbosity (repeatable)"`
}

// IndexCmd groups the content indexing subcommands.
type IndexCmd struct {
	Tutorial     TutorialCmd     `cmd:"" help:"Index a single tutorial page"`
	TutorialSite TutorialSiteCmd `cmd:"" name:"tutorial-site" help:"Index every tutorial in a built site directory"`
	Guide        GuideCmd        `cmd:"" help:"Crawl and index a multi-page guide"`
}

// TutorialCmd is the "index tutorial" subcommand.
type TutorialCmd struct {
	URL      string `arg:"" help:"Published tutorial URL"`
	Path     string `help:"Read the page from a local file instead of fetching the URL"`
	Priority int    `default:"0" help:"Author-assigned result priority (higher sorts first)"`
}

// TutorialSiteCmd is the "index tutorial-site" subcommand.
type TutorialSiteCmd struct {
	Dir    string   `arg:"" help:"Site build directory"`
	URL    string   `arg:"" help:"Published base URL of the site"`
	Ignore []string `help:"Page path globs to skip (repeatable)"`
}

// GuideCmd is the "index guide" subcommand.
type GuideCmd struct {
	URL      string `arg:"" help:"Guide root URL"`
	Priority int    `default:"0" help:"Author-assigned result priority (higher sorts first)"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	URL string `arg:"" help:"Root URL whose records to delete"`
}
