// Package mock provides function-field mock implementations of the domain
// interfaces for tests.
package mock

import (
	"context"

	"github.com/skaczmarek/librarian"
)

var _ librarian.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of librarian.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*librarian.SourcePage, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*librarian.SourcePage, error) {
	return f.FetchFn(ctx, url)
}

var _ librarian.SectionExtractor = (*SectionExtractor)(nil)

// SectionExtractor is a mock implementation of librarian.SectionExtractor.
type SectionExtractor struct {
	ExtractFn func(page *librarian.SourcePage) ([]librarian.ContentSection, error)
}

func (e *SectionExtractor) Extract(page *librarian.SourcePage) ([]librarian.ContentSection, error) {
	return e.ExtractFn(page)
}

var _ librarian.HomeParser = (*HomeParser)(nil)

// HomeParser is a mock implementation of librarian.HomeParser.
type HomeParser struct {
	ParseHomeFn func(page *librarian.SourcePage) (*librarian.GuideHome, error)
}

func (p *HomeParser) ParseHome(page *librarian.SourcePage) (*librarian.GuideHome, error) {
	return p.ParseHomeFn(page)
}

var _ librarian.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor is a mock implementation of librarian.LinkExtractor.
type LinkExtractor struct {
	ExtractLinksFn func(html string, baseURL string) ([]string, error)
}

func (e *LinkExtractor) ExtractLinks(html string, baseURL string) ([]string, error) {
	return e.ExtractLinksFn(html, baseURL)
}
