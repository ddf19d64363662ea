// Package crawl orchestrates page crawling: it discovers the pages
// belonging to a documentation source, fetches and extracts them through a
// bounded worker pool, and aggregates one terminal result per page.
package crawl

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/skaczmarek/librarian"
	"golang.org/x/sync/errgroup"
)

// Frontier sizing and termination guards.
const (
	// frontierExpectedURLs sizes the Bloom filter.
	frontierExpectedURLs = 10000
	// frontierFalsePositiveRate is the acceptable Bloom false positive
	// rate; the frontier's exact set corrects any false positive.
	frontierFalsePositiveRate = 0.01
	// defaultMaxPages bounds a guide crawl so cyclic link graphs
	// terminate.
	defaultMaxPages = 500
	// defaultConcurrency bounds simultaneously in-flight page fetches.
	defaultConcurrency = 5
)

// Crawler fetches and processes the pages of a documentation source.
// One page's fetch or extraction failure is isolated: it is recorded in the
// result mapping and never cancels sibling pages.
type Crawler struct {
	Fetcher   librarian.Fetcher
	Extractor librarian.SectionExtractor

	// Home and Links drive guide page discovery; unused for fixed page
	// sets.
	Home  librarian.HomeParser
	Links librarian.LinkExtractor

	// Limiter throttles requests per domain. Optional.
	Limiter *DomainLimiter

	// Retry is the fetch retry policy. A zero value means the default
	// policy.
	Retry RetryPolicy

	// Concurrency bounds in-flight fetches; defaults to 5.
	Concurrency int

	// MaxPages caps discovered pages per guide crawl; defaults to 500.
	MaxPages int

	Logger *slog.Logger
}

// CrawlGuide crawls a multi-page guide rooted at rootURL: it fetches the
// homepage (following a meta-refresh stub if present), seeds discovery from
// the navigation, and follows same-root internal links breadth-first until
// no new pages remain or the page ceiling is reached.
func (c *Crawler) CrawlGuide(ctx context.Context, rootURL string, priority int) (*librarian.Crawl, *librarian.GuideHome, error) {
	root, err := url.Parse(rootURL)
	if err != nil {
		return nil, nil, librarian.Errorf(librarian.EINVALID, "invalid root URL %q", rootURL)
	}

	home, homepage, err := c.fetchHome(ctx, rootURL)
	if err != nil {
		return nil, nil, err
	}

	homeURL := stripFragment(homepage.URL)

	frontier := NewFrontier(frontierExpectedURLs, frontierFalsePositiveRate)
	frontier.MarkSeen(homeURL)
	for _, u := range home.NavURLs {
		if inScope(root, u) {
			frontier.Push(u)
		}
	}

	metaFor := func(pageURL string) librarian.PageMeta {
		return librarian.PageMeta{
			URL:         pageURL,
			RootURL:     rootURL,
			RootTitle:   home.Title,
			RootSummary: home.Summary,
			Kind:        librarian.KindGuidePage,
			Priority:    priority,
			Homepage:    pageURL == homeURL,
		}
	}

	crawl := librarian.NewCrawl(rootURL)

	// The homepage is already fetched; extract it directly rather than
	// queueing a second fetch of the same URL.
	crawl.Add(c.extractPage(ctx, homeURL, homepage, metaFor(homeURL)))
	for _, u := range c.discover(root, homepage) {
		frontier.Push(u)
	}

	c.run(ctx, crawl, frontier, metaFor, func(page *librarian.SourcePage) []string {
		return c.discover(root, page)
	})
	return crawl, home, nil
}

// CrawlPages fetches a fixed, pre-discovered set of pages (a tutorial site
// build or a single tutorial). metaFor supplies the record-building metadata
// for each page URL.
func (c *Crawler) CrawlPages(ctx context.Context, rootURL string, urls []string, metaFor func(pageURL string) librarian.PageMeta) (*librarian.Crawl, error) {
	frontier := NewFrontier(frontierExpectedURLs, frontierFalsePositiveRate)
	for _, u := range urls {
		frontier.Push(u)
	}

	crawl := librarian.NewCrawl(rootURL)
	c.run(ctx, crawl, frontier, metaFor, nil)
	return crawl, nil
}

// fetchHome downloads the guide homepage and extracts its metadata,
// following one meta-refresh redirect: guide root URLs often host a stub
// that immediately redirects to the first content page.
func (c *Crawler) fetchHome(ctx context.Context, rootURL string) (*librarian.GuideHome, *librarian.SourcePage, error) {
	page, err := c.fetch(ctx, rootURL)
	if err != nil {
		return nil, nil, err
	}
	home, err := c.Home.ParseHome(page)
	if err != nil {
		return nil, nil, err
	}

	if home.Redirect != "" {
		page, err = c.fetch(ctx, home.Redirect)
		if err != nil {
			return nil, nil, err
		}
		home, err = c.Home.ParseHome(page)
		if err != nil {
			return nil, nil, err
		}
	}
	return home, page, nil
}

// run drains the frontier through a bounded worker pool until no pages
// remain. When discover is non-nil, processed pages feed newly found URLs
// back into the frontier. Cancellation stops new fetches, awaits in-flight
// ones, and marks still-queued pages as cancelled.
func (c *Crawler) run(ctx context.Context, crawl *librarian.Crawl, frontier *Frontier, metaFor func(string) librarian.PageMeta, discover func(*librarian.SourcePage) []string) {
	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	maxPages := c.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	var mu sync.Mutex
	processed := 0

	// Breadth-first waves: each wave processes the currently queued URLs
	// concurrently; pages discovered during a wave queue up for the next.
	for frontier.Len() > 0 {
		wave := frontier.Drain()

		g := &errgroup.Group{}
		g.SetLimit(concurrency)

		for _, pageURL := range wave {
			mu.Lock()
			over := processed >= maxPages
			if !over {
				processed++
			}
			mu.Unlock()

			if over || ctx.Err() != nil {
				mu.Lock()
				crawl.Add(librarian.CrawlResult{
					URL: pageURL,
					Err: librarian.Errorf(librarian.ECANCELED, "page not fetched: crawl stopped"),
				})
				mu.Unlock()
				continue
			}

			g.Go(func() error {
				result, page := c.processPage(ctx, pageURL, metaFor(pageURL))

				mu.Lock()
				crawl.Add(result)
				mu.Unlock()

				if discover != nil && page != nil {
					for _, u := range discover(page) {
						frontier.Push(u)
					}
				}
				return nil
			})
		}
		_ = g.Wait()
	}
}

// processPage runs the per-page pipeline: rate limit, fetch with retry,
// extract, build records. The returned page is non-nil only on a successful
// fetch, for link discovery.
func (c *Crawler) processPage(ctx context.Context, pageURL string, meta librarian.PageMeta) (librarian.CrawlResult, *librarian.SourcePage) {
	result := librarian.CrawlResult{URL: pageURL}

	if c.Limiter != nil {
		u, err := url.Parse(pageURL)
		if err != nil {
			result.Err = librarian.Errorf(librarian.EINVALID, "invalid page URL %q", pageURL)
			return result, nil
		}
		if err := c.Limiter.Wait(ctx, u.Host); err != nil {
			result.Err = librarian.WrapError(err, librarian.ECANCELED, "rate limit wait for %s", pageURL)
			return result, nil
		}
	}

	page, err := c.fetch(ctx, pageURL)
	if err != nil {
		result.Err = err
		c.log(ctx, "page fetch failed", "url", pageURL, "err", err)
		return result, nil
	}

	return c.extractPage(ctx, pageURL, page, meta), page
}

// extractPage runs extraction and record building for an already fetched
// page.
func (c *Crawler) extractPage(ctx context.Context, pageURL string, page *librarian.SourcePage, meta librarian.PageMeta) librarian.CrawlResult {
	result := librarian.CrawlResult{URL: pageURL}

	sections, err := c.Extractor.Extract(page)
	if err != nil {
		result.Err = err
		c.log(ctx, "page extraction failed", "url", pageURL, "err", err)
		return result
	}

	result.Records = librarian.BuildRecords(sections, meta)
	c.log(ctx, "page indexed", "url", pageURL, "records", len(result.Records))
	return result
}

func (c *Crawler) fetch(ctx context.Context, pageURL string) (*librarian.SourcePage, error) {
	policy := c.Retry
	if policy.Delays == nil && policy.Retryable == nil {
		policy = DefaultRetryPolicy()
	}
	return policy.Fetch(ctx, c.Fetcher, pageURL)
}

// discover extracts in-scope links from a fetched page.
func (c *Crawler) discover(root *url.URL, page *librarian.SourcePage) []string {
	if c.Links == nil {
		return nil
	}
	links, err := c.Links.ExtractLinks(page.HTML, page.URL)
	if err != nil {
		return nil
	}
	var inRoot []string
	for _, u := range links {
		if inScope(root, u) {
			inRoot = append(inRoot, u)
		}
	}
	return inRoot
}

func (c *Crawler) log(ctx context.Context, msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.InfoContext(ctx, msg, args...)
	}
}

// inScope reports whether a candidate URL belongs to the guide rooted at
// root: same host, path under the root's directory, and an HTML-ish path.
func inScope(root *url.URL, candidate string) bool {
	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	if u.Host != root.Host {
		return false
	}

	dir := root.Path
	if !strings.HasSuffix(dir, "/") {
		dir = path.Dir(dir) + "/"
	}
	if !strings.HasPrefix(u.Path, dir) {
		return false
	}

	ext := strings.ToLower(path.Ext(u.Path))
	return ext == "" || ext == ".html" || ext == ".htm"
}
