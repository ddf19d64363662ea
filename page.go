package librarian

import (
	"context"
	"sort"
)

// ContentKind classifies a source page. The kind controls metadata defaults
// during record building: priority sources, root URL derivation, and the
// importance rule for guide homepages.
type ContentKind string

// Supported content kinds.
const (
	KindTutorial     ContentKind = "tutorial"
	KindGuidePage    ContentKind = "guide-page"
	KindSiteTutorial ContentKind = "site-tutorial"
)

// Valid reports whether k is a known content kind.
func (k ContentKind) Valid() bool {
	switch k {
	case KindTutorial, KindGuidePage, KindSiteTutorial:
		return true
	}
	return false
}

// SourcePage is a fetched HTML document together with its retrieval context.
// It is immutable and discarded after section extraction.
type SourcePage struct {
	// URL is the canonical URL the content was retrieved from. It may
	// differ from RequestURL if the server or a meta-refresh redirected.
	URL string

	// RequestURL is the URL originally requested.
	RequestURL string

	// HTML is the raw page content.
	HTML string
}

// Fetcher retrieves the HTML for a URL or local path.
// Implementations classify failures with error codes: EUNAVAILABLE for
// transient errors (timeouts, 5xx, connection resets), ENOTFOUND for
// missing resources, EINVALID for malformed URLs or content.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*SourcePage, error)
}

// GuideHome holds metadata extracted from a guide's homepage.
type GuideHome struct {
	// Title is the site title.
	Title string

	// Summary is the first content paragraph, used as the root summary
	// on every record belonging to the guide.
	Summary string

	// NavURLs are the content page URLs listed in the site navigation.
	NavURLs []string

	// Redirect is the target of a meta-refresh redirect, or empty. Guide
	// root URLs often host a redirect page rather than real content.
	Redirect string
}

// HomeParser extracts guide homepage metadata.
type HomeParser interface {
	ParseHome(page *SourcePage) (*GuideHome, error)
}

// LinkExtractor returns absolute same-host URLs linked from a page,
// fragments stripped, in document order.
type LinkExtractor interface {
	ExtractLinks(html string, baseURL string) ([]string, error)
}

// CrawlResult is the terminal outcome for one page of a crawl: either the
// records built from it, or a classified failure attributed to its URL.
type CrawlResult struct {
	URL     string
	Records []ContentRecord
	Err     error
}

// Failed reports whether the page produced an error other than cancellation.
func (r CrawlResult) Failed() bool {
	return r.Err != nil && ErrorCode(r.Err) != ECANCELED
}

// Canceled reports whether the page was discovered but never processed
// because the crawl was cancelled.
func (r CrawlResult) Canceled() bool {
	return r.Err != nil && ErrorCode(r.Err) == ECANCELED
}

// Crawl aggregates per-page results for one root URL. Every discovered page
// has exactly one entry; partial completion is not a terminal state.
type Crawl struct {
	RootURL string

	// Results maps page URL to its terminal outcome.
	Results map[string]CrawlResult

	Succeeded int
	Failed    int
	Canceled  int
}

// NewCrawl returns an empty crawl report for a root URL.
func NewCrawl(rootURL string) *Crawl {
	return &Crawl{
		RootURL: rootURL,
		Results: make(map[string]CrawlResult),
	}
}

// Add records a terminal result for a page and updates the counters.
func (c *Crawl) Add(result CrawlResult) {
	c.Results[result.URL] = result
	switch {
	case result.Canceled():
		c.Canceled++
	case result.Failed():
		c.Failed++
	default:
		c.Succeeded++
	}
}

// Records returns all records across successful pages, ordered by page URL
// and then by section ordinal. Consumers never depend on crawl completion
// order.
func (c *Crawl) Records() []ContentRecord {
	urls := make([]string, 0, len(c.Results))
	for u := range c.Results {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	var records []ContentRecord
	for _, u := range urls {
		records = append(records, c.Results[u].Records...)
	}
	return records
}

// Errs returns the errors of failed pages keyed by URL.
func (c *Crawl) Errs() map[string]error {
	errs := make(map[string]error)
	for u, r := range c.Results {
		if r.Err != nil {
			errs[u] = r.Err
		}
	}
	return errs
}
