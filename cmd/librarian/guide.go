package main

import (
	"fmt"
	"sort"

	"github.com/skaczmarek/librarian"
	"github.com/skaczmarek/librarian/crawl"
)

// Run executes the "index guide" command. All pages of the guide reconcile
// together under the root URL, so sections removed from any page since the
// last run are cleaned up.
func (c *GuideCmd) Run(deps *Dependencies) error {
	crawler := &crawl.Crawler{
		Fetcher:   deps.Fetcher,
		Extractor: deps.Extractor,
		Home:      deps.Home,
		Links:     deps.Links,
		Limiter:   deps.Limiter,
		Logger:    deps.Logger,
	}

	result, home, err := crawler.CrawlGuide(deps.Ctx, c.URL, c.Priority)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", librarian.ErrorMessage(err))
		return err
	}

	errs := result.Errs()
	failures := make([]string, 0, len(errs))
	for u := range errs {
		failures = append(failures, u)
	}
	sort.Strings(failures)
	for _, u := range failures {
		fmt.Fprintf(deps.Stderr, "  skip %s: %s\n", u, librarian.ErrorMessage(errs[u]))
	}

	if result.Succeeded == 0 {
		return librarian.Errorf(librarian.EINTERNAL, "no pages of %s could be indexed", c.URL)
	}

	records := result.Records()
	plan, err := deps.Reconciler.Plan(deps.Ctx, c.URL, records)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", librarian.ErrorMessage(err))
		return err
	}

	// An incomplete crawl cannot tell a removed section from a section on
	// a page that failed to fetch. Keep existing records in place and only
	// clean up stale ones on a fully successful run.
	partial := result.Failed > 0 || result.Canceled > 0
	if partial && len(plan.Deletes) > 0 {
		fmt.Fprintf(deps.Stderr, "warning: keeping %d possibly stale records because the crawl was incomplete\n", len(plan.Deletes))
		plan.Deletes = nil
	}

	res, err := deps.Reconciler.Apply(deps.Ctx, plan)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", librarian.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Indexed guide %q: %d pages, %d records (%d added, %d updated, %d deleted)\n",
		home.Title, result.Succeeded, len(records), res.Added, res.Updated, res.Deleted)

	if partial {
		return fmt.Errorf("%d of %d pages failed: %w", result.Failed+result.Canceled, len(result.Results), ErrPartial)
	}
	return nil
}
