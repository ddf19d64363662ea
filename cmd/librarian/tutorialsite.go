package main

import (
	"fmt"
	"sort"

	"github.com/skaczmarek/librarian"
	"github.com/skaczmarek/librarian/crawl"
	"github.com/skaczmarek/librarian/fs"
)

// Run executes the "index tutorial-site" command. Every page of the site is
// its own tutorial: each reconciles under its own URL, so one page's failure
// never disturbs the records of its siblings.
func (c *TutorialSiteCmd) Run(deps *Dependencies) error {
	urls, err := fs.DiscoverPages(c.Dir, c.URL, c.Ignore)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", librarian.ErrorMessage(err))
		return err
	}
	if len(urls) == 0 {
		fmt.Fprintf(deps.Stdout, "No tutorial pages found in %s\n", c.Dir)
		return nil
	}

	crawler := &crawl.Crawler{
		Fetcher:   fs.NewFetcher(c.Dir, c.URL),
		Extractor: deps.Extractor,
		Logger:    deps.Logger,
	}
	result, err := crawler.CrawlPages(deps.Ctx, c.URL, urls, func(pageURL string) librarian.PageMeta {
		return librarian.PageMeta{
			URL:     pageURL,
			RootURL: pageURL,
			Kind:    librarian.KindSiteTutorial,
		}
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", librarian.ErrorMessage(err))
		return err
	}

	pages := make([]string, 0, len(result.Results))
	for u := range result.Results {
		pages = append(pages, u)
	}
	sort.Strings(pages)

	indexed, failed := 0, 0
	total := 0
	for _, u := range pages {
		r := result.Results[u]
		if r.Err != nil {
			failed++
			fmt.Fprintf(deps.Stderr, "  skip %s: %s\n", u, librarian.ErrorMessage(r.Err))
			continue
		}
		if _, _, err := deps.Reconciler.Run(deps.Ctx, u, r.Records); err != nil {
			failed++
			fmt.Fprintf(deps.Stderr, "  skip %s: %s\n", u, librarian.ErrorMessage(err))
			continue
		}
		indexed++
		total += len(r.Records)
	}

	fmt.Fprintf(deps.Stdout, "Indexed %d of %d tutorials (%d records)\n", indexed, len(pages), total)

	if failed > 0 {
		if indexed == 0 {
			return librarian.Errorf(librarian.EINTERNAL, "all %d tutorials failed", failed)
		}
		return fmt.Errorf("%d of %d tutorials failed: %w", failed, len(pages), ErrPartial)
	}
	return nil
}
