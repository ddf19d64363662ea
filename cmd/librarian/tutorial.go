package main

import (
	"fmt"

	"github.com/skaczmarek/librarian"
	"github.com/skaczmarek/librarian/fs"
)

// Run executes the "index tutorial" command.
func (c *TutorialCmd) Run(deps *Dependencies) error {
	var page *librarian.SourcePage
	var err error
	if c.Path != "" {
		page, err = fs.ReadPage(c.Path, c.URL)
	} else {
		page, err = deps.Fetcher.Fetch(deps.Ctx, c.URL)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", librarian.ErrorMessage(err))
		return err
	}

	sections, err := deps.Extractor.Extract(page)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", librarian.ErrorMessage(err))
		return err
	}

	// The canonical URL keys the records, so a tutorial moved behind a
	// redirect reconciles under its new address.
	rootURL := page.URL
	records := librarian.BuildRecords(sections, librarian.PageMeta{
		URL:      rootURL,
		RootURL:  rootURL,
		Kind:     librarian.KindTutorial,
		Priority: c.Priority,
	})
	if len(records) == 0 {
		fmt.Fprintf(deps.Stderr, "error: no indexable content at %s\n", c.URL)
		return librarian.Errorf(librarian.EINVALID, "no indexable content at %s", c.URL)
	}

	_, res, err := deps.Reconciler.Run(deps.Ctx, rootURL, records)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", librarian.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Indexed %s: %d records (%d added, %d updated, %d deleted)\n",
		rootURL, len(records), res.Added, res.Updated, res.Deleted)
	return nil
}
