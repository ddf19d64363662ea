package main

import (
	"fmt"

	"github.com/skaczmarek/librarian"
)

// Run executes the "delete" command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	n, err := deps.Reconciler.DeleteRoot(deps.Ctx, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", librarian.ErrorMessage(err))
		return err
	}

	if n == 0 {
		fmt.Fprintf(deps.Stdout, "No records found for %s\n", c.URL)
		return nil
	}
	fmt.Fprintf(deps.Stdout, "Deleted %d records for %s\n", n, c.URL)
	return nil
}
