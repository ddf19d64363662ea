// Package reconcile computes and applies the difference between freshly
// crawled records and the remote index's current content for a root URL.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/skaczmarek/librarian"
)

// Reconciler reconciles one root URL's records against the remote index.
// It is safe to re-run: identifiers are deterministic and the plan is
// recomputed from current remote state every time.
type Reconciler struct {
	Index  librarian.Index
	Logger *slog.Logger
}

// Result reports what an apply step actually did. On error it carries the
// progress made before the failure, so operators can diagnose and retry.
type Result struct {
	Added   int
	Updated int
	Deleted int
}

// Plan computes the reconciliation plan for a root URL without applying it.
func (r *Reconciler) Plan(ctx context.Context, rootURL string, records []librarian.ContentRecord) (*librarian.Plan, error) {
	existing, err := r.Index.BrowseByRootURL(ctx, rootURL)
	if err != nil {
		return nil, librarian.WrapError(err, librarian.ErrorCode(err), "browse records for %s", rootURL)
	}
	plan := librarian.ComputePlan(rootURL, records, existing)

	r.log(ctx, "reconciliation plan computed",
		"root_url", rootURL,
		"adds", len(plan.Adds),
		"updates", len(plan.Updates),
		"unchanged", len(plan.Unchanged),
		"deletes", len(plan.Deletes),
	)
	return plan, nil
}

// Apply executes a plan. Additions and updates are issued first; deletions
// only after they succeed, so the index never passes through a state with
// no records for a root that still has valid content. A failed step aborts
// the remaining steps and is surfaced whole, together with the progress
// made before it.
func (r *Reconciler) Apply(ctx context.Context, plan *librarian.Plan) (*Result, error) {
	res := &Result{}

	upserts := make([]librarian.ContentRecord, 0, len(plan.Adds)+len(plan.Updates))
	upserts = append(upserts, plan.Adds...)
	upserts = append(upserts, plan.Updates...)

	if len(upserts) > 0 {
		if err := r.Index.AddOrUpdate(ctx, upserts); err != nil {
			return res, librarian.WrapError(err, librarian.EINTERNAL, "add/update %d records for %s", len(upserts), plan.RootURL)
		}
		res.Added = len(plan.Adds)
		res.Updated = len(plan.Updates)
	}

	if len(plan.Deletes) > 0 {
		if err := r.Index.DeleteByIDs(ctx, plan.Deletes); err != nil {
			return res, librarian.WrapError(err, librarian.EINTERNAL, "delete %d stale records for %s", len(plan.Deletes), plan.RootURL)
		}
		res.Deleted = len(plan.Deletes)
	}

	r.log(ctx, "reconciliation applied",
		"root_url", plan.RootURL,
		"added", res.Added,
		"updated", res.Updated,
		"deleted", res.Deleted,
	)
	return res, nil
}

// Run computes and immediately applies the plan for a root URL.
func (r *Reconciler) Run(ctx context.Context, rootURL string, records []librarian.ContentRecord) (*librarian.Plan, *Result, error) {
	plan, err := r.Plan(ctx, rootURL, records)
	if err != nil {
		return nil, nil, err
	}
	res, err := r.Apply(ctx, plan)
	return plan, res, err
}

// DeleteRoot removes every record indexed under a root URL and returns how
// many were deleted. It is the degenerate plan with no add/update phase.
func (r *Reconciler) DeleteRoot(ctx context.Context, rootURL string) (int, error) {
	existing, err := r.Index.BrowseByRootURL(ctx, rootURL)
	if err != nil {
		return 0, librarian.WrapError(err, librarian.ErrorCode(err), "browse records for %s", rootURL)
	}
	if len(existing) == 0 {
		return 0, nil
	}

	ids := make([]string, len(existing))
	for i, obj := range existing {
		ids[i] = obj.ID
	}
	if err := r.Index.DeleteByIDs(ctx, ids); err != nil {
		return 0, librarian.WrapError(err, librarian.EINTERNAL, "delete %d records for %s", len(ids), rootURL)
	}

	r.log(ctx, "root deleted", "root_url", rootURL, "deleted", len(ids))
	return len(ids), nil
}

func (r *Reconciler) log(ctx context.Context, msg string, args ...any) {
	if r.Logger != nil {
		r.Logger.InfoContext(ctx, msg, args...)
	}
}
