package librarian

import "context"

// IndexedObject is the minimal view of a remote record used for
// reconciliation: its identifier and content fingerprint.
type IndexedObject struct {
	ID          string
	ContentHash string
}

// Index is the remote full-text index. The core depends only on this
// interface, never on a specific index product's protocol.
type Index interface {
	// AddOrUpdate upserts records by ID.
	AddOrUpdate(ctx context.Context, records []ContentRecord) error

	// DeleteByIDs removes records by ID. Unknown IDs are not an error.
	DeleteByIDs(ctx context.Context, ids []string) error

	// BrowseByRootURL returns the identifier and content hash of every
	// record currently indexed under a root URL.
	BrowseByRootURL(ctx context.Context, rootURL string) ([]IndexedObject, error)
}

// Plan is the computed difference between a freshly built record set and the
// index's current records for one root URL. It is consumed immediately by
// the apply step and never persisted.
type Plan struct {
	RootURL string

	// Adds are records whose IDs are new to the index.
	Adds []ContentRecord

	// Updates are records whose IDs exist but whose content changed.
	Updates []ContentRecord

	// Unchanged are IDs whose remote content already matches.
	Unchanged []string

	// Deletes are remote IDs under this root absent from the new set.
	Deletes []string
}

// Empty reports whether applying the plan would be a no-op.
func (p *Plan) Empty() bool {
	return len(p.Adds) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// ComputePlan diffs fresh records against the remote state for a root URL.
// A record is an add if its ID is new, an update if the ID exists with a
// different content hash, and unchanged otherwise; remote IDs missing from
// the new set are deletes.
func ComputePlan(rootURL string, records []ContentRecord, existing []IndexedObject) *Plan {
	remote := make(map[string]string, len(existing))
	for _, obj := range existing {
		remote[obj.ID] = obj.ContentHash
	}

	plan := &Plan{RootURL: rootURL}
	fresh := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, ok := fresh[r.ID]; ok {
			// Duplicate IDs within a run collapse to the first record.
			continue
		}
		fresh[r.ID] = struct{}{}

		hash, ok := remote[r.ID]
		switch {
		case !ok:
			plan.Adds = append(plan.Adds, r)
		case hash != r.ContentHash:
			plan.Updates = append(plan.Updates, r)
		default:
			plan.Unchanged = append(plan.Unchanged, r.ID)
		}
	}

	for _, obj := range existing {
		if _, ok := fresh[obj.ID]; !ok {
			plan.Deletes = append(plan.Deletes, obj.ID)
		}
	}
	return plan
}
