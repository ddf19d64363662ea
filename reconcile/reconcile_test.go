package reconcile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/skaczmarek/librarian"
	"github.com/skaczmarek/librarian/mock"
	"github.com/skaczmarek/librarian/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root = "https://example.org/guide/"

func record(id, hash string) librarian.ContentRecord {
	return librarian.ContentRecord{
		ID:          id,
		RootURL:     root,
		Kind:        librarian.KindGuidePage,
		H1:          "Heading " + id,
		ContentHash: hash,
	}
}

func TestReconciler_Run(t *testing.T) {
	t.Parallel()

	t.Run("adds before deleting and converges to the new set", func(t *testing.T) {
		t.Parallel()

		idx := mock.NewMemoryIndex()
		idx.Seed(record("A", "ha"), record("B", "hb"))
		r := &reconcile.Reconciler{Index: idx}

		plan, res, err := r.Run(context.Background(), root,
			[]librarian.ContentRecord{record("A", "ha"), record("C", "hc")})

		require.NoError(t, err)
		assert.Len(t, plan.Adds, 1)
		assert.Len(t, plan.Deletes, 1)
		assert.Equal(t, 1, res.Added)
		assert.Equal(t, 1, res.Deleted)

		// C must be added before B is deleted.
		require.Equal(t, []string{"add", "delete"}, idx.Ops)

		final := idx.Records()
		assert.Len(t, final, 2)
		assert.Contains(t, final, "A")
		assert.Contains(t, final, "C")
	})

	t.Run("second run on unchanged content is a no-op", func(t *testing.T) {
		t.Parallel()

		idx := mock.NewMemoryIndex()
		records := []librarian.ContentRecord{record("A", "ha"), record("B", "hb")}
		r := &reconcile.Reconciler{Index: idx}

		_, _, err := r.Run(context.Background(), root, records)
		require.NoError(t, err)

		idx.Ops = nil
		plan, res, err := r.Run(context.Background(), root, records)

		require.NoError(t, err)
		assert.Empty(t, plan.Adds)
		assert.Empty(t, plan.Updates)
		assert.Empty(t, plan.Deletes)
		assert.Len(t, plan.Unchanged, 2)
		assert.True(t, plan.Empty())
		assert.Empty(t, idx.Ops)
		assert.Equal(t, &reconcile.Result{}, res)
	})

	t.Run("changed content hash triggers an update", func(t *testing.T) {
		t.Parallel()

		idx := mock.NewMemoryIndex()
		idx.Seed(record("A", "old"))
		r := &reconcile.Reconciler{Index: idx}

		plan, res, err := r.Run(context.Background(), root,
			[]librarian.ContentRecord{record("A", "new")})

		require.NoError(t, err)
		assert.Len(t, plan.Updates, 1)
		assert.Equal(t, 1, res.Updated)
		assert.Equal(t, "new", idx.Records()["A"].ContentHash)
	})

	t.Run("failed upsert aborts before any deletion", func(t *testing.T) {
		t.Parallel()

		deleted := false
		idx := &mock.Index{
			BrowseByRootURLFn: func(ctx context.Context, rootURL string) ([]librarian.IndexedObject, error) {
				return []librarian.IndexedObject{{ID: "B", ContentHash: "hb"}}, nil
			},
			AddOrUpdateFn: func(ctx context.Context, records []librarian.ContentRecord) error {
				return errors.New("batch rejected")
			},
			DeleteByIDsFn: func(ctx context.Context, ids []string) error {
				deleted = true
				return nil
			},
		}
		r := &reconcile.Reconciler{Index: idx}

		_, res, err := r.Run(context.Background(), root,
			[]librarian.ContentRecord{record("C", "hc")})

		require.Error(t, err)
		assert.Equal(t, librarian.EINTERNAL, librarian.ErrorCode(err))
		assert.False(t, deleted, "deletes must not run after a failed upsert")
		assert.Equal(t, &reconcile.Result{}, res)
	})

	t.Run("browse failure surfaces without any writes", func(t *testing.T) {
		t.Parallel()

		idx := &mock.Index{
			BrowseByRootURLFn: func(ctx context.Context, rootURL string) ([]librarian.IndexedObject, error) {
				return nil, librarian.Errorf(librarian.EUNAVAILABLE, "index down")
			},
		}
		r := &reconcile.Reconciler{Index: idx}

		_, _, err := r.Run(context.Background(), root, []librarian.ContentRecord{record("A", "ha")})

		require.Error(t, err)
		assert.Equal(t, librarian.EUNAVAILABLE, librarian.ErrorCode(err))
	})
}

func TestReconciler_DeleteRoot(t *testing.T) {
	t.Parallel()

	t.Run("deletes every record under the root", func(t *testing.T) {
		t.Parallel()

		idx := mock.NewMemoryIndex()
		idx.Seed(record("A", "ha"), record("B", "hb"))
		other := record("X", "hx")
		other.RootURL = "https://example.org/other/"
		idx.Seed(other)
		r := &reconcile.Reconciler{Index: idx}

		n, err := r.DeleteRoot(context.Background(), root)

		require.NoError(t, err)
		assert.Equal(t, 2, n)

		remaining, err := idx.BrowseByRootURL(context.Background(), root)
		require.NoError(t, err)
		assert.Empty(t, remaining)

		untouched, err := idx.BrowseByRootURL(context.Background(), "https://example.org/other/")
		require.NoError(t, err)
		assert.Len(t, untouched, 1)
	})

	t.Run("empty root is a no-op", func(t *testing.T) {
		t.Parallel()

		idx := mock.NewMemoryIndex()
		r := &reconcile.Reconciler{Index: idx}

		n, err := r.DeleteRoot(context.Background(), root)

		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Empty(t, idx.Ops)
	})
}
