package mock

import (
	"context"
	"sync"

	"github.com/skaczmarek/librarian"
)

var _ librarian.Index = (*Index)(nil)

// Index is a mock implementation of librarian.Index.
type Index struct {
	AddOrUpdateFn     func(ctx context.Context, records []librarian.ContentRecord) error
	DeleteByIDsFn     func(ctx context.Context, ids []string) error
	BrowseByRootURLFn func(ctx context.Context, rootURL string) ([]librarian.IndexedObject, error)
}

func (i *Index) AddOrUpdate(ctx context.Context, records []librarian.ContentRecord) error {
	return i.AddOrUpdateFn(ctx, records)
}

func (i *Index) DeleteByIDs(ctx context.Context, ids []string) error {
	return i.DeleteByIDsFn(ctx, ids)
}

func (i *Index) BrowseByRootURL(ctx context.Context, rootURL string) ([]librarian.IndexedObject, error) {
	return i.BrowseByRootURLFn(ctx, rootURL)
}

var _ librarian.Index = (*MemoryIndex)(nil)

// MemoryIndex is an in-memory librarian.Index that records operation order.
// It backs reconciliation tests that assert on final remote state and on
// add-before-delete ordering.
type MemoryIndex struct {
	mu sync.Mutex

	records map[string]librarian.ContentRecord

	// Ops records applied operations in order: "add" or "delete".
	Ops []string
}

// NewMemoryIndex creates an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{records: make(map[string]librarian.ContentRecord)}
}

// Seed inserts records directly, bypassing the operation log.
func (m *MemoryIndex) Seed(records ...librarian.ContentRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[r.ID] = r
	}
}

// Records returns a copy of the stored records keyed by ID.
func (m *MemoryIndex) Records() map[string]librarian.ContentRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]librarian.ContentRecord, len(m.records))
	for id, r := range m.records {
		out[id] = r
	}
	return out
}

func (m *MemoryIndex) AddOrUpdate(ctx context.Context, records []librarian.ContentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[r.ID] = r
		m.Ops = append(m.Ops, "add")
	}
	return nil
}

func (m *MemoryIndex) DeleteByIDs(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.records, id)
		m.Ops = append(m.Ops, "delete")
	}
	return nil
}

func (m *MemoryIndex) BrowseByRootURL(ctx context.Context, rootURL string) ([]librarian.IndexedObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var objs []librarian.IndexedObject
	for _, r := range m.records {
		if r.RootURL == rootURL {
			objs = append(objs, librarian.IndexedObject{ID: r.ID, ContentHash: r.ContentHash})
		}
	}
	return objs, nil
}
