// Package elastic implements librarian.Index on Elasticsearch.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/skaczmarek/librarian"
)

var _ librarian.Index = (*Index)(nil)

// browsePageSize is the search_after page size for BrowseByRootURL.
const browsePageSize = 1000

// Config holds Elasticsearch connection settings.
type Config struct {
	Addresses []string
	Index     string
	Username  string
	Password  string
	APIKey    string
}

// Index stores content records in one Elasticsearch index, keyed by record
// ID so re-indexing the same content overwrites in place.
type Index struct {
	es     *elasticsearch.Client
	index  string
	logger *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used for operation logging.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) {
		i.logger = logger
	}
}

// NewIndex connects to Elasticsearch and returns an Index bound to the
// configured index name.
func NewIndex(cfg Config, opts ...Option) (*Index, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		APIKey:    cfg.APIKey,
	})
	if err != nil {
		return nil, librarian.WrapError(err, librarian.EINVALID, "create elasticsearch client")
	}

	idx := &Index{es: es, index: cfg.Index}
	for _, opt := range opts {
		opt(idx)
	}
	return idx, nil
}

// indexMapping is the mapping for content records. Keyword fields back exact
// filters (root_url scoping, IDs); text fields back full-text search.
const indexMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"url": { "type": "keyword" },
			"base_url": { "type": "keyword" },
			"root_url": { "type": "keyword" },
			"root_title": { "type": "text" },
			"root_summary": { "type": "text" },
			"kind": { "type": "keyword" },
			"h1": { "type": "text" },
			"h2": { "type": "text" },
			"h3": { "type": "text" },
			"h4": { "type": "text" },
			"h5": { "type": "text" },
			"h6": { "type": "text" },
			"depth": { "type": "integer" },
			"importance": { "type": "integer" },
			"body": { "type": "text", "analyzer": "english" },
			"truncated": { "type": "boolean" },
			"priority": { "type": "integer" },
			"content_hash": { "type": "keyword" }
		}
	}
}`

// EnsureIndex creates the index with the record mapping if it does not
// already exist.
func (i *Index) EnsureIndex(ctx context.Context) error {
	res, err := i.es.Indices.Exists([]string{i.index}, i.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return librarian.WrapError(err, librarian.EUNAVAILABLE, "check index %q", i.index)
	}
	defer res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = i.es.Indices.Create(
		i.index,
		i.es.Indices.Create.WithContext(ctx),
		i.es.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping))),
	)
	if err != nil {
		return librarian.WrapError(err, librarian.EUNAVAILABLE, "create index %q", i.index)
	}
	defer res.Body.Close()

	if res.IsError() {
		return librarian.Errorf(librarian.EINTERNAL, "create index %q: %s", i.index, res.String())
	}
	i.log(ctx, "index created", "index", i.index)
	return nil
}

// AddOrUpdate bulk-indexes records. Existing documents with the same ID are
// overwritten.
func (i *Index) AddOrUpdate(ctx context.Context, records []librarian.ContentRecord) error {
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range records {
		action := map[string]map[string]string{
			"index": {"_index": i.index, "_id": rec.ID},
		}
		if err := enc.Encode(action); err != nil {
			return librarian.WrapError(err, librarian.EINTERNAL, "encode bulk action")
		}
		if err := enc.Encode(rec); err != nil {
			return librarian.WrapError(err, librarian.EINTERNAL, "encode record %s", rec.ID)
		}
	}

	if err := i.bulk(ctx, &buf); err != nil {
		return err
	}
	i.log(ctx, "records indexed", "index", i.index, "count", len(records))
	return nil
}

// DeleteByIDs bulk-deletes records by ID. Missing IDs are not an error.
func (i *Index) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, id := range ids {
		action := map[string]map[string]string{
			"delete": {"_index": i.index, "_id": id},
		}
		if err := enc.Encode(action); err != nil {
			return librarian.WrapError(err, librarian.EINTERNAL, "encode bulk action")
		}
	}

	if err := i.bulk(ctx, &buf); err != nil {
		return err
	}
	i.log(ctx, "records deleted", "index", i.index, "count", len(ids))
	return nil
}

// bulkResponse covers the parts of the _bulk response needed for error
// detection. Deletes of absent documents report "not_found", which is fine.
type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

func (i *Index) bulk(ctx context.Context, body io.Reader) error {
	res, err := i.es.Bulk(body, i.es.Bulk.WithContext(ctx), i.es.Bulk.WithIndex(i.index))
	if err != nil {
		return librarian.WrapError(err, librarian.EUNAVAILABLE, "bulk request to %q", i.index)
	}
	defer res.Body.Close()

	if res.IsError() {
		return librarian.Errorf(librarian.EINTERNAL, "bulk request to %q: %s", i.index, res.String())
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return librarian.WrapError(err, librarian.EINTERNAL, "decode bulk response")
	}
	if !br.Errors {
		return nil
	}
	for _, item := range br.Items {
		for _, op := range item {
			if op.Error != nil {
				return librarian.Errorf(librarian.EINTERNAL, "bulk item %s: %s: %s", op.ID, op.Error.Type, op.Error.Reason)
			}
		}
	}
	return librarian.Errorf(librarian.EINTERNAL, "bulk request to %q reported errors", i.index)
}

// browseResponse covers the parts of the search response BrowseByRootURL
// reads.
type browseResponse struct {
	Hits struct {
		Hits []struct {
			Source struct {
				ID          string `json:"id"`
				ContentHash string `json:"content_hash"`
			} `json:"_source"`
			Sort []json.RawMessage `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

// BrowseByRootURL returns the ID and content hash of every record indexed
// under a root URL, paging with search_after until exhausted.
func (i *Index) BrowseByRootURL(ctx context.Context, rootURL string) ([]librarian.IndexedObject, error) {
	var objs []librarian.IndexedObject
	var after []json.RawMessage

	for {
		query := map[string]any{
			"query": map[string]any{
				"term": map[string]any{"root_url": rootURL},
			},
			"size":    browsePageSize,
			"sort":    []map[string]string{{"id": "asc"}},
			"_source": []string{"id", "content_hash"},
		}
		if after != nil {
			query["search_after"] = after
		}

		data, err := json.Marshal(query)
		if err != nil {
			return nil, librarian.WrapError(err, librarian.EINTERNAL, "encode browse query")
		}

		res, err := i.es.Search(
			i.es.Search.WithContext(ctx),
			i.es.Search.WithIndex(i.index),
			i.es.Search.WithBody(bytes.NewReader(data)),
		)
		if err != nil {
			return nil, librarian.WrapError(err, librarian.EUNAVAILABLE, "browse %q", rootURL)
		}

		var sr browseResponse
		err = func() error {
			defer res.Body.Close()
			if res.StatusCode == 404 {
				// Index not created yet: nothing indexed under any root.
				return errNoIndex
			}
			if res.IsError() {
				return librarian.Errorf(librarian.EINTERNAL, "browse %q: %s", rootURL, res.String())
			}
			if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
				return librarian.WrapError(err, librarian.EINTERNAL, "decode browse response")
			}
			return nil
		}()
		if errors.Is(err, errNoIndex) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		for _, hit := range sr.Hits.Hits {
			objs = append(objs, librarian.IndexedObject{
				ID:          hit.Source.ID,
				ContentHash: hit.Source.ContentHash,
			})
		}
		if len(sr.Hits.Hits) < browsePageSize {
			return objs, nil
		}
		after = sr.Hits.Hits[len(sr.Hits.Hits)-1].Sort
	}
}

var errNoIndex = errors.New("index does not exist")

// Refresh forces an index refresh so subsequent searches see all writes.
func (i *Index) Refresh(ctx context.Context) error {
	req := esapi.IndicesRefreshRequest{Index: []string{i.index}}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return librarian.WrapError(err, librarian.EUNAVAILABLE, "refresh index %q", i.index)
	}
	defer res.Body.Close()
	if res.IsError() {
		return librarian.Errorf(librarian.EINTERNAL, "refresh index %q: %s", i.index, res.String())
	}
	return nil
}

func (i *Index) log(ctx context.Context, msg string, args ...any) {
	if i.logger != nil {
		i.logger.InfoContext(ctx, msg, args...)
	}
}
