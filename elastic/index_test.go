package elastic_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/skaczmarek/librarian"
	"github.com/skaczmarek/librarian/elastic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeES serves canned Elasticsearch responses. The v8 client rejects
// servers that do not identify themselves via the product header.
func fakeES(t *testing.T, handler http.HandlerFunc) *elastic.Index {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	idx, err := elastic.NewIndex(elastic.Config{
		Addresses: []string{srv.URL},
		Index:     "librarian-test",
	})
	require.NoError(t, err)
	return idx
}

func TestIndex_AddOrUpdate(t *testing.T) {
	t.Parallel()

	t.Run("sends one index action per record", func(t *testing.T) {
		t.Parallel()

		var body string
		idx := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/librarian-test/_bulk", r.URL.Path)
			b, _ := io.ReadAll(r.Body)
			body = string(b)
			fmt.Fprint(w, `{"errors":false,"items":[]}`)
		})

		records := []librarian.ContentRecord{
			{ID: "r1", RootURL: "https://example.org/g/", H1: "One", ContentHash: "h1"},
			{ID: "r2", RootURL: "https://example.org/g/", H1: "Two", ContentHash: "h2"},
		}
		require.NoError(t, idx.AddOrUpdate(context.Background(), records))

		lines := strings.Split(strings.TrimSpace(body), "\n")
		require.Len(t, lines, 4)

		var action struct {
			Index struct {
				ID string `json:"_id"`
			} `json:"index"`
		}
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &action))
		assert.Equal(t, "r1", action.Index.ID)

		var doc map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[1]), &doc))
		assert.Equal(t, "h1", doc["content_hash"])
		assert.Equal(t, "https://example.org/g/", doc["root_url"])
	})

	t.Run("empty batch does not hit the server", func(t *testing.T) {
		t.Parallel()

		idx := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		})
		assert.NoError(t, idx.AddOrUpdate(context.Background(), nil))
	})

	t.Run("item-level failure surfaces the reason", func(t *testing.T) {
		t.Parallel()

		idx := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"errors":true,"items":[
				{"index":{"_id":"r1","status":201}},
				{"index":{"_id":"r2","status":400,"error":{"type":"mapper_parsing_exception","reason":"bad field"}}}
			]}`)
		})

		err := idx.AddOrUpdate(context.Background(), []librarian.ContentRecord{{ID: "r1"}, {ID: "r2"}})

		require.Error(t, err)
		assert.Equal(t, librarian.EINTERNAL, librarian.ErrorCode(err))
		assert.Contains(t, librarian.ErrorMessage(err), "bad field")
	})

	t.Run("unreachable server is classified unavailable", func(t *testing.T) {
		t.Parallel()

		idx, err := elastic.NewIndex(elastic.Config{
			Addresses: []string{"http://127.0.0.1:1"},
			Index:     "librarian-test",
		})
		require.NoError(t, err)

		err = idx.AddOrUpdate(context.Background(), []librarian.ContentRecord{{ID: "r1"}})

		require.Error(t, err)
		assert.Equal(t, librarian.EUNAVAILABLE, librarian.ErrorCode(err))
	})
}

func TestIndex_DeleteByIDs(t *testing.T) {
	t.Parallel()

	t.Run("sends one delete action per ID", func(t *testing.T) {
		t.Parallel()

		var body string
		idx := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			body = string(b)
			fmt.Fprint(w, `{"errors":false,"items":[]}`)
		})

		require.NoError(t, idx.DeleteByIDs(context.Background(), []string{"r1", "r2", "r3"}))

		lines := strings.Split(strings.TrimSpace(body), "\n")
		require.Len(t, lines, 3)
		assert.Contains(t, lines[0], `"delete"`)
		assert.Contains(t, lines[2], `"_id":"r3"`)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		t.Parallel()

		idx := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		})
		assert.NoError(t, idx.DeleteByIDs(context.Background(), nil))
	})
}

func TestIndex_BrowseByRootURL(t *testing.T) {
	t.Parallel()

	t.Run("filters by root_url and projects id and hash", func(t *testing.T) {
		t.Parallel()

		var query map[string]any
		idx := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/librarian-test/_search", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&query))
			fmt.Fprint(w, `{"hits":{"hits":[
				{"_source":{"id":"r1","content_hash":"h1"},"sort":["r1"]},
				{"_source":{"id":"r2","content_hash":"h2"},"sort":["r2"]}
			]}}`)
		})

		objs, err := idx.BrowseByRootURL(context.Background(), "https://example.org/g/")

		require.NoError(t, err)
		require.Len(t, objs, 2)
		assert.Equal(t, librarian.IndexedObject{ID: "r1", ContentHash: "h1"}, objs[0])
		assert.Equal(t, librarian.IndexedObject{ID: "r2", ContentHash: "h2"}, objs[1])

		term := query["query"].(map[string]any)["term"].(map[string]any)
		assert.Equal(t, "https://example.org/g/", term["root_url"])
		assert.ElementsMatch(t, []any{"id", "content_hash"}, query["_source"])
	})

	t.Run("missing index means nothing indexed", func(t *testing.T) {
		t.Parallel()

		idx := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"type":"index_not_found_exception"}}`)
		})

		objs, err := idx.BrowseByRootURL(context.Background(), "https://example.org/g/")

		require.NoError(t, err)
		assert.Empty(t, objs)
	})

	t.Run("server error is surfaced", func(t *testing.T) {
		t.Parallel()

		idx := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":{"type":"search_phase_execution_exception"}}`)
		})

		_, err := idx.BrowseByRootURL(context.Background(), "https://example.org/g/")

		require.Error(t, err)
		assert.Equal(t, librarian.EINTERNAL, librarian.ErrorCode(err))
	})
}

func TestIndex_EnsureIndex(t *testing.T) {
	t.Parallel()

	t.Run("creates the index when absent", func(t *testing.T) {
		t.Parallel()

		created := false
		idx := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodHead:
				w.WriteHeader(http.StatusNotFound)
			case http.MethodPut:
				created = true
				body, _ := io.ReadAll(r.Body)
				assert.Contains(t, string(body), `"root_url": { "type": "keyword" }`)
				fmt.Fprint(w, `{"acknowledged":true}`)
			}
		})

		require.NoError(t, idx.EnsureIndex(context.Background()))
		assert.True(t, created)
	})

	t.Run("mapping declares every serialized record field", func(t *testing.T) {
		t.Parallel()

		var mappingBody []byte
		idx := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodHead:
				w.WriteHeader(http.StatusNotFound)
			case http.MethodPut:
				mappingBody, _ = io.ReadAll(r.Body)
				fmt.Fprint(w, `{"acknowledged":true}`)
			}
		})
		require.NoError(t, idx.EnsureIndex(context.Background()))

		var mapping struct {
			Mappings struct {
				Properties map[string]json.RawMessage `json:"properties"`
			} `json:"mappings"`
		}
		require.NoError(t, json.Unmarshal(mappingBody, &mapping))

		rec := librarian.ContentRecord{
			ID:          "r1",
			URL:         "https://example.org/t.html#setup",
			BaseURL:     "https://example.org/t.html",
			RootURL:     "https://example.org/t.html",
			RootTitle:   "T",
			RootSummary: "S",
			Kind:        librarian.KindTutorial,
			H1:          "A",
			H2:          "B",
			H3:          "C",
			H4:          "D",
			H5:          "E",
			H6:          "F",
			Depth:       2,
			Importance:  2,
			Body:        "body text",
			Truncated:   true,
			Priority:    1,
			ContentHash: "h",
		}
		data, err := json.Marshal(rec)
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(data, &doc))

		// Fields the mapping does not declare would be dynamic-mapped with
		// default analyzers, silently losing keyword filtering.
		for field := range doc {
			assert.Contains(t, mapping.Mappings.Properties, field)
		}
	})

	t.Run("existing index is left alone", func(t *testing.T) {
		t.Parallel()

		idx := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodHead {
				t.Errorf("unexpected %s request", r.Method)
			}
			w.WriteHeader(http.StatusOK)
		})

		require.NoError(t, idx.EnsureIndex(context.Background()))
	})
}
