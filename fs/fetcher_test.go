package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/skaczmarek/librarian"
	lfs "github.com/skaczmarek/librarian/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func TestDiscoverPages(t *testing.T) {
	t.Parallel()

	t.Run("maps html files to published URLs", func(t *testing.T) {
		t.Parallel()

		dir := writeSite(t, map[string]string{
			"index.html":        "<html>root</html>",
			"flux.html":         "<html>flux</html>",
			"sub/spectra.html":  "<html>spectra</html>",
			"assets/styles.css": "body{}",
			"notes/readme.txt":  "notes",
		})

		urls, err := lfs.DiscoverPages(dir, "https://tutorials.example.org/", nil)

		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://tutorials.example.org/flux.html",
			"https://tutorials.example.org/sub/spectra.html",
		}, urls)
	})

	t.Run("root index is always excluded", func(t *testing.T) {
		t.Parallel()

		dir := writeSite(t, map[string]string{
			"index.html":     "<html>root</html>",
			"sub/index.html": "<html>sub index</html>",
		})

		urls, err := lfs.DiscoverPages(dir, "https://t.example.org", nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://t.example.org/sub/index.html"}, urls)
	})

	t.Run("honors ignore globs", func(t *testing.T) {
		t.Parallel()

		dir := writeSite(t, map[string]string{
			"keep.html":       "x",
			"draft.html":      "x",
			"drafts/wip.html": "x",
		})

		urls, err := lfs.DiscoverPages(dir, "https://t.example.org", []string{"draft.html", "drafts/*.html"})

		require.NoError(t, err)
		assert.Equal(t, []string{"https://t.example.org/keep.html"}, urls)
	})

	t.Run("missing directory is not found", func(t *testing.T) {
		t.Parallel()

		_, err := lfs.DiscoverPages(filepath.Join(t.TempDir(), "nope"), "https://t.example.org", nil)

		require.Error(t, err)
		assert.Equal(t, librarian.ENOTFOUND, librarian.ErrorCode(err))
	})
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("reads the file backing a page URL", func(t *testing.T) {
		t.Parallel()

		dir := writeSite(t, map[string]string{"sub/page.html": "<html>hello</html>"})
		fetcher := lfs.NewFetcher(dir, "https://t.example.org")

		page, err := fetcher.Fetch(context.Background(), "https://t.example.org/sub/page.html")

		require.NoError(t, err)
		assert.Equal(t, "<html>hello</html>", page.HTML)
		assert.Equal(t, "https://t.example.org/sub/page.html", page.URL)
	})

	t.Run("missing file is not found", func(t *testing.T) {
		t.Parallel()

		fetcher := lfs.NewFetcher(t.TempDir(), "https://t.example.org")

		_, err := fetcher.Fetch(context.Background(), "https://t.example.org/absent.html")

		require.Error(t, err)
		assert.Equal(t, librarian.ENOTFOUND, librarian.ErrorCode(err))
	})

	t.Run("rejects URLs outside the site base", func(t *testing.T) {
		t.Parallel()

		fetcher := lfs.NewFetcher(t.TempDir(), "https://t.example.org")

		_, err := fetcher.Fetch(context.Background(), "https://other.example.org/page.html")

		require.Error(t, err)
		assert.Equal(t, librarian.EINVALID, librarian.ErrorCode(err))
	})

	t.Run("rejects traversal paths", func(t *testing.T) {
		t.Parallel()

		fetcher := lfs.NewFetcher(t.TempDir(), "https://t.example.org")

		_, err := fetcher.Fetch(context.Background(), "https://t.example.org/../secret.html")

		require.Error(t, err)
		assert.Equal(t, librarian.EINVALID, librarian.ErrorCode(err))
	})
}
