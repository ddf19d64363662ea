// Package fs provides filesystem-based page access: a librarian.Fetcher
// that maps published URLs back to files in a local site build directory,
// and page enumeration for tutorial-site indexing.
package fs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/skaczmarek/librarian"
)

// Ensure Fetcher implements librarian.Fetcher at compile time.
var _ librarian.Fetcher = (*Fetcher)(nil)

// Fetcher serves pages of a locally built tutorial site. URLs under the
// site's base URL resolve to HTML files under the build directory.
type Fetcher struct {
	dir     string
	baseURL string
}

// NewFetcher creates a Fetcher for a site built into dir and published at
// baseURL.
func NewFetcher(dir, baseURL string) *Fetcher {
	return &Fetcher{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Fetch reads the file backing the given published URL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*librarian.SourcePage, error) {
	if err := ctx.Err(); err != nil {
		return nil, librarian.WrapError(err, librarian.ECANCELED, "fetch %s", rawURL)
	}

	rel, ok := strings.CutPrefix(rawURL, f.baseURL+"/")
	if !ok {
		return nil, librarian.Errorf(librarian.EINVALID, "URL %q is outside site base %q", rawURL, f.baseURL)
	}
	if !fs.ValidPath(rel) {
		return nil, librarian.Errorf(librarian.EINVALID, "unsafe page path %q", rel)
	}

	return ReadPage(filepath.Join(f.dir, filepath.FromSlash(rel)), rawURL)
}

// ReadPage reads a local HTML file published at the given URL.
func ReadPage(path, url string) (*librarian.SourcePage, error) {
	html, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, librarian.WrapError(err, librarian.ENOTFOUND, "page file %s", path)
		}
		return nil, librarian.WrapError(err, librarian.EINVALID, "read page file %s", path)
	}

	return &librarian.SourcePage{
		URL:        url,
		RequestURL: url,
		HTML:       string(html),
	}, nil
}

// DiscoverPages enumerates the published URLs of a tutorial site built into
// dir. Every *.html file maps to baseURL/<relative path>, except files
// matching an ignore glob and the root index.html, which is always excluded.
// Results are sorted for deterministic crawls.
func DiscoverPages(dir, baseURL string, ignore []string) ([]string, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")

	var urls []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if rel == "index.html" {
			return nil
		}
		if matchesIgnore(rel, ignore) {
			return nil
		}

		urls = append(urls, baseURL+"/"+rel)
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, librarian.WrapError(err, librarian.ENOTFOUND, "site directory %s", dir)
		}
		return nil, librarian.WrapError(err, librarian.EINVALID, "walk site directory %s", dir)
	}

	sort.Strings(urls)
	return urls, nil
}

// matchesIgnore reports whether a relative page path matches any ignore
// entry. Entries are matched both literally and as path globs.
func matchesIgnore(rel string, ignore []string) bool {
	for _, pattern := range ignore {
		if rel == pattern {
			return true
		}
		if ok, err := path.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
