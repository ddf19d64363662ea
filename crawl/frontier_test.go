package crawl_test

import (
	"fmt"
	"testing"

	"github.com/skaczmarek/librarian/crawl"
	"github.com/stretchr/testify/assert"
)

func TestFrontier(t *testing.T) {
	t.Parallel()

	t.Run("preserves discovery order", func(t *testing.T) {
		t.Parallel()

		f := crawl.NewFrontier(100, 0.01)
		f.Push("https://example.org/a.html")
		f.Push("https://example.org/b.html")
		f.Push("https://example.org/c.html")

		for _, want := range []string{
			"https://example.org/a.html",
			"https://example.org/b.html",
			"https://example.org/c.html",
		} {
			got, ok := f.Pop()
			assert.True(t, ok)
			assert.Equal(t, want, got)
		}
		_, ok := f.Pop()
		assert.False(t, ok)
	})

	t.Run("suppresses duplicates", func(t *testing.T) {
		t.Parallel()

		f := crawl.NewFrontier(100, 0.01)
		assert.True(t, f.Push("https://example.org/a.html"))
		assert.False(t, f.Push("https://example.org/a.html"))
		assert.Equal(t, 1, f.Len())
	})

	t.Run("treats fragment variants as one URL", func(t *testing.T) {
		t.Parallel()

		f := crawl.NewFrontier(100, 0.01)
		assert.True(t, f.Push("https://example.org/a.html#intro"))
		assert.False(t, f.Push("https://example.org/a.html#details"))
		assert.False(t, f.Push("https://example.org/a.html"))

		got, ok := f.Pop()
		assert.True(t, ok)
		assert.Equal(t, "https://example.org/a.html", got)
	})

	t.Run("drain empties the queue but remembers what it saw", func(t *testing.T) {
		t.Parallel()

		f := crawl.NewFrontier(100, 0.01)
		f.Push("https://example.org/a.html")
		f.Push("https://example.org/b.html")

		urls := f.Drain()
		assert.Len(t, urls, 2)
		assert.Zero(t, f.Len())

		assert.True(t, f.Seen("https://example.org/a.html"))
		assert.False(t, f.Push("https://example.org/a.html"))
	})

	t.Run("never drops a unique URL even at Bloom saturation", func(t *testing.T) {
		t.Parallel()

		// Deliberately undersized filter: false positives are likely, the
		// exact set must still admit every unique URL.
		f := crawl.NewFrontier(2, 0.01)
		for i := 0; i < 200; i++ {
			assert.True(t, f.Push(fmt.Sprintf("https://example.org/p%d.html", i)))
		}
		assert.Equal(t, 200, f.Len())
	})
}
