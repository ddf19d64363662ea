package librarian_test

import (
	"testing"

	"github.com/skaczmarek/librarian"
	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	t.Run("lowercases and hyphenates", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "getting-started-with-go", librarian.Slugify("Getting Started With Go"))
	})

	t.Run("strips special characters", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "api-reference-v20", librarian.Slugify("API Reference (v2.0)"))
	})

	t.Run("collapses separator runs", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "a-b-c", librarian.Slugify("a -  b__c"))
	})

	t.Run("trims trailing separator", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "trailing", librarian.Slugify("Trailing!"))
	})

	t.Run("empty title yields empty slug", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "", librarian.Slugify(""))
	})
}

func TestContentSection(t *testing.T) {
	t.Parallel()

	t.Run("depth equals heading path length", func(t *testing.T) {
		t.Parallel()

		s := librarian.ContentSection{Headings: []string{"Intro", "Setup"}}
		assert.Equal(t, 2, s.Depth())
		assert.Equal(t, "Setup", s.Heading())
	})

	t.Run("lead section has depth zero and no heading", func(t *testing.T) {
		t.Parallel()

		s := librarian.ContentSection{Body: "lead paragraph"}
		assert.Equal(t, 0, s.Depth())
		assert.Equal(t, "", s.Heading())
		assert.False(t, s.Empty())
	})

	t.Run("empty means neither heading nor body", func(t *testing.T) {
		t.Parallel()

		assert.True(t, librarian.ContentSection{Body: "  \n"}.Empty())
		assert.False(t, librarian.ContentSection{Headings: []string{"H"}}.Empty())
	})
}
