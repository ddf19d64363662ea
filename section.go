package librarian

import (
	"strings"
	"unicode"
)

// ContentSection is one heading-delimited unit of a page.
//
// Sections form a hierarchy implied by heading depth but are stored as a
// flat ordered sequence; the Headings path is enough to reconstruct
// parent/child relations on demand.
type ContentSection struct {
	// Headings is the heading path, outermost first. The heading of the
	// present section is the last element. Empty for the implicit lead
	// section that precedes the first heading.
	Headings []string

	// Anchor is the fragment identifier addressing this section within
	// its page. Unique per page; empty for the lead section.
	Anchor string

	// Body is the section's plain-text content, markup stripped.
	Body string

	// Ordinal is the section's position within the page, starting at 0.
	Ordinal int
}

// Depth returns the heading level that opened this section. The implicit
// lead section has depth 0.
func (s ContentSection) Depth() int {
	return len(s.Headings)
}

// Heading returns the section's own heading, or "" for the lead section.
func (s ContentSection) Heading() string {
	if len(s.Headings) == 0 {
		return ""
	}
	return s.Headings[len(s.Headings)-1]
}

// Empty reports whether the section carries no searchable text at all.
// Such sections never become records.
func (s ContentSection) Empty() bool {
	return s.Heading() == "" && strings.TrimSpace(s.Body) == ""
}

// SectionExtractor parses a page into an ordered sequence of sections.
// Malformed HTML is reported as an EINVALID error, never coerced into an
// empty result; an empty page yields zero sections and a nil error.
type SectionExtractor interface {
	Extract(page *SourcePage) ([]ContentSection, error)
}

// Slugify derives a URL-safe anchor from a heading title.
// Converts to lowercase, replaces runs of spaces and hyphens with a single
// hyphen, and drops other special characters.
func Slugify(title string) string {
	var sb strings.Builder
	prevHyphen := false

	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			prevHyphen = false
		} else if unicode.IsSpace(r) || r == '-' || r == '_' {
			if !prevHyphen && sb.Len() > 0 {
				sb.WriteRune('-')
				prevHyphen = true
			}
		}
	}

	return strings.TrimSuffix(sb.String(), "-")
}
