package librarian

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DefaultBodyLimit is the maximum record body size in bytes. Remote search
// indexes cap individual record sizes; bodies beyond the limit are truncated
// at a word boundary.
const DefaultBodyLimit = 9500

// ContentRecord is the unit persisted to the remote index. It is immutable
// once built and is the only entity that crosses the system boundary.
type ContentRecord struct {
	// ID is the deterministic record identifier, derived from the page
	// URL and anchor. Re-indexing unchanged content yields the same ID.
	ID string `json:"id"`

	// URL is the most specific URL for the record, including the anchor
	// fragment.
	URL string `json:"url"`

	// BaseURL is the page URL without fragment.
	BaseURL string `json:"base_url"`

	// RootURL is the canonical root of the tutorial or guide this record
	// belongs to. It scopes reconciliation and deletion.
	RootURL string `json:"root_url"`

	RootTitle   string `json:"root_title,omitempty"`
	RootSummary string `json:"root_summary,omitempty"`

	Kind ContentKind `json:"kind"`

	H1 string `json:"h1,omitempty"`
	H2 string `json:"h2,omitempty"`
	H3 string `json:"h3,omitempty"`
	H4 string `json:"h4,omitempty"`
	H5 string `json:"h5,omitempty"`
	H6 string `json:"h6,omitempty"`

	// Depth is the heading level that opened the source section.
	Depth int `json:"depth"`

	// Importance orders records within a result group; lower sorts first.
	Importance int `json:"importance"`

	// Body is the plain-text content, possibly truncated.
	Body string `json:"body"`

	// Truncated marks bodies cut to the size limit.
	Truncated bool `json:"truncated,omitempty"`

	// Priority elevates content in default result ordering. Author
	// supplied; higher sorts first.
	Priority int `json:"priority"`

	// ContentHash fingerprints the searchable content (headings, body,
	// priority). Reconciliation compares hashes to detect updates.
	ContentHash string `json:"content_hash"`
}

// Validate returns an error if the record contains invalid fields.
func (r *ContentRecord) Validate() error {
	if r.ID == "" {
		return Errorf(EINVALID, "record ID required")
	}
	if r.RootURL == "" {
		return Errorf(EINVALID, "record root URL required")
	}
	if !r.Kind.Valid() {
		return Errorf(EINVALID, "unknown content kind %q", r.Kind)
	}
	if r.H1 == "" && r.H2 == "" && r.H3 == "" && r.H4 == "" && r.H5 == "" && r.H6 == "" && strings.TrimSpace(r.Body) == "" {
		return Errorf(EINVALID, "record must have heading or body text")
	}
	return nil
}

// PageMeta carries the page-level metadata needed to turn sections into
// records.
type PageMeta struct {
	// URL is the page URL, without fragment.
	URL string

	// RootURL is the tutorial's or guide's canonical root. For single
	// tutorials this equals URL.
	RootURL string

	RootTitle   string
	RootSummary string

	Kind     ContentKind
	Priority int

	// Homepage marks the guide homepage, whose top section is featured
	// in default listings.
	Homepage bool

	// BodyLimit overrides DefaultBodyLimit when positive.
	BodyLimit int
}

// RecordID computes the deterministic identifier for a section addressed by
// a page URL and anchor. The ID is invariant across runs and independent of
// the section's ordinal position.
func RecordID(pageURL, anchor string) string {
	u := xxhash.Sum64String(strings.ToLower(pageURL))
	a := xxhash.Sum64String(anchor)
	return fmt.Sprintf("%016x-%016x", u, a)
}

// ContentHash fingerprints the parts of a record whose change must reach
// the index: the heading path, the body text, and the priority.
func ContentHash(headings []string, body string, priority int) string {
	var d xxhash.Digest
	for _, h := range headings {
		_, _ = d.WriteString(h)
		_, _ = d.WriteString("\x1f")
	}
	_, _ = d.WriteString("\x1e")
	_, _ = d.WriteString(body)
	_, _ = d.WriteString("\x1e")
	_, _ = d.WriteString(strconv.Itoa(priority))
	return fmt.Sprintf("%016x", d.Sum64())
}

// BuildRecords converts extracted sections into index records. Sections with
// neither heading nor body text are dropped; everything else becomes exactly
// one record.
func BuildRecords(sections []ContentSection, meta PageMeta) []ContentRecord {
	limit := meta.BodyLimit
	if limit <= 0 {
		limit = DefaultBodyLimit
	}

	records := make([]ContentRecord, 0, len(sections))
	for _, s := range sections {
		if s.Empty() {
			continue
		}

		body, truncated := TruncateAtWord(strings.TrimSpace(s.Body), limit)
		if body == "" && s.Heading() == "" {
			// A single unbreakable token longer than the limit truncates
			// to nothing; without a heading the record would carry no
			// searchable text.
			continue
		}

		r := ContentRecord{
			ID:          RecordID(meta.URL, s.Anchor),
			URL:         sectionURL(meta.URL, s.Anchor),
			BaseURL:     meta.URL,
			RootURL:     meta.RootURL,
			RootTitle:   meta.RootTitle,
			RootSummary: meta.RootSummary,
			Kind:        meta.Kind,
			Depth:       s.Depth(),
			Importance:  importance(s, meta),
			Body:        body,
			Truncated:   truncated,
			Priority:    meta.Priority,
			ContentHash: ContentHash(s.Headings, body, meta.Priority),
		}
		setHeadingColumns(&r, s.Headings)
		records = append(records, r)
	}
	return records
}

// importance derives the result-ordering rank for a section. Importance 1 is
// reserved for a guide homepage's top section so the homepage is featured in
// default listings; all other guide sections rank below their depth.
func importance(s ContentSection, meta PageMeta) int {
	depth := s.Depth()
	if meta.Kind == KindGuidePage {
		if meta.Homepage && depth <= 1 {
			return 1
		}
		return depth + 1
	}
	if depth < 1 {
		return 1
	}
	return depth
}

func sectionURL(pageURL, anchor string) string {
	if anchor == "" {
		return pageURL
	}
	return pageURL + "#" + anchor
}

func setHeadingColumns(r *ContentRecord, headings []string) {
	cols := []*string{&r.H1, &r.H2, &r.H3, &r.H4, &r.H5, &r.H6}
	for i, h := range headings {
		if i >= len(cols) {
			break
		}
		*cols[i] = h
	}
}

// TruncateAtWord cuts s to at most limit bytes without splitting a word.
// The result is always a strict prefix of s when truncation occurs. If the
// first word alone exceeds the limit the result is empty.
func TruncateAtWord(s string, limit int) (string, bool) {
	if limit <= 0 || len(s) <= limit {
		return s, false
	}

	cut := s[:limit]
	if idx := strings.LastIndexAny(cut, " \t\n"); idx >= 0 {
		cut = cut[:idx]
	} else {
		cut = ""
	}
	return strings.TrimRight(cut, " \t\n"), true
}
