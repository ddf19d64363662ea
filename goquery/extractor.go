// Package goquery implements HTML content extraction for the indexing
// pipeline: heading-delimited section extraction, guide homepage metadata,
// and internal link discovery.
package goquery

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/skaczmarek/librarian"
	"golang.org/x/net/html"
)

// Ensure Extractor implements librarian.SectionExtractor at compile time.
var _ librarian.SectionExtractor = (*Extractor)(nil)

// contentSelectors locate the main content area, tried in order. Matches
// the markup produced by Sphinx, JupyterBook and nbcollection builds.
var contentSelectors = []string{
	"#main-content",
	".jp-Notebook",
	"main",
	"article",
	"div.section",
	"body",
}

// Extractor parses a page into an ordered sequence of content sections.
// Each heading opens a new section and closes the previous one; content
// between headings accumulates into the open section's body with markup
// stripped. Content before the first heading becomes an implicit depth-0
// section used as the document's own summary record.
type Extractor struct {
	maxLevel int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxHeadingLevel sets the deepest heading level that opens a new
// section. Deeper headings are flattened into the enclosing section's body.
// Defaults to 6 (all levels).
func WithMaxHeadingLevel(level int) Option {
	return func(e *Extractor) {
		e.maxLevel = level
	}
}

// NewExtractor creates a new section extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{maxLevel: 6}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses the page and returns its sections in source order.
// An empty page yields zero sections and a nil error; unparseable HTML is
// reported as an EINVALID error.
func (e *Extractor) Extract(page *librarian.SourcePage) ([]librarian.ContentSection, error) {
	if strings.TrimSpace(page.HTML) == "" {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, librarian.WrapError(err, librarian.EINVALID, "parse %s", page.URL)
	}

	root := contentRoot(doc)
	if root == nil {
		return nil, nil
	}

	st := &walkState{maxLevel: e.maxLevel}
	for _, n := range root.Nodes {
		st.walk(n)
	}
	return st.finish(), nil
}

func contentRoot(doc *goquery.Document) *goquery.Selection {
	for _, sel := range contentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}
	return nil
}

// walkState accumulates sections during the document walk.
type walkState struct {
	maxLevel int

	headings []string
	anchor   string
	body     []string

	started  bool // a heading has opened an explicit section
	sections []librarian.ContentSection
	anchors  map[string]int
}

// walk traverses n's children in source order. Headings open sections;
// everything else contributes plain text to the open section's body.
func (st *walkState) walk(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			st.body = append(st.body, c.Data)
		case html.ElementNode:
			if skipElement(c) {
				continue
			}
			if level := headingLevel(c.Data); level > 0 {
				if level <= st.maxLevel {
					st.startSection(level, headingText(c), nodeAnchor(c))
				} else {
					st.body = append(st.body, headingText(c))
				}
				continue
			}
			st.walk(c)
		}
	}
}

// startSection closes the open section and opens a new one at the given
// heading level. A deeper heading extends the heading path; an equal or
// shallower one truncates the path to its level first.
func (st *walkState) startSection(level int, heading, anchor string) {
	st.flush()

	if level > len(st.headings)+1 {
		level = len(st.headings) + 1
	}
	st.headings = append(st.headings[:level-1:level-1], heading)
	st.anchor = st.uniqueAnchor(anchor, heading)
	st.started = true
}

// flush emits the open section. The implicit lead section (before any
// heading) is emitted only if it carries body text.
func (st *walkState) flush() {
	body := normalizeText(strings.Join(st.body, " "))
	st.body = st.body[:0]

	if !st.started && body == "" {
		return
	}

	st.sections = append(st.sections, librarian.ContentSection{
		Headings: append([]string(nil), st.headings...),
		Anchor:   st.anchor,
		Body:     body,
		Ordinal:  len(st.sections),
	})
}

func (st *walkState) finish() []librarian.ContentSection {
	st.flush()
	return st.sections
}

// uniqueAnchor returns the anchor for a new section, deriving a slug from
// the heading text when the markup carries no id and disambiguating
// collisions within the page with an ordinal suffix.
func (st *walkState) uniqueAnchor(anchor, heading string) string {
	if anchor == "" {
		anchor = librarian.Slugify(heading)
	}
	if anchor == "" {
		anchor = "section"
	}
	if st.anchors == nil {
		st.anchors = make(map[string]int)
	}
	n := st.anchors[anchor]
	st.anchors[anchor] = n + 1
	if n == 0 {
		return anchor
	}
	return anchor + "-" + strconv.Itoa(n)
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// skipElement filters markup that never contributes searchable text:
// scripts, styles, and Jupyter cell outputs, which are often large and
// rarely relevant.
func skipElement(n *html.Node) bool {
	switch n.Data {
	case "script", "style", "noscript", "template", "iframe":
		return true
	}
	return hasClass(n, "cell_output") || hasClass(n, "headerlink")
}

// headingText flattens a heading element to plain text, dropping header
// anchor links and the trailing pilcrow Sphinx appends to them.
func headingText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			} else if c.Type == html.ElementNode && !skipElement(c) {
				collect(c)
			}
		}
	}
	collect(n)
	return strings.TrimRight(normalizeText(sb.String()), "¶ ")
}

// nodeAnchor returns the fragment identifier for a heading: its own id, or
// the id of an enclosing section wrapper (Sphinx puts ids on div.section
// rather than the heading itself).
func nodeAnchor(n *html.Node) string {
	if id := attr(n, "id"); id != "" {
		return id
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if p.Data == "section" || (p.Data == "div" && hasClass(p, "section")) {
			return attr(p, "id")
		}
	}
	return ""
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// normalizeText collapses all whitespace runs to single spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
