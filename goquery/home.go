package goquery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/skaczmarek/librarian"
)

// Ensure HomeParser implements librarian.HomeParser at compile time.
var _ librarian.HomeParser = (*HomeParser)(nil)

// titleSelectors locate the site title, tried in order.
var titleSelectors = []string{"#site-title", ".navbar-brand", "h1"}

// navSelectors locate content page links in the site navigation, tried in
// order. The first selector with matches wins, so theme-specific navs take
// precedence over a generic one.
var navSelectors = []string{"nav#bd-docs-nav a.internal", "nav a.internal", "nav a[href]"}

var refreshRe = regexp.MustCompile(`(?i)^\s*\d+\s*;\s*url=(.+)$`)

// HomeParser extracts guide homepage metadata: the site title, the summary
// paragraph, navigation page URLs, and a meta-refresh redirect target if the
// homepage is a redirect stub.
type HomeParser struct{}

// NewHomeParser creates a new HomeParser.
func NewHomeParser() *HomeParser {
	return &HomeParser{}
}

// ParseHome parses a guide homepage.
func (p *HomeParser) ParseHome(page *librarian.SourcePage) (*librarian.GuideHome, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, librarian.WrapError(err, librarian.EINVALID, "parse %s", page.URL)
	}

	base, err := url.Parse(page.URL)
	if err != nil {
		return nil, librarian.Errorf(librarian.EINVALID, "invalid page URL %q", page.URL)
	}

	home := &librarian.GuideHome{
		Title:    p.title(doc),
		Summary:  p.summary(doc),
		Redirect: p.redirect(doc, base),
	}

	seen := make(map[string]bool)
	for _, sel := range navSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok || href == "" || href == "#" {
				return
			}
			resolved := resolveURL(base, href)
			if resolved == "" || !isSameHost(base, resolved) || seen[resolved] {
				return
			}
			seen[resolved] = true
			home.NavURLs = append(home.NavURLs, resolved)
		})
		if len(home.NavURLs) > 0 {
			break
		}
	}

	return home, nil
}

func (p *HomeParser) title(doc *goquery.Document) string {
	for _, sel := range titleSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if t := normalizeText(s.Text()); t != "" {
				return t
			}
		}
	}
	return normalizeText(doc.Find("title").First().Text())
}

func (p *HomeParser) summary(doc *goquery.Document) string {
	for _, sel := range []string{"#main-content p", "main p", "article p"} {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if t := normalizeText(s.Text()); t != "" {
				return t
			}
		}
	}
	return ""
}

// redirect detects an http-equiv refresh meta tag and returns the resolved
// target URL, or empty if the page is not a redirect stub.
func (p *HomeParser) redirect(doc *goquery.Document, base *url.URL) string {
	var target string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		equiv, _ := s.Attr("http-equiv")
		if !strings.EqualFold(equiv, "refresh") {
			return true
		}
		content, _ := s.Attr("content")
		m := refreshRe.FindStringSubmatch(content)
		if m == nil {
			return true
		}
		target = resolveURL(base, strings.TrimSpace(m[1]))
		return false
	})
	return target
}

// Ensure LinkExtractor implements librarian.LinkExtractor at compile time.
var _ librarian.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor returns same-host links found anywhere in a page, resolved
// against the page URL with fragments stripped. Used by the guide crawler to
// discover pages the navigation does not list.
type LinkExtractor struct{}

// NewLinkExtractor creates a new LinkExtractor.
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// ExtractLinks parses HTML and returns internal links in document order,
// deduplicated by normalized URL.
func (e *LinkExtractor) ExtractLinks(htmlStr string, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, librarian.Errorf(librarian.EINVALID, "invalid base URL %q", baseURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return nil, librarian.WrapError(err, librarian.EINVALID, "parse links in %s", baseURL)
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" || isNonHTTPLink(href) {
			return
		}
		resolved := resolveURL(base, href)
		if resolved == "" || !isSameHost(base, resolved) || seen[resolved] {
			return
		}
		seen[resolved] = true
		links = append(links, resolved)
	})
	return links, nil
}

// resolveURL resolves href against base and strips the fragment. Returns ""
// if href cannot be parsed or resolves to the base page itself.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""

	stripped := *base
	stripped.Fragment = ""
	if resolved.String() == stripped.String() {
		return ""
	}
	return resolved.String()
}

func isSameHost(base *url.URL, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Host == base.Host
}

func isNonHTTPLink(href string) bool {
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(strings.ToLower(href), prefix) {
			return true
		}
	}
	return false
}
