package page

import (
	"bytes"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/crypto/sha3"
	"golang.org/x/net/html"
)

// Document is a parsed HTML page. It is safe for concurrent reads.
type Document struct {
	doc         *goquery.Document
	raw         string
	fingerprint string
}

// Parse parses body as HTML. The HTML parser accepts malformed markup,
// so an error is returned only when the reader itself fails.
func Parse(body string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	sum := sha3.Sum256([]byte(body))
	return &Document{
		doc:         doc,
		raw:         body,
		fingerprint: hex.EncodeToString(sum[:]),
	}, nil
}

// Raw returns the unparsed body.
func (d *Document) Raw() string {
	return d.raw
}

// Fingerprint returns the hex SHA3-256 digest of the body.
func (d *Document) Fingerprint() string {
	return d.fingerprint
}

// Title returns the trimmed text of the first <title>, or "" when absent.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// MetaDescription returns the content of <meta name="description">.
// The name attribute is matched case-insensitively.
func (d *Document) MetaDescription() string {
	var content string
	d.doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		if !strings.EqualFold(strings.TrimSpace(name), "description") {
			return true
		}
		content, _ = s.Attr("content")
		return false
	})
	return strings.TrimSpace(content)
}

// Count returns the number of elements matching a CSS selector.
func (d *Document) Count(selector string) int {
	return d.doc.Find(selector).Length()
}

// ImagesMissingAlt counts <img> elements whose alt attribute is absent or
// blank after trimming.
func (d *Document) ImagesMissingAlt() int {
	missing := 0
	d.doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		alt, ok := s.Attr("alt")
		if !ok || strings.TrimSpace(alt) == "" {
			missing++
		}
	})
	return missing
}

// Links returns up to limit distinct absolute http(s) URLs from anchor
// hrefs, in document order. Relative hrefs are resolved against base;
// fragments are removed. A limit of zero or less returns all links.
func (d *Document) Links(base *url.URL, limit int) []string {
	links := make([]string, 0)
	seen := make(map[string]struct{})

	d.doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		resolved := resolveLink(base, href)
		if resolved == "" {
			return true
		}
		if _, dup := seen[resolved]; dup {
			return true
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
		return limit <= 0 || len(links) < limit
	})
	return links
}

// resolveLink returns the absolute form of href, or "" if it is not an
// http(s) link.
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host == "" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

// Text returns the visible text of the page: the content of text nodes
// outside <script>, <style>, <noscript> and <template>, separated by spaces.
func (d *Document) Text() string {
	var buf bytes.Buffer
	for _, n := range d.doc.Nodes {
		collectText(n, &buf)
	}
	return buf.String()
}

// skippedElements hold no visible text.
var skippedElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
}

func collectText(n *html.Node, buf *bytes.Buffer) {
	if n.Type == html.ElementNode {
		if _, skip := skippedElements[n.Data]; skip {
			return
		}
	}
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
		buf.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, buf)
	}
}
