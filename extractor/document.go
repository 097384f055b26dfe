package extractor

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a fetched page as the extractor sees it.
type Document interface {
	// URL is the address the page was fetched from.
	URL() string
	// Text is the visible body text with whitespace collapsed.
	Text() string
	// Select returns the trimmed text of every element matching css, or the
	// value of attribute attr when attr is not empty. Empty fragments are dropped.
	Select(css, attr string) []string
}

// HTMLDocument is a Document backed by parsed markup.
type HTMLDocument struct {
	url string
	doc *goquery.Document

	textOnce sync.Once
	text     string
}

// NewHTMLDocument parses markup read from r.
func NewHTMLDocument(pageURL string, r io.Reader) (*HTMLDocument, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("extractor: parse %s: %w", pageURL, err)
	}
	return &HTMLDocument{url: pageURL, doc: doc}, nil
}

// ParseHTML is NewHTMLDocument for markup already in memory.
func ParseHTML(pageURL string, body []byte) (*HTMLDocument, error) {
	return NewHTMLDocument(pageURL, bytes.NewReader(body))
}

func (d *HTMLDocument) URL() string { return d.url }

func (d *HTMLDocument) Text() string {
	d.textOnce.Do(func() {
		root := d.doc.Find("body")
		if root.Length() == 0 {
			root = d.doc.Selection
		}
		d.text = selectionText(root)
	})
	return d.text
}

// Select reads every match of css. For text reads, a match nested inside
// another match is skipped since its text is already part of the outer one.
func (d *HTMLDocument) Select(css, attr string) []string {
	var out []string
	d.doc.Find(css).Each(func(_ int, s *goquery.Selection) {
		var v string
		if attr != "" {
			v, _ = s.Attr(attr)
			v = collapseSpace(v)
		} else {
			if s.ParentsFiltered(css).Length() > 0 {
				return
			}
			v = selectionText(s)
		}
		if v != "" {
			out = append(out, v)
		}
	})
	return out
}

func selectionText(s *goquery.Selection) string {
	var buf strings.Builder
	for _, n := range s.Nodes {
		collectText(n, &buf)
	}
	return collapseSpace(buf.String())
}

var skippedElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
}

// collectText walks n writing every text node followed by a space, so text
// from adjacent elements never runs together.
func collectText(n *html.Node, buf *strings.Builder) {
	if n.Type == html.ElementNode {
		if _, skip := skippedElements[n.Data]; skip {
			return
		}
	}
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
		buf.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, buf)
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

func collapseSpace(s string) string {
	return strings.TrimSpace(innerWhitespace.ReplaceAllString(s, " "))
}
