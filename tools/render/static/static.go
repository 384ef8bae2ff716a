// Package static renders pages without a browser: the HTML is fetched once
// and queried as-is. Scripts never run, so lazily loaded content stays absent
// and scrolling never grows the document.
package static

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/mohammad-safakhou/toxscore/tools/render/dom"
	"golang.org/x/net/html"
)

// maxBodyBytes bounds how much of a response is parsed.
const maxBodyBytes = 10 << 20

type Renderer struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

func New(timeout time.Duration, userAgent string) *Renderer {
	return &Renderer{
		client:    &http.Client{},
		userAgent: userAgent,
		timeout:   timeout,
	}
}

func (r *Renderer) Open(ctx context.Context, link string) (dom.Document, error) {
	if strings.TrimSpace(link) == "" {
		return nil, errors.New("invalid url")
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := r.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("navigation to %s timed out after %s: %w", link, r.timeout, context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("navigate to %s: %w", link, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("navigate to %s: unexpected status %d", link, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", link, err)
	}
	return NewDocument(link, doc), nil
}

func (r *Renderer) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

// NewDocument wraps an already parsed page.
func NewDocument(link string, doc *goquery.Document) dom.Document {
	return &document{url: link, doc: doc}
}

type document struct {
	url    string
	doc    *goquery.Document
	closed bool
}

func (d *document) URL() string { return d.url }

func (d *document) ContentHeight(ctx context.Context) (int64, error) {
	if d.closed {
		return 0, errors.New("document closed")
	}
	return int64(d.doc.Find("*").Length()), ctx.Err()
}

func (d *document) ScrollToBottom(ctx context.Context) error {
	if d.closed {
		return errors.New("document closed")
	}
	return ctx.Err()
}

func (d *document) QueryAll(ctx context.Context, selector string) ([]dom.Element, error) {
	if d.closed {
		return nil, errors.New("document closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// goquery's Find swallows compile errors into an empty match
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("selector %s: %w", selector, err)
	}
	sel := d.doc.FindMatcher(matcher)
	out := make([]dom.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, element{doc: d, sel: s})
	})
	return out, nil
}

func (d *document) VisibleText(ctx context.Context) (string, error) {
	if d.closed {
		return "", errors.New("document closed")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	body := d.doc.Find("body")
	if body.Length() == 0 {
		return "", nil
	}
	var b strings.Builder
	for _, n := range body.Nodes {
		collectText(&b, n)
	}
	return normalizeLines(b.String()), nil
}

func (d *document) Close() error {
	d.closed = true
	return nil
}

type element struct {
	doc *document
	sel *goquery.Selection
}

func (e element) Text(ctx context.Context) (string, error) {
	if e.doc.closed {
		return "", dom.ErrStale
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, n := range e.sel.Nodes {
		collectText(&b, n)
	}
	return normalizeLines(b.String()), nil
}

// collectText approximates innerText: hidden containers are skipped and
// block-level elements break lines.
func collectText(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "template", "head", "iframe", "svg":
			return
		case "br":
			b.WriteString("\n")
			return
		}
		for _, attr := range n.Attr {
			if attr.Key == "hidden" {
				return
			}
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(strings.Map(func(r rune) rune {
			if r == '\t' || r == '\r' || r == '\n' {
				return ' '
			}
			return r
		}, n.Data))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
	if n.Type == html.ElementNode && isBlock(n.Data) {
		b.WriteString("\n")
	}
}

func isBlock(tag string) bool {
	switch strings.ToLower(tag) {
	case "p", "div", "article", "section", "blockquote", "li", "ul", "ol", "tr", "table",
		"h1", "h2", "h3", "h4", "h5", "h6", "header", "footer", "main", "aside", "nav", "pre", "form":
		return true
	}
	return false
}

// normalizeLines collapses runs of spaces and drops blank lines.
func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
