// Package dom declares the live-document handle shared by every renderer.
package dom

import (
	"context"
	"errors"
)

// ErrStale is returned by Element.Text when the element left the document
// between the query and the read.
var ErrStale = errors.New("element is stale")

// Document is a rendered page owned by exactly one request. Callers must
// Close it once they are done, whether or not the request succeeded.
type Document interface {
	// URL is the address the document was opened with.
	URL() string
	// ContentHeight reports the current scrollable height of the body.
	ContentHeight(ctx context.Context) (int64, error)
	// ScrollToBottom moves the viewport to the current end of the body.
	ScrollToBottom(ctx context.Context) error
	// QueryAll returns every element matching a CSS selector, in document order.
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	// VisibleText returns the rendered text of the body.
	VisibleText(ctx context.Context) (string, error)
	Close() error
}

// Element is a handle to one node matched by Document.QueryAll.
type Element interface {
	Text(ctx context.Context) (string, error)
}
