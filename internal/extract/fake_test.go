package extract

import (
	"context"
	"errors"

	"github.com/mohammad-safakhou/toxscore/tools/render/dom"
)

type fakeElement struct {
	text string
	err  error
}

func (e fakeElement) Text(context.Context) (string, error) { return e.text, e.err }

// fakeDoc serves canned selector results. heights is consumed one value per
// ContentHeight call; the last value repeats once it runs out.
type fakeDoc struct {
	url       string
	bySel     map[string][]dom.Element
	badSel    map[string]bool
	body      string
	bodyErr   error
	heights   []int64
	heightErr error
	scrollErr error

	heightCalls int
	scrolls     int
	queried     []string
}

func (d *fakeDoc) URL() string { return d.url }

func (d *fakeDoc) ContentHeight(context.Context) (int64, error) {
	if d.heightErr != nil {
		return 0, d.heightErr
	}
	i := d.heightCalls
	d.heightCalls++
	if len(d.heights) == 0 {
		return 0, nil
	}
	if i >= len(d.heights) {
		i = len(d.heights) - 1
	}
	return d.heights[i], nil
}

func (d *fakeDoc) ScrollToBottom(context.Context) error {
	d.scrolls++
	return d.scrollErr
}

func (d *fakeDoc) QueryAll(_ context.Context, sel string) ([]dom.Element, error) {
	d.queried = append(d.queried, sel)
	if d.badSel[sel] {
		return nil, errors.New("bad selector")
	}
	return d.bySel[sel], nil
}

func (d *fakeDoc) VisibleText(context.Context) (string, error) { return d.body, d.bodyErr }

func (d *fakeDoc) Close() error { return nil }

func texts(fs []Fragment) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Text
	}
	return out
}
