package extract

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/toxscore/tools/render/dom"
	"github.com/rs/zerolog"
)

func TestUniversalExtract(t *testing.T) {
	long := "This paragraph is comfortably longer than thirty characters."
	short := "too short"
	exactly30 := strings.Repeat("x", 30)
	body := strings.Repeat("body text ", 15)

	doc := &fakeDoc{
		url: "https://example.com/post",
		bySel: map[string][]dom.Element{
			"article": {fakeElement{text: "  " + long + "  "}},
			"p": {
				fakeElement{text: short},
				fakeElement{text: exactly30},
				fakeElement{err: dom.ErrStale},
				fakeElement{text: long},
			},
		},
		badSel: map[string]bool{"div.postMessage": true},
		body:   body,
	}

	got := NewUniversal(nil, zerolog.Nop()).Extract(context.Background(), doc)
	want := []string{long, long, strings.TrimSpace(body)}
	if !reflect.DeepEqual(texts(got), want) {
		t.Fatalf("fragments = %q, want %q", texts(got), want)
	}
	if got[0].Selector != "article" || got[1].Selector != "p" || got[2].Selector != FallbackSelector {
		t.Fatalf("unexpected selectors: %+v", got)
	}
	if !reflect.DeepEqual(doc.queried, UniversalSelectors) {
		t.Fatalf("queried = %v, want every selector in order", doc.queried)
	}
}

func TestUniversalFallbackThreshold(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{name: "exactly at threshold is dropped", body: strings.Repeat("b", MinFallbackLen), want: 0},
		{name: "above threshold is kept", body: strings.Repeat("b", MinFallbackLen+1), want: 1},
		{name: "counted in characters", body: strings.Repeat("ж", MinFallbackLen), want: 0},
		{name: "body read failure contributes nothing", err: errors.New("gone"), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &fakeDoc{body: tt.body, bodyErr: tt.err}
			got := NewUniversal(nil, zerolog.Nop()).Extract(context.Background(), doc)
			if len(got) != tt.want {
				t.Fatalf("fragments = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestSiteSpecificHasNoFallback(t *testing.T) {
	post := "A board post that is long enough to count as a fragment."
	doc := &fakeDoc{
		bySel: map[string][]dom.Element{
			"div.postMessage": {fakeElement{text: post}},
			"blockquote":      {fakeElement{text: post}},
		},
		body: strings.Repeat("navigation and chrome ", 20),
	}
	got := NewSiteSpecific(nil, zerolog.Nop()).Extract(context.Background(), doc)
	if want := []string{post, post}; !reflect.DeepEqual(texts(got), want) {
		t.Fatalf("fragments = %q, want %q", texts(got), want)
	}
	if !reflect.DeepEqual(doc.queried, SiteSelectors) {
		t.Fatalf("queried = %v", doc.queried)
	}
}

func TestExtractRunsRevealerFirst(t *testing.T) {
	doc := &fakeDoc{heights: []int64{10, 20, 20, 20}}
	rev := NewRevealer(0, 30, zerolog.Nop())
	rev.sleep = noSleep

	NewSiteSpecific(rev, zerolog.Nop()).Extract(context.Background(), doc)
	if doc.scrolls != 2 {
		t.Fatalf("scrolls = %d, want 2", doc.scrolls)
	}
}

func TestPickerForURL(t *testing.T) {
	universal := NewUniversal(nil, zerolog.Nop())
	site := NewSiteSpecific(nil, zerolog.Nop())
	p := &Picker{
		SitePatterns: []string{"4chan.org", "4channel.org"},
		Universal:    universal,
		SiteSpecific: site,
	}
	tests := []struct {
		url  string
		want string
	}{
		{url: "https://boards.4chan.org/g/thread/1", want: "site"},
		{url: "https://4channel.org/", want: "site"},
		{url: "https://example.com/4chan.org", want: "universal"},
		{url: "https://not4chan.org/", want: "universal"},
		{url: "://bad", want: "universal"},
		{url: "boards.4chan.org/g/", want: "site"},
		{url: "boards.4chan.org:8080/g/", want: "site"},
		{url: "HTTPS://Boards.4Chan.org/g/", want: "site"},
		{url: "", want: "universal"},
	}
	for _, tt := range tests {
		if got := p.ForURL(tt.url).Name(); got != tt.want {
			t.Fatalf("ForURL(%q) = %s, want %s", tt.url, got, tt.want)
		}
	}
}
