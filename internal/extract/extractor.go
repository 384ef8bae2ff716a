// Package extract pulls human-authored text out of rendered documents.
package extract

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/mohammad-safakhou/toxscore/config"
	"github.com/mohammad-safakhou/toxscore/internal/helpers"
	"github.com/mohammad-safakhou/toxscore/internal/metrics"
	"github.com/mohammad-safakhou/toxscore/tools/render/dom"
	"github.com/rs/zerolog"
)

const (
	// MinFragmentLen is the exclusive lower bound, in characters, for a
	// selector match to become a fragment.
	MinFragmentLen = 30
	// MinFallbackLen is the exclusive lower bound for the whole-body fragment.
	MinFallbackLen = 100

	FallbackSelector = "body"
)

// UniversalSelectors are tried in order on every page that has no
// site-specific strategy.
var UniversalSelectors = []string{
	"article",
	"p",
	"blockquote",
	"div.postMessage",
	"div[class*='post']",
	"div[class*='text']",
	"div[class*='content']",
	"div[class*='body']",
}

// SiteSelectors cover discussion boards that keep every post in a
// postMessage container.
var SiteSelectors = []string{
	"div.postMessage",
	"blockquote",
}

// Fragment is one candidate block of body text. Selector records where it
// came from and is not used downstream.
type Fragment struct {
	Text     string `json:"text"`
	Selector string `json:"selector"`
}

// Strategy turns a rendered document into fragments. Implementations never
// fail: anything that cannot be read contributes nothing.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, doc dom.Document) []Fragment
}

type selectorStrategy struct {
	name      string
	selectors []string
	fallback  bool
	revealer  *Revealer
	logger    zerolog.Logger
}

// NewUniversal returns the layered strategy: structural selectors first,
// then the whole visible body as a last fragment.
func NewUniversal(revealer *Revealer, logger zerolog.Logger) Strategy {
	return &selectorStrategy{
		name:      "universal",
		selectors: UniversalSelectors,
		fallback:  true,
		revealer:  revealer,
		logger:    logger,
	}
}

// NewSiteSpecific returns the narrow strategy for discussion boards.
func NewSiteSpecific(revealer *Revealer, logger zerolog.Logger) Strategy {
	return &selectorStrategy{
		name:      "site",
		selectors: SiteSelectors,
		revealer:  revealer,
		logger:    logger,
	}
}

func (s *selectorStrategy) Name() string { return s.name }

func (s *selectorStrategy) Extract(ctx context.Context, doc dom.Document) []Fragment {
	steps := 0
	if s.revealer != nil {
		steps = s.revealer.Reveal(ctx, doc)
		metrics.ObserveRevealSteps(steps)
	}

	var fragments []Fragment
	for _, sel := range s.selectors {
		fragments = append(fragments, s.collect(ctx, doc, sel)...)
	}
	if s.fallback {
		if f, ok := s.wholeBody(ctx, doc); ok {
			fragments = append(fragments, f)
		}
	}

	s.logger.Debug().
		Str("strategy", s.name).
		Str("url", doc.URL()).
		Int("reveal_steps", steps).
		Int("fragments", len(fragments)).
		Msg("extraction finished")
	return fragments
}

func (s *selectorStrategy) collect(ctx context.Context, doc dom.Document, sel string) []Fragment {
	elements, err := doc.QueryAll(ctx, sel)
	if err != nil {
		s.logger.Debug().Err(err).Str("selector", sel).Msg("selector skipped")
		return nil
	}
	var out []Fragment
	for _, el := range elements {
		text, err := el.Text(ctx)
		if err != nil {
			s.logger.Debug().Err(err).Str("selector", sel).Msg("element skipped")
			continue
		}
		text = strings.TrimSpace(text)
		if utf8.RuneCountInString(text) > MinFragmentLen {
			out = append(out, Fragment{Text: text, Selector: sel})
		}
	}
	return out
}

func (s *selectorStrategy) wholeBody(ctx context.Context, doc dom.Document) (Fragment, bool) {
	text, err := doc.VisibleText(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("body fallback skipped")
		return Fragment{}, false
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= MinFallbackLen {
		return Fragment{}, false
	}
	return Fragment{Text: text, Selector: FallbackSelector}, true
}

// Picker chooses the strategy for a request. It is the only place where the
// pipeline branches on the target.
type Picker struct {
	SitePatterns []string
	Universal    Strategy
	SiteSpecific Strategy
}

// ForURL returns SiteSpecific when the URL host matches a site pattern and
// Universal otherwise. Schemeless input is accepted.
func (p *Picker) ForURL(rawURL string) Strategy {
	if p.SiteSpecific != nil && config.MatchesSite(helpers.HostOf(rawURL), p.SitePatterns) {
		return p.SiteSpecific
	}
	return p.Universal
}
