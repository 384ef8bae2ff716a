package extract

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Separator joins fragments in normalized text and splits it into chunks.
const Separator = "\n\n"

// DefaultDenylist holds substrings that mark a fragment as boilerplate.
var DefaultDenylist = []string{
	"cookies",
	"login",
	"subscribe",
	"advertisement",
	"accept",
	"sign up",
	"privacy",
	"footer",
	"terms",
	"ads",
	"policy",
}

// Normalizer deduplicates fragments and drops boilerplate.
type Normalizer struct {
	denylist []string
}

// NewNormalizer builds a normalizer over terms, or DefaultDenylist when none
// are given. Terms match case-insensitively as substrings.
func NewNormalizer(terms ...string) *Normalizer {
	if len(terms) == 0 {
		terms = DefaultDenylist
	}
	lower := cases.Lower(language.Und)
	list := make([]string, 0, len(terms))
	for _, t := range terms {
		t = lower.String(strings.TrimSpace(t))
		if t != "" {
			list = append(list, t)
		}
	}
	return &Normalizer{denylist: list}
}

// Filter keeps the first occurrence of every distinct fragment text and
// drops fragments containing a denylisted term. Order is preserved.
func (n *Normalizer) Filter(fragments []Fragment) []Fragment {
	// cases.Caser is stateful, so each call gets its own
	lower := cases.Lower(language.Und)
	seen := make(map[string]struct{}, len(fragments))
	out := make([]Fragment, 0, len(fragments))
	for _, f := range fragments {
		if _, dup := seen[f.Text]; dup {
			continue
		}
		if n.denied(lower.String(f.Text)) {
			continue
		}
		seen[f.Text] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Normalize filters fragments and joins the survivors with Separator. An
// empty input yields an empty string.
func (n *Normalizer) Normalize(fragments []Fragment) string {
	return Join(n.Filter(fragments))
}

// Join concatenates fragment texts with Separator without filtering.
func Join(fragments []Fragment) string {
	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = f.Text
	}
	return strings.Join(texts, Separator)
}

func (n *Normalizer) denied(lower string) bool {
	for _, term := range n.denylist {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
