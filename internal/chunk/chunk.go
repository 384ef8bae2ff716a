// Package chunk cuts normalized text into classifier-sized units.
package chunk

import (
	"strings"
	"unicode/utf8"
)

const (
	// Separator matches the join used by the normalizer.
	Separator = "\n\n"
	// MinLen is the exclusive lower bound on a trimmed segment's length.
	MinLen = 30
	// MaxLen caps every chunk, in characters.
	MaxLen = 500
)

// Split breaks text on Separator, trims each segment, drops segments of MinLen
// characters or fewer and truncates the rest to MaxLen characters. The length
// filter sees the segment before truncation. Order is preserved.
func Split(text string) []string {
	var chunks []string
	for _, seg := range strings.Split(text, Separator) {
		seg = strings.TrimSpace(seg)
		if utf8.RuneCountInString(seg) <= MinLen {
			continue
		}
		chunks = append(chunks, truncate(seg, MaxLen))
	}
	return chunks
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
