// Package score merges per-chunk classifier output into one score per label.
package score

import (
	"errors"
	"sort"
	"strconv"
)

// ErrFinalized is returned when results are added after Finalize.
var ErrFinalized = errors.New("score: accumulator already finalized")

// LabelScore is one category score for one chunk.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// CategoryScore is the aggregate for one label.
type CategoryScore struct {
	Label     string    `json:"label"`
	RawScores []float64 `json:"raw_scores"`
	Value     float64   `json:"value"`
	Severity  Severity  `json:"severity"`
}

// Verdict is the caller-facing shape of a category score.
type Verdict struct {
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Report maps each observed label to its verdict.
type Report map[string]Verdict

// Accumulator collects raw scores chunk by chunk and finalizes them once.
// It is not safe for concurrent use.
type Accumulator struct {
	raw       map[string][]float64
	finalized bool
}

func NewAccumulator() *Accumulator {
	return &Accumulator{raw: make(map[string][]float64)}
}

// Add records the scores of one chunk.
func (a *Accumulator) Add(chunk []LabelScore) error {
	if a.finalized {
		return ErrFinalized
	}
	for _, ls := range chunk {
		a.raw[ls.Label] = append(a.raw[ls.Label], ls.Score)
	}
	return nil
}

// Finalize averages every label's scores, rounds to three decimals and
// assigns a severity. Later calls return ErrFinalized.
func (a *Accumulator) Finalize() (map[string]CategoryScore, error) {
	if a.finalized {
		return nil, ErrFinalized
	}
	a.finalized = true
	out := make(map[string]CategoryScore, len(a.raw))
	for label, scores := range a.raw {
		v := Round3(mean(scores))
		out[label] = CategoryScore{
			Label:     label,
			RawScores: scores,
			Value:     v,
			Severity:  Bucket(v),
		}
	}
	return out, nil
}

// Aggregate runs a fresh Accumulator over results, one entry per chunk.
func Aggregate(results [][]LabelScore) map[string]CategoryScore {
	acc := NewAccumulator()
	for _, r := range results {
		_ = acc.Add(r)
	}
	out, _ := acc.Finalize()
	return out
}

// ToReport drops the raw scores and keeps value and color.
func ToReport(scores map[string]CategoryScore) Report {
	out := make(Report, len(scores))
	for label, cs := range scores {
		out[label] = Verdict{Value: cs.Value, Color: cs.Severity.Color()}
	}
	return out
}

// Round3 rounds the exact binary value of v to three decimals, breaking
// exact ties to even.
func Round3(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 3, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// mean sums a sorted copy so the result does not depend on chunk order.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return sum / float64(len(sorted))
}
