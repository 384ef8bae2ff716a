package score

// Severity buckets an averaged score.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

const (
	// MediumThreshold and HighThreshold are inclusive lower bounds.
	MediumThreshold = 0.33
	HighThreshold   = 0.66
)

// Bucket maps a score to its severity. Boundary values belong to the higher
// bucket.
func Bucket(v float64) Severity {
	switch {
	case v < MediumThreshold:
		return SeverityLow
	case v < HighThreshold:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

// Color is the traffic-light color reported to callers.
func (s Severity) Color() string {
	switch s {
	case SeverityLow:
		return "green"
	case SeverityMedium:
		return "orange"
	default:
		return "red"
	}
}
