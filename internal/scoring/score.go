// Package scoring computes completion scores for appointments and checklists.
package scoring

import (
	"errors"
	"math"
)

// ErrNoItems rejects scoring a parent without child items.
var ErrNoItems = errors.New("no items to score")

// Tier is the display level of a percentage.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// TierFor maps p < 33 to low, 33 <= p < 66 to medium, p >= 66 to high.
func TierFor(percentage float64) Tier {
	switch {
	case percentage < 33:
		return TierLow
	case percentage < 66:
		return TierMedium
	default:
		return TierHigh
	}
}

func (t Tier) Emoji() string {
	switch t {
	case TierLow:
		return "🧊"
	case TierMedium:
		return "😐"
	case TierHigh:
		return "🔥"
	}
	return ""
}

// Counts are the inputs and result of one computation.
type Counts struct {
	Total      int
	Completed  int
	Percentage float64
}

// Compute returns done/total*100. total must be positive and done within [0, total].
func Compute(total, done int) (Counts, error) {
	if total <= 0 {
		return Counts{}, ErrNoItems
	}
	if done < 0 || done > total {
		return Counts{}, errors.New("completed items out of range")
	}
	return Counts{
		Total:      total,
		Completed:  done,
		Percentage: float64(done) / float64(total) * 100,
	}, nil
}

// Round2 rounds to two decimals for display.
func Round2(p float64) float64 {
	return math.Round(p*100) / 100
}
