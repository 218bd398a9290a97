package kinetraj

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// AggregateRange is the population-wide minimum and maximum of a metric.
// The zero value is not ready to use, use NewAggregateRange or Reset.
type AggregateRange struct {
	Min float64
	Max float64
}

// NewAggregateRange returns an empty range, with Min=+Inf and Max=-Inf.
func NewAggregateRange() AggregateRange {
	return AggregateRange{Min: math.Inf(1), Max: math.Inf(-1)}
}

// Reset empties the range.
func (R *AggregateRange) Reset() {
	*R = NewAggregateRange()
}

// Add folds the given values into the range. NaN and infinite values are ignored.
func (R *AggregateRange) Add(vals ...float64) {
	if len(vals) == 0 {
		return
	}
	if allFinite(vals) {
		R.Min = math.Min(R.Min, floats.Min(vals))
		R.Max = math.Max(R.Max, floats.Max(vals))
		return
	}
	for _, v := range vals {
		if !finite(v) {
			continue
		}
		if v < R.Min {
			R.Min = v
		}
		if v > R.Max {
			R.Max = v
		}
	}
}

// Valid returns true if at least one value has been added since the last reset.
func (R AggregateRange) Valid() bool {
	return R.Min <= R.Max
}

// Span returns Max-Min, or 0 for an empty range.
func (R AggregateRange) Span() float64 {
	if !R.Valid() {
		return 0
	}
	return R.Max - R.Min
}

// Normalize maps v into [0,1] according to the range. Values outside the range
// are clamped. An empty or zero-width range, or a non-finite v, gives 0.
func (R AggregateRange) Normalize(v float64) float64 {
	span := R.Span()
	if span == 0 || !finite(v) {
		return 0
	}
	n := (v - R.Min) / span
	return math.Max(0, math.Min(1, n))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func allFinite(vals []float64) bool {
	if floats.HasNaN(vals) {
		return false
	}
	for _, v := range vals {
		if math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
