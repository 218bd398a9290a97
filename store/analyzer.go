package store

import (
	"fmt"

	kin "github.com/molviz/kinetraj"
)

// analysis keeps, per metric, whether it has been computed for the current
// population and its population-wide range.
type analysis struct {
	done   [kin.NumMetrics]bool
	ranges [kin.NumMetrics]kin.AggregateRange
}

func (A *analysis) reset() {
	for i := range A.done {
		A.done[i] = false
		A.ranges[i].Reset()
	}
}

var computeMessages = [kin.NumMetrics]string{
	kin.PathLength: "Calculating Path Length",
	kin.Curvature:  "Calculating Path Curvature",
	kin.Velocity:   "Calculating Velocity",
}

// Compute fills the series for metric m in every atom, and the range of m.
// Computing a metric again before the next load or Clear does nothing.
func (S *Store) Compute(m kin.Metric) error {
	if !m.Valid() {
		return fmt.Errorf("can't compute %v", m)
	}
	if S.analysis.done[m] {
		return nil
	}
	S.emit(computeMessages[m], 0)
	r := kin.NewAggregateRange()
	for _, at := range S.atoms {
		var s []float64
		switch m {
		case kin.PathLength:
			s = kin.PathLengths(at.Trajectory, at.PathLength)
			//only the total distance of each atom counts for the range
			if len(s) > 0 {
				r.Add(s[len(s)-1])
			}
		case kin.Curvature:
			s = kin.Curvatures(at.Trajectory, at.PathCurvature)
			r.Add(s...)
		case kin.Velocity:
			s = kin.Velocities(at.Trajectory, at.StepTime, S.VelocityScale, at.Velocity)
			r.Add(s...)
		}
		at.SetSeries(m, s)
	}
	S.analysis.ranges[m] = r
	S.analysis.done[m] = true
	return nil
}

// ComputeAll computes every metric.
func (S *Store) ComputeAll() {
	for _, m := range kin.Metrics {
		S.Compute(m) //can't fail for a valid metric
	}
}

// Computed returns true if m has been computed for the current population.
func (S *Store) Computed(m kin.Metric) bool {
	return m.Valid() && S.analysis.done[m]
}

// Range returns the population-wide range of m. It is empty (+Inf, -Inf)
// until m is computed.
func (S *Store) Range(m kin.Metric) kin.AggregateRange {
	if !m.Valid() {
		return kin.NewAggregateRange()
	}
	return S.analysis.ranges[m]
}

// Values returns the value of m for every atom at the given frame. For path
// length, a negative frame gives the final (total) value of each atom, the
// quantity the range of path length is built from. m must have been computed.
func (S *Store) Values(m kin.Metric, frame int) ([]float64, error) {
	if !S.Computed(m) {
		return nil, fmt.Errorf("%v has not been computed", m)
	}
	if frame < 0 && m == kin.PathLength {
		frame = S.frames - 1
	}
	if frame < 0 || frame >= S.frames {
		return nil, fmt.Errorf("frame %d out of range, %d frames loaded", frame, S.frames)
	}
	ret := make([]float64, len(S.atoms))
	for i, at := range S.atoms {
		ret[i] = at.Series(m)[frame]
	}
	return ret, nil
}

// Normalize maps v into [0,1] using the range of m.
func (S *Store) Normalize(m kin.Metric, v float64) float64 {
	return S.Range(m).Normalize(v)
}
