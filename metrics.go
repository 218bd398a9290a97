/*
 * metrics.go, part of kinetraj.
 *
 * Copyright 2026 The kinetraj Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package kinetraj

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Metric selects one of the derived kinematic series.
type Metric int

const (
	PathLength Metric = iota
	Curvature
	Velocity
	NumMetrics int = iota
)

// Metrics lists every Metric, in a fixed order.
var Metrics = [NumMetrics]Metric{PathLength, Curvature, Velocity}

var metricNames = [NumMetrics]string{"pathlength", "curvature", "velocity"}

func (m Metric) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Metric(%d)", int(m))
	}
	return metricNames[m]
}

// Valid returns true if m is one of the defined metrics.
func (m Metric) Valid() bool {
	return m >= 0 && int(m) < NumMetrics
}

// ParseMetric returns the Metric named s. Case and the separators "-", "_"
// and " " are ignored, so "Path Length" and "path_length" are both accepted.
func ParseMetric(s string) (Metric, error) {
	norm := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
	for i, n := range metricNames {
		if n == norm {
			return Metric(i), nil
		}
	}
	switch norm {
	case "speed":
		return Velocity, nil
	case "length", "path":
		return PathLength, nil
	}
	return 0, fmt.Errorf("unknown metric %q", s)
}

// PathLengths puts in dst the cumulative distance traveled along traj,
// starting at 0, and returns it. dst is reallocated if it doesn't have the
// length of traj.
func PathLengths(traj []r3.Vec, dst []float64) []float64 {
	dst = resize(dst, len(traj))
	if len(traj) == 0 {
		return dst
	}
	dst[0] = 0
	for i := 1; i < len(traj); i++ {
		dst[i] = dst[i-1] + r3.Norm(r3.Sub(traj[i], traj[i-1]))
	}
	return dst
}

// displacementAngles returns the polar angle of d, measured from the z axis,
// and its azimuth, from the single-argument arctangent of dy/dx. ok is false
// if either angle is not a finite number (zero displacement, or dy=dx=0).
func displacementAngles(d r3.Vec) (theta, phi float64, ok bool) {
	theta = math.Acos(d.Z / r3.Norm(d))
	phi = math.Atan(d.Y / d.X)
	ok = !math.IsNaN(theta) && !math.IsInf(theta, 0) && !math.IsNaN(phi) && !math.IsInf(phi, 0)
	return theta, phi, ok
}

// Curvatures puts in dst the change in direction of motion along traj and
// returns it. The value at frame i is the sum of the absolute changes of the
// polar and azimuthal angles of the displacement into frame i, with respect
// to the last displacement that had well-defined angles. The first frame,
// the first such displacement and every displacement without well-defined
// angles contribute 0.
func Curvatures(traj []r3.Vec, dst []float64) []float64 {
	dst = resize(dst, len(traj))
	if len(traj) == 0 {
		return dst
	}
	dst[0] = 0
	var ptheta, pphi float64
	seeded := false
	for i := 1; i < len(traj); i++ {
		theta, phi, ok := displacementAngles(r3.Sub(traj[i], traj[i-1]))
		if !ok || !seeded {
			dst[i] = 0
			if ok {
				ptheta, pphi = theta, phi
				seeded = true
			}
			continue
		}
		dst[i] = math.Abs(theta-ptheta) + math.Abs(phi-pphi)
		ptheta, pphi = theta, phi
	}
	return dst
}

// Velocities puts in dst the speed along traj, scaled by scale, and returns it.
// steps holds the step time of each frame. The speed at frame i is computed
// from the displacement between frames i-1 and i; frame 0 gets the value of
// frame 1. A zero time step gives a speed of 0, and so does a single-frame
// trajectory.
func Velocities(traj []r3.Vec, steps []int, scale float64, dst []float64) []float64 {
	dst = resize(dst, len(traj))
	if len(traj) == 0 {
		return dst
	}
	dst[0] = 0
	for i := 1; i < len(traj); i++ {
		dt := float64(steps[i] - steps[i-1])
		if dt == 0 {
			dst[i] = 0
			continue
		}
		dst[i] = scale * r3.Norm(r3.Sub(traj[i], traj[i-1])) / dt
	}
	if len(traj) > 1 {
		dst[0] = dst[1]
	}
	return dst
}

func resize(s []float64, n int) []float64 {
	if len(s) == n {
		return s
	}
	return make([]float64, n)
}
