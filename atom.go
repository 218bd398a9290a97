/*
 * atom.go, part of kinetraj.
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
	"bufio"
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r3"
)

// Atom contains the identity of one particle, as read from the topology,
// plus its time series. Trajectory holds unwrapped positions, one per frame,
// and StepTime the matching step times. The derived series are empty until the
// corresponding metric is computed, after which they have one value per frame.
type Atom struct {
	Name    string
	MolName string //name of the parent residue
	MolID   int    //id of the parent residue, as given in the topology
	ID      int    //1-based position in the topology

	Trajectory    []r3.Vec
	StepTime      []int
	PathLength    []float64
	PathCurvature []float64
	Velocity      []float64
}

// Copy returns a copy of the atom's identity, without time series.
func (N *Atom) Copy() *Atom {
	return &Atom{Name: N.Name, MolName: N.MolName, MolID: N.MolID, ID: N.ID}
}

// AddTimeStep appends one position and its step time.
func (N *Atom) AddTimeStep(pos r3.Vec, step int) {
	N.Trajectory = append(N.Trajectory, pos)
	N.StepTime = append(N.StepTime, step)
}

// Frames returns the number of frames stored for the atom.
func (N *Atom) Frames() int {
	return len(N.Trajectory)
}

// Series returns the derived series for the metric m, which may be empty if it has
// not been computed.
func (N *Atom) Series(m Metric) []float64 {
	switch m {
	case PathLength:
		return N.PathLength
	case Curvature:
		return N.PathCurvature
	case Velocity:
		return N.Velocity
	}
	return nil
}

// SetSeries replaces the derived series for the metric m.
func (N *Atom) SetSeries(m Metric, s []float64) {
	switch m {
	case PathLength:
		N.PathLength = s
	case Curvature:
		N.PathCurvature = s
	case Velocity:
		N.Velocity = s
	}
}

// ClearDerived drops all derived series.
func (N *Atom) ClearDerived() {
	N.PathLength = nil
	N.PathCurvature = nil
	N.Velocity = nil
}

func (N *Atom) String() string {
	return fmt.Sprintf("%s %d %s (%d frames)", N.MolName, N.MolID, N.Name, len(N.Trajectory))
}

// WriteTable writes one tab-separated line per frame, with the frame
// index, step time, position and whatever derived values are present.
func (N *Atom) WriteTable(w io.Writer) error {
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "# %s\n", N)
	fmt.Fprintf(b, "frame\tstep\tx\ty\tz")
	for _, m := range Metrics {
		if len(N.Series(m)) == len(N.Trajectory) && len(N.Trajectory) > 0 {
			fmt.Fprintf(b, "\t%s", m)
		}
	}
	fmt.Fprintln(b)
	for i := range N.Trajectory {
		N.writeRow(b, i)
	}
	return b.Flush()
}

// WriteFrame writes the tab-separated line for frame i, without a header.
func (N *Atom) WriteFrame(w io.Writer, i int) error {
	if i < 0 || i >= len(N.Trajectory) {
		return fmt.Errorf("frame %d out of range for atom %s with %d frames", i, N.Name, len(N.Trajectory))
	}
	b := bufio.NewWriter(w)
	N.writeRow(b, i)
	return b.Flush()
}

func (N *Atom) writeRow(b *bufio.Writer, i int) {
	p := N.Trajectory[i]
	fmt.Fprintf(b, "%d\t%d\t%.4f\t%.4f\t%.4f", i, N.StepTime[i], p.X, p.Y, p.Z)
	for _, m := range Metrics {
		s := N.Series(m)
		if len(s) == len(N.Trajectory) {
			fmt.Fprintf(b, "\t%.6g", s[i])
		}
	}
	fmt.Fprintln(b)
}
