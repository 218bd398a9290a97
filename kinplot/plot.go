/*
 * plot.go, part of kinetraj.
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

// Package kinplot draws the kinematic metrics of a population of atoms
// to PNG files.
package kinplot

import (
	"fmt"
	"image/color"
	"math"

	kin "github.com/molviz/kinetraj"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Side of the square plots, in inches.
const side = 5

func basicPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

func save(p *plot.Plot, plotname string) error {
	return p.Save(side*vg.Inch, side*vg.Inch, plotname+".png")
}

// Series plots metric m against step time for the atoms with the given
// indexes, or for every atom if indexes is empty, to plotname.png. m must
// have been computed for the atoms.
func Series(atoms []*kin.Atom, m kin.Metric, indexes []int, title, plotname string) error {
	if !m.Valid() {
		return fmt.Errorf("kinplot: can't plot %v", m)
	}
	p := basicPlot(title, "time", m.String())
	var lines []interface{}
	for i, at := range atoms {
		if len(indexes) > 0 && !isInInt(indexes, i) {
			continue
		}
		s := at.Series(m)
		if len(s) != len(at.StepTime) {
			return fmt.Errorf("kinplot: %v not computed for atom %d", m, i)
		}
		pts := make(plotter.XYs, 0, len(s))
		for j, v := range s {
			if !isFinite(v) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(at.StepTime[j]), Y: v})
		}
		lines = append(lines, fmt.Sprintf("%s %d", at.Name, at.ID), pts)
	}
	if len(lines) == 0 {
		return fmt.Errorf("kinplot: no atoms to plot")
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return err
	}
	return save(p, plotname)
}

// Histogram plots the distribution of values in the given number of bins to
// plotname.png. If r is valid, the x axis spans it. Non-finite values are
// left out.
func Histogram(values []float64, r kin.AggregateRange, bins int, title, plotname string) error {
	vals := make(plotter.Values, 0, len(values))
	for _, v := range values {
		if isFinite(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return fmt.Errorf("kinplot: no finite values to plot")
	}
	p := basicPlot(title, "value", "count")
	h, err := plotter.NewHist(vals, bins)
	if err != nil {
		return err
	}
	h.FillColor = color.RGBA{B: 200, A: 255}
	p.Add(h)
	if r.Valid() && r.Span() > 0 {
		p.X.Min = r.Min
		p.X.Max = r.Max
	}
	return save(p, plotname)
}

// Paths plots the unwrapped xy path of each atom to plotname.png, with
// colors going from red to blue, and then to green, along the atom list.
// The start of the paths of the atoms in tag is marked with a triangle.
func Paths(atoms []*kin.Atom, tag []int, title, plotname string) error {
	if len(atoms) == 0 {
		return fmt.Errorf("kinplot: no atoms to plot")
	}
	p := basicPlot(title, "x (nm)", "y (nm)")
	for key, at := range atoms {
		if len(at.Trajectory) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(at.Trajectory))
		for j, v := range at.Trajectory {
			pts[j].X = v.X
			pts[j].Y = v.Y
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.Color = ramp(key, len(atoms))
		p.Add(l)
		if isInInt(tag, key) {
			s, err := plotter.NewScatter(pts[:1])
			if err != nil {
				return err
			}
			s.GlyphStyle.Shape = draw.PyramidGlyph{}
			s.GlyphStyle.Color = l.Color
			s.GlyphStyle.Radius = vg.Points(4)
			p.Add(s)
		}
	}
	return save(p, plotname)
}

// ramp returns the color of the key-th of n elements. The first half goes
// from red to blue, the second from blue to green.
func ramp(key, n int) color.RGBA {
	if n <= 1 {
		return color.RGBA{R: 255, A: 255}
	}
	f := float64(key) / float64(n-1)
	if f <= 0.5 {
		b := uint8(math.Round(510 * f))
		return color.RGBA{R: 255 - b, B: b, A: 255}
	}
	g := uint8(math.Round(510 * (f - 0.5)))
	return color.RGBA{G: g, B: 255 - g, A: 255}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
