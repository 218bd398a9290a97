package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/guptarohit/asciigraph"
	kin "github.com/molviz/kinetraj"
	"github.com/molviz/kinetraj/store"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// summary holds descriptive statistics of a set of values.
type summary struct {
	N                int
	Mean, Std        float64
	Median, Q10, Q90 float64
}

// summarize returns the statistics of the finite values in vals.
func summarize(vals []float64) summary {
	x := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			x = append(x, v)
		}
	}
	s := summary{N: len(x)}
	if s.N == 0 {
		return s
	}
	sort.Float64s(x)
	s.Mean, s.Std = stat.MeanStdDev(x, nil)
	if s.N == 1 {
		s.Std = 0
	}
	s.Median = stat.Quantile(0.5, stat.Empirical, x, nil)
	s.Q10 = stat.Quantile(0.1, stat.Empirical, x, nil)
	s.Q90 = stat.Quantile(0.9, stat.Empirical, x, nil)
	return s
}

// population returns the values of m that make up its range: the total
// path length of each atom, or every value of every atom for the other
// metrics.
func population(S *store.Store, m kin.Metric) ([]float64, error) {
	if m == kin.PathLength {
		if S.Frames() == 0 {
			return nil, nil
		}
		return S.Values(m, -1)
	}
	if !S.Computed(m) {
		return nil, fmt.Errorf("%v has not been computed", m)
	}
	ret := make([]float64, 0, S.Len()*S.Frames())
	for _, at := range S.Atoms() {
		ret = append(ret, at.Series(m)...)
	}
	return ret, nil
}

// meanPerFrame returns, for each frame, the mean of m over all atoms.
func meanPerFrame(S *store.Store, m kin.Metric) ([]float64, error) {
	ret := make([]float64, S.Frames())
	for i := range ret {
		vals, err := S.Values(m, i)
		if err != nil {
			return nil, err
		}
		ret[i] = stat.Mean(vals, nil)
	}
	return ret, nil
}

// writeReport prints the loaded system and the statistics of each metric
// in metrics, which must have been computed. If chart is true, a terminal
// chart of the per-frame mean of each metric follows its statistics.
func writeReport(w io.Writer, S *store.Store, metrics []kin.Metric, chart bool) error {
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "load %s\n", S.LoadID())
	if top := S.Topology(); top != nil && top.Title != "" {
		fmt.Fprintf(b, "system: %s\n", top.Title)
	}
	fmt.Fprintf(b, "atoms: %d frames: %d\n", S.Len(), S.Frames())
	box := S.SimBox()
	fmt.Fprintf(b, "box (nm):\n%v\n", mat.Formatted(mat.NewDiagDense(3, box[:]), mat.Prefix(""), mat.Squeeze()))
	for _, m := range metrics {
		vals, err := population(S, m)
		if err != nil {
			return err
		}
		r := S.Range(m)
		s := summarize(vals)
		fmt.Fprintf(b, "\n%s\n", m)
		if !r.Valid() {
			fmt.Fprintf(b, "  range: empty\n")
			continue
		}
		fmt.Fprintf(b, "  range: [%.6g, %.6g]\n", r.Min, r.Max)
		fmt.Fprintf(b, "  n: %d mean: %.6g std: %.6g\n", s.N, s.Mean, s.Std)
		fmt.Fprintf(b, "  q10: %.6g median: %.6g q90: %.6g\n", s.Q10, s.Median, s.Q90)
		if chart && S.Frames() > 1 {
			means, err := meanPerFrame(S, m)
			if err != nil {
				return err
			}
			fmt.Fprintln(b, asciigraph.Plot(means, asciigraph.Height(8), asciigraph.Width(60),
				asciigraph.Caption(fmt.Sprintf("mean %s per frame", m))))
		}
	}
	return b.Flush()
}
