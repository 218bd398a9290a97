package main

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	kin "github.com/molviz/kinetraj"
	"github.com/molviz/kinetraj/store"
	"github.com/molviz/kinetraj/traj/xtc"
	"gonum.org/v1/gonum/spatial/r3"
)

// writeInputs writes a 12-atom system that drifts along x for 6 frames.
func writeInputs(Te *testing.T, dir string) (string, string) {
	top := &kin.Topology{Title: "drift", Box: [3]float64{5, 5, 5}}
	for i := 0; i < 12; i++ {
		top.Atoms = append(top.Atoms, &kin.Atom{Name: fmt.Sprintf("O%d", i), MolName: "SOL", MolID: i/3 + 1, ID: i + 1})
	}
	gro := filepath.Join(dir, "drift.gro.gz")
	out, err := kin.CreateTarget(gro)
	if err != nil {
		Te.Fatal(err)
	}
	if err := kin.WriteGro(out, top, make([]r3.Vec, 12), top.Box); err != nil {
		Te.Fatal(err)
	}
	out.Close()
	name := filepath.Join(dir, "drift.xtc")
	w, err := xtc.NewWriter(name, 12)
	if err != nil {
		Te.Fatal(err)
	}
	f := kin.NewFrame(12)
	f.Box = [9]float64{5, 0, 0, 0, 5, 0, 0, 0, 5}
	for j := 0; j < 6; j++ {
		f.Step, f.Time = j*100, float64(j)
		for i := range f.Coords {
			x := math.Mod(0.5+float64(i)*0.3+float64(j)*0.1*float64(i%3+1), 5)
			f.Coords[i] = r3.Vec{X: x, Y: 1 + 0.2*float64(i), Z: 2}
		}
		if err := w.WNext(f); err != nil {
			Te.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		Te.Fatal(err)
	}
	return gro, name
}

func TestRun(Te *testing.T) {
	fmt.Println("CLI run test")
	dir := Te.TempDir()
	gro, traj := writeInputs(Te, dir)
	conf := DefaultConf()
	conf.Gro, conf.Xtc = gro, traj
	conf.Residues = true
	conf.Dump = []int{1}
	conf.Chart = true
	conf.Plot = filepath.Join(dir, "drift")
	conf.Hist = 4
	conf.StfOut = filepath.Join(dir, "out.stf")
	conf.XtcOut = filepath.Join(dir, "out.xtc")
	conf.GroOut = filepath.Join(dir, "last.gro")
	if err := conf.Check(); err != nil {
		Te.Fatal(err)
	}
	if err := run(conf); err != nil {
		Te.Fatal(err)
	}
	for _, name := range []string{"drift_velocity.png", "drift_pathlength_hist.png", "drift_paths.png", "out.stf", "out.xtc", "last.gro"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			Te.Error(err)
		}
	}
	S := store.New()
	if err := S.LoadData(conf.GroOut, conf.XtcOut); err != nil {
		Te.Fatal(err)
	}
	if S.Len() != 12 || S.Frames() != 6 {
		Te.Errorf("re-read %d atoms, %d frames", S.Len(), S.Frames())
	}
	conf.Dump = []int{40}
	if err := run(conf); err == nil {
		Te.Error("dumping atom 40 of 12 should fail")
	}
}

func TestReport(Te *testing.T) {
	dir := Te.TempDir()
	gro, traj := writeInputs(Te, dir)
	S := store.New()
	if err := S.LoadData(gro, traj); err != nil {
		Te.Fatal(err)
	}
	S.ComputeAll()
	var b bytes.Buffer
	if err := writeReport(&b, S, kin.Metrics[:], false); err != nil {
		Te.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{"system: drift", "atoms: 12 frames: 6", "pathlength", "curvature", "velocity", "median"} {
		if !strings.Contains(out, want) {
			Te.Errorf("report lacks %q:\n%s", want, out)
		}
	}
	means, err := meanPerFrame(S, kin.Velocity)
	if err != nil || len(means) != 6 {
		Te.Fatalf("means %v, %v", means, err)
	}
	if math.Abs(means[0]-means[1]) > 1e-9 {
		Te.Errorf("the first two velocities should be equal: %v", means)
	}
}

func TestSummarize(Te *testing.T) {
	s := summarize([]float64{4, 1, math.NaN(), 3, 2, math.Inf(1)})
	if s.N != 4 || s.Mean != 2.5 || s.Median != 2 {
		Te.Errorf("summary %+v", s)
	}
	if s := summarize([]float64{7}); s.Std != 0 || s.Mean != 7 {
		Te.Errorf("single value summary %+v", s)
	}
	if s := summarize(nil); s.N != 0 {
		Te.Errorf("empty summary %+v", s)
	}
}
