// Command kinetraj loads a molecular dynamics trajectory, unwraps it and
// reports the kinematics of its atoms.
//
// Usage
//
//	kinetraj [flags]
//	kinetraj -config run.toml [flags]
//
// A TOML or YAML config file can give any of the parameters. Flags given
// on the command line override the file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	kin "github.com/molviz/kinetraj"
	"github.com/molviz/kinetraj/kinplot"
	"github.com/molviz/kinetraj/store"
	"github.com/molviz/kinetraj/traj/stf"
	"github.com/molviz/kinetraj/traj/xtc"
)

// Atoms plotted when no atoms are selected with -dump.
const maxPlotted = 10

func main() {
	log.SetFlags(0)
	log.SetPrefix("kinetraj: ")
	def := DefaultConf()
	cfgname := flag.String("config", "", "TOML or YAML config file")
	gro := flag.String("gro", "", "topology (.gro) file")
	xtcname := flag.String("xtc", "", "trajectory (.xtc) file")
	metrics := flag.String("metrics", "", "comma-separated metrics to compute (pathlength,curvature,velocity), all by default")
	scale := flag.Float64("scale", def.VelocityScale, "velocity scale factor")
	residues := flag.Bool("residues", false, "list the residues")
	dump := flag.String("dump", "", "comma-separated 0-based indexes of atoms to print")
	chart := flag.Bool("chart", false, "draw a terminal chart of the mean of each metric per frame")
	plot := flag.String("plot", "", "prefix for PNG plots")
	hist := flag.Int("hist", 0, "number of histogram bins, 0 for no histograms")
	stfout := flag.String("stfout", "", "write the unwrapped trajectory to this STF file")
	xtcout := flag.String("xtcout", "", "write the unwrapped trajectory to this xtc file")
	groout := flag.String("groout", "", "write the last unwrapped frame to this gro file")
	prec := flag.Float64("prec", def.Precision, "precision of the xtc output")
	verbose := flag.Bool("verbose", false, "print diagnostic events")
	flag.Parse()

	conf := def
	var err error
	if *cfgname != "" {
		conf, err = ParseConfig(*cfgname)
		if err != nil {
			Fatal(err)
		}
	}
	var ferr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "gro":
			conf.Gro = *gro
		case "xtc":
			conf.Xtc = *xtcname
		case "metrics":
			conf.Metrics = splitList(*metrics)
		case "scale":
			conf.VelocityScale = *scale
		case "residues":
			conf.Residues = *residues
		case "dump":
			conf.Dump, ferr = parseIndexes(*dump)
		case "chart":
			conf.Chart = *chart
		case "plot":
			conf.Plot = *plot
		case "hist":
			conf.Hist = *hist
		case "stfout":
			conf.StfOut = *stfout
		case "xtcout":
			conf.XtcOut = *xtcout
		case "groout":
			conf.GroOut = *groout
		case "prec":
			conf.Precision = *prec
		case "verbose":
			conf.Verbose = *verbose
		}
	})
	if ferr != nil {
		Fatal(ferr)
	}
	if err := conf.Check(); err != nil {
		Fatal(err)
	}
	if err := run(conf); err != nil {
		Fatal(err)
	}
}

// Fatal prints an error on the standard error and exits with a non-zero status.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	os.Exit(1)
}

func splitList(s string) []string {
	var ret []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			ret = append(ret, f)
		}
	}
	return ret
}

func parseIndexes(s string) ([]int, error) {
	fields := splitList(s)
	ret := make([]int, 0, len(fields))
	for _, f := range fields {
		i, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("bad atom index %q: %w", f, err)
		}
		ret = append(ret, i)
	}
	return ret, nil
}

// run does everything conf asks for. conf must have been checked.
func run(conf *Config) error {
	metrics, err := conf.ParsedMetrics()
	if err != nil {
		return err
	}
	S := store.New()
	S.VelocityScale = conf.VelocityScale
	S.Verbose = conf.Verbose
	if err := S.LoadData(conf.Gro, conf.Xtc); err != nil {
		return err
	}
	for _, m := range metrics {
		if err := S.Compute(m); err != nil {
			return err
		}
	}
	if err := writeReport(os.Stdout, S, metrics, conf.Chart); err != nil {
		return err
	}
	if conf.Residues {
		idx := S.CreateResidueIndex()
		fmt.Printf("\n%d residues\n", idx.Len())
		for _, r := range idx.Residues() {
			fmt.Println(r.Describe(S.Atoms()))
		}
	}
	for _, i := range conf.Dump {
		if i >= S.Len() {
			return fmt.Errorf("atom %d requested, %d atoms loaded", i, S.Len())
		}
		fmt.Println()
		if err := S.Atom(i).WriteTable(os.Stdout); err != nil {
			return err
		}
	}
	if err := plots(conf, S, metrics); err != nil {
		return err
	}
	return export(conf, S)
}

// plots draws the PNG files conf asks for.
func plots(conf *Config, S *store.Store, metrics []kin.Metric) error {
	if conf.Plot == "" || S.Frames() == 0 {
		return nil
	}
	sel := conf.Dump
	if len(sel) == 0 {
		for i := 0; i < S.Len() && i < maxPlotted; i++ {
			sel = append(sel, i)
		}
	}
	title := "system"
	if top := S.Topology(); top != nil && top.Title != "" {
		title = top.Title
	}
	for _, m := range metrics {
		if err := kinplot.Series(S.Atoms(), m, sel, fmt.Sprintf("%s: %s", title, m), conf.Plot+"_"+m.String()); err != nil {
			return err
		}
		if conf.Hist == 0 {
			continue
		}
		vals, err := population(S, m)
		if err != nil {
			return err
		}
		if err := kinplot.Histogram(vals, S.Range(m), conf.Hist, fmt.Sprintf("%s: %s", title, m), conf.Plot+"_"+m.String()+"_hist"); err != nil {
			return err
		}
	}
	atoms := make([]*kin.Atom, len(sel))
	for i, j := range sel {
		atoms[i] = S.Atom(j)
	}
	return kinplot.Paths(atoms, []int{0}, title+": xy paths", conf.Plot+"_paths")
}

// export writes the unwrapped system to the files conf names.
func export(conf *Config, S *store.Store) error {
	if conf.StfOut != "" {
		header := map[string]string{"loadid": S.LoadID().String()}
		if top := S.Topology(); top != nil {
			header["title"] = top.Title
		}
		w, err := stf.NewWriter(conf.StfOut, S.Len(), header)
		if err != nil {
			return err
		}
		_, err = S.Export(w)
		if err2 := w.Close(); err == nil {
			err = err2
		}
		if err != nil {
			return err
		}
	}
	if conf.XtcOut != "" {
		w, err := xtc.NewWriter(conf.XtcOut, S.Len())
		if err != nil {
			return err
		}
		w.Precision = float32(conf.Precision)
		_, err = S.Export(w)
		if err2 := w.Close(); err == nil {
			err = err2
		}
		if err != nil {
			return err
		}
	}
	if conf.GroOut != "" {
		return writeLastFrame(conf.GroOut, S)
	}
	return nil
}

// writeLastFrame writes the topology with the last unwrapped positions, or
// the origin for every atom if no frames were loaded.
func writeLastFrame(name string, S *store.Store) error {
	f := kin.NewFrame(S.Len())
	if S.Frames() > 0 {
		if err := S.Frame(S.Frames()-1, f); err != nil {
			return err
		}
	}
	out, err := kin.CreateTarget(name)
	if err != nil {
		return err
	}
	err = kin.WriteGro(out, S.Topology(), f.Coords, S.SimBox())
	if err2 := out.Close(); err == nil {
		err = err2
	}
	return err
}
