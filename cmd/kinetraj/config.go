package main

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	kin "github.com/molviz/kinetraj"
	"gopkg.in/yaml.v3"
)

// Config holds the parameters of a run.
type Config struct {
	// Input files. Either can be compressed (.zst, .gz, .lzw).
	Gro string `toml:"gro" yaml:"gro"`
	Xtc string `toml:"xtc" yaml:"xtc"`

	// Metrics to compute, by name. Empty means all of them.
	Metrics []string `toml:"metrics" yaml:"metrics"`
	// VelocityScale multiplies every velocity. unit: 1
	VelocityScale float64 `toml:"velocity_scale" yaml:"velocity_scale"`

	Residues bool  `toml:"residues" yaml:"residues"` // list residues
	Dump     []int `toml:"dump" yaml:"dump"`         // 0-based indexes of atoms to print as tables
	Chart    bool  `toml:"chart" yaml:"chart"`       // terminal chart of the mean of each metric

	// Plot is the prefix of the PNG files, or empty for no plots.
	Plot string `toml:"plot" yaml:"plot"`
	// Hist is the number of histogram bins, or 0 for no histograms.
	Hist int `toml:"hist" yaml:"hist"`

	// Outputs for the unwrapped system. Empty means not written.
	StfOut string `toml:"stf_out" yaml:"stf_out"`
	XtcOut string `toml:"xtc_out" yaml:"xtc_out"`
	GroOut string `toml:"gro_out" yaml:"gro_out"`
	// Precision of the xtc output. unit: 1/nm
	Precision float64 `toml:"precision" yaml:"precision"`

	Verbose bool `toml:"verbose" yaml:"verbose"`
}

// DefaultConf returns the default parameters.
func DefaultConf() *Config {
	return &Config{
		VelocityScale: 1,
		Precision:     1000,
	}
}

// ParseConfig parses the config file whose path is provided, over the
// default parameters. Files ending in .yaml or .yml are read as YAML,
// anything else as TOML.
func ParseConfig(path string) (*Config, error) {
	conf := DefaultConf()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		dec := yaml.NewDecoder(bufio.NewReader(f))
		if err := dec.Decode(conf); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	default:
		md, err := toml.DecodeFile(path, conf)
		if err != nil {
			return nil, err
		}
		if und := md.Undecoded(); len(und) > 0 {
			return nil, fmt.Errorf("%s: unknown keys %v", path, und)
		}
	}
	return conf, nil
}

// Check returns an error if a field doesn't meet the requirements.
func (c *Config) Check() error {
	if c.Gro == "" || c.Xtc == "" {
		return fmt.Errorf("both a gro and an xtc file are needed")
	}
	if _, err := c.ParsedMetrics(); err != nil {
		return err
	}
	if math.IsNaN(c.VelocityScale) || math.IsInf(c.VelocityScale, 0) {
		return fmt.Errorf("velocity scale must be finite")
	}
	if c.Hist < 0 {
		return fmt.Errorf("the number of histogram bins cannot be negative")
	}
	if c.XtcOut != "" && !(c.Precision > 0) {
		return fmt.Errorf("xtc precision must be positive")
	}
	for _, i := range c.Dump {
		if i < 0 {
			return fmt.Errorf("atom index %d is negative", i)
		}
	}
	return nil
}

// ParsedMetrics returns the metrics to compute, in the order given and
// without repetitions.
func (c *Config) ParsedMetrics() ([]kin.Metric, error) {
	if len(c.Metrics) == 0 {
		return kin.Metrics[:], nil
	}
	var seen [kin.NumMetrics]bool
	ret := make([]kin.Metric, 0, len(c.Metrics))
	for _, s := range c.Metrics {
		m, err := kin.ParseMetric(s)
		if err != nil {
			return nil, err
		}
		if !seen[m] {
			seen[m] = true
			ret = append(ret, m)
		}
	}
	return ret, nil
}
