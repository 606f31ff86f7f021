package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// Flags holds command-line overrides. Zero values leave the config alone.
type Flags struct {
	Config  string
	Debug   bool
	Dim     int
	Workers int
	Listen  string
	BoxLo   Vec3Flag
	BoxHi   Vec3Flag
}

// Vec3Flag is a flag.Value holding a comma separated "x,y,z" triple.
type Vec3Flag struct {
	V     [3]float64
	Given bool
}

func (v *Vec3Flag) String() string {
	if v == nil || !v.Given {
		return ""
	}
	return fmt.Sprintf("%g,%g,%g", v.V[0], v.V[1], v.V[2])
}

// Set parses "x,y,z".
func (v *Vec3Flag) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return fmt.Errorf("want x,y,z, got %q", s)
	}
	var out [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("component %d of %q: %w", i, s, err)
		}
		out[i] = f
	}
	v.V, v.Given = out, true
	return nil
}

// RegisterFlags adds the common flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.IntVar(&f.Dim, "dim", 0, "Simulation dimension (2 or 3)")
	fs.IntVar(&f.Workers, "np", 0, "Number of ranks")
	fs.StringVar(&f.Listen, "listen", "", "Coordinator address")
	fs.Var(&f.BoxLo, "boxlo", "Simulation box lower corner x,y,z")
	fs.Var(&f.BoxHi, "boxhi", "Simulation box upper corner x,y,z")
	return f
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Dim > 0 {
		cfg.Domain.Dimension = f.Dim
	}
	if f.Workers > 0 {
		cfg.Group.Workers = f.Workers
	}
	if f.Listen != "" {
		cfg.Group.Listen = f.Listen
	}
	if f.BoxLo.Given {
		cfg.Domain.BoxLo = f.BoxLo.V
	}
	if f.BoxHi.Given {
		cfg.Domain.BoxHi = f.BoxHi.V
	}
}

// boxGiven reports whether the box was set on the command line.
func (f *Flags) boxGiven() bool {
	return f != nil && (f.BoxLo.Given || f.BoxHi.Given)
}
