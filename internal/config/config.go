// Package config handles surftool configuration loading and management.
package config

import (
	"time"

	"github.com/Faultbox/surfread/pkg/surf"
)

// Config holds all surftool settings.
type Config struct {
	Domain  DomainConfig  `yaml:"domain"`
	Reader  ReaderConfig  `yaml:"reader"`
	Checks  ChecksConfig  `yaml:"checks"`
	Group   GroupConfig   `yaml:"group"`
	Logging LoggingConfig `yaml:"logging"`
}

// DomainConfig holds the simulation box surfaces are read into.
type DomainConfig struct {
	Dimension int        `yaml:"dimension"` // 2 or 3
	BoxLo     [3]float64 `yaml:"box_lo"`
	BoxHi     [3]float64 `yaml:"box_hi"`
}

// ReaderConfig holds surf file reading settings.
type ReaderConfig struct {
	ChunkLines int  `yaml:"chunk_lines"` // Rows broadcast per chunk
	AllowGzip  bool `yaml:"allow_gzip"`
}

// ChecksConfig holds validation settings.
type ChecksConfig struct {
	Epsilon float64 `yaml:"epsilon"` // Fraction of the shortest box edge
}

// GroupConfig holds worker group settings.
type GroupConfig struct {
	Workers        int           `yaml:"workers"`
	Listen         string        `yaml:"listen"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Domain: DomainConfig{
			Dimension: 3,
			BoxLo:     [3]float64{0, 0, 0},
			BoxHi:     [3]float64{10, 10, 10},
		},
		Reader: ReaderConfig{
			ChunkLines: 1024,
			AllowGzip:  true,
		},
		Checks: ChecksConfig{
			Epsilon: 1e-6,
		},
		Group: GroupConfig{
			Workers:        1,
			Listen:         "127.0.0.1:7400",
			ConnectTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// flatten gives a 2D domain a z range of [-0.5, 0.5] when the configured
// one does not contain 0. 2D points sit at z = 0, so z only has to straddle it.
func (d *DomainConfig) flatten() {
	if d.Dimension != 2 || (d.BoxLo[2] < 0 && d.BoxHi[2] > 0) {
		return
	}
	d.BoxLo[2], d.BoxHi[2] = -0.5, 0.5
}

// Box returns the configured simulation box, validated.
func (c *Config) Box() (surf.Box, error) {
	box := surf.Box{
		Dimension: c.Domain.Dimension,
		Lo:        c.Domain.BoxLo,
		Hi:        c.Domain.BoxHi,
	}
	if err := box.Validate(); err != nil {
		return surf.Box{}, err
	}
	return box, nil
}
