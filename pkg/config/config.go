// Package config loads the configurator settings file. Every field is
// optional; anything the file leaves out keeps its default.
//
// Example:
//
//	tuning:
//	  sensitivity: 0.015
//	limits:
//	  height_mm: {min: 300, max: 12000}
//	render:
//	  kernel: sdfx
//	  mesh_cells: 120
//	server:
//	  addr: ":8080"
//	script:
//	  timeout: 2s
//	log:
//	  level: debug
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chazu/vesselkit/pkg/engine"
	"github.com/chazu/vesselkit/pkg/placement"
	"github.com/chazu/vesselkit/pkg/vessel"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Render selects the solid kernel and its resolution.
type Render struct {
	Kernel    string `yaml:"kernel" json:"kernel"`
	MeshCells int    `yaml:"mesh_cells" json:"meshCells"`
}

// Server holds the HTTP listener settings.
type Server struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Script bounds script evaluation.
type Script struct {
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// EngineOptions returns the engine options for these settings.
func (s Script) EngineOptions() []engine.Option {
	return []engine.Option{engine.WithTimeout(s.Timeout)}
}

// Log holds logger settings. Format is "console" or "json".
type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Config is the root of the settings file.
type Config struct {
	Tuning placement.Tuning `yaml:"tuning" json:"tuning"`
	Limits vessel.Limits    `yaml:"limits" json:"limits"`
	Render Render           `yaml:"render" json:"render"`
	Server Server           `yaml:"server" json:"server"`
	Script Script           `yaml:"script" json:"script"`
	Log    Log              `yaml:"log" json:"log"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Tuning: placement.DefaultTuning(),
		Limits: vessel.DefaultLimits(),
		Render: Render{Kernel: "sdfx", MeshCells: 120},
		Server: Server{Addr: ":8080"},
		Script: Script{Timeout: engine.DefaultTimeout},
		Log:    Log{Level: "info", Format: "console"},
	}
}

// Load reads a settings file from disk.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader parses settings from r over the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that cannot be honoured. Numeric tuning values
// are not checked here; the placement controller replaces bad ones with
// defaults.
func (c *Config) Validate() error {
	switch c.Render.Kernel {
	case "", "sdfx", "manifold":
	default:
		return fmt.Errorf("unknown render kernel %q", c.Render.Kernel)
	}
	if c.Render.MeshCells < 0 {
		return fmt.Errorf("render.mesh_cells must not be negative, got %d", c.Render.MeshCells)
	}
	if c.Script.Timeout < 0 {
		return fmt.Errorf("script.timeout must not be negative, got %s", c.Script.Timeout)
	}
	if _, err := c.Log.ParseLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// ParseLevel returns the zerolog level, defaulting to info.
func (l Log) ParseLevel() (zerolog.Level, error) {
	if l.Level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(l.Level)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	return lvl, nil
}

// NewLogger builds a logger writing to w in the configured format.
func (l Log) NewLogger(w io.Writer) zerolog.Logger {
	lvl, _ := l.ParseLevel()
	if l.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
