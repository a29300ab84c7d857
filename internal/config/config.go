package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ieee0824/stablelog/harness"
	"github.com/ieee0824/stablelog/internal/reference"
)

// Config holds the harness configuration.
type Config struct {
	// Precision candidates are evaluated in: float64 or float32.
	Precision string `yaml:"precision"`
	// ReferenceBits is the oracle mantissa size.
	ReferenceBits uint `yaml:"reference_bits"`
	// Format of the report: text, tsv or yaml.
	Format string `yaml:"format"`

	Experiments []ExperimentConfig `yaml:"experiments"`

	Logging LoggingConfig `yaml:"logging"`
}

// ExperimentConfig selects a named experiment and optionally overrides
// its default sweep.
type ExperimentConfig struct {
	Name  string         `yaml:"name"`
	Sweep *harness.Sweep `yaml:"sweep,omitempty"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the configuration that reproduces the reference sweeps.
func Default() *Config {
	return &Config{
		Precision:     string(harness.Float64),
		ReferenceBits: reference.DefaultPrec,
		Format:        harness.FormatText,
		Experiments: []ExperimentConfig{
			{Name: harness.NormalizeName},
			{Name: harness.Log1mExpName},
			{Name: harness.Log1pExpName},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML config from path on top of Default. Unknown keys are
// rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML config data on top of Default and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field and every experiment's sweep.
func (c *Config) Validate() error {
	if _, err := harness.ParsePrecision(c.Precision); err != nil {
		return err
	}
	if c.ReferenceBits < 64 {
		return fmt.Errorf("reference_bits %d: need at least 64", c.ReferenceBits)
	}
	if _, err := harness.NewSink(c.Format, io.Discard); err != nil {
		return err
	}
	if len(c.Experiments) == 0 {
		return errors.New("no experiments configured")
	}
	for _, e := range c.Experiments {
		_, sweep, err := harness.Lookup(e.Name)
		if err != nil {
			return err
		}
		if e.Sweep != nil {
			sweep = *e.Sweep
		}
		if err := sweep.Validate(); err != nil {
			return fmt.Errorf("experiment %s: %w", e.Name, err)
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}

// Build constructs the configured experiments against o.
func (c *Config) Build(o harness.Oracle) ([]harness.Experiment, error) {
	out := make([]harness.Experiment, 0, len(c.Experiments))
	for _, e := range c.Experiments {
		build, sweep, err := harness.Lookup(e.Name)
		if err != nil {
			return nil, err
		}
		if e.Sweep != nil {
			sweep = *e.Sweep
		}
		out = append(out, build(o, sweep))
	}
	return out, nil
}
