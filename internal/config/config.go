// Package config loads the YAML configuration shared by the CLI, the
// trainer and the tuner. Every field has a default; a config file only
// overrides what it mentions.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"connect3/internal/board"
	"connect3/internal/eval"
)

// Duration wraps time.Duration so YAML can say "500ms" or "2s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Trainer holds the self-play training knobs.
type Trainer struct {
	BudgetStep         Duration `yaml:"budget_step"`
	StalemateThreshold int      `yaml:"stalemate_threshold"`
	CheckpointEvery    int      `yaml:"checkpoint_every"`
	MaxGames           int      `yaml:"max_games"`
}

// Tuner holds the weight tuning knobs.
type Tuner struct {
	Iterations int      `yaml:"iterations"`
	Patience   int      `yaml:"patience"`
	Rate       float64  `yaml:"rate"`
	Step       float64  `yaml:"step"`
	Seed       int64    `yaml:"seed"`
	Budget     Duration `yaml:"budget"`
}

// Relay holds the remote play settings.
type Relay struct {
	Addr    string   `yaml:"addr"`
	Timeout Duration `yaml:"timeout"`
}

// Config is the full application configuration.
type Config struct {
	BoardSize string       `yaml:"board"` // "small" or "large"
	DBPath    string       `yaml:"db_path"`
	Budget    Duration     `yaml:"budget"` // per-move think time
	PlyCap    int          `yaml:"ply_cap"`
	Weights   eval.Weights `yaml:"weights"`
	Trainer   Trainer      `yaml:"trainer"`
	Tuner     Tuner        `yaml:"tuner"`
	Relay     Relay        `yaml:"relay"`

	// Size is the parsed BoardSize, filled in by Load and Default.
	Size board.Size `yaml:"-"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		BoardSize: "small",
		DBPath:    "connect3.db",
		Budget:    Duration(2 * time.Second),
		PlyCap:    200,
		Weights:   eval.DefaultWeights(),
		Trainer: Trainer{
			BudgetStep:         Duration(500 * time.Millisecond),
			StalemateThreshold: 10,
			CheckpointEvery:    20,
		},
		Tuner: Tuner{
			Iterations: 50,
			Patience:   10,
			Rate:       0.25,
			Step:       2,
			Budget:     Duration(200 * time.Millisecond),
		},
		Relay: Relay{
			Addr:    "127.0.0.1:4242",
			Timeout: Duration(5 * time.Second),
		},
		Size: board.Small,
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	sz, err := board.ParseSize(c.BoardSize)
	if err != nil {
		return err
	}
	c.Size = sz
	if c.Budget <= 0 {
		return fmt.Errorf("budget must be positive, got %s", c.Budget.Std())
	}
	if c.PlyCap <= 0 {
		return fmt.Errorf("ply_cap must be positive, got %d", c.PlyCap)
	}
	if len(c.Weights) != len(eval.DefaultWeights()) {
		return fmt.Errorf("weights needs %d values, got %d",
			len(eval.DefaultWeights()), len(c.Weights))
	}
	return nil
}
