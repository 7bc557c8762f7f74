// Package config loads proofweave.yaml, the file the CLI and the server read
// their evaluator, storage and listener settings from.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aretw0/proofweave/pkg/adapters/process"
	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "proofweave.yaml"

// Evaluator kinds.
const (
	EvaluatorProcess = "process"
	EvaluatorDryRun  = "dryrun"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

var validate = validator.New()

// Config is the full host configuration.
type Config struct {
	Evaluator   EvaluatorConfig      `yaml:"evaluator"`
	Mode        domain.ExecutionMode `yaml:"mode" validate:"oneof=auto manual"`
	Direction   domain.Direction     `yaml:"direction" validate:"oneof=TB LR"`
	Store       StoreConfig          `yaml:"store"`
	ProblemsDir string               `yaml:"problems_dir"`
	Catalog     string               `yaml:"catalog"`
	Server      ServerConfig         `yaml:"server"`
	Log         LogConfig            `yaml:"log"`
}

// EvaluatorConfig selects the evaluator. Process settings are only read for
// the process kind.
type EvaluatorConfig struct {
	Kind           string `yaml:"kind" validate:"oneof=process dryrun"`
	process.Config `yaml:",inline"`
}

// StoreConfig selects where session snapshots live.
type StoreConfig struct {
	Backend  string `yaml:"backend" validate:"oneof=memory file redis sqlite"`
	Path     string `yaml:"path"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
	TTL      string `yaml:"ttl"`
}

// ServerConfig holds the listener ports of `proofweave serve`.
type ServerConfig struct {
	Port        int `yaml:"port" validate:"gte=0,lte=65535"`
	MetricsPort int `yaml:"metrics_port" validate:"gte=0,lte=65535"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	Audit string `yaml:"audit"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Evaluator: EvaluatorConfig{Kind: EvaluatorDryRun},
		Mode:      domain.ModeAuto,
		Direction: domain.DirectionTB,
		Store:     StoreConfig{Backend: StoreFile, Path: ".proofweave/workspaces"},
		Server:    ServerConfig{Port: 8080, MetricsPort: 9090},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path looks for FileName in the
// working directory and falls back to the defaults when it does not exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = FileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.resolve(filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerations and the settings each choice requires.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Evaluator.Kind == EvaluatorProcess && c.Evaluator.Command == "" {
		return errors.New("invalid config: evaluator.command is required for the process evaluator")
	}
	switch c.Store.Backend {
	case StoreRedis:
		if c.Store.Address == "" {
			return errors.New("invalid config: store.address is required for the redis backend")
		}
	case StoreFile, StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("invalid config: store.path is required for the %s backend", c.Store.Backend)
		}
	}
	return nil
}

// resolve makes relative paths relative to the directory of the config file.
func (c *Config) resolve(base string) {
	for _, p := range []*string{&c.Store.Path, &c.ProblemsDir, &c.Catalog, &c.Log.Audit, &c.Evaluator.Dir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}
