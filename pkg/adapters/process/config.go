package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes how to launch the evaluator process.
type Config struct {
	Command string            `yaml:"command" json:"command"`
	Args    []string          `yaml:"args" json:"args"`
	Env     map[string]string `yaml:"env" json:"env"`
	Dir     string            `yaml:"dir" json:"dir"`

	// Timeout bounds a single execution. Zero means no limit beyond the caller's context.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// LoadConfig reads an evaluator configuration file (YAML or JSON).
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read evaluator config: %w", err)
	}

	var cfg Config
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		var raw struct {
			Config
			Timeout string `json:"timeout"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		cfg = raw.Config
		if raw.Timeout != "" {
			if cfg.Timeout, err = time.ParseDuration(raw.Timeout); err != nil {
				return Config{}, fmt.Errorf("invalid timeout in %s: %w", path, err)
			}
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if cfg.Command == "" {
		return Config{}, fmt.Errorf("evaluator config %s: command is required", path)
	}
	return cfg, nil
}
