package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Full(t *testing.T) {
	path := writeConfig(t, `
evaluator:
  kind: process
  command: python3
  args: ["-m", "estimates.runner"]
  env:
    PYTHONPATH: /opt/estimates
  timeout: 30s
mode: manual
direction: LR
store:
  backend: sqlite
  path: data/proofs.db
problems_dir: problems
server:
  port: 8000
  metrics_port: 0
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, EvaluatorProcess, cfg.Evaluator.Kind)
	assert.Equal(t, "python3", cfg.Evaluator.Command)
	assert.Equal(t, []string{"-m", "estimates.runner"}, cfg.Evaluator.Args)
	assert.Equal(t, "/opt/estimates", cfg.Evaluator.Env["PYTHONPATH"])
	assert.Equal(t, 30*time.Second, cfg.Evaluator.Timeout)
	assert.Equal(t, domain.ModeManual, cfg.Mode)
	assert.Equal(t, domain.DirectionLR, cfg.Direction)
	assert.Equal(t, StoreSQLite, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(dir, "data/proofs.db"), cfg.Store.Path)
	assert.Equal(t, filepath.Join(dir, "problems"), cfg.ProblemsDir)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 0, cfg.Server.MetricsPort)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "mode: manual\n"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, domain.ModeManual, cfg.Mode)
	assert.Equal(t, def.Evaluator.Kind, cfg.Evaluator.Kind)
	assert.Equal(t, def.Server, cfg.Server)
	assert.Equal(t, def.Direction, cfg.Direction)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load("nope.yaml")
	assert.Error(t, err, "an explicit path must exist")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad mode", "mode: sometimes\n", "Mode"},
		{"bad direction", "direction: RL\n", "Direction"},
		{"unknown store", "store:\n  backend: mongo\n", "Backend"},
		{"process without command", "evaluator:\n  kind: process\n", "evaluator.command"},
		{"redis without address", "store:\n  backend: redis\n", "store.address"},
		{"bad level", "log:\n  level: loud\n", "Level"},
		{"malformed", "mode: [\n", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
