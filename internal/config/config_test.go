package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connect3/internal/board"
	"connect3/internal/eval"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
board: large
budget: 750ms
weights: [4, 0.5, 1, 2]
trainer:
  stalemate_threshold: 3
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, board.Large, cfg.Size)
	assert.Equal(t, 750*time.Millisecond, cfg.Budget.Std())
	assert.Equal(t, eval.Weights{4, 0.5, 1, 2}, cfg.Weights)
	assert.Equal(t, 3, cfg.Trainer.StalemateThreshold)

	// Untouched fields keep their defaults.
	def := Default()
	assert.Equal(t, def.PlyCap, cfg.PlyCap)
	assert.Equal(t, def.DBPath, cfg.DBPath)
	assert.Equal(t, def.Tuner, cfg.Tuner)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"unknown board":  "board: medium",
		"bad duration":   "budget: soon",
		"short weights":  "weights: [1, 2]",
		"zero ply cap":   "ply_cap: 0",
		"malformed yaml": "board: [unterminated",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())
	assert.Equal(t, board.Small, cfg.Size)
}
