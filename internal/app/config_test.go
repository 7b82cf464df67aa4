package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, float32(60), cfg.TickRate)
	assert.Equal(t, uint32(100), cfg.DefaultRunnerCount)
	assert.Equal(t, float32(10), cfg.DefaultTimeScale)
	assert.Equal(t, int64(0), cfg.Seed)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":9090\"\ndefault_runner_count: 25\nseed: 42\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, uint32(25), cfg.DefaultRunnerCount)
	assert.Equal(t, int64(42), cfg.Seed)
	// Unset keys keep their defaults.
	assert.Equal(t, float32(10), cfg.DefaultTimeScale)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: [:::"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TRACKRUNNER_ADDR", ":7070")
	t.Setenv("TRACKRUNNER_RUNNER_COUNT", "12")
	t.Setenv("TRACKRUNNER_TIME_SCALE", "20")
	t.Setenv("TRACKRUNNER_SEED", "7")

	cfg := DefaultConfig().WithEnvOverrides(nil)
	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, uint32(12), cfg.DefaultRunnerCount)
	assert.Equal(t, float32(20), cfg.DefaultTimeScale)
	assert.Equal(t, int64(7), cfg.Seed)
}

func TestEnvOverridesIgnoreInvalidValues(t *testing.T) {
	t.Setenv("TRACKRUNNER_RUNNER_COUNT", "not-a-number")
	t.Setenv("TRACKRUNNER_TIME_SCALE", "fast")

	cfg := DefaultConfig().WithEnvOverrides(nil)
	assert.Equal(t, uint32(100), cfg.DefaultRunnerCount)
	assert.Equal(t, float32(10), cfg.DefaultTimeScale)
}
