package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "geico_arx", cfg.Program)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.EstimateTimeout.Duration())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"no program", func(c *Config) { c.Program = "" }, "program"},
		{"zero workers", func(c *Config) { c.Pipeline.Workers = 0 }, "workers"},
		{"zero estimate timeout", func(c *Config) { c.Pipeline.EstimateTimeout = 0 }, "estimate_timeout"},
		{"zero source rps", func(c *Config) { c.Recommend.SourceRPS = 0 }, "source_rps"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDurationUnmarshal(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-5s")))
	assert.Error(t, d.UnmarshalText([]byte("fast")))
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadWithFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DRPCHECK_CONFIG_DIR", dir)

	path := writeConfig(t, dir, `
program: geico_arx
rules_dir: /var/lib/drpcheck/rules
pipeline:
  workers: 4
  estimate_timeout: 45s
logging:
  level: debug
  format: console
`)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 45*time.Second, cfg.Pipeline.EstimateTimeout.Duration())
	assert.Equal(t, "/var/lib/drpcheck/rules", cfg.RulesDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	// Unset values fall back to defaults.
	assert.Equal(t, 10*time.Second, cfg.Pipeline.ShutdownTimeout.Duration())
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DRPCHECK_CONFIG_DIR", dir)
	t.Setenv("DRPCHECK_PIPELINE_WORKERS", "16")

	path := writeConfig(t, dir, "pipeline:\n  workers: 4\n")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Pipeline.Workers)
}

func TestRejectsWorldReadableFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DRPCHECK_CONFIG_DIR", dir)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("program: geico_arx\n"), 0644))

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "world")
}

func TestRejectsPathOutsideAllowedDirs(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "program: geico_arx\n")

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config path validation")
}

func TestMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DRPCHECK_CONFIG_DIR", dir)

	cfg, err := LoadWithFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig().Pipeline.Workers, cfg.Pipeline.Workers)
}
