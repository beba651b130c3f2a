package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty model", func(c *Config) { c.Model = "" }},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }},
		{"zero max turns", func(c *Config) { c.MaxTurns = 0 }},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"inverted delays", func(c *Config) { c.MinDelaySeconds = 5; c.MaxDelaySeconds = 1 }},
		{"zero groq budget", func(c *Config) { c.GroqRateLimit = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var cfgErr *ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scout.yaml")
	content := `
model: claude-sonnet-4-20250514
max_turns: 12
batch_size: 50
output_dir: /tmp/research
min_delay_seconds: 0.5
max_delay_seconds: 2.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.MaxTurns)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, "/tmp/research", cfg.OutputDir)
	assert.Equal(t, 0.5, cfg.MinDelaySeconds)
	// Unset keys keep defaults
	assert.Equal(t, 4096, cfg.MaxTokens)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyEnvDoesNotOverrideFileValues(t *testing.T) {
	t.Setenv("HUNTER_API_KEY", "env-key")
	t.Setenv("APOLLO_API_KEY", "env-apollo")

	cfg := Default()
	cfg.HunterAPIKey = "file-key"
	cfg.ApplyEnv()

	assert.Equal(t, "file-key", cfg.HunterAPIKey)
	assert.Equal(t, "env-apollo", cfg.ApolloAPIKey)
}
