// Package config holds runtime configuration for the scout application.
package config

import "os"

// Config holds all configuration for the application
type Config struct {
	// Model is the completion model used for agent sessions
	Model string `yaml:"model"`

	// MaxTokens is the maximum completion output size per request
	MaxTokens int `yaml:"max_tokens"`

	// MaxTurns is the hard cap on agent loop iterations per session
	MaxTurns int `yaml:"max_turns"`

	// AnthropicAPIKey authenticates completion requests.
	// Falls back to the ANTHROPIC_API_KEY environment variable.
	AnthropicAPIKey string `yaml:"anthropic_api_key"`

	// GroqAPIKey enables the chat-completion analysis backend for the
	// enrichment pipeline. Optional; rule-based analysis is used without it.
	GroqAPIKey string `yaml:"groq_api_key"`

	// GroqModel is the model used by the analysis backend
	GroqModel string `yaml:"groq_model"`

	// GroqRateLimit is the analysis backend budget in requests per minute
	GroqRateLimit int `yaml:"groq_rate_limit"`

	// NotionAPIKey and NotionDatabaseID configure the hosted record
	// database. Both optional; saving falls back to the local store.
	NotionAPIKey     string `yaml:"notion_api_key"`
	NotionDatabaseID string `yaml:"notion_database_id"`

	// HunterAPIKey and ApolloAPIKey configure contact discovery backends.
	// Each is optional and enables its backend independently.
	HunterAPIKey string `yaml:"hunter_api_key"`
	ApolloAPIKey string `yaml:"apollo_api_key"`

	// FDAAPIKey raises the openFDA rate limit. Optional.
	FDAAPIKey string `yaml:"fda_api_key"`

	// OutputDir is where batch chunks, reports and sidecar state are written
	OutputDir string `yaml:"output_dir"`

	// BatchSize is the number of rows per flushed output chunk
	BatchSize int `yaml:"batch_size"`

	// Workers caps concurrent sessions in parallel batch mode
	Workers int `yaml:"workers"`

	// TopicPauseSeconds is the pause between topics in sequential mode
	TopicPauseSeconds int `yaml:"topic_pause_seconds"`

	// MinDelaySeconds and MaxDelaySeconds bound the jittered delay added
	// between outbound web requests
	MinDelaySeconds float64 `yaml:"min_delay_seconds"`
	MaxDelaySeconds float64 `yaml:"max_delay_seconds"`

	// LogLevel is the logging level (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// MetricsAddr exposes prometheus metrics when non-empty (e.g. ":9190")
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the configuration defaults used when no file value or
// flag overrides them.
func Default() *Config {
	return &Config{
		Model:             "claude-sonnet-4-20250514",
		MaxTokens:         4096,
		MaxTurns:          30,
		GroqModel:         "llama-3.1-8b-instant",
		GroqRateLimit:     25,
		OutputDir:         "research_output",
		BatchSize:         20,
		Workers:           2,
		TopicPauseSeconds: 5,
		MinDelaySeconds:   1.5,
		MaxDelaySeconds:   4.0,
		LogLevel:          "info",
	}
}

// ApplyEnv fills credentials from the process environment where the config
// file left them empty. Environment values never override file values.
func (c *Config) ApplyEnv() {
	fromEnv := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	fromEnv(&c.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	fromEnv(&c.GroqAPIKey, "GROQ_API_KEY")
	fromEnv(&c.NotionAPIKey, "NOTION_API_KEY")
	fromEnv(&c.NotionDatabaseID, "NOTION_DATABASE_ID")
	fromEnv(&c.HunterAPIKey, "HUNTER_API_KEY")
	fromEnv(&c.ApolloAPIKey, "APOLLO_API_KEY")
	fromEnv(&c.FDAAPIKey, "FDA_API_KEY")
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Model == "" {
		return NewConfigError("Model must not be empty")
	}

	if c.MaxTokens < 1 {
		return NewConfigError("MaxTokens must be at least 1")
	}

	if c.MaxTurns < 1 {
		return NewConfigError("MaxTurns must be at least 1")
	}

	if c.BatchSize < 1 {
		return NewConfigError("BatchSize must be at least 1")
	}

	if c.Workers < 1 {
		return NewConfigError("Workers must be at least 1")
	}

	if c.MinDelaySeconds < 0 || c.MaxDelaySeconds < c.MinDelaySeconds {
		return NewConfigError("delay bounds must satisfy 0 <= min <= max")
	}

	if c.GroqRateLimit < 1 {
		return NewConfigError("GroqRateLimit must be at least 1")
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return e.message
}
