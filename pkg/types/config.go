// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ServerConfig holds settings for the HTTP transport.
type ServerConfig struct {
	// Addr is the listen address (default ":8000").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// AllowOrigins lists the CORS origins accepted by the server. The
	// literal "null" admits pages opened from file:// URLs.
	AllowOrigins []string `json:"allow_origins" yaml:"allow_origins" mapstructure:"allow_origins"`

	// DefaultSessionID is the session used by requests that carry no
	// session id (default "default"), so a client that never echoes the id
	// still continues one conversation.
	DefaultSessionID string `json:"default_session_id" yaml:"default_session_id" mapstructure:"default_session_id"`

	// ShutdownTimeout bounds graceful shutdown (default 10s).
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// Provider names a Text Generation Service backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// AIConfig holds settings for the Text Generation Service.
type AIConfig struct {
	// Provider selects the backend: openai or anthropic.
	Provider Provider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier (e.g. "gpt-4o-2024-08-06").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the backend.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the provider's API root. Empty uses the public endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// MaxTokens caps the generated completion (default 1025).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// Temperature controls sampling randomness (default 0).
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	// Timeout bounds a single generation call (default 60s). Expiry is
	// reported as a generation failure.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// SessionConfig holds settings for the in-memory session manager.
type SessionConfig struct {
	// IdleTimeout is how long an untouched session is kept (default 2h).
	// Zero disables pruning.
	IdleTimeout time.Duration `json:"idle_timeout" yaml:"idle_timeout" mapstructure:"idle_timeout"`

	// PruneInterval is how often idle sessions are swept (default 5m).
	PruneInterval time.Duration `json:"prune_interval" yaml:"prune_interval" mapstructure:"prune_interval"`
}

// TranscriptConfig holds settings for the SQLite transcript log.
type TranscriptConfig struct {
	// Enabled turns transcript recording on.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Dir is the directory holding transcripts.db (default "data/transcripts").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Mode is "production" (JSON) or "development" (console).
	Mode string `json:"mode" yaml:"mode" mapstructure:"mode"`

	// Level is the minimum level: debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Dir, when set, also writes logs to a dated file in this directory.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty" mapstructure:"dir"`
}

// Config groups all settings for the application.
type Config struct {
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
	AI         AIConfig         `json:"ai" yaml:"ai" mapstructure:"ai"`
	Session    SessionConfig    `json:"session" yaml:"session" mapstructure:"session"`
	Transcript TranscriptConfig `json:"transcript" yaml:"transcript" mapstructure:"transcript"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}
