// Package config loads the application configuration from defaults, a YAML
// file, a .env file, environment variables and secret files.
package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haowjy/thesis-llm-go"
	"github.com/haowjy/thesis-llm-go/profile"
	"github.com/haowjy/thesis-llm-go/providers/openaicompat"
)

// Config is the top-level configuration.
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Server  ServerConfig  `yaml:"server"`
	Profile ProfileConfig `yaml:"profile"`
	Prompts PromptsConfig `yaml:"prompts"`
	Render  RenderConfig  `yaml:"render"`
	Log     LogConfig     `yaml:"log"`
}

// LLMConfig selects and configures the completion backend.
type LLMConfig struct {
	// Provider is openai_compatible, anthropic or lorem.
	Provider   string `yaml:"provider"`
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	APIKeyFile string `yaml:"api_key_file"`
	Model      string `yaml:"model"`

	// Timeout bounds a whole exchange. Zero means no client-side timeout.
	Timeout time.Duration `yaml:"timeout"`

	Params llmprovider.RequestParams `yaml:"params"`

	// DemoFallback substitutes generated placeholder text when the backend
	// fails. Off unless explicitly enabled.
	DemoFallback bool `yaml:"demo_fallback"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	Mode           string        `yaml:"mode"` // gin mode: debug, release, test
	AllowOrigin    string        `yaml:"allow_origin"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`

	// RateLimit caps generations per client IP per minute; 0 disables.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// ProfileConfig configures profile persistence and defaults.
type ProfileConfig struct {
	StorePath string          `yaml:"store_path"`
	DSN       string          `yaml:"dsn"` // PostgreSQL; overrides store_path when set
	Key       string          `yaml:"key"`
	Defaults  profile.Profile `yaml:"defaults"`
}

// PromptsConfig points at an optional prompt table override.
type PromptsConfig struct {
	File string `yaml:"file"`
}

// RenderConfig selects the HTML renderer.
type RenderConfig struct {
	Mode string `yaml:"mode"` // markdown, fallback, plain
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LLM: LLMConfig{
			Provider: llmprovider.ProviderOpenAICompatible.String(),
			URL:      openaicompat.DefaultURL,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			Mode:           "release",
			AllowOrigin:    "*",
			MaxUploadBytes: 10 << 20,
			ReadTimeout:    30 * time.Second,
		},
		Profile: ProfileConfig{
			StorePath: defaultStorePath(),
			Defaults:  profile.Profile{Education: profile.DefaultEducation},
		},
		Render: RenderConfig{Mode: "markdown"},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// OpenStore returns the configured profile store and a function that
// releases it. A DSN selects PostgreSQL, otherwise the YAML file is used.
func (c ProfileConfig) OpenStore(ctx context.Context) (profile.Store, func(), error) {
	if c.DSN == "" {
		return profile.NewFileStore(c.StorePath), func() {}, nil
	}
	store, err := profile.NewPostgresStore(ctx, profile.PostgresConfig{DSN: c.DSN, Key: c.Key})
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "thesis-profile.yaml"
	}
	return filepath.Join(dir, "thesis-llm", "profile.yaml")
}

// ParseLevel maps a level name to slog.Level; unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a logger writing to w (stderr when nil).
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(c.Level)}

	var handler slog.Handler
	if strings.EqualFold(c.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
