package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "THESIS_"

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. .env file, found by walking up from the working directory (never
//     overrides variables already set)
//  2. Built-in defaults
//  3. YAML config file (explicit path, THESIS_CONFIG env, ./thesis.yaml)
//  4. THESIS_* environment variables
//  5. File reference resolution (api_key_file)
//  6. Validation
func Load(configPath string) (*Config, error) {
	LoadDotEnv()

	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// LoadDotEnv searches for a .env file starting from the current directory
// and walking up the directory tree, and loads the first one found.
// Variables already present in the environment win.
func LoadDotEnv() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return envPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// discoverConfigFile returns the explicit path, THESIS_CONFIG, or
// ./thesis.yaml if it exists. Empty means defaults only.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv(EnvPrefix + "CONFIG"); envPath != "" {
		return envPath
	}
	if _, err := os.Stat("thesis.yaml"); err == nil {
		return "thesis.yaml"
	}
	return ""
}

// loadYAMLFile reads and parses a YAML file into cfg.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps THESIS_* variables onto cfg. Unparseable numeric or
// boolean values are ignored.
func applyEnvOverrides(cfg *Config) {
	str := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}

	str("PROVIDER", &cfg.LLM.Provider)
	str("API_URL", &cfg.LLM.URL)
	str("API_KEY", &cfg.LLM.APIKey)
	str("API_KEY_FILE", &cfg.LLM.APIKeyFile)
	str("MODEL", &cfg.LLM.Model)
	str("ADDR", &cfg.Server.Addr)
	str("SERVER_MODE", &cfg.Server.Mode)
	str("ALLOW_ORIGIN", &cfg.Server.AllowOrigin)
	str("PROFILE_STORE", &cfg.Profile.StorePath)
	str("PROFILE_DSN", &cfg.Profile.DSN)
	str("PROFILE_KEY", &cfg.Profile.Key)
	str("PROMPTS_FILE", &cfg.Prompts.File)
	str("RENDER_MODE", &cfg.Render.Mode)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	if v := os.Getenv(EnvPrefix + "TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.LLM.Timeout = d
		}
	}
	if v := os.Getenv(EnvPrefix + "DEMO_FALLBACK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LLM.DemoFallback = b
		}
	}
	if v := os.Getenv(EnvPrefix + "RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Server.RateLimit = f
		}
	}

	// Provider-native key names, as used by the SDK examples.
	if cfg.LLM.APIKey == "" {
		switch strings.ToLower(cfg.LLM.Provider) {
		case "anthropic":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openrouter":
			cfg.LLM.APIKey = os.Getenv("OPENROUTER_API_KEY")
		}
	}
}

// resolveFileReferences reads llm.api_key_file into llm.api_key when the key
// itself is unset.
func resolveFileReferences(cfg *Config) error {
	if cfg.LLM.APIKeyFile != "" && cfg.LLM.APIKey == "" {
		val, err := readSecretFile(cfg.LLM.APIKeyFile)
		if err != nil {
			return fmt.Errorf("llm.api_key_file: %w", err)
		}
		cfg.LLM.APIKey = val
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
