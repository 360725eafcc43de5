package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/haowjy/thesis-llm-go"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	providerID, err := llmprovider.ParseProviderID(c.LLM.Provider)
	if err != nil {
		errs = append(errs, fmt.Errorf("llm.provider: %w", err))
	}

	switch providerID {
	case llmprovider.ProviderOpenAICompatible:
		if c.LLM.URL == "" {
			errs = append(errs, fmt.Errorf("llm.url is required for provider %q", providerID))
		}
		if c.LLM.Model == "" {
			errs = append(errs, fmt.Errorf("llm.model is required for provider %q", providerID))
		}
		if c.LLM.APIKey == "" {
			errs = append(errs, fmt.Errorf("llm.api_key or llm.api_key_file is required for provider %q", providerID))
		}
	case llmprovider.ProviderOpenRouter:
		if c.LLM.Model == "" {
			errs = append(errs, fmt.Errorf("llm.model is required for provider %q", providerID))
		}
		if c.LLM.APIKey == "" {
			errs = append(errs, fmt.Errorf("llm.api_key or llm.api_key_file is required for provider %q", providerID))
		}
	case llmprovider.ProviderAnthropic:
		if c.LLM.APIKey == "" {
			errs = append(errs, fmt.Errorf("llm.api_key or llm.api_key_file is required for provider %q", providerID))
		}
	}

	if c.LLM.Timeout < 0 {
		errs = append(errs, fmt.Errorf("llm.timeout must be >= 0, got %v", c.LLM.Timeout))
	}

	if err := llmprovider.ValidateRequestParams(&c.LLM.Params); err != nil {
		errs = append(errs, fmt.Errorf("llm.params: %w", err))
	}

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("server.mode must be \"debug\", \"release\" or \"test\", got %q", c.Server.Mode))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes must be > 0, got %d", c.Server.MaxUploadBytes))
	}

	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit must be >= 0, got %v", c.Server.RateLimit))
	}
	if c.Server.RateBurst < 0 {
		errs = append(errs, fmt.Errorf("server.rate_burst must be >= 0, got %d", c.Server.RateBurst))
	}

	if e := c.Profile.Defaults.Education; e != "" && !e.IsValid() {
		errs = append(errs, fmt.Errorf("profile.defaults.education: unknown level %q", e))
	}

	switch c.Render.Mode {
	case "markdown", "fallback", "plain":
	default:
		errs = append(errs, fmt.Errorf("render.mode must be \"markdown\", \"fallback\" or \"plain\", got %q", c.Render.Mode))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be \"text\" or \"json\", got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
