// Package providers builds a completion backend from configuration.
package providers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/haowjy/thesis-llm-go"
	"github.com/haowjy/thesis-llm-go/config"
	"github.com/haowjy/thesis-llm-go/providers/anthropic"
	"github.com/haowjy/thesis-llm-go/providers/lorem"
	"github.com/haowjy/thesis-llm-go/providers/openaicompat"
	"github.com/haowjy/thesis-llm-go/providers/openrouter"
)

// New returns the provider selected by cfg.Provider.
func New(cfg config.LLMConfig, logger *slog.Logger) (llmprovider.Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	id, err := llmprovider.ParseProviderID(cfg.Provider)
	if err != nil {
		return nil, err
	}

	var params *llmprovider.RequestParams
	if cfg.Params != (llmprovider.RequestParams{}) {
		p := cfg.Params
		params = &p
	}

	switch id {
	case llmprovider.ProviderOpenAICompatible:
		p, err := openaicompat.NewProvider(cfg.URL, cfg.APIKey, cfg.Model,
			openaicompat.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			openaicompat.WithParams(params),
			openaicompat.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return p, nil

	case llmprovider.ProviderOpenRouter:
		// The configured URL defaults to the Ark endpoint; only an explicit
		// override replaces OpenRouter's own.
		url := cfg.URL
		if url == openaicompat.DefaultURL {
			url = ""
		}
		opts := []openaicompat.Option{
			openaicompat.WithParams(params),
			openaicompat.WithLogger(logger),
		}
		if cfg.Timeout > 0 {
			opts = append(opts, openaicompat.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
		}
		p, err := openrouter.NewProvider(url, cfg.APIKey, cfg.Model, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil

	case llmprovider.ProviderAnthropic:
		opts := []anthropic.Option{
			anthropic.WithModel(cfg.Model),
			anthropic.WithParams(params),
			anthropic.WithLogger(logger),
		}
		if cfg.Timeout > 0 {
			opts = append(opts, anthropic.WithRequestOptions(option.WithRequestTimeout(cfg.Timeout)))
		}
		p, err := anthropic.NewProvider(cfg.APIKey, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil

	case llmprovider.ProviderLorem:
		opts := []lorem.Option{lorem.WithModel(cfg.Model)}
		if params != nil && params.MaxTokens != nil {
			opts = append(opts, lorem.WithMaxTokens(*params.MaxTokens))
		}
		return lorem.NewProvider(opts...), nil

	default:
		return nil, fmt.Errorf("provider %q: %w", id, llmprovider.ErrInvalidRequest)
	}
}

// Fallback returns the demo provider used when cfg.DemoFallback is set,
// or nil when it is not.
func Fallback(cfg config.LLMConfig) llmprovider.Provider {
	if !cfg.DemoFallback {
		return nil
	}
	return lorem.NewProvider(lorem.WithModel("lorem-fast"))
}
