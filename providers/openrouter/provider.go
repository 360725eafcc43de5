// Package openrouter configures the OpenAI-compatible client for OpenRouter's
// unified API, which proxies requests to many model vendors.
//
// Common Issues:
// - 404 errors: Verify model name at https://openrouter.ai/models
package openrouter

import (
	"net/http"
	"strings"
	"time"

	"github.com/haowjy/thesis-llm-go"
	"github.com/haowjy/thesis-llm-go/providers/openaicompat"
)

// DefaultURL is OpenRouter's chat-completions endpoint.
const DefaultURL = "https://openrouter.ai/api/v1/chat/completions"

// DefaultTimeout bounds one exchange when the caller supplies no client.
const DefaultTimeout = 120 * time.Second

// SupportsModel returns true if this provider supports the given model.
// OpenRouter uses "vendor/model" ids (e.g. "anthropic/claude-sonnet-4.5")
// or special models like "openrouter/auto".
func SupportsModel(model string) bool {
	return strings.Contains(model, "/")
}

// NewProvider creates an OpenRouter client. url may be empty for DefaultURL.
// opts are applied after the OpenRouter defaults, so they can replace the
// HTTP client or add headers such as "HTTP-Referer" and "X-Title".
func NewProvider(url, apiKey, model string, opts ...openaicompat.Option) (*openaicompat.Provider, error) {
	if apiKey == "" {
		return nil, llmprovider.ErrInvalidAPIKey
	}
	if !SupportsModel(model) {
		return nil, &llmprovider.ValidationError{
			Field:  "model",
			Value:  model,
			Reason: "OpenRouter model ids have the form vendor/model",
			Err:    llmprovider.ErrInvalidRequest,
		}
	}
	if url == "" {
		url = DefaultURL
	}

	base := []openaicompat.Option{
		openaicompat.WithProviderID(llmprovider.ProviderOpenRouter),
		openaicompat.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
	}
	return openaicompat.NewProvider(url, apiKey, model, append(base, opts...)...)
}
