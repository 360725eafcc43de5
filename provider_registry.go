package llmprovider

import "fmt"

// ProviderID represents a unique provider identifier.
// Using a typed constant prevents typos and provides compile-time safety.
type ProviderID string

// Known provider identifiers
const (
	// ProviderOpenAICompatible is any endpoint speaking the OpenAI chat-completions
	// wire format with bearer-token auth (Volcengine Ark, OpenAI, ...).
	ProviderOpenAICompatible ProviderID = "openai_compatible"

	// ProviderOpenRouter is OpenRouter's unified API, reached through the
	// OpenAI-compatible client.
	ProviderOpenRouter ProviderID = "openrouter"

	// ProviderAnthropic is Anthropic's Claude API
	ProviderAnthropic ProviderID = "anthropic"

	// ProviderLorem is the mock Lorem provider for testing and demos
	ProviderLorem ProviderID = "lorem"
)

// String returns the string representation of the provider ID
func (p ProviderID) String() string {
	return string(p)
}

// IsValid returns true if the provider ID is a known provider
func (p ProviderID) IsValid() bool {
	switch p {
	case ProviderOpenAICompatible, ProviderOpenRouter, ProviderAnthropic, ProviderLorem:
		return true
	default:
		return false
	}
}

// ParseProviderID converts a configuration string into a ProviderID.
// "openai" is accepted as an alias for the OpenAI-compatible client.
func ParseProviderID(s string) (ProviderID, error) {
	if s == "openai" {
		return ProviderOpenAICompatible, nil
	}
	id := ProviderID(s)
	if !id.IsValid() {
		return "", fmt.Errorf("unknown provider %q: %w", s, ErrInvalidRequest)
	}
	return id, nil
}
