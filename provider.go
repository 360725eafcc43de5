package llmprovider

import (
	"context"
)

// Provider defines the interface that every chat-completion backend implements.
// The abstraction lets the assistant talk to an OpenAI-compatible endpoint,
// Anthropic, or the lorem mock through one contract.
//
// Types used by this interface:
//   - ChatRequest, Message: defined in request.go
//   - DeltaFunc, Accumulator: defined in streaming.go
//   - NetworkError, HTTPStatusError, DecodeError: defined in errors.go
type Provider interface {
	// StreamComplete performs one streamed chat-completion exchange (blocking).
	// onDelta is invoked synchronously with the cumulative text after every
	// content delta; it may be nil. The final accumulated text is returned
	// once the stream reports end of data.
	//
	// Usage:
	//   text, err := provider.StreamComplete(ctx, system, user, func(soFar string) {
	//     view.Update(soFar)
	//   })
	StreamComplete(ctx context.Context, systemPrompt, userMessage string, onDelta DeltaFunc) (string, error)

	// Complete performs the same exchange without streaming and returns the
	// single completion body. No callback is involved.
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)

	// Name returns the provider identifier (e.g., "openai_compatible", "anthropic", "lorem")
	Name() ProviderID
}
