// Package openaicompat is the streaming chat-completion client for
// OpenAI-compatible endpoints that authenticate with a bearer token
// (Volcengine Ark, OpenAI, ...). Every request carries the token, so a key
// is required.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/haowjy/thesis-llm-go"
	"github.com/haowjy/thesis-llm-go/metrics"
)

// DefaultURL is the Volcengine Ark chat-completions endpoint.
const DefaultURL = "https://ark.cn-beijing.volces.com/api/v3/chat/completions"

// maxErrorBody bounds how much of a non-2xx body is kept.
const maxErrorBody = 4096

// Provider implements llmprovider.Provider against a single
// chat-completions URL. It holds no per-exchange state and is safe for
// concurrent use.
//
// The client never retries and imposes no timeout of its own. Callers that
// want one pass an *http.Client with Timeout set, or a context deadline.
type Provider struct {
	id         llmprovider.ProviderID
	url        string
	apiKey     string
	model      string
	params     *llmprovider.RequestParams
	httpClient *http.Client
	headers    http.Header
	logger     *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithParams sets the sampling parameters sent with every request.
func WithParams(params *llmprovider.RequestParams) Option {
	return func(p *Provider) {
		p.params = params
	}
}

// WithProviderID reports the client under a different provider id in errors,
// logs and metrics. Used by presets for specific gateways.
func WithProviderID(id llmprovider.ProviderID) Option {
	return func(p *Provider) {
		if id != "" {
			p.id = id
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(p *Provider) {
		p.headers.Set(key, value)
	}
}

// WithLogger sets the logger used for skipped frames and exchange traces.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProvider creates a client for the given endpoint URL, bearer token and
// model identifier. An empty token is rejected with ErrInvalidAPIKey.
func NewProvider(url, apiKey, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, llmprovider.ErrInvalidAPIKey
	}
	if url == "" {
		return nil, &llmprovider.ValidationError{
			Field:  "url",
			Value:  url,
			Reason: "endpoint URL is required",
			Err:    llmprovider.ErrInvalidRequest,
		}
	}
	if model == "" {
		return nil, &llmprovider.ValidationError{
			Field:  "model",
			Value:  model,
			Reason: "model identifier is required",
			Err:    llmprovider.ErrInvalidRequest,
		}
	}

	p := &Provider{
		id:         llmprovider.ProviderOpenAICompatible,
		url:        url,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
		headers:    make(http.Header),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := llmprovider.ValidateRequestParams(p.params); err != nil {
		return nil, err
	}
	p.params = llmprovider.ClampParams(p.id, p.params, p.logger)

	return p, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() llmprovider.ProviderID {
	return p.id
}

// Model returns the configured model identifier.
func (p *Provider) Model() string {
	return p.model
}

// Complete performs a non-streamed exchange and returns
// choices[0].message.content.
func (p *Provider) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	started := time.Now()
	text, err := p.complete(ctx, systemPrompt, userMessage)
	metrics.ObserveExchange(p.Name().String(), metrics.ModeComplete, outcome(err), started)
	return text, err
}

func (p *Provider) complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	resp, err := p.send(ctx, systemPrompt, userMessage, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", p.transportError(ctx, err)
	}

	var chatResp llmprovider.ChatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", &llmprovider.DecodeError{
			Provider: p.Name().String(),
			Body:     truncate(string(body), maxErrorBody),
			Err:      err,
		}
	}
	if len(chatResp.Choices) == 0 {
		return "", &llmprovider.DecodeError{
			Provider: p.Name().String(),
			Body:     truncate(string(body), maxErrorBody),
			Err:      errors.New("response has no choices"),
		}
	}

	return chatResp.Choices[0].Message.Content, nil
}

// send builds and issues the request. A non-nil response always has a 2xx
// status; every other outcome is converted to an error here.
func (p *Provider) send(ctx context.Context, systemPrompt, userMessage string, stream bool) (*http.Response, error) {
	req := llmprovider.NewChatRequest(p.model, systemPrompt, userMessage, stream)
	req.ApplyParams(p.params)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	httpReq, err := p.buildHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("sending chat completion request",
		"provider", p.Name(),
		"model", p.model,
		"stream", stream,
		"user_chars", len([]rune(userMessage)),
	)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, p.transportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, p.handleErrorResponse(resp)
	}

	return resp, nil
}

// buildHTTPRequest creates the POST request with JSON body and bearer auth.
func (p *Provider) buildHTTPRequest(ctx context.Context, req *llmprovider.ChatRequest) (*http.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, &llmprovider.ValidationError{
			Field:  "url",
			Value:  p.url,
			Reason: "invalid endpoint URL",
			Err:    fmt.Errorf("%w: %v", llmprovider.ErrInvalidRequest, err),
		}
	}

	for key, values := range p.headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	if req.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	} else {
		httpReq.Header.Set("Accept", "application/json")
	}

	return httpReq, nil
}

// transportError reports context cancellation as ctx.Err() and everything
// else as a NetworkError.
func (p *Provider) transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &llmprovider.NetworkError{Provider: p.Name().String(), Err: err}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeError
	}
}
