package anthropic

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/haowjy/thesis-llm-go"
	"github.com/haowjy/thesis-llm-go/metrics"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5"

// Provider implements llmprovider.Provider for Anthropic (Claude) models.
type Provider struct {
	client *anthropic.Client
	model  string
	params *llmprovider.RequestParams
	logger *slog.Logger
}

// Option configures a Provider.
type Option func(*config)

type config struct {
	model      string
	params     *llmprovider.RequestParams
	logger     *slog.Logger
	reqOptions []option.RequestOption
}

// WithModel sets the Claude model id.
func WithModel(model string) Option {
	return func(c *config) {
		if model != "" {
			c.model = model
		}
	}
}

// WithParams sets the sampling parameters sent with every request.
func WithParams(params *llmprovider.RequestParams) Option {
	return func(c *config) {
		c.params = params
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestOptions passes extra SDK options (base URL, HTTP client, ...).
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(c *config) {
		c.reqOptions = append(c.reqOptions, opts...)
	}
}

// NewProvider creates a new Anthropic provider with the given API key.
// The SDK's automatic retries are disabled: failures surface to the caller.
func NewProvider(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, llmprovider.ErrInvalidAPIKey
	}

	cfg := config{model: DefaultModel, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !SupportsModel(cfg.model) {
		return nil, &llmprovider.ValidationError{
			Field:  "model",
			Value:  cfg.model,
			Reason: "model not supported by Anthropic (must start with 'claude-')",
			Err:    llmprovider.ErrInvalidRequest,
		}
	}
	if err := llmprovider.ValidateRequestParams(cfg.params); err != nil {
		return nil, err
	}

	reqOptions := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, cfg.reqOptions...)
	client := anthropic.NewClient(reqOptions...)

	return &Provider{
		client: &client,
		model:  cfg.model,
		params: llmprovider.ClampParams(llmprovider.ProviderAnthropic, cfg.params, cfg.logger),
		logger: cfg.logger,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() llmprovider.ProviderID {
	return llmprovider.ProviderAnthropic
}

// Model returns the configured model id.
func (p *Provider) Model() string {
	return p.model
}

// SupportsModel returns true if this provider supports the given model.
// Anthropic models start with "claude-"
func SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

// Complete sends one non-streamed message and returns the concatenated
// text blocks of the reply.
func (p *Provider) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	started := time.Now()
	text, err := p.complete(ctx, systemPrompt, userMessage)
	metrics.ObserveExchange(p.Name().String(), metrics.ModeComplete, outcome(err), started)
	return text, err
}

func (p *Provider) complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	apiParams, err := buildMessageParams(p.model, systemPrompt, userMessage, p.params)
	if err != nil {
		return "", err
	}

	message, err := p.client.Messages.New(ctx, apiParams)
	if err != nil {
		return "", p.mapError(ctx, err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	p.logger.Debug("anthropic message complete",
		"model", string(message.Model),
		"stop_reason", string(message.StopReason),
		"output_tokens", message.Usage.OutputTokens,
	)

	return sb.String(), nil
}

// mapError converts SDK failures into the library taxonomy: API errors carry
// their status, everything else is a transport failure.
func (p *Provider) mapError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &llmprovider.HTTPStatusError{
			Provider:   p.Name().String(),
			StatusCode: apiErr.StatusCode,
			Body:       apiErr.RawJSON(),
			Message:    apiErr.Error(),
		}
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
