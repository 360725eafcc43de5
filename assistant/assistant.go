// Package assistant runs one page interaction: validate the student's
// input, pick the prompt, call the backend and render the result.
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/haowjy/thesis-llm-go"
	"github.com/haowjy/thesis-llm-go/metrics"
	"github.com/haowjy/thesis-llm-go/profile"
	"github.com/haowjy/thesis-llm-go/prompts"
	"github.com/haowjy/thesis-llm-go/render"
)

// Request is one generation request.
type Request struct {
	UseCase string

	// Profile holds values given explicitly with the request.
	Profile profile.Profile

	// Query holds values taken from URL parameters.
	Query profile.Profile

	// Input is the free text (research direction, title, report body, ...).
	// When empty, the resolved profile's Topic is used.
	Input string
}

// Update is delivered for every cumulative text change.
type Update struct {
	Text     string `json:"text"`
	HTML     string `json:"html"`
	Fallback bool   `json:"fallback,omitempty"`
}

// UpdateFunc receives updates inline on the generating goroutine.
//
// Text is cumulative and only grows within one exchange. When the backend
// fails after some updates and the demo fallback takes over, one update with
// empty Text and Fallback set is sent first; the fallback's updates then grow
// from empty again.
type UpdateFunc func(Update)

// Result is a finished generation.
type Result struct {
	ID       string        `json:"id"`
	UseCase  string        `json:"use_case"`
	Text     string        `json:"text"`
	HTML     string        `json:"html"`
	Streamed bool          `json:"streamed"`
	Fallback bool          `json:"fallback"`
	Duration time.Duration `json:"duration"`
}

// Service is safe for concurrent use when its provider and store are.
type Service struct {
	provider llmprovider.Provider
	fallback llmprovider.Provider
	prompts  *prompts.Registry
	renderer render.Renderer
	store    profile.Store
	defaults profile.Profile
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithFallback enables the demo fallback: when the backend fails with a
// transport error, p generates the reply instead and the result is flagged.
func WithFallback(p llmprovider.Provider) Option {
	return func(s *Service) { s.fallback = p }
}

// WithRenderer replaces the Markdown renderer.
func WithRenderer(r render.Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithStore sets the persisted profile store.
func WithStore(store profile.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDefaults sets the lowest-precedence profile values.
func WithDefaults(p profile.Profile) Option {
	return func(s *Service) { s.defaults = p }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Service around provider and the prompt table.
func New(provider llmprovider.Provider, registry *prompts.Registry, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		prompts:  registry,
		renderer: render.NewMarkdown(),
		store:    &profile.MemoryStore{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UseCases lists the available use cases.
func (s *Service) UseCases() []*prompts.UseCase {
	return s.prompts.List()
}

// StoredProfile returns the persisted profile.
func (s *Service) StoredProfile(ctx context.Context) (profile.Profile, error) {
	return s.store.Load(ctx)
}

// SaveProfile validates and persists p.
func (s *Service) SaveProfile(ctx context.Context, p profile.Profile) error {
	if err := profile.Validate(p, "", profile.Rules{}); err != nil {
		return err
	}
	return s.store.Save(ctx, p)
}

// ResolveProfile applies the precedence explicit > query > stored > defaults.
func (s *Service) ResolveProfile(ctx context.Context, explicit, query profile.Profile) (profile.Profile, error) {
	stored, err := s.store.Load(ctx)
	if err != nil {
		return profile.Profile{}, err
	}
	return profile.Resolve(explicit, query, stored, s.defaults), nil
}

// Generate runs one generation. onUpdate (optional) receives the cumulative
// text and its HTML after every delta for streaming use cases, and once with
// the full reply otherwise.
func (s *Service) Generate(ctx context.Context, req Request, onUpdate UpdateFunc) (*Result, error) {
	started := time.Now()
	id := uuid.NewString()
	logger := s.logger.With("request_id", id, "use_case", req.UseCase)

	res, err := s.generate(ctx, id, req, onUpdate, logger)

	label := req.UseCase
	if errors.Is(err, prompts.ErrUnknownUseCase) {
		label = "unknown"
	}
	switch {
	case err == nil && res.Fallback:
		metrics.GenerationsTotal.WithLabelValues(label, metrics.OutcomeFallback).Inc()
	case err == nil:
		metrics.GenerationsTotal.WithLabelValues(label, metrics.OutcomeOK).Inc()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		metrics.GenerationsTotal.WithLabelValues(label, metrics.OutcomeCanceled).Inc()
	default:
		metrics.GenerationsTotal.WithLabelValues(label, metrics.OutcomeError).Inc()
	}

	if err != nil {
		if llmprovider.IsInvalidRequest(err) {
			logger.Info("generation rejected", "error", err)
		} else {
			logger.Error("generation failed", "error", err, "duration", time.Since(started))
		}
		return nil, err
	}

	res.Duration = time.Since(started)
	logger.Info("generation complete",
		"provider", s.provider.Name(),
		"chars", len([]rune(res.Text)),
		"fallback", res.Fallback,
		"duration", res.Duration,
	)
	return res, nil
}

func (s *Service) generate(ctx context.Context, id string, req Request, onUpdate UpdateFunc, logger *slog.Logger) (*Result, error) {
	uc, err := s.prompts.Get(req.UseCase)
	if err != nil {
		return nil, err
	}

	p, err := s.ResolveProfile(ctx, req.Profile, req.Query)
	if err != nil {
		return nil, err
	}

	input := strings.TrimSpace(req.Input)
	if input == "" {
		input = p.Topic
	}

	if err := uc.Validate(p, input); err != nil {
		return nil, err
	}

	userMessage, err := uc.BuildUserMessage(p, input)
	if err != nil {
		return nil, err
	}

	logger.Debug("generation started",
		"major", p.Major,
		"education", p.EducationLevel(),
		"stream", uc.Stream,
	)

	updated := false
	primaryUpdate := onUpdate
	if onUpdate != nil {
		primaryUpdate = func(u Update) {
			updated = true
			onUpdate(u)
		}
	}

	text, err := s.call(ctx, s.provider, uc, userMessage, primaryUpdate, false)
	fallback := false
	if err != nil && s.fallback != nil && ctx.Err() == nil && llmprovider.IsTransportError(err) {
		logger.Warn("backend failed, generating demo content instead",
			"error", err,
			"fallback_provider", s.fallback.Name(),
			"partial_updates", updated,
		)
		if updated {
			onUpdate(Update{HTML: s.renderer.Render(""), Fallback: true})
		}
		text, err = s.call(ctx, s.fallback, uc, userMessage, onUpdate, true)
		fallback = true
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		ID:       id,
		UseCase:  uc.Tag,
		Text:     text,
		HTML:     s.renderer.Render(text),
		Streamed: uc.Stream,
		Fallback: fallback,
	}, nil
}

// call runs the exchange in the use case's mode.
func (s *Service) call(ctx context.Context, p llmprovider.Provider, uc *prompts.UseCase, userMessage string, onUpdate UpdateFunc, fallback bool) (string, error) {
	emit := func(text string) {
		if onUpdate != nil {
			onUpdate(Update{Text: text, HTML: s.renderer.Render(text), Fallback: fallback})
		}
	}

	if uc.Stream {
		return p.StreamComplete(ctx, uc.SystemPrompt, userMessage, emit)
	}

	text, err := p.Complete(ctx, uc.SystemPrompt, userMessage)
	if err != nil {
		return "", err
	}
	emit(text)
	return text, nil
}
