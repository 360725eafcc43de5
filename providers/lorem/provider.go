package lorem

import (
	"context"
	"strings"
	"sync"
	"time"

	loremgen "github.com/bozaro/golorem"

	llmprovider "github.com/haowjy/thesis-llm-go"
	"github.com/haowjy/thesis-llm-go/metrics"
)

// DefaultWords is the approximate length of a generated reply when the
// capability table does not set one.
const DefaultWords = 120

// Provider is a mock backend that streams lorem ipsum text.
// Used for demos, tests and the optional demo fallback without an API key.
type Provider struct {
	mu        sync.Mutex // guards generator
	generator *loremgen.Lorem
	delay     time.Duration
	words     int
}

// Option configures a Provider.
type Option func(*Provider)

// WithModel derives the per-word delay from a model name such as
// "lorem-fast" or "lorem-slow".
func WithModel(model string) Option {
	return func(p *Provider) {
		p.delay = getStreamDelay(model)
	}
}

// WithDelay sets the per-word delay directly. Zero streams without pausing.
func WithDelay(delay time.Duration) Option {
	return func(p *Provider) {
		p.delay = delay
	}
}

// WithMaxTokens caps the reply length, one word per token.
func WithMaxTokens(maxTokens int) Option {
	return func(p *Provider) {
		if maxTokens > 0 {
			p.words = maxTokens
		}
	}
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		generator: loremgen.New(),
		delay:     getStreamDelay(""),
		words:     llmprovider.GetCapabilityRegistry().DefaultMaxTokens(llmprovider.ProviderLorem, DefaultWords),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() llmprovider.ProviderID {
	return llmprovider.ProviderLorem
}

// getStreamDelay returns the delay between words based on the model name.
// - lorem-slow: 2 words/second (500ms per word)
// - lorem-fast: 30 words/second (33ms per word)
// - default: 10 words/second
func getStreamDelay(model string) time.Duration {
	if strings.Contains(model, "slow") {
		return 500 * time.Millisecond
	}
	if strings.Contains(model, "fast") {
		return 33 * time.Millisecond
	}
	return 100 * time.Millisecond
}

// StreamComplete streams a generated reply word by word. The prompts are
// ignored.
func (p *Provider) StreamComplete(ctx context.Context, systemPrompt, userMessage string, onDelta llmprovider.DeltaFunc) (string, error) {
	started := time.Now()
	text, err := p.stream(ctx, onDelta)
	metrics.ObserveExchange(p.Name().String(), metrics.ModeStream, outcome(err), started)
	return text, err
}

func (p *Provider) stream(ctx context.Context, onDelta llmprovider.DeltaFunc) (string, error) {
	var acc llmprovider.Accumulator
	for _, piece := range strings.SplitAfter(p.generateReply(), " ") {
		if err := p.wait(ctx); err != nil {
			return "", err
		}
		soFar := acc.Append(piece)
		metrics.DeltasTotal.WithLabelValues(p.Name().String()).Inc()
		if onDelta != nil {
			onDelta(soFar)
		}
	}
	return acc.String(), nil
}

// Complete returns a whole generated reply after a single delay.
func (p *Provider) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	started := time.Now()
	err := p.wait(ctx)
	text := ""
	if err == nil {
		text = p.generateReply()
	}
	metrics.ObserveExchange(p.Name().String(), metrics.ModeComplete, outcome(err), started)
	return text, err
}

func (p *Provider) wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// generateReply produces a Markdown reply: a heading, then paragraphs of
// roughly p.words words.
func (p *Provider) generateReply() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("## ")
	sb.WriteString(strings.TrimSuffix(p.generator.Sentence(3, 6), "."))
	sb.WriteString("\n\n")
	sb.WriteString(p.generateTextWords(p.words))
	return sb.String()
}

// generateTextWords generates lorem ipsum text with approximately targetWords words.
// Callers hold p.mu.
func (p *Provider) generateTextWords(targetWords int) string {
	var sb strings.Builder
	wordCount := 0
	sinceBreak := 0

	for wordCount < targetWords {
		sentence := p.generator.Sentence(5, 15)
		sb.WriteString(sentence)

		n := len(strings.Fields(sentence))
		wordCount += n
		sinceBreak += n

		// Paragraph break every ~50 words
		if sinceBreak >= 50 {
			sb.WriteString("\n\n")
			sinceBreak = 0
		} else {
			sb.WriteString(" ")
		}
	}

	return strings.TrimSpace(sb.String())
}

func outcome(err error) string {
	if err != nil {
		return metrics.OutcomeCanceled
	}
	return metrics.OutcomeOK
}
