package anthropic

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/haowjy/thesis-llm-go"
	"github.com/haowjy/thesis-llm-go/metrics"
)

// StreamComplete streams one message. Only text_delta events contribute to
// the accumulated text; onDelta receives the cumulative text after each.
func (p *Provider) StreamComplete(ctx context.Context, systemPrompt, userMessage string, onDelta llmprovider.DeltaFunc) (string, error) {
	started := time.Now()
	text, err := p.stream(ctx, systemPrompt, userMessage, onDelta)
	metrics.ObserveExchange(p.Name().String(), metrics.ModeStream, outcome(err), started)
	return text, err
}

func (p *Provider) stream(ctx context.Context, systemPrompt, userMessage string, onDelta llmprovider.DeltaFunc) (string, error) {
	apiParams, err := buildMessageParams(p.model, systemPrompt, userMessage, p.params)
	if err != nil {
		return "", err
	}

	stream := p.client.Messages.NewStreaming(ctx, apiParams)
	defer stream.Close()

	name := p.Name().String()
	var acc llmprovider.Accumulator

	for stream.Next() {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		switch e := stream.Current().AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if e.Delta.Type != "text_delta" {
				continue
			}
			soFar := acc.Append(e.Delta.Text)
			metrics.DeltasTotal.WithLabelValues(name).Inc()
			if onDelta != nil {
				onDelta(soFar)
			}

		case anthropic.MessageDeltaEvent:
			p.logger.Debug("anthropic stream stop",
				"stop_reason", string(e.Delta.StopReason),
				"output_tokens", e.Usage.OutputTokens,
			)
		}
	}

	if err := stream.Err(); err != nil {
		return "", p.mapError(ctx, err)
	}

	return acc.String(), nil
}
