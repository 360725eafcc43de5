package openaicompat

import (
	"context"
	"errors"
	"time"

	"github.com/haowjy/thesis-llm-go"
	"github.com/haowjy/thesis-llm-go/metrics"
	"github.com/haowjy/thesis-llm-go/sse"
)

// StreamComplete performs one streamed exchange. onDelta (optional) is
// called inline with the cumulative text after every content delta,
// including empty ones. The stream is read until end of data; the
// "[DONE]" marker is informational.
//
// On cancellation the partial text is discarded, ctx.Err() is returned and
// onDelta is not called again.
func (p *Provider) StreamComplete(ctx context.Context, systemPrompt, userMessage string, onDelta llmprovider.DeltaFunc) (string, error) {
	started := time.Now()
	text, err := p.stream(ctx, systemPrompt, userMessage, onDelta)
	metrics.ObserveExchange(p.Name().String(), metrics.ModeStream, outcome(err), started)
	return text, err
}

func (p *Provider) stream(ctx context.Context, systemPrompt, userMessage string, onDelta llmprovider.DeltaFunc) (string, error) {
	resp, err := p.send(ctx, systemPrompt, userMessage, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	name := p.Name().String()
	var acc llmprovider.Accumulator
	skipped := 0

	err = sse.Scan(ctx, resp.Body, func(frame llmprovider.StreamFrame) error {
		switch frame.Kind {
		case llmprovider.FrameContentDelta:
			if err := ctx.Err(); err != nil {
				return err
			}
			soFar := acc.Append(frame.Text)
			metrics.DeltasTotal.WithLabelValues(name).Inc()
			if onDelta != nil {
				onDelta(soFar)
			}

		case llmprovider.FrameMalformed:
			skipped++
			metrics.FramesSkippedTotal.WithLabelValues(name).Inc()
			p.logger.Warn("skipping malformed stream frame",
				"provider", name,
				"data", truncate(frame.Raw, 200),
				"error", frame.Err,
			)

		case llmprovider.FrameHeartbeat:
			if frame.Chunk != nil && frame.Chunk.Error != nil {
				p.logger.Warn("stream frame carries an error object",
					"provider", name,
					"message", truncate(frame.Chunk.Error.Message, 200),
				)
			}

		case llmprovider.FrameDone:
			p.logger.Debug("stream done marker received", "provider", name)
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var readErr *sse.ReadError
		if errors.As(err, &readErr) {
			return "", &llmprovider.NetworkError{Provider: name, Err: readErr.Err}
		}
		return "", err
	}

	p.logger.Debug("stream finished",
		"provider", name,
		"deltas", acc.Deltas(),
		"skipped", skipped,
		"bytes", acc.Len(),
	)

	return acc.String(), nil
}
