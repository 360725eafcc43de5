package llmprovider

import "strings"

// DeltaFunc receives the cumulative response text after each content delta.
// It runs inline on the reading goroutine, so a slow callback throttles the
// network read. It must not block indefinitely.
type DeltaFunc func(cumulative string)

// FrameKind classifies a parsed stream line.
type FrameKind int

const (
	// FrameContentDelta carries an incremental content fragment (possibly "").
	FrameContentDelta FrameKind = iota

	// FrameDone is the "data: [DONE]" sentinel. Advisory only.
	FrameDone

	// FrameMalformed is a data line whose payload is not valid JSON.
	// Never fatal: the reader logs it and moves on.
	FrameMalformed

	// FrameHeartbeat is valid JSON without choices[0].delta.content
	// (role-only chunks, finish_reason chunks, usage chunks, keep-alives).
	FrameHeartbeat
)

// String returns a short name for logs.
func (k FrameKind) String() string {
	switch k {
	case FrameContentDelta:
		return "content_delta"
	case FrameDone:
		return "done"
	case FrameMalformed:
		return "malformed"
	case FrameHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// StreamFrame is one parsed unit of the streamed protocol, corresponding to
// one "data:"-prefixed line.
type StreamFrame struct {
	Kind FrameKind

	// Text is the delta content (FrameContentDelta only)
	Text string

	// Raw is the payload after the prefix (FrameMalformed and FrameHeartbeat)
	Raw string

	// Err is the JSON parse error (FrameMalformed only)
	Err error

	// Chunk is the decoded payload (FrameContentDelta and FrameHeartbeat)
	Chunk *ChatCompletionChunk
}

// Accumulator is the growing full-text buffer for one in-flight exchange.
// It only ever grows. Not safe for concurrent use; each exchange owns one.
type Accumulator struct {
	buf    strings.Builder
	deltas int
}

// Append adds a delta and returns the cumulative text.
func (a *Accumulator) Append(delta string) string {
	a.buf.WriteString(delta)
	a.deltas++
	return a.buf.String()
}

// String returns the cumulative text.
func (a *Accumulator) String() string {
	return a.buf.String()
}

// Len returns the cumulative length in bytes.
func (a *Accumulator) Len() int {
	return a.buf.Len()
}

// Deltas returns how many deltas were appended, including empty ones.
func (a *Accumulator) Deltas() int {
	return a.deltas
}
