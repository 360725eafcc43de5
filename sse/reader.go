package sse

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/haowjy/thesis-llm-go"
)

// DefaultChunkSize is the read buffer size. Nothing depends on it: frames
// are reassembled regardless of how reads fragment the body.
const DefaultChunkSize = 4096

// ReadError wraps a failure of the underlying reader, as opposed to an error
// returned by the frame callback.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading event stream: %v", e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// FrameFunc handles one frame. Returning an error stops the scan.
type FrameFunc func(frame llmprovider.StreamFrame) error

// Scan reads r until end of data and calls fn for every frame in stream
// order. All frames contained in one chunk are handled before the next read.
// At end of data the decoder is flushed and an unterminated last line is
// still parsed.
//
// Scan returns ctx.Err() if the context is done between reads, a *ReadError
// for reader failures, or the first error returned by fn.
func Scan(ctx context.Context, r io.Reader, fn FrameFunc) error {
	var (
		dec   Decoder
		lines LineBuffer
		buf   = make([]byte, DefaultChunkSize)
	)

	emit := func(line string) error {
		frame, ok := ParseFrame(line)
		if !ok {
			return nil
		}
		return fn(frame)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			if err := lines.Write(dec.Decode(buf[:n]), emit); err != nil {
				return err
			}
		}

		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return &ReadError{Err: readErr}
		}
	}

	if err := lines.Write(dec.Flush(), emit); err != nil {
		return err
	}
	return lines.Flush(emit)
}
