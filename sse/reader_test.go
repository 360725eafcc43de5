package sse

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haowjy/thesis-llm-go"
)

const sampleStream = "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\"选题\"}}]}\n\n" +
	"data: {not valid json\n\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\"一：\"}}]}\n\n" +
	": keep-alive\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\"AI 教育 🎓\"}}]}\n\n" +
	"data: [DONE]\n\n"

// accumulate runs Scan and returns the concatenated deltas and frame kinds.
func accumulate(t *testing.T, r io.Reader) (string, []llmprovider.FrameKind) {
	t.Helper()
	var acc llmprovider.Accumulator
	var kinds []llmprovider.FrameKind

	err := Scan(context.Background(), r, func(frame llmprovider.StreamFrame) error {
		kinds = append(kinds, frame.Kind)
		if frame.Kind == llmprovider.FrameContentDelta {
			acc.Append(frame.Text)
		}
		return nil
	})
	require.NoError(t, err)
	return acc.String(), kinds
}

func TestScan_FrameOrder(t *testing.T) {
	text, kinds := accumulate(t, strings.NewReader(sampleStream))

	assert.Equal(t, "选题一：AI 教育 🎓", text)
	assert.Equal(t, []llmprovider.FrameKind{
		llmprovider.FrameHeartbeat,
		llmprovider.FrameContentDelta,
		llmprovider.FrameMalformed,
		llmprovider.FrameContentDelta,
		llmprovider.FrameContentDelta,
		llmprovider.FrameDone,
	}, kinds)
}

func TestScan_ChunkBoundaryIndependence(t *testing.T) {
	want, wantKinds := accumulate(t, strings.NewReader(sampleStream))
	data := []byte(sampleStream)

	t.Run("one byte reads", func(t *testing.T) {
		got, kinds := accumulate(t, iotest.OneByteReader(bytes.NewReader(data)))
		assert.Equal(t, want, got)
		assert.Equal(t, wantKinds, kinds)
	})

	t.Run("half reads", func(t *testing.T) {
		got, _ := accumulate(t, iotest.HalfReader(bytes.NewReader(data)))
		assert.Equal(t, want, got)
	})

	t.Run("data with EOF", func(t *testing.T) {
		got, _ := accumulate(t, iotest.DataErrReader(bytes.NewReader(data)))
		assert.Equal(t, want, got)
	})

	t.Run("every split point", func(t *testing.T) {
		for i := 1; i < len(data); i++ {
			r := io.MultiReader(bytes.NewReader(data[:i]), bytes.NewReader(data[i:]))
			got, kinds := accumulate(t, r)
			if !assert.Equal(t, want, got, "split at byte %d", i) {
				return
			}
			assert.Equal(t, wantKinds, kinds, "split at byte %d", i)
		}
	})
}

func TestScan_InvalidBytesIndependentOfSplit(t *testing.T) {
	var data []byte
	data = append(data, []byte("data: {\"choices\":[{\"delta\":{\"content\":\"X")...)
	data = append(data, 0xFF, 0xE8, 0xAE)
	data = append(data, []byte("a\"}}]}\n\ndata: [DONE]\n\n")...)

	want, _ := accumulate(t, bytes.NewReader(data))
	require.Equal(t, "X\uFFFD\uFFFD\uFFFDa", want)

	for i := 1; i < len(data); i++ {
		r := io.MultiReader(bytes.NewReader(data[:i]), bytes.NewReader(data[i:]))
		got, _ := accumulate(t, r)
		assert.Equal(t, want, got, "split at %d", i)
	}
}

func TestScan_UnterminatedLastLine(t *testing.T) {
	text, _ := accumulate(t, strings.NewReader(`data: {"choices":[{"delta":{"content":"tail"}}]}`))

	assert.Equal(t, "tail", text)
}

func TestScan_BlankAndDoneProduceNoDeltas(t *testing.T) {
	text, kinds := accumulate(t, strings.NewReader("\n\n   \ndata: [DONE]\n\n"))

	assert.Empty(t, text)
	assert.Equal(t, []llmprovider.FrameKind{llmprovider.FrameDone}, kinds)
}

func TestScan_ReadErrorIsWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	r := io.MultiReader(strings.NewReader("data: {\"choices\":[{\"delta\":{\"content\":\"A\"}}]}\n"), iotest.ErrReader(boom))

	var got []string
	err := Scan(context.Background(), r, func(frame llmprovider.StreamFrame) error {
		got = append(got, frame.Text)
		return nil
	})

	var readErr *ReadError
	require.ErrorAs(t, err, &readErr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"A"}, got)
}

func TestScan_CallbackErrorStops(t *testing.T) {
	stop := errors.New("stop")
	calls := 0

	err := Scan(context.Background(), strings.NewReader(sampleStream), func(frame llmprovider.StreamFrame) error {
		calls++
		return stop
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestScan_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Scan(ctx, strings.NewReader(sampleStream), func(llmprovider.StreamFrame) error {
		t.Fatal("no frame expected after cancellation")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}
