package sse

import (
	"encoding/json"
	"strings"

	"github.com/haowjy/thesis-llm-go"
)

const (
	// DataPrefix marks a frame line. Case-sensitive and anchored at column 0:
	// "  data: {...}" is not a frame.
	DataPrefix = "data:"

	// DoneSentinel is the payload of the terminal marker line.
	DoneSentinel = "[DONE]"
)

// ParseFrame parses one line. The boolean is false for lines that carry no
// frame at all (blank lines, comments, other SSE fields, indented lines).
func ParseFrame(line string) (llmprovider.StreamFrame, bool) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || !strings.HasPrefix(line, DataPrefix) {
		return llmprovider.StreamFrame{}, false
	}

	payload := strings.TrimSpace(line[len(DataPrefix):])
	switch payload {
	case DoneSentinel:
		return llmprovider.StreamFrame{Kind: llmprovider.FrameDone}, true
	case "":
		return llmprovider.StreamFrame{Kind: llmprovider.FrameHeartbeat}, true
	}

	var chunk llmprovider.ChatCompletionChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return llmprovider.StreamFrame{Kind: llmprovider.FrameMalformed, Raw: payload, Err: err}, true
	}

	text, ok := chunk.DeltaContent()
	if !ok {
		return llmprovider.StreamFrame{Kind: llmprovider.FrameHeartbeat, Raw: payload, Chunk: &chunk}, true
	}
	return llmprovider.StreamFrame{Kind: llmprovider.FrameContentDelta, Text: text, Chunk: &chunk}, true
}
