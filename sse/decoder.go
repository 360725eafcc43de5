package sse

import (
	"strings"
	"unicode/utf8"
)

// Decoder is a stateful UTF-8 decoder. Bytes that form an incomplete
// character at the end of a chunk are retained and prefixed to the next one.
// Each invalid byte decodes to its own U+FFFD.
type Decoder struct {
	pending []byte
}

// Decode returns the text of all complete characters seen so far.
func (d *Decoder) Decode(chunk []byte) string {
	if len(d.pending) > 0 {
		chunk = append(d.pending, chunk...)
		d.pending = nil
	}

	cut := completePrefix(chunk)
	if cut < len(chunk) {
		d.pending = append([]byte(nil), chunk[cut:]...)
	}
	return toValid(chunk[:cut])
}

// Flush returns whatever is still pending. Call once at end of data.
func (d *Decoder) Flush() string {
	if len(d.pending) == 0 {
		return ""
	}
	text := toValid(d.pending)
	d.pending = nil
	return text
}

// Pending reports how many bytes are held back.
func (d *Decoder) Pending() int {
	return len(d.pending)
}

// completePrefix returns the length of the longest prefix of b that does not
// end inside a multi-byte character.
func completePrefix(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return len(b)
		}
		return i
	}
	return len(b)
}

// toValid replaces every byte that does not start a valid encoding with
// U+FFFD, one replacement per byte, so the result does not depend on where
// a run of invalid bytes was split between chunks.
func toValid(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b) + 2*utf8.UTFMax)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
		} else {
			sb.Write(b[:size])
		}
		b = b[size:]
	}
	return sb.String()
}
