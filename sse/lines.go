package sse

import "strings"

// LineBuffer splits decoded text on '\n'. A trailing line without its
// terminator is held back until more text arrives or Flush is called.
type LineBuffer struct {
	partial strings.Builder
}

// Write feeds text and calls emit for every completed line, in order.
// An error from emit stops processing and is returned.
func (b *LineBuffer) Write(text string, emit func(line string) error) error {
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			b.partial.WriteString(text)
			return nil
		}

		line := text[:i]
		if b.partial.Len() > 0 {
			b.partial.WriteString(line)
			line = b.partial.String()
			b.partial.Reset()
		}
		if err := emit(line); err != nil {
			return err
		}
		text = text[i+1:]
	}
}

// Flush emits the held-back partial line, if any.
func (b *LineBuffer) Flush(emit func(line string) error) error {
	if b.partial.Len() == 0 {
		return nil
	}
	line := b.partial.String()
	b.partial.Reset()
	return emit(line)
}
