package docread

import (
	"fmt"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// invisible matches format characters that word processors leave in text
// and that would otherwise count against input limits.
var invisible = runes.Predicate(func(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff', '\u00ad':
		return true
	}
	return false
})

// normalize composes text to NFC, drops invisible format characters,
// converts CRLF to LF and trims surrounding space. NFC keeps full-width
// CJK punctuation intact, unlike the compatibility forms.
func normalize(text string) (string, error) {
	t := transform.Chain(norm.NFC, runes.Remove(invisible))
	out, _, err := transform.String(t, text)
	if err != nil {
		return "", fmt.Errorf("normalizing text: %w", err)
	}
	out = strings.ReplaceAll(out, "\r\n", "\n")
	return strings.TrimSpace(out), nil
}
