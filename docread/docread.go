// Package docread extracts plain text from uploaded documents.
package docread

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsupportedFormat is returned for formats that need a dedicated
	// parser (PDF, legacy .doc) or are unknown.
	ErrUnsupportedFormat = errors.New("docread: unsupported document format")

	// ErrEmptyDocument is returned when no text could be extracted.
	ErrEmptyDocument = errors.New("docread: document is empty")
)

// MaxSize bounds how much of a document is read.
const MaxSize = 10 << 20

// Format identifies a document type by extension.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatDocx     Format = "docx"
)

// DetectFormat maps a file name to a supported format.
func DetectFormat(name string) (Format, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")); ext {
	case "txt", "text":
		return FormatText, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "docx":
		return FormatDocx, nil
	case "pdf", "doc":
		return "", fmt.Errorf("%w: .%s files need a dedicated parser, use .txt or .docx", ErrUnsupportedFormat, ext)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// Read extracts text from r; name selects the format.
func Read(name string, r io.Reader) (string, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	if len(data) > MaxSize {
		return "", fmt.Errorf("%s exceeds %d bytes", name, MaxSize)
	}

	var text string
	switch format {
	case FormatDocx:
		text, err = extractDocx(data)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", name, err)
		}
	default:
		data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s is not UTF-8 text", name)
		}
		text = string(data)
	}

	text, err = normalize(text)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

// ReadFile extracts text from the file at path.
func ReadFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return Read(filepath.Base(path), f)
}

// Excerpt returns the first n runes of text, with "..." appended when
// anything was cut.
func Excerpt(text string, n int) string {
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	rs := []rune(text)
	return string(rs[:n]) + "..."
}
