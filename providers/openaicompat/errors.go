package openaicompat

import (
	"encoding/json"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/haowjy/thesis-llm-go"
)

// handleErrorResponse converts a non-2xx response into an HTTPStatusError.
// The body is read (bounded) for diagnostics and never parsed as a stream.
func (p *Provider) handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	statusErr := &llmprovider.HTTPStatusError{
		Provider:   p.Name().String(),
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Message:    extractErrorMessage(body),
	}

	p.logger.Warn("chat completion request failed",
		"provider", p.Name(),
		"status", resp.StatusCode,
		"message", truncate(statusErr.Message, 200),
	)

	return statusErr
}

// extractErrorMessage pulls a message out of the common error body shapes:
// {"error":{"message":...}}, {"error":"..."} and {"message":...}.
func extractErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var errResp struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return ""
	}

	if len(errResp.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(errResp.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		var flat string
		if json.Unmarshal(errResp.Error, &flat) == nil && flat != "" {
			return flat
		}
	}

	return errResp.Message
}

// truncate limits s to about maxLen bytes for logs, cutting on a rune
// boundary.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
