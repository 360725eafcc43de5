package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haowjy/thesis-llm-go"
	"github.com/haowjy/thesis-llm-go/assistant"
	"github.com/haowjy/thesis-llm-go/config"
	"github.com/haowjy/thesis-llm-go/profile"
	"github.com/haowjy/thesis-llm-go/prompts"
	"github.com/haowjy/thesis-llm-go/render"
)

// scriptedProvider replays deltas or fails with err.
type scriptedProvider struct {
	deltas []string
	err    error
}

func (p *scriptedProvider) Name() llmprovider.ProviderID { return "scripted" }

func (p *scriptedProvider) StreamComplete(ctx context.Context, systemPrompt, userMessage string, onDelta llmprovider.DeltaFunc) (string, error) {
	var acc llmprovider.Accumulator
	for _, d := range p.deltas {
		soFar := acc.Append(d)
		if onDelta != nil {
			onDelta(soFar)
		}
	}
	if p.err != nil {
		return "", p.err
	}
	return acc.String(), nil
}

func (p *scriptedProvider) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return strings.Join(p.deltas, ""), nil
}

func setupServer(t *testing.T, p llmprovider.Provider) *Server {
	t.Helper()
	reg, err := prompts.Default()
	require.NoError(t, err)

	svc := assistant.New(p, reg,
		assistant.WithRenderer(render.Func(render.Plain)),
		assistant.WithDefaults(profile.Profile{Education: profile.EducationUndergraduate}),
	)
	return New(svc, config.ServerConfig{
		Mode:           gin.TestMode,
		AllowOrigin:    "*",
		MaxUploadBytes: 1 << 20,
	}, nil)
}

func do(s *Server, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

// sseEvent is one parsed event of a recorded stream.
type sseEvent struct {
	Name string
	Data string
}

func parseEvents(body string) []sseEvent {
	var events []sseEvent
	for _, block := range strings.Split(body, "\n\n") {
		var ev sseEvent
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event:"):
				ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				ev.Data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			}
		}
		if ev.Name != "" {
			events = append(events, ev)
		}
	}
	return events
}

func TestHealth(t *testing.T) {
	s := setupServer(t, &scriptedProvider{})
	w := do(s, http.MethodGet, EndPointHealth, nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestCORSPreflight(t *testing.T) {
	s := setupServer(t, &scriptedProvider{})

	req := httptest.NewRequest(http.MethodOptions, "/api/generate/assistant", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestCORSRestrictedOrigin(t *testing.T) {
	reg, err := prompts.Default()
	require.NoError(t, err)
	s := New(assistant.New(&scriptedProvider{}, reg), config.ServerConfig{
		Mode:        gin.TestMode,
		AllowOrigin: "https://thesis.example.com",
	}, nil)

	req := httptest.NewRequest(http.MethodGet, EndPointHealth, nil)
	req.Header.Set("Origin", "https://thesis.example.com")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://thesis.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, EndPointHealth, nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGzipJSONButNotStreams(t *testing.T) {
	s := setupServer(t, &scriptedProvider{deltas: []string{"好"}})

	req := httptest.NewRequest(http.MethodGet, EndPointUseCases, nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	req = httptest.NewRequest(http.MethodPost, "/api/generate/assistant",
		bytes.NewReader(mustJSON(t, generateRequest{Input: "你好"})))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Contains(t, w.Body.String(), "event:done")
}

func TestUseCases(t *testing.T) {
	s := setupServer(t, &scriptedProvider{})
	w := do(s, http.MethodGet, EndPointUseCases, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		UseCases []struct {
			Tag    string `json:"tag"`
			Stream bool   `json:"stream"`
		} `json:"use_cases"`
		Majors []profile.Major `json:"majors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.UseCases, 5)
	assert.NotEmpty(t, body.Majors)
	assert.NotContains(t, w.Body.String(), "system_prompt")
}

func TestProfileRoundTrip(t *testing.T) {
	s := setupServer(t, &scriptedProvider{})

	w := do(s, http.MethodPut, EndPointProfile, mustJSON(t, profile.Profile{
		ProjectName: "毕业论文",
		Major:       "computer",
		Education:   profile.EducationGraduate,
	}), "application/json")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(s, http.MethodGet, EndPointProfile+"?major=law", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var got profile.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "law", got.Major, "query overrides stored")
	assert.Equal(t, "毕业论文", got.ProjectName)
	assert.Equal(t, profile.EducationGraduate, got.Education)
}

func TestPutProfile_InvalidEducation(t *testing.T) {
	s := setupServer(t, &scriptedProvider{})
	w := do(s, http.MethodPut, EndPointProfile, []byte(`{"education":"kindergarten"}`), "application/json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "未知的学历层次")
}

func TestPutProfile_BadJSON(t *testing.T) {
	s := setupServer(t, &scriptedProvider{})
	w := do(s, http.MethodPut, EndPointProfile, []byte(`{`), "application/json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerate_StreamsDeltasThenDone(t *testing.T) {
	s := setupServer(t, &scriptedProvider{deltas: []string{"选题", "建议"}})
	w := do(s, http.MethodPost, "/api/generate/topic-selection?major=computer",
		mustJSON(t, generateRequest{Input: "机器学习"}), "application/json")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	events := parseEvents(w.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, "delta", events[0].Name)
	assert.Equal(t, "delta", events[1].Name)
	assert.Equal(t, "done", events[2].Name)

	var first, second assistant.Update
	require.NoError(t, json.Unmarshal([]byte(events[0].Data), &first))
	require.NoError(t, json.Unmarshal([]byte(events[1].Data), &second))
	assert.Equal(t, "选题", first.Text)
	assert.Equal(t, "选题建议", second.Text)

	var res assistant.Result
	require.NoError(t, json.Unmarshal([]byte(events[2].Data), &res))
	assert.Equal(t, "选题建议", res.Text)
	assert.Equal(t, prompts.TopicSelection, res.UseCase)
	assert.True(t, res.Streamed)
	assert.NotEmpty(t, res.ID)
}

func TestGenerate_NonStreamingUseCase(t *testing.T) {
	s := setupServer(t, &scriptedProvider{deltas: []string{"评估", "结果"}})
	w := do(s, http.MethodPost, "/api/generate/topic-appraise",
		mustJSON(t, generateRequest{
			Profile: profile.Profile{Major: "law"},
			Input:   "数据隐私保护研究",
		}), "application/json")

	require.Equal(t, http.StatusOK, w.Code)
	events := parseEvents(w.Body.String())
	require.Len(t, events, 2)
	assert.Equal(t, "delta", events[0].Name)
	assert.Equal(t, "done", events[1].Name)
	assert.Contains(t, events[0].Data, "评估结果")
}

func TestGenerate_ValidationErrorIsJSON(t *testing.T) {
	s := setupServer(t, &scriptedProvider{deltas: []string{"x"}})
	w := do(s, http.MethodPost, "/api/generate/topic-selection",
		mustJSON(t, generateRequest{Input: "机器学习"}), "application/json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "请选择论文专业", body.Error)
}

func TestGenerate_UnknownUseCase(t *testing.T) {
	s := setupServer(t, &scriptedProvider{})
	w := do(s, http.MethodPost, "/api/generate/nope", nil, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "不支持的功能")
}

func TestGenerate_BackendErrorBeforeStream(t *testing.T) {
	s := setupServer(t, &scriptedProvider{err: &llmprovider.HTTPStatusError{
		Provider:   "scripted",
		StatusCode: http.StatusUnauthorized,
	}})
	w := do(s, http.MethodPost, "/api/generate/assistant",
		mustJSON(t, generateRequest{Input: "如何写摘要"}), "application/json")

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, llmprovider.MessageAuthFailed, body.Error)
	assert.Equal(t, http.StatusUnauthorized, body.Status)
}

func TestGenerate_BackendErrorAfterStreamStarted(t *testing.T) {
	s := setupServer(t, &scriptedProvider{
		deltas: []string{"部分"},
		err:    &llmprovider.NetworkError{Provider: "scripted", Err: context.DeadlineExceeded},
	})
	w := do(s, http.MethodPost, "/api/generate/assistant",
		mustJSON(t, generateRequest{Input: "如何写摘要"}), "application/json")

	require.Equal(t, http.StatusOK, w.Code)
	events := parseEvents(w.Body.String())
	require.Len(t, events, 2)
	assert.Equal(t, "delta", events[0].Name)
	assert.Equal(t, "error", events[1].Name)
}

func TestGenerate_BadBody(t *testing.T) {
	s := setupServer(t, &scriptedProvider{})
	w := do(s, http.MethodPost, "/api/generate/assistant", []byte(`{"input":`), "application/json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func multipartBody(t *testing.T, name string, content []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func TestUploadDocument(t *testing.T) {
	s := setupServer(t, &scriptedProvider{})

	body, ct := multipartBody(t, "report.txt", []byte("\ufeff开题报告\r\n研究背景"))
	w := do(s, http.MethodPost, EndPointDocuments, body, ct)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Name    string `json:"name"`
		Text    string `json:"text"`
		Excerpt string `json:"excerpt"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "report.txt", got.Name)
	assert.Equal(t, "开题报告\n研究背景", got.Text)
	assert.Equal(t, got.Text, got.Excerpt)
}

func TestUploadDocument_Errors(t *testing.T) {
	s := setupServer(t, &scriptedProvider{})

	tests := []struct {
		name    string
		file    string
		content []byte
		status  int
	}{
		{"unsupported format", "report.pdf", []byte("%PDF-1.4"), http.StatusUnsupportedMediaType},
		{"empty document", "report.txt", []byte("  \n "), http.StatusUnprocessableEntity},
		{"invalid utf8", "report.txt", []byte{0xff, 0xfe, 0x00}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.file, tt.content)
			w := do(s, http.MethodPost, EndPointDocuments, body, ct)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestUploadDocument_MissingFile(t *testing.T) {
	s := setupServer(t, &scriptedProvider{})
	w := do(s, http.MethodPost, EndPointDocuments, nil, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupServer(t, &scriptedProvider{})
	do(s, http.MethodGet, EndPointHealth, nil, "")

	w := do(s, http.MethodGet, EndPointMetrics, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "thesis_http_requests_total")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &llmprovider.ValidationError{Field: "major", Reason: "x"}, http.StatusBadRequest},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"network", &llmprovider.NetworkError{Provider: "p", Err: assert.AnError}, http.StatusBadGateway},
		{"canceled", context.Canceled, 499},
		{"status", &llmprovider.HTTPStatusError{StatusCode: 500}, http.StatusBadGateway},
		{"decode", &llmprovider.DecodeError{Err: assert.AnError}, http.StatusBadGateway},
		{"other", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
