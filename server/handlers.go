package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/haowjy/thesis-llm-go"
	"github.com/haowjy/thesis-llm-go/assistant"
	"github.com/haowjy/thesis-llm-go/docread"
	"github.com/haowjy/thesis-llm-go/metrics"
	"github.com/haowjy/thesis-llm-go/profile"
)

// excerptRunes matches the research-direction input limit.
const excerptRunes = 100

// errorResponse is the JSON error body and the payload of "error" events.
type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status,omitempty"`
}

// health reports liveness.
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "thesis-llm",
	})
}

func (s *Server) useCases(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"use_cases": s.svc.UseCases(),
		"majors":    profile.Majors(),
	})
}

// getProfile returns the profile as the pages would see it: URL parameters
// over the stored profile over defaults.
func (s *Server) getProfile(c *gin.Context) {
	resolved, err := s.svc.ResolveProfile(c.Request.Context(), profile.Profile{}, profile.FromQuery(c.Request.URL.Query()))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resolved)
}

func (s *Server) putProfile(c *gin.Context) {
	var p profile.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "请求格式错误"})
		return
	}
	if err := s.svc.SaveProfile(c.Request.Context(), p); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) uploadDocument(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "请选择要上传的文件"})
		return
	}
	if s.cfg.MaxUploadBytes > 0 && header.Size > s.cfg.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "文件过大"})
		return
	}

	f, err := header.Open()
	if err != nil {
		s.fail(c, err)
		return
	}
	defer f.Close()

	text, err := docread.Read(header.Filename, f)
	switch {
	case errors.Is(err, docread.ErrUnsupportedFormat):
		c.JSON(http.StatusUnsupportedMediaType, errorResponse{Error: "暂不支持该文件格式，请使用文本文件或Word文档"})
		return
	case errors.Is(err, docread.ErrEmptyDocument):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "文件内容为空，请选择其他文件"})
		return
	case err != nil:
		s.logger.Warn("document read failed", "name", header.Filename, "error", err)
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "文件读取失败，请检查文件格式是否支持"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":    header.Filename,
		"text":    text,
		"excerpt": docread.Excerpt(text, excerptRunes),
	})
}

// generateRequest is the optional JSON body of a generate call.
type generateRequest struct {
	Profile profile.Profile `json:"profile"`
	Input   string          `json:"input"`
}

// generate streams a generation as SSE events: "delta" for every update,
// then "done" with the result or "error" with the student-facing message.
// Failures before the first update are answered with a plain JSON error.
func (s *Server) generate(c *gin.Context) {
	var body generateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "请求格式错误"})
			return
		}
	}

	req := assistant.Request{
		UseCase: c.Param("useCase"),
		Profile: body.Profile,
		Query:   profile.FromQuery(c.Request.URL.Query()),
		Input:   body.Input,
	}

	streaming := false
	startStream := func() {
		if streaming {
			return
		}
		streaming = true
		metrics.StreamingConnections.Inc()
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
	}
	defer func() {
		if streaming {
			metrics.StreamingConnections.Dec()
		}
	}()

	res, err := s.svc.Generate(c.Request.Context(), req, func(u assistant.Update) {
		startStream()
		c.SSEvent("delta", u)
		c.Writer.Flush()
	})

	if err != nil {
		if !streaming {
			s.fail(c, err)
			return
		}
		c.SSEvent("error", errorResponse{Error: llmprovider.UserMessage(err), Status: llmprovider.StatusCode(err)})
		c.Writer.Flush()
		return
	}

	startStream()
	c.SSEvent("done", res)
	c.Writer.Flush()
}

// fail answers with the student-facing message and a status for err's class.
func (s *Server) fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), errorResponse{
		Error:  llmprovider.UserMessage(err),
		Status: llmprovider.StatusCode(err),
	})
}

func statusFor(err error) int {
	var validationErr *llmprovider.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499
	case llmprovider.IsTransportError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
