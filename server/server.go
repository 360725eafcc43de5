// Package server exposes the assistant over HTTP and re-streams generations
// to browsers as server-sent events.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haowjy/thesis-llm-go/assistant"
	"github.com/haowjy/thesis-llm-go/config"
)

// Routes.
const (
	EndPointHealth     = "/health"
	EndPointUseCases   = "/api/use-cases"
	EndPointProfile    = "/api/profile"
	EndPointDocuments  = "/api/documents"
	EndPointGenerate   = "/api/generate/:useCase"
	EndPointGenerateWS = "/api/ws/generate/:useCase"
	EndPointMetrics    = "/metrics"
)

// Server wires the gin router to an assistant.Service.
type Server struct {
	svc    *assistant.Service
	cfg    config.ServerConfig
	logger *slog.Logger
	engine *gin.Engine
}

// New builds the router.
func New(svc *assistant.Service, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	s := &Server{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
		engine: gin.New(),
	}
	if cfg.MaxUploadBytes > 0 {
		s.engine.MaxMultipartMemory = cfg.MaxUploadBytes
	}

	s.engine.Use(
		gin.Recovery(),
		requestLogger(logger),
		metricsMiddleware(),
		corsMiddleware(cfg.AllowOrigin),
		compression(),
	)

	s.engine.GET(EndPointHealth, s.health)
	s.engine.GET(EndPointMetrics, gin.WrapH(promhttp.Handler()))

	limited := rateLimit(cfg.RateLimit, cfg.RateBurst)

	api := s.engine.Group("/api")
	{
		api.GET("/use-cases", s.useCases)
		api.GET("/profile", s.getProfile)
		api.PUT("/profile", s.putProfile)
		api.POST("/documents", s.uploadDocument)
		api.POST("/generate/:useCase", limited, s.generate)
		api.GET("/ws/generate/:useCase", limited, s.generateWS)
	}

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
