package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/haowjy/thesis-llm-go/metrics"
)

// corsMiddleware allows the configured origins; "*" allows any.
func corsMiddleware(allowOrigin string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "Content-Length", "Accept", "Authorization", "Cache-Control", "X-Requested-With"},
		MaxAge:       12 * time.Hour,
	}
	if allowOrigin == "" || allowOrigin == "*" {
		cfg.AllowAllOrigins = true
	} else {
		for _, origin := range strings.Split(allowOrigin, ",") {
			cfg.AllowOrigins = append(cfg.AllowOrigins, strings.TrimSpace(origin))
		}
	}
	return cors.New(cfg)
}

// compression gzips JSON responses. Streams flush per event and the
// metrics endpoint negotiates its own encoding, so both are excluded.
func compression() gin.HandlerFunc {
	return gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/api/generate/", "/api/ws/", EndPointMetrics}),
	)
}

// metricsMiddleware records request counts by route template and status class.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status()/100) + "xx"
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
