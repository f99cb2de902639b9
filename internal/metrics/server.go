package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ErlanBelekov/stockbetting/internal/health"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sloggin "github.com/samber/slog-gin"
)

// NewServer returns the operational server: Prometheus scrape endpoint plus
// liveness and readiness probes. It is meant for a port that is not exposed
// publicly.
func NewServer(addr string, checker *health.Checker, logger *slog.Logger) *http.Server {
	r := gin.New()
	r.Use(sloggin.NewWithConfig(logger.With("component", "ops"), sloggin.Config{
		DefaultLevel:     slog.LevelDebug,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
	}))
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", checker.LivenessHandler)
	r.GET("/readyz", checker.ReadinessHandler)

	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
