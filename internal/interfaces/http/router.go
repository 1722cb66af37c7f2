// Package http wires the gin route tree and the HTTP server for the
// topology API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/HexaTopo/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/HexaTopo/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/HexaTopo/internal/interfaces/http/handlers"
	"github.com/turtacn/HexaTopo/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree.
type RouterConfig struct {
	TopologyHandler *handlers.TopologyHandler
	HealthHandler   *handlers.HealthHandler

	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector

	// Mode is a gin mode constant; empty means release.
	Mode string
}

// NewRouter builds the complete route tree: probes and metrics at the root,
// the topology operations under /v1.
func NewRouter(cfg RouterConfig) *gin.Engine {
	mode := cfg.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, middleware.DefaultLoggingConfig()))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}
	if cfg.MetricsCollector != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	v1 := r.Group("/v1")
	if cfg.TopologyHandler != nil {
		cfg.TopologyHandler.RegisterRoutes(v1)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{
			Code:    "COMMON_003",
			Message: "route not found",
		})
	})
	return r
}
