package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck reports whether a dependency is reachable
type ReadinessCheck func(ctx context.Context) error

// MetricsHandler provides Prometheus metrics and health endpoints
type MetricsHandler struct {
	gatherer prometheus.Gatherer
	checks   map[string]ReadinessCheck
}

// NewMetricsHandler creates a new metrics handler serving the default registry,
// where promauto registers the application metrics.
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{
		gatherer: prometheus.DefaultGatherer,
		checks:   make(map[string]ReadinessCheck),
	}
}

// AddReadinessCheck registers a named dependency check used by /ready
func (h *MetricsHandler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}

// MetricsEndpoint returns the Prometheus metrics handler
func (h *MetricsHandler) MetricsEndpoint() gin.HandlerFunc {
	handler := promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})

	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// HealthEndpoint provides a basic health check
func (h *MetricsHandler) HealthEndpoint() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   "pedidos-sucursales",
			"timestamp": time.Now().Unix(),
		})
	}
}

// ReadinessEndpoint runs every registered dependency check
func (h *MetricsHandler) ReadinessEndpoint() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		failures := gin.H{}
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				failures[name] = err.Error()
			}
		}

		if len(failures) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "not_ready",
				"failures": failures,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	}
}

// LivenessEndpoint provides liveness check
func (h *MetricsHandler) LivenessEndpoint() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "alive",
		})
	}
}
