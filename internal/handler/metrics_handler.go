package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/campusgo/tutorias-api/internal/service"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	db      *sqlx.DB
	cache   *redis.Client
}

// NewMetricsHandler constructs a metrics handler. db and cache feed the
// readiness probe and may be nil.
func NewMetricsHandler(metrics *service.MetricsService, db *sqlx.DB, cache *redis.Client) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, db: db, cache: cache}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the backing stores answer.
func (h *MetricsHandler) Ready(c *gin.Context) {
	checks := gin.H{}
	healthy := true

	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			checks["database"] = err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(c.Request.Context()).Err(); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": checks})
}
