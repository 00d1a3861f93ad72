package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/ds124wfegd/gameroom/pkg/queue"
	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// QueueMonitor is satisfied by *queue.RedisQueue.
type QueueMonitor interface {
	HealthCheck(ctx context.Context) error
	GetQueueStats(ctx context.Context) (*queue.QueueStats, error)
}

type HealthHandler struct {
	db      Pinger
	queue   QueueMonitor
	version string
}

// NewHealthHandler accepts a nil queue when Redis is disabled.
func NewHealthHandler(db Pinger, q QueueMonitor, version string) *HealthHandler {
	return &HealthHandler{db: db, queue: q, version: version}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok"}
	status := http.StatusOK

	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if h.queue != nil {
		checks["queue"] = "ok"
		if err := h.queue.HealthCheck(ctx); err != nil {
			checks["queue"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status":    state,
		"version":   h.version,
		"checks":    checks,
		"timestamp": time.Now().UTC(),
	})
}

func (h *HealthHandler) QueueStats(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: "queue is disabled"})
		return
	}

	stats, err := h.queue.GetQueueStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "", stats)
}
