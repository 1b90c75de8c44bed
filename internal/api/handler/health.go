package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 3 * time.Second

// Pinger checks a dependency. *search.Client satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the service can reach the search cluster.
type HealthHandler struct {
	search Pinger
}

func NewHealthHandler(search Pinger) *HealthHandler {
	return &HealthHandler{search: search}
}

// Check handles GET /health.
func (h *HealthHandler) Check(c *gin.Context) {
	if h.search == nil {
		c.JSON(http.StatusOK, gin.H{"checksRun": 0})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()
	if err := h.search.Ping(ctx); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"checksRun": 1,
			"message":   "Search index is not reachable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"checksRun": 1})
}
