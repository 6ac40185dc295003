package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/clinic-agenda/internal/store"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready pings the repository.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		h.Log.WithError(err).Warn("readiness check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *Handler) GetDoctors(c *gin.Context) {
	doctors, err := store.ListDoctors(c.Request.Context(), h.Store)
	if err != nil {
		h.fail(c, err, "Failed to retrieve doctors")
		return
	}
	c.JSON(http.StatusOK, doctors)
}
