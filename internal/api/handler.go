package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/safeahead/hazard-alerts/internal/guidance"
	"github.com/safeahead/hazard-alerts/internal/models"
	"github.com/safeahead/hazard-alerts/internal/query"
	"github.com/safeahead/hazard-alerts/internal/stream"
)

const defaultListLimit = 100

type Handler struct {
	svc         *query.Service
	broadcaster *stream.Broadcaster
	lastPoll    func() time.Time
}

// NewHandler wires the read-only query boundary. broadcaster and lastPoll
// may be nil; the stream endpoint and health detail degrade gracefully.
func NewHandler(svc *query.Service, broadcaster *stream.Broadcaster, lastPoll func() time.Time) *Handler {
	return &Handler{
		svc:         svc,
		broadcaster: broadcaster,
		lastPoll:    lastPoll,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/alerts", h.getAlerts)
	r.GET("/api/alerts/stream", h.streamAlerts)
	r.GET("/api/guidance", h.getGuidance)
	r.GET("/health", h.health)
}

func (h *Handler) getAlerts(c *gin.Context) {
	filter := query.Filter{
		Limit: defaultListLimit,
	}

	if s := c.Query("severity"); s != "" {
		sev, ok := models.ParseSeverity(s)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid severity: " + s})
			return
		}
		filter.Severity = &sev
	}
	if t := c.Query("type"); t != "" {
		typ, ok := models.ParseAlertType(t)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type: " + t})
			return
		}
		filter.Type = &typ
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			filter.Limit = lim
		}
	}

	alerts := h.svc.ListAlerts(filter)
	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// streamAlerts pushes created and updated alerts over SSE until the client
// disconnects or the broadcaster shuts down.
func (h *Handler) streamAlerts(c *gin.Context) {
	if h.broadcaster == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "streaming disabled"})
		return
	}

	id, ch := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case a, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("alert", a)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) getGuidance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"guidance": guidance.Topics(),
	})
}

func (h *Handler) health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if h.lastPoll != nil {
		if last := h.lastPoll(); !last.IsZero() {
			resp["last_poll"] = last
		}
	}
	c.JSON(http.StatusOK, resp)
}
