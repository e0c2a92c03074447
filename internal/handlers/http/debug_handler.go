package http

import (
	"net/http"
	"time"

	"morpheus/internal/core/domain"
	"morpheus/internal/infrastructure/monitoring"
	"morpheus/pkg/errors"

	"github.com/gin-gonic/gin"
)

// StateReader exposes the host state for inspection.
type StateReader interface {
	Snapshot() domain.Snapshot
	Office() domain.Office
}

// BannerBoard lists open banners and dismisses them by key.
type BannerBoard interface {
	Banners() map[string]string
	Dismiss(key string) bool
}

// DebugHandler serves the local inspection API.
type DebugHandler struct {
	state     StateReader
	health    *monitoring.HealthChecker
	banners   BannerBoard
	startTime time.Time
}

// NewDebugHandler builds the handler. banners may be nil, which leaves the
// banner routes out.
func NewDebugHandler(state StateReader, health *monitoring.HealthChecker, banners BannerBoard) *DebugHandler {
	return &DebugHandler{
		state:     state,
		health:    health,
		banners:   banners,
		startTime: time.Now(),
	}
}

func (h *DebugHandler) SetupRoutes(router gin.IRoutes) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/state", h.State)
	router.GET("/state/rooms/:id", h.Room)

	if h.banners != nil {
		router.GET("/banners", h.ListBanners)
		router.POST("/banners/:key/dismiss", h.DismissBanner)
	}
}

func (h *DebugHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    monitoring.StatusHealthy,
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).String(),
	})
}

func (h *DebugHandler) Ready(c *gin.Context) {
	status := h.health.CheckAll(c.Request.Context())
	if status.Status != monitoring.StatusHealthy {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *DebugHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"snapshot": h.state.Snapshot(),
		"office":   h.state.Office(),
	})
}

func (h *DebugHandler) Room(c *gin.Context) {
	id := domain.RoomID(c.Param("id"))

	room, ok := h.state.Snapshot().FindRoom(id)
	if !ok {
		c.Error(errors.NewLookupMiss("room", string(id)))
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *DebugHandler) ListBanners(c *gin.Context) {
	c.JSON(http.StatusOK, h.banners.Banners())
}

func (h *DebugHandler) DismissBanner(c *gin.Context) {
	key := c.Param("key")
	if !h.banners.Dismiss(key) {
		c.Error(errors.NewLookupMiss("banner", key))
		return
	}
	c.Status(http.StatusNoContent)
}
