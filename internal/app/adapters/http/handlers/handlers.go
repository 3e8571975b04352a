package handlers

import (
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"
	"twitchnotify/internal/app/domain/notifications"
	"twitchnotify/internal/app/ports"
	"twitchnotify/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/cpu"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

type Status struct {
	Login            string       `json:"login"`
	State            string       `json:"state"`
	Ready            bool         `json:"ready"`
	Desired          []string     `json:"desired"`
	Tracking         []string     `json:"tracking"`
	Rooms            []ports.Room `json:"rooms"`
	PendingGifts     int          `json:"pending_gifts"`
	PendingMassGifts int          `json:"pending_mass_gifts"`
	StartedAt        time.Time    `json:"started_at"`
}

// Service is what the admin endpoints read and drive.
type Service interface {
	Status() Status
	Recent(limit int) []notifications.Notification
	SendDummy(kind notifications.Kind) error
	SetChannels(channels []string) error
}

type Handlers struct {
	log logger.Logger
	svc Service
}

func New(log logger.Logger, svc Service) *Handlers {
	return &Handlers{
		log: log,
		svc: svc,
	}
}

type statusResponse struct {
	Status
	Uptime     string  `json:"uptime"`
	CPUPercent float64 `json:"cpu_percent"`
	MemoryMB   uint64  `json:"memory_mb"`
	Goroutines int     `json:"goroutines"`
}

func (h *Handlers) StatusHandler(c *gin.Context) {
	st := h.svc.Status()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	percent, _ := cpu.Percent(0, false)
	if len(percent) == 0 {
		percent = append(percent, 0)
	}

	resp := statusResponse{
		Status:     st,
		CPUPercent: percent[0],
		MemoryMB:   m.Sys / 1024 / 1024,
		Goroutines: runtime.NumGoroutine(),
	}
	if !st.StartedAt.IsZero() {
		resp.Uptime = time.Since(st.StartedAt).Truncate(time.Second).String()
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) NotificationsHandler(c *gin.Context) {
	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
			return
		}
		limit = min(n, maxRecentLimit)
	}

	c.JSON(http.StatusOK, gin.H{"notifications": h.svc.Recent(limit)})
}

func (h *Handlers) DummyHandler(c *gin.Context) {
	kind, err := notifications.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.SendDummy(kind); err != nil {
		h.log.Error("Failed to send dummy notification", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusAccepted)
}

type channelsRequest struct {
	Channels []string `json:"channels"`
}

var ErrNoChannels = errors.New("channels is required")

func (h *Handlers) ChannelsHandler(c *gin.Context) {
	var req channelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Channels == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrNoChannels.Error()})
		return
	}

	if err := h.svc.SetChannels(req.Channels); err != nil {
		h.log.Warn("Rejected channel update", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"desired": h.svc.Status().Desired})
}
