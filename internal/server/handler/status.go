package handler

import (
	"net/http"
	"time"
)

// StatusHandler serves runtime metadata about the engine.
type StatusHandler struct {
	Mode         string
	Pairs        []string
	PollInterval time.Duration
	StartedAt    time.Time
}

// NewStatusHandler creates a StatusHandler with the given runtime metadata.
func NewStatusHandler(mode string, pairs []string, pollInterval time.Duration, startedAt time.Time) *StatusHandler {
	return &StatusHandler{
		Mode:         mode,
		Pairs:        pairs,
		PollInterval: pollInterval,
		StartedAt:    startedAt,
	}
}

// GetStatus responds with the engine mode, watched pairs, and uptime.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	uptime := int64(time.Since(h.StartedAt).Seconds())
	if uptime < 0 {
		uptime = 0
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"mode":           h.Mode,
		"pairs":          h.Pairs,
		"poll_interval":  h.PollInterval.String(),
		"uptime_seconds": uptime,
	})
}
