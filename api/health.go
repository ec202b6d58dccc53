package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Health reports service status and whether the leave store answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	database := "connected"
	if err := h.leaves.Ping(ctx); err != nil {
		h.logger.Warn("health check: leave store unreachable", zap.Error(err))
		database = "disconnected"
	}
	writeJSON(w, http.StatusOK, envelope{
		"status":    "OK",
		"database":  database,
		"timestamp": h.checker.Now().UTC(),
	})
}

// Ping answers "pong".
func (h *Handler) Ping(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
