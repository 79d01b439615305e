package handlers

import (
	"context"
	"log/slog"
	"net/http"
)

// Pinger проверяет доступность зависимости (хранилища)
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	responder
	pinger  Pinger
	version string
}

// NewHealthHandler создает новый handler для health check.
// pinger может быть nil.
func NewHealthHandler(logger *slog.Logger, version string, pinger Pinger) *HealthHandler {
	return &HealthHandler{
		responder: newResponder(logger),
		pinger:    pinger,
		version:   version,
	}
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Health обрабатывает GET /api/v1/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.pinger != nil {
		if err := h.pinger.Ping(ctx); err != nil {
			h.logger.ErrorContext(ctx, "storage health check failed", slog.Any("error", err))
			h.sendJSON(w, HealthResponse{Status: "unavailable", Version: h.version}, http.StatusServiceUnavailable)
			return
		}
	}

	h.sendJSON(w, HealthResponse{Status: "ok", Version: h.version}, http.StatusOK)
}
