package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/infra/buildinfo"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.opts.Ready != nil {
		if err := h.opts.Ready(r.Context()); err != nil {
			h.writeError(w, r, domain.ErrServiceUnavailable.WithCause(err))
			return
		}
	}
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "ready",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStatus handles GET /status.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	info := buildinfo.Get()
	resp := StatusResponse{
		Version:       info.Version,
		Commit:        info.Commit,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	}
	if h.opts.Tickets != nil {
		resp.Tickets = h.opts.Tickets.Len()
		resp.ExpiryBuckets = h.opts.Tickets.Buckets()
	}
	if h.opts.Connections != nil {
		resp.Connections = h.opts.Connections.Len()
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}
