package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
)

// TicketStats reports the size of the ticket store.
type TicketStats interface {
	Len() int
	Buckets() int
}

// ConnectionStats reports the number of live connections.
type ConnectionStats interface {
	Len() int
}

// Options configures a Handler. Nil fields are tolerated.
type Options struct {
	Tickets     TicketStats
	Connections ConnectionStats

	// Ready returns an error while the service cannot accept connections.
	Ready func(ctx context.Context) error

	Logger logger.Logger
}

// Handler serves the operational endpoints.
type Handler struct {
	opts    Options
	started time.Time
	mux     *http.ServeMux
}

// New creates a Handler.
func New(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	h := &Handler{
		opts:    opts,
		started: time.Now(),
		mux:     http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	h.mux.HandleFunc("GET /status", h.handleStatus)
}

// writeJSON writes a success envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(NewResponse(logger.RequestIDFromContext(r.Context()), data)); err != nil {
		h.opts.Logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error envelope for err.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.GetErrorCode(err)
	message := err.Error()
	if code == "" {
		h.opts.Logger.Error("internal error", "error", err)
		code = domain.ErrInternalServer.Code
		message = domain.ErrInternalServer.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(errorCodeToHTTPStatus(code))
	json.NewEncoder(w).Encode(NewErrorResponse(logger.RequestIDFromContext(r.Context()), code, message))
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4010"):
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "-4030"):
		return http.StatusForbidden
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"), strings.HasPrefix(code, "TG-ARG-"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
