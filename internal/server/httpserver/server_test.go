package httpserver

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/internal/telemetry/metric"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	s := New(ln.Addr().String(), okHandler())
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Serve(ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown error: %v", err)
	}

	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("timeout waiting for Serve to return")
	}
}

func TestNewRouter(t *testing.T) {
	reg := metric.NewRegistry()
	reg.TicketRegistered()

	socket := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	router := NewRouter(&RouterConfig{
		Socket:  socket,
		Metrics: reg,
		Logger:  logger.Discard(),
	})

	tests := []struct {
		method, path string
		want         int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/ready", http.StatusOK},
		{"GET", "/status", http.StatusOK},
		{"GET", "/metrics", http.StatusOK},
		{"GET", "/socket", http.StatusTeapot},
		{"POST", "/socket", http.StatusMethodNotAllowed},
		{"GET", "/sessions", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "tokgate_tickets_registered_total 1") {
		t.Errorf("metrics output missing counter:\n%s", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("metrics route skipped RequestID")
	}
}

func TestNewRouter_MetricsACL(t *testing.T) {
	router := NewRouter(&RouterConfig{
		Metrics:          metric.NewRegistry(),
		MetricsAllowList: []string{"127.0.0.1"},
		Logger:           logger.Discard(),
	})

	req := httptest.NewRequest("GET", "/metrics", nil)
	req.RemoteAddr = "10.9.9.9:1000"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/socket", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unconfigured socket route status = %d, want 404", rec.Code)
	}
}

func TestDefaultRouterConfig(t *testing.T) {
	cfg := DefaultRouterConfig()
	if cfg.RateLimit <= 0 || cfg.RateLimitBurst <= 0 {
		t.Errorf("rate limit defaults = %v/%v", cfg.RateLimit, cfg.RateLimitBurst)
	}
}
