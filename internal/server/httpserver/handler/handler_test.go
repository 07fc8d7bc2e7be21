package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yndnr/tokgate/internal/telemetry/logger"
)

type fakeStats struct{ n, buckets int }

func (f fakeStats) Len() int     { return f.n }
func (f fakeStats) Buckets() int { return f.buckets }

func newTestHandler(opts Options) *Handler {
	opts.Logger = logger.Discard()
	return New(opts)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	h := newTestHandler(Options{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decode(t, rec)
	data := resp.Data.(map[string]any)
	if resp.Code != "OK" || data["status"] != "healthy" {
		t.Errorf("response = %+v", resp)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name   string
		ready  func(context.Context) error
		status int
		code   string
	}{
		{"no probe", nil, http.StatusOK, "OK"},
		{"probe passes", func(context.Context) error { return nil }, http.StatusOK, "OK"},
		{"probe fails", func(context.Context) error { return errors.New("sweeper stopped") }, http.StatusServiceUnavailable, "TG-SYS-5030"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(Options{Ready: tt.ready})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if resp := decode(t, rec); resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	h := newTestHandler(Options{
		Tickets:     fakeStats{n: 7, buckets: 3},
		Connections: fakeStats{n: 2},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Data StatusResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Data.Tickets != 7 || body.Data.ExpiryBuckets != 3 || body.Data.Connections != 2 {
		t.Errorf("status = %+v", body.Data)
	}
	if body.Data.Version == "" {
		t.Error("version missing")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(Options{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := map[string]int{
		"TG-USER-4040": http.StatusNotFound,
		"TG-USER-4090": http.StatusConflict,
		"TG-SYS-4290":  http.StatusTooManyRequests,
		"TG-AUTH-4010": http.StatusUnauthorized,
		"TG-SYS-4030":  http.StatusForbidden,
		"TG-ARG-1001":  http.StatusBadRequest,
		"TG-SYS-4000":  http.StatusBadRequest,
		"TG-SYS-5030":  http.StatusServiceUnavailable,
		"TG-SYS-5000":  http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := errorCodeToHTTPStatus(code); got != want {
			t.Errorf("errorCodeToHTTPStatus(%q) = %d, want %d", code, got, want)
		}
	}
}
