package connection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yndnr/tokgate/internal/core/domain"
)

// fakeGate accepts alice/secret or the ticket "good", mirroring the
// server's envelope framing.
type fakeGate struct {
	mu      sync.Mutex
	headers []http.Header
	closed  chan struct{}
}

func newFakeGate() *fakeGate {
	return &fakeGate{closed: make(chan struct{}, 1)}
}

func (g *fakeGate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	g.headers = append(g.headers, r.Header.Clone())
	g.mu.Unlock()

	up := websocket.Upgrader{}
	ws, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	id := r.Header.Get(HeaderUUID)
	ok := r.Header.Get(HeaderToken) == "good" ||
		(r.Header.Get(HeaderUsername) == "alice" && r.Header.Get(HeaderPassword) == "secret")
	if !ok {
		ws.WriteJSON(domain.Failure(id, "Authentication failed"))
		ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		return
	}

	ws.WriteJSON(domain.Success(id, "signed.identity.value"))
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			g.closed <- struct{}{}
			return
		}
	}
}

func (g *fakeGate) lastHeader() http.Header {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.headers[len(g.headers)-1]
}

func startFakeGate(t *testing.T) (*fakeGate, string) {
	t.Helper()
	g := newFakeGate()
	mux := http.NewServeMux()
	mux.Handle(SocketPath, g)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return g, srv.URL
}

func TestSocketURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"localhost:3000", "ws://localhost:3000/socket"},
		{"http://localhost:3000", "ws://localhost:3000/socket"},
		{"https://gate.example.com", "wss://gate.example.com/socket"},
		{"ws://host:1/custom", "ws://host:1/custom"},
		{"wss://host/", "wss://host/socket"},
	}

	for _, tt := range tests {
		got, err := SocketURL(tt.in)
		if err != nil {
			t.Errorf("SocketURL(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("SocketURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDial_PasswordLogin(t *testing.T) {
	g, url := startFakeGate(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := NewCorrelationID()
	c, err := Dial(ctx, url, id, Credentials{Username: "alice", Password: "secret", TTL: 90 * time.Second})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	h := g.lastHeader()
	if h.Get(HeaderUUID) != id || h.Get(HeaderTTL) != "90000" || h.Get(HeaderToken) != "" {
		t.Errorf("handshake headers = %v", h)
	}

	resp := c.Response()
	if resp.UUID != id || resp.Status != domain.StatusSuccess {
		t.Errorf("Response() = %+v", resp)
	}
	if c.Ticket() != "signed.identity.value" {
		t.Errorf("Ticket() = %q", c.Ticket())
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	select {
	case <-g.closed:
	case <-time.After(2 * time.Second):
		t.Error("server did not observe the close")
	}
}

func TestDial_TicketWinsOverPassword(t *testing.T) {
	g, url := startFakeGate(t)

	c, err := Dial(context.Background(), url, "id-1", Credentials{Username: "alice", Password: "secret", Ticket: "good"})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	h := g.lastHeader()
	if h.Get(HeaderToken) != "good" || h.Get(HeaderUsername) != "" || h.Get(HeaderPassword) != "" {
		t.Errorf("handshake headers = %v", h)
	}
	if h.Get(HeaderTTL) != "" {
		t.Errorf("Z-Ttl sent without a TTL: %q", h.Get(HeaderTTL))
	}
}

func TestDial_Rejected(t *testing.T) {
	_, url := startFakeGate(t)

	c, err := Dial(context.Background(), url, "id-2", Credentials{Ticket: "bad"})
	if !IsHandshakeError(err) {
		t.Fatalf("Dial() error = %v, want handshake error", err)
	}
	if c == nil {
		t.Fatal("Dial() returned no client for a rejected handshake")
	}
	resp := c.Response()
	if resp.Status != domain.StatusFailure || resp.Content != "Authentication failed" || resp.UUID != "id-2" {
		t.Errorf("Response() = %+v", resp)
	}
	if !strings.Contains(err.Error(), "Authentication failed") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestDial_Unreachable(t *testing.T) {
	_, err := Dial(context.Background(), "127.0.0.1:1", "id", Credentials{Ticket: "x"})
	if err == nil || IsHandshakeError(err) {
		t.Errorf("Dial() error = %v, want dial error", err)
	}
}

func TestSocketClient_Hold(t *testing.T) {
	_, url := startFakeGate(t)

	c, err := Dial(context.Background(), url, "id-3", Credentials{Ticket: "good"})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	if err := c.Send("hello"); err != nil {
		t.Errorf("Send() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := c.Hold(ctx); err != nil {
		t.Errorf("Hold() error = %v", err)
	}
}
