package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/yndnr/tokgate/internal/core/domain"
)

// Handshake headers.
const (
	HeaderUUID     = "Z-Uuid"
	HeaderTTL      = "Z-Ttl"
	HeaderToken    = "Z-Token"
	HeaderUsername = "Z-Username"
	HeaderPassword = "Z-Password"
)

// SocketPath is the server's socket endpoint.
const SocketPath = "/socket"

// Credentials selects how the handshake authenticates. Ticket wins when
// both are set.
type Credentials struct {
	Username string
	Password string
	Ticket   string

	// TTL is sent as Z-Ttl in milliseconds when positive.
	TTL time.Duration
}

// SocketClient is an authenticated socket connection.
type SocketClient struct {
	ws       *websocket.Conn
	response domain.Response
}

// SocketURL converts a server address into the socket endpoint URL.
func SocketURL(server string) (string, error) {
	switch {
	case strings.HasPrefix(server, "http://"):
		server = "ws://" + strings.TrimPrefix(server, "http://")
	case strings.HasPrefix(server, "https://"):
		server = "wss://" + strings.TrimPrefix(server, "https://")
	case strings.HasPrefix(server, "ws://"), strings.HasPrefix(server, "wss://"):
	default:
		server = "ws://" + server
	}

	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parse server address: %w", err)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = SocketPath
	}
	return u.String(), nil
}

// NewCorrelationID returns a fresh Z-Uuid value.
func NewCorrelationID() string {
	return uuid.NewString()
}

// Dial connects to server, performs the handshake and reads the response
// envelope. A failure envelope is returned as a *HandshakeError together
// with the client so callers can still print the response.
func Dial(ctx context.Context, server, correlationID string, creds Credentials, opts ...Option) (*SocketClient, error) {
	o := applyOptions(opts)
	endpoint, err := SocketURL(server)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set(HeaderUUID, correlationID)
	if creds.TTL > 0 {
		header.Set(HeaderTTL, strconv.FormatInt(creds.TTL.Milliseconds(), 10))
	}
	if creds.Ticket != "" {
		header.Set(HeaderToken, creds.Ticket)
	} else {
		header.Set(HeaderUsername, creds.Username)
		header.Set(HeaderPassword, creds.Password)
	}

	dialer := websocket.Dialer{
		Proxy:             http.ProxyFromEnvironment,
		HandshakeTimeout:  10 * time.Second,
		EnableCompression: true,
		TLSClientConfig:   o.tlsConfig,
	}
	ws, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", endpoint, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	c := &SocketClient{ws: ws}
	if deadline, ok := ctx.Deadline(); ok {
		ws.SetReadDeadline(deadline)
	}
	_, msg, err := ws.ReadMessage()
	if err != nil {
		ws.Close()
		return nil, fmt.Errorf("read handshake response: %w", err)
	}
	ws.SetReadDeadline(time.Time{})

	if err := json.Unmarshal(msg, &c.response); err != nil {
		ws.Close()
		return nil, fmt.Errorf("decode handshake response: %w", err)
	}
	if c.response.Status != domain.StatusSuccess {
		ws.Close()
		return c, &HandshakeError{Response: c.response}
	}
	return c, nil
}

// Response returns the handshake response envelope.
func (c *SocketClient) Response() domain.Response {
	return c.response
}

// Ticket returns the signed identity issued by the server.
func (c *SocketClient) Ticket() string {
	s, _ := c.response.Content.(string)
	return s
}

// Send writes a text message.
func (c *SocketClient) Send(msg string) error {
	return c.ws.WriteMessage(websocket.TextMessage, []byte(msg))
}

// Hold keeps the connection open, answering pings, until ctx is done or
// the server closes it.
func (c *SocketClient) Hold(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		for {
			if _, _, err := c.ws.ReadMessage(); err != nil {
				errCh <- err
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil
		}
		return err
	}
}

// Close sends a close frame and closes the connection.
func (c *SocketClient) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.ws.Close()
}

// HandshakeError reports a failure envelope from the server.
type HandshakeError struct {
	Response domain.Response
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake rejected: %v", e.Response.Content)
}

// IsHandshakeError reports whether err is a rejected handshake.
func IsHandshakeError(err error) bool {
	var he *HandshakeError
	return errors.As(err, &he)
}
