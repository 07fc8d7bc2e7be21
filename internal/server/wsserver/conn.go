package wsserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// conn adapts a WebSocket connection to service.Conn.
type conn struct {
	ws     *websocket.Conn
	header http.Header
	addr   string

	writeTimeout time.Duration

	// writeMu serializes data frames and pings.
	writeMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}

	pingReset    chan struct{}
	pongReceived chan struct{}
}

func newConn(ws *websocket.Conn, header http.Header, addr string, writeTimeout time.Duration) *conn {
	return &conn{
		ws:           ws,
		header:       header,
		addr:         addr,
		writeTimeout: writeTimeout,
		closed:       make(chan struct{}),
		pingReset:    make(chan struct{}, 1),
		pongReceived: make(chan struct{}),
	}
}

func (c *conn) Header(name string) string {
	return c.header.Get(name)
}

func (c *conn) RemoteAddr() string {
	return c.addr
}

// Send writes frame as one text message. It returns once the frame has been
// handed to the socket, or when the write deadline passes.
func (c *conn) Send(ctx context.Context, frame []byte) error {
	deadline := time.Now().Add(c.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	c.ws.SetWriteDeadline(deadline)
	err := c.ws.WriteMessage(websocket.TextMessage, frame)
	c.writeMu.Unlock()
	if err != nil {
		return err
	}

	select {
	case c.pingReset <- struct{}{}:
	default:
	}
	return nil
}

// Close sends a close frame and closes the socket. It is safe to call more
// than once and from any goroutine.
func (c *conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout))
		err = c.ws.Close()
	})
	return err
}

// handlePong runs on the reading goroutine.
func (c *conn) handlePong(string) error {
	select {
	case c.pongReceived <- struct{}{}:
	case <-c.closed:
	}
	return nil
}

// keepalive sends a ping after pingInterval without outgoing traffic and
// expects the pong within pongTimeout. handlePong must be installed before
// the read loop starts.
func (c *conn) keepalive(pingInterval, pongTimeout time.Duration) {
	timer := time.NewTimer(pingInterval)
	defer timer.Stop()

	for {
		select {
		case <-c.closed:
			return

		case <-c.pingReset:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(pingInterval)

		case <-timer.C:
			c.writeMu.Lock()
			c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			c.ws.WriteMessage(websocket.PingMessage, nil)
			c.ws.SetReadDeadline(time.Now().Add(pongTimeout))
			c.writeMu.Unlock()
			timer.Reset(pingInterval)

		case <-c.pongReceived:
			c.ws.SetReadDeadline(time.Time{})
		}
	}
}
