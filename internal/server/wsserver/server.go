package wsserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yndnr/tokgate/internal/core/service"
	"github.com/yndnr/tokgate/internal/server/httpserver"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/internal/telemetry/metric"
	"github.com/yndnr/tokgate/pkg/cmap"
)

// Defaults for Config fields left zero.
const (
	DefaultReadBufferSize  = 1024
	DefaultWriteBufferSize = 1024
	DefaultReadLimit       = 64 * 1024
	DefaultWriteTimeout    = 10 * time.Second
	DefaultPingInterval    = 30 * time.Second
	DefaultPongTimeout     = 30 * time.Second
)

var writeBufferPool = new(sync.Pool)

// Config configures a Server.
type Config struct {
	// AllowedOrigins lists accepted browser origins. Empty or "*" accepts
	// every origin.
	AllowedOrigins []string

	// EnableCompression negotiates permessage-deflate with clients.
	EnableCompression bool

	// TrustProxy takes the caller address from X-Forwarded-For or
	// X-Real-IP when present.
	TrustProxy bool

	ReadLimit    int64
	WriteTimeout time.Duration
	PingInterval time.Duration
	PongTimeout  time.Duration
}

func (c *Config) setDefaults() {
	if c.ReadLimit <= 0 {
		c.ReadLimit = DefaultReadLimit
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = DefaultPongTimeout
	}
}

// Gate authenticates connections. *service.Gate implements it.
type Gate interface {
	Accept(ctx context.Context, conn service.Conn) (*service.Session, error)
	Release(s *service.Session)
}

// Server is the http.Handler for the WebSocket endpoint.
type Server struct {
	cfg      Config
	gate     Gate
	upgrader websocket.Upgrader
	conns    *cmap.Map[*conn]

	logger  logger.Logger
	metrics *metric.Registry

	mu       sync.Mutex
	shutdown bool
	wg       sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a Server that authenticates connections with gate.
func New(cfg Config, gate Gate, opts ...Option) *Server {
	cfg.setDefaults()

	s := &Server{
		cfg:    cfg,
		gate:   gate,
		conns:  cmap.New[*conn](),
		logger: logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:    DefaultReadBufferSize,
		WriteBufferSize:   DefaultWriteBufferSize,
		WriteBufferPool:   writeBufferPool,
		EnableCompression: cfg.EnableCompression,
		CheckOrigin:       originValidator(cfg.AllowedOrigins, s.logger),
	}
	return s
}

// ServeHTTP upgrades the request, runs the handshake and, once the
// connection is registered, serves it until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied with an HTTP error.
		logger.L(r.Context()).Debug("websocket upgrade failed", "error", err)
		return
	}

	c := newConn(ws, r.Header, httpserver.ClientIP(r, s.cfg.TrustProxy), s.cfg.WriteTimeout)
	ctx := logger.WithLogger(r.Context(), s.logger)

	session, err := s.gate.Accept(ctx, c)
	if err != nil {
		// The gate has replied and closed the connection.
		return
	}

	ctx = logger.WithConnectionID(ctx, session.ID)
	s.conns.Set(session.ID, c)
	s.metrics.ConnectionOpened()

	defer func() {
		s.conns.Delete(session.ID)
		c.Close()
		s.gate.Release(session)
		s.metrics.ConnectionClosed()
	}()

	s.serve(ctx, c)
}

// serve reads from a registered connection until it fails or closes.
func (s *Server) serve(ctx context.Context, c *conn) {
	log := logger.L(ctx)

	c.ws.SetReadLimit(s.cfg.ReadLimit)
	c.ws.SetPongHandler(c.handlePong)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.keepalive(s.cfg.PingInterval, s.cfg.PongTimeout)
	}()
	defer func() {
		c.Close()
		<-done
	}()

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("connection read failed", "error", err)
			} else {
				log.Debug("connection closed")
			}
			return
		}
		s.metrics.MessageReceived()
		log.Debug("message received", "type", msgType, "bytes", len(data))
	}
}

// Len returns the number of registered connections.
func (s *Server) Len() int {
	return s.conns.Count()
}

// Shutdown refuses new connections, closes the registered ones and waits
// for their handlers to finish releasing them, or for ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	for _, c := range s.conns.Drain() {
		c.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
