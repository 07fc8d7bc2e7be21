package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/internal/telemetry/metric"
	"github.com/yndnr/tokgate/pkg/token"
)

// Handshake header names.
const (
	HeaderCorrelationID = "Z-Uuid"
	HeaderTTL           = "Z-Ttl"
	HeaderTicket        = "Z-Token"
	HeaderUsername      = "Z-Username"
	HeaderPassword      = "Z-Password"
)

// Gate defaults.
const (
	DefaultTicketTTL = 30 * 24 * time.Hour
	MinTicketTTL     = time.Second

	// limiterPruneThreshold bounds the number of tracked caller addresses
	// before idle limiters are reclaimed.
	limiterPruneThreshold = 10000
)

// Conn is the transport side of one client connection as seen by the gate.
type Conn interface {
	// Header returns the handshake header value for name, or "".
	Header(name string) string

	// RemoteAddr returns the caller address.
	RemoteAddr() string

	// Send writes one frame and returns once the transport accepted it.
	Send(ctx context.Context, frame []byte) error

	// Close closes the connection.
	Close() error
}

// UserDirectory looks up accounts for password authentication.
type UserDirectory interface {
	// FindByUsername returns domain.ErrUserNotFound for unknown names.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// Verify checks password against a stored hash.
	Verify(password, passwordHash string) bool
}

// TicketStore holds reconnection tickets.
type TicketStore interface {
	Register(id string, expiresAt time.Time, username, address string)
	Verify(id, address string) (*domain.Ticket, bool)
}

// State is the handshake state of a connection.
type State int32

const (
	StateAwaitingCredentials State = iota
	StateRegistered
	StateRejected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAwaitingCredentials:
		return "awaiting_credentials"
	case StateRegistered:
		return "registered"
	case StateRejected:
		return "rejected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is an authenticated connection.
type Session struct {
	// ID is the identity minted for this connection. It becomes the
	// reconnection ticket ID when the connection closes.
	ID string

	Username      string
	Address       string
	CorrelationID string
	Method        string

	// TTL is how long the reconnection ticket stays redeemable.
	TTL time.Duration

	// Ticket is the signed identity sent to the client.
	Ticket string

	mu    sync.Mutex
	state State
}

// State returns the current handshake state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// GateConfig configures a Gate.
type GateConfig struct {
	// Algorithm signs issued identities.
	Algorithm token.Algorithm

	// SigningKey is the HMAC secret, or a PEM private key for RS256.
	SigningKey []byte

	// VerifyKey checks presented tickets. Defaults to SigningKey; for
	// RS256 it may be the PEM public key.
	VerifyKey []byte

	// DefaultTTL applies when the client sends no usable Z-Ttl.
	DefaultTTL time.Duration

	// MaxTTL caps client requested TTLs. Zero means DefaultTTL.
	MaxTTL time.Duration

	// HandshakeRate is the per-address handshake rate (per second).
	// Zero disables rate limiting.
	HandshakeRate  float64
	HandshakeBurst int
}

// Gate authenticates connections and issues reconnection tickets.
//
// Gate is safe for concurrent use; each connection is handled on its own
// goroutine.
type Gate struct {
	cfg      GateConfig
	users    UserDirectory
	tickets  TicketStore
	limiters *RateLimiterRegistry

	now     func() time.Time
	logger  logger.Logger
	metrics *metric.Registry
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithGateClock sets the time source used for ticket expiry.
func WithGateClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		g.now = now
	}
}

// WithGateLogger sets the logger.
func WithGateLogger(l logger.Logger) GateOption {
	return func(g *Gate) {
		g.logger = l
	}
}

// WithGateMetrics sets the metrics registry.
func WithGateMetrics(m *metric.Registry) GateOption {
	return func(g *Gate) {
		g.metrics = m
	}
}

// NewGate creates a Gate. It signs a probe value with the configured key so
// a signing misconfiguration fails here rather than on the first client.
func NewGate(cfg GateConfig, users UserDirectory, tickets TicketStore, opts ...GateOption) (*Gate, error) {
	if cfg.Algorithm == "" {
		cfg.Algorithm = token.DefaultAlgorithm
	}
	if len(cfg.VerifyKey) == 0 {
		cfg.VerifyKey = cfg.SigningKey
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTicketTTL
	}
	if cfg.MaxTTL <= 0 {
		cfg.MaxTTL = cfg.DefaultTTL
	}
	if cfg.MaxTTL < cfg.DefaultTTL {
		return nil, domain.ErrInvalidArgument.WithDetails("max ttl is shorter than default ttl")
	}

	probe, err := token.Encode("probe", cfg.SigningKey, cfg.Algorithm)
	if err != nil {
		return nil, signingError(err)
	}
	if !token.Decode(probe, cfg.VerifyKey, nil) {
		return nil, domain.ErrSigningMisconfigured.WithDetails("verify key does not match signing key")
	}

	g := &Gate{
		cfg:     cfg,
		users:   users,
		tickets: tickets,
		now:     time.Now,
		logger:  logger.Default(),
	}
	if cfg.HandshakeRate > 0 {
		g.limiters = NewRateLimiterRegistry(cfg.HandshakeRate, cfg.HandshakeBurst)
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Accept runs the handshake for conn.
//
// On success the client has received a success envelope carrying its signed
// identity, and the returned Session is Registered. On rejection the client
// has received a failure envelope before the connection was closed, and the
// returned error is a *domain.DomainError. A missing correlation id closes
// the connection without a reply.
func (g *Gate) Accept(ctx context.Context, conn Conn) (*Session, error) {
	addr := conn.RemoteAddr()
	correlationID := conn.Header(HeaderCorrelationID)
	log := logger.L(ctx).With("remote_addr", addr)

	if correlationID == "" {
		conn.Close()
		g.metrics.Handshake(metric.MethodNone, metric.ResultRejected)
		log.Debug("handshake without correlation id")
		return nil, domain.ErrMissingCorrelationID
	}
	log = log.With("correlation_id", correlationID)

	if !g.allow(addr) {
		g.metrics.Handshake(metric.MethodNone, metric.ResultRateLimited)
		log.Warn("handshake rate limited")
		return nil, g.reject(ctx, conn, correlationID, domain.ErrHandshakeRateLimited)
	}

	username, method, err := g.authenticate(ctx, conn, addr)
	if err != nil {
		g.metrics.Handshake(method, metric.ResultRejected)
		log.Info("handshake rejected", "method", method, "error", err)
		return nil, g.reject(ctx, conn, correlationID, domain.ErrAuthenticationFailed)
	}

	id, err := domain.NewConnectionID()
	if err != nil {
		conn.Close()
		g.metrics.Handshake(method, metric.ResultError)
		return nil, err
	}
	signed, err := token.Encode(id, g.cfg.SigningKey, g.cfg.Algorithm)
	if err != nil {
		conn.Close()
		g.metrics.Handshake(method, metric.ResultError)
		log.Error("cannot sign connection identity", "error", err)
		return nil, signingError(err)
	}

	session := &Session{
		ID:            id,
		Username:      username,
		Address:       addr,
		CorrelationID: correlationID,
		Method:        method,
		TTL:           ParseTTL(conn.Header(HeaderTTL), g.cfg.DefaultTTL, g.cfg.MaxTTL),
		Ticket:        signed,
		state:         StateRegistered,
	}

	if err := g.send(ctx, conn, domain.Success(correlationID, signed)); err != nil {
		conn.Close()
		g.metrics.Handshake(method, metric.ResultError)
		log.Warn("cannot deliver success response", "error", err)
		return nil, err
	}

	g.metrics.Handshake(method, metric.ResultSuccess)
	log.Info("connection registered",
		"conn_id", id,
		"username", username,
		"method", method,
	)
	return session, nil
}

// Release registers a reconnection ticket for a Registered session whose
// connection has closed. Calling Release more than once, or on a session
// that never registered, does nothing.
func (g *Gate) Release(s *Session) {
	if s == nil {
		return
	}

	s.mu.Lock()
	if s.state != StateRegistered {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.mu.Unlock()

	expiresAt := g.now().Add(s.TTL)
	g.tickets.Register(s.ID, expiresAt, s.Username, s.Address)

	g.logger.Debug("reconnection ticket registered",
		"conn_id", s.ID,
		"username", s.Username,
		"expires_at", expiresAt.UnixMilli(),
	)
}

// authenticate resolves the caller's username from password credentials or
// a reconnection ticket.
func (g *Gate) authenticate(ctx context.Context, conn Conn, addr string) (string, string, error) {
	username := conn.Header(HeaderUsername)
	password := conn.Header(HeaderPassword)

	if username != "" && password != "" {
		u, err := g.users.FindByUsername(ctx, username)
		if err != nil {
			if !errors.Is(err, domain.ErrUserNotFound) {
				logger.L(ctx).Error("user lookup failed", "username", username, "error", err)
			}
			return "", metric.MethodPassword, domain.ErrAuthenticationFailed.WithCause(err)
		}
		if !g.users.Verify(password, u.PasswordHash) {
			return "", metric.MethodPassword, domain.ErrAuthenticationFailed.WithDetails("password mismatch")
		}
		return u.Username, metric.MethodPassword, nil
	}

	if presented := conn.Header(HeaderTicket); presented != "" {
		id, ok := token.DecodeString(presented, g.cfg.VerifyKey)
		if !ok {
			return "", metric.MethodTicket, domain.ErrAuthenticationFailed.WithDetails("ticket does not verify")
		}
		t, ok := g.tickets.Verify(id, addr)
		if !ok {
			return "", metric.MethodTicket, domain.ErrAuthenticationFailed.WithDetails("ticket not redeemable")
		}
		return t.Username, metric.MethodTicket, nil
	}

	return "", metric.MethodNone, domain.ErrAuthenticationFailed.WithDetails("no credentials")
}

// reject sends a failure envelope carrying reason's message, then closes.
func (g *Gate) reject(ctx context.Context, conn Conn, correlationID string, reason *domain.DomainError) error {
	if err := g.send(ctx, conn, domain.Failure(correlationID, reason.Message)); err != nil {
		logger.L(ctx).Debug("cannot deliver failure response", "error", err)
	}
	conn.Close()
	return reason
}

func (g *Gate) send(ctx context.Context, conn Conn, resp domain.Response) error {
	frame, err := json.Marshal(resp)
	if err != nil {
		return domain.ErrInternalServer.WithCause(err)
	}
	return conn.Send(ctx, frame)
}

func (g *Gate) allow(addr string) bool {
	if g.limiters == nil {
		return true
	}
	if g.limiters.Len() > limiterPruneThreshold {
		g.limiters.Prune(g.now())
	}
	return g.limiters.Allow(addr)
}

// ParseTTL interprets a Z-Ttl header value. A bare integer is milliseconds;
// a Go duration string such as "90m" is also accepted. The result is
// clamped to [MinTicketTTL, max]. Empty or invalid values yield def.
func ParseTTL(v string, def, max time.Duration) time.Duration {
	if v == "" {
		return def
	}

	var ttl time.Duration
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		if ms <= 0 {
			return def
		}
		if ms > int64(max/time.Millisecond) {
			return max
		}
		ttl = time.Duration(ms) * time.Millisecond
	} else if d, err := time.ParseDuration(v); err == nil {
		ttl = d
	} else {
		return def
	}

	if ttl <= 0 {
		return def
	}
	if ttl < MinTicketTTL {
		return MinTicketTTL
	}
	if ttl > max {
		return max
	}
	return ttl
}

func signingError(err error) error {
	switch {
	case errors.Is(err, token.ErrMissingKey):
		return domain.ErrMissingSigningKey.WithCause(err)
	case errors.Is(err, token.ErrUnsupportedAlgorithm):
		return domain.ErrUnsupportedAlgorithm.WithCause(err)
	default:
		return domain.ErrSigningMisconfigured.WithCause(err)
	}
}
