package memory

import (
	"sync"
	"time"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/internal/telemetry/metric"
)

// DefaultSweepInterval is used by Start when no positive interval is given.
const DefaultSweepInterval = 10 * time.Second

// TicketStore holds reconnection tickets.
//
// Records are owned by the by-ID map; the expiry index only files their IDs.
// Register, Verify and Sweep each run as one critical section, so the two
// indexes are never observed out of step.
type TicketStore struct {
	mu       sync.Mutex
	byID     map[string]*domain.Ticket
	byExpiry *ExpiryIndex

	now     func() time.Time
	logger  logger.Logger
	metrics *metric.Registry

	// Sweeper lifecycle
	runMu  sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// Option configures the TicketStore.
type Option func(*TicketStore)

// WithClock sets the time source. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *TicketStore) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *TicketStore) {
		s.logger = l
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) Option {
	return func(s *TicketStore) {
		s.metrics = m
	}
}

// NewTicketStore creates an empty ticket store.
func NewTicketStore(opts ...Option) *TicketStore {
	s := &TicketStore{
		byID:     make(map[string]*domain.Ticket),
		byExpiry: NewExpiryIndex(),
		now:      time.Now,
		logger:   logger.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Register creates or replaces the ticket for id.
// A replaced ticket is unfiled from its previous expiry bucket first.
func (s *TicketStore) Register(id string, expiresAt time.Time, username, address string) {
	t := domain.NewTicket(id, expiresAt, username, address)

	s.mu.Lock()
	if old, ok := s.byID[id]; ok {
		s.byExpiry.Remove(old.ExpiresAt, id)
	}
	s.byID[id] = t
	s.byExpiry.Add(t.ExpiresAt, id)
	s.mu.Unlock()

	s.metrics.TicketRegistered()
}

// Verify redeems the ticket for id on behalf of a caller at address.
//
// It returns false when id is empty or unknown, when the ticket is bound to
// a different address, or when the ticket is due. None of those cases
// consume the ticket. On success the ticket is removed from both indexes
// and returned.
func (s *TicketStore) Verify(id, address string) (*domain.Ticket, bool) {
	if id == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	if !t.BoundTo(address) {
		return nil, false
	}
	if t.IsDue(s.now().UnixMilli()) {
		return nil, false
	}

	delete(s.byID, id)
	s.byExpiry.Remove(t.ExpiresAt, id)
	s.metrics.TicketConsumed()

	return t, true
}

// Get returns the ticket for id without consuming it.
func (s *TicketStore) Get(id string) (*domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	return t, ok
}

// Sweep evicts every ticket whose expiry is <= now and returns how many
// were removed. Buckets in the future are left untouched.
//
// An ID filed in a due bucket whose record is missing, or whose record has
// moved to a different expiry, is logged and skipped; it never stops the
// remaining drain.
func (s *TicketStore) Sweep(now time.Time) int {
	start := time.Now()
	nowMs := now.UnixMilli()

	s.mu.Lock()
	due, err := s.byExpiry.TakeDue(nowMs)
	if err != nil {
		s.logger.Error("ticket sweep: expiry scan incomplete", "error", err)
	}
	evicted := 0
	for _, b := range due {
		for id := range b.IDs {
			t, ok := s.byID[id]
			if !ok {
				s.logger.Warn("ticket sweep: indexed id has no record",
					"id", id,
					"expires_at", b.ExpiresAt,
				)
				continue
			}
			if t.ExpiresAt != b.ExpiresAt {
				s.logger.Warn("ticket sweep: record filed under stale expiry",
					"id", id,
					"bucket", b.ExpiresAt,
					"expires_at", t.ExpiresAt,
				)
				continue
			}
			delete(s.byID, id)
			evicted++
		}
	}
	remaining := len(s.byID)
	s.mu.Unlock()

	s.metrics.ObserveSweep(evicted, time.Since(start))
	if evicted > 0 {
		s.logger.Debug("ticket sweep complete",
			"evicted", evicted,
			"remaining", remaining,
		)
	}

	return evicted
}

// Start launches the periodic sweep. It returns domain.ErrSweeperRunning if
// the sweeper is already running.
func (s *TicketStore) Start(interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.stopCh != nil {
		return domain.ErrSweeperRunning
	}
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.sweepLoop(interval, s.stopCh, s.doneCh)

	s.logger.Info("ticket sweeper started", "interval", interval.String())
	return nil
}

// Stop halts the periodic sweep and waits for an in-flight pass to finish.
// Stopping a store that is not running is a no-op.
func (s *TicketStore) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.stopCh == nil {
		return
	}
	close(s.stopCh)
	<-s.doneCh
	s.stopCh = nil
	s.doneCh = nil

	s.logger.Info("ticket sweeper stopped")
}

// sweepLoop runs periodic sweeps.
func (s *TicketStore) sweepLoop(interval time.Duration, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(s.now())
		case <-stopCh:
			return
		}
	}
}

// Len returns the number of stored tickets.
func (s *TicketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Buckets returns the number of distinct expiry instants.
func (s *TicketStore) Buckets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byExpiry.Buckets()
}
