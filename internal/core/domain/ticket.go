package domain

import "time"

// Ticket is a reconnection grant: a previously authenticated identity that
// may be redeemed once, from the same address, until ExpiresAt.
//
// Tickets are immutable after creation; the store replaces rather than
// mutates them.
type Ticket struct {
	// ID is the connection identity the ticket restores.
	ID string `json:"id"`

	// ExpiresAt is the absolute expiry (Unix milliseconds).
	ExpiresAt int64 `json:"expires_at"`

	// Address is the caller address recorded at registration. Empty means
	// the ticket is not bound to an address.
	Address string `json:"address"`

	// Username is the authenticated user the identity belongs to.
	Username string `json:"username"`
}

// NewTicket creates a ticket expiring at expiresAt.
func NewTicket(id string, expiresAt time.Time, username, address string) *Ticket {
	return &Ticket{
		ID:        id,
		ExpiresAt: expiresAt.UnixMilli(),
		Address:   address,
		Username:  username,
	}
}

// IsDue reports whether the ticket has expired at nowMs (Unix milliseconds).
// A ticket expiring exactly at nowMs is due.
func (t *Ticket) IsDue(nowMs int64) bool {
	return t.ExpiresAt <= nowMs
}

// BoundTo reports whether the ticket may be redeemed from address.
func (t *Ticket) BoundTo(address string) bool {
	return t.Address == "" || t.Address == address
}

// ExpiresAtTime returns ExpiresAt as a time.Time.
func (t *Ticket) ExpiresAtTime() time.Time {
	return time.UnixMilli(t.ExpiresAt)
}
