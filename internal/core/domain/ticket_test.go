package domain

import (
	"testing"
	"time"
)

func TestNewTicket(t *testing.T) {
	exp := time.UnixMilli(1_700_000_000_000)
	tk := NewTicket("tgc-1", exp, "alice", "10.0.0.1")

	if tk.ID != "tgc-1" || tk.Username != "alice" || tk.Address != "10.0.0.1" {
		t.Errorf("NewTicket() = %+v", tk)
	}
	if tk.ExpiresAt != 1_700_000_000_000 {
		t.Errorf("ExpiresAt = %d, want %d", tk.ExpiresAt, int64(1_700_000_000_000))
	}
	if !tk.ExpiresAtTime().Equal(exp) {
		t.Errorf("ExpiresAtTime() = %v, want %v", tk.ExpiresAtTime(), exp)
	}
}

func TestTicket_IsDue(t *testing.T) {
	tk := &Ticket{ExpiresAt: 1000}

	tests := []struct {
		now  int64
		want bool
	}{
		{999, false},
		{1000, true},
		{1001, true},
	}
	for _, tt := range tests {
		if got := tk.IsDue(tt.now); got != tt.want {
			t.Errorf("IsDue(%d) = %v, want %v", tt.now, got, tt.want)
		}
	}
}

func TestTicket_BoundTo(t *testing.T) {
	tests := []struct {
		name    string
		stored  string
		caller  string
		allowed bool
	}{
		{"same address", "10.0.0.1", "10.0.0.1", true},
		{"different address", "10.0.0.1", "10.0.0.2", false},
		{"unbound ticket", "", "10.0.0.2", true},
		{"bound ticket, empty caller", "10.0.0.1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := &Ticket{Address: tt.stored}
			if got := tk.BoundTo(tt.caller); got != tt.allowed {
				t.Errorf("BoundTo(%q) = %v, want %v", tt.caller, got, tt.allowed)
			}
		})
	}
}
