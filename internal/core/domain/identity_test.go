package domain

import (
	"strings"
	"testing"
)

func TestNewConnectionID(t *testing.T) {
	id, err := NewConnectionID()
	if err != nil {
		t.Fatalf("NewConnectionID() error = %v", err)
	}
	if !strings.HasPrefix(id, ConnectionIDPrefix) {
		t.Errorf("id %q missing prefix %q", id, ConnectionIDPrefix)
	}
	if len(id) != 30 {
		t.Errorf("len(id) = %d, want 30", len(id))
	}
	if id != strings.ToLower(id) {
		t.Errorf("id %q should be lowercase", id)
	}
	if !IsValidConnectionID(id) {
		t.Errorf("IsValidConnectionID(%q) = false", id)
	}
}

func TestNewConnectionID_Monotonic(t *testing.T) {
	prev, _ := NewConnectionID()
	for i := 0; i < 1000; i++ {
		id, err := NewConnectionID()
		if err != nil {
			t.Fatalf("NewConnectionID() error = %v", err)
		}
		if id <= prev {
			t.Fatalf("id %q not greater than previous %q", id, prev)
		}
		prev = id
	}
}

func TestIsValidConnectionID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"", false},
		{"tgc-", false},
		{"tgc-01hzx3j7q9v2", false},
		{"xyz-01arz3ndektsv4rrffq69g5fav", false},
		{"tgc-01arz3ndektsv4rrffq69g5fav", true},
		{"tgc-01arz3ndektsv4rrffq69g5fa!", false},
	}
	for _, tt := range tests {
		if got := IsValidConnectionID(tt.id); got != tt.want {
			t.Errorf("IsValidConnectionID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
