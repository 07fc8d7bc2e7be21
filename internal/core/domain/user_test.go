package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser("alice", "s3cret")
	if err != nil {
		t.Fatalf("NewUser() error = %v", err)
	}
	if u.Username != "alice" {
		t.Errorf("Username = %q, want alice", u.Username)
	}
	if !strings.HasPrefix(u.PasswordHash, "$argon2id$v=19$m=16384,t=2,p=2$") {
		t.Errorf("PasswordHash = %q, unexpected format", u.PasswordHash)
	}
	if strings.Contains(u.PasswordHash, "s3cret") {
		t.Error("PasswordHash contains the plain password")
	}
	if u.CreatedAt == 0 {
		t.Error("CreatedAt should be set")
	}
	if !u.CheckPassword("s3cret") {
		t.Error("CheckPassword(correct) = false")
	}
	if u.CheckPassword("S3cret") {
		t.Error("CheckPassword(wrong) = true")
	}
}

func TestNewUser_Validation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "", "pw"},
		{"empty password", "bob", ""},
		{"long username", strings.Repeat("a", MaxUsernameLength+1), "pw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.username, tt.password)
			if !errors.Is(err, ErrUserValidation) {
				t.Errorf("NewUser() error = %v, want %v", err, ErrUserValidation)
			}
		})
	}
}

func TestHashPassword_Salted(t *testing.T) {
	h1, err := HashPassword("same")
	if err != nil {
		t.Fatal(err)
	}
	h2, _ := HashPassword("same")
	if h1 == h2 {
		t.Error("hashes of the same password should differ by salt")
	}
	if !VerifyPassword("same", h1) || !VerifyPassword("same", h2) {
		t.Error("both hashes should verify")
	}
}

func TestVerifyPassword_Malformed(t *testing.T) {
	good, _ := HashPassword("pw")
	parts := strings.Split(good, "$")

	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"wrong algorithm", strings.Replace(good, "argon2id", "argon2i", 1)},
		{"wrong version", strings.Replace(good, "v=19", "v=16", 1)},
		{"bad params", "$argon2id$v=19$m=x,t=2,p=2$" + parts[4] + "$" + parts[5]},
		{"bad salt", "$argon2id$v=19$m=16384,t=2,p=2$!!!$" + parts[5]},
		{"bad hash", "$argon2id$v=19$m=16384,t=2,p=2$" + parts[4] + "$!!!"},
		{"empty hash", "$argon2id$v=19$m=16384,t=2,p=2$" + parts[4] + "$"},
		{"too few parts", "$argon2id$v=19$" + parts[4]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifyPassword("pw", tt.encoded) {
				t.Errorf("VerifyPassword(%q) = true", tt.encoded)
			}
		})
	}
}
