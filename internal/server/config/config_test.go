package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/tokgate/internal/infra/confloader"
)

func validConfig(t *testing.T) *ServerConfig {
	t.Helper()
	cfg := Default()
	cfg.Security.JWTSecret = "5BD692F61942FA73F2D9CB98AB8A86D1"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.Server.HTTP.Addr, DefaultHTTPAddr)
	}
	if !cfg.Server.HTTP.TrustProxy {
		t.Error("TrustProxy should be on by default")
	}
	if cfg.Sockets.DefaultTTL != 30*24*time.Hour {
		t.Errorf("DefaultTTL = %v, want 30 days", cfg.Sockets.DefaultTTL)
	}
	if cfg.Sockets.MaxTTL < cfg.Sockets.DefaultTTL {
		t.Errorf("MaxTTL = %v shorter than DefaultTTL", cfg.Sockets.MaxTTL)
	}
	if cfg.Security.Algorithm != "HS256" {
		t.Errorf("Algorithm = %q, want HS256", cfg.Security.Algorithm)
	}
	if cfg.Users.Backend != BackendMemory || cfg.Users.SeedStub {
		t.Errorf("Users = %+v, want memory backend without stub users", cfg.Users)
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestVerify_Valid(t *testing.T) {
	if err := Verify(validConfig(t)); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestVerify_Default_RequiresSecret(t *testing.T) {
	err := Verify(Default())
	if err == nil || !strings.Contains(err.Error(), "jwt_secret") {
		t.Errorf("Verify(Default()) error = %v, want jwt_secret required", err)
	}
}

func TestVerify_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServerConfig)
		want   string
	}{
		{"bad addr", func(c *ServerConfig) { c.Server.HTTP.Addr = "nohostport" }, "server.http.addr"},
		{"cert without key", func(c *ServerConfig) { c.Server.HTTP.TLSCertFile = "/tmp/cert.pem" }, "set together"},
		{"missing tls files", func(c *ServerConfig) {
			c.Server.HTTP.TLSCertFile = "/nonexistent/cert.pem"
			c.Server.HTTP.TLSKeyFile = "/nonexistent/key.pem"
		}, "tls file"},
		{"negative rate", func(c *ServerConfig) { c.Server.HTTP.RateLimit = -1 }, "rate_limit"},
		{"zero ttl", func(c *ServerConfig) { c.Sockets.DefaultTTL = 0 }, "default_ttl"},
		{"max below default", func(c *ServerConfig) { c.Sockets.MaxTTL = time.Minute }, "max_ttl"},
		{"negative handshake rate", func(c *ServerConfig) { c.Sockets.HandshakeRate = -1 }, "handshake_rate"},
		{"negative timeout", func(c *ServerConfig) { c.Sockets.PingInterval = -time.Second }, "timeouts"},
		{"unknown algorithm", func(c *ServerConfig) { c.Security.Algorithm = "none" }, "not supported"},
		{"rs256 without key", func(c *ServerConfig) { c.Security.Algorithm = "RS256" }, "signing_key_file"},
		{"zero sweep", func(c *ServerConfig) { c.Tickets.SweepInterval = 0 }, "sweep_interval"},
		{"unknown backend", func(c *ServerConfig) { c.Users.Backend = "redis" }, "users.backend"},
		{"badger without dir", func(c *ServerConfig) {
			c.Users.Backend = BackendBadger
			c.Users.DataDir = ""
		}, "data_dir"},
		{"bad log level", func(c *ServerConfig) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *ServerConfig) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := Verify(cfg)
			if err == nil {
				t.Fatal("Verify() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Verify() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestVerify_BadgerCreatesDataDir(t *testing.T) {
	cfg := validConfig(t)
	cfg.Users.Backend = BackendBadger
	cfg.Users.DataDir = filepath.Join(t.TempDir(), "nested", "users")

	if err := Verify(cfg); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if _, err := os.Stat(cfg.Users.DataDir); err != nil {
		t.Errorf("data dir not created: %v", err)
	}
}

func writeRSAKeys(t *testing.T, dir string) (privPath, pubPath string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPKIXPublicKey: %v", err)
	}

	privPath = filepath.Join(dir, "signing.pem")
	pubPath = filepath.Join(dir, "verify.pem")
	priv := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pub := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	if err := os.WriteFile(privPath, priv, 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pubPath, pub, 0644); err != nil {
		t.Fatal(err)
	}
	return privPath, pubPath
}

func TestVerify_RS256(t *testing.T) {
	dir := t.TempDir()
	privPath, pubPath := writeRSAKeys(t, dir)
	_, otherPub := writeRSAKeys(t, t.TempDir())

	cfg := validConfig(t)
	cfg.Security.Algorithm = "RS256"
	cfg.Security.SigningKeyFile = privPath
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() with signing key only error = %v", err)
	}

	cfg.Security.VerifyKeyFile = pubPath
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() with matching public key error = %v", err)
	}

	cfg.Security.VerifyKeyFile = otherPub
	if err := Verify(cfg); err == nil {
		t.Error("Verify() accepted a public key from another pair")
	}
}

func TestSecurityKeys_HMAC(t *testing.T) {
	s := SecuritySection{Algorithm: "HS512", JWTSecret: "secret"}
	signing, verify, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if string(signing) != "secret" || string(verify) != "secret" {
		t.Errorf("Keys() = %q, %q", signing, verify)
	}
}

func TestSanitize(t *testing.T) {
	cfg := &ServerConfig{
		Security: SecuritySection{
			JWTSecret: "super-secret-key-1234567890",
		},
	}

	sanitized := Sanitize(cfg)

	if cfg.Security.JWTSecret != "super-secret-key-1234567890" {
		t.Error("Original config should not be modified")
	}
	if sanitized.Security.JWTSecret == cfg.Security.JWTSecret {
		t.Error("Sanitized config should mask the secret")
	}
	if got, want := sanitized.Security.JWTSecret, "su***********************90"; got != want {
		t.Errorf("masked secret = %q, want %q", got, want)
	}
}

func TestSanitize_EmptySecret(t *testing.T) {
	sanitized := Sanitize(&ServerConfig{})
	if sanitized.Security.JWTSecret != "" {
		t.Errorf("empty secret should stay empty, got %q", sanitized.Security.JWTSecret)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "****"},
		{"abcd", "****"},
		{"abcde", "ab*de"},
		{"abcdefgh", "ab****gh"},
	}

	for _, tt := range tests {
		if got := maskSecret(tt.input); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLoad_FileAndEnvOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokgate.yaml")
	content := `
server:
  http:
    addr: "0.0.0.0:8443"
sockets:
  default_ttl: 1h
  allowed_origins: ["https://app.example.com"]
security:
  jwt_secret: from-file
users:
  seed_stub: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TOKGATE_SOCKETS__MAX_TTL", "48h")
	t.Setenv("TOKGATE_LOG__LEVEL", "debug")

	cfg := Default()
	l := confloader.NewLoader(confloader.WithConfigFile(path))
	if err := l.Load(cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTP.Addr != "0.0.0.0:8443" {
		t.Errorf("Addr = %q", cfg.Server.HTTP.Addr)
	}
	if cfg.Server.HTTP.RateBurst != DefaultRateBurst {
		t.Errorf("RateBurst = %d, default lost", cfg.Server.HTTP.RateBurst)
	}
	if cfg.Sockets.DefaultTTL != time.Hour || cfg.Sockets.MaxTTL != 48*time.Hour {
		t.Errorf("TTLs = %v / %v", cfg.Sockets.DefaultTTL, cfg.Sockets.MaxTTL)
	}
	if len(cfg.Sockets.AllowedOrigins) != 1 || cfg.Sockets.AllowedOrigins[0] != "https://app.example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.Sockets.AllowedOrigins)
	}
	if !cfg.Users.SeedStub || cfg.Users.Backend != BackendMemory {
		t.Errorf("Users = %+v", cfg.Users)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}
