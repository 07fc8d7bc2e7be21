package config

import "time"

// ServerConfig is the root configuration for tokgate-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Sockets  SocketsSection  `koanf:"sockets"`
	Security SecuritySection `koanf:"security"`
	Tickets  TicketsSection  `koanf:"tickets"`
	Users    UsersSection    `koanf:"users"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server that carries the socket endpoint,
// health probes and metrics.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// MetricsAllow lists the IPs and CIDRs allowed to scrape /metrics.
	// Empty allows everyone.
	MetricsAllow []string `koanf:"metrics_allow"`

	// RateLimit is the per-IP request rate for the probe endpoints.
	// Zero disables it.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// TrustProxy takes the client address from X-Forwarded-For or
	// X-Real-IP when present.
	TrustProxy bool `koanf:"trust_proxy"`
}

// SocketsSection configures the socket endpoint and the handshake.
type SocketsSection struct {
	// DefaultTTL is the ticket lifetime when the client sends no Z-Ttl.
	DefaultTTL time.Duration `koanf:"default_ttl"`

	// MaxTTL caps the lifetime a client may request.
	MaxTTL time.Duration `koanf:"max_ttl"`

	// Compression negotiates per-message deflate.
	Compression bool `koanf:"compression"`

	// AllowedOrigins restricts browser origins. Empty or "*" allows all.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// HandshakeRate is the per-address handshake rate per second.
	// Zero disables it.
	HandshakeRate  float64 `koanf:"handshake_rate"`
	HandshakeBurst int     `koanf:"handshake_burst"`

	PingInterval time.Duration `koanf:"ping_interval"`
	PongTimeout  time.Duration `koanf:"pong_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	ReadLimit    int64         `koanf:"read_limit"`
}

// SecuritySection configures token signing.
type SecuritySection struct {
	// Algorithm is one of HS256, HS384, HS512 or RS256.
	Algorithm string `koanf:"algorithm"`

	// JWTSecret is the HMAC secret for the HS* algorithms.
	JWTSecret string `koanf:"jwt_secret"`

	// SigningKeyFile is a PEM private key for RS256.
	SigningKeyFile string `koanf:"signing_key_file"`

	// VerifyKeyFile is an optional PEM public key for RS256. When empty the
	// public half of the signing key is used.
	VerifyKeyFile string `koanf:"verify_key_file"`
}

// TicketsSection configures the ticket store.
type TicketsSection struct {
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// UsersSection configures the user directory.
type UsersSection struct {
	// Backend is "memory" or "badger".
	Backend string `koanf:"backend"`

	// DataDir holds the badger database.
	DataDir string `koanf:"data_dir"`

	// SeedStub creates the development accounts at startup.
	SeedStub bool `koanf:"seed_stub"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
