package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr   = "127.0.0.1:3000"
	DefaultRateLimit  = 100.0
	DefaultRateBurst  = 200
	DefaultTrustProxy = true

	DefaultTicketTTL      = 30 * 24 * time.Hour
	DefaultHandshakeRate  = 5.0
	DefaultHandshakeBurst = 10
	DefaultPingInterval   = 30 * time.Second
	DefaultPongTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 10 * time.Second
	DefaultReadLimit      = 64 * 1024

	DefaultAlgorithm     = "HS256"
	DefaultSweepInterval = time.Second

	BackendMemory  = "memory"
	BackendBadger  = "badger"
	DefaultDataDir = "/var/lib/tokgate-server/users"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:       DefaultHTTPAddr,
				RateLimit:  DefaultRateLimit,
				RateBurst:  DefaultRateBurst,
				TrustProxy: DefaultTrustProxy,
			},
		},
		Sockets: SocketsSection{
			DefaultTTL:     DefaultTicketTTL,
			MaxTTL:         DefaultTicketTTL,
			HandshakeRate:  DefaultHandshakeRate,
			HandshakeBurst: DefaultHandshakeBurst,
			PingInterval:   DefaultPingInterval,
			PongTimeout:    DefaultPongTimeout,
			WriteTimeout:   DefaultWriteTimeout,
			ReadLimit:      DefaultReadLimit,
		},
		Security: SecuritySection{
			Algorithm: DefaultAlgorithm,
		},
		Tickets: TicketsSection{
			SweepInterval: DefaultSweepInterval,
		},
		Users: UsersSection{
			Backend: BackendMemory,
			DataDir: DefaultDataDir,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
