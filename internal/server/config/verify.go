package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/pkg/token"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifySockets(&cfg.Sockets); err != nil {
		return err
	}
	if err := verifySecurity(&cfg.Security); err != nil {
		return err
	}
	if cfg.Tickets.SweepInterval <= 0 {
		return errors.New("tickets.sweep_interval must be positive")
	}
	if err := verifyUsers(&cfg.Users); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("server.http.addr: %w", err)
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and tls_key_file must be set together")
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("tls file: %w", err)
		}
	}
	if cfg.HTTP.RateLimit < 0 {
		return errors.New("server.http.rate_limit must not be negative")
	}
	return nil
}

func verifySockets(cfg *SocketsSection) error {
	if cfg.DefaultTTL <= 0 {
		return errors.New("sockets.default_ttl must be positive")
	}
	if cfg.MaxTTL < cfg.DefaultTTL {
		return errors.New("sockets.max_ttl must not be shorter than sockets.default_ttl")
	}
	if cfg.HandshakeRate < 0 {
		return errors.New("sockets.handshake_rate must not be negative")
	}
	if cfg.PingInterval < 0 || cfg.PongTimeout < 0 || cfg.WriteTimeout < 0 {
		return errors.New("sockets timeouts must not be negative")
	}
	return nil
}

func verifySecurity(cfg *SecuritySection) error {
	alg := token.Algorithm(cfg.Algorithm)
	if !token.Supported(alg) {
		return fmt.Errorf("security.algorithm %q is not supported", cfg.Algorithm)
	}

	signing, verify, err := cfg.Keys()
	if err != nil {
		return err
	}

	probe, err := token.Encode("probe", signing, alg)
	if err != nil {
		return fmt.Errorf("security: cannot sign with configured key: %w", err)
	}
	if !token.Decode(probe, verify, nil) {
		return errors.New("security: verify key does not match signing key")
	}
	return nil
}

func verifyUsers(cfg *UsersSection) error {
	switch cfg.Backend {
	case BackendMemory:
		return nil
	case BackendBadger:
		if cfg.DataDir == "" {
			return errors.New("users.data_dir is required for the badger backend")
		}
		if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
			return errors.New("cannot create users data directory: " + err.Error())
		}
		return nil
	default:
		return fmt.Errorf("users.backend %q is not one of memory, badger", cfg.Backend)
	}
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("log.level %q is invalid", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case logger.FormatJSON, logger.FormatText:
	default:
		return fmt.Errorf("log.format %q is invalid", cfg.Format)
	}
	return nil
}
