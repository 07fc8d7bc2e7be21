// Package main provides the entry point for tokgate-server.
//
// tokgate-server accepts socket connections, authenticates them with a
// password or a reconnection ticket, and hands each authenticated client a
// signed identity it can redeem once to resume after a disconnect.
//
// Usage:
//
//	tokgate-server [flags]
//	tokgate-server --config /etc/tokgate/config.yaml
//
// Configuration is read from defaults, the config file, TOKGATE_*
// environment variables and flags, in that order.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokgate/internal/core/service"
	"github.com/yndnr/tokgate/internal/infra/buildinfo"
	"github.com/yndnr/tokgate/internal/infra/confloader"
	"github.com/yndnr/tokgate/internal/infra/shutdown"
	"github.com/yndnr/tokgate/internal/infra/tlsroots"
	"github.com/yndnr/tokgate/internal/server/config"
	"github.com/yndnr/tokgate/internal/server/httpserver"
	"github.com/yndnr/tokgate/internal/server/wsserver"
	"github.com/yndnr/tokgate/internal/storage/memory"
	"github.com/yndnr/tokgate/internal/storage/userdb"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/internal/telemetry/metric"
	"github.com/yndnr/tokgate/pkg/token"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "tokgate-server",
		Usage:   "socket authentication gate with single-use reconnection tickets",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to configuration file",
				EnvVars: []string{"TOKGATE_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "HTTP listen address (overrides server.http.addr)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level: debug, info, warn, error (overrides log.level)",
			},
			&cli.BoolFlag{
				Name:  "seed-stub-users",
				Usage: "create the development accounts at startup (overrides users.seed_stub)",
			},
		},
		Action: func(c *cli.Context) error {
			overrides := flagOverrides(c)
			cfg, err := loadConfig(c.String("config"), overrides)
			if err != nil {
				return err
			}
			return run(c.Context, cfg, c.String("config"), overrides)
		},
	}
}

// flagOverrides maps explicitly set flags to configuration keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)
	if c.IsSet("addr") {
		overrides["server.http.addr"] = c.String("addr")
	}
	if c.IsSet("log-level") {
		overrides["log.level"] = c.String("log-level")
	}
	if c.IsSet("seed-stub-users") {
		overrides["users.seed_stub"] = c.Bool("seed-stub-users")
	}
	return overrides
}

// loadConfig loads configuration from file, environment and flags.
func loadConfig(configFile string, overrides map[string]any) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithOverrides(overrides)}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.ServerConfig, configFile string, overrides map[string]any) error {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting tokgate-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	shutdownHandler := shutdown.NewHandler(shutdownTimeout, shutdown.WithLogger(log))
	metrics := metric.NewRegistry()

	// Until the server is up, an early return releases whatever the hooks
	// registered so far would close.
	started := false
	defer func() {
		if !started {
			if err := shutdownHandler.Abort("startup failed"); err != nil {
				log.Error("startup cleanup failed", "error", err)
			}
		}
	}()

	users, err := openUsers(ctx, cfg, log)
	if err != nil {
		return err
	}
	shutdownHandler.OnShutdown("users", func(context.Context) error {
		return users.Close()
	})

	tickets := memory.NewTicketStore(
		memory.WithLogger(log),
		memory.WithMetrics(metrics),
	)
	if err := tickets.Start(cfg.Tickets.SweepInterval); err != nil {
		return fmt.Errorf("start ticket sweeper: %w", err)
	}
	shutdownHandler.OnShutdown("tickets", func(context.Context) error {
		tickets.Stop()
		return nil
	})
	if err := metrics.Register(metric.NewCollector(tickets)); err != nil {
		return fmt.Errorf("register ticket collector: %w", err)
	}

	gate, err := newGate(cfg, users, tickets, log, metrics)
	if err != nil {
		return err
	}

	sockets := wsserver.New(wsserver.Config{
		AllowedOrigins:    cfg.Sockets.AllowedOrigins,
		EnableCompression: cfg.Sockets.Compression,
		TrustProxy:        cfg.Server.HTTP.TrustProxy,
		ReadLimit:         cfg.Sockets.ReadLimit,
		WriteTimeout:      cfg.Sockets.WriteTimeout,
		PingInterval:      cfg.Sockets.PingInterval,
		PongTimeout:       cfg.Sockets.PongTimeout,
	}, gate, wsserver.WithLogger(log), wsserver.WithMetrics(metrics))
	shutdownHandler.OnShutdown("sockets", sockets.Shutdown)

	var ready atomic.Bool
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Socket:      sockets,
		Metrics:     metrics,
		Tickets:     tickets,
		Connections: sockets,
		Ready: func(context.Context) error {
			if !ready.Load() {
				return errors.New("not accepting connections")
			}
			return nil
		},
		Logger:           log,
		MetricsAllowList: cfg.Server.HTTP.MetricsAllow,
		RateLimit:        cfg.Server.HTTP.RateLimit,
		RateLimitBurst:   cfg.Server.HTTP.RateBurst,
		TrustProxy:       cfg.Server.HTTP.TrustProxy,
	})

	tlsEnabled := cfg.Server.HTTP.TLSCertFile != ""
	var certs *tlsroots.CertReloader
	if tlsEnabled {
		certs, err = tlsroots.NewCertReloader(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile,
			tlsroots.WithLogger(log))
		if err != nil {
			return fmt.Errorf("load TLS certificate: %w", err)
		}
		certs.StartAsync()
		shutdownHandler.OnShutdown("certificates", func(context.Context) error {
			return certs.Stop()
		})
	}

	ln, err := net.Listen("tcp", cfg.Server.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.HTTP.Addr, err)
	}
	httpServer := httpserver.New(cfg.Server.HTTP.Addr, router)
	if certs != nil {
		httpServer.SetTLSConfig(certs.ServerTLSConfig())
	}
	shutdownHandler.OnShutdown("http", func(ctx context.Context) error {
		ready.Store(false)
		return httpServer.Shutdown(ctx)
	})

	if configFile != "" {
		watcher, err := watchConfig(configFile, overrides, log)
		if err != nil {
			log.Warn("configuration reload disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	go func() {
		log.Info("HTTP server listening", "addr", ln.Addr().String(), "tls", tlsEnabled)

		var err error
		if tlsEnabled {
			// The certificate comes from the reloader's GetCertificate.
			err = httpServer.ServeTLS(ln, "", "")
		} else {
			err = httpServer.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			shutdownHandler.Trigger("http server failed")
		}
	}()
	ready.Store(true)
	started = true

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// openUsers opens the configured user directory and seeds the development
// accounts when asked to.
func openUsers(ctx context.Context, cfg *config.ServerConfig, log logger.Logger) (service.UserStore, error) {
	var users service.UserStore
	switch cfg.Users.Backend {
	case config.BackendBadger:
		store, err := userdb.Open(userdb.DefaultConfig(cfg.Users.DataDir), log)
		if err != nil {
			return nil, fmt.Errorf("open user store: %w", err)
		}
		users = store
	default:
		users = memory.NewUserDirectory()
	}

	if cfg.Users.SeedStub {
		ctx = logger.WithLogger(ctx, log)
		if _, err := service.SeedStubUsers(ctx, users); err != nil {
			users.Close()
			return nil, err
		}
	}

	log.Info("user directory ready", "backend", cfg.Users.Backend)
	return users, nil
}

func newGate(cfg *config.ServerConfig, users service.UserDirectory, tickets service.TicketStore, log logger.Logger, metrics *metric.Registry) (*service.Gate, error) {
	signing, verify, err := cfg.Security.Keys()
	if err != nil {
		return nil, err
	}

	gate, err := service.NewGate(service.GateConfig{
		Algorithm:      token.Algorithm(cfg.Security.Algorithm),
		SigningKey:     signing,
		VerifyKey:      verify,
		DefaultTTL:     cfg.Sockets.DefaultTTL,
		MaxTTL:         cfg.Sockets.MaxTTL,
		HandshakeRate:  cfg.Sockets.HandshakeRate,
		HandshakeBurst: cfg.Sockets.HandshakeBurst,
	}, users, tickets, service.WithGateLogger(log), service.WithGateMetrics(metrics))
	if err != nil {
		return nil, fmt.Errorf("init gate: %w", err)
	}
	return gate, nil
}

// watchConfig reapplies the log level whenever the config file changes.
// Other settings need a restart.
func watchConfig(path string, overrides map[string]any, log logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		cfg, err := loadConfig(path, overrides)
		if err != nil {
			log.Warn("ignoring invalid configuration change", "error", err)
			return
		}
		if changed, _ := logger.SetLevel(cfg.Log.Level); changed {
			log.Info("log level changed", "level", logger.Level())
		}
	})
	w.StartAsync()
	return w, nil
}
