package main

import (
	"context"
	"flag"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokgate/internal/server/config"
	"github.com/yndnr/tokgate/internal/storage/userdb"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
)

func TestLoadConfig_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokgate.yaml")
	content := `
server:
  http:
    addr: "127.0.0.1:7000"
security:
  jwt_secret: file-secret
log:
  level: warn
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path, map[string]any{
		"server.http.addr": "127.0.0.1:7001",
		"users.seed_stub":  true,
	})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.Server.HTTP.Addr != "127.0.0.1:7001" {
		t.Errorf("Addr = %q, want flag value", cfg.Server.HTTP.Addr)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want file value", cfg.Log.Level)
	}
	if !cfg.Users.SeedStub {
		t.Error("SeedStub override not applied")
	}
	if cfg.Sockets.DefaultTTL != config.DefaultTicketTTL {
		t.Errorf("DefaultTTL = %v, want default", cfg.Sockets.DefaultTTL)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	if _, err := loadConfig("", nil); err == nil {
		t.Error("loadConfig() without a signing secret should fail")
	}
}

func TestFlagOverrides(t *testing.T) {
	app := newApp()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range app.Flags {
		if err := f.Apply(set); err != nil {
			t.Fatal(err)
		}
	}
	if err := set.Parse([]string{"--addr", ":9999", "--seed-stub-users"}); err != nil {
		t.Fatal(err)
	}

	got := flagOverrides(cli.NewContext(app, set, nil))
	if got["server.http.addr"] != ":9999" || got["users.seed_stub"] != true {
		t.Errorf("flagOverrides() = %v", got)
	}
	if _, ok := got["log.level"]; ok {
		t.Error("unset flag leaked into overrides")
	}
}

func TestRun_StartupFailureReleasesUserStore(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()

	dataDir := t.TempDir()
	cfg := config.Default()
	cfg.Server.HTTP.Addr = busy.Addr().String()
	cfg.Security.JWTSecret = "startup-secret"
	cfg.Users.Backend = config.BackendBadger
	cfg.Users.DataDir = dataDir
	cfg.Log.Level = "error"
	if err := config.Verify(cfg); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if err := run(context.Background(), cfg, "", nil); err == nil {
		t.Fatal("run() succeeded on an address already in use")
	}

	// Badger locks its directory while open, so reopening proves the
	// failed startup closed the store.
	store, err := userdb.Open(userdb.DefaultConfig(dataDir), logger.Discard())
	if err != nil {
		t.Fatalf("user store still held after failed startup: %v", err)
	}
	store.Close()
}
