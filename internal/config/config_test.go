package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error when config file missing")
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orko.yaml")
	raw := `
environment: dev
exchanges:
  Binance:
    credentials:
      apiKey: live-key
      apiSecret: live-secret
  bitmex:
    credentials:
      apiKey: ""
gateway:
  openOrdersScanDelay: 350ms
apiServer:
  addr: ":9090"
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Environment != EnvDev {
		t.Fatalf("expected dev environment, got %s", cfg.Environment)
	}
	if cfg.Gateway.OpenOrdersScanDelay != 350*time.Millisecond {
		t.Fatalf("unexpected scan delay %s", cfg.Gateway.OpenOrdersScanDelay)
	}
	if cfg.API.Addr != ":9090" {
		t.Fatalf("unexpected addr %s", cfg.API.Addr)
	}
	if _, ok := cfg.Exchange("BINANCE"); !ok {
		t.Fatalf("expected exchange lookup to be case-insensitive")
	}
}

func TestHasCredentials(t *testing.T) {
	cases := []struct {
		name     string
		settings Settings
		exchange string
		want     bool
	}{
		{"no exchanges section", Settings{}, "binance", false},
		{"missing entry", Settings{Exchanges: map[string]ExchangeSettings{}}, "binance", false},
		{
			"blank key",
			Settings{Exchanges: map[string]ExchangeSettings{"binance": {Credentials: Credentials{APIKey: "   "}}}},
			"binance",
			false,
		},
		{
			"key present",
			Settings{Exchanges: map[string]ExchangeSettings{"binance": {Credentials: Credentials{APIKey: "k"}}}},
			"binance",
			true,
		},
		{
			"case-insensitive name",
			Settings{Exchanges: map[string]ExchangeSettings{"binance": {Credentials: Credentials{APIKey: "k"}}}},
			"Binance",
			true,
		},
	}
	for _, tc := range cases {
		if got := tc.settings.HasCredentials(tc.exchange); got != tc.want {
			t.Fatalf("%s: HasCredentials = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDefaultScanDelayApplied(t *testing.T) {
	cfg := Settings{}
	cfg.normalize()
	if cfg.Gateway.OpenOrdersScanDelay != DefaultOpenOrdersScanDelay {
		t.Fatalf("expected default delay, got %s", cfg.Gateway.OpenOrdersScanDelay)
	}
}
