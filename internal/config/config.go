// Package config centralises runtime configuration for the trading gateway.
package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment identifies the runtime environment where the gateway operates.
type Environment string

const (
	// EnvDev marks the development environment.
	EnvDev Environment = "dev"
	// EnvStaging marks the staging environment.
	EnvStaging Environment = "staging"
	// EnvProd marks the production environment.
	EnvProd Environment = "prod"
)

// Credentials captures API credentials used for authenticated exchange access.
// Values are opaque to the gateway core; only presence is inspected.
type Credentials struct {
	APIKey     string `yaml:"apiKey"`
	APISecret  string `yaml:"apiSecret"`
	Passphrase string `yaml:"passphrase"`
}

// ExchangeSettings aggregates per-exchange configuration.
type ExchangeSettings struct {
	Credentials Credentials `yaml:"credentials"`
}

// GatewayConfig carries tunables for the trading gateway facade.
type GatewayConfig struct {
	// OpenOrdersScanDelay paces the sequential per-pair calls made by the
	// open-orders-by-currency slow path.
	OpenOrdersScanDelay time.Duration `yaml:"openOrdersScanDelay"`
}

// APIServerConfig configures the gateway's HTTP surface.
type APIServerConfig struct {
	Addr string `yaml:"addr"`
}

// TelemetryConfig configures the OTLP metrics exporter.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlpEndpoint"`
	ServiceName  string `yaml:"serviceName"`
	OTLPInsecure bool   `yaml:"otlpInsecure"`
}

// Settings is the gateway configuration tree loaded from defaults, file and environment.
type Settings struct {
	Environment Environment                 `yaml:"environment"`
	Exchanges   map[string]ExchangeSettings `yaml:"exchanges"`
	Gateway     GatewayConfig               `yaml:"gateway"`
	API         APIServerConfig             `yaml:"apiServer"`
	Telemetry   TelemetryConfig             `yaml:"telemetry"`
}

// DefaultOpenOrdersScanDelay matches the fixed inter-call pause the slow path
// has always used.
const DefaultOpenOrdersScanDelay = 200 * time.Millisecond

// Default returns the default gateway configuration.
func Default() Settings {
	return Settings{
		Environment: EnvProd,
		Exchanges:   make(map[string]ExchangeSettings),
		Gateway: GatewayConfig{
			OpenOrdersScanDelay: DefaultOpenOrdersScanDelay,
		},
		API: APIServerConfig{Addr: ":8080"},
	}
}

// Load reads settings from the YAML file at path, applying defaults and
// ORKO_* environment overrides.
func Load(ctx context.Context, path string) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// FromEnv returns defaults overridden by environment variables only.
func FromEnv() Settings {
	cfg := Default()
	cfg.applyEnv()
	cfg.normalize()
	return cfg
}

func (s *Settings) applyEnv() {
	if env := strings.TrimSpace(os.Getenv("ORKO_ENV")); env != "" {
		s.Environment = Environment(strings.ToLower(env))
	}
	if addr := strings.TrimSpace(os.Getenv("ORKO_API_ADDR")); addr != "" {
		s.API.Addr = addr
	}
	if endpoint := strings.TrimSpace(os.Getenv("ORKO_OTLP_ENDPOINT")); endpoint != "" {
		s.Telemetry.OTLPEndpoint = endpoint
	}
}

func (s *Settings) normalize() {
	if s.Gateway.OpenOrdersScanDelay <= 0 {
		s.Gateway.OpenOrdersScanDelay = DefaultOpenOrdersScanDelay
	}
	if len(s.Exchanges) == 0 {
		return
	}
	normalized := make(map[string]ExchangeSettings, len(s.Exchanges))
	for name, settings := range s.Exchanges {
		normalized[NormalizeExchangeName(name)] = settings
	}
	s.Exchanges = normalized
}

// Exchange returns the exchange-specific configuration if present.
func (s Settings) Exchange(name string) (ExchangeSettings, bool) {
	if len(s.Exchanges) == 0 {
		return ExchangeSettings{}, false
	}
	cfg, ok := s.Exchanges[NormalizeExchangeName(name)]
	return cfg, ok
}

// HasCredentials reports whether usable live credentials exist for the
// exchange: the exchanges section must exist, carry an entry for the exchange,
// and that entry's API key must be non-blank. Anything else routes the
// exchange to paper trading.
func (s Settings) HasCredentials(name string) bool {
	cfg, ok := s.Exchange(name)
	if !ok {
		return false
	}
	return strings.TrimSpace(cfg.Credentials.APIKey) != ""
}

// NormalizeExchangeName canonicalises an exchange identifier.
func NormalizeExchangeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
