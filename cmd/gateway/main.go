// Command gateway launches the trading gateway entrypoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc"

	"github.com/thecao365/orko/internal/auth"
	"github.com/thecao365/orko/internal/bus/orderbus"
	"github.com/thecao365/orko/internal/config"
	"github.com/thecao365/orko/internal/exchange"
	"github.com/thecao365/orko/internal/exchange/memconn"
	"github.com/thecao365/orko/internal/gateway"
	"github.com/thecao365/orko/internal/observability"
	"github.com/thecao365/orko/internal/paper"
	"github.com/thecao365/orko/internal/schema"
	httpserver "github.com/thecao365/orko/internal/server/http"
	"github.com/thecao365/orko/internal/telemetry"
	"github.com/thecao365/orko/internal/trading"
)

const (
	defaultConfigPath        = "config/gateway.yaml"
	gatewayLoggerPrefix      = "gateway "
	shutdownTimeout          = 30 * time.Second
	apiServerShutdownTimeout = 5 * time.Second
	telemetryShutdownTimeout = 5 * time.Second
	orderBusQueueDepth       = 256
	orderBusFanoutWorkers    = 4
	readHeaderTimeout        = 5 * time.Second
)

func main() {
	cfgPathFlag := parseFlags()
	ctx, cancel := newSignalContext()
	defer cancel()

	logger := newGatewayLogger()
	observability.SetLogger(observability.NewSlogLogger(
		slog.New(slog.NewJSONHandler(os.Stdout, nil))))

	settings, loadedFromFile, err := loadSettings(ctx, cfgPathFlag)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if !loadedFromFile {
		logger.Print("configuration file not found, using defaults")
	}
	logger.Printf("configuration initialised: env=%s, exchanges=%d",
		settings.Environment, len(settings.Exchanges))

	telemetryProvider, err := initTelemetry(ctx, logger, settings)
	if err != nil {
		logger.Fatalf("initialize telemetry: %v", err)
	}

	registry := buildRegistry()
	resolver := trading.NewResolver(registry, settings, paper.NewEngine())
	bus := orderbus.NewMemoryBus(orderBusQueueDepth, orderBusFanoutWorkers)

	gw := gateway.New(registry, settings, resolver,
		trading.NewNormalizer(), trading.NewShimSet(), bus)

	apiServer := buildAPIServer(settings.API, gw)

	var lifecycle conc.WaitGroup
	lifecycle.Go(func() {
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("api server: %v", err)
		}
	})
	logger.Printf("trading API listening on %s", apiServer.Addr)

	logger.Print("gateway started; awaiting shutdown signal")
	<-ctx.Done()
	logger.Print("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	shutdownStart := time.Now()
	performGracefulShutdown(shutdownCtx, logger, gracefulShutdownConfig{
		server:     apiServer,
		mainCancel: cancel,
		lifecycle:  &lifecycle,
		orderBus:   bus,
		telemetry:  telemetryProvider,
	})
	logger.Printf("shutdown completed in %v", time.Since(shutdownStart))
}

func parseFlags() string {
	cfgPath := flag.String("config", "", fmt.Sprintf("Path to gateway configuration file (default: %s)", defaultConfigPath))
	flag.Parse()
	return *cfgPath
}

func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newGatewayLogger() *log.Logger {
	return log.New(os.Stdout, gatewayLoggerPrefix, log.LstdFlags|log.Lmicroseconds)
}

func loadSettings(ctx context.Context, flagPath string) (config.Settings, bool, error) {
	path := flagPath
	if path == "" {
		path = defaultConfigPath
	}
	settings, err := config.Load(ctx, path)
	if err == nil {
		return settings, true, nil
	}
	if flagPath == "" && errors.Is(err, os.ErrNotExist) {
		return config.FromEnv(), false, nil
	}
	return config.Settings{}, false, err
}

func initTelemetry(ctx context.Context, logger *log.Logger, settings config.Settings) (*telemetry.Provider, error) {
	cfg := telemetry.DefaultConfig()
	if settings.Telemetry.OTLPEndpoint != "" {
		cfg.OTLPEndpoint = settings.Telemetry.OTLPEndpoint
	}
	if settings.Telemetry.ServiceName != "" {
		cfg.ServiceName = settings.Telemetry.ServiceName
	}
	cfg.Environment = string(settings.Environment)
	cfg.OTLPInsecure = settings.Telemetry.OTLPInsecure

	provider, err := telemetry.NewProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry provider: %w", err)
	}
	if cfg.Enabled {
		logger.Printf("telemetry initialized: endpoint=%s, service=%s", cfg.OTLPEndpoint, cfg.ServiceName)
	} else {
		logger.Print("telemetry disabled")
	}
	return provider, nil
}

// buildRegistry wires the supported venues. Live venue transports plug in
// here; until then every venue is served by the in-process reference
// connector so the full API surface stays exercisable.
func buildRegistry() *exchange.Registry {
	registry := exchange.NewRegistry()
	seed := func(name string, pairs ...schema.Pair) {
		opts := []memconn.Option{memconn.WithPairs(pairs...)}
		for _, pair := range pairs {
			opts = append(opts, memconn.WithBasePrice(pair, defaultBasePrice(pair)))
		}
		registry.Register(memconn.New(name, opts...))
	}

	btcUSDT := schema.NewPair("BTC", "USDT")
	ethUSDT := schema.NewPair("ETH", "USDT")
	ethBTC := schema.NewPair("ETH", "BTC")
	btcUSD := schema.NewPair("BTC", "USD")

	seed(exchange.Binance, btcUSDT, ethUSDT, ethBTC)
	seed(exchange.Bitfinex, btcUSD, ethBTC)
	seed(exchange.Bitmex)
	seed(exchange.GDAX, btcUSD, ethBTC)
	seed(exchange.Kraken, btcUSD, btcUSDT, ethBTC)
	seed(exchange.Kucoin, btcUSDT, ethUSDT)
	return registry
}

func defaultBasePrice(pair schema.Pair) decimal.Decimal {
	switch pair.Base {
	case "BTC", "XBT":
		return decimal.NewFromInt(50000)
	case "ETH":
		return decimal.NewFromInt(3000)
	default:
		return decimal.NewFromInt(1)
	}
}

func buildAPIServer(cfg config.APIServerConfig, gw *gateway.Gateway) *http.Server {
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           httpserver.NewHandler(gw, auth.AllowAll{}),
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

type gracefulShutdownConfig struct {
	server     *http.Server
	mainCancel context.CancelFunc
	lifecycle  *conc.WaitGroup
	orderBus   *orderbus.MemoryBus
	telemetry  *telemetry.Provider
}

func performGracefulShutdown(ctx context.Context, logger *log.Logger, cfg gracefulShutdownConfig) {
	shutdownStep := func(name string, timeout time.Duration, fn func(context.Context) error) {
		stepCtx, stepCancel := context.WithTimeout(ctx, timeout)
		defer stepCancel()
		if err := fn(stepCtx); err != nil {
			logger.Printf("%s shutdown: %v", name, err)
		}
	}

	shutdownStep("api server", apiServerShutdownTimeout, cfg.server.Shutdown)

	cfg.mainCancel()
	cfg.lifecycle.Wait()

	cfg.orderBus.Close()

	shutdownStep("telemetry", telemetryShutdownTimeout, cfg.telemetry.Shutdown)
}
