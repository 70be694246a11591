package trading

import (
	"context"
	"sync"
	"testing"

	"github.com/thecao365/orko/errs"
	"github.com/thecao365/orko/internal/config"
	"github.com/thecao365/orko/internal/exchange"
	"github.com/thecao365/orko/internal/paper"
	"github.com/thecao365/orko/internal/schema"
)

type liveTradeService struct{}

func (liveTradeService) PlaceLimitOrder(context.Context, *schema.Order) (string, error) {
	return "live", nil
}
func (liveTradeService) PlaceStopOrder(context.Context, *schema.Order) (string, error) {
	return "live", nil
}
func (liveTradeService) CancelOrder(context.Context, exchange.CancelParams) (bool, error) {
	return true, nil
}
func (liveTradeService) OpenOrders(context.Context, *schema.Pair) ([]*schema.Order, error) {
	return nil, nil
}
func (liveTradeService) Order(context.Context, string) (*schema.Order, error) {
	return nil, nil
}

type liveAccountService struct{}

func (liveAccountService) Balances(context.Context) ([]schema.Balance, error) {
	return nil, nil
}

type liveConnector struct {
	name  string
	trade liveTradeService
}

func (c *liveConnector) Name() string                           { return c.name }
func (c *liveConnector) Trade() exchange.TradeService           { return c.trade }
func (c *liveConnector) Account() exchange.AccountService       { return liveAccountService{} }
func (c *liveConnector) MarketData() exchange.MarketDataService { return nil }
func (c *liveConnector) Pairs(context.Context) ([]schema.Pair, error) {
	return nil, nil
}
func (c *liveConnector) PairMetadata(context.Context, schema.Pair) (*schema.PairMetadata, error) {
	return nil, nil
}

func registryWith(names ...string) *exchange.Registry {
	reg := exchange.NewRegistry()
	for _, name := range names {
		reg.Register(&liveConnector{name: name})
	}
	return reg
}

func TestResolveUnknownExchange(t *testing.T) {
	resolver := NewResolver(registryWith("binance"), config.Settings{}, paper.NewEngine())
	_, err := resolver.Resolve("mystery")
	if errs.CodeOf(err) != errs.CodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestResolvePaperWhenNoConfiguration(t *testing.T) {
	engine := paper.NewEngine()
	resolver := NewResolver(registryWith("binance"), config.Settings{}, engine)

	svc, err := resolver.Resolve("binance")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if svc != exchange.TradeService(engine.ForExchange("binance")) {
		t.Fatalf("expected paper service when configuration missing")
	}
}

func TestResolvePaperWhenKeyBlank(t *testing.T) {
	engine := paper.NewEngine()
	settings := config.Settings{Exchanges: map[string]config.ExchangeSettings{
		"binance": {Credentials: config.Credentials{APIKey: "  "}},
	}}
	resolver := NewResolver(registryWith("binance"), settings, engine)

	svc, err := resolver.Resolve("binance")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if svc != exchange.TradeService(engine.ForExchange("binance")) {
		t.Fatalf("expected paper service for blank key")
	}
}

func TestResolveLiveWhenCredentialed(t *testing.T) {
	settings := config.Settings{Exchanges: map[string]config.ExchangeSettings{
		"binance": {Credentials: config.Credentials{APIKey: "key"}},
	}}
	resolver := NewResolver(registryWith("binance"), settings, paper.NewEngine())

	svc, err := resolver.Resolve("binance")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if _, ok := svc.(liveTradeService); !ok {
		t.Fatalf("expected live trade service, got %T", svc)
	}
}

func TestResolveMixedBackends(t *testing.T) {
	engine := paper.NewEngine()
	settings := config.Settings{Exchanges: map[string]config.ExchangeSettings{
		"binance": {Credentials: config.Credentials{APIKey: "key"}},
	}}
	resolver := NewResolver(registryWith("binance", "kraken"), settings, engine)

	live, err := resolver.Resolve("binance")
	if err != nil {
		t.Fatalf("Resolve binance: %v", err)
	}
	if _, ok := live.(liveTradeService); !ok {
		t.Fatalf("expected live service for binance")
	}

	simulated, err := resolver.Resolve("kraken")
	if err != nil {
		t.Fatalf("Resolve kraken: %v", err)
	}
	if simulated != exchange.TradeService(engine.ForExchange("kraken")) {
		t.Fatalf("expected paper service for kraken")
	}
}

func TestResolveSingleFlight(t *testing.T) {
	resolver := NewResolver(registryWith("binance"), config.Settings{}, paper.NewEngine())

	const n = 32
	services := make([]exchange.TradeService, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			svc, err := resolver.Resolve("binance")
			if err != nil {
				t.Errorf("Resolve failed: %v", err)
				return
			}
			services[i] = svc
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if services[i] != services[0] {
			t.Fatalf("expected every resolve to share one handle")
		}
	}
}

func TestResolveAccountFollowsSameDecision(t *testing.T) {
	engine := paper.NewEngine()
	settings := config.Settings{Exchanges: map[string]config.ExchangeSettings{
		"binance": {Credentials: config.Credentials{APIKey: "key"}},
	}}
	resolver := NewResolver(registryWith("binance", "kraken"), settings, engine)

	acct, err := resolver.ResolveAccount("binance")
	if err != nil {
		t.Fatalf("ResolveAccount: %v", err)
	}
	if _, ok := acct.(liveAccountService); !ok {
		t.Fatalf("expected live account service, got %T", acct)
	}

	acct, err = resolver.ResolveAccount("kraken")
	if err != nil {
		t.Fatalf("ResolveAccount: %v", err)
	}
	if acct != exchange.AccountService(engine.ForExchange("kraken")) {
		t.Fatalf("expected paper account service for kraken")
	}
}
