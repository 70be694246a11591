package paper

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/thecao365/orko/errs"
	"github.com/thecao365/orko/internal/exchange"
	"github.com/thecao365/orko/internal/schema"
)

var ethUSD = schema.NewPair("ETH", "USD")

func fixedClock() time.Time { return time.Unix(1700000000, 0).UTC() }

func TestForExchangeReturnsSameService(t *testing.T) {
	engine := NewEngine(WithClock(fixedClock))
	if engine.ForExchange("binance") != engine.ForExchange("binance") {
		t.Fatalf("expected memoized service per exchange")
	}
	if engine.ForExchange("binance") == engine.ForExchange("kraken") {
		t.Fatalf("expected distinct services per exchange")
	}
}

func TestPlaceAcknowledgesNewAndNeverFills(t *testing.T) {
	svc := NewEngine(WithClock(fixedClock)).ForExchange("binance")
	limit := decimal.NewFromInt(100)
	order := &schema.Order{
		Pair:       ethUSD,
		Side:       schema.SideBid,
		Type:       schema.OrderTypeLimit,
		Amount:     decimal.NewFromInt(1),
		LimitPrice: &limit,
		Status:     schema.StatusPendingNew,
	}

	id, err := svc.PlaceLimitOrder(context.Background(), order)
	if err != nil {
		t.Fatalf("PlaceLimitOrder failed: %v", err)
	}

	fetched, err := svc.Order(context.Background(), id)
	if err != nil {
		t.Fatalf("Order failed: %v", err)
	}
	if fetched.Status != schema.StatusNew {
		t.Fatalf("expected NEW, got %s", fetched.Status)
	}
	if !fetched.Filled.IsZero() {
		t.Fatalf("paper orders must never fill, got %s", fetched.Filled)
	}
	if fetched.PlacedAt.IsZero() {
		t.Fatalf("expected placement timestamp")
	}
}

func TestCancelReportsExistence(t *testing.T) {
	svc := NewEngine().ForExchange("kraken")
	order := &schema.Order{Pair: ethUSD, Side: schema.SideAsk, Type: schema.OrderTypeLimit, Amount: decimal.NewFromInt(2)}
	id, err := svc.PlaceStopOrder(context.Background(), order)
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	ok, err := svc.CancelOrder(context.Background(), exchange.CancelParams{OrderID: id})
	if err != nil || !ok {
		t.Fatalf("expected cancel to succeed, ok=%v err=%v", ok, err)
	}
	ok, err = svc.CancelOrder(context.Background(), exchange.CancelParams{OrderID: id})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if ok {
		t.Fatalf("expected false once no matching order remains")
	}
}

func TestOpenOrdersScopedToPair(t *testing.T) {
	svc := NewEngine().ForExchange("bitmex")
	btcUSD := schema.NewPair("XBT", "USD")
	for _, pair := range []schema.Pair{ethUSD, btcUSD} {
		order := &schema.Order{Pair: pair, Side: schema.SideBid, Type: schema.OrderTypeLimit, Amount: decimal.NewFromInt(1)}
		if _, err := svc.PlaceLimitOrder(context.Background(), order); err != nil {
			t.Fatalf("place: %v", err)
		}
	}

	scoped, err := svc.OpenOrders(context.Background(), &btcUSD)
	if err != nil {
		t.Fatalf("OpenOrders: %v", err)
	}
	if len(scoped) != 1 || scoped[0].Pair != btcUSD {
		t.Fatalf("unexpected scoped orders %+v", scoped)
	}
}

func TestOrderNotFound(t *testing.T) {
	svc := NewEngine().ForExchange("gdax")
	_, err := svc.Order(context.Background(), "nope")
	if errs.CodeOf(err) != errs.CodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestBalancesEmptyWallet(t *testing.T) {
	svc := NewEngine().ForExchange("binance")
	balances, err := svc.Balances(context.Background())
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	if len(balances) != 0 {
		t.Fatalf("expected empty paper wallet, got %d entries", len(balances))
	}
}
