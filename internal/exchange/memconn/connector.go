// Package memconn provides a deterministic in-process connector implementing
// the full exchange capability contract. It backs demo wiring and tests; real
// venue connectors live outside this repository.
package memconn

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/thecao365/orko/errs"
	"github.com/thecao365/orko/internal/exchange"
	"github.com/thecao365/orko/internal/schema"
)

// spreadBP is the synthetic half-spread applied around the seeded base price.
var spreadBP = decimal.New(5, -4)

// Connector is an in-memory venue. Orders acknowledge instantly with status
// NEW and rest until cancelled; tickers derive deterministically from the
// seeded base price.
type Connector struct {
	name  string
	clock func() time.Time

	mu         sync.Mutex
	pairs      []schema.Pair
	metadata   map[schema.Pair]schema.PairMetadata
	basePrices map[schema.Pair]decimal.Decimal
	balances   map[string]schema.Balance
	open       map[string]*schema.Order
}

// Option configures the connector at construction time.
type Option func(*Connector)

// WithPairs seeds the tradable pair list.
func WithPairs(pairs ...schema.Pair) Option {
	return func(c *Connector) {
		c.pairs = append(c.pairs, pairs...)
	}
}

// WithPairMetadata seeds the metadata for a pair.
func WithPairMetadata(pair schema.Pair, meta schema.PairMetadata) Option {
	return func(c *Connector) {
		c.metadata[pair] = meta
	}
}

// WithBasePrice seeds the ticker reference price for a pair.
func WithBasePrice(pair schema.Pair, price decimal.Decimal) Option {
	return func(c *Connector) {
		c.basePrices[pair] = price
	}
}

// WithBalance seeds a wallet balance.
func WithBalance(balance schema.Balance) Option {
	return func(c *Connector) {
		c.balances[balance.Currency] = balance
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(c *Connector) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New constructs a connector for the named venue.
func New(name string, opts ...Option) *Connector {
	c := &Connector{
		name:       name,
		clock:      time.Now,
		metadata:   make(map[schema.Pair]schema.PairMetadata),
		basePrices: make(map[schema.Pair]decimal.Decimal),
		balances:   make(map[string]schema.Balance),
		open:       make(map[string]*schema.Order),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Name returns the venue identifier.
func (c *Connector) Name() string { return c.name }

// Trade exposes the trading capability.
func (c *Connector) Trade() exchange.TradeService { return c }

// Account exposes the wallet capability.
func (c *Connector) Account() exchange.AccountService { return c }

// MarketData exposes the market data capability.
func (c *Connector) MarketData() exchange.MarketDataService { return c }

// Pairs lists the seeded tradable pairs.
func (c *Connector) Pairs(ctx context.Context) ([]schema.Pair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]schema.Pair, len(c.pairs))
	copy(out, c.pairs)
	return out, nil
}

// PairMetadata returns the seeded metadata for the pair.
func (c *Connector) PairMetadata(ctx context.Context, pair schema.Pair) (*schema.PairMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	meta, ok := c.metadata[pair]
	if !ok {
		return nil, errs.New(c.name, errs.CodeNotFound,
			errs.WithMessage(fmt.Sprintf("no metadata for pair %s", pair)))
	}
	out := meta
	return &out, nil
}

// PlaceLimitOrder acknowledges the order with a synthetic id and status NEW.
func (c *Connector) PlaceLimitOrder(ctx context.Context, order *schema.Order) (string, error) {
	return c.place(ctx, order)
}

// PlaceStopOrder acknowledges the order with a synthetic id and status NEW.
func (c *Connector) PlaceStopOrder(ctx context.Context, order *schema.Order) (string, error) {
	return c.place(ctx, order)
}

func (c *Connector) place(ctx context.Context, order *schema.Order) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if order == nil {
		return "", errs.New(c.name, errs.CodeInvalid, errs.WithMessage("order required"))
	}
	id := uuid.NewString()
	resting := order.Clone()
	resting.ID = id
	resting.Status = schema.StatusNew
	c.mu.Lock()
	c.open[id] = resting
	c.mu.Unlock()
	return id, nil
}

// CancelOrder removes a resting order, reporting whether one matched.
func (c *Connector) CancelOrder(ctx context.Context, params exchange.CancelParams) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	order, ok := c.open[params.OrderID]
	if !ok {
		return false, nil
	}
	if params.Pair != nil && order.Pair != *params.Pair {
		return false, nil
	}
	delete(c.open, params.OrderID)
	return true, nil
}

// OpenOrders lists resting orders, optionally scoped to a pair.
func (c *Connector) OpenOrders(ctx context.Context, pair *schema.Pair) ([]*schema.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*schema.Order, 0, len(c.open))
	for _, order := range c.open {
		if pair != nil && order.Pair != *pair {
			continue
		}
		out = append(out, order.Clone())
	}
	return out, nil
}

// Order fetches a single resting order by id.
func (c *Connector) Order(ctx context.Context, id string) (*schema.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	order, ok := c.open[id]
	if !ok {
		return nil, errs.New(c.name, errs.CodeNotFound,
			errs.WithMessage("order not found"),
			errs.WithCanonicalCode(errs.CanonicalOrderNotFound))
	}
	return order.Clone(), nil
}

// Balances reports the seeded wallet.
func (c *Connector) Balances(ctx context.Context) ([]schema.Balance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]schema.Balance, 0, len(c.balances))
	for _, balance := range c.balances {
		out = append(out, balance)
	}
	return out, nil
}

// Ticker synthesises a deterministic snapshot around the seeded base price.
func (c *Connector) Ticker(ctx context.Context, pair schema.Pair) (*schema.Ticker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	base, ok := c.basePrices[pair]
	c.mu.Unlock()
	if !ok {
		return nil, exchange.ErrNotSupported
	}
	spread := base.Mul(spreadBP)
	return &schema.Ticker{
		Pair:      pair,
		Bid:       base.Sub(spread),
		Ask:       base.Add(spread),
		Last:      base,
		Timestamp: c.clock(),
	}, nil
}
