// Package exchange defines the capability contracts implemented by trading
// backends and the registry that maps exchange identifiers to connectors.
package exchange

import (
	"context"
	"errors"

	"github.com/thecao365/orko/internal/schema"
)

// ErrNotSupported is returned by connectors for capabilities the venue does
// not offer. The gateway surfaces it distinctly so callers can adapt.
var ErrNotSupported = errors.New("capability not supported by exchange")

// CancelParams is the cancellation parameter shape submitted to a trade
// service. The superset form carries pair, order id and a side hint; venues
// that reject hints receive an id-only form (HasHint false, Pair nil).
type CancelParams struct {
	OrderID string
	Pair    *schema.Pair
	Side    schema.TradeSide
	HasHint bool
}

// TradeService places, cancels and queries orders on a single venue.
type TradeService interface {
	PlaceLimitOrder(ctx context.Context, order *schema.Order) (string, error)
	PlaceStopOrder(ctx context.Context, order *schema.Order) (string, error)
	CancelOrder(ctx context.Context, params CancelParams) (bool, error)
	// OpenOrders lists resting orders, optionally scoped to a pair. Callers
	// must not trust venues to honour the scope and should re-filter.
	OpenOrders(ctx context.Context, pair *schema.Pair) ([]*schema.Order, error)
	Order(ctx context.Context, id string) (*schema.Order, error)
}

// AccountService exposes wallet state for a single venue.
type AccountService interface {
	Balances(ctx context.Context) ([]schema.Balance, error)
}

// MarketDataService exposes read-only market data for a single venue.
type MarketDataService interface {
	Ticker(ctx context.Context, pair schema.Pair) (*schema.Ticker, error)
}

// Connector bundles the capabilities of a live venue integration.
type Connector interface {
	Name() string
	Trade() TradeService
	Account() AccountService
	MarketData() MarketDataService
	Pairs(ctx context.Context) ([]schema.Pair, error)
	PairMetadata(ctx context.Context, pair schema.Pair) (*schema.PairMetadata, error)
}
