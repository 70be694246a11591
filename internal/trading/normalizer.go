package trading

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/thecao365/orko/errs"
	"github.com/thecao365/orko/internal/config"
	"github.com/thecao365/orko/internal/exchange"
	"github.com/thecao365/orko/internal/schema"
)

// Restrictions declares the order combinations a venue cannot accept.
type Restrictions struct {
	// DisallowStopLimit rejects orders carrying both stop and limit prices.
	DisallowStopLimit bool
	// RequireLimitOnStop rejects stop orders without an explicit limit price.
	RequireLimitOnStop bool
}

// Normalizer translates abstract order requests into the concrete order a
// venue accepts, enforcing per-venue product restrictions. Pure; no side
// effects.
type Normalizer struct {
	restrictions map[string]Restrictions
	clock        func() time.Time
}

// NormalizerOption configures the normalizer.
type NormalizerOption func(*Normalizer)

// WithRestrictions overrides the restriction for a single venue.
func WithRestrictions(exchangeName string, r Restrictions) NormalizerOption {
	return func(n *Normalizer) {
		n.restrictions[config.NormalizeExchangeName(exchangeName)] = r
	}
}

// WithNormalizerClock overrides the placement timestamp source.
func WithNormalizerClock(clock func() time.Time) NormalizerOption {
	return func(n *Normalizer) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// NewNormalizer constructs a normalizer with the default venue restriction
// table: Bitfinex cannot take stop-limit orders and Binance requires a limit
// price on stop orders.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		restrictions: map[string]Restrictions{
			exchange.Bitfinex: {DisallowStopLimit: true},
			exchange.Binance:  {RequireLimitOnStop: true},
		},
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// Normalize validates the request against the venue's restrictions and builds
// the concrete order to submit. Market orders (neither stop nor limit price)
// are rejected for every venue.
func (n *Normalizer) Normalize(exchangeName string, req schema.OrderRequest) (*schema.Order, error) {
	key := config.NormalizeExchangeName(exchangeName)

	if !req.Side.Valid() {
		return nil, errs.New(key, errs.CodeInvalid,
			errs.WithMessage(fmt.Sprintf("unknown order side %q", req.Side)))
	}
	if !req.Amount.IsPositive() {
		return nil, errs.New(key, errs.CodeInvalid,
			errs.WithMessage("order amount must be positive"))
	}
	if !req.IsStop() && !req.IsLimit() {
		return nil, errs.UnsupportedOrderType(key, "market orders not supported at the moment")
	}

	restrictions := n.restrictions[key]
	if req.IsStop() {
		if req.IsLimit() {
			if restrictions.DisallowStopLimit {
				return nil, errs.UnsupportedOrderType(key,
					fmt.Sprintf("stop limit orders not supported for %s at the moment", key))
			}
		} else if restrictions.RequireLimitOnStop {
			return nil, errs.UnsupportedOrderType(key,
				fmt.Sprintf("stop market orders not supported for %s at the moment, specify a limit price", key))
		}
	}

	order := &schema.Order{
		Pair:       req.Pair,
		Side:       req.Side,
		Amount:     req.Amount,
		LimitPrice: clonePrice(req.LimitPrice),
		PlacedAt:   n.clock(),
	}
	if req.IsStop() {
		order.Type = schema.OrderTypeStop
		order.StopPrice = clonePrice(req.StopPrice)
		order.Filled = decimal.Zero
		order.AveragePrice = decimal.Zero
		order.Status = schema.StatusPendingNew
	} else {
		order.Type = schema.OrderTypeLimit
	}
	return order, nil
}

func clonePrice(price *decimal.Decimal) *decimal.Decimal {
	if price == nil {
		return nil
	}
	dup := *price
	return &dup
}
