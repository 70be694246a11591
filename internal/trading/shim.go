package trading

import (
	"github.com/thecao365/orko/internal/config"
	"github.com/thecao365/orko/internal/exchange"
	"github.com/thecao365/orko/internal/schema"
)

// Overrides collects the per-venue compatibility hooks. A nil field means
// default behaviour applies. New venue quirks are added by registering a new
// override, never by branching inside shared logic.
type Overrides struct {
	// Pairs substitutes a curated pair list for venues whose reported
	// metadata is unreliable.
	Pairs func() []schema.Pair
	// CounterAlias rewrites a known counter-code alias (such as a futures
	// expiry code) to the underlying settlement currency.
	CounterAlias func(counter string) string
	// CancelParams builds the cancellation parameter shape the venue accepts.
	CancelParams func(req schema.CancelRequest) exchange.CancelParams
}

// ShimSet is the registry of venue identifier to compatibility overrides.
type ShimSet struct {
	overrides map[string]Overrides
}

// BitmexPairs is the curated tradable pair list for BitMEX, whose reported
// pair metadata is known-unreliable.
var BitmexPairs = []schema.Pair{
	schema.NewPair("XBT", "USD"),
	schema.NewPair("XBT", "H19"),
	schema.NewPair("ADA", "H19"),
	schema.NewPair("BCH", "H19"),
	schema.NewPair("EOS", "H19"),
	schema.NewPair("ETH", "USD"),
	schema.NewPair("ETH", "H19"),
	schema.NewPair("LTC", "H19"),
	schema.NewPair("TRX", "H19"),
	schema.NewPair("XRP", "H19"),
}

// NewShimSet builds the shim registry with the built-in venue quirks
// registered: the BitMEX static pair list, its quarterly-futures counter-code
// rewrite, and its id-only cancellation parameter shape.
func NewShimSet() *ShimSet {
	s := &ShimSet{overrides: make(map[string]Overrides)}
	s.Register(exchange.Bitmex, Overrides{
		Pairs: func() []schema.Pair {
			out := make([]schema.Pair, len(BitmexPairs))
			copy(out, BitmexPairs)
			return out
		},
		CounterAlias: bitmexCounterAlias,
		CancelParams: func(req schema.CancelRequest) exchange.CancelParams {
			// BitMEX rejects cancellation hints; send the id alone.
			return exchange.CancelParams{OrderID: req.OrderID}
		},
	})
	return s
}

// Register installs overrides for a venue, replacing any existing entry.
func (s *ShimSet) Register(exchangeName string, o Overrides) {
	s.overrides[config.NormalizeExchangeName(exchangeName)] = o
}

// PairsOverride returns the curated pair list hook for the venue, if any.
func (s *ShimSet) PairsOverride(exchangeName string) (func() []schema.Pair, bool) {
	o, ok := s.overrides[config.NormalizeExchangeName(exchangeName)]
	if !ok || o.Pairs == nil {
		return nil, false
	}
	return o.Pairs, true
}

// NormalizeCounter rewrites a counter-code alias for the venue, returning the
// input unchanged when no alias applies.
func (s *ShimSet) NormalizeCounter(exchangeName, counter string) string {
	o, ok := s.overrides[config.NormalizeExchangeName(exchangeName)]
	if !ok || o.CounterAlias == nil {
		return counter
	}
	return o.CounterAlias(counter)
}

// CancelParamsFor builds the cancellation parameters for the venue. The
// default is the superset shape carrying pair, order id and side hint, which
// works with pretty much any venue. A request without a pair degrades to the
// id-only shape so the hint cannot mismatch the resting order.
func (s *ShimSet) CancelParamsFor(exchangeName string, req schema.CancelRequest) exchange.CancelParams {
	o, ok := s.overrides[config.NormalizeExchangeName(exchangeName)]
	if ok && o.CancelParams != nil {
		return o.CancelParams(req)
	}
	if req.Pair.IsZero() {
		return exchange.CancelParams{OrderID: req.OrderID}
	}
	pair := req.Pair
	return exchange.CancelParams{
		OrderID: req.OrderID,
		Pair:    &pair,
		Side:    req.Side,
		HasHint: true,
	}
}

// bitmexCounterAlias maps quarterly futures expiry codes to the settlement
// currency used for metadata lookups.
func bitmexCounterAlias(counter string) string {
	switch counter {
	case "H19", "Z19":
		return "BTC"
	default:
		return counter
	}
}
