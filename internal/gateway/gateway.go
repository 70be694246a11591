// Package gateway is the externally consumed trading entry point. It absorbs
// the venue-specific quirks behind one predictable contract: requests are
// validated and normalized, the live-or-paper trading service is resolved,
// compatibility shims are applied, and results are fanned out to subscribers.
package gateway

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"github.com/thecao365/orko/errs"
	"github.com/thecao365/orko/internal/bus/orderbus"
	"github.com/thecao365/orko/internal/config"
	"github.com/thecao365/orko/internal/exchange"
	"github.com/thecao365/orko/internal/observability"
	"github.com/thecao365/orko/internal/schema"
	"github.com/thecao365/orko/internal/trading"
)

const tickerAttempts = 3

// Gateway implements the uniform trading surface over heterogeneous venues.
type Gateway struct {
	registry   *exchange.Registry
	resolver   *trading.Resolver
	normalizer *trading.Normalizer
	shims      *trading.ShimSet
	settings   config.Settings
	bus        orderbus.Bus
	scanDelay  time.Duration
	clock      func() time.Time

	ordersPlaced    metric.Int64Counter
	ordersCancelled metric.Int64Counter
}

// Option configures optional gateway behaviour.
type Option func(*Gateway)

// WithClock overrides the gateway time source.
func WithClock(clock func() time.Time) Option {
	return func(g *Gateway) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// New constructs the gateway facade over its collaborators.
func New(registry *exchange.Registry, settings config.Settings, resolver *trading.Resolver, normalizer *trading.Normalizer, shims *trading.ShimSet, bus orderbus.Bus, opts ...Option) *Gateway {
	if normalizer == nil {
		normalizer = trading.NewNormalizer()
	}
	if shims == nil {
		shims = trading.NewShimSet()
	}
	scanDelay := settings.Gateway.OpenOrdersScanDelay
	if scanDelay <= 0 {
		scanDelay = config.DefaultOpenOrdersScanDelay
	}
	g := &Gateway{
		registry:   registry,
		resolver:   resolver,
		normalizer: normalizer,
		shims:      shims,
		settings:   settings,
		bus:        bus,
		scanDelay:  scanDelay,
		clock:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	meter := otel.Meter("gateway")
	g.ordersPlaced, _ = meter.Int64Counter("gateway.orders.placed",
		metric.WithDescription("Number of orders successfully placed"),
		metric.WithUnit("{order}"))
	g.ordersCancelled, _ = meter.Int64Counter("gateway.orders.cancelled",
		metric.WithDescription("Number of orders successfully cancelled"),
		metric.WithUnit("{order}"))

	return g
}

// ExchangeMeta describes a supported venue for listing purposes.
type ExchangeMeta struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	RefLink       string `json:"ref_link,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// Exchanges lists the supported venues sorted by display name, flagging those
// with usable live credentials.
func (g *Gateway) Exchanges() []ExchangeMeta {
	ids := g.registry.Identifiers()
	metas := make([]ExchangeMeta, 0, len(ids))
	for _, id := range ids {
		venue := exchange.VenueFor(id)
		metas = append(metas, ExchangeMeta{
			Code:          venue.Code,
			Name:          venue.Name,
			RefLink:       venue.RefLink,
			Authenticated: g.settings.HasCredentials(id),
		})
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Name < metas[j].Name })
	return metas
}

// Pairs returns the deduplicated tradable pair set for the venue, passed
// through the curated-list override when the venue's metadata is unreliable.
func (g *Gateway) Pairs(ctx context.Context, exchangeName string) ([]schema.Pair, error) {
	key := config.NormalizeExchangeName(exchangeName)
	conn, err := g.registry.Connector(key)
	if err != nil {
		return nil, err
	}
	if override, ok := g.shims.PairsOverride(key); ok {
		observability.Log().Info("substituting curated pair list",
			observability.Field{Key: "exchange", Value: key})
		return dedupePairs(override()), nil
	}
	pairs, err := conn.Pairs(ctx)
	if err != nil {
		return nil, g.translate(key, err)
	}
	return dedupePairs(pairs), nil
}

// PairMetadata returns order amount bounds and price scale for the pair,
// applying the venue's counter-code normalization before lookup.
func (g *Gateway) PairMetadata(ctx context.Context, exchangeName string, pair schema.Pair) (*schema.PairMetadata, error) {
	key := config.NormalizeExchangeName(exchangeName)
	conn, err := g.registry.Connector(key)
	if err != nil {
		return nil, err
	}
	lookup := schema.NewPair(pair.Base, g.shims.NormalizeCounter(key, pair.Counter))
	meta, err := conn.PairMetadata(ctx, lookup)
	if err != nil {
		return nil, g.translate(key, err)
	}
	return meta, nil
}

// PlaceOrder validates and submits an order, publishing the acknowledged
// result to subscribers. Submission failures are never retried here: a retry
// risks double-submission of a financial side effect.
func (g *Gateway) PlaceOrder(ctx context.Context, exchangeName string, req schema.OrderRequest) (*schema.Order, error) {
	key := config.NormalizeExchangeName(exchangeName)

	order, err := g.normalizer.Normalize(key, req)
	if err != nil {
		return nil, err
	}
	svc, err := g.resolver.Resolve(key)
	if err != nil {
		return nil, err
	}

	var id string
	if order.Type == schema.OrderTypeStop {
		id, err = svc.PlaceStopOrder(ctx, order)
	} else {
		id, err = svc.PlaceLimitOrder(ctx, order)
	}
	if err != nil {
		observability.Log().Error("failed to submit order",
			observability.Field{Key: "exchange", Value: key},
			observability.Field{Key: "pair", Value: order.Pair.String()},
			observability.Field{Key: "error", Value: err})
		return nil, g.translate(key, err)
	}

	placed := order.Clone()
	placed.ID = id
	placed.Status = schema.StatusNew

	g.incr(ctx, g.ordersPlaced, key)
	g.publish(key, placed)
	return placed, nil
}

// CancelOrder cancels an order using the cancellation parameter shape the
// venue accepts. A false result from the venue is a failure, not a silent
// success. Returns the cancellation timestamp.
func (g *Gateway) CancelOrder(ctx context.Context, exchangeName string, req schema.CancelRequest) (time.Time, error) {
	key := config.NormalizeExchangeName(exchangeName)
	svc, err := g.resolver.Resolve(key)
	if err != nil {
		return time.Time{}, err
	}

	params := g.shims.CancelParamsFor(key, req)
	now := g.clock()
	ok, err := svc.CancelOrder(ctx, params)
	if err != nil {
		return time.Time{}, g.translate(key, err)
	}
	if !ok {
		return time.Time{}, errs.New(key, errs.CodeExchange,
			errs.WithMessage("order could not be cancelled"))
	}

	g.incr(ctx, g.ordersCancelled, key)
	g.publish(key, &schema.Order{
		ID:     req.OrderID,
		Pair:   req.Pair,
		Side:   req.Side,
		Status: schema.StatusCanceled,
	})
	return now, nil
}

// OpenOrders fetches all open orders on the venue. Often not supported by
// live venues; prefer the pair-scoped variant.
func (g *Gateway) OpenOrders(ctx context.Context, exchangeName string) ([]*schema.Order, error) {
	key := config.NormalizeExchangeName(exchangeName)
	svc, err := g.resolver.Resolve(key)
	if err != nil {
		return nil, err
	}
	orders, err := svc.OpenOrders(ctx, nil)
	if err != nil {
		return nil, g.translate(key, err)
	}
	return orders, nil
}

// OpenOrdersForPair fetches open orders scoped to a pair, defensively
// re-filtering the venue's result set: venues are not trusted to honour the
// filter correctly.
func (g *Gateway) OpenOrdersForPair(ctx context.Context, exchangeName string, pair schema.Pair) ([]*schema.Order, error) {
	key := config.NormalizeExchangeName(exchangeName)
	svc, err := g.resolver.Resolve(key)
	if err != nil {
		return nil, err
	}
	unfiltered, err := svc.OpenOrders(ctx, &pair)
	if err != nil {
		return nil, g.translate(key, err)
	}
	filtered := make([]*schema.Order, 0, len(unfiltered))
	for _, order := range unfiltered {
		if order.Pair == pair {
			filtered = append(filtered, order)
		}
	}
	return filtered, nil
}

// OpenOrdersForCurrency fetches open orders on every pair involving the
// currency. One sequential venue call per pair, paced by the configured scan
// delay; a failure on any pair aborts the whole aggregate. Explicitly a slow
// path.
func (g *Gateway) OpenOrdersForCurrency(ctx context.Context, exchangeName, currency string) ([]*schema.Order, error) {
	key := config.NormalizeExchangeName(exchangeName)
	currency = strings.ToUpper(strings.TrimSpace(currency))

	observability.Log().Info("thorough orders search",
		observability.Field{Key: "exchange", Value: key},
		observability.Field{Key: "currency", Value: currency})

	pairs, err := g.Pairs(ctx, key)
	if err != nil {
		return nil, err
	}
	svc, err := g.resolver.Resolve(key)
	if err != nil {
		return nil, err
	}

	limiter := rate.NewLimiter(rate.Every(g.scanDelay), 1)
	out := make([]*schema.Order, 0)
	for _, pair := range pairs {
		if !pair.Involves(currency) {
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		orders, err := svc.OpenOrders(ctx, &pair)
		if err != nil {
			// All-or-nothing: never return a silently partial aggregate.
			return nil, g.translate(key, err)
		}
		out = append(out, orders...)
	}
	return out, nil
}

// Order fetches a single order by id.
func (g *Gateway) Order(ctx context.Context, exchangeName, id string) (*schema.Order, error) {
	key := config.NormalizeExchangeName(exchangeName)
	svc, err := g.resolver.Resolve(key)
	if err != nil {
		return nil, err
	}
	order, err := svc.Order(ctx, id)
	if err != nil {
		return nil, g.translate(key, err)
	}
	return order, nil
}

// Balances fetches the wallet and filters it to the requested currency set,
// keyed by currency code.
func (g *Gateway) Balances(ctx context.Context, exchangeName string, currencies []string) (map[string]schema.Balance, error) {
	key := config.NormalizeExchangeName(exchangeName)
	acct, err := g.resolver.ResolveAccount(key)
	if err != nil {
		return nil, err
	}
	all, err := acct.Balances(ctx)
	if err != nil {
		return nil, g.translate(key, err)
	}

	want := make(map[string]struct{}, len(currencies))
	for _, currency := range currencies {
		want[strings.ToUpper(strings.TrimSpace(currency))] = struct{}{}
	}
	out := make(map[string]schema.Balance, len(want))
	for _, balance := range all {
		if _, ok := want[balance.Currency]; ok {
			out[balance.Currency] = balance
		}
	}
	return out, nil
}

// Ticker is a read-only passthrough to the venue's market data capability.
// Transient network failures are retried with bounded exponential backoff;
// read-only fetches are safe to retry, order paths never are.
func (g *Gateway) Ticker(ctx context.Context, exchangeName string, pair schema.Pair) (*schema.Ticker, error) {
	key := config.NormalizeExchangeName(exchangeName)
	conn, err := g.registry.Connector(key)
	if err != nil {
		return nil, err
	}
	md := conn.MarketData()
	if md == nil {
		return nil, errs.NotSupported(key, "market data not offered by this venue")
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < tickerAttempts; attempt++ {
		ticker, err := md.Ticker(ctx, pair)
		if err == nil {
			return ticker, nil
		}
		if errs.CodeOf(err) != errs.CodeNetwork || errors.Is(err, context.Canceled) {
			return nil, g.translate(key, err)
		}
		lastErr = err
		if attempt == tickerAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(policy.NextBackOff()):
		}
	}
	return nil, errs.New(key, errs.CodeNetwork,
		errs.WithMessage("ticker fetch failed"),
		errs.WithCause(lastErr))
}

// translate maps a venue-originated error into the gateway taxonomy. Nothing
// propagates to the transport layer as an opaque runtime failure.
func (g *Gateway) translate(exchangeName string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, exchange.ErrNotSupported) {
		return errs.NotSupported(exchangeName, "operation not currently supported by exchange")
	}
	if _, ok := errs.AsE(err); ok {
		return err
	}
	return errs.New(exchangeName, errs.CodeExchange,
		errs.WithRawMessage(err.Error()),
		errs.WithCause(err))
}

// publish forwards an order event to subscribers, best-effort.
func (g *Gateway) publish(exchangeName string, order *schema.Order) {
	if g.bus == nil {
		return
	}
	g.bus.Publish(orderbus.Event{
		Exchange: exchangeName,
		Pair:     order.Pair,
		Order:    order.Clone(),
	})
}

func (g *Gateway) incr(ctx context.Context, counter metric.Int64Counter, exchangeName string) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("exchange", exchangeName)))
}

func dedupePairs(pairs []schema.Pair) []schema.Pair {
	seen := make(map[schema.Pair]struct{}, len(pairs))
	out := make([]schema.Pair, 0, len(pairs))
	for _, pair := range pairs {
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}
		out = append(out, pair)
	}
	return out
}
