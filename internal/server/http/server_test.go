package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/thecao365/orko/internal/auth"
	"github.com/thecao365/orko/internal/bus/orderbus"
	"github.com/thecao365/orko/internal/config"
	"github.com/thecao365/orko/internal/exchange"
	"github.com/thecao365/orko/internal/exchange/memconn"
	"github.com/thecao365/orko/internal/gateway"
	"github.com/thecao365/orko/internal/paper"
	"github.com/thecao365/orko/internal/schema"
	"github.com/thecao365/orko/internal/trading"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	btcUSDT := schema.NewPair("BTC", "USDT")
	registry := exchange.NewRegistry()
	registry.Register(memconn.New("kraken",
		memconn.WithPairs(btcUSDT),
		memconn.WithBasePrice(btcUSDT, decimal.NewFromInt(50000))))
	registry.Register(memconn.New("bitmex"))

	settings := config.Settings{Exchanges: map[string]config.ExchangeSettings{}}
	resolver := trading.NewResolver(registry, settings, paper.NewEngine())
	bus := orderbus.NewMemoryBus(16, 1)
	t.Cleanup(bus.Close)
	gw := gateway.New(registry, settings, resolver, trading.NewNormalizer(), trading.NewShimSet(), bus)
	return NewHandler(gw, auth.AllowAll{})
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestListExchanges(t *testing.T) {
	handler := newTestHandler(t)
	rec := doRequest(t, handler, http.MethodGet, "/exchanges", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Exchanges []gateway.ExchangeMeta `json:"exchanges"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Exchanges, 2)
	for _, meta := range payload.Exchanges {
		require.False(t, meta.Authenticated)
	}
}

func TestPlaceOrderRoundTrip(t *testing.T) {
	handler := newTestHandler(t)
	body := `{"market":"BTC-USDT","side":"BID","amount":"0.5","limitPrice":"48000"}`
	rec := doRequest(t, handler, http.MethodPost, "/exchanges/kraken/orders", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var order schema.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	require.NotEmpty(t, order.ID)
	require.Equal(t, schema.StatusNew, order.Status)

	listed := doRequest(t, handler, http.MethodGet, "/exchanges/kraken/markets/BTC-USDT/orders", "")
	require.Equal(t, http.StatusOK, listed.Code)
	require.Contains(t, listed.Body.String(), order.ID)
}

func TestPlaceMarketOrderRejected(t *testing.T) {
	handler := newTestHandler(t)
	body := `{"market":"BTC-USDT","side":"BID","amount":"0.5"}`
	rec := doRequest(t, handler, http.MethodPost, "/exchanges/kraken/orders", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "market orders not supported")
}

func TestPlaceOrderBadMarket(t *testing.T) {
	handler := newTestHandler(t)
	body := `{"market":"BTCUSDT","side":"BID","amount":"0.5","limitPrice":"48000"}`
	rec := doRequest(t, handler, http.MethodPost, "/exchanges/kraken/orders", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelMissingOrder(t *testing.T) {
	handler := newTestHandler(t)
	rec := doRequest(t, handler, http.MethodDelete,
		"/exchanges/kraken/orders/nope?market=BTC-USDT&side=BID", "")
	require.GreaterOrEqual(t, rec.Code, http.StatusBadRequest)
}

func TestCancelPlacedOrder(t *testing.T) {
	handler := newTestHandler(t)
	body := `{"market":"BTC-USDT","side":"BID","amount":"0.5","limitPrice":"48000"}`
	placed := doRequest(t, handler, http.MethodPost, "/exchanges/kraken/orders", body)
	require.Equal(t, http.StatusCreated, placed.Code)

	var order schema.Order
	require.NoError(t, json.Unmarshal(placed.Body.Bytes(), &order))

	cancelled := doRequest(t, handler, http.MethodDelete,
		"/exchanges/kraken/orders/"+order.ID+"?market=BTC-USDT&side=BID", "")
	require.Equal(t, http.StatusOK, cancelled.Code)
	require.Contains(t, cancelled.Body.String(), "cancelledAt")
}

func TestCancelWithoutMarketQuery(t *testing.T) {
	handler := newTestHandler(t)
	body := `{"market":"BTC-USDT","side":"BID","amount":"0.1","limitPrice":"46000"}`
	placed := doRequest(t, handler, http.MethodPost, "/exchanges/kraken/orders", body)
	require.Equal(t, http.StatusCreated, placed.Code)

	var order schema.Order
	require.NoError(t, json.Unmarshal(placed.Body.Bytes(), &order))

	cancelled := doRequest(t, handler, http.MethodDelete,
		"/exchanges/kraken/orders/"+order.ID, "")
	require.Equal(t, http.StatusOK, cancelled.Code)
	require.Contains(t, cancelled.Body.String(), "cancelledAt")
}

func TestCancelViaMarketRoute(t *testing.T) {
	handler := newTestHandler(t)
	body := `{"market":"BTC-USDT","side":"BID","amount":"0.25","limitPrice":"47000"}`
	placed := doRequest(t, handler, http.MethodPost, "/exchanges/kraken/orders", body)
	require.Equal(t, http.StatusCreated, placed.Code)

	var order schema.Order
	require.NoError(t, json.Unmarshal(placed.Body.Bytes(), &order))

	cancelled := doRequest(t, handler, http.MethodDelete,
		"/exchanges/kraken/markets/BTC-USDT/orders/"+order.ID+"?side=BID", "")
	require.Equal(t, http.StatusOK, cancelled.Code)
}

func TestTicker(t *testing.T) {
	handler := newTestHandler(t)
	rec := doRequest(t, handler, http.MethodGet, "/exchanges/kraken/markets/BTC-USDT/ticker", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var ticker schema.Ticker
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ticker))
	require.True(t, ticker.Bid.IsPositive())
	require.True(t, ticker.Ask.GreaterThan(ticker.Bid))
}

func TestUnknownExchange(t *testing.T) {
	handler := newTestHandler(t)
	rec := doRequest(t, handler, http.MethodGet, "/exchanges/hitbtc/pairs", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCuratedPairsServed(t *testing.T) {
	handler := newTestHandler(t)
	rec := doRequest(t, handler, http.MethodGet, "/exchanges/bitmex/pairs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "XBT")
}

func TestBalances(t *testing.T) {
	handler := newTestHandler(t)
	rec := doRequest(t, handler, http.MethodGet, "/exchanges/kraken/balance/BTC,USDT", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t)
	rec := doRequest(t, handler, http.MethodPut, "/exchanges/kraken/orders", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Allow"))
}

func TestRoleDenied(t *testing.T) {
	btcUSDT := schema.NewPair("BTC", "USDT")
	registry := exchange.NewRegistry()
	registry.Register(memconn.New("kraken", memconn.WithPairs(btcUSDT)))
	settings := config.Settings{}
	resolver := trading.NewResolver(registry, settings, paper.NewEngine())
	gw := gateway.New(registry, settings, resolver, trading.NewNormalizer(), trading.NewShimSet(), nil)
	handler := NewHandler(gw, denyTraders{})

	public := doRequest(t, handler, http.MethodGet, "/exchanges/kraken/pairs", "")
	require.Equal(t, http.StatusOK, public.Code)

	trader := doRequest(t, handler, http.MethodGet, "/exchanges/kraken/orders", "")
	require.Equal(t, http.StatusForbidden, trader.Code)
}

type denyTraders struct{}

func (denyTraders) Authorize(_ context.Context, _ *http.Request, role auth.Role) error {
	if role == auth.RoleTrader {
		return errDenied
	}
	return nil
}

var errDenied = errors.New("denied")
