// Package httpserver exposes the trading gateway over a JSON HTTP surface.
package httpserver

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/thecao365/orko/errs"
	"github.com/thecao365/orko/internal/auth"
	"github.com/thecao365/orko/internal/gateway"
	"github.com/thecao365/orko/internal/observability"
	"github.com/thecao365/orko/internal/schema"
)

const (
	maxJSONBodyBytes int64 = 1 << 20 // 1 MiB

	exchangesPath       = "/exchanges"
	exchangeDetailsPath = exchangesPath + "/"
)

type handlerFunc func(http.ResponseWriter, *http.Request)

type httpServer struct {
	gateway    *gateway.Gateway
	authorizer auth.Authorizer
}

// NewHandler builds the HTTP handler tree over the gateway.
func NewHandler(gw *gateway.Gateway, authorizer auth.Authorizer) http.Handler {
	if authorizer == nil {
		authorizer = auth.AllowAll{}
	}
	server := &httpServer{gateway: gw, authorizer: authorizer}

	mux := http.NewServeMux()
	mux.Handle(exchangesPath, server.methodHandlers(map[string]handlerFunc{
		http.MethodGet: server.guard(auth.RolePublic, server.listExchanges),
	}))
	mux.Handle(exchangeDetailsPath, http.HandlerFunc(server.routeExchange))
	return withCORS(mux)
}

// routeExchange dispatches /exchanges/{exchange}/... by path segment.
func (s *httpServer) routeExchange(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, exchangeDetailsPath), "/")
	segments := strings.Split(rest, "/")
	if rest == "" || segments[0] == "" {
		writeError(w, http.StatusNotFound, "exchange name required")
		return
	}
	exchangeName := segments[0]
	tail := segments[1:]

	switch {
	case len(tail) == 1 && tail[0] == "pairs" && r.Method == http.MethodGet:
		s.guard(auth.RolePublic, s.listPairs(exchangeName))(w, r)
	case len(tail) == 2 && tail[0] == "pairs" && r.Method == http.MethodGet:
		s.guard(auth.RolePublic, s.getPairMetadata(exchangeName, tail[1]))(w, r)
	case len(tail) == 1 && tail[0] == "orders":
		s.methodHandlers(map[string]handlerFunc{
			http.MethodGet:  s.guard(auth.RoleTrader, s.listOpenOrders(exchangeName)),
			http.MethodPost: s.guard(auth.RoleTrader, s.placeOrder(exchangeName)),
		}).ServeHTTP(w, r)
	case len(tail) == 2 && tail[0] == "orders":
		s.methodHandlers(map[string]handlerFunc{
			http.MethodGet:    s.guard(auth.RoleTrader, s.getOrder(exchangeName, tail[1])),
			http.MethodDelete: s.guard(auth.RoleTrader, s.cancelOrder(exchangeName, tail[1])),
		}).ServeHTTP(w, r)
	case len(tail) == 3 && tail[0] == "currencies" && tail[2] == "orders" && r.Method == http.MethodGet:
		s.guard(auth.RoleTrader, s.listOrdersForCurrency(exchangeName, tail[1]))(w, r)
	case len(tail) == 3 && tail[0] == "markets" && tail[2] == "orders" && r.Method == http.MethodGet:
		s.guard(auth.RoleTrader, s.listOrdersForMarket(exchangeName, tail[1]))(w, r)
	case len(tail) == 4 && tail[0] == "markets" && tail[2] == "orders" && r.Method == http.MethodDelete:
		s.guard(auth.RoleTrader, s.cancelMarketOrder(exchangeName, tail[1], tail[3]))(w, r)
	case len(tail) == 3 && tail[0] == "markets" && tail[2] == "ticker" && r.Method == http.MethodGet:
		s.guard(auth.RolePublic, s.getTicker(exchangeName, tail[1]))(w, r)
	case len(tail) == 2 && tail[0] == "balance" && r.Method == http.MethodGet:
		s.guard(auth.RoleTrader, s.getBalances(exchangeName, tail[1]))(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *httpServer) guard(role auth.Role, next handlerFunc) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.authorizer.Authorize(r.Context(), r, role); err != nil {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r)
	}
}

func (s *httpServer) listExchanges(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"exchanges": s.gateway.Exchanges()})
}

func (s *httpServer) listPairs(exchangeName string) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pairs, err := s.gateway.Pairs(r.Context(), exchangeName)
		if err != nil {
			writeGatewayError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pairs": pairs})
	}
}

func (s *httpServer) getPairMetadata(exchangeName, market string) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pair, ok := parseMarket(market)
		if !ok {
			writeError(w, http.StatusBadRequest, "market must be BASE-COUNTER")
			return
		}
		meta, err := s.gateway.PairMetadata(r.Context(), exchangeName, pair)
		if err != nil {
			writeGatewayError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, meta)
	}
}

type orderPayload struct {
	Market     string           `json:"market"`
	Side       string           `json:"side"`
	Amount     decimal.Decimal  `json:"amount"`
	LimitPrice *decimal.Decimal `json:"limitPrice,omitempty"`
	StopPrice  *decimal.Decimal `json:"stopPrice,omitempty"`
}

func (s *httpServer) placeOrder(exchangeName string) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload orderPayload
		if !decodeJSON(w, r, &payload) {
			return
		}
		pair, ok := parseMarket(payload.Market)
		if !ok {
			writeError(w, http.StatusBadRequest, "market must be BASE-COUNTER")
			return
		}
		order, err := s.gateway.PlaceOrder(r.Context(), exchangeName, schema.OrderRequest{
			Pair:       pair,
			Side:       schema.TradeSide(strings.ToUpper(payload.Side)),
			Amount:     payload.Amount,
			LimitPrice: payload.LimitPrice,
			StopPrice:  payload.StopPrice,
		})
		if err != nil {
			writeGatewayError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, order)
	}
}

func (s *httpServer) getOrder(exchangeName, id string) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := s.gateway.Order(r.Context(), exchangeName, id)
		if err != nil {
			writeGatewayError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

func (s *httpServer) cancelOrder(exchangeName, id string) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := schema.CancelRequest{OrderID: id}
		if market := r.URL.Query().Get("market"); market != "" {
			pair, ok := parseMarket(market)
			if !ok {
				writeError(w, http.StatusBadRequest, "market must be BASE-COUNTER")
				return
			}
			req.Pair = pair
		}
		if side := r.URL.Query().Get("side"); side != "" {
			req.Side = schema.TradeSide(strings.ToUpper(side))
		}
		cancelledAt, err := s.gateway.CancelOrder(r.Context(), exchangeName, req)
		if err != nil {
			writeGatewayError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"cancelledAt": cancelledAt.UTC().Format(time.RFC3339Nano),
		})
	}
}

func (s *httpServer) cancelMarketOrder(exchangeName, market, id string) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pair, ok := parseMarket(market)
		if !ok {
			writeError(w, http.StatusBadRequest, "market must be BASE-COUNTER")
			return
		}
		req := schema.CancelRequest{OrderID: id, Pair: pair}
		if side := r.URL.Query().Get("side"); side != "" {
			req.Side = schema.TradeSide(strings.ToUpper(side))
		}
		cancelledAt, err := s.gateway.CancelOrder(r.Context(), exchangeName, req)
		if err != nil {
			writeGatewayError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"cancelledAt": cancelledAt.UTC().Format(time.RFC3339Nano),
		})
	}
}

func (s *httpServer) listOpenOrders(exchangeName string) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := s.gateway.OpenOrders(r.Context(), exchangeName)
		if err != nil {
			writeGatewayError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"openOrders": orders})
	}
}

func (s *httpServer) listOrdersForCurrency(exchangeName, currency string) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := s.gateway.OpenOrdersForCurrency(r.Context(), exchangeName, currency)
		if err != nil {
			writeGatewayError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"openOrders": orders})
	}
}

func (s *httpServer) listOrdersForMarket(exchangeName, market string) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pair, ok := parseMarket(market)
		if !ok {
			writeError(w, http.StatusBadRequest, "market must be BASE-COUNTER")
			return
		}
		orders, err := s.gateway.OpenOrdersForPair(r.Context(), exchangeName, pair)
		if err != nil {
			writeGatewayError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"openOrders": orders})
	}
}

func (s *httpServer) getTicker(exchangeName, market string) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pair, ok := parseMarket(market)
		if !ok {
			writeError(w, http.StatusBadRequest, "market must be BASE-COUNTER")
			return
		}
		ticker, err := s.gateway.Ticker(r.Context(), exchangeName, pair)
		if err != nil {
			writeGatewayError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ticker)
	}
}

func (s *httpServer) getBalances(exchangeName, currencies string) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requested := strings.Split(currencies, ",")
		balances, err := s.gateway.Balances(r.Context(), exchangeName, requested)
		if err != nil {
			writeGatewayError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"balances": balances})
	}
}

// parseMarket splits a BASE-COUNTER market string into a pair.
func parseMarket(market string) (schema.Pair, bool) {
	base, counter, found := strings.Cut(market, "-")
	if !found || strings.TrimSpace(base) == "" || strings.TrimSpace(counter) == "" {
		return schema.Pair{}, false
	}
	return schema.NewPair(base, counter), true
}

func (s *httpServer) methodHandlers(handlers map[string]handlerFunc) http.Handler {
	allowed := allowedMethods(handlers)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler(w, r)
			return
		}
		methodNotAllowed(w, allowed...)
	})
}

func allowedMethods(handlers map[string]handlerFunc) []string {
	if len(handlers) == 0 {
		return nil
	}
	allowed := make([]string, 0, len(handlers))
	for method := range handlers {
		allowed = append(allowed, method)
	}
	sort.Strings(allowed)
	return allowed
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	defer func() { _ = r.Body.Close() }()
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err := decoder.Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeGatewayError(w http.ResponseWriter, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		observability.Log().Error("request failed",
			observability.Field{Key: "error", Value: err})
	}
	var e *errs.E
	if errors.As(err, &e) {
		writeError(w, status, e.Error())
		return
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": "error", "error": message})
}

func withCORS(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
