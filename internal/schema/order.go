package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide identifies the direction of an order.
type TradeSide string

const (
	// SideBid represents a buy order.
	SideBid TradeSide = "BID"
	// SideAsk represents a sell order.
	SideAsk TradeSide = "ASK"
)

// Valid reports whether the side is recognised.
func (s TradeSide) Valid() bool {
	return s == SideBid || s == SideAsk
}

// OrderType identifies the concrete order variant submitted to an exchange.
type OrderType string

const (
	// OrderTypeLimit represents a limit order.
	OrderTypeLimit OrderType = "LIMIT"
	// OrderTypeStop represents a stop order, with or without a limit price.
	OrderTypeStop OrderType = "STOP"
)

// OrderStatus tracks the lifecycle state an exchange reports for an order.
type OrderStatus string

const (
	// StatusPendingNew marks an order built locally but not yet acknowledged.
	StatusPendingNew OrderStatus = "PENDING_NEW"
	// StatusNew marks an order acknowledged and resting on the exchange.
	StatusNew OrderStatus = "NEW"
	// StatusPartiallyFilled marks an order with partial executions.
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	// StatusFilled marks a completely executed order.
	StatusFilled OrderStatus = "FILLED"
	// StatusCanceled marks an order removed before completion.
	StatusCanceled OrderStatus = "CANCELED"
	// StatusRejected marks an order the exchange refused.
	StatusRejected OrderStatus = "REJECTED"
)

// OrderRequest is the transport-agnostic order submission shape.
// Exactly one of {limit only, stop only, stop+limit} is a valid price
// combination; a request with neither price is a market order, which the
// gateway rejects.
type OrderRequest struct {
	Pair       Pair             `json:"pair"`
	Side       TradeSide        `json:"side"`
	Amount     decimal.Decimal  `json:"amount"`
	StopPrice  *decimal.Decimal `json:"stop_price,omitempty"`
	LimitPrice *decimal.Decimal `json:"limit_price,omitempty"`
}

// IsStop reports whether the request carries a stop price.
func (r OrderRequest) IsStop() bool { return r.StopPrice != nil }

// IsLimit reports whether the request carries a limit price.
func (r OrderRequest) IsLimit() bool { return r.LimitPrice != nil }

// Order is a placed (or in-flight) order as observed through the gateway.
// Created once by the exchange call and immutable thereafter; the gateway
// relays whatever status the exchange reports, it does not track transitions.
type Order struct {
	ID           string           `json:"id"`
	Pair         Pair             `json:"pair"`
	Side         TradeSide        `json:"side"`
	Type         OrderType        `json:"type"`
	Amount       decimal.Decimal  `json:"amount"`
	LimitPrice   *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice    *decimal.Decimal `json:"stop_price,omitempty"`
	Filled       decimal.Decimal  `json:"filled"`
	AveragePrice decimal.Decimal  `json:"average_price"`
	Status       OrderStatus      `json:"status"`
	PlacedAt     time.Time        `json:"placed_at"`
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	dup := *o
	if o.LimitPrice != nil {
		price := *o.LimitPrice
		dup.LimitPrice = &price
	}
	if o.StopPrice != nil {
		price := *o.StopPrice
		dup.StopPrice = &price
	}
	return &dup
}

// CancelRequest identifies an order to cancel. Side is an order-type hint
// required by some exchanges and ignored by others.
type CancelRequest struct {
	Pair    Pair      `json:"pair"`
	OrderID string    `json:"order_id"`
	Side    TradeSide `json:"side,omitempty"`
}
