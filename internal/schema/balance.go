package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance reports wallet amounts for a single currency.
type Balance struct {
	Currency  string          `json:"currency"`
	Total     decimal.Decimal `json:"total"`
	Available decimal.Decimal `json:"available"`
	Held      decimal.Decimal `json:"held"`
}

// Ticker is a point-in-time market data snapshot for a pair.
type Ticker struct {
	Pair      Pair            `json:"pair"`
	Bid       decimal.Decimal `json:"bid"`
	Ask       decimal.Decimal `json:"ask"`
	Last      decimal.Decimal `json:"last"`
	Timestamp time.Time       `json:"timestamp"`
}

// PairMetadata carries per-pair order constraints reported by an exchange.
type PairMetadata struct {
	MinimumAmount decimal.Decimal `json:"minimum_amount"`
	MaximumAmount decimal.Decimal `json:"maximum_amount"`
	PriceScale    int             `json:"price_scale"`
}
