package exchange

// Venue codes for the supported exchange integrations.
const (
	Binance  = "binance"
	Bitfinex = "bitfinex"
	Bitmex   = "bitmex"
	GDAX     = "gdax"
	Kraken   = "kraken"
	Kucoin   = "kucoin"
)

// Venue carries static display metadata for a supported exchange.
type Venue struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	RefLink string `json:"ref_link"`
}

var venues = map[string]Venue{
	Binance:  {Code: Binance, Name: "Binance", RefLink: "https://www.binance.com/?ref=11396297"},
	Bitfinex: {Code: Bitfinex, Name: "Bitfinex", RefLink: "https://www.bitfinex.com"},
	Bitmex:   {Code: Bitmex, Name: "BitMEX", RefLink: "https://www.bitmex.com/register/fP0Ydu"},
	GDAX:     {Code: GDAX, Name: "Coinbase Pro", RefLink: "https://pro.coinbase.com"},
	Kraken:   {Code: Kraken, Name: "Kraken", RefLink: "https://www.kraken.com"},
	Kucoin:   {Code: Kucoin, Name: "KuCoin", RefLink: "https://www.kucoin.com/#/?r=E42cuQ"},
}

// VenueFor returns the static metadata for the exchange code. Unknown codes
// fall back to using the code as the display name.
func VenueFor(code string) Venue {
	if v, ok := venues[code]; ok {
		return v
	}
	return Venue{Code: code, Name: code}
}
