package schema

import "strings"

// Pair identifies a traded market as a base and counter currency code.
// Pairs are immutable values; equality is case-sensitive code match.
type Pair struct {
	Base    string `json:"base"`
	Counter string `json:"counter"`
}

// NewPair builds a pair from raw currency codes, trimming and upper-casing them.
func NewPair(base, counter string) Pair {
	return Pair{
		Base:    strings.ToUpper(strings.TrimSpace(base)),
		Counter: strings.ToUpper(strings.TrimSpace(counter)),
	}
}

func (p Pair) String() string {
	return p.Base + "/" + p.Counter
}

// Involves reports whether the currency code appears on either side of the pair.
func (p Pair) Involves(currency string) bool {
	return p.Base == currency || p.Counter == currency
}

// IsZero reports whether the pair carries no currency codes.
func (p Pair) IsZero() bool {
	return p.Base == "" && p.Counter == ""
}
