// Package domain defines the core data structures of the autotrader.
package domain

import "fmt"

// Class is the exchange-level classification of a currency code.
type Class int

const (
	// ClassCrypto marks a cryptocurrency code, prefixed with "X" on Kraken.
	ClassCrypto Class = iota
	// ClassFiat marks a fiat currency code, prefixed with "Z" on Kraken.
	ClassFiat
)

// Prefix returns the Kraken class prefix for the currency code.
func (c Class) Prefix() string {
	if c == ClassFiat {
		return "Z"
	}
	return "X"
}

var cryptoCodes = map[string]struct{}{
	"LTC": {},
	"XBT": {},
	"XRP": {},
	"DAO": {},
	"ETH": {},
	"XDG": {},
	"XLM": {},
}

var fiatCodes = map[string]struct{}{
	"EUR": {},
	"GBP": {},
	"USD": {},
	"JPY": {},
}

// Classify maps a currency code to its class. Every code maps to exactly one
// class; codes outside both known sets classify as crypto and ok is false so
// callers can report the fallback.
func Classify(code string) (class Class, ok bool) {
	if _, found := fiatCodes[code]; found {
		return ClassFiat, true
	}
	if _, found := cryptoCodes[code]; found {
		return ClassCrypto, true
	}
	return ClassCrypto, false
}

// Pair is an asset traded against a currency.
type Pair struct {
	Asset    string
	Currency string
}

// String returns the human-readable representation.
func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.Asset, p.Currency)
}

// Kraken returns the exchange pair code with both halves carrying their class
// prefix, e.g. {LTC, EUR} -> "XLTCZEUR".
func (p Pair) Kraken() string {
	assetClass, _ := Classify(p.Asset)
	currencyClass, _ := Classify(p.Currency)
	return assetClass.Prefix() + p.Asset + currencyClass.Prefix() + p.Currency
}

// UnknownCodes lists the codes of the pair that belong to neither known
// currency set.
func (p Pair) UnknownCodes() []string {
	var unknown []string
	if _, ok := Classify(p.Asset); !ok {
		unknown = append(unknown, p.Asset)
	}
	if _, ok := Classify(p.Currency); !ok {
		unknown = append(unknown, p.Currency)
	}
	return unknown
}
