package domain

import "github.com/shopspring/decimal"

// Balance is one held asset of the exchange portfolio, with the exchange
// class prefix stripped from the name. Fetched fresh every cycle, never
// cached locally.
type Balance struct {
	Name   string
	Amount decimal.Decimal
}

// FindBalance returns the entry with the given name, or false when the
// portfolio holds no such asset.
func FindBalance(balances []Balance, name string) (Balance, bool) {
	for _, b := range balances {
		if b.Name == name {
			return b, true
		}
	}
	return Balance{}, false
}
