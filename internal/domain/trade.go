package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Trade is one executed trade reported by the exchange. Trades are read-only:
// the loop inspects the most recent one to decide the next action.
type Trade struct {
	// Pair exchange pair code the trade was executed on.
	Pair string
	// Side direction of the trade.
	Side Side
	// Price execution price in the quote currency.
	Price decimal.Decimal
	// Amount executed volume in the base asset.
	Amount decimal.Decimal
	// Time execution timestamp.
	Time time.Time
}

// String returns a human-readable string representation.
func (t *Trade) String() string {
	return fmt.Sprintf("%s %s @ %s", t.Side.String(), t.Pair, t.Price.String())
}

// MostRecentTrade returns the trade with the latest execution time, or nil
// when the slice is empty.
func MostRecentTrade(trades []Trade) *Trade {
	var last *Trade
	for i := range trades {
		if last == nil || trades[i].Time.After(last.Time) {
			last = &trades[i]
		}
	}
	return last
}
