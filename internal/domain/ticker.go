package domain

import "github.com/shopspring/decimal"

// Ticker is the current top-of-book quote for a pair. It is ephemeral: valid
// for one polling cycle only.
type Ticker struct {
	Bid decimal.Decimal
	Ask decimal.Decimal
}
