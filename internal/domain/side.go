package domain

import "github.com/pkg/errors"

// Side is the direction of an order or a trade.
type Side int

const (
	Buy Side = iota
	Sell
)

const (
	sideStringBuy  = "buy"
	sideStringSell = "sell"
)

// String returns the wire representation used by the exchange.
func (s Side) String() string {
	if s == Sell {
		return sideStringSell
	}
	return sideStringBuy
}

// Opposite returns the other direction.
func (s Side) Opposite() Side {
	if s == Sell {
		return Buy
	}
	return Sell
}

// ParseSide converts the exchange wire representation into a Side.
func ParseSide(s string) (Side, error) {
	switch s {
	case sideStringBuy:
		return Buy, nil
	case sideStringSell:
		return Sell, nil
	}
	return Buy, errors.Errorf("unknown trade side: %q", s)
}
