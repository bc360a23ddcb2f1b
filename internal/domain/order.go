package domain

import "time"

// OrderStatus is the local settlement state of a placed order.
type OrderStatus string

const (
	// OrderStatusPending means the order was accepted by the exchange and
	// settlement has not been confirmed yet.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusClosed means the order is no longer open on the exchange.
	OrderStatusClosed OrderStatus = "closed"
)

// PendingOrder is the only entity whose lifecycle spans polling cycles. It is
// created after a successful order placement and removed once the exchange
// reports the order settled. Orders are treated as atomic open/closed, never
// as partial fills.
type PendingOrder struct {
	TxID      string      `json:"txid"`
	CreatedAt time.Time   `json:"created_at"`
	Status    OrderStatus `json:"status"`
}
