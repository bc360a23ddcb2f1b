package kraken

import (
	"context"
	"encoding/json"
	"math"
	"net/url"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"autotrader/internal/domain"
	"autotrader/pkg/retrier"
)

// Ticker returns the current top-of-book quote for the configured pair.
// Not retried: a ticker is only useful within the cycle that asked for it.
func (c *Client) Ticker(ctx context.Context) (domain.Ticker, error) {
	var result map[string]struct {
		Ask []string `json:"a"`
		Bid []string `json:"b"`
	}

	if err := c.call(ctx, "Ticker", false, url.Values{"pair": {c.pairCode}}, &result); err != nil {
		return domain.Ticker{}, err
	}

	quote, ok := result[c.pairCode]
	if !ok {
		return domain.Ticker{}, errors.Errorf("Ticker: no quote for pair %s", c.pairCode)
	}
	if len(quote.Ask) == 0 || len(quote.Bid) == 0 {
		return domain.Ticker{}, errors.Errorf("Ticker: incomplete quote for pair %s", c.pairCode)
	}

	ask, err := decimal.NewFromString(quote.Ask[0])
	if err != nil {
		return domain.Ticker{}, errors.Wrap(err, "Ticker: parse ask")
	}
	bid, err := decimal.NewFromString(quote.Bid[0])
	if err != nil {
		return domain.Ticker{}, errors.Wrap(err, "Ticker: parse bid")
	}

	return domain.Ticker{Bid: bid, Ask: ask}, nil
}

type historyTrade struct {
	Pair   string  `json:"pair"`
	Type   string  `json:"type"`
	Price  string  `json:"price"`
	Volume string  `json:"vol"`
	Time   float64 `json:"time"`
}

// TradesHistory returns the account's executed trades. Errors propagate to
// the caller without retry.
func (c *Client) TradesHistory(ctx context.Context) ([]domain.Trade, error) {
	var result struct {
		Trades map[string]historyTrade `json:"trades"`
		Count  int                     `json:"count"`
	}

	if err := c.call(ctx, "TradesHistory", true, nil, &result); err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, 0, len(result.Trades))
	for txid, ht := range result.Trades {
		side, err := domain.ParseSide(ht.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "TradesHistory: trade %s", txid)
		}
		price, err := decimal.NewFromString(ht.Price)
		if err != nil {
			return nil, errors.Wrapf(err, "TradesHistory: parse price of trade %s", txid)
		}
		amount := decimal.Zero
		if ht.Volume != "" {
			if amount, err = decimal.NewFromString(ht.Volume); err != nil {
				return nil, errors.Wrapf(err, "TradesHistory: parse volume of trade %s", txid)
			}
		}

		trades = append(trades, domain.Trade{
			Pair:   ht.Pair,
			Side:   side,
			Price:  price,
			Amount: amount,
			Time:   unixTime(ht.Time),
		})
	}

	return trades, nil
}

// Trades returns recent public market trades for the configured pair.
// The read is idempotent, so transient failures re-arm a fixed-delay retry.
func (c *Client) Trades(ctx context.Context) ([]domain.Trade, error) {
	return retrier.DoWithData(c.retry, ctx, func(ctx context.Context) ([]domain.Trade, error) {
		trades, err := c.trades(ctx)
		if err != nil {
			c.logger.Debug("kraken returned an error, retrying", zap.String("endpoint", "Trades"), zap.Error(err))
			return nil, err
		}
		return trades, nil
	})
}

func (c *Client) trades(ctx context.Context) ([]domain.Trade, error) {
	var result map[string]json.RawMessage

	if err := c.call(ctx, "Trades", false, url.Values{"pair": {c.pairCode}}, &result); err != nil {
		return nil, err
	}

	raw, ok := result[c.pairCode]
	if !ok {
		return nil, errors.Errorf("Trades: no trades for pair %s", c.pairCode)
	}

	// rows come as [price, volume, time, side, ordertype, misc]
	var rows [][]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, errors.Wrap(err, "Trades: decode rows")
	}

	trades := make([]domain.Trade, 0, len(rows))
	for i, row := range rows {
		if len(row) < 4 {
			return nil, errors.Errorf("Trades: malformed row %d", i)
		}

		priceStr, ok := row[0].(string)
		if !ok {
			return nil, errors.Errorf("Trades: malformed price in row %d", i)
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, errors.Wrapf(err, "Trades: parse price in row %d", i)
		}

		volumeStr, ok := row[1].(string)
		if !ok {
			return nil, errors.Errorf("Trades: malformed volume in row %d", i)
		}
		amount, err := decimal.NewFromString(volumeStr)
		if err != nil {
			return nil, errors.Wrapf(err, "Trades: parse volume in row %d", i)
		}

		ts, ok := row[2].(float64)
		if !ok {
			return nil, errors.Errorf("Trades: malformed timestamp in row %d", i)
		}

		side := domain.Buy
		if marker, _ := row[3].(string); marker == "s" {
			side = domain.Sell
		}

		trades = append(trades, domain.Trade{
			Pair:   c.pairCode,
			Side:   side,
			Price:  price,
			Amount: amount,
			Time:   unixTime(ts),
		})
	}

	return trades, nil
}

// Portfolio returns one entry per held asset, names stripped of the exchange
// class prefix. Empty or erroneous responses re-arm a fixed-delay retry: the
// read is idempotent and safe to repeat.
func (c *Client) Portfolio(ctx context.Context) ([]domain.Balance, error) {
	return retrier.DoWithData(c.retry, ctx, func(ctx context.Context) ([]domain.Balance, error) {
		balances, err := c.portfolio(ctx)
		if err != nil {
			c.logger.Debug("kraken returned an error, retrying", zap.String("endpoint", "Balance"), zap.Error(err))
			return nil, err
		}
		return balances, nil
	})
}

func (c *Client) portfolio(ctx context.Context) ([]domain.Balance, error) {
	var result map[string]string

	if err := c.call(ctx, "Balance", true, nil, &result); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, errors.New("Balance: empty result")
	}

	balances := make([]domain.Balance, 0, len(result))
	for name, amountStr := range result {
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, errors.Wrapf(err, "Balance: parse amount of %s", name)
		}
		if len(name) > 1 {
			name = name[1:]
		}
		balances = append(balances, domain.Balance{Name: name, Amount: amount})
	}

	sort.Slice(balances, func(i, j int) bool { return balances[i].Name < balances[j].Name })

	return balances, nil
}

// AddOrder places a limit order and returns the exchange transaction id.
// The volume is floored to 8 decimals before submission. Never retried:
// resubmitting a possibly-accepted order is unsafe.
func (c *Client) AddOrder(ctx context.Context, side domain.Side, amount, price decimal.Decimal) (string, error) {
	volume := amount.RoundFloor(volumePrecision)

	c.logger.Info("placing order",
		zap.String("side", side.String()),
		zap.String("pair", c.pairCode),
		zap.String("volume", volume.String()),
		zap.String("price", price.String()))

	params := url.Values{
		"pair":      {c.pairCode},
		"type":      {side.String()},
		"ordertype": {"limit"},
		"price":     {price.String()},
		"volume":    {volume.String()},
	}

	var result struct {
		TxIDs []string `json:"txid"`
	}
	if err := c.call(ctx, "AddOrder", true, params, &result); err != nil {
		return "", err
	}
	if len(result.TxIDs) == 0 {
		return "", errors.New("AddOrder: no transaction id in response")
	}

	c.logger.Info("order accepted", zap.String("txid", result.TxIDs[0]))

	return result.TxIDs[0], nil
}

// CheckOrder reports whether the order is no longer open, i.e. its status is
// neither "open" nor "pending". Not retried: a mis-attributed status would
// corrupt the ledger.
func (c *Client) CheckOrder(ctx context.Context, txid string) (bool, error) {
	var result map[string]struct {
		Status string `json:"status"`
	}

	if err := c.call(ctx, "QueryOrders", true, url.Values{"txid": {txid}}, &result); err != nil {
		return false, err
	}

	order, ok := result[txid]
	if !ok {
		return false, errors.Errorf("QueryOrders: no status for order %s", txid)
	}

	stillOpen := order.Status == "open" || order.Status == "pending"

	return !stillOpen, nil
}

// CancelOrder asks the exchange to cancel an open order. The failure is
// logged here; callers that do not care may ignore the returned error.
func (c *Client) CancelOrder(ctx context.Context, txid string) error {
	if err := c.call(ctx, "CancelOrder", true, url.Values{"txid": {txid}}, nil); err != nil {
		c.logger.Error("unable to cancel order", zap.String("txid", txid), zap.Error(err))
		return err
	}

	return nil
}

func unixTime(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}
