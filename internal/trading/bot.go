// Package trading runs the polling decision loop: reconcile pending orders,
// evaluate the market against the last executed trade, place an order when
// the threshold rule is satisfied.
package trading

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"autotrader/internal/domain"
)

var (
	// ErrNoTrades is returned when the trade history holds no trades at all.
	ErrNoTrades = errors.New("no trades in history")
	// ErrPairMismatch is returned when the most recent trade belongs to a
	// different pair than the configured one.
	ErrPairMismatch = errors.New("last trade pair does not match configured pair")
	// ErrBalanceMissing is returned when the portfolio lacks an entry for
	// the configured asset or currency.
	ErrBalanceMissing = errors.New("balance entry missing from portfolio")
)

// Exchange is the slice of the exchange client the loop depends on.
type Exchange interface {
	Pair() string
	Ticker(ctx context.Context) (domain.Ticker, error)
	TradesHistory(ctx context.Context) ([]domain.Trade, error)
	Portfolio(ctx context.Context) ([]domain.Balance, error)
	AddOrder(ctx context.Context, side domain.Side, amount, price decimal.Decimal) (string, error)
	CheckOrder(ctx context.Context, txid string) (bool, error)
}

// Ledger is the durable pending-order store the loop reconciles against.
type Ledger interface {
	InsertPending(txid string) error
	ListPending() []domain.PendingOrder
	RemovePending(txid string) error
}

// Config carries the loop settings.
type Config struct {
	Asset    string
	Currency string
	// LowDiff is the margin the bid must fall below the last trade price to
	// allow a buy.
	LowDiff decimal.Decimal
	// HighDiff is the margin the ask must rise above the last trade price to
	// allow a sell.
	HighDiff decimal.Decimal
	// PollInterval is the fixed delay between cycles.
	PollInterval time.Duration
	// Simulate suppresses order placement but runs the full decision logic.
	Simulate bool
}

// Bot drives one trading pair. Cycles run synchronously inside the tick
// loop, so they are mutually exclusive: a tick arriving while a cycle is
// still in flight is dropped, not queued.
type Bot struct {
	cfg      Config
	exchange Exchange
	ledger   Ledger
	logger   *zap.Logger
}

// NewBot creates a trading bot.
func NewBot(cfg Config, exchange Exchange, ledger Ledger, logger *zap.Logger) (*Bot, error) {
	if exchange == nil {
		return nil, errors.New("exchange is required")
	}
	if ledger == nil {
		return nil, errors.New("ledger is required")
	}
	if cfg.PollInterval <= 0 {
		return nil, errors.Errorf("poll interval must be positive, got %s", cfg.PollInterval)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Bot{
		cfg:      cfg,
		exchange: exchange,
		ledger:   ledger,
		logger:   logger,
	}, nil
}

// Run executes the polling loop until the context is cancelled. Cycle
// failures are logged and terminal to that cycle only; the next tick starts
// fresh.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("starting trading loop",
		zap.String("pair", b.exchange.Pair()),
		zap.Duration("poll_interval", b.cfg.PollInterval),
		zap.Bool("simulate", b.cfg.Simulate))

	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("stopping trading loop", zap.String("pair", b.exchange.Pair()))
			return ctx.Err()
		case <-ticker.C:
			if err := b.runCycle(ctx); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				b.logger.Error("trading cycle failed", zap.String("pair", b.exchange.Pair()), zap.Error(err))
			}
		}
	}
}

// runCycle performs one cycle: reconcile pending orders first; only a cycle
// that found none evaluates the market. This prevents order pile-up while a
// previous order is still settling.
func (b *Bot) runCycle(ctx context.Context) error {
	b.logger.Debug("cycle start", zap.String("pair", b.exchange.Pair()))

	pending := b.ledger.ListPending()
	if len(pending) > 0 {
		b.logger.Debug("pending orders found, skipping market evaluation", zap.Int("count", len(pending)))
		b.reconcile(ctx, pending)
		return nil
	}

	return b.evaluate(ctx)
}

// reconcile checks the settlement status of every pending order and drops
// the settled ones from the ledger. A failed status check leaves the order
// pending for the next cycle.
func (b *Bot) reconcile(ctx context.Context, pending []domain.PendingOrder) {
	for _, order := range pending {
		closed, err := b.exchange.CheckOrder(ctx, order.TxID)
		if err != nil {
			b.logger.Error("unable to check order status", zap.String("txid", order.TxID), zap.Error(err))
			continue
		}

		if !closed {
			b.logger.Debug("order still pending", zap.String("txid", order.TxID))
			continue
		}

		if err := b.ledger.RemovePending(order.TxID); err != nil {
			b.logger.Error("order settled on the exchange but could not be removed from the ledger",
				zap.String("txid", order.TxID), zap.Error(err))
			continue
		}

		b.logger.Info("order settled", zap.String("txid", order.TxID))
	}
}

// evaluate runs steps 2-6 of the cycle: last trade, portfolio, direction,
// threshold, order.
func (b *Bot) evaluate(ctx context.Context) error {
	trades, err := b.exchange.TradesHistory(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch trades history")
	}

	lastTrade := domain.MostRecentTrade(trades)
	if lastTrade == nil {
		return ErrNoTrades
	}
	if lastTrade.Pair != b.exchange.Pair() {
		return errors.Wrapf(ErrPairMismatch, "last trade was for %s, configured pair is %s",
			lastTrade.Pair, b.exchange.Pair())
	}

	balances, err := b.exchange.Portfolio(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch portfolio")
	}

	assetBalance, ok := domain.FindBalance(balances, b.cfg.Asset)
	if !ok {
		return errors.Wrapf(ErrBalanceMissing, "asset %s", b.cfg.Asset)
	}
	currencyBalance, ok := domain.FindBalance(balances, b.cfg.Currency)
	if !ok {
		return errors.Wrapf(ErrBalanceMissing, "currency %s", b.cfg.Currency)
	}

	// direction follows the last trade: a sell means we hold currency and
	// look to buy back, a buy means we hold the asset and look to sell.
	switch lastTrade.Side {
	case domain.Sell:
		if currencyBalance.Amount.IsPositive() {
			b.logger.Debug("last trade was a sell, looking to buy",
				zap.String("available", currencyBalance.Amount.String()),
				zap.String("currency", b.cfg.Currency))
			return b.checkMarketAndAct(ctx, domain.Buy, currencyBalance.Amount, lastTrade.Price)
		}
	case domain.Buy:
		if assetBalance.Amount.IsPositive() {
			b.logger.Debug("last trade was a buy, looking to sell",
				zap.String("available", assetBalance.Amount.String()),
				zap.String("asset", b.cfg.Asset))
			return b.checkMarketAndAct(ctx, domain.Sell, assetBalance.Amount, lastTrade.Price)
		}
	}

	return nil
}

// checkMarketAndAct fetches the ticker and applies the threshold rule for
// the chosen direction: sell when ask - lastPrice > HighDiff, buy when
// lastPrice - bid > LowDiff.
func (b *Bot) checkMarketAndAct(ctx context.Context, side domain.Side, available, lastPrice decimal.Decimal) error {
	tick, err := b.exchange.Ticker(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch ticker")
	}

	b.logger.Debug("current market",
		zap.String("bid", tick.Bid.String()),
		zap.String("ask", tick.Ask.String()),
		zap.String("last_trade_price", lastPrice.String()))

	var price decimal.Decimal
	var satisfied bool

	switch side {
	case domain.Buy:
		price = tick.Bid
		satisfied = lastPrice.Sub(tick.Bid).GreaterThan(b.cfg.LowDiff)
	case domain.Sell:
		price = tick.Ask
		satisfied = tick.Ask.Sub(lastPrice).GreaterThan(b.cfg.HighDiff)
	}

	if !satisfied {
		b.logger.Debug("market does not meet the threshold, waiting for the next cycle",
			zap.String("side", side.String()))
		return nil
	}

	return b.placeOrder(ctx, side, available, price)
}

// placeOrder submits a limit order for the full available balance and
// records it as pending. In simulate mode the decision is logged and no
// remote order is placed.
func (b *Bot) placeOrder(ctx context.Context, side domain.Side, amount, price decimal.Decimal) error {
	b.logger.Info("market meets the threshold",
		zap.String("side", side.String()),
		zap.String("amount", amount.String()),
		zap.String("price", price.String()))

	if b.cfg.Simulate {
		b.logger.Info("simulate mode, order not placed",
			zap.String("side", side.String()),
			zap.String("amount", amount.String()),
			zap.String("price", price.String()))
		return nil
	}

	txid, err := b.exchange.AddOrder(ctx, side, amount, price)
	if err != nil {
		return errors.Wrapf(err, "place %s order", side.String())
	}

	if err := b.ledger.InsertPending(txid); err != nil {
		// the order exists on the exchange regardless, so the ledger has
		// lost track of a live order. Nothing to roll back.
		b.logger.Error("order placed but not recorded, ledger may be out of sync with the exchange",
			zap.String("txid", txid), zap.Error(err))
		return nil
	}

	b.logger.Info("order recorded as pending", zap.String("txid", txid))

	return nil
}
