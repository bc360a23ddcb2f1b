// Command autotrader runs an unattended trading loop against the Kraken
// exchange: it reconciles in-flight orders and buys or sells the configured
// pair when the market moves past a threshold relative to the last trade.
//
// Required environment variables:
//
//	EXCHANGE_API_KEY, EXCHANGE_API_SECRET, TRADE_ASSET, TRADE_CURRENCY
//
// Optional: LOW_DIFF, HIGH_DIFF, POLL_INTERVAL_MS, SIMULATE, WAL_DIR, LOG_FILE.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"autotrader/config"
	"autotrader/internal/exchange/kraken"
	"autotrader/internal/storage/orders"
	"autotrader/internal/trading"
	"autotrader/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	l, err := logger.New(cfg.LogFile)
	if err != nil {
		log.Fatal(err)
	}
	defer l.Sync()

	client, err := kraken.New(kraken.Config{
		Key:      cfg.APIKey,
		Secret:   cfg.APISecret,
		Asset:    cfg.Asset,
		Currency: cfg.Currency,
	}, l)
	if err != nil {
		l.Fatal("failed to create exchange client", zap.Error(err))
	}

	ledger, err := orders.NewWALStore(cfg.WALDir)
	if err != nil {
		l.Fatal("failed to open order ledger", zap.Error(err))
	}
	defer ledger.Close()

	bot, err := trading.NewBot(trading.Config{
		Asset:        cfg.Asset,
		Currency:     cfg.Currency,
		LowDiff:      cfg.LowDiff,
		HighDiff:     cfg.HighDiff,
		PollInterval: cfg.PollInterval,
		Simulate:     cfg.Simulate,
	}, client, ledger, l)
	if err != nil {
		l.Fatal("failed to create trading bot", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.Fatal("trading loop exited", zap.Error(err))
	}
}
