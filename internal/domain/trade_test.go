package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMostRecentTrade(t *testing.T) {
	assert.Nil(t, MostRecentTrade(nil))
	assert.Nil(t, MostRecentTrade([]Trade{}))

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	trades := []Trade{
		{Pair: "XLTCZEUR", Side: Buy, Price: decimal.NewFromInt(80), Time: base},
		{Pair: "XLTCZEUR", Side: Sell, Price: decimal.NewFromInt(90), Time: base.Add(2 * time.Hour)},
		{Pair: "XXBTZEUR", Side: Buy, Price: decimal.NewFromInt(40000), Time: base.Add(time.Hour)},
	}

	last := MostRecentTrade(trades)
	require.NotNil(t, last)
	assert.Equal(t, Sell, last.Side)
	assert.True(t, last.Price.Equal(decimal.NewFromInt(90)))
}

func TestFindBalance(t *testing.T) {
	balances := []Balance{
		{Name: "LTC", Amount: decimal.NewFromFloat(1.5)},
		{Name: "EUR", Amount: decimal.NewFromInt(200)},
	}

	b, ok := FindBalance(balances, "EUR")
	require.True(t, ok)
	assert.True(t, b.Amount.Equal(decimal.NewFromInt(200)))

	_, ok = FindBalance(balances, "USD")
	assert.False(t, ok)
}
