package agent

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holosim/internal/common"
)

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestRunGatesOnStartAndQuanta(t *testing.T) {
	a := New("alice", WithStart(10), WithQuanta(5))

	assert.False(t, a.Run(nil, 9), "before start, not eligible")
	assert.True(t, a.Run(nil, 10), "first run at/after start is always eligible")
	assert.False(t, a.Run(nil, 12), "quanta has not elapsed since last run")
	assert.True(t, a.Run(nil, 15), "exactly quanta elapsed is eligible")
}

func TestRunWithZeroQuantaAlwaysEligible(t *testing.T) {
	a := New("alice", WithStart(0))
	assert.True(t, a.Run(nil, 1))
	assert.True(t, a.Run(nil, 1.0001))
}

func TestNewGeneratesIdentityWhenEmpty(t *testing.T) {
	a := New("")
	assert.NotEmpty(t, a.Identity())
}

func TestRecordDeducesCurrencyAndUpdatesLedger(t *testing.T) {
	a := New("alice")
	require.Equal(t, "", a.Currency())

	a.Record(common.Trade{Security: "HOT", Price: common.LimitPrice(dec("2.00")), Currency: "USD", Amount: 10})
	assert.Equal(t, "USD", a.Currency())
	assert.Equal(t, int64(10), a.Assets("HOT"))
	assert.True(t, a.Balance().Equal(dec("-20.00")), "buying 10 @ 2.00 costs 20, deducted from balance")

	a.Record(common.Trade{Security: "HOT", Price: common.LimitPrice(dec("2.50")), Currency: "USD", Amount: -4})
	assert.Equal(t, int64(6), a.Assets("HOT"))
	assert.True(t, a.Balance().Equal(dec("-10.00")), "selling 4 @ 2.50 earns 10, added back")
}

func TestRecordIgnoresMarketOrderPriceForBalance(t *testing.T) {
	a := New("alice", WithCurrency("USD"))
	require.NoError(t, a.SetBalance(dec("100.00")))
	a.Record(common.Trade{Security: "HOT", Price: common.MarketPrice(), Currency: "USD", Amount: 10})
	assert.True(t, a.Balance().Equal(dec("100.00")), "a market order's execution price isn't known to Record, so balance is untouched")
	assert.Equal(t, int64(10), a.Assets("HOT"))
}

func TestSetBalanceRequiresKnownCurrency(t *testing.T) {
	a := New("alice")
	err := a.SetBalance(dec("10.00"))
	assert.ErrorIs(t, err, errNoCurrency)
}

func TestVolumeWindowsOnTrailingPeriod(t *testing.T) {
	a := New("alice")
	a.Record(common.Trade{Security: "HOT", Price: common.LimitPrice(dec("1.00")), Currency: "USD", Time: 1, Amount: 10})
	a.Record(common.Trade{Security: "HOT", Price: common.LimitPrice(dec("1.00")), Currency: "USD", Time: 5, Amount: -3})
	a.Record(common.Trade{Security: "HOT", Price: common.LimitPrice(dec("1.00")), Currency: "USD", Time: 9, Amount: 7})

	buy, sell := a.Volume("HOT", 5, 10)
	assert.Equal(t, int64(7), buy, "only the buy at t=9 falls within [now-period, now] = [5,10]; the t=1 buy is outside it")
	assert.Equal(t, int64(3), sell)

	buy, sell = a.Volume("HOT", 0, 10)
	assert.Equal(t, int64(17), buy, "a zero period means all trades")
	assert.Equal(t, int64(3), sell)
}
