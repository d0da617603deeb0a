package reserve

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

type fakeAgent struct {
	id     string
	trades []common.Trade
}

func newAgent(id string) *fakeAgent { return &fakeAgent{id: id} }

func (a *fakeAgent) Identity() string      { return a.id }
func (a *fakeAgent) Record(t common.Trade) { a.trades = append(a.trades, t) }

func TestNewPostsLadderAcrossAllTranches(t *testing.T) {
	r := New("HOT", "", map[string]int64{"4.00": 100, "4.10": 50}, 0)
	assert.Equal(t, "HOT Reserve", r.Identity(), "identity defaults to '<security> Reserve'")

	orders := r.Market.Orders(r)
	require.Len(t, orders, 2)
	byPrice := map[string]int64{}
	for _, o := range orders {
		byPrice[o.Price.String()] = o.Amount
	}
	assert.Equal(t, int64(100), byPrice["4.0000"])
	assert.Equal(t, int64(50), byPrice["4.1000"])
}

func TestFullyFilledTrancheIsRetiredFromTheLadder(t *testing.T) {
	r := New("HOT", "", map[string]int64{"4.00": 100}, 0)
	seller := newAgent("seller")
	require.NoError(t, r.Market.Sell(seller, 100, common.LimitPrice(dec("4.00")), 1, false))

	trades := r.ExecuteAll(2, true)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(100), trades[0].Buy.Amount)

	remaining := r.Market.Orders(r)
	assert.Empty(t, remaining, "the 4.00 tranche was bought out entirely and is not re-posted")
}

func TestPartiallyFilledTrancheIsRepostedAtRemainingAmount(t *testing.T) {
	r := New("HOT", "", map[string]int64{"4.00": 100}, 0)
	seller := newAgent("seller")
	require.NoError(t, r.Market.Sell(seller, 40, common.LimitPrice(dec("4.00")), 1, false))

	trades := r.ExecuteAll(2, true)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(40), trades[0].Buy.Amount)

	remaining := r.Market.Orders(r)
	require.Len(t, remaining, 1)
	assert.Equal(t, int64(60), remaining[0].Amount, "the tranche reposts for its remaining 60 units")
}

func TestHostOnlyReserveRejectsIncompatibleSeller(t *testing.T) {
	r := New("HOT", "", map[string]int64{"4.00": 100}, 0)
	r.BuysFromFunc = func(other common.Recorder) bool { return other.Identity() == "host" }

	stranger := newAgent("stranger")
	host := newAgent("host")
	require.NoError(t, r.Market.Sell(stranger, 50, common.LimitPrice(dec("4.00")), 1, false))
	require.NoError(t, r.Market.Sell(host, 50, common.LimitPrice(dec("4.00")), 2, false))

	trades := r.ExecuteAll(3, true)
	require.Len(t, trades, 1, "only the host's sell is compatible with a host-only reserve buy")
	assert.Equal(t, "host", trades[0].Sell.Agent.Identity())
}

// TestHostOnlyReserveMatchesBestAvailableTranche covers both compatibility
// filtering and price priority together across a multi-tranche ladder: a
// non-host's sell must never match any tranche, while the host's sell is
// matched at the reserve's best (highest) bid, not merely at whichever
// tranche happens to be cheapest or first in the book.
func TestHostOnlyReserveMatchesBestAvailableTranche(t *testing.T) {
	// The ladder posts at t=5, strictly after both sells below: the earlier
	// side of a match is paid at the other side's price (see resolvePrice in
	// internal/market/matching.go), so settling at the tranche's own bid
	// (rather than the seller's ask) requires the buy side to be the later
	// entrant here.
	r := New("HOT", "", map[string]int64{"0.138": 100, "0.140": 100, "0.139": 100}, 5)
	r.BuysFromFunc = func(other common.Recorder) bool { return other.Identity() == "host" }

	stranger := newAgent("stranger")
	host := newAgent("host")
	require.NoError(t, r.Market.Sell(stranger, 100, common.LimitPrice(dec("0.138")), 1, false))
	require.NoError(t, r.Market.Sell(host, 100, common.LimitPrice(dec("0.138")), 2, false))

	trades := r.ExecuteAll(6, true)
	require.Len(t, trades, 1, "the stranger's sell is incompatible with every tranche regardless of price; only the host's sell settles")
	assert.Equal(t, "host", trades[0].Sell.Agent.Identity())
	assert.True(t, trades[0].Buy.Price.Value.Equal(dec("0.140")), "price priority picks the reserve's best (highest) bid among the three tranches, not just the only compatible one")

	remaining := r.Market.Orders(r)
	require.Len(t, remaining, 2, "the 0.138 and 0.139 tranches are untouched, still resting as the reserve's own buy orders")
}

// TestReserveSaleAtUnconfiguredPriceCreatesNewTranche exercises the
// !ok -> cur = key fallback in Reserve.Record: a trade settling at a price
// not already present in the ladder must seed a fresh tranche there rather
// than being dropped, mirroring the Python original's
// reserves.setdefault(order.price, 0). Driven through IssuingReserve, whose
// sell side is the natural way a reserve (which otherwise only posts buys)
// ends up trading at a brand new price: issuing Holo fuel this way commits
// the reserve to buy it back later at the price it was issued at.
func TestReserveSaleAtUnconfiguredPriceCreatesNewTranche(t *testing.T) {
	ir := NewIssuing("HOT", "", nil, 1000, 0,
		WithSupplyBookValue(dec("2.00")),
		WithSupplyPremium(dec("1.10")),
	)

	buyer := newAgent("buyer")
	require.NoError(t, ir.Market.Buy(buyer, 1000, common.LimitPrice(dec("2.20")), 1, false))

	trades := ir.ExecuteAll(2, true)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Sell.Price.Value.Equal(dec("2.20")))

	orders := ir.Market.Orders(ir)
	require.Len(t, orders, 1, "the sale at 2.20, a price absent from the ladder at construction, seeds a new buy-back tranche")
	assert.True(t, orders[0].Price.Value.Equal(dec("2.20")))
	assert.Equal(t, int64(1000), orders[0].Amount, "the new tranche is reposted as a buy order sized at the full amount just sold")
}

func TestIssuingReserveSellsShortfallAgainstSupplyAvailable(t *testing.T) {
	ir := NewIssuing("HOT", "", nil, 1000, 0,
		WithSupplyBookValue(dec("2.00")),
		WithSupplyPremium(dec("1.10")),
		WithSupplyPeriod(common.Hour),
	)

	orders := ir.Market.Orders(ir)
	require.Len(t, orders, 1, "with zero net issuance so far, the reserve offers the full supply_available")
	assert.Equal(t, int64(-1000), orders[0].Amount)
	assert.True(t, orders[0].Price.Value.Equal(dec("2.20")), "issue price is book value times premium")
}

func TestIssuingReserveStopsSellingOnceShortfallIsMet(t *testing.T) {
	ir := NewIssuing("HOT", "", nil, 100, 0)

	// Simulate 100 units already sold this period directly on the ledger,
	// the way Record would after a real match.
	ir.Agent.Record(common.Trade{Security: "HOT", Price: common.LimitPrice(dec("1.00")), Currency: "USD", Time: 1, Amount: -100, Agent: ir})

	ok := ir.Run(nil, 10)
	require.True(t, ok)
	orders := ir.Market.Orders(ir)
	assert.Empty(t, orders, "net issuance already meets supply_available, so nothing more is offered")
}
