// Package reserve implements the reserve market/agent hybrid: a market that
// is also its own best-effort liquidity provider, posting a buy-back ladder
// (so other agents can retire the security for currency) from a set of
// price/quantity tranches, and rebuilding that ladder after every batch of
// matching.
package reserve

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"holosim/internal/agent"
	"holosim/internal/common"
	"holosim/internal/market"
)

// tranche is one price band of the buy-back ladder: amount units retired at
// price, until exhausted.
type tranche struct {
	price  decimal.Decimal
	amount int64
}

func trancheLess(a, b tranche) bool { return a.price.LessThan(b.price) }

// Reserve is both a market.Tradable and a common.Runner: it re-posts a buy
// order at each tranche's original price every tick, and retires tranches
// as they're bought out. Modeled with composition (an embedded *market.Market
// for the trading surface, an embedded *agent.Agent for the ledger/identity)
// rather than inheritance, per spec's design notes.
type Reserve struct {
	*market.Market
	*agent.Agent

	reserves *btree.BTreeG[tranche]

	// SellsToFunc/BuysFromFunc, if set, restrict counterparties (e.g. a
	// host-only reserve that only buys back from its own host agents).
	// Left nil, the reserve trades with anyone, like a plain Agent.
	SellsToFunc  func(other common.Recorder) bool
	BuysFromFunc func(other common.Recorder) bool

	// runSelf is called by ExecuteAll after the embedded market drains;
	// it points at the most-derived Run method (IssuingReserve rewires
	// this in its own constructor), working around Go embedding's lack of
	// virtual dispatch: code inside Reserve can't call back into an
	// embedder's override by just calling r.Run().
	runSelf func(now float64) bool

	logger zerolog.Logger
}

// New constructs a Reserve for the given security, with initial tranches
// (price -> quantity) to buy back. identity defaults to "<security>
// Reserve".
func New(name string, identity string, tranches map[string]int64, now float64) *Reserve {
	if identity == "" {
		identity = name + " Reserve"
	}
	r := &Reserve{
		Market:   market.New(name, ""),
		Agent:    agent.New(identity),
		reserves: btree.NewBTreeG(trancheLess),
		logger:   log.With().Str("reserve", identity).Logger(),
	}
	for priceStr, amount := range tranches {
		p, err := decimal.NewFromString(priceStr)
		if err != nil {
			continue
		}
		r.reserves.Set(tranche{price: p, amount: amount})
	}
	r.runSelf = func(now float64) bool { return r.Run(nil, now) }
	r.Run(nil, now)
	return r
}

// Currency reports the market's settlement currency. Both embedded types
// define Currency, so without this the selector would be ambiguous and
// Reserve would not satisfy market.Tradable.
func (r *Reserve) Currency() string { return r.Market.Currency() }

// SellsTo overrides the embedded Agent's default (sells to anyone) when
// SellsToFunc is set.
func (r *Reserve) SellsTo(other common.Recorder) bool {
	if r.SellsToFunc == nil {
		return true
	}
	return r.SellsToFunc(other)
}

// BuysFrom overrides the embedded Agent's default (buys from anyone) when
// BuysFromFunc is set.
func (r *Reserve) BuysFrom(other common.Recorder) bool {
	if r.BuysFromFunc == nil {
		return true
	}
	return r.BuysFromFunc(other)
}

// Run closes all of the reserve's outstanding orders, then re-posts a buy
// at each remaining tranche's price, subject to the base Agent's own
// start/quanta gate. The exchange argument is ignored: a reserve is both
// the market and the agent, so it never needs an external exchange to
// trade on.
func (r *Reserve) Run(_ common.Exchange, now float64) bool {
	if !r.Agent.Run(nil, now) {
		return false
	}
	r.Market.Close(r, "")
	r.reserves.Scan(func(t tranche) bool {
		r.Market.Buy(r, t.amount, common.LimitPrice(t.price), now, false)
		return true
	})
	return true
}

// Record settles a trade against the reserve's own ledger, then debits (or
// credits) the ladder tranche at that price, retiring it once exhausted.
func (r *Reserve) Record(t common.Trade) {
	r.Agent.Record(t)
	if t.Price.IsMarket() {
		return
	}
	key := tranche{price: t.Price.Value}
	cur, ok := r.reserves.Get(key)
	if !ok {
		cur = key
	}
	cur.amount -= t.Amount
	if cur.amount == 0 {
		r.reserves.Delete(key)
		r.logger.Info().Str("price", t.Price.String()).Msg("reserve tranche emptied")
		return
	}
	r.reserves.Set(cur)
}

// ExecuteAll drains the embedded market's matching, then rebuilds the
// ladder from the (now-updated, via Record) tranche set — "after executing
// all trades available, rebuild the Reserve order book from the reserves".
func (r *Reserve) ExecuteAll(now float64, record bool) []market.TradePair {
	trades := r.Market.ExecuteAll(now, record)
	r.runSelf(now)
	return trades
}

var _ market.Tradable = (*Reserve)(nil)
var _ common.Runner = (*Reserve)(nil)
var _ common.Recorder = (*Reserve)(nil)
