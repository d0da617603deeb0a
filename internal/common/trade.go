package common

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Recorder is anything that can originate and settle a trade: an agent
// identity plus a ledger callback. Both open orders and executed trades
// reference their originator through this interface rather than a bare
// pointer, so a market never needs to know the concrete agent type it is
// trading with.
type Recorder interface {
	Identity() string
	Record(trade Trade)
}

// SellRestricted is implemented by agents that accept or reject a would-be
// buyer. Unimplemented means "sells to anyone".
type SellRestricted interface {
	SellsTo(other Recorder) bool
}

// BuyRestricted is implemented by agents that accept or reject a would-be
// seller. Unimplemented means "buys from anyone".
type BuyRestricted interface {
	BuysFrom(other Recorder) bool
}

// SameAgent compares two Recorders by identity, not by pointer, since a
// Recorder is a stable reference to an agent rather than the agent's
// address.
func SameAgent(a, b Recorder) bool {
	return a != nil && b != nil && a.Identity() == b.Identity()
}

// Trade is both an open order sitting in a book and a settled execution
// record; the original model uses the identical shape for both. A positive
// Amount is a buy, negative is a sell.
type Trade struct {
	Security string
	Price    Price
	Currency string
	Time     float64
	Amount   int64
	Agent    Recorder
}

func (t Trade) String() string {
	side := "buy"
	amount := t.Amount
	if amount < 0 {
		side = "sell"
		amount = -amount
	}
	agent := "<nil>"
	if t.Agent != nil {
		agent = t.Agent.Identity()
	}
	return fmt.Sprintf("%-20s %-4s %9d %s @ %s$%s", agent, side, amount, t.Security, t.Currency, t.Price)
}

// Prices is the current market spread: best bid, best ask, and the last
// executed trade. Any of the three may be nil (no quotes yet).
type Prices struct {
	Bid  *Trade
	Ask  *Trade
	Last *Trade
}

// Best returns the highest of bid, ask and last price (ignoring nils and
// market-price entries), and whether any price was found at all. Used by
// Actor bidding logic, which treats "no quotes" as a zero offer.
func (p Prices) Best() (decimal.Decimal, bool) {
	var best decimal.Decimal
	found := false
	consider := func(t *Trade) {
		if t == nil || t.Price.IsMarket() {
			return
		}
		if !found || t.Price.Value.GreaterThan(best) {
			best = t.Price.Value
			found = true
		}
	}
	consider(p.Bid)
	consider(p.Ask)
	consider(p.Last)
	return best, found
}

// TradePair is one settled match: the buyer's half and the seller's half,
// always at the same price and (symmetric) amount. Lives in common, not
// market, so that Exchange.ExecuteAll below can return it without common
// needing to import market (which itself imports common).
type TradePair struct {
	Buy  Trade
	Sell Trade
}

// Exchange is the surface an Agent/Actor needs to participate in trading:
// quote a security, enter/close orders, list open orders, and drive one
// batch of matching. Implemented by *exchange.Exchange.
type Exchange interface {
	Price(security string) Prices
	Enter(order Trade, update bool) error
	Close(agent Recorder, security string) error
	Orders(agent Recorder, security string) []Trade
	Currency() string
	ExecuteAll(now float64, record bool) []TradePair
}

// Runner is anything the engine drives once per quantum: an Agent, an
// Actor, or a Reserve.
type Runner interface {
	Run(exchange Exchange, now float64) bool
}

// Clock abstracts wall-clock reads, so realtime worlds and anything else
// that needs "now" can be driven by a fake clock in tests instead of the
// real one.
type Clock interface {
	Now() float64
}
