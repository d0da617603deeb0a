// Package market implements a single-security continuous double auction:
// a buy book and a sell book, matched by price-time priority, with support
// for market-price orders, counterparty-compatibility filtering, and
// self-trade rejection at entry. Ported from the matching-engine shape of
// the teacher's internal/engine/orderbook.go (one ordered book per
// security, PlaceOrder/Match), generalized to the spec's semantics.
package market

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"holosim/internal/common"
)

// Market implements a continuous double auction for one named security,
// in a single currency. Market/limit orders from any number of agents are
// matched by price-time priority.
type Market struct {
	name     string
	currency string

	buying  []common.Trade
	selling []common.Trade
	last    *common.Trade

	transactions uint64
	logger       zerolog.Logger
}

// New constructs a Market for the given security. name may use the
// "Security/Currency" convention; currency, if non-empty, overrides the
// suffix (and is used verbatim if name has no "/").
func New(name string, currency string) *Market {
	sec, cur := name, currency
	if idx := strings.IndexByte(name, '/'); idx >= 0 {
		sec = name[:idx]
		if cur == "" {
			cur = name[idx+1:]
		}
	}
	if cur == "" {
		cur = "USD"
	}
	return &Market{
		name:     sec,
		currency: cur,
		logger:   log.With().Str("market", sec+"/"+cur).Logger(),
	}
}

func (m *Market) Name() string     { return m.name }
func (m *Market) Currency() string { return m.currency }

func (m *Market) String() string {
	return m.name + "/" + m.currency
}

// Orders yields all currently open orders by agent (or all open orders, if
// agent is nil). Buys have positive Amount, sells negative.
func (m *Market) Orders(agent common.Recorder) []common.Trade {
	out := make([]common.Trade, 0, len(m.buying)+len(m.selling))
	for _, o := range m.buying {
		if agent == nil || common.SameAgent(o.Agent, agent) {
			out = append(out, o)
		}
	}
	for _, o := range m.selling {
		if agent == nil || common.SameAgent(o.Agent, agent) {
			out = append(out, o)
		}
	}
	return out
}

// Close removes all open orders placed by agent. security, if non-empty,
// must match this market's security name.
func (m *Market) Close(agent common.Recorder, security string) error {
	if security != "" && security != m.name {
		return fmt.Errorf("%w: %q != %q", ErrWrongSecurity, security, m.name)
	}
	m.buying = filterOut(m.buying, agent)
	m.selling = filterOut(m.selling, agent)
	return nil
}

func filterOut(orders []common.Trade, agent common.Recorder) []common.Trade {
	out := orders[:0:0]
	for _, o := range orders {
		if !common.SameAgent(o.Agent, agent) {
			out = append(out, o)
		}
	}
	return out
}

// Buy enters a buy order for amount units at price (use common.MarketPrice()
// for a market order). update, if true, first closes all of the agent's
// existing open orders in this security.
func (m *Market) Buy(agent common.Recorder, amount int64, price common.Price, now float64, update bool) error {
	return m.Enter(common.Trade{Security: m.name, Price: price, Currency: m.currency, Time: now, Amount: amount, Agent: agent}, update)
}

// Sell enters a sell order for amount units (Amount is stored negative).
func (m *Market) Sell(agent common.Recorder, amount int64, price common.Price, now float64, update bool) error {
	return m.Enter(common.Trade{Security: m.name, Price: price, Currency: m.currency, Time: now, Amount: -amount, Agent: agent}, update)
}

// Enter places an order directly. A non-negative Amount is a buy, negative
// is a sell. If update is true, all of the agent's existing orders are
// closed first; otherwise Enter rejects an order that would immediately
// match one of the agent's own resting orders (ErrSelfTrade).
func (m *Market) Enter(order common.Trade, update bool) error {
	if update {
		if err := m.Close(order.Agent, order.Security); err != nil {
			return err
		}
	}
	if order.Amount >= 0 {
		if !update {
			if s, ok := m.buyMatches(order); ok {
				return fmt.Errorf("%w: buy %s would match resting sell %s", ErrSelfTrade, order, s)
			}
		}
		m.buying = append(m.buying, order)
		sortBuying(m.buying)
	} else {
		if !update {
			if b, ok := m.sellMatches(order); ok {
				return fmt.Errorf("%w: sell %s would match resting buy %s", ErrSelfTrade, order, b)
			}
		}
		m.selling = append(m.selling, order)
		sortSelling(m.selling)
	}
	return nil
}

// buyMatches reports whether a prospective buy order would match one of the
// same agent's own resting sell orders. Per spec the agents_compatible
// check here is redundant (default compatibility is always true), so only
// identity is checked; SellsTo/BuysFrom are not consulted at entry.
func (m *Market) buyMatches(order common.Trade) (common.Trade, bool) {
	for _, s := range m.selling {
		if common.SameAgent(s.Agent, order.Agent) && priceCompatible(s.Price, order.Price) {
			return s, true
		}
	}
	return common.Trade{}, false
}

// sellMatches is buyMatches's mirror for a prospective sell order.
func (m *Market) sellMatches(order common.Trade) (common.Trade, bool) {
	for _, b := range m.buying {
		if common.SameAgent(b.Agent, order.Agent) && priceCompatible(order.Price, b.Price) {
			return b, true
		}
	}
	return common.Trade{}, false
}

// priceCompatible reports whether a sell at sellPrice could satisfy a buy
// at buyPrice (either side being a market order always satisfies).
func priceCompatible(sellPrice, buyPrice common.Price) bool {
	if sellPrice.IsMarket() || buyPrice.IsMarket() {
		return true
	}
	return sellPrice.Value.LessThanOrEqual(buyPrice.Value)
}

// Price returns the current best bid, best ask, and last trade. Market-price
// (unpriced) orders are ignored when finding bid/ask.
func (m *Market) Price() common.Prices {
	var p common.Prices
	for i := len(m.buying) - 1; i >= 0; i-- {
		if !m.buying[i].Price.IsMarket() {
			o := m.buying[i]
			p.Bid = &o
			break
		}
	}
	for i := range m.selling {
		if !m.selling[i].Price.IsMarket() {
			o := m.selling[i]
			p.Ask = &o
			break
		}
	}
	p.Last = m.last
	return p
}

// FormatBook renders the open order book as a depth chart, one line per
// order, each row's bar width proportional to its amount.
func (m *Market) FormatBook(width int) string {
	open := m.Orders(nil)
	var biggest int64
	for _, o := range open {
		a := o.Amount
		if a < 0 {
			a = -a
		}
		if a > biggest {
			biggest = a
		}
	}
	lines := make([]string, 0, len(open))
	for _, o := range open {
		a := o.Amount
		if a < 0 {
			a = -a
		}
		bars := 0
		if biggest > 0 {
			bars = int(int64(width) * a / biggest)
		}
		lines = append(lines, fmt.Sprintf("%s %s", o, strings.Repeat("*", bars)))
	}
	return strings.Join(lines, "\n")
}
