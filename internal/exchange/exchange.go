// Package exchange routes trade orders for many securities, each backed by
// its own market.Tradable, all settled in one currency. Markets are created
// lazily on first use, the way the teacher's internal/engine.Engine keyed a
// map of order books by asset type.
package exchange

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"holosim/internal/common"
	"holosim/internal/market"
)

// ErrWrongCurrency is returned when an order's currency does not match the
// exchange's configured currency and no market for its security exists yet.
var ErrWrongCurrency = fmt.Errorf("exchange: order currency does not match exchange currency")

// NewMarket constructs the Tradable used for a newly-referenced security.
type NewMarket func(name, currency string) market.Tradable

// Exchange is a router over one market.Tradable per security, all trading
// in the same currency.
type Exchange struct {
	name     string
	currency string

	newMarket NewMarket
	markets   map[string]market.Tradable
	order     []string // insertion order, for deterministic ExecuteAll/iteration

	logger zerolog.Logger
}

// New constructs an Exchange. If newMarket is nil, markets are created with
// market.New.
func New(name, currency string, newMarket NewMarket) *Exchange {
	if currency == "" {
		currency = "USD"
	}
	if newMarket == nil {
		newMarket = func(n, c string) market.Tradable { return market.New(n, c) }
	}
	return &Exchange{
		name:      name,
		currency:  currency,
		newMarket: newMarket,
		markets:   make(map[string]market.Tradable),
		logger:    log.With().Str("exchange", name).Logger(),
	}
}

func (e *Exchange) Currency() string { return e.currency }

func (e *Exchange) marketFor(security, currency string) (market.Tradable, error) {
	if m, ok := e.markets[security]; ok {
		return m, nil
	}
	if currency != "" && currency != e.currency {
		return nil, fmt.Errorf("%w: %s != %s", ErrWrongCurrency, currency, e.currency)
	}
	m := e.newMarket(security, e.currency)
	e.markets[security] = m
	e.order = append(e.order, security)
	return m, nil
}

// Register installs a pre-constructed Tradable for a security (used by
// callers that need to wire in a reserve.Reserve, which must be both
// constructed with knowledge of its own identity and installed into the
// exchange's routing table).
func (e *Exchange) Register(security string, m market.Tradable) {
	if _, exists := e.markets[security]; !exists {
		e.order = append(e.order, security)
	}
	e.markets[security] = m
}

// Enter routes order to its security's market, creating one if necessary.
func (e *Exchange) Enter(order common.Trade, update bool) error {
	m, err := e.marketFor(order.Security, order.Currency)
	if err != nil {
		return err
	}
	return m.Enter(order, update)
}

// Buy enters a buy order for security, creating its market if necessary.
func (e *Exchange) Buy(security string, agent common.Recorder, amount int64, price common.Price, now float64, update bool) error {
	m, err := e.marketFor(security, "")
	if err != nil {
		return err
	}
	return m.Buy(agent, amount, price, now, update)
}

// Sell enters a sell order for security, creating its market if necessary.
func (e *Exchange) Sell(security string, agent common.Recorder, amount int64, price common.Price, now float64, update bool) error {
	m, err := e.marketFor(security, "")
	if err != nil {
		return err
	}
	return m.Sell(agent, amount, price, now, update)
}

// Close closes agent's open orders, in all markets (or only in security's
// market, if security is non-empty).
func (e *Exchange) Close(agent common.Recorder, security string) error {
	for sec, m := range e.markets {
		if security != "" && sec != security {
			continue
		}
		if err := m.Close(agent, ""); err != nil {
			return err
		}
	}
	return nil
}

// Orders returns agent's open orders across all markets (or just security's
// market, if non-empty).
func (e *Exchange) Orders(agent common.Recorder, security string) []common.Trade {
	var out []common.Trade
	for sec, m := range e.markets {
		if security != "" && sec != security {
			continue
		}
		out = append(out, m.Orders(agent)...)
	}
	return out
}

// Price returns security's current spread, or the zero Prices if no market
// exists for it yet.
func (e *Exchange) Price(security string) common.Prices {
	if m, ok := e.markets[security]; ok {
		return m.Price()
	}
	return common.Prices{}
}

// ExecuteAll drives every market's matching to exhaustion, in the order
// each security was first referenced, and returns all settled pairs.
func (e *Exchange) ExecuteAll(now float64, record bool) []common.TradePair {
	var trades []common.TradePair
	for _, sec := range e.order {
		trades = append(trades, e.markets[sec].ExecuteAll(now, record)...)
	}
	return trades
}

var _ common.Exchange = (*Exchange)(nil)

// FormatBook renders every market's order book, securities in natural-sort
// order (stable and human-friendly, independent of insertion/map order).
func (e *Exchange) FormatBook(width int) string {
	secs := make([]string, 0, len(e.markets))
	for sec := range e.markets {
		secs = append(secs, sec)
	}
	sort.Slice(secs, func(i, j int) bool { return common.LessNatural(secs[i], secs[j]) })

	var b strings.Builder
	for i, sec := range secs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "-- %s --\n%s", sec, e.markets[sec].FormatBook(width))
	}
	return b.String()
}
