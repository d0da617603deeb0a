// Package agent implements the base trading participant (identity, ledger,
// run-gating) and the need-driven Actor built on top of it.
package agent

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"holosim/internal/common"
)

// Agent is a basic trading participant: it records its trades and keeps
// track of net assets/balances, deducing its preferred currency from its
// first trade if not given one up front. Default quanta is zero (always
// eligible to run); default start is a random fraction of quanta, so a
// cohort of agents sharing a target quanta don't all wake on the same tick.
type Agent struct {
	identity string
	currency string // "" until deduced from first trade

	trades   []common.Trade
	assets   map[string]int64
	balances map[string]decimal.Decimal

	start, quanta float64
	startSet      bool
	now           float64
	hasRun        bool
	dt            float64

	logger zerolog.Logger
}

// Option configures a new Agent.
type Option func(*Agent)

// WithAssets seeds the agent's starting holdings.
func WithAssets(assets map[string]int64) Option {
	return func(a *Agent) {
		for k, v := range assets {
			a.assets[k] = v
		}
	}
}

// WithCurrency sets the agent's preferred currency up front, instead of
// deducing it from the first recorded trade.
func WithCurrency(currency string) Option {
	return func(a *Agent) { a.currency = currency }
}

// WithQuanta sets the minimum interval between runs (0 means "always
// eligible").
func WithQuanta(quanta float64) Option {
	return func(a *Agent) { a.quanta = quanta }
}

// WithStart sets the earliest time this agent becomes eligible to run. If
// unset, it defaults to a random fraction of quanta.
func WithStart(start float64) Option {
	return func(a *Agent) { a.start = start; a.startSet = true }
}

// New constructs an Agent. If identity is "", a uuid is generated.
func New(identity string, opts ...Option) *Agent {
	if identity == "" {
		identity = uuid.New().String()
	}
	a := &Agent{
		identity: identity,
		assets:   make(map[string]int64),
		balances: make(map[string]decimal.Decimal),
		logger:   log.With().Str("agent", identity).Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if !a.startSet {
		a.start = a.quanta * rand.Float64()
	}
	return a
}

func (a *Agent) Identity() string { return a.identity }

// SellsTo/BuysFrom are not implemented by the base Agent: per spec, an
// agent with no compatibility predicate trades with anyone. Reserve
// overrides these with optional hooks; a plain Agent/Actor never does.

// Balance reads the agent's balance in its preferred currency (0 until a
// currency has been deduced or set).
func (a *Agent) Balance() decimal.Decimal {
	if a.currency == "" {
		return decimal.Zero
	}
	return a.balances[a.currency]
}

// SetBalance overwrites the agent's balance in its preferred currency; the
// currency must already be known (deduced from a trade, or set via
// WithCurrency).
func (a *Agent) SetBalance(value decimal.Decimal) error {
	if a.currency == "" {
		return errNoCurrency
	}
	if !a.Balance().IsZero() {
		a.logger.Warn().
			Str("currency", a.currency).
			Str("from", a.Balance().String()).
			Str("to", value.String()).
			Msg("balance adjusted")
	}
	a.balances[a.currency] = value
	return nil
}

func (a *Agent) Currency() string { return a.currency }

func (a *Agent) Assets(security string) int64 { return a.assets[security] }

// Run reports whether the agent is eligible to act at now: now must be at
// or after start, and either this is the agent's first run or at least
// quanta has elapsed since the last one. On success, updates the agent's
// dt/now bookkeeping and returns true.
func (a *Agent) Run(_ common.Exchange, now float64) bool {
	if now < a.start {
		return false
	}
	if a.hasRun && now-a.now < a.quanta {
		return false
	}
	if a.hasRun {
		a.dt = now - a.now
	} else {
		a.dt = now - a.start
	}
	a.now = now
	a.hasRun = true
	return true
}

// Record settles a trade against this agent's ledger: deduces currency on
// first trade, logs the fill, and updates assets/balances.
func (a *Agent) Record(order common.Trade) {
	a.trades = append(a.trades, order)
	if a.currency == "" {
		a.currency = order.Currency
	}
	side := "buys"
	amount := order.Amount
	if amount < 0 {
		side = "sells"
		amount = -amount
	}
	a.logger.Info().
		Str("side", side).
		Int64("amount", amount).
		Str("security", order.Security).
		Str("price", order.Price.String()).
		Msg("trade recorded")

	a.assets[order.Security] += order.Amount
	if !order.Price.IsMarket() {
		cost := order.Price.Value.Mul(decimal.NewFromInt(-order.Amount))
		a.balances[order.Currency] = a.balances[order.Currency].Add(cost)
	}
}

// Volume sums the buy/sell amounts traded in security over the trailing
// period ending at now (or the agent's own clock, if now is 0 and the
// agent has run). A zero period means "all trades". An empty security
// means "every security".
func (a *Agent) Volume(security string, period, now float64) (buy, sell int64) {
	if now == 0 {
		now = a.now
	}
	for i := len(a.trades) - 1; i >= 0; i-- {
		order := a.trades[i]
		if period > 0 && order.Time < now-period {
			break
		}
		if security != "" && order.Security != security {
			continue
		}
		if order.Amount < 0 {
			sell -= order.Amount
		} else {
			buy += order.Amount
		}
	}
	return buy, sell
}
