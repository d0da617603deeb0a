package agent

import (
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"holosim/internal/common"
)

// Need describes one recurring requirement: by cycle's end, the actor wants
// amount more of security than its running target. Needs are scheduled by
// priority first, then deadline. A nil Deadline has its first deadline
// computed on the actor's next run.
type Need struct {
	Priority int
	Deadline *float64
	Security string
	Cycle    float64
	Amount   int64
}

// Actor is a need-driven trading participant: each run it schedules its
// needs (buying what it's short of, bidding more urgently as a deadline
// nears), covers any resulting balance shortfall by raising capital from
// excess holdings, then runs an optional portfolio-fixing hook.
type Actor struct {
	*Agent

	target map[string]int64
	needs  []Need

	minimum decimal.Decimal

	// FixPortfolio, if set, runs last each cycle; the base actor does
	// nothing here (spec's actor.fix_portfolio is a no-op hook point for
	// subclasses such as the out-of-scope inflation-pump actor).
	FixPortfolio func(a *Actor, exchange common.Exchange)

	logger zerolog.Logger
}

// ActorOption configures a new Actor.
type ActorOption func(*Actor)

// WithTarget seeds the actor's target holding levels.
func WithTarget(target map[string]int64) ActorOption {
	return func(a *Actor) {
		for k, v := range target {
			a.target[k] = v
		}
	}
}

// WithNeeds seeds the actor's recurring needs.
func WithNeeds(needs []Need) ActorOption {
	return func(a *Actor) { a.needs = append(a.needs, needs...) }
}

// WithMinimumBalance sets the minimum balance the actor will let itself
// fall to before raising capital (may be negative, to permit going into
// debt by that much).
func WithMinimumBalance(minimum decimal.Decimal) ActorOption {
	return func(a *Actor) { a.minimum = minimum }
}

// NewActor constructs an Actor. Its quanta is one day; NewActor takes only
// ActorOptions, so the base Agent's options (agent.WithQuanta and the rest)
// cannot be passed through it.
func NewActor(identity string, opts ...ActorOption) *Actor {
	base := New(identity, WithQuanta(common.Day))
	a := &Actor{
		Agent:  base,
		target: make(map[string]int64),
		logger: log.With().Str("actor", base.Identity()).Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run gates on the base Agent's start/quanta schedule, then acquires
// pending needs, covers any resulting balance shortfall, and finally runs
// FixPortfolio if set.
func (a *Actor) Run(exchange common.Exchange, now float64) bool {
	if !a.Agent.Run(exchange, now) {
		return false
	}
	a.acquireNeeds(exchange)
	a.coverBalance(exchange)
	if a.FixPortfolio != nil {
		a.FixPortfolio(a, exchange)
	}
	return true
}

func (a *Actor) clockNow() float64 { return a.now }

// acquireNeeds walks needs in priority/deadline order, expiring any whose
// deadline has arrived (rolling their amount into target and rescheduling
// them), then bids for whatever is short of target at a price that scales
// from 10% under to 5% over the current market price as the deadline nears.
func (a *Actor) acquireNeeds(exchange common.Exchange) {
	sorted := append([]Need(nil), a.needs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		di, dj := sorted[i].Deadline, sorted[j].Deadline
		switch {
		case di == nil && dj == nil:
			return false
		case di == nil:
			return true
		case dj == nil:
			return false
		default:
			return *di < *dj
		}
	})

	now := a.clockNow()
	needs := make([]Need, 0, len(sorted))
	for _, n := range sorted {
		if n.Deadline != nil && now < *n.Deadline {
			needs = append(needs, n)
		} else {
			deadlineBase := now
			if n.Deadline != nil {
				a.target[n.Security] += n.Amount
				deadlineBase = *n.Deadline
				a.logger.Info().Str("security", n.Security).Int64("target", a.target[n.Security]).Msg("need expired, target increased")
			}
			next := deadlineBase + n.Cycle
			n = Need{Priority: n.Priority, Deadline: &next, Security: n.Security, Cycle: n.Cycle, Amount: n.Amount}
			needs = append(needs, n)
		}
		n := needs[len(needs)-1]

		wants := a.target[n.Security]
		holds := a.Assets(n.Security)
		short := n.Amount + wants - holds
		if short <= 0 {
			exchange.Close(a, n.Security)
			continue
		}
		proportion := 1 - (*n.Deadline-now)/n.Cycle
		factor := common.Scale(proportion, 0, 1, 0.90, 1.05)
		price := bestPrice(exchange.Price(n.Security))
		offer := price.Mul(decimal.NewFromFloat(factor))
		a.logger.Info().
			Str("security", n.Security).Int64("short", short).
			Str("offer", offer.String()).Float64("factor", factor).
			Msg("bidding for need")
		exchange.Enter(common.Trade{
			Security: n.Security,
			Price:    common.LimitPrice(offer),
			Currency: exchange.Currency(),
			Time:     now,
			Amount:   short,
			Agent:    a,
		}, true)
	}
	a.needs = needs
}

// bestPrice is the greatest of bid/ask/last (ignoring nils and market
// orders), or zero if no market exists yet.
func bestPrice(p common.Prices) decimal.Decimal {
	v, ok := p.Best()
	if !ok {
		return decimal.Zero
	}
	return v
}

// coverBalance totals the value of all open orders; if balance minus that
// committed value would fall below minimum, raises the shortfall by
// selling excess holdings (excluding securities currently being bought).
func (a *Actor) coverBalance(exchange common.Exchange) {
	var value decimal.Decimal
	var buying []string
	for _, order := range exchange.Orders(a, "") {
		if order.Price.IsMarket() {
			continue
		}
		value = value.Add(order.Price.Value.Mul(decimal.NewFromInt(order.Amount)))
		if order.Amount > 0 {
			buying = append(buying, order.Security)
		}
	}
	if a.Balance().Sub(value).LessThan(a.minimum) {
		a.raiseCapital(value.Sub(a.Balance()), exchange, buying)
	}
}

// checkHoldings returns the dollar value of holdings beyond target levels,
// for securities with a current market (excluding any in exclude).
func (a *Actor) checkHoldings(exchange common.Exchange, exclude []string) map[string]decimal.Decimal {
	excluded := make(map[string]bool, len(exclude))
	for _, s := range exclude {
		excluded[s] = true
	}
	excess := make(map[string]decimal.Decimal)
	for sec, bal := range a.assetsSnapshot() {
		if excluded[sec] {
			continue
		}
		price := bestPrice(exchange.Price(sec))
		if price.IsZero() {
			continue
		}
		overage := bal - a.target[sec]
		excess[sec] = price.Mul(decimal.NewFromInt(overage))
	}
	return excess
}

func (a *Actor) assetsSnapshot() map[string]int64 {
	out := make(map[string]int64, len(a.assets))
	for k, v := range a.assets {
		out[k] = v
	}
	return out
}

// raiseCapital sells off the securities with the greatest excess value,
// at market price, until value has been raised (or excess runs out).
func (a *Actor) raiseCapital(value decimal.Decimal, exchange common.Exchange, exclude []string) {
	a.logger.Warn().Str("value", value.String()).Str("balance", a.Balance().String()).Msg("raising capital")

	excess := a.checkHoldings(exchange, exclude)
	secs := make([]string, 0, len(excess))
	for sec := range excess {
		secs = append(secs, sec)
	}
	sort.Slice(secs, func(i, j int) bool { return excess[secs[i]].GreaterThan(excess[secs[j]]) })

	now := a.clockNow()
	for _, sec := range secs {
		overage := a.Assets(sec) - a.target[sec]
		if overage <= 0 || excess[sec].IsZero() {
			continue
		}
		amount := value.Div(excess[sec]).Floor().Add(decimal.NewFromInt(1)).IntPart()
		if amount > overage {
			amount = overage
		}
		if amount <= 0 {
			continue
		}
		estimate := decimal.NewFromInt(amount).Mul(excess[sec]).Div(decimal.NewFromInt(overage))
		exchange.Enter(common.Trade{
			Security: sec,
			Price:    common.MarketPrice(),
			Currency: exchange.Currency(),
			Time:     now,
			Amount:   -amount,
			Agent:    a,
		}, true)
		value = value.Sub(estimate)
		if value.LessThanOrEqual(decimal.Zero) {
			break
		}
	}
}
