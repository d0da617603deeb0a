// Package engine drives the simulation: each tick it runs every agent in
// insertion order, then executes all markets' matching, then lets matched
// trades land back in the participating agents' ledgers (via Record, called
// from inside market.ExecuteAll/exchange.ExecuteAll).
package engine

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"holosim/internal/common"
	"holosim/internal/world"
)

// Cycler is implemented by anything that can run one simulation tick; it
// exists so Status can override Engine's own per-tick behavior (status
// logging around the cycle) without Go embedding's lack of virtual
// dispatch silently calling Engine.Cycle instead. See Status.Run.
type Cycler interface {
	Cycle(now float64)
}

// Engine owns a world clock, an exchange, and the ordered list of agents
// (and reserves, which are agents too) that run against it each tick. It
// does not mutate the world or exchange references themselves, only drives
// them.
type Engine struct {
	World    world.Timeline
	Exchange common.Exchange
	Agents   []common.Runner

	logger zerolog.Logger
}

// New constructs an Engine. agents are run in the given order every tick.
func New(w world.Timeline, exchange common.Exchange, agents []common.Runner) *Engine {
	return &Engine{
		World:    w,
		Exchange: exchange,
		Agents:   agents,
		logger:   log.With().Str("component", "engine").Logger(),
	}
}

// Cycle runs one tick: every agent in order, then one batch of matching
// across all of the exchange's markets.
func (e *Engine) Cycle(now float64) {
	for _, a := range e.Agents {
		a.Run(e.Exchange, now)
	}
	e.Exchange.ExecuteAll(now, true)
}

// RunWith steps the world to completion via c.Cycle, returning early if ctx is
// canceled between ticks. Pass e itself for plain cycling, or a Status to
// get periodic status logging around the same loop.
func (e *Engine) RunWith(ctx context.Context, c Cycler) error {
	for now := range world.Periods(e.World) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		c.Cycle(now)
	}
	return nil
}

// Run is RunWith(ctx, e) — the plain, unadorned cycle with no status
// logging.
func (e *Engine) Run(ctx context.Context) error {
	return e.RunWith(ctx, e)
}
