package engine

import (
	"context"
	"math"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// bookFormatter is implemented by *exchange.Exchange; kept narrow here
// (rather than widening common.Exchange) since formatting a book for
// display is a status-logging concern, not something every Exchange
// consumer needs.
type bookFormatter interface {
	FormatBook(width int) string
}

// Status wraps an Engine and logs the exchange's order book every time
// floor(now/Period) changes, plus once more after the run completes —
// mirroring EngineStatus's behavior of firing a final status with no `now`
// to signal "end of run".
type Status struct {
	*Engine

	Period     float64
	BookWidth  int
	lastPeriod float64
	started    bool

	logger zerolog.Logger
}

// NewStatus wraps engine with periodic status logging every period virtual
// seconds, rendering the book at the given column width.
func NewStatus(e *Engine, period float64, bookWidth int) *Status {
	if bookWidth <= 0 {
		bookWidth = 60
	}
	return &Status{
		Engine:    e,
		Period:    period,
		BookWidth: bookWidth,
		logger:    log.With().Str("component", "engine-status").Logger(),
	}
}

// Cycle runs the wrapped Engine's cycle, then logs the book if this is the
// first tick or a new status period has begun.
func (s *Status) Cycle(now float64) {
	s.Engine.Cycle(now)
	period := math.Floor(now / s.Period)
	if !s.started || period != s.lastPeriod {
		s.started = true
		s.lastPeriod = period
		s.report(now)
	}
}

// Run steps the world to completion, routing every tick through s.Cycle
// (not Engine.Cycle) via the explicit-parameter RunWith, then emits one
// final status line with no timestamp to signal the run has ended.
func (s *Status) Run(ctx context.Context) error {
	err := s.Engine.RunWith(ctx, s)
	s.reportEnd()
	return err
}

func (s *Status) report(now float64) {
	fmtr, ok := s.Exchange.(bookFormatter)
	if !ok {
		return
	}
	s.logger.Info().Float64("now", now).Msg("status\n" + fmtr.FormatBook(s.BookWidth))
}

func (s *Status) reportEnd() {
	fmtr, ok := s.Exchange.(bookFormatter)
	if !ok {
		return
	}
	s.logger.Info().Msg("status (end)\n" + fmtr.FormatBook(s.BookWidth))
}
