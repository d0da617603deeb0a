package world

import (
	"fmt"

	"holosim/internal/common"
)

// Realtime advances in wall-clock time, scaled by Scale (1 = real time, 2 =
// twice as fast, etc). Quanta is meaningless here — Now is recomputed
// directly from the wall clock on every Advance, not stepped.
type Realtime struct {
	*World

	clock common.Clock
	scale float64
}

// NewRealtime constructs a Realtime world. start defaults to the current
// wall-clock time if zero; scale defaults to 1 (real time) if zero. Returns
// ErrRealtimeQuantumForbidden if quanta is non-zero — realtime worlds don't
// step by quanta.
func NewRealtime(clock common.Clock, start, duration, quanta, scale float64) (*Realtime, error) {
	if quanta != 0 {
		return nil, ErrRealtimeQuantumForbidden
	}
	if clock == nil {
		clock = common.SystemClock{}
	}
	if start == 0 {
		start = clock.Now()
	}
	if scale == 0 {
		scale = 1
	}
	r := &Realtime{
		World: New(start, duration, 0),
		clock: clock,
		scale: scale,
	}
	r.Advance()
	return r, nil
}

func (r *Realtime) String() string {
	return fmt.Sprintf("real-time x %g %s", r.scale, r.World.String())
}

// Scale returns the world's current real-time multiplier.
func (r *Realtime) Scale() float64 { return r.scale }

// SetScale changes the real-time multiplier, re-basing Start by scaling the
// virtual time elapsed so far by old/new scale. Now itself is not changed
// by the call; the next Advance recomputes it from the new Start and scale,
// and does not in general reproduce the Now held before the change.
func (r *Realtime) SetScale(value float64) {
	if value == r.scale {
		return
	}
	elapsed := r.now - r.Start
	elapsed *= r.scale / value
	if elapsed != 0 {
		r.Start = r.now - elapsed
	}
	r.scale = value
}

// Advance recomputes Now from the wall clock, scaled from Start.
func (r *Realtime) Advance() {
	elapsed := r.clock.Now() - r.Start
	r.now = r.Start + elapsed*r.scale
}

var _ common.Clock = (*Realtime)(nil)
var _ Timeline = (*Realtime)(nil)
