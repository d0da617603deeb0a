// Package world drives the simulation's virtual clock: a fixed-quantum
// World that steps deterministically from start to start+duration, and a
// Realtime variant that instead tracks wall-clock time (optionally
// scaled), for driving a simulation live rather than batch.
package world

import (
	"errors"
	"fmt"
	"iter"

	"holosim/internal/common"
)

// ErrRealtimeQuantumForbidden is returned by NewRealtime when constructed
// with an explicit quantum: a realtime world's "now" tracks the wall clock
// continuously, so a fixed step size is meaningless — use Scale instead.
var ErrRealtimeQuantumForbidden = errors.New("world: realtime world cannot be given an explicit quantum; use scale instead")

// World is the basic fixed-quantum clock: it starts at Start, and Advance
// steps Now forward by Quanta until Done.
type World struct {
	Start    float64
	Duration float64 // Done never fires if HasDuration is false.
	Quanta   float64
	now      float64

	HasDuration bool
}

// New constructs a World. duration < 0 means "never done" (HasDuration
// false); callers that want a bounded world pass a duration >= 0.
func New(start, duration, quanta float64) *World {
	w := &World{Start: start, Duration: duration, Quanta: quanta, HasDuration: duration >= 0}
	w.Reset()
	return w
}

func (w *World) String() string {
	return fmt.Sprintf("World starting @ %g w/ duration %g, quanta %g", w.Start, w.Duration, w.Quanta)
}

// Now returns the world's current virtual time.
func (w *World) Now() float64 { return w.now }

// Done reports whether the world has reached the end of its duration. A
// world with HasDuration false never reports done.
func (w *World) Done() bool {
	return w.HasDuration && w.now >= w.Start+w.Duration
}

// Reset rewinds the world to its start time.
func (w *World) Reset() { w.now = w.Start }

// Advance steps the world forward by one quantum.
func (w *World) Advance() { w.now += w.Quanta }

// Timeline is the common surface World and Realtime both satisfy. Periods
// is a free function over this interface, rather than a method on *World,
// so that a Realtime's overridden Advance is actually the one driving the
// sequence — Go embedding gives World's own methods no way to call back
// into an embedder's override (see Reserve.runSelf for the same problem
// solved a different way).
type Timeline interface {
	Now() float64
	Done() bool
	Advance()
}

// Periods yields the sequence of quantum timestamps from t's current time
// until Done, advancing t as it's consumed. Breaking out of the range loop
// early leaves t part-way through its run.
func Periods(t Timeline) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		for !t.Done() {
			if !yield(t.Now()) {
				return
			}
			t.Advance()
		}
	}
}

var _ common.Clock = (*World)(nil)
var _ Timeline = (*World)(nil)
