// Package control implements a standalone PID loop: bumpless transfer,
// integral anti-windup, output clamping. It is not wired into the core
// simulation data flow — spec calls it out as present at the interface
// level only, for application code to drive things like an issuing
// reserve's supply premium.
package control

// Gains are the proportional/integral/derivative loop gains.
type Gains struct {
	Kp, Ki, Kd float64
}

// Limits bounds the controller's output. A zero HasLo/HasHi means
// unbounded on that side (equivalent to the original's math.nan limits,
// which never satisfy a </> comparison).
type Limits struct {
	Lo, Hi       float64
	HasLo, HasHi bool
}

// Controller is a PID loop with bumpless transfer and integral anti-windup.
type Controller struct {
	gains  Gains
	limits Limits

	setpoint, process, output float64
	p, i, d                   float64
	now                       float64
}

// New constructs a Controller and performs an initial bumpless transfer so
// the first Loop call doesn't produce a jump in output.
func New(gains Gains, limits Limits, setpoint, process, output, now float64) *Controller {
	c := &Controller{gains: gains, limits: limits}
	c.Bumpless(setpoint, process, output, now)
	return c
}

// Bumpless recomputes the internal P/I/D state so that a subsequent Loop
// call with an identical setpoint/process produces no differential output
// — used both at construction and whenever the controller needs to be
// re-synced to a process that's being driven by something else in the
// meantime (e.g. manual override).
func (c *Controller) Bumpless(setpoint, process, output, now float64) {
	c.setpoint = setpoint
	c.process = process
	c.output = output
	c.now = now

	c.p = c.setpoint - c.process
	c.i = 0
	if c.gains.Ki != 0 {
		c.i = (c.output - c.p*c.gains.Kp) / c.gains.Ki
	}
	c.d = 0
}

// Loop advances the controller to now, given the latest setpoint/process
// readings, and returns the (possibly saturation-clamped) drive value.
// If now has not advanced past the controller's last update, the new
// setpoint/process readings are stored but no step is taken and the
// output is unchanged.
func (c *Controller) Loop(setpoint, process *float64, now float64) float64 {
	var dS float64
	if setpoint != nil {
		dS = *setpoint - c.setpoint
		c.setpoint = *setpoint
	}
	if process != nil {
		c.process = *process
	}
	if now > c.now {
		dt := now - c.now
		c.now = now

		p := c.setpoint - c.process
		i := c.i + p*dt
		d := (p - c.p - dS) / dt
		c.output = p*c.gains.Kp + i*c.gains.Ki + d*c.gains.Kd
		c.p = p

		// Integral anti-windup: ignore the new I term if output is
		// saturated and I is moving further in the saturating direction.
		blockedLo := c.limits.HasLo && c.output < c.limits.Lo && i < c.i
		blockedHi := c.limits.HasHi && c.output > c.limits.Hi && i > c.i
		if !blockedLo && !blockedHi {
			c.i = i
		}
		c.d = d
	}
	return c.Drive()
}

// Drive clamps the raw output to the configured limits.
func (c *Controller) Drive() float64 {
	v := c.output
	if c.limits.HasLo && v < c.limits.Lo {
		v = c.limits.Lo
	}
	if c.limits.HasHi && v > c.limits.Hi {
		v = c.limits.Hi
	}
	return v
}
