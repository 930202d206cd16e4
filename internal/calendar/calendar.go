package calendar

import "time"

// Calendar pairs a Clock with the exchange's Session definition, exposing
// the time operations the rest of the system relies on. Outside
// internal/calendar and tests, only internal/httpapi's request-duration
// logging calls time.Now, and nothing calls time.LoadLocation.
type Calendar struct {
	clock   Clock
	session Session
}

// New builds a Calendar over clk using the given session definition.
func New(clk Clock, sess Session) *Calendar {
	return &Calendar{clock: clk, session: sess}
}

// Now returns the current time, as reported by the underlying Clock.
func (c *Calendar) Now() time.Time {
	return c.clock.Now()
}

// InSession reports whether ts falls inside the exchange's trading session.
func (c *Calendar) InSession(ts time.Time) bool {
	return c.session.InSession(ts)
}

// SessionBounds returns the open/close instants for day's trading session.
func (c *Calendar) SessionBounds(day time.Time) (open, close time.Time) {
	return c.session.SessionBounds(day)
}

// NextFire computes spec's next fire instant strictly after `after`.
func (c *Calendar) NextFire(spec TriggerSpec, after time.Time) (time.Time, error) {
	return spec.NextFire(c.session, after)
}

// Location returns the exchange's configured civil timezone.
func (c *Calendar) Location() *time.Location {
	return c.session.Location
}
