package calendar

import (
	"fmt"
	"sort"
	"time"
)

// TriggerKind selects how a TriggerSpec's next-fire instant is computed.
type TriggerKind string

const (
	// KindInterval fires every Every during the trading session, the first
	// fire at session open.
	KindInterval TriggerKind = "interval"
	// KindAt fires at each exchange-local clock time in At, every trading day.
	KindAt TriggerKind = "at"
	// KindAfterClose fires once per trading day, Offset after session close.
	KindAfterClose TriggerKind = "after_close"
)

// TriggerSpec is a named, cron-like schedule, interpreted in the exchange's
// civil timezone. Configuration decodes directly into this shape; see
// internal/config.
type TriggerSpec struct {
	Name  string
	Kind  TriggerKind
	Every time.Duration // KindInterval
	At    []string      // KindAt, "HH:MM" exchange-local, any count
	Offset time.Duration // KindAfterClose
}

// Validate checks the spec is well-formed and internally consistent for its
// Kind. Called once at startup; a failure here aborts startup.
func (t TriggerSpec) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("calendar: trigger has no name")
	}
	switch t.Kind {
	case KindInterval:
		if t.Every <= 0 {
			return fmt.Errorf("calendar: trigger %q: every must be positive", t.Name)
		}
	case KindAt:
		if len(t.At) == 0 {
			return fmt.Errorf("calendar: trigger %q: at requires at least one clock time", t.Name)
		}
		for _, hm := range t.At {
			if _, err := time.Parse("15:04", hm); err != nil {
				return fmt.Errorf("calendar: trigger %q: invalid clock time %q: %w", t.Name, hm, err)
			}
		}
	case KindAfterClose:
		if t.Offset < 0 {
			return fmt.Errorf("calendar: trigger %q: offset must be non-negative", t.Name)
		}
	default:
		return fmt.Errorf("calendar: trigger %q: unknown kind %q", t.Name, t.Kind)
	}
	return nil
}

// NextFire computes the next instant strictly after `after` at which this
// trigger should fire, in the given session's exchange-local timezone.
func (t TriggerSpec) NextFire(sess Session, after time.Time) (time.Time, error) {
	if err := t.Validate(); err != nil {
		return time.Time{}, err
	}
	switch t.Kind {
	case KindInterval:
		return nextIntervalFire(sess, after, t.Every), nil
	case KindAt:
		return nextAtFire(sess, after, t.At), nil
	case KindAfterClose:
		return nextAfterCloseFire(sess, after, t.Offset), nil
	default:
		return time.Time{}, fmt.Errorf("calendar: trigger %q: unknown kind %q", t.Name, t.Kind)
	}
}

// nextIntervalFire returns the next session-aligned tick: ticks start at
// session open and repeat every `every` until session close, then resume at
// the next trading day's open.
func nextIntervalFire(sess Session, after time.Time, every time.Duration) time.Time {
	day := after.In(sess.Location)
	for i := 0; i < 8; i++ {
		open, close := sess.SessionBounds(day)
		if sess.IsTradingDay(day) && close.After(after) {
			if !open.After(after) {
				// Walk forward from open in `every` steps to find the first
				// tick strictly after `after`, still inside the session.
				elapsed := after.Sub(open)
				steps := elapsed / every
				candidate := open.Add((steps + 1) * every)
				if candidate.Before(close) || candidate.Equal(close) {
					if candidate.After(after) {
						return candidate
					}
				}
			} else if open.After(after) {
				return open
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	open, _ := sess.SessionBounds(day)
	return open
}

// nextAtFire returns the next configured clock time strictly after `after`,
// scanning forward across trading days.
func nextAtFire(sess Session, after time.Time, at []string) time.Time {
	times := append([]string(nil), at...)
	sort.Strings(times)

	day := after.In(sess.Location)
	for i := 0; i < 8; i++ {
		if sess.IsTradingDay(day) {
			y, m, d := day.Date()
			for _, hm := range times {
				parsed, err := time.Parse("15:04", hm)
				if err != nil {
					continue
				}
				candidate := time.Date(y, m, d, parsed.Hour(), parsed.Minute(), 0, 0, sess.Location)
				if candidate.After(after) {
					return candidate
				}
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return after
}

// nextAfterCloseFire returns the next trading day's session close plus
// offset, strictly after `after`.
func nextAfterCloseFire(sess Session, after time.Time, offset time.Duration) time.Time {
	day := after.In(sess.Location)
	for i := 0; i < 8; i++ {
		if sess.IsTradingDay(day) {
			_, close := sess.SessionBounds(day)
			candidate := close.Add(offset)
			if candidate.After(after) {
				return candidate
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return after
}
