package clock

import "time"

// Clock abstracts wall-clock reads so date-dependent logic can be pinned in tests.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function into a Clock.
type Func func() time.Time

// Now implements Clock.
func (f Func) Now() time.Time {
	return f()
}

// System returns the real wall clock.
func System() Clock {
	return Func(time.Now)
}

// Fixed returns a clock frozen at t.
func Fixed(t time.Time) Clock {
	return Func(func() time.Time { return t })
}

// Today formats the calendar date of c in loc as YYYY-MM-DD. A nil loc means UTC.
func Today(c Clock, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return c.Now().In(loc).Format("2006-01-02")
}
