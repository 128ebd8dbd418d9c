package shared

import (
	"fmt"
	"time"
)

// DefaultTimezone is the office timezone used when none is configured
const DefaultTimezone = "America/Guayaquil"

// CalendarPolicy fixes the clock and timezone every timestamp in the domain is taken from.
// It is passed explicitly instead of living in package globals.
type CalendarPolicy struct {
	location *time.Location
	clock    func() time.Time
}

// NewCalendarPolicy builds a policy for the named IANA timezone using the wall clock
func NewCalendarPolicy(timezone string) (CalendarPolicy, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return CalendarPolicy{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return CalendarPolicy{location: loc, clock: time.Now}, nil
}

// FixedCalendarPolicy returns a policy whose clock always reports the given instant.
// Intended for tests and replays.
func FixedCalendarPolicy(at time.Time) CalendarPolicy {
	return CalendarPolicy{location: at.Location(), clock: func() time.Time { return at }}
}

// WithClock returns a copy of the policy that reads time from clock
func (p CalendarPolicy) WithClock(clock func() time.Time) CalendarPolicy {
	p.clock = clock
	return p
}

// Now returns the current instant in the policy's timezone.
// The zero policy falls back to UTC wall-clock time.
func (p CalendarPolicy) Now() time.Time {
	clock := p.clock
	if clock == nil {
		clock = time.Now
	}
	if p.location == nil {
		return clock().UTC()
	}
	return clock().In(p.location)
}

// Location returns the policy timezone
func (p CalendarPolicy) Location() *time.Location {
	if p.location == nil {
		return time.UTC
	}
	return p.location
}

// DateStamp formats the policy's current date as YYYYMMDD
func (p CalendarPolicy) DateStamp() string {
	return p.Now().Format("20060102")
}
