// Package rostime converts between human time strings and the
// (seconds, nanoseconds) stamps carried by bag recordings.
package rostime

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the human-facing timestamp format: YY/MM/DD HH:MM:SS.
const Layout = "06/01/02 15:04:05"

// ErrInvalidFormat reports a timestamp string that does not match Layout.
var ErrInvalidFormat = errors.New("invalid time format")

// Timestamp is a bag timestamp: whole seconds since the Unix epoch plus
// nanoseconds in [0, 1e9).
type Timestamp struct {
	Sec  int64
	Nsec int64
}

// IsZero reports whether t is the zero timestamp.
func (t Timestamp) IsZero() bool {
	return t.Sec == 0 && t.Nsec == 0
}

// Before reports whether t is strictly earlier than u.
func (t Timestamp) Before(u Timestamp) bool {
	if t.Sec != u.Sec {
		return t.Sec < u.Sec
	}
	return t.Nsec < u.Nsec
}

// After reports whether t is strictly later than u.
func (t Timestamp) After(u Timestamp) bool {
	return u.Before(t)
}

// String formats t per Layout in local time. Zero stamps render as "N.A".
func (t Timestamp) String() string {
	if t.IsZero() {
		return "N.A"
	}
	return time.Unix(t.Sec, t.Nsec).Format(Layout)
}

// Range is a half-open-agnostic time window; Start and End are inclusive
// as far as this package is concerned.
type Range struct {
	Start Timestamp
	End   Timestamp
}

// Contains reports whether r lies entirely within bounds.
func (r Range) Contains(inner Range) bool {
	return !inner.Start.Before(r.Start) && !inner.End.After(r.End)
}

// String renders the window as "start - end".
func (r Range) String() string {
	return r.Start.String() + " - " + r.End.String()
}

// ParseStamp parses a Layout-formatted string into a Timestamp.
func ParseStamp(s string) (Timestamp, error) {
	t, err := time.ParseInLocation(Layout, s, time.Local)
	if err != nil {
		return Timestamp{}, fmt.Errorf("%w: %q (expected %s)", ErrInvalidFormat, s, "YY/MM/DD HH:MM:SS")
	}
	return Timestamp{Sec: t.Unix()}, nil
}

// Parse parses a start/end pair and widens the window by one second on each
// side. The widening counteracts inclusive/exclusive boundary truncation in
// downstream filtering; callers must Clamp the result back into a bag's own
// bounds before use.
func Parse(startText, endText string) (Range, error) {
	start, err := ParseStamp(startText)
	if err != nil {
		return Range{}, err
	}
	end, err := ParseStamp(endText)
	if err != nil {
		return Range{}, err
	}
	start.Sec--
	end.Sec++
	return Range{Start: start, End: end}, nil
}

// Clamp clips requested into bounds. The returned bool reports whether any
// edge moved; a requested range already inside bounds comes back unchanged.
func Clamp(requested, bounds Range) (Range, bool) {
	clamped := false
	if requested.Start.Before(bounds.Start) {
		requested.Start = bounds.Start
		clamped = true
	}
	if requested.End.After(bounds.End) {
		requested.End = bounds.End
		clamped = true
	}
	return requested, clamped
}
