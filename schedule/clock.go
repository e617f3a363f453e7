package schedule

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// =============================================================================
// CLOCK - Wall-clock time of day ("HH:MM")
// =============================================================================

const minutesPerDay = 24 * 60

// Clock is a time of day with no date attached.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// Minutes returns the offset from midnight.
func (c Clock) Minutes() int { return c.Hour*60 + c.Minute }

// ParseTime parses "HH:MM" (a single-digit hour is accepted).
func ParseTime(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Clock{}, &FormatError{Input: s, Reason: "expected HH:MM"}
	}
	if len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return Clock{}, &FormatError{Input: s, Reason: "expected HH:MM"}
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || !digits(hh) {
		return Clock{}, &FormatError{Input: s, Reason: "hour is not numeric"}
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || !digits(mm) {
		return Clock{}, &FormatError{Input: s, Reason: "minute is not numeric"}
	}
	if hour > 23 {
		return Clock{}, &FormatError{Input: s, Reason: "hour out of range"}
	}
	if minute > 59 {
		return Clock{}, &FormatError{Input: s, Reason: "minute out of range"}
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

// digits reports whether s is made only of ASCII digits. Atoi alone would
// let a sign through ("+9", "-0").
func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// AddMinutes shifts a time of day by delta minutes. Minute overflow and
// underflow carry into the hour; the hour wraps modulo 24, so a shift
// crossing midnight lands on the next morning without a day offset.
func AddMinutes(hour, minute, delta int) Clock {
	total := (hour*60 + minute + delta) % minutesPerDay
	if total < 0 {
		total += minutesPerDay
	}
	return Clock{Hour: total / 60, Minute: total % 60}
}

// ComputeEndTime returns start + durationHours as "HH:MM". Display is
// best-effort, so an unparseable start yields "00:00".
func ComputeEndTime(startTime string, durationHours float64) string {
	start, err := ParseTime(startTime)
	if err != nil {
		return "00:00"
	}
	delta := int(math.Round(durationHours * 60))
	return AddMinutes(start.Hour, start.Minute, delta).String()
}

// Span is a half-open [Start, End) interval in minutes from midnight.
// End may exceed a day when the shift crosses midnight.
type Span struct {
	Start int
	End   int
}

// SpanOf converts a start/end pair to a Span, wrapping an end that is not
// after the start into the next day.
func SpanOf(startTime, endTime string) (Span, error) {
	start, err := ParseTime(startTime)
	if err != nil {
		return Span{}, err
	}
	end, err := ParseTime(endTime)
	if err != nil {
		return Span{}, err
	}
	s, e := start.Minutes(), end.Minutes()
	if e <= s {
		e += minutesPerDay
	}
	return Span{Start: s, End: e}, nil
}

func (s Span) Minutes() int { return s.End - s.Start }

// Overlaps reports whether two spans share any minute. Spans that only touch
// (one ends exactly when the other starts) do not overlap.
func (s Span) Overlaps(o Span) bool {
	switch {
	case s.Start == o.Start, s.End == o.End:
		return true
	case s.Start < o.Start && o.Start < s.End: // o begins inside s
		return true
	case o.Start < s.Start && s.Start < o.End: // s begins inside o
		return true
	case s.Start <= o.Start && o.End <= s.End: // o nested in s
		return true
	case o.Start <= s.Start && s.End <= o.End: // s nested in o
		return true
	}
	return false
}

// WorkedMinutes is the paid length of a shift: span minus break, never negative.
func WorkedMinutes(startTime, endTime string, breakMinutes int) (int, error) {
	span, err := SpanOf(startTime, endTime)
	if err != nil {
		return 0, err
	}
	worked := span.Minutes() - breakMinutes
	if worked < 0 {
		worked = 0
	}
	return worked, nil
}
