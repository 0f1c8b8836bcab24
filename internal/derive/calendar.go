package derive

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// The planning grid only covers this range; requested dates are clamped.
var (
	PlanningMin = time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)
	PlanningMax = time.Date(2050, time.January, 31, 0, 0, 0, 0, time.UTC)
)

// MaxOccurrences caps how many days a single recurrence may expand to.
const MaxOccurrences = 366

// ErrUnboundedRule is returned when a recurrence would exceed MaxOccurrences.
var ErrUnboundedRule = errors.New("recurrence must be bounded by COUNT or UNTIL")

var workWeek = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}

// ClampDate bounds a day to the planning range.
func ClampDate(t time.Time) time.Time {
	switch {
	case t.Before(PlanningMin):
		return PlanningMin
	case t.After(PlanningMax):
		return PlanningMax
	}
	return t
}

// MonthDays lists every day of t's month.
func MonthDays(t time.Time) []time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: first,
		Until:   last,
	})
	if err != nil {
		return nil
	}
	return r.All()
}

// WeekDays lists Monday to Friday of t's ISO week.
func WeekDays(t time.Time) []time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.DAILY,
		Dtstart:   monday,
		Count:     5,
		Byweekday: workWeek,
	})
	if err != nil {
		return nil
	}
	return r.All()
}

// Occurrences expands an RFC 5545 RRULE (for example
// "FREQ=WEEKLY;BYDAY=MO,WE;COUNT=4") from start. Days outside the planning
// range are dropped. Rules producing more than MaxOccurrences days are
// rejected.
func Occurrences(rule string, start time.Time) ([]time.Time, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid rrule: %w", err)
	}
	r.DTStart(time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC))

	next := r.Iterator()
	out := make([]time.Time, 0, 16)
	for n := 0; ; n++ {
		v, ok := next()
		if !ok {
			break
		}
		if n >= MaxOccurrences {
			return nil, ErrUnboundedRule
		}
		if v.After(PlanningMax) {
			break
		}
		if v.Before(PlanningMin) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
