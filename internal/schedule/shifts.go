package schedule

import (
	"math"
	"time"
)

// Shift boundaries are fixed plant-wide: the day shift runs [08:00, 20:00),
// the night shift [20:00, 08:00) of the next day.
const (
	DayShiftStartHour   = 8
	NightShiftStartHour = 20
)

// ShiftEnd returns the end instant of the shift containing t.
func ShiftEnd(t time.Time) time.Time {
	year, month, day := t.Date()
	loc := t.Location()
	switch {
	case t.Hour() >= DayShiftStartHour && t.Hour() < NightShiftStartHour:
		return time.Date(year, month, day, NightShiftStartHour, 0, 0, 0, loc)
	case t.Hour() >= NightShiftStartHour:
		return time.Date(year, month, day, DayShiftStartHour, 0, 0, 0, loc).AddDate(0, 0, 1)
	default:
		return time.Date(year, month, day, DayShiftStartHour, 0, 0, 0, loc)
	}
}

// SplitAtShiftBoundaries cuts every entry that crosses the end of its shift
// into two parts at the boundary instant. Quantities are split
// proportionally to duration with the first part rounded down and the exact
// complement assigned to the second, so the parts always sum to the
// original. Entries fully inside one shift pass through unchanged.
func SplitAtShiftBoundaries(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		boundary := ShiftEnd(e.Start)
		if !e.End.After(boundary) {
			out = append(out, e)
			continue
		}
		firstDur := int(boundary.Sub(e.Start) / time.Minute)
		if firstDur <= 0 || firstDur >= e.DurationMinutes {
			out = append(out, e)
			continue
		}

		first := e
		first.End = boundary
		first.DurationMinutes = firstDur
		first.Note = appendNote(e.Note, "[part 1]")

		second := e
		second.Start = boundary
		second.DurationMinutes = e.DurationMinutes - firstDur
		second.Note = appendNote(e.Note, "[part 2]")

		if e.Quantity > 0 {
			firstQty := math.Floor(float64(firstDur) / float64(e.DurationMinutes) * e.Quantity)
			first.Quantity = firstQty
			second.Quantity = e.Quantity - firstQty
		}
		out = append(out, first, second)
	}
	return out
}

func appendNote(note, suffix string) string {
	if note == "" {
		return suffix
	}
	return note + " " + suffix
}
