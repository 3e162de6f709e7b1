package appointment

import "time"

type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps is the half-open test: [aStart,aEnd) and [bStart,bEnd) share time
// iff aStart < bEnd && bStart < aEnd.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// AvailableSlots returns slot start times within [windowStart, windowEnd)
// where a booking of length duration would not overlap any busy interval.
// Candidates advance by step; a candidate that hits a busy interval moves
// to the interval's end, so the first start after a booking is offered even
// when it is off the grid. Slots starting at or before now are skipped.
func AvailableSlots(windowStart, windowEnd time.Time, duration, step time.Duration, busy []Interval, now time.Time) []time.Time {
	if duration <= 0 || step <= 0 {
		return nil
	}

	var slots []time.Time
	for t := windowStart; !t.Add(duration).After(windowEnd); {
		if end, hit := busyUntil(t, t.Add(duration), busy); hit {
			t = end
			continue
		}
		if t.After(now) {
			slots = append(slots, t)
		}
		t = t.Add(step)
	}
	return slots
}

// busyUntil returns the latest end among busy intervals overlapping
// [start, end).
func busyUntil(start, end time.Time, busy []Interval) (time.Time, bool) {
	var until time.Time
	hit := false
	for _, b := range busy {
		if Overlaps(start, end, b.Start, b.End) && b.End.After(until) {
			until = b.End
			hit = true
		}
	}
	return until, hit
}
