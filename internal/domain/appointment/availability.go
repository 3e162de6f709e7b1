package appointment

import "time"

// Covered reports whether [start, end) sits inside one open window that
// matches the branch and service, with no matching blocked window touching
// it. Windows must already be expanded.
func Covered(windows []Window, branchID, serviceID uint, start, end time.Time) bool {
	open := false
	for _, w := range windows {
		if !w.Matches(branchID, serviceID) {
			continue
		}
		if !w.IsAvailable {
			if Overlaps(w.Start, w.End, start, end) {
				return false
			}
			continue
		}
		if !w.Start.After(start) && !w.End.Before(end) {
			open = true
		}
	}
	return open
}

// Busy collects the blocked windows matching the branch and service as
// intervals.
func Busy(windows []Window, branchID, serviceID uint) []Interval {
	var out []Interval
	for _, w := range windows {
		if !w.IsAvailable && w.Matches(branchID, serviceID) {
			out = append(out, Interval{Start: w.Start, End: w.End})
		}
	}
	return out
}
