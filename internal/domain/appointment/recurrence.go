package appointment

import (
	"sort"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// Window is one concrete occurrence of a TherapistAvailability row.
type Window struct {
	SourceID    uint      `json:"availability_id"`
	Start       time.Time `json:"start_time"`
	End         time.Time `json:"end_time"`
	IsAvailable bool      `json:"is_available"`
	BranchID    *uint     `json:"branch_id"`
	ServiceID   *uint     `json:"service_id"`
}

// Matches applies the same null-means-any rule as the source row.
func (w Window) Matches(branchID, serviceID uint) bool {
	if w.BranchID != nil && *w.BranchID != branchID {
		return false
	}
	if w.ServiceID != nil && *w.ServiceID != serviceID {
		return false
	}
	return true
}

// ExpandWindows materializes availability rows into the concrete windows
// that overlap [from, to), ordered by start.
//
// Recurring rows repeat on the wall clock of loc so a 09:00 window stays at
// 09:00 across DST changes. Monthly rows repeat on the same day of month and
// skip months that do not have it. RecurrenceEndDate is the last calendar
// day (in loc) an occurrence may start on.
func ExpandWindows(rows []models.TherapistAvailability, from, to time.Time, loc *time.Location) []Window {
	if loc == nil {
		loc = time.UTC
	}

	var out []Window
	for i := range rows {
		out = append(out, expandRow(&rows[i], from, to, loc)...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

func expandRow(row *models.TherapistAvailability, from, to time.Time, loc *time.Location) []Window {
	if !row.EndTime.After(row.StartTime) {
		return nil
	}

	days, months := recurrenceStep(row.Recurrence)
	if days == 0 && months == 0 {
		if Overlaps(row.StartTime, row.EndTime, from, to) {
			return []Window{newWindow(row, row.StartTime, row.EndTime)}
		}
		return nil
	}

	base := row.StartTime.In(loc)
	dur := row.EndTime.Sub(row.StartTime)

	until := to
	if row.RecurrenceEndDate != nil {
		y, m, d := row.RecurrenceEndDate.Date()
		if last := time.Date(y, m, d+1, 0, 0, 0, 0, loc); last.Before(until) {
			until = last
		}
	}

	var out []Window
	for k := firstIndex(base, dur, from, days, months); ; k++ {
		start := nthOccurrence(base, k, days, months)
		if !start.Before(until) {
			break
		}
		if months > 0 && start.Day() != base.Day() {
			continue
		}
		end := start.Add(dur)
		if end.After(from) {
			out = append(out, newWindow(row, start, end))
		}
	}
	return out
}

func recurrenceStep(rule string) (days, months int) {
	switch rule {
	case models.RecurrenceDaily:
		return 1, 0
	case models.RecurrenceWeekly:
		return 7, 0
	case models.RecurrenceBiweekly:
		return 14, 0
	case models.RecurrenceMonthly:
		return 0, 1
	}
	return 0, 0
}

func nthOccurrence(base time.Time, k, days, months int) time.Time {
	return time.Date(
		base.Year(), base.Month()+time.Month(k*months), base.Day()+k*days,
		base.Hour(), base.Minute(), base.Second(), base.Nanosecond(),
		base.Location(),
	)
}

// firstIndex skips occurrences that end well before from. It may start one
// step early; the caller filters by overlap.
func firstIndex(base time.Time, dur time.Duration, from time.Time, days, months int) int {
	gap := from.Sub(base.Add(dur))
	if gap <= 0 {
		return 0
	}

	var k int
	if days > 0 {
		k = int(gap / (time.Duration(days) * 24 * time.Hour))
	} else {
		f := from.In(base.Location())
		elapsed := (f.Year()-base.Year())*12 + int(f.Month()) - int(base.Month())
		k = elapsed / months
	}

	if k--; k < 0 {
		return 0
	}
	return k
}

func newWindow(row *models.TherapistAvailability, start, end time.Time) Window {
	return Window{
		SourceID:    row.ID,
		Start:       start,
		End:         end,
		IsAvailable: row.IsAvailable,
		BranchID:    row.BranchID,
		ServiceID:   row.ServiceID,
	}
}
