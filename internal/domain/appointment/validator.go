package appointment

import (
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// The checks below are the individual steps of slot validation. Each one
// works on rows the caller already fetched and has no side effects.

// EndFor computes the slot end. The service must be active and offered at
// an active branch.
func EndFor(svc *models.Service, branch *models.Branch, start time.Time) (time.Time, error) {
	if svc == nil || branch == nil || !svc.Active || !branch.Active || svc.DurationMin <= 0 {
		return time.Time{}, httperr.ErrBusiness(httperr.CodeInvalidService)
	}
	if !svc.OfferedAt(branch.ID) {
		return time.Time{}, httperr.ErrBusiness(httperr.CodeInvalidService)
	}
	return start.Add(svc.Duration()), nil
}

func CheckNotPast(start, now time.Time) error {
	if !start.After(now) {
		return httperr.ErrBusiness(httperr.CodePastBooking)
	}
	return nil
}

// CheckTherapist expects Branches and Services preloaded. A nil therapist
// means the id is unknown.
func CheckTherapist(t *models.TherapistProfile, serviceID, branchID uint) error {
	if t == nil {
		return httperr.ErrBusiness(httperr.CodeNotFound)
	}
	if !t.Active || !t.Offers(serviceID, branchID) {
		return httperr.ErrBusiness(httperr.CodeTherapistNotQualified)
	}
	return nil
}

// CheckConflict fails when an active appointment other than excludeID
// overlaps [start, end).
func CheckConflict(existing []models.Appointment, start, end time.Time, excludeID *uint) error {
	for _, ap := range existing {
		if excludeID != nil && ap.ID == *excludeID {
			continue
		}
		if !Status(ap.Status).IsActive() {
			continue
		}
		if Overlaps(ap.StartTime, ap.EndTime, start, end) {
			return httperr.ErrBusiness(httperr.CodeSlotConflict)
		}
	}
	return nil
}

func CheckAvailability(windows []Window, branchID, serviceID uint, start, end time.Time) error {
	if !Covered(windows, branchID, serviceID, start, end) {
		return httperr.ErrBusiness(httperr.CodeTherapistUnavailable)
	}
	return nil
}

// CheckOpen fails when a holiday for the branch, or for every branch, covers
// the calendar day of start in loc.
func CheckOpen(holidays []models.Holiday, branchID uint, start time.Time, loc *time.Location) error {
	if ClosedOn(holidays, branchID, start, loc) {
		return httperr.ErrBusiness(httperr.CodeBranchClosed)
	}
	return nil
}

func ClosedOn(holidays []models.Holiday, branchID uint, t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	day := civilDate(t.In(loc))
	for _, h := range holidays {
		if h.BranchID != nil && *h.BranchID != branchID {
			continue
		}
		if civilDate(h.StartDate) <= day && day <= civilDate(h.EndDate) {
			return true
		}
	}
	return false
}

// civilDate packs the calendar date of t, in t's own location, into a
// sortable integer.
func civilDate(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
