package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

// maxAvailabilityDays bounds one availability query.
const maxAvailabilityDays = 62

type AvailabilityInput struct {
	TherapistID uint

	// StartDate and EndDate are YYYY-MM-DD in the branch timezone (UTC
	// without a branch). Empty StartDate means today; empty EndDate means
	// StartDate.
	StartDate string
	EndDate   string

	ServiceID *uint
	BranchID  *uint
}

type GetAvailability struct {
	repo  domain.Repository
	clock timezone.Clock
}

func NewGetAvailability(repo domain.Repository, clock timezone.Clock) *GetAvailability {
	if clock == nil {
		clock = timezone.SystemClock()
	}
	return &GetAvailability{repo: repo, clock: clock}
}

func (uc *GetAvailability) Execute(
	ctx context.Context,
	in AvailabilityInput,
) (*dto.AvailabilityDTO, error) {

	if _, err := uc.repo.GetTherapist(ctx, in.TherapistID); err != nil {
		return nil, err
	}

	tz := timezone.DefaultTimezone
	if in.BranchID != nil {
		branch, err := uc.repo.GetBranch(ctx, *in.BranchID)
		if err != nil {
			return nil, err
		}
		tz = branch.Timezone
	}
	loc := timezone.Location(tz)
	now := uc.clock.Now()

	from, to, err := dateRange(in.StartDate, in.EndDate, now, loc)
	if err != nil {
		return nil, err
	}

	var duration time.Duration
	if in.ServiceID != nil {
		svc, err := uc.repo.GetService(ctx, *in.ServiceID)
		if err != nil {
			return nil, asInvalidService(err)
		}
		if !svc.Active || (in.BranchID != nil && !svc.OfferedAt(*in.BranchID)) {
			return nil, httperr.ErrBusiness(httperr.CodeInvalidService)
		}
		duration = svc.Duration()
	}

	// --------------------------------------------------
	// Expand windows
	// --------------------------------------------------
	rows, err := uc.repo.ListAvailability(ctx, in.TherapistID, from, to)
	if err != nil {
		return nil, err
	}
	windows := domain.ExpandWindows(rows, from, to, loc)

	out := &dto.AvailabilityDTO{
		TherapistID: in.TherapistID,
		Timezone:    loc.String(),
		Windows:     []dto.AvailabilityWindowDTO{},
	}

	var busy []domain.Interval
	if duration > 0 {
		busy, err = uc.busy(ctx, in, windows, from, to)
		if err != nil {
			return nil, err
		}
	}

	for _, w := range windows {
		if w.Start.Before(from) || !w.Start.Before(to) || !matchesFilter(w, in) {
			continue
		}

		item := dto.AvailabilityWindowDTO{
			AvailabilityID: w.SourceID,
			StartTime:      w.Start,
			EndTime:        w.End,
			IsAvailable:    w.IsAvailable,
			BranchID:       w.BranchID,
			ServiceID:      w.ServiceID,
		}
		if duration > 0 && w.IsAvailable {
			item.Slots = domain.AvailableSlots(w.Start, w.End, duration, duration, busy, now)
		}
		out.Windows = append(out.Windows, item)
	}

	return out, nil
}

// busy collects what a new booking must avoid: matching blocks, active
// appointments and, with a branch, its closed days.
func (uc *GetAvailability) busy(
	ctx context.Context,
	in AvailabilityInput,
	windows []domain.Window,
	from, to time.Time,
) ([]domain.Interval, error) {

	var busy []domain.Interval
	for _, w := range windows {
		if !w.IsAvailable && matchesFilter(w, in) {
			busy = append(busy, domain.Interval{Start: w.Start, End: w.End})
		}
	}

	booked, err := uc.repo.FindOverlapping(ctx, in.TherapistID, from, to)
	if err != nil {
		return nil, err
	}
	for _, ap := range booked {
		busy = append(busy, domain.Interval{Start: ap.StartTime, End: ap.EndTime})
	}

	if in.BranchID != nil {
		holidays, err := uc.repo.ListHolidays(ctx, *in.BranchID, from, to)
		if err != nil {
			return nil, err
		}
		loc := from.Location()
		for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
			if domain.ClosedOn(holidays, *in.BranchID, day, loc) {
				busy = append(busy, domain.Interval{Start: day, End: day.AddDate(0, 0, 1)})
			}
		}
	}
	return busy, nil
}

func matchesFilter(w domain.Window, in AvailabilityInput) bool {
	if in.BranchID != nil && w.BranchID != nil && *w.BranchID != *in.BranchID {
		return false
	}
	if in.ServiceID != nil && w.ServiceID != nil && *w.ServiceID != *in.ServiceID {
		return false
	}
	return true
}

// dateRange turns inclusive calendar dates into [from, to) in loc.
func dateRange(startDate, endDate string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	from := timezone.StartOfDay(now, loc)
	if startDate != "" {
		d, err := timezone.ParseDate(startDate, loc)
		if err != nil {
			return time.Time{}, time.Time{}, httperr.ErrBusiness(httperr.CodeInvalidRequest)
		}
		from = d
	}

	last := from
	if endDate != "" {
		d, err := timezone.ParseDate(endDate, loc)
		if err != nil {
			return time.Time{}, time.Time{}, httperr.ErrBusiness(httperr.CodeInvalidRequest)
		}
		last = d
	}
	if last.Before(from) {
		return time.Time{}, time.Time{}, httperr.ErrBusiness(httperr.CodeInvalidRequest)
	}

	to := time.Date(last.Year(), last.Month(), last.Day()+1, 0, 0, 0, 0, loc)
	if to.Sub(from) > maxAvailabilityDays*24*time.Hour {
		return time.Time{}, time.Time{}, httperr.ErrBusiness(httperr.CodeInvalidRequest)
	}
	return from, to, nil
}
