package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

// ======================================================
// INPUT
// ======================================================

type SlotInput struct {
	TherapistID uint
	ServiceID   uint
	BranchID    uint
	Start       time.Time

	// ExcludeAppointmentID leaves one appointment out of the conflict
	// check, so a reschedule never collides with itself.
	ExcludeAppointmentID *uint
}

// ======================================================
// USE CASE
// ======================================================

// ValidateSlot decides whether a slot may be booked and returns its end.
// It only reads; callers that write must hold the therapist lock.
type ValidateSlot struct {
	repo  domain.Repository
	clock timezone.Clock
}

func NewValidateSlot(repo domain.Repository, clock timezone.Clock) *ValidateSlot {
	if clock == nil {
		clock = timezone.SystemClock()
	}
	return &ValidateSlot{repo: repo, clock: clock}
}

func (uc *ValidateSlot) Execute(ctx context.Context, in SlotInput) (time.Time, error) {
	return validateSlot(ctx, uc.repo, uc.clock, in)
}

func validateSlot(
	ctx context.Context,
	repo domain.Repository,
	clock timezone.Clock,
	in SlotInput,
) (time.Time, error) {

	// --------------------------------------------------
	// 1. Service at branch
	// --------------------------------------------------
	svc, err := repo.GetService(ctx, in.ServiceID)
	if err != nil {
		return time.Time{}, asInvalidService(err)
	}
	branch, err := repo.GetBranch(ctx, in.BranchID)
	if err != nil {
		return time.Time{}, asInvalidService(err)
	}
	end, err := domain.EndFor(svc, branch, in.Start)
	if err != nil {
		return time.Time{}, err
	}

	// --------------------------------------------------
	// 2. Future only
	// --------------------------------------------------
	if err := domain.CheckNotPast(in.Start, clock.Now()); err != nil {
		return time.Time{}, err
	}

	// --------------------------------------------------
	// 3. Therapist qualified
	// --------------------------------------------------
	therapist, err := repo.GetTherapist(ctx, in.TherapistID)
	if err != nil {
		return time.Time{}, err
	}
	if err := domain.CheckTherapist(therapist, in.ServiceID, in.BranchID); err != nil {
		return time.Time{}, err
	}

	// --------------------------------------------------
	// 4. No overlapping booking
	// --------------------------------------------------
	existing, err := repo.FindOverlapping(ctx, in.TherapistID, in.Start, end)
	if err != nil {
		return time.Time{}, err
	}
	if err := domain.CheckConflict(existing, in.Start, end, in.ExcludeAppointmentID); err != nil {
		return time.Time{}, err
	}

	// --------------------------------------------------
	// 5. Inside an open window, clear of blocks
	// --------------------------------------------------
	loc := timezone.Location(branch.Timezone)
	rows, err := repo.ListAvailability(ctx, in.TherapistID, in.Start, end)
	if err != nil {
		return time.Time{}, err
	}
	windows := domain.ExpandWindows(rows, in.Start, end, loc)
	if err := domain.CheckAvailability(windows, in.BranchID, in.ServiceID, in.Start, end); err != nil {
		return time.Time{}, err
	}

	// --------------------------------------------------
	// 6. Branch open that day
	// --------------------------------------------------
	holidays, err := repo.ListHolidays(ctx, in.BranchID, in.Start, in.Start)
	if err != nil {
		return time.Time{}, err
	}
	if err := domain.CheckOpen(holidays, in.BranchID, in.Start, loc); err != nil {
		return time.Time{}, err
	}

	return end, nil
}

func asInvalidService(err error) error {
	if httperr.IsBusiness(err, httperr.CodeNotFound) {
		return httperr.ErrBusiness(httperr.CodeInvalidService)
	}
	return err
}
