package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/lock"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
)

type RescheduleInput struct {
	Principal     access.Principal
	AppointmentID uint
	Start         time.Time

	// TherapistID moves the appointment to another therapist when set.
	TherapistID *uint
}

type RescheduleAppointment struct {
	Deps
}

func NewRescheduleAppointment(d Deps) *RescheduleAppointment {
	return &RescheduleAppointment{Deps: d.withDefaults()}
}

func (uc *RescheduleAppointment) Execute(
	ctx context.Context,
	in RescheduleInput,
) (*models.Appointment, error) {

	ap, err := uc.reschedule(ctx, in)
	uc.Metrics.Booking("reschedule", outcome(err))
	if err != nil {
		return nil, err
	}

	uc.published(ap, notify.AppointmentRescheduled, in.Principal.UserID, "appointment_rescheduled")
	return ap, nil
}

func (uc *RescheduleAppointment) reschedule(ctx context.Context, in RescheduleInput) (*models.Appointment, error) {
	current, err := uc.Repo.GetAppointment(ctx, in.AppointmentID)
	if err != nil {
		return nil, err
	}
	if err := checkReschedule(in.Principal, current); err != nil {
		return nil, err
	}

	target := current.TherapistID
	if in.TherapistID != nil {
		target = *in.TherapistID
	}

	var ap *models.Appointment
	err = uc.withLock(ctx, lock.TherapistKey(target), func() error {
		return uc.Repo.Transaction(ctx, func(tx domain.Repository) error {
			if err := tx.LockTherapist(ctx, target); err != nil {
				return err
			}

			var err error
			ap, err = tx.GetAppointmentForUpdate(ctx, in.AppointmentID)
			if err != nil {
				return err
			}
			// re-check on the locked row
			if err := checkReschedule(in.Principal, ap); err != nil {
				return err
			}
			if in.TherapistID == nil && ap.TherapistID != target {
				return httperr.ErrBusiness(httperr.CodeBusy)
			}

			end, err := validateSlot(ctx, tx, uc.Clock, SlotInput{
				TherapistID:          target,
				ServiceID:            ap.ServiceID,
				BranchID:             ap.BranchID,
				Start:                in.Start,
				ExcludeAppointmentID: &ap.ID,
			})
			if err != nil {
				return err
			}

			if err := domain.Reschedule(ap, target, in.Start, end); err != nil {
				return err
			}
			return tx.UpdateAppointment(ctx, ap)
		})
	})
	if err != nil {
		return nil, err
	}
	return ap, nil
}

func checkReschedule(p access.Principal, ap *models.Appointment) error {
	if !access.CanActOn(p, ap.CustomerID, ap.TherapistID) {
		return httperr.ErrBusiness(httperr.CodeUnauthorized)
	}
	return domain.CanReschedule(domain.Status(ap.Status))
}
