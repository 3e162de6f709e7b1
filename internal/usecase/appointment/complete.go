package appointment

import (
	"context"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
)

// CompleteAppointment closes a confirmed session. Only the assigned
// therapist or an admin may do it.
type CompleteAppointment struct {
	Deps
}

func NewCompleteAppointment(d Deps) *CompleteAppointment {
	return &CompleteAppointment{Deps: d.withDefaults()}
}

func (uc *CompleteAppointment) Execute(
	ctx context.Context,
	p access.Principal,
	appointmentID uint,
) (*models.Appointment, error) {

	ap, err := operate(ctx, uc.Repo, p, appointmentID, func(ap *models.Appointment) error {
		return domain.Complete(ap, uc.Clock.Now())
	})
	if err != nil {
		return nil, err
	}

	uc.published(ap, notify.AppointmentCompleted, p.UserID, "appointment_completed")
	return ap, nil
}

type MarkNoShow struct {
	Deps
}

func NewMarkNoShow(d Deps) *MarkNoShow {
	return &MarkNoShow{Deps: d.withDefaults()}
}

func (uc *MarkNoShow) Execute(
	ctx context.Context,
	p access.Principal,
	appointmentID uint,
) (*models.Appointment, error) {

	ap, err := operate(ctx, uc.Repo, p, appointmentID, domain.MarkNoShow)
	if err != nil {
		return nil, err
	}

	uc.published(ap, notify.AppointmentNoShow, p.UserID, "appointment_no_show")
	return ap, nil
}

// operate applies an operational transition to a locked appointment row.
func operate(
	ctx context.Context,
	repo domain.Repository,
	p access.Principal,
	appointmentID uint,
	transition func(*models.Appointment) error,
) (*models.Appointment, error) {

	var ap *models.Appointment
	err := repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		ap, err = tx.GetAppointmentForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if !access.CanOperate(p, ap.TherapistID) {
			return httperr.ErrBusiness(httperr.CodeUnauthorized)
		}
		if err := transition(ap); err != nil {
			return err
		}
		return tx.UpdateAppointment(ctx, ap)
	})
	if err != nil {
		return nil, err
	}
	return ap, nil
}
