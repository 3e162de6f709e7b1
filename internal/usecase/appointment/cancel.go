package appointment

import (
	"context"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
)

type CancelAppointment struct {
	Deps
}

func NewCancelAppointment(d Deps) *CancelAppointment {
	return &CancelAppointment{Deps: d.withDefaults()}
}

func (uc *CancelAppointment) Execute(
	ctx context.Context,
	p access.Principal,
	appointmentID uint,
) (*models.Appointment, error) {

	var ap *models.Appointment
	err := uc.Repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		ap, err = tx.GetAppointmentForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if !access.CanActOn(p, ap.CustomerID, ap.TherapistID) {
			return httperr.ErrBusiness(httperr.CodeUnauthorized)
		}
		if err := domain.Cancel(ap, uc.Clock.Now()); err != nil {
			return err
		}
		return tx.UpdateAppointment(ctx, ap)
	})
	if err != nil {
		return nil, err
	}

	uc.published(ap, notify.AppointmentCancelled, p.UserID, "appointment_cancelled")
	return ap, nil
}
