package appointment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/lock"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
)

// ======================================================
// INPUT
// ======================================================

type BookInput struct {
	Principal access.Principal

	// CustomerID is required when an admin books on someone's behalf and
	// must be empty or the caller's own id otherwise.
	CustomerID *uint

	ServiceID   uint
	BranchID    uint
	TherapistID *uint
	Start       time.Time

	Notes         string
	CustomerNotes string
}

// ======================================================
// USE CASE
// ======================================================

type BookAppointment struct {
	Deps
}

func NewBookAppointment(d Deps) *BookAppointment {
	return &BookAppointment{Deps: d.withDefaults()}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *BookAppointment) Execute(
	ctx context.Context,
	in BookInput,
) (*models.Appointment, error) {

	ap, err := uc.book(ctx, in)
	uc.Metrics.Booking("book", outcome(err))
	if err != nil {
		return nil, err
	}

	uc.published(ap, notify.AppointmentCreated, in.Principal.UserID, "appointment_created")
	uc.Log.Info("appointment booked",
		zap.Uint("appointment_id", ap.ID),
		zap.Uint("therapist_id", ap.TherapistID),
		zap.Time("start_time", ap.StartTime),
	)
	return ap, nil
}

func (uc *BookAppointment) book(ctx context.Context, in BookInput) (*models.Appointment, error) {
	customerID, err := bookingCustomer(in.Principal, in.CustomerID)
	if err != nil {
		return nil, err
	}

	// Automatic assignment would pick a therapist here. Until it exists the
	// caller has to choose.
	if in.TherapistID == nil {
		return nil, httperr.ErrBusiness(httperr.CodeTherapistRequired)
	}
	therapistID := *in.TherapistID

	var created *models.Appointment
	err = uc.withLock(ctx, lock.TherapistKey(therapistID), func() error {
		return uc.Repo.Transaction(ctx, func(tx domain.Repository) error {
			if err := tx.LockTherapist(ctx, therapistID); err != nil {
				return err
			}

			end, err := validateSlot(ctx, tx, uc.Clock, SlotInput{
				TherapistID: therapistID,
				ServiceID:   in.ServiceID,
				BranchID:    in.BranchID,
				Start:       in.Start,
			})
			if err != nil {
				return err
			}

			ap := &models.Appointment{
				CustomerID:    customerID,
				TherapistID:   therapistID,
				ServiceID:     in.ServiceID,
				BranchID:      in.BranchID,
				StartTime:     in.Start,
				EndTime:       end,
				Status:        string(domain.InitialStatus()),
				Notes:         in.Notes,
				CustomerNotes: in.CustomerNotes,
			}
			if err := tx.CreateAppointment(ctx, ap); err != nil {
				return err
			}
			created = ap
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// bookingCustomer resolves whose appointment is being booked.
func bookingCustomer(p access.Principal, requested *uint) (uint, error) {
	switch p.Role {
	case access.RoleCustomer:
		if requested != nil && *requested != p.UserID {
			return 0, httperr.ErrBusiness(httperr.CodeUnauthorized)
		}
		return p.UserID, nil
	case access.RoleAdmin:
		if requested == nil || *requested == 0 {
			return 0, httperr.ErrBusiness(httperr.CodeInvalidRequest)
		}
		return *requested, nil
	}
	return 0, httperr.ErrBusiness(httperr.CodeUnauthorized)
}
