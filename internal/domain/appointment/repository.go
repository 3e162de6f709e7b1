package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type ListFilter struct {
	// From and To bound start_time as [From, To). Zero means unbounded.
	From   time.Time
	To     time.Time
	Status string
}

// Lookups return a not_found business error for unknown ids.
type Repository interface {
	// -------- Transaction --------
	// Transaction runs fn in one database transaction. Repository calls
	// made through tx join it.
	Transaction(
		ctx context.Context,
		fn func(tx Repository) error,
	) error

	// LockTherapist serializes writers on one therapist's schedule until
	// the surrounding transaction ends.
	LockTherapist(
		ctx context.Context,
		therapistID uint,
	) error

	// -------- Catalog --------
	GetService(
		ctx context.Context,
		id uint,
	) (*models.Service, error)

	GetBranch(
		ctx context.Context,
		id uint,
	) (*models.Branch, error)

	GetTherapist(
		ctx context.Context,
		id uint,
	) (*models.TherapistProfile, error)

	// -------- Availability --------
	ListAvailability(
		ctx context.Context,
		therapistID uint,
		from time.Time,
		to time.Time,
	) ([]models.TherapistAvailability, error)

	ListHolidays(
		ctx context.Context,
		branchID uint,
		from time.Time,
		to time.Time,
	) ([]models.Holiday, error)

	// -------- Appointment --------
	GetAppointment(
		ctx context.Context,
		id uint,
	) (*models.Appointment, error)

	GetAppointmentForUpdate(
		ctx context.Context,
		id uint,
	) (*models.Appointment, error)

	// FindOverlapping returns the therapist's pending/confirmed
	// appointments overlapping [start, end).
	FindOverlapping(
		ctx context.Context,
		therapistID uint,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)

	CreateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	UpdateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	ListAppointments(
		ctx context.Context,
		scope access.Scope,
		filter ListFilter,
	) ([]models.Appointment, error)

	// CountByStatus counts distinct appointments per status.
	CountByStatus(
		ctx context.Context,
		scope access.Scope,
	) (map[string]int64, error)

	// -------- Billing --------
	HasCompletedPayment(
		ctx context.Context,
		appointmentID uint,
	) (bool, error)

	CreatePayment(
		ctx context.Context,
		p *models.Payment,
	) error

	// CreateInvoice stores inv, drawing a fresh number from nextNumber
	// whenever the current one is already taken.
	CreateInvoice(
		ctx context.Context,
		inv *models.Invoice,
		nextNumber func() string,
	) error

	ListPayments(
		ctx context.Context,
		scope access.Scope,
	) ([]models.Payment, error)

	ListInvoices(
		ctx context.Context,
		scope access.Scope,
	) ([]models.Invoice, error)

	GetInvoice(
		ctx context.Context,
		id uint,
	) (*models.Invoice, error)
}
