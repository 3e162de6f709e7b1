package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type AppointmentGormRepository struct {
	db      *gorm.DB
	onRetry func()
}

func NewAppointmentGormRepository(db *gorm.DB, onRetry func()) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db, onRetry: onRetry}
}

var _ domain.Repository = (*AppointmentGormRepository)(nil)

// --------------------------------------------------
// Transaction
// --------------------------------------------------

func (r *AppointmentGormRepository) Transaction(
	ctx context.Context,
	fn func(tx domain.Repository) error,
) error {
	return runTx(ctx, r.db, r.onRetry, func(tx *gorm.DB) error {
		return fn(&AppointmentGormRepository{db: tx, onRetry: r.onRetry})
	})
}

func (r *AppointmentGormRepository) LockTherapist(
	ctx context.Context,
	therapistID uint,
) error {
	return advisoryLock(ctx, r.db, lockNSTherapist, therapistID)
}

// --------------------------------------------------
// Catalog
// --------------------------------------------------

func (r *AppointmentGormRepository) GetService(
	ctx context.Context,
	id uint,
) (*models.Service, error) {

	var svc models.Service
	if err := r.db.WithContext(ctx).
		Preload("Branches").
		First(&svc, id).Error; err != nil {
		return nil, translate(err)
	}
	return &svc, nil
}

func (r *AppointmentGormRepository) GetBranch(
	ctx context.Context,
	id uint,
) (*models.Branch, error) {

	var branch models.Branch
	if err := r.db.WithContext(ctx).First(&branch, id).Error; err != nil {
		return nil, translate(err)
	}
	return &branch, nil
}

func (r *AppointmentGormRepository) GetTherapist(
	ctx context.Context,
	id uint,
) (*models.TherapistProfile, error) {

	var t models.TherapistProfile
	if err := r.db.WithContext(ctx).
		Preload("Branches").
		Preload("Services").
		First(&t, id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// --------------------------------------------------
// Availability
// --------------------------------------------------

// ListAvailability returns one-off rows overlapping [from, to) and every
// recurring row that may still produce an occurrence in it.
func (r *AppointmentGormRepository) ListAvailability(
	ctx context.Context,
	therapistID uint,
	from time.Time,
	to time.Time,
) ([]models.TherapistAvailability, error) {

	// recurrence_end_date is a branch-local date; a day of slack covers
	// every timezone offset.
	lastDay := from.AddDate(0, 0, -1).Format("2006-01-02")

	var rows []models.TherapistAvailability
	if err := r.db.WithContext(ctx).
		Where("therapist_id = ? AND start_time < ?", therapistID, to).
		Where(
			r.db.Where("recurrence = ? AND end_time > ?", models.RecurrenceNone, from).
				Or("recurrence <> ? AND (recurrence_end_date IS NULL OR recurrence_end_date >= ?)", models.RecurrenceNone, lastDay),
		).
		Order("start_time ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentGormRepository) ListHolidays(
	ctx context.Context,
	branchID uint,
	from time.Time,
	to time.Time,
) ([]models.Holiday, error) {

	var hs []models.Holiday
	if err := r.db.WithContext(ctx).
		Where("branch_id IS NULL OR branch_id = ?", branchID).
		Where("start_date <= ? AND end_date >= ?",
			to.AddDate(0, 0, 1).Format("2006-01-02"),
			from.AddDate(0, 0, -1).Format("2006-01-02"),
		).
		Find(&hs).Error; err != nil {
		return nil, err
	}
	return hs, nil
}

// --------------------------------------------------
// Appointment
// --------------------------------------------------

func (r *AppointmentGormRepository) GetAppointment(
	ctx context.Context,
	id uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).First(&ap, id).Error; err != nil {
		return nil, translate(err)
	}
	return &ap, nil
}

func (r *AppointmentGormRepository) GetAppointmentForUpdate(
	ctx context.Context,
	id uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&ap, id).Error; err != nil {
		return nil, translate(err)
	}
	return &ap, nil
}

func (r *AppointmentGormRepository) FindOverlapping(
	ctx context.Context,
	therapistID uint,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Where(
			"therapist_id = ? AND status IN ? AND start_time < ? AND end_time > ?",
			therapistID, domain.ActiveStatuses, end, start,
		).
		Order("start_time ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *AppointmentGormRepository) CreateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return translate(r.db.WithContext(ctx).Create(ap).Error)
}

func (r *AppointmentGormRepository) UpdateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return translate(r.db.WithContext(ctx).Save(ap).Error)
}

func (r *AppointmentGormRepository) ListAppointments(
	ctx context.Context,
	scope access.Scope,
	filter domain.ListFilter,
) ([]models.Appointment, error) {

	q := scope.Apply(r.db.WithContext(ctx).Model(&models.Appointment{}))
	if !filter.From.IsZero() {
		q = q.Where("start_time >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("start_time < ?", filter.To)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var apps []models.Appointment
	if err := q.Order("start_time DESC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *AppointmentGormRepository) CountByStatus(
	ctx context.Context,
	scope access.Scope,
) (map[string]int64, error) {

	var rows []struct {
		Status string
		N      int64
	}
	if err := scope.Apply(r.db.WithContext(ctx).Model(&models.Appointment{})).
		Select("status, COUNT(DISTINCT id) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

// --------------------------------------------------
// Billing
// --------------------------------------------------

func (r *AppointmentGormRepository) HasCompletedPayment(
	ctx context.Context,
	appointmentID uint,
) (bool, error) {

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("appointment_id = ? AND status = ?", appointmentID, models.PaymentCompleted).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *AppointmentGormRepository) CreatePayment(
	ctx context.Context,
	p *models.Payment,
) error {
	return r.db.WithContext(ctx).Create(p).Error
}

const maxInvoiceNumberAttempts = 5

// CreateInvoice inserts under a savepoint per attempt, so a number
// collision does not abort the enclosing transaction.
func (r *AppointmentGormRepository) CreateInvoice(
	ctx context.Context,
	inv *models.Invoice,
	nextNumber func() string,
) error {

	var err error
	for attempt := 0; attempt < maxInvoiceNumberAttempts; attempt++ {
		if inv.InvoiceNumber == "" {
			inv.InvoiceNumber = nextNumber()
		}
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Create(inv).Error
		})
		if err == nil || !isUniqueViolation(err) {
			return err
		}
		inv.ID = 0
		inv.InvoiceNumber = ""
	}
	return err
}

func (r *AppointmentGormRepository) ListPayments(
	ctx context.Context,
	scope access.Scope,
) ([]models.Payment, error) {

	q := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Joins("JOIN appointments ON appointments.id = payments.appointment_id")
	q = scope.ApplyColumns(q, "appointments.customer_id", "appointments.therapist_id")

	var ps []models.Payment
	if err := q.Order("payments.created_at DESC").Find(&ps).Error; err != nil {
		return nil, err
	}
	return ps, nil
}

func (r *AppointmentGormRepository) ListInvoices(
	ctx context.Context,
	scope access.Scope,
) ([]models.Invoice, error) {

	q := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Joins("LEFT JOIN appointments ON appointments.id = invoices.appointment_id")
	q = scope.ApplyColumns(q, "invoices.customer_id", "appointments.therapist_id")

	var invs []models.Invoice
	if err := q.Order("invoices.issue_date DESC, invoices.id DESC").Find(&invs).Error; err != nil {
		return nil, err
	}
	return invs, nil
}

func (r *AppointmentGormRepository) GetInvoice(
	ctx context.Context,
	id uint,
) (*models.Invoice, error) {

	var inv models.Invoice
	if err := r.db.WithContext(ctx).First(&inv, id).Error; err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}
