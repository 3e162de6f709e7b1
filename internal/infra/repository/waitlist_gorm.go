package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/waitlist"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type WaitlistGormRepository struct {
	db      *gorm.DB
	onRetry func()
}

func NewWaitlistGormRepository(db *gorm.DB, onRetry func()) *WaitlistGormRepository {
	return &WaitlistGormRepository{db: db, onRetry: onRetry}
}

var _ waitlist.Repository = (*WaitlistGormRepository)(nil)

func (r *WaitlistGormRepository) Transaction(
	ctx context.Context,
	fn func(tx waitlist.Repository) error,
) error {
	return runTx(ctx, r.db, r.onRetry, func(tx *gorm.DB) error {
		return fn(&WaitlistGormRepository{db: tx, onRetry: r.onRetry})
	})
}

func (r *WaitlistGormRepository) LockGroup(
	ctx context.Context,
	key waitlist.Key,
) error {
	return advisoryLockKey(ctx, r.db, lockNSWaitlist, key.String())
}

// inGroup filters rows to one queue. A nil therapist is its own queue.
func inGroup(db *gorm.DB, key waitlist.Key) *gorm.DB {
	db = db.Where("service_id = ? AND branch_id = ?", key.ServiceID, key.BranchID)
	if key.TherapistID == nil {
		return db.Where("therapist_id IS NULL")
	}
	return db.Where("therapist_id = ?", *key.TherapistID)
}

func (r *WaitlistGormRepository) CountActive(
	ctx context.Context,
	key waitlist.Key,
) (int64, error) {

	var n int64
	if err := inGroup(r.db.WithContext(ctx).Model(&models.WaitlistEntry{}), key).
		Where("status = ?", waitlist.StatusActive).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *WaitlistGormRepository) Create(
	ctx context.Context,
	e *models.WaitlistEntry,
) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *WaitlistGormRepository) Get(
	ctx context.Context,
	id uint,
) (*models.WaitlistEntry, error) {

	var e models.WaitlistEntry
	if err := r.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (r *WaitlistGormRepository) GetForUpdate(
	ctx context.Context,
	id uint,
) (*models.WaitlistEntry, error) {

	var e models.WaitlistEntry
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&e, id).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (r *WaitlistGormRepository) Update(
	ctx context.Context,
	e *models.WaitlistEntry,
) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *WaitlistGormRepository) ShiftAfter(
	ctx context.Context,
	key waitlist.Key,
	position int,
) error {
	return inGroup(r.db.WithContext(ctx).Model(&models.WaitlistEntry{}), key).
		Where("status = ? AND position > ?", waitlist.StatusActive, position).
		UpdateColumn("position", gorm.Expr("position - 1")).
		Error
}

func (r *WaitlistGormRepository) List(
	ctx context.Context,
	scope access.Scope,
	filter waitlist.ListFilter,
) ([]models.WaitlistEntry, error) {

	q := scope.Apply(r.db.WithContext(ctx).Model(&models.WaitlistEntry{}))
	if filter.ServiceID != nil {
		q = q.Where("service_id = ?", *filter.ServiceID)
	}
	if filter.BranchID != nil {
		q = q.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var out []models.WaitlistEntry
	if err := q.Order("position ASC, created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
