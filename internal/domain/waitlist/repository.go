package waitlist

import (
	"context"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type ListFilter struct {
	ServiceID *uint
	BranchID  *uint
	Status    string
}

type Repository interface {
	Transaction(
		ctx context.Context,
		fn func(tx Repository) error,
	) error

	// LockGroup serializes writers on one queue until the surrounding
	// transaction ends.
	LockGroup(
		ctx context.Context,
		key Key,
	) error

	CountActive(
		ctx context.Context,
		key Key,
	) (int64, error)

	Create(
		ctx context.Context,
		e *models.WaitlistEntry,
	) error

	Get(
		ctx context.Context,
		id uint,
	) (*models.WaitlistEntry, error)

	GetForUpdate(
		ctx context.Context,
		id uint,
	) (*models.WaitlistEntry, error)

	Update(
		ctx context.Context,
		e *models.WaitlistEntry,
	) error

	// ShiftAfter moves every active entry of the queue behind position
	// one place forward, in a single statement.
	ShiftAfter(
		ctx context.Context,
		key Key,
		position int,
	) error

	// List returns entries ordered by position, then created_at.
	List(
		ctx context.Context,
		scope access.Scope,
		filter ListFilter,
	) ([]models.WaitlistEntry, error)
}
