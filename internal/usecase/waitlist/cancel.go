package waitlist

import (
	"context"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/waitlist"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
)

// CancelEntry takes an entry out of its queue and closes the gap it
// leaves, so active positions stay 1..n.
type CancelEntry struct {
	Deps
}

func NewCancelEntry(d Deps) *CancelEntry {
	return &CancelEntry{Deps: d.withDefaults()}
}

func (uc *CancelEntry) Execute(
	ctx context.Context,
	p access.Principal,
	entryID uint,
) (*models.WaitlistEntry, error) {

	e, err := uc.cancel(ctx, p, entryID)
	uc.Metrics.Waitlist("cancel", outcome(err))
	if err != nil {
		return nil, err
	}

	uc.published(e, notify.WaitlistCancelled, p.UserID, "waitlist_cancelled")
	return e, nil
}

func (uc *CancelEntry) cancel(ctx context.Context, p access.Principal, entryID uint) (*models.WaitlistEntry, error) {
	current, err := uc.Repo.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !canManage(p, current) {
		return nil, httperr.ErrBusiness(httperr.CodeUnauthorized)
	}
	key := domain.KeyOf(current)

	var e *models.WaitlistEntry
	err = uc.withGroupLock(ctx, key, func() error {
		return uc.Repo.Transaction(ctx, func(tx domain.Repository) error {
			if err := tx.LockGroup(ctx, key); err != nil {
				return err
			}

			var err error
			e, err = tx.GetForUpdate(ctx, entryID)
			if err != nil {
				return err
			}

			position, err := domain.Cancel(e)
			if err != nil {
				return err
			}
			if err := tx.Update(ctx, e); err != nil {
				return err
			}
			if position > 0 {
				return tx.ShiftAfter(ctx, key, position)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func canManage(p access.Principal, e *models.WaitlistEntry) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Role == access.RoleCustomer && p.UserID == e.CustomerID
}
