package waitlist

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/waitlist"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
)

// ======================================================
// INPUT
// ======================================================

type EnqueueInput struct {
	Principal access.Principal

	// CustomerID is only read for admins enqueuing someone else.
	CustomerID *uint

	ServiceID   uint
	BranchID    uint
	TherapistID *uint

	PreferredDate      time.Time
	PreferredTimeSlots []models.TimeSlot
	Notes              string
}

// ======================================================
// USE CASE
// ======================================================

type Enqueue struct {
	Deps
}

func NewEnqueue(d Deps) *Enqueue {
	return &Enqueue{Deps: d.withDefaults()}
}

func (uc *Enqueue) Execute(
	ctx context.Context,
	in EnqueueInput,
) (*models.WaitlistEntry, error) {

	e, err := uc.enqueue(ctx, in)
	uc.Metrics.Waitlist("enqueue", outcome(err))
	if err != nil {
		return nil, err
	}

	uc.published(e, notify.WaitlistEnqueued, in.Principal.UserID, "waitlist_enqueued")
	uc.Log.Info("waitlist entry created",
		zap.Uint("entry_id", e.ID),
		zap.String("queue", domain.KeyOf(e).String()),
		zap.Int("position", e.Position),
	)
	return e, nil
}

func (uc *Enqueue) enqueue(ctx context.Context, in EnqueueInput) (*models.WaitlistEntry, error) {
	customerID, err := entryCustomer(in.Principal, in.CustomerID)
	if err != nil {
		return nil, err
	}
	if in.PreferredDate.IsZero() || !validSlots(in.PreferredTimeSlots) {
		return nil, httperr.ErrBusiness(httperr.CodeInvalidRequest)
	}

	// --------------------------------------------------
	// Catalog checks
	// --------------------------------------------------
	svc, err := uc.Catalog.GetService(ctx, in.ServiceID)
	if err != nil {
		if httperr.IsBusiness(err, httperr.CodeNotFound) {
			return nil, httperr.ErrBusiness(httperr.CodeInvalidService)
		}
		return nil, err
	}
	if !svc.Active || !svc.OfferedAt(in.BranchID) {
		return nil, httperr.ErrBusiness(httperr.CodeInvalidService)
	}
	branch, err := uc.Catalog.GetBranch(ctx, in.BranchID)
	if err != nil || !branch.Active {
		if err != nil && !httperr.IsBusiness(err, httperr.CodeNotFound) {
			return nil, err
		}
		return nil, httperr.ErrBusiness(httperr.CodeInvalidService)
	}
	if in.TherapistID != nil {
		if _, err := uc.Catalog.GetTherapist(ctx, *in.TherapistID); err != nil {
			return nil, err
		}
	}

	// --------------------------------------------------
	// Append to the queue
	// --------------------------------------------------
	e := &models.WaitlistEntry{
		CustomerID:         customerID,
		ServiceID:          in.ServiceID,
		BranchID:           in.BranchID,
		TherapistID:        in.TherapistID,
		PreferredDate:      in.PreferredDate,
		PreferredTimeSlots: in.PreferredTimeSlots,
		Status:             string(domain.StatusActive),
		Notes:              in.Notes,
		CreatedAt:          uc.Clock.Now(),
	}
	key := domain.KeyOf(e)

	err = uc.withGroupLock(ctx, key, func() error {
		return uc.Repo.Transaction(ctx, func(tx domain.Repository) error {
			if err := tx.LockGroup(ctx, key); err != nil {
				return err
			}
			n, err := tx.CountActive(ctx, key)
			if err != nil {
				return err
			}
			e.Position = int(n) + 1
			return tx.Create(ctx, e)
		})
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func entryCustomer(p access.Principal, requested *uint) (uint, error) {
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

// validSlots accepts an empty list or HH:MM ranges with start before end.
func validSlots(slots []models.TimeSlot) bool {
	for _, s := range slots {
		start, err := time.Parse("15:04", s.Start)
		if err != nil {
			return false
		}
		end, err := time.Parse("15:04", s.End)
		if err != nil {
			return false
		}
		if !start.Before(end) {
			return false
		}
	}
	return true
}
