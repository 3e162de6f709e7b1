package waitlist

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/waitlist"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/lock"
	"github.com/BruksfildServices01/clinic-scheduler/internal/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

// Catalog is the read-only view of services, branches and therapists the
// waitlist validates against.
type Catalog interface {
	GetService(ctx context.Context, id uint) (*models.Service, error)
	GetBranch(ctx context.Context, id uint) (*models.Branch, error)
	GetTherapist(ctx context.Context, id uint) (*models.TherapistProfile, error)
}

type Deps struct {
	Repo    domain.Repository
	Catalog Catalog
	Locker  lock.Locker
	LockTTL time.Duration
	Clock   timezone.Clock
	Audit   *audit.Dispatcher
	Notify  *notify.Dispatcher
	Metrics *metrics.Collector
	Log     *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Locker == nil {
		d.Locker = lock.NewLocalLocker(3 * time.Second)
	}
	if d.LockTTL <= 0 {
		d.LockTTL = 10 * time.Second
	}
	if d.Clock == nil {
		d.Clock = timezone.SystemClock()
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return d
}

// withGroupLock runs fn while holding the queue's lock.
func (d Deps) withGroupLock(ctx context.Context, key domain.Key, fn func() error) error {
	started := time.Now()
	release, err := d.Locker.Acquire(ctx, lock.WaitlistKey(key.String()), d.LockTTL)
	d.Metrics.LockWaited(time.Since(started).Seconds())
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func (d Deps) published(e *models.WaitlistEntry, eventType string, actorID uint, action string) {
	d.Notify.Notify(notify.Event{
		Type:       eventType,
		EntityID:   e.ID,
		Status:     e.Status,
		CustomerID: e.CustomerID,
	})
	d.Audit.Dispatch(audit.Event{
		ActorID:  &actorID,
		Action:   action,
		Entity:   "waitlist",
		EntityID: &e.ID,
		Metadata: map[string]any{
			"status":   e.Status,
			"position": e.Position,
			"queue":    domain.KeyOf(e).String(),
		},
	})
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if code, ok := httperr.CodeOf(err); ok {
		return code
	}
	return "error"
}
