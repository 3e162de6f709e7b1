package appointment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/lock"
	"github.com/BruksfildServices01/clinic-scheduler/internal/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

// Deps are the collaborators shared by the appointment use cases. Audit,
// Notify and Metrics may be nil.
type Deps struct {
	Repo    domain.Repository
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

// withLock runs fn while holding the named lock.
func (d Deps) withLock(ctx context.Context, key string, fn func() error) error {
	return d.withLockTTL(ctx, key, d.LockTTL, fn)
}

// withLockTTL is withLock for paths that need the lock longer than LockTTL.
func (d Deps) withLockTTL(ctx context.Context, key string, ttl time.Duration, fn func() error) error {
	started := time.Now()
	release, err := d.Locker.Acquire(ctx, key, ttl)
	d.Metrics.LockWaited(time.Since(started).Seconds())
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// published records the outcome of a committed status change.
func (d Deps) published(ap *models.Appointment, eventType string, actorID uint, action string) {
	d.Metrics.Transition(ap.Status)
	d.Notify.Notify(notify.Event{
		Type:       eventType,
		EntityID:   ap.ID,
		Status:     ap.Status,
		CustomerID: ap.CustomerID,
	})
	d.Audit.Dispatch(audit.Event{
		ActorID:  &actorID,
		Action:   action,
		Entity:   "appointment",
		EntityID: &ap.ID,
		Metadata: map[string]any{
			"status":       ap.Status,
			"therapist_id": ap.TherapistID,
			"start_time":   ap.StartTime,
		},
	})
}

// outcome is the metrics label for err.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if code, ok := httperr.CodeOf(err); ok {
		return code
	}
	return "error"
}
