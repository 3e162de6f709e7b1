// Package lock provides short-lived named locks that serialize writers on
// one therapist's schedule or one waitlist queue.
package lock

import (
	"context"
	"strconv"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
)

// Locker acquires the named lock, waiting at most until ctx ends or the
// locker's own wait budget runs out. The returned release func is safe to
// call more than once.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// ErrBusy is returned when a lock could not be taken in time.
var ErrBusy = httperr.ErrBusiness(httperr.CodeBusy)

func TherapistKey(therapistID uint) string {
	return "lock:therapist:" + strconv.FormatUint(uint64(therapistID), 10)
}

func AppointmentKey(appointmentID uint) string {
	return "lock:appointment:" + strconv.FormatUint(uint64(appointmentID), 10)
}

// WaitlistKey locks one waitlist queue; group is the queue's own key.
func WaitlistKey(group string) string {
	return "lock:" + group
}
