package waitlist

import (
	"fmt"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusNotified  Status = "notified"
	StatusBooked    Status = "booked"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// IsResolved reports whether the entry left the queue for good.
func (s Status) IsResolved() bool {
	switch s {
	case StatusCancelled, StatusExpired, StatusBooked:
		return true
	}
	return false
}

// Key identifies one queue. A nil TherapistID is a queue of its own, not a
// wildcard over every therapist.
type Key struct {
	ServiceID   uint
	BranchID    uint
	TherapistID *uint
}

func KeyOf(e *models.WaitlistEntry) Key {
	return Key{
		ServiceID:   e.ServiceID,
		BranchID:    e.BranchID,
		TherapistID: e.TherapistID,
	}
}

// Matches reports whether e belongs to the queue.
func (k Key) Matches(e *models.WaitlistEntry) bool {
	if e.ServiceID != k.ServiceID || e.BranchID != k.BranchID {
		return false
	}
	if k.TherapistID == nil || e.TherapistID == nil {
		return k.TherapistID == nil && e.TherapistID == nil
	}
	return *k.TherapistID == *e.TherapistID
}

// String is the lock name of the queue.
func (k Key) String() string {
	therapist := "any"
	if k.TherapistID != nil {
		therapist = fmt.Sprint(*k.TherapistID)
	}
	return fmt.Sprintf("waitlist:%d:%d:%s", k.ServiceID, k.BranchID, therapist)
}

// Cancel marks e cancelled and returns the position whose active followers
// must move up. Notified entries still hold their place in the queue, so
// cancelling one closes the gap as well.
func Cancel(e *models.WaitlistEntry) (int, error) {
	if Status(e.Status).IsResolved() {
		return 0, httperr.ErrBusiness(httperr.CodeAlreadyResolved)
	}

	e.Status = string(StatusCancelled)
	return e.Position, nil
}
