package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/lock"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/testfixtures"
)

func uintPtr(v uint) *uint { return &v }

// nopLocker grants every lock at once, leaving the database locks alone.
type nopLocker struct{}

func (nopLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

func newDeps(c *testfixtures.Clinic) Deps {
	return Deps{
		Repo:   c.Store.AppointmentRepo(),
		Locker: lock.NewLocalLocker(5 * time.Second),
		Clock:  c.Clock,
	}
}

// book is a customer booking against the default clinic catalog.
func book(t *testing.T, c *testfixtures.Clinic, d Deps, start time.Time) *models.Appointment {
	t.Helper()
	ap, err := NewBookAppointment(d).Execute(context.Background(), BookInput{
		Principal:   c.Customer,
		ServiceID:   c.Service.ID,
		BranchID:    c.Branch.ID,
		TherapistID: uintPtr(c.Therapist.ID),
		Start:       start,
	})
	if err != nil {
		t.Fatalf("book %s: %v", start.Format("15:04"), err)
	}
	return ap
}
