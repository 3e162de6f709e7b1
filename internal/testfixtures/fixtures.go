package testfixtures

import (
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

var referenceTime = time.Date(2030, time.June, 3, 8, 0, 0, 0, time.UTC)

// ReferenceTime is "now" for every fixture: 08:00 UTC on a Monday.
func ReferenceTime() time.Time {
	return referenceTime
}

// Today returns hour:minute on the reference day.
func Today(hour, minute int) time.Time {
	y, m, d := referenceTime.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, time.UTC)
}

// Clinic is the baseline catalog: one branch, one 60 minute service priced
// 90.00, and one therapist open 09:00-17:00 on the reference day.
type Clinic struct {
	Store     *Store
	Clock     *Clock
	Branch    models.Branch
	Service   models.Service
	Therapist models.TherapistProfile
	Window    models.TherapistAvailability

	Admin    access.Principal
	Customer access.Principal
	Other    access.Principal
	Staff    access.Principal
	Visitor  access.Principal
}

func NewClinic() *Clinic {
	s := NewStore()

	branch := s.AddBranch(models.Branch{Name: "Downtown", Timezone: "UTC", Active: true})
	svc := s.AddService(models.Service{
		Name:        "Deep tissue massage",
		Description: "60 minute session",
		DurationMin: 60,
		Price:       90.00,
		Active:      true,
	}, branch.ID)
	therapist := s.AddTherapist(models.TherapistProfile{
		UserID: 500,
		Name:   "Ana",
		Active: true,
	}, []uint{branch.ID}, []uint{svc.ID})
	window := s.AddAvailability(models.TherapistAvailability{
		TherapistID: therapist.ID,
		StartTime:   Today(9, 0),
		EndTime:     Today(17, 0),
		IsAvailable: true,
	})

	therapistProfile := therapist.ID
	return &Clinic{
		Store:     s,
		Clock:     NewClock(referenceTime),
		Branch:    branch,
		Service:   svc,
		Therapist: therapist,
		Window:    window,

		Admin:    access.Principal{UserID: 1, Role: access.RoleAdmin},
		Customer: access.Principal{UserID: 100, Role: access.RoleCustomer},
		Other:    access.Principal{UserID: 101, Role: access.RoleCustomer},
		Staff:    access.Principal{UserID: therapist.UserID, Role: access.RoleTherapist, TherapistProfileID: &therapistProfile},
		Visitor:  access.Principal{UserID: 999, Role: access.RoleVisitor},
	}
}

// AddTherapist adds a second qualified therapist with the same 09:00-17:00
// window.
func (c *Clinic) AddTherapist(name string, userID uint) models.TherapistProfile {
	t := c.Store.AddTherapist(models.TherapistProfile{
		UserID: userID,
		Name:   name,
		Active: true,
	}, []uint{c.Branch.ID}, []uint{c.Service.ID})
	c.Store.AddAvailability(models.TherapistAvailability{
		TherapistID: t.ID,
		StartTime:   Today(9, 0),
		EndTime:     Today(17, 0),
		IsAvailable: true,
	})
	return t
}
