package models

import "time"

type TherapistProfile struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Name   string `gorm:"size:100;not null" json:"name"`
	Title  string `gorm:"size:100" json:"title"`
	Active bool   `gorm:"not null" json:"active"`

	Branches []Branch  `gorm:"many2many:therapist_branches;" json:"branches,omitempty"`
	Services []Service `gorm:"many2many:therapist_services;" json:"services,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Offers reports whether the therapist works at branchID and performs
// serviceID. Branches and Services must be preloaded.
func (t *TherapistProfile) Offers(serviceID, branchID uint) bool {
	var hasService, hasBranch bool
	for _, s := range t.Services {
		if s.ID == serviceID {
			hasService = true
			break
		}
	}
	for _, b := range t.Branches {
		if b.ID == branchID {
			hasBranch = true
			break
		}
	}
	return hasService && hasBranch
}

const (
	RecurrenceNone     = "none"
	RecurrenceDaily    = "daily"
	RecurrenceWeekly   = "weekly"
	RecurrenceBiweekly = "biweekly"
	RecurrenceMonthly  = "monthly"
)

// TherapistAvailability is a working window (IsAvailable) or a blocked
// window. A nil BranchID or ServiceID matches every branch or service.
type TherapistAvailability struct {
	ID          uint  `gorm:"primaryKey" json:"id"`
	TherapistID uint  `gorm:"index;not null" json:"therapist_id"`
	BranchID    *uint `json:"branch_id"`
	ServiceID   *uint `json:"service_id"`

	StartTime   time.Time `gorm:"not null" json:"start_time"`
	EndTime     time.Time `gorm:"not null" json:"end_time"`
	IsAvailable bool      `gorm:"not null" json:"is_available"`

	Recurrence        string     `gorm:"size:20;default:'none'" json:"recurrence"`
	RecurrenceEndDate *time.Time `gorm:"type:date" json:"recurrence_end_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TherapistAvailability) TableName() string {
	return "therapist_availability"
}

// Matches reports whether the window applies to the branch and service.
func (w *TherapistAvailability) Matches(branchID, serviceID uint) bool {
	if w.BranchID != nil && *w.BranchID != branchID {
		return false
	}
	if w.ServiceID != nil && *w.ServiceID != serviceID {
		return false
	}
	return true
}
