package models

import "time"

// TimeSlot is a clock range on the preferred date, "HH:MM" each side.
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type WaitlistEntry struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CustomerID  uint  `gorm:"index;not null" json:"customer_id"`
	ServiceID   uint  `gorm:"index:idx_waitlist_group;not null" json:"service_id"`
	BranchID    uint  `gorm:"index:idx_waitlist_group;not null" json:"branch_id"`
	TherapistID *uint `gorm:"index:idx_waitlist_group" json:"therapist_id"`

	PreferredDate      time.Time  `gorm:"type:date;not null" json:"preferred_date"`
	PreferredTimeSlots []TimeSlot `gorm:"type:text;serializer:json" json:"preferred_time_slots"`

	Status   string `gorm:"size:20;default:'active'" json:"status"`
	Notes    string `gorm:"size:255" json:"notes"`
	Position int    `gorm:"not null" json:"position"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist"
}
