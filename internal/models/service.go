package models

import "time"

type Service struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"size:100;not null" json:"name"`
	Description string  `gorm:"size:255" json:"description"`
	Category    string  `gorm:"size:50" json:"category"`
	DurationMin int     `gorm:"not null" json:"duration_min"`
	Price       float64 `gorm:"type:numeric(10,2);not null" json:"price"`
	Active      bool    `gorm:"not null" json:"active"`

	Branches []Branch `gorm:"many2many:service_branches;" json:"branches,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OfferedAt reports whether the service is bookable at branchID.
// Branches must be preloaded.
func (s *Service) OfferedAt(branchID uint) bool {
	for _, b := range s.Branches {
		if b.ID == branchID {
			return true
		}
	}
	return false
}

func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMin) * time.Minute
}
