package models

import "time"

type Branch struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Timezone string `gorm:"size:64;default:'UTC'" json:"timezone"`
	Active   bool   `gorm:"not null" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Holiday closes one branch, or every branch when BranchID is nil, for an
// inclusive range of calendar dates.
type Holiday struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	BranchID *uint   `gorm:"index" json:"branch_id"`
	Branch   *Branch `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`

	StartDate time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate   time.Time `gorm:"type:date;not null" json:"end_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
