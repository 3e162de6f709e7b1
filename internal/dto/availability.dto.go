package dto

import "time"

// AvailabilityWindowDTO is one concrete window of a therapist's schedule.
// Slots is only filled when a service was requested.
type AvailabilityWindowDTO struct {
	AvailabilityID uint        `json:"availability_id"`
	StartTime      time.Time   `json:"start_time"`
	EndTime        time.Time   `json:"end_time"`
	IsAvailable    bool        `json:"is_available"`
	BranchID       *uint       `json:"branch_id"`
	ServiceID      *uint       `json:"service_id"`
	Slots          []time.Time `json:"slots,omitempty"`
}

type AvailabilityDTO struct {
	TherapistID uint                    `json:"therapist_id"`
	Timezone    string                  `json:"timezone"`
	Windows     []AvailabilityWindowDTO `json:"windows"`
}
