package dto

import (
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type AppointmentListDTO struct {
	ID          uint      `json:"id"`
	CustomerID  uint      `json:"customer_id"`
	TherapistID uint      `json:"therapist_id"`
	ServiceID   uint      `json:"service_id"`
	BranchID    uint      `json:"branch_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
}

func AppointmentList(aps []models.Appointment) []AppointmentListDTO {
	out := make([]AppointmentListDTO, 0, len(aps))
	for _, ap := range aps {
		out = append(out, AppointmentListDTO{
			ID:          ap.ID,
			CustomerID:  ap.CustomerID,
			TherapistID: ap.TherapistID,
			ServiceID:   ap.ServiceID,
			BranchID:    ap.BranchID,
			StartTime:   ap.StartTime,
			EndTime:     ap.EndTime,
			Status:      ap.Status,
		})
	}
	return out
}

type AppointmentSummaryDTO struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}
