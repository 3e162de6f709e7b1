package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

type TherapistHandler struct {
	availability *ucAppointment.GetAvailability
}

func NewTherapistHandler(availability *ucAppointment.GetAvailability) *TherapistHandler {
	return &TherapistHandler{availability: availability}
}

// Availability lists concrete windows, plus bookable slots when
// service_id is given.
func (h *TherapistHandler) Availability(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	serviceID, ok := optionalUintQuery(c, "service_id")
	if !ok {
		invalidRequest(c)
		return
	}
	branchID, ok := optionalUintQuery(c, "branch_id")
	if !ok {
		invalidRequest(c)
		return
	}

	out, err := h.availability.Execute(c.Request.Context(), ucAppointment.AvailabilityInput{
		TherapistID: id,
		StartDate:   c.Query("start_date"),
		EndDate:     c.Query("end_date"),
		ServiceID:   serviceID,
		BranchID:    branchID,
	})
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.OK(c, out)
}
