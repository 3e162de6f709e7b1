package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	domainWaitlist "github.com/BruksfildServices01/clinic-scheduler/internal/domain/waitlist"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	ucWaitlist "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/waitlist"
)

type WaitlistHandler struct {
	enqueue *ucWaitlist.Enqueue
	cancel  *ucWaitlist.CancelEntry
	list    *ucWaitlist.ListEntries
	get     *ucWaitlist.GetEntry
}

func NewWaitlistHandler(
	enqueue *ucWaitlist.Enqueue,
	cancel *ucWaitlist.CancelEntry,
	list *ucWaitlist.ListEntries,
	get *ucWaitlist.GetEntry,
) *WaitlistHandler {
	return &WaitlistHandler{enqueue: enqueue, cancel: cancel, list: list, get: get}
}

type EnqueueRequest struct {
	CustomerID         *uint             `json:"customer_id"`
	ServiceID          uint              `json:"service_id" binding:"required"`
	BranchID           uint              `json:"branch_id" binding:"required"`
	TherapistID        *uint             `json:"therapist_id"`
	PreferredDate      string            `json:"preferred_date" binding:"required"`
	PreferredTimeSlots []models.TimeSlot `json:"preferred_time_slots"`
	Notes              string            `json:"notes" binding:"max=255"`
}

func (h *WaitlistHandler) Enqueue(c *gin.Context) {
	var req EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}

	date, err := time.Parse("2006-01-02", req.PreferredDate)
	if err != nil {
		invalidRequest(c)
		return
	}

	e, err := h.enqueue.Execute(c.Request.Context(), ucWaitlist.EnqueueInput{
		Principal:          middleware.Principal(c),
		CustomerID:         req.CustomerID,
		ServiceID:          req.ServiceID,
		BranchID:           req.BranchID,
		TherapistID:        req.TherapistID,
		PreferredDate:      date,
		PreferredTimeSlots: req.PreferredTimeSlots,
		Notes:              req.Notes,
	})
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.Created(c, e)
}

func (h *WaitlistHandler) List(c *gin.Context) {
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

	entries, err := h.list.Execute(c.Request.Context(), middleware.Principal(c), domainWaitlist.ListFilter{
		ServiceID: serviceID,
		BranchID:  branchID,
		Status:    c.Query("status"),
	})
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.List(c, entries)
}

func (h *WaitlistHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	e, err := h.get.Execute(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	httpresp.OK(c, e)
}

func (h *WaitlistHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	e, err := h.cancel.Execute(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	httpresp.OK(c, e)
}
