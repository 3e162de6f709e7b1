package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	book       *ucAppointment.BookAppointment
	cancel     *ucAppointment.CancelAppointment
	reschedule *ucAppointment.RescheduleAppointment
	complete   *ucAppointment.CompleteAppointment
	noShow     *ucAppointment.MarkNoShow
	confirm    *ucAppointment.ConfirmViaPayment
	list       *ucAppointment.ListAppointments
	get        *ucAppointment.GetAppointment
	summary    *ucAppointment.Summary
}

func NewAppointmentHandler(
	book *ucAppointment.BookAppointment,
	cancel *ucAppointment.CancelAppointment,
	reschedule *ucAppointment.RescheduleAppointment,
	complete *ucAppointment.CompleteAppointment,
	noShow *ucAppointment.MarkNoShow,
	confirm *ucAppointment.ConfirmViaPayment,
	list *ucAppointment.ListAppointments,
	get *ucAppointment.GetAppointment,
	summary *ucAppointment.Summary,
) *AppointmentHandler {
	return &AppointmentHandler{
		book:       book,
		cancel:     cancel,
		reschedule: reschedule,
		complete:   complete,
		noShow:     noShow,
		confirm:    confirm,
		list:       list,
		get:        get,
		summary:    summary,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type BookAppointmentRequest struct {
	CustomerID    *uint     `json:"customer_id"`
	ServiceID     uint      `json:"service_id" binding:"required"`
	BranchID      uint      `json:"branch_id" binding:"required"`
	TherapistID   *uint     `json:"therapist_id"`
	StartTime     time.Time `json:"start_time" binding:"required"`
	Notes         string    `json:"notes" binding:"max=255"`
	CustomerNotes string    `json:"customer_notes" binding:"max=255"`
}

type RescheduleRequest struct {
	StartTime   time.Time `json:"start_time" binding:"required"`
	TherapistID *uint     `json:"therapist_id"`
}

type PayRequest struct {
	PaymentMethod   string `json:"payment_method" binding:"required"`
	CardToken       string `json:"card_token"`
	PaymentMethodID string `json:"payment_method_id"`
	Installments    int    `json:"installments" binding:"min=0"`
	PayerEmail      string `json:"payer_email" binding:"omitempty,email"`
}

// ======================================================
// BOOK
// ======================================================

func (h *AppointmentHandler) Book(c *gin.Context) {
	var req BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}

	ap, err := h.book.Execute(c.Request.Context(), ucAppointment.BookInput{
		Principal:     middleware.Principal(c),
		CustomerID:    req.CustomerID,
		ServiceID:     req.ServiceID,
		BranchID:      req.BranchID,
		TherapistID:   req.TherapistID,
		Start:         req.StartTime,
		Notes:         req.Notes,
		CustomerNotes: req.CustomerNotes,
	})
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.Created(c, ap)
}

// ======================================================
// READS
// ======================================================

func (h *AppointmentHandler) List(c *gin.Context) {
	aps, err := h.list.Execute(c.Request.Context(), ucAppointment.ListInput{
		Principal: middleware.Principal(c),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		Status:    c.Query("status"),
	})
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.List(c, dto.AppointmentList(aps))
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ap, err := h.get.Execute(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Summary(c *gin.Context) {
	out, err := h.summary.Execute(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.OK(c, out)
}

// ======================================================
// TRANSITIONS
// ======================================================

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ap, err := h.cancel.Execute(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}

	ap, err := h.reschedule.Execute(c.Request.Context(), ucAppointment.RescheduleInput{
		Principal:     middleware.Principal(c),
		AppointmentID: id,
		Start:         req.StartTime,
		TherapistID:   req.TherapistID,
	})
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ap, err := h.complete.Execute(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) NoShow(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ap, err := h.noShow.Execute(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.OK(c, ap)
}

// ======================================================
// PAY
// ======================================================

func (h *AppointmentHandler) Pay(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}

	out, err := h.confirm.Execute(c.Request.Context(), ucAppointment.ConfirmPaymentInput{
		Principal:       middleware.Principal(c),
		AppointmentID:   id,
		Method:          req.PaymentMethod,
		CardToken:       req.CardToken,
		PaymentMethodID: req.PaymentMethodID,
		Installments:    req.Installments,
		PayerEmail:      req.PayerEmail,
	})
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.OK(c, out)
}
