package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

type BillingHandler struct {
	billing *ucAppointment.Billing
}

func NewBillingHandler(billing *ucAppointment.Billing) *BillingHandler {
	return &BillingHandler{billing: billing}
}

func (h *BillingHandler) ListPayments(c *gin.Context) {
	payments, err := h.billing.Payments(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		fail(c, err)
		return
	}
	httpresp.List(c, payments)
}

func (h *BillingHandler) ListInvoices(c *gin.Context) {
	invoices, err := h.billing.Invoices(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		fail(c, err)
		return
	}
	httpresp.List(c, invoices)
}

func (h *BillingHandler) GetInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	inv, err := h.billing.Invoice(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	httpresp.OK(c, inv)
}
