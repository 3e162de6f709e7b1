package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/lock"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/testfixtures"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
	ucWaitlist "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/waitlist"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newRouter mounts every handler over the in-memory store. The caller is
// whatever principal the test sets in *as.
func newRouter(c *testfixtures.Clinic, as *access.Principal) *gin.Engine {
	repo := c.Store.AppointmentRepo()
	wlRepo := c.Store.WaitlistRepo()
	locker := lock.NewLocalLocker(time.Second)

	apDeps := ucAppointment.Deps{Repo: repo, Locker: locker, Clock: c.Clock}
	wlDeps := ucWaitlist.Deps{Repo: wlRepo, Catalog: repo, Locker: locker, Clock: c.Clock}

	appointments := NewAppointmentHandler(
		ucAppointment.NewBookAppointment(apDeps),
		ucAppointment.NewCancelAppointment(apDeps),
		ucAppointment.NewRescheduleAppointment(apDeps),
		ucAppointment.NewCompleteAppointment(apDeps),
		ucAppointment.NewMarkNoShow(apDeps),
		ucAppointment.NewConfirmViaPayment(apDeps, nil, 0.18),
		ucAppointment.NewListAppointments(repo),
		ucAppointment.NewGetAppointment(repo),
		ucAppointment.NewSummary(repo),
	)
	billing := NewBillingHandler(ucAppointment.NewBilling(repo))
	therapists := NewTherapistHandler(ucAppointment.NewGetAvailability(repo, c.Clock))
	waitlist := NewWaitlistHandler(
		ucWaitlist.NewEnqueue(wlDeps),
		ucWaitlist.NewCancelEntry(wlDeps),
		ucWaitlist.NewListEntries(wlRepo),
		ucWaitlist.NewGetEntry(wlRepo),
	)

	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		ctx.Set(middleware.ContextPrincipal, *as)
		ctx.Next()
	})

	r.POST("/appointments/book", appointments.Book)
	r.GET("/appointments", appointments.List)
	r.GET("/appointments/summary", appointments.Summary)
	r.GET("/appointments/:id", appointments.Get)
	r.POST("/appointments/:id/cancel", appointments.Cancel)
	r.POST("/appointments/:id/reschedule", appointments.Reschedule)
	r.POST("/appointments/:id/complete", appointments.Complete)
	r.POST("/appointments/:id/pay", appointments.Pay)
	r.GET("/payments", billing.ListPayments)
	r.GET("/invoices", billing.ListInvoices)
	r.GET("/invoices/:id", billing.GetInvoice)
	r.GET("/therapists/:id/availability", therapists.Availability)
	r.POST("/waitlist", waitlist.Enqueue)
	r.GET("/waitlist", waitlist.List)
	r.POST("/waitlist/:id/cancel", waitlist.Cancel)
	r.GET("/me", NewMeHandler(repo).GetMe)

	return r
}

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["error_code"]
}

func bookBody(c *testfixtures.Clinic, start time.Time) map[string]any {
	return map[string]any{
		"service_id":   c.Service.ID,
		"branch_id":    c.Branch.ID,
		"therapist_id": c.Therapist.ID,
		"start_time":   start.Format(time.RFC3339),
	}
}

// ======================================================
// APPOINTMENTS
// ======================================================

func TestBookAndConflict(t *testing.T) {
	c := testfixtures.NewClinic()
	caller := c.Customer
	r := newRouter(c, &caller)

	w := do(r, http.MethodPost, "/appointments/book", bookBody(c, testfixtures.Today(10, 0)))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body)
	}
	ap := decode[models.Appointment](t, w)
	if ap.Status != "pending" || ap.CustomerID != c.Customer.UserID {
		t.Fatalf("unexpected appointment %+v", ap)
	}

	caller = c.Other
	w = do(r, http.MethodPost, "/appointments/book", bookBody(c, testfixtures.Today(10, 30)))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body)
	}
	if code := errorCode(t, w); code != "slot_conflict" {
		t.Fatalf("expected slot_conflict, got %s", code)
	}
}

func TestBookRejectsMalformedInput(t *testing.T) {
	c := testfixtures.NewClinic()
	caller := c.Customer
	r := newRouter(c, &caller)

	tests := []struct {
		name string
		body any
	}{
		{"not json", "{"},
		{"missing service", map[string]any{"branch_id": c.Branch.ID, "start_time": testfixtures.Today(10, 0)}},
		{"bad time", map[string]any{"service_id": c.Service.ID, "branch_id": c.Branch.ID, "start_time": "tomorrow"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/appointments/book", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if code := errorCode(t, w); code != "invalid_request" {
				t.Fatalf("expected invalid_request, got %s", code)
			}
		})
	}
	if n := len(c.Store.AllAppointments()); n != 0 {
		t.Fatalf("expected nothing written, got %d", n)
	}
}

func TestListGetAndSummaryAreScoped(t *testing.T) {
	c := testfixtures.NewClinic()
	caller := c.Customer
	r := newRouter(c, &caller)

	w := do(r, http.MethodPost, "/appointments/book", bookBody(c, testfixtures.Today(9, 0)))
	mine := decode[models.Appointment](t, w)
	caller = c.Other
	do(r, http.MethodPost, "/appointments/book", bookBody(c, testfixtures.Today(11, 0)))

	caller = c.Customer
	w = do(r, http.MethodGet, "/appointments", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	list := decode[struct {
		Data  []dto.AppointmentListDTO `json:"data"`
		Total int                      `json:"total"`
	}](t, w)
	if list.Total != 1 || list.Data[0].ID != mine.ID {
		t.Fatalf("expected only own appointment, got %+v", list)
	}

	caller = c.Other
	w = do(r, http.MethodGet, fmt.Sprintf("/appointments/%d", mine.ID), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign appointment, got %d", w.Code)
	}

	caller = c.Admin
	w = do(r, http.MethodGet, "/appointments/summary", nil)
	summary := decode[dto.AppointmentSummaryDTO](t, w)
	if summary.Total != 2 || summary.ByStatus["pending"] != 2 || summary.ByStatus["completed"] != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	w = do(r, http.MethodGet, "/appointments?start_date=03-06-2030", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date, got %d", w.Code)
	}
	w = do(r, http.MethodGet, "/appointments/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", w.Code)
	}
}

func TestPayIssuesInvoiceOnce(t *testing.T) {
	c := testfixtures.NewClinic()
	caller := c.Customer
	r := newRouter(c, &caller)

	ap := decode[models.Appointment](t, do(r, http.MethodPost, "/appointments/book", bookBody(c, testfixtures.Today(10, 0))))
	path := fmt.Sprintf("/appointments/%d/pay", ap.ID)

	w := do(r, http.MethodPost, path, map[string]any{"payment_method": "bitcoin"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown method, got %d", w.Code)
	}

	w = do(r, http.MethodPost, path, map[string]any{"payment_method": "cash"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	out := decode[ucAppointment.ConfirmPaymentOutput](t, w)
	if out.Appointment.Status != "confirmed" {
		t.Fatalf("expected confirmed, got %s", out.Appointment.Status)
	}
	if out.Payment.TotalAmount != 106.2 || out.Invoice.Total != 106.2 {
		t.Fatalf("unexpected totals %v / %v", out.Payment.TotalAmount, out.Invoice.Total)
	}

	w = do(r, http.MethodPost, path, map[string]any{"payment_method": "cash"})
	if w.Code != http.StatusConflict || errorCode(t, w) != "already_paid" {
		t.Fatalf("expected 409 already_paid, got %d: %s", w.Code, w.Body)
	}

	w = do(r, http.MethodGet, "/invoices", nil)
	invoices := decode[struct {
		Total int `json:"total"`
	}](t, w)
	if invoices.Total != 1 {
		t.Fatalf("expected one invoice, got %d", invoices.Total)
	}

	caller = c.Other
	w = do(r, http.MethodGet, fmt.Sprintf("/invoices/%d", out.Invoice.ID), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign invoice, got %d", w.Code)
	}
}

func TestCancelAndCompletePermissions(t *testing.T) {
	c := testfixtures.NewClinic()
	caller := c.Customer
	r := newRouter(c, &caller)

	ap := decode[models.Appointment](t, do(r, http.MethodPost, "/appointments/book", bookBody(c, testfixtures.Today(10, 0))))

	w := do(r, http.MethodPost, fmt.Sprintf("/appointments/%d/complete", ap.ID), nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer completing, got %d", w.Code)
	}

	caller = c.Other
	w = do(r, http.MethodPost, fmt.Sprintf("/appointments/%d/cancel", ap.ID), nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger cancelling, got %d", w.Code)
	}

	caller = c.Customer
	w = do(r, http.MethodPost, fmt.Sprintf("/appointments/%d/cancel", ap.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	if got := decode[models.Appointment](t, w); got.Status != "cancelled" || got.CancelledAt == nil {
		t.Fatalf("unexpected cancel result %+v", got)
	}
}

func TestRescheduleMovesAppointment(t *testing.T) {
	c := testfixtures.NewClinic()
	caller := c.Customer
	r := newRouter(c, &caller)

	ap := decode[models.Appointment](t, do(r, http.MethodPost, "/appointments/book", bookBody(c, testfixtures.Today(10, 0))))

	w := do(r, http.MethodPost, fmt.Sprintf("/appointments/%d/reschedule", ap.ID), map[string]any{
		"start_time": testfixtures.Today(10, 30).Format(time.RFC3339),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	got := decode[models.Appointment](t, w)
	if !got.StartTime.Equal(testfixtures.Today(10, 30)) || !got.EndTime.Equal(testfixtures.Today(11, 30)) {
		t.Fatalf("unexpected times %s-%s", got.StartTime, got.EndTime)
	}
}

// ======================================================
// AVAILABILITY
// ======================================================

func TestAvailabilityListsSlots(t *testing.T) {
	c := testfixtures.NewClinic()
	caller := c.Customer
	r := newRouter(c, &caller)

	do(r, http.MethodPost, "/appointments/book", bookBody(c, testfixtures.Today(10, 0)))

	w := do(r, http.MethodGet, fmt.Sprintf("/therapists/%d/availability?start_date=2030-06-03&service_id=%d", c.Therapist.ID, c.Service.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	out := decode[dto.AvailabilityDTO](t, w)
	if len(out.Windows) != 1 {
		t.Fatalf("expected one window, got %d", len(out.Windows))
	}
	for _, s := range out.Windows[0].Slots {
		if s.Equal(testfixtures.Today(10, 0)) {
			t.Fatal("booked slot still offered")
		}
	}
	if len(out.Windows[0].Slots) == 0 {
		t.Fatal("expected free slots")
	}

	w = do(r, http.MethodGet, fmt.Sprintf("/therapists/%d/availability?service_id=x", c.Therapist.ID), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	w = do(r, http.MethodGet, "/therapists/9999/availability", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

// ======================================================
// WAITLIST
// ======================================================

func TestWaitlistEnqueueAndCancel(t *testing.T) {
	c := testfixtures.NewClinic()
	caller := c.Customer
	r := newRouter(c, &caller)

	body := map[string]any{
		"service_id":     c.Service.ID,
		"branch_id":      c.Branch.ID,
		"preferred_date": "2030-06-04",
		"preferred_time_slots": []map[string]string{
			{"start": "09:00", "end": "12:00"},
		},
	}

	first := decode[models.WaitlistEntry](t, do(r, http.MethodPost, "/waitlist", body))
	caller = c.Other
	w := do(r, http.MethodPost, "/waitlist", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body)
	}
	second := decode[models.WaitlistEntry](t, w)
	if first.Position != 1 || second.Position != 2 {
		t.Fatalf("expected positions 1,2 got %d,%d", first.Position, second.Position)
	}

	caller = c.Customer
	w = do(r, http.MethodPost, fmt.Sprintf("/waitlist/%d/cancel", first.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}

	caller = c.Admin
	w = do(r, http.MethodGet, "/waitlist?status=active", nil)
	list := decode[struct {
		Data []models.WaitlistEntry `json:"data"`
	}](t, w)
	if len(list.Data) != 1 || list.Data[0].ID != second.ID || list.Data[0].Position != 1 {
		t.Fatalf("expected second entry promoted to 1, got %+v", list.Data)
	}

	body["preferred_date"] = "04/06/2030"
	w = do(r, http.MethodPost, "/waitlist", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date, got %d", w.Code)
	}
}

// ======================================================
// ME / AUDIT
// ======================================================

func TestMeReportsTherapistProfile(t *testing.T) {
	c := testfixtures.NewClinic()
	caller := c.Staff
	r := newRouter(c, &caller)

	w := do(r, http.MethodGet, "/me", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"role":"therapist"`)) {
		t.Fatalf("unexpected body %s", w.Body)
	}
}

type fakeAuditReader struct {
	got audit.Filter
}

func (f *fakeAuditReader) List(_ context.Context, filter audit.Filter) ([]models.AuditLog, int64, error) {
	f.got = filter
	return []models.AuditLog{{ID: 1, Action: "appointment_created", Entity: "appointment"}}, 1, nil
}

func TestAuditLogsAdminOnly(t *testing.T) {
	reader := &fakeAuditReader{}
	h := NewAuditLogsHandler(reader)

	caller := access.Principal{UserID: 100, Role: access.RoleCustomer}
	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		ctx.Set(middleware.ContextPrincipal, caller)
		ctx.Next()
	})
	r.GET("/audit-logs", h.List)

	w := do(r, http.MethodGet, "/audit-logs", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	caller = access.Principal{UserID: 1, Role: access.RoleAdmin}
	w = do(r, http.MethodGet, "/audit-logs?page=3&limit=10&action=appointment_created&from=2030-06-01&to=2030-06-03", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	if reader.got.Offset != 20 || reader.got.Limit != 10 || reader.got.Action != "appointment_created" {
		t.Fatalf("unexpected filter %+v", reader.got)
	}
	if !reader.got.To.Equal(time.Date(2030, 6, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected inclusive end date, got %s", reader.got.To)
	}

	w = do(r, http.MethodGet, "/audit-logs?from=yesterday", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
