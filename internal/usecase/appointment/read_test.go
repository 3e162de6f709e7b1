package appointment

import (
	"context"
	"testing"
	"time"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/testfixtures"
)

func TestListAndGetAreScoped(t *testing.T) {
	c := testfixtures.NewClinic()
	d := newDeps(c)
	mine := book(t, c, d, testfixtures.Today(10, 0))
	theirs := c.Store.PutAppointment(models.Appointment{
		CustomerID:  c.Other.UserID,
		TherapistID: c.Therapist.ID,
		ServiceID:   c.Service.ID,
		BranchID:    c.Branch.ID,
		StartTime:   testfixtures.Today(14, 0),
		EndTime:     testfixtures.Today(15, 0),
		Status:      string(domain.StatusPending),
	})

	list := NewListAppointments(d.Repo)
	got, err := list.Execute(context.Background(), ListInput{Principal: c.Customer})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != mine.ID {
		t.Fatalf("customer should only see own appointment, got %+v", got)
	}

	got, err = list.Execute(context.Background(), ListInput{Principal: c.Staff})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != theirs.ID {
		t.Fatalf("therapist should see both, newest first, got %+v", got)
	}

	if _, err := list.Execute(context.Background(), ListInput{Principal: c.Visitor}); !httperr.IsBusiness(err, httperr.CodeUnauthorized) {
		t.Fatalf("visitor: expected unauthorized, got %v", err)
	}

	get := NewGetAppointment(d.Repo)
	if _, err := get.Execute(context.Background(), c.Customer, theirs.ID); !httperr.IsBusiness(err, httperr.CodeNotFound) {
		t.Fatalf("foreign appointment: expected not_found, got %v", err)
	}
	if ap, err := get.Execute(context.Background(), c.Admin, theirs.ID); err != nil || ap.ID != theirs.ID {
		t.Fatalf("admin get: %v", err)
	}
}

func TestListFilters(t *testing.T) {
	c := testfixtures.NewClinic()
	d := newDeps(c)
	today := book(t, c, d, testfixtures.Today(10, 0))
	c.Store.PutAppointment(models.Appointment{
		CustomerID:  c.Customer.UserID,
		TherapistID: c.Therapist.ID,
		ServiceID:   c.Service.ID,
		BranchID:    c.Branch.ID,
		StartTime:   testfixtures.Today(10, 0).AddDate(0, 0, 2),
		EndTime:     testfixtures.Today(11, 0).AddDate(0, 0, 2),
		Status:      string(domain.StatusCancelled),
	})

	list := NewListAppointments(d.Repo)

	got, err := list.Execute(context.Background(), ListInput{
		Principal: c.Customer,
		StartDate: "2030-06-03",
		EndDate:   "2030-06-03",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != today.ID {
		t.Fatalf("date filter: got %+v", got)
	}

	got, err = list.Execute(context.Background(), ListInput{Principal: c.Customer, Status: "cancelled"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Status != "cancelled" {
		t.Fatalf("status filter: got %+v", got)
	}

	for _, in := range []ListInput{
		{StartDate: "03/06/2030"},
		{Status: "lost"},
		{StartDate: "2030-06-05", EndDate: "2030-06-03"},
	} {
		in.Principal = c.Customer
		if _, err := list.Execute(context.Background(), in); !httperr.IsBusiness(err, httperr.CodeInvalidRequest) {
			t.Fatalf("%+v: expected invalid_request, got %v", in, err)
		}
	}
}

func TestSummaryCountsEachAppointmentOnce(t *testing.T) {
	c := testfixtures.NewClinic()
	d := newDeps(c)
	book(t, c, d, testfixtures.Today(9, 0))
	ap := book(t, c, d, testfixtures.Today(10, 0))
	if _, err := NewCancelAppointment(d).Execute(context.Background(), c.Customer, ap.ID); err != nil {
		t.Fatal(err)
	}

	got, err := NewSummary(d.Repo).Execute(context.Background(), c.Customer)
	if err != nil {
		t.Fatal(err)
	}
	if got.Total != 2 || got.ByStatus["pending"] != 1 || got.ByStatus["cancelled"] != 1 {
		t.Fatalf("unexpected summary %+v", got)
	}
	if _, ok := got.ByStatus["no_show"]; !ok {
		t.Fatal("every status should be reported")
	}

	got, err = NewSummary(d.Repo).Execute(context.Background(), c.Other)
	if err != nil {
		t.Fatal(err)
	}
	if got.Total != 0 {
		t.Fatalf("other customer should see nothing, got %+v", got)
	}
}

func TestBillingReadsAreScoped(t *testing.T) {
	c := testfixtures.NewClinic()
	d := newDeps(c)
	ap := book(t, c, d, testfixtures.Today(10, 0))
	out, err := NewConfirmViaPayment(d, nil, 0.18).Execute(context.Background(), ConfirmPaymentInput{
		Principal: c.Customer, AppointmentID: ap.ID, Method: models.MethodCash,
	})
	if err != nil {
		t.Fatal(err)
	}

	billing := NewBilling(d.Repo)

	payments, err := billing.Payments(context.Background(), c.Customer)
	if err != nil || len(payments) != 1 {
		t.Fatalf("customer payments: %v %+v", err, payments)
	}
	payments, err = billing.Payments(context.Background(), c.Other)
	if err != nil || len(payments) != 0 {
		t.Fatalf("other payments: %v %+v", err, payments)
	}

	invoices, err := billing.Invoices(context.Background(), c.Staff)
	if err != nil || len(invoices) != 1 {
		t.Fatalf("therapist invoices: %v %+v", err, invoices)
	}

	if _, err := billing.Invoice(context.Background(), c.Other, out.Invoice.ID); !httperr.IsBusiness(err, httperr.CodeNotFound) {
		t.Fatalf("foreign invoice: expected not_found, got %v", err)
	}
	inv, err := billing.Invoice(context.Background(), c.Customer, out.Invoice.ID)
	if err != nil || inv.InvoiceNumber != out.Invoice.InvoiceNumber {
		t.Fatalf("own invoice: %v", err)
	}
}

func TestAvailabilityView(t *testing.T) {
	c := testfixtures.NewClinic()
	d := newDeps(c)
	book(t, c, d, testfixtures.Today(10, 0))
	c.Store.AddAvailability(models.TherapistAvailability{
		TherapistID: c.Therapist.ID,
		StartTime:   testfixtures.Today(12, 0),
		EndTime:     testfixtures.Today(13, 0),
		IsAvailable: false,
	})

	uc := NewGetAvailability(d.Repo, c.Clock)
	got, err := uc.Execute(context.Background(), AvailabilityInput{
		TherapistID: c.Therapist.ID,
		StartDate:   "2030-06-03",
		EndDate:     "2030-06-03",
		ServiceID:   uintPtr(c.Service.ID),
		BranchID:    uintPtr(c.Branch.ID),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Windows) != 2 {
		t.Fatalf("expected open window and block, got %+v", got.Windows)
	}

	open := got.Windows[0]
	if !open.IsAvailable {
		t.Fatalf("expected the 09:00 window first, got %+v", open)
	}
	want := []time.Time{
		testfixtures.Today(9, 0),
		testfixtures.Today(11, 0),
		testfixtures.Today(13, 0),
		testfixtures.Today(14, 0),
		testfixtures.Today(15, 0),
		testfixtures.Today(16, 0),
	}
	if len(open.Slots) != len(want) {
		t.Fatalf("expected %d slots, got %v", len(want), open.Slots)
	}
	for i := range want {
		if !open.Slots[i].Equal(want[i]) {
			t.Fatalf("slot %d: expected %s, got %s", i, want[i], open.Slots[i])
		}
	}

	_, err = uc.Execute(context.Background(), AvailabilityInput{TherapistID: 9999})
	if !httperr.IsBusiness(err, httperr.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
	_, err = uc.Execute(context.Background(), AvailabilityInput{TherapistID: c.Therapist.ID, StartDate: "tomorrow"})
	if !httperr.IsBusiness(err, httperr.CodeInvalidRequest) {
		t.Fatalf("expected invalid_request, got %v", err)
	}
}

func TestAvailabilityOffersStartRightAfterOffGridBooking(t *testing.T) {
	c := testfixtures.NewClinic()
	d := newDeps(c)
	book(t, c, d, testfixtures.Today(10, 30))

	got, err := NewGetAvailability(d.Repo, c.Clock).Execute(context.Background(), AvailabilityInput{
		TherapistID: c.Therapist.ID,
		StartDate:   "2030-06-03",
		ServiceID:   uintPtr(c.Service.ID),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Windows) != 1 {
		t.Fatalf("expected one window, got %+v", got.Windows)
	}

	want := []time.Time{
		testfixtures.Today(9, 0),
		testfixtures.Today(11, 30),
		testfixtures.Today(12, 30),
		testfixtures.Today(13, 30),
		testfixtures.Today(14, 30),
		testfixtures.Today(15, 30),
	}
	slots := got.Windows[0].Slots
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %v", len(want), slots)
	}
	for i := range want {
		if !slots[i].Equal(want[i]) {
			t.Fatalf("slot %d: expected %s, got %s", i, want[i], slots[i])
		}
	}

	// the offered 11:30 start really is bookable
	book(t, c, d, testfixtures.Today(11, 30))
}

func TestAvailabilityExpandsRecurringWindows(t *testing.T) {
	c := testfixtures.NewClinic()
	c.Store.AddAvailability(models.TherapistAvailability{
		TherapistID: c.Therapist.ID,
		StartTime:   testfixtures.Today(18, 0),
		EndTime:     testfixtures.Today(20, 0),
		IsAvailable: true,
		Recurrence:  models.RecurrenceWeekly,
	})

	got, err := NewGetAvailability(c.Store.AppointmentRepo(), c.Clock).Execute(context.Background(), AvailabilityInput{
		TherapistID: c.Therapist.ID,
		StartDate:   "2030-06-10",
		EndDate:     "2030-06-24",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Windows) != 3 {
		t.Fatalf("expected three weekly occurrences, got %+v", got.Windows)
	}
	for _, w := range got.Windows {
		if w.StartTime.Weekday() != time.Monday || w.StartTime.Hour() != 18 {
			t.Fatalf("unexpected occurrence %s", w.StartTime)
		}
		if len(w.Slots) != 0 {
			t.Fatal("slots are only computed for a service")
		}
	}
}
