package appointment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/lock"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
	"github.com/BruksfildServices01/clinic-scheduler/internal/payment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

const invoiceTerms = "Thank you for your business!"

// ======================================================
// INPUT / OUTPUT
// ======================================================

type ConfirmPaymentInput struct {
	Principal     access.Principal
	AppointmentID uint
	Method        string

	CardToken       string
	PaymentMethodID string
	Installments    int
	PayerEmail      string
}

type ConfirmPaymentOutput struct {
	Appointment *models.Appointment `json:"appointment"`
	Payment     *models.Payment     `json:"payment"`
	Invoice     *models.Invoice     `json:"invoice"`
}

// ======================================================
// USE CASE
// ======================================================

// ConfirmViaPayment charges the appointment's service price and, in one
// transaction, records the payment, confirms the appointment and issues a
// paid invoice.
//
// The appointment lock is held across the charge, so it is taken for
// LockTTL plus the gateway's charge timeout and the charge runs under that
// timeout. The lock cannot expire while the gateway call is still open.
type ConfirmViaPayment struct {
	Deps
	gateway       payment.Gateway
	taxRate       float64
	chargeTimeout time.Duration

	// InvoiceNumber draws invoice numbers for a YYYYMMDD date.
	InvoiceNumber func(date string) string
}

func NewConfirmViaPayment(d Deps, gateway payment.Gateway, taxRate float64) *ConfirmViaPayment {
	if gateway == nil {
		gateway = payment.Offline{}
	}
	return &ConfirmViaPayment{
		Deps:          d.withDefaults(),
		gateway:       gateway,
		taxRate:       taxRate,
		chargeTimeout: payment.ChargeTimeout(gateway),
		InvoiceNumber: payment.InvoiceNumber,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *ConfirmViaPayment) Execute(
	ctx context.Context,
	in ConfirmPaymentInput,
) (*ConfirmPaymentOutput, error) {

	if !payment.ValidMethod(in.Method) {
		return nil, httperr.ErrBusiness(httperr.CodeInvalidRequest)
	}

	var out *ConfirmPaymentOutput
	ttl := uc.LockTTL + uc.chargeTimeout
	err := uc.withLockTTL(ctx, lock.AppointmentKey(in.AppointmentID), ttl, func() error {
		var err error
		out, err = uc.confirm(ctx, in)
		return err
	})
	uc.Metrics.Booking("confirm", outcome(err))
	if err != nil {
		return nil, err
	}

	uc.published(out.Appointment, notify.AppointmentConfirmed, in.Principal.UserID, "appointment_confirmed")
	return out, nil
}

func (uc *ConfirmViaPayment) confirm(ctx context.Context, in ConfirmPaymentInput) (*ConfirmPaymentOutput, error) {
	// --------------------------------------------------
	// Pre-checks, so a rejected request never reaches the gateway
	// --------------------------------------------------
	ap, err := uc.Repo.GetAppointment(ctx, in.AppointmentID)
	if err != nil {
		return nil, err
	}
	if err := uc.checkPayable(ctx, uc.Repo, in.Principal, ap); err != nil {
		return nil, err
	}

	svc, err := uc.Repo.GetService(ctx, ap.ServiceID)
	if err != nil {
		return nil, err
	}
	branch, err := uc.Repo.GetBranch(ctx, ap.BranchID)
	if err != nil {
		return nil, err
	}

	amount := payment.Round2(svc.Price)
	tax := payment.Round2(amount * uc.taxRate)
	total := payment.Round2(amount + tax)

	// --------------------------------------------------
	// Charge
	// --------------------------------------------------
	chargeCtx, cancel := context.WithTimeout(ctx, uc.chargeTimeout)
	charge, err := uc.gateway.Charge(chargeCtx, payment.ChargeRequest{
		AppointmentID:   ap.ID,
		Amount:          total,
		Method:          in.Method,
		Description:     svc.Name,
		PaidBy:          in.Principal.UserID,
		CardToken:       in.CardToken,
		PaymentMethodID: in.PaymentMethodID,
		Installments:    in.Installments,
		PayerEmail:      in.PayerEmail,
	})
	cancel()
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Payment + confirmation + invoice
	// --------------------------------------------------
	now := uc.Clock.Now()
	issued := timezone.StartOfDay(now, timezone.Location(branch.Timezone))
	issueDate := issued.Format("20060102")

	out := &ConfirmPaymentOutput{}
	err = uc.Repo.Transaction(ctx, func(tx domain.Repository) error {
		locked, err := tx.GetAppointmentForUpdate(ctx, ap.ID)
		if err != nil {
			return err
		}
		if err := uc.checkPayable(ctx, tx, in.Principal, locked); err != nil {
			return err
		}

		pay := &models.Payment{
			AppointmentID: locked.ID,
			Amount:        amount,
			TaxAmount:     tax,
			TotalAmount:   total,
			Status:        models.PaymentCompleted,
			Method:        in.Method,
			TransactionID: charge.TransactionID,
			PaymentDate:   &now,
			Details:       charge.Details,
		}
		if err := tx.CreatePayment(ctx, pay); err != nil {
			return err
		}

		if err := domain.Confirm(locked); err != nil {
			return err
		}
		if err := tx.UpdateAppointment(ctx, locked); err != nil {
			return err
		}

		inv := &models.Invoice{
			CustomerID:    locked.CustomerID,
			AppointmentID: &locked.ID,
			IssueDate:     issued,
			DueDate:       issued,
			Items: []models.InvoiceItem{{
				Service:     svc.Name,
				Description: invoiceDescription(svc),
				Quantity:    1,
				UnitPrice:   amount,
				Total:       amount,
			}},
			Subtotal:   amount,
			TaxRate:    uc.taxRate * 100,
			TaxAmount:  tax,
			Total:      total,
			PaidAmount: total,
			Status:     models.InvoicePaid,
			Terms:      invoiceTerms,
		}
		if err := tx.CreateInvoice(ctx, inv, func() string { return uc.InvoiceNumber(issueDate) }); err != nil {
			return err
		}

		out.Appointment = locked
		out.Payment = pay
		out.Invoice = inv
		return nil
	})
	if err != nil {
		// money moved but nothing was recorded
		uc.Log.Error("payment charged but confirmation failed",
			zap.Uint("appointment_id", ap.ID),
			zap.String("transaction_id", charge.TransactionID),
			zap.Error(err),
		)
		return nil, err
	}
	return out, nil
}

func invoiceDescription(svc *models.Service) string {
	if svc.Description != "" {
		return svc.Description
	}
	return svc.Name
}

func (uc *ConfirmViaPayment) checkPayable(
	ctx context.Context,
	repo domain.Repository,
	p access.Principal,
	ap *models.Appointment,
) error {
	if !isOwnerOrAdmin(p, ap) {
		return httperr.ErrBusiness(httperr.CodeUnauthorized)
	}
	paid, err := repo.HasCompletedPayment(ctx, ap.ID)
	if err != nil {
		return err
	}
	if paid {
		return httperr.ErrBusiness(httperr.CodeAlreadyPaid)
	}
	return domain.CanConfirm(domain.Status(ap.Status))
}

func isOwnerOrAdmin(p access.Principal, ap *models.Appointment) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Role == access.RoleCustomer && p.UserID == ap.CustomerID
}
