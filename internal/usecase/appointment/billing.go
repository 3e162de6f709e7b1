package appointment

import (
	"context"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// Billing serves the scoped payment and invoice reads.
type Billing struct {
	repo domain.Repository
}

func NewBilling(repo domain.Repository) *Billing {
	return &Billing{repo: repo}
}

func (uc *Billing) Payments(ctx context.Context, p access.Principal) ([]models.Payment, error) {
	scope, err := access.ScopeFor(p)
	if err != nil {
		return nil, err
	}
	return uc.repo.ListPayments(ctx, scope)
}

func (uc *Billing) Invoices(ctx context.Context, p access.Principal) ([]models.Invoice, error) {
	scope, err := access.ScopeFor(p)
	if err != nil {
		return nil, err
	}
	return uc.repo.ListInvoices(ctx, scope)
}

func (uc *Billing) Invoice(ctx context.Context, p access.Principal, id uint) (*models.Invoice, error) {
	scope, err := access.ScopeFor(p)
	if err != nil {
		return nil, err
	}

	inv, err := uc.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	var therapistID *uint
	if inv.AppointmentID != nil {
		ap, err := uc.repo.GetAppointment(ctx, *inv.AppointmentID)
		if err != nil && !httperr.IsBusiness(err, httperr.CodeNotFound) {
			return nil, err
		}
		if ap != nil {
			therapistID = &ap.TherapistID
		}
	}
	if !scope.CanSee(inv.CustomerID, therapistID) {
		return nil, httperr.ErrBusiness(httperr.CodeNotFound)
	}
	return inv, nil
}
