package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

// ListInput carries the raw query filters; dates are YYYY-MM-DD in UTC
// and both bounds are inclusive.
type ListInput struct {
	Principal access.Principal
	StartDate string
	EndDate   string
	Status    string
}

type ListAppointments struct {
	repo domain.Repository
}

func NewListAppointments(repo domain.Repository) *ListAppointments {
	return &ListAppointments{repo: repo}
}

func (uc *ListAppointments) Execute(
	ctx context.Context,
	in ListInput,
) ([]models.Appointment, error) {

	scope, err := access.ScopeFor(in.Principal)
	if err != nil {
		return nil, err
	}

	filter, err := parseListFilter(in)
	if err != nil {
		return nil, err
	}

	return uc.repo.ListAppointments(ctx, scope, filter)
}

func parseListFilter(in ListInput) (domain.ListFilter, error) {
	var f domain.ListFilter

	if in.StartDate != "" {
		d, err := timezone.ParseDate(in.StartDate, time.UTC)
		if err != nil {
			return f, httperr.ErrBusiness(httperr.CodeInvalidRequest)
		}
		f.From = d
	}
	if in.EndDate != "" {
		d, err := timezone.ParseDate(in.EndDate, time.UTC)
		if err != nil {
			return f, httperr.ErrBusiness(httperr.CodeInvalidRequest)
		}
		f.To = d.AddDate(0, 0, 1)
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return f, httperr.ErrBusiness(httperr.CodeInvalidRequest)
	}

	if in.Status != "" {
		st, ok := domain.ParseStatus(in.Status)
		if !ok {
			return f, httperr.ErrBusiness(httperr.CodeInvalidRequest)
		}
		f.Status = string(st)
	}
	return f, nil
}

// GetAppointment hides appointments outside the caller's scope behind
// not_found.
type GetAppointment struct {
	repo domain.Repository
}

func NewGetAppointment(repo domain.Repository) *GetAppointment {
	return &GetAppointment{repo: repo}
}

func (uc *GetAppointment) Execute(
	ctx context.Context,
	p access.Principal,
	id uint,
) (*models.Appointment, error) {

	scope, err := access.ScopeFor(p)
	if err != nil {
		return nil, err
	}

	ap, err := uc.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	therapistID := ap.TherapistID
	if !scope.CanSee(ap.CustomerID, &therapistID) {
		return nil, httperr.ErrBusiness(httperr.CodeNotFound)
	}
	return ap, nil
}
