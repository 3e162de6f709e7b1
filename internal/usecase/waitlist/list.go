package waitlist

import (
	"context"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/waitlist"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type ListEntries struct {
	repo domain.Repository
}

func NewListEntries(repo domain.Repository) *ListEntries {
	return &ListEntries{repo: repo}
}

func (uc *ListEntries) Execute(
	ctx context.Context,
	p access.Principal,
	filter domain.ListFilter,
) ([]models.WaitlistEntry, error) {

	scope, err := access.ScopeFor(p)
	if err != nil {
		return nil, err
	}
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, httperr.ErrBusiness(httperr.CodeInvalidRequest)
	}
	return uc.repo.List(ctx, scope, filter)
}

type GetEntry struct {
	repo domain.Repository
}

func NewGetEntry(repo domain.Repository) *GetEntry {
	return &GetEntry{repo: repo}
}

func (uc *GetEntry) Execute(
	ctx context.Context,
	p access.Principal,
	id uint,
) (*models.WaitlistEntry, error) {

	scope, err := access.ScopeFor(p)
	if err != nil {
		return nil, err
	}
	e, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanSee(e.CustomerID, e.TherapistID) {
		return nil, httperr.ErrBusiness(httperr.CodeNotFound)
	}
	return e, nil
}

func validStatus(s string) bool {
	switch domain.Status(s) {
	case domain.StatusActive, domain.StatusNotified, domain.StatusBooked,
		domain.StatusExpired, domain.StatusCancelled:
		return true
	}
	return false
}
