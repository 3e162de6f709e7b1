package appointment

import (
	"context"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
)

type Summary struct {
	repo domain.Repository
}

func NewSummary(repo domain.Repository) *Summary {
	return &Summary{repo: repo}
}

// Execute counts the visible appointments per status. Every status is
// present in the result, zero or not.
func (uc *Summary) Execute(
	ctx context.Context,
	p access.Principal,
) (*dto.AppointmentSummaryDTO, error) {

	scope, err := access.ScopeFor(p)
	if err != nil {
		return nil, err
	}

	counts, err := uc.repo.CountByStatus(ctx, scope)
	if err != nil {
		return nil, err
	}

	out := &dto.AppointmentSummaryDTO{ByStatus: make(map[string]int64, len(domain.AllStatuses))}
	for _, st := range domain.AllStatuses {
		n := counts[string(st)]
		out.ByStatus[string(st)] = n
		out.Total += n
	}
	return out, nil
}
