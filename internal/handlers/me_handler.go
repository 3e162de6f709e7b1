package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type TherapistLookup interface {
	GetTherapist(ctx context.Context, id uint) (*models.TherapistProfile, error)
}

type MeHandler struct {
	therapists TherapistLookup
}

func NewMeHandler(therapists TherapistLookup) *MeHandler {
	return &MeHandler{therapists: therapists}
}

// GetMe echoes the caller's identity and, for therapists, their profile.
func (h *MeHandler) GetMe(c *gin.Context) {
	p := middleware.Principal(c)

	body := gin.H{
		"user_id": p.UserID,
		"role":    p.Role,
		"scope":   scopeName(p),
	}

	if p.TherapistProfileID != nil {
		profile, err := h.therapists.GetTherapist(c.Request.Context(), *p.TherapistProfileID)
		if err != nil {
			fail(c, err)
			return
		}
		body["therapist"] = profile
	}

	c.JSON(http.StatusOK, body)
}

func scopeName(p access.Principal) string {
	scope, err := access.ScopeFor(p)
	if err != nil {
		return "none"
	}
	switch scope.Kind {
	case access.AllRows:
		return "all"
	case access.OwnedByCustomer:
		return "customer"
	case access.OwnedByTherapist:
		return "therapist"
	}
	return "none"
}
