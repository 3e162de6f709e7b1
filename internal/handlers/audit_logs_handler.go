package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// ======================================================
// HANDLER
// ======================================================

type AuditReader interface {
	List(ctx context.Context, f audit.Filter) ([]models.AuditLog, int64, error)
}

type AuditLogsHandler struct {
	reader AuditReader
}

func NewAuditLogsHandler(reader AuditReader) *AuditLogsHandler {
	return &AuditLogsHandler{reader: reader}
}

// List is admin only.
func (h *AuditLogsHandler) List(c *gin.Context) {
	if !middleware.Principal(c).IsAdmin() {
		fail(c, httperr.ErrBusiness(httperr.CodeUnauthorized))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	// --------------------------------------------------
	// Filtros opcionais
	// --------------------------------------------------
	f := audit.Filter{
		Action: c.Query("action"),
		Entity: c.Query("entity"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	if fromStr := c.Query("from"); fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			invalidRequest(c)
			return
		}
		f.From = from
	}

	if toStr := c.Query("to"); toStr != "" {
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			invalidRequest(c)
			return
		}
		f.To = to.Add(24 * time.Hour)
	}

	logs, total, err := h.reader.List(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(200, gin.H{
		"page":  page,
		"limit": limit,
		"total": total,
		"logs":  logs,
	})
}
