package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
)

// fail records err for the request log and writes its JSON form.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	httperr.FromError(c, err)
}

func invalidRequest(c *gin.Context) {
	httperr.BadRequest(c, httperr.CodeInvalidRequest, "Invalid request.")
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		invalidRequest(c)
		return 0, false
	}
	return uint(id), true
}

// optionalUintQuery reads a positive integer query parameter. The second
// result is false when the value is present but malformed.
func optionalUintQuery(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return nil, false
	}
	id := uint(v)
	return &id, true
}
