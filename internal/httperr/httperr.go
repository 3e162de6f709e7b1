package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

type mapping struct {
	status  int
	message string
}

var businessMappings = map[string]mapping{
	CodeInvalidService:        {http.StatusBadRequest, "The service is not available at this branch."},
	CodePastBooking:           {http.StatusBadRequest, "Appointments must start in the future."},
	CodeTherapistNotQualified: {http.StatusBadRequest, "The therapist does not offer this service at this branch."},
	CodeSlotConflict:          {http.StatusConflict, "The selected time slot is already booked."},
	CodeTherapistUnavailable:  {http.StatusConflict, "The therapist is not available during this time."},
	CodeTherapistRequired:     {http.StatusBadRequest, "Please select a therapist."},
	CodeAlreadyPaid:           {http.StatusConflict, "This appointment is already paid."},
	CodeTerminalState:         {http.StatusConflict, "The appointment can no longer be changed."},
	CodeAlreadyResolved:       {http.StatusConflict, "The waitlist entry is already resolved."},
	CodeNotFound:              {http.StatusNotFound, "Resource not found."},
	CodeUnauthorized:          {http.StatusForbidden, "You are not allowed to perform this action."},
	CodeBranchClosed:          {http.StatusConflict, "The branch is closed on this date."},
	CodeInvalidTransition:     {http.StatusConflict, "The appointment cannot move to the requested status."},
	CodePaymentFailed:         {http.StatusPaymentRequired, "The payment was not approved."},
	CodeInvalidRequest:        {http.StatusBadRequest, "Invalid request."},
	CodeBusy:                  {http.StatusServiceUnavailable, "The schedule is busy, please retry."},
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

// Status reports the HTTP status and public message for err. Anything that is
// not a known business error is an internal error with a generic message.
func Status(err error) (int, string, string) {
	if code, ok := CodeOf(err); ok {
		if m, ok := businessMappings[code]; ok {
			return m.status, code, m.message
		}
		return http.StatusBadRequest, code, "Request rejected."
	}
	return http.StatusInternalServerError, "internal_error", "Internal error."
}

// FromError writes err as a JSON error response.
func FromError(c *gin.Context, err error) {
	status, code, message := Status(err)
	Write(c, status, code, message)
}
