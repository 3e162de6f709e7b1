package httperr

import "errors"

// Business error codes. They are part of the public API and must stay stable.
const (
	CodeInvalidService        = "invalid_service"
	CodePastBooking           = "past_booking"
	CodeTherapistNotQualified = "therapist_not_qualified"
	CodeSlotConflict          = "slot_conflict"
	CodeTherapistUnavailable  = "therapist_unavailable"
	CodeTherapistRequired     = "therapist_required"
	CodeAlreadyPaid           = "already_paid"
	CodeTerminalState         = "terminal_state"
	CodeAlreadyResolved       = "already_resolved"
	CodeNotFound              = "not_found"
	CodeUnauthorized          = "unauthorized"
	CodeBranchClosed          = "branch_closed"
	CodeInvalidTransition     = "invalid_transition"
	CodePaymentFailed         = "payment_failed"
	CodeInvalidRequest        = "invalid_request"
	CodeBusy                  = "busy"
)

type BusinessError struct {
	Code string
}

func (e BusinessError) Error() string {
	return e.Code
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// CodeOf returns the business code carried by err, if any.
func CodeOf(err error) (string, bool) {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code, true
	}
	return "", false
}
