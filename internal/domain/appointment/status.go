package appointment

import "github.com/BruksfildServices01/clinic-scheduler/internal/httperr"

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusCancelled,
	StatusCompleted,
	StatusNoShow,
}

func ParseStatus(s string) (Status, bool) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// IsActive reports whether the status holds the therapist's time.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// ActiveStatuses are the statuses that take part in overlap checks.
var ActiveStatuses = []string{string(StatusPending), string(StatusConfirmed)}

// ===============================
// Validations
// ===============================

func CanCancel(current Status) error {
	if current.IsTerminal() {
		return httperr.ErrBusiness(httperr.CodeTerminalState)
	}
	return nil
}

func CanReschedule(current Status) error {
	return CanCancel(current)
}

// CanConfirm only accepts pending appointments.
func CanConfirm(current Status) error {
	if current != StatusPending {
		return httperr.ErrBusiness(httperr.CodeTerminalState)
	}
	return nil
}

func CanComplete(current Status) error {
	if current.IsTerminal() {
		return httperr.ErrBusiness(httperr.CodeTerminalState)
	}
	if current != StatusConfirmed {
		return httperr.ErrBusiness(httperr.CodeInvalidTransition)
	}
	return nil
}

func CanMarkNoShow(current Status) error {
	return CanCancel(current)
}

func InitialStatus() Status {
	return StatusPending
}
