package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
)

// SQLSTATE codes the repositories react to.
const (
	pgUniqueViolation      = "23505"
	pgExclusionViolation   = "23P01"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == pgUniqueViolation
}

// isRetryable reports transient conflicts worth running the whole
// transaction again for.
func isRetryable(err error) bool {
	switch pgCode(err) {
	case pgSerializationFailure, pgDeadlockDetected:
		return true
	}
	return false
}

// translate maps storage errors onto business errors where one exists.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return httperr.ErrBusiness(httperr.CodeNotFound)
	case pgCode(err) == pgExclusionViolation:
		// the overlap constraint caught a booking the validator missed
		return httperr.ErrBusiness(httperr.CodeSlotConflict)
	}
	return err
}
