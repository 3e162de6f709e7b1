package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

const maxTxAttempts = 3

// Advisory lock namespaces (first key of pg_advisory_xact_lock).
const (
	lockNSTherapist int32 = 1001
	lockNSWaitlist  int32 = 1002
)

// runTx runs fn in a transaction, running it again on serialization
// failures and deadlocks. Any other error, business errors included, is
// returned at once.
func runTx(ctx context.Context, db *gorm.DB, onRetry func(), fn func(tx *gorm.DB) error) error {
	for attempt := 1; ; attempt++ {
		err := db.WithContext(ctx).Transaction(fn)
		if err == nil || !isRetryable(err) || attempt == maxTxAttempts {
			return err
		}
		if onRetry != nil {
			onRetry()
		}

		backoff := time.Duration(attempt*attempt) * 10 * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func advisoryLock(ctx context.Context, db *gorm.DB, ns int32, id uint) error {
	return db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(?, ?)", ns, int32(id)).
		Error
}

func advisoryLockKey(ctx context.Context, db *gorm.DB, ns int32, key string) error {
	return db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(?, hashtext(?))", ns, key).
		Error
}
