package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"visionpipe/internal/services"
)

const (
	busyRetryAttempts = 5
	busyRetryBase     = 50 * time.Millisecond
)

// withRetry retries fn with bounded backoff when SQLite reports the
// database busy or locked. Anything else is surfaced immediately, so
// workers only ever see non-transient storage errors.
func (s *Store) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(busyRetryBase << (attempt - 1)):
			}
		}
		err = fn()
		if err == nil || !isBusy(err) {
			return err
		}
	}
	return services.Wrap(services.ErrTransient, "store", "retry", "database stayed busy", err)
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
