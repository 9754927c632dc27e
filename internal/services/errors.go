package services

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"agrilift/portal/internal/db"
	"agrilift/portal/internal/models"
)

// The service layer distinguishes four failure kinds so the HTTP layer can
// map them to status codes without parsing messages. Validation failures are
// *models.ValidationError; the rest are the sentinels and wrapper below.
var (
	// ErrNotFound means the export does not exist or is not visible
	// (soft-deleted) to the caller.
	ErrNotFound = errors.New("export not found")

	// ErrConflict means an optimistic version check failed; the caller should
	// re-read, re-apply and re-submit a bounded number of times.
	ErrConflict = errors.New("export was modified concurrently")
)

// StoreUnavailableError wraps a transient persistence failure (timeout,
// network, server selection). Safe for the caller to retry reads; writes are
// not auto-retried because activity-log appends make them non-idempotent.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// IsValidationError reports whether err carries a *models.ValidationError.
func IsValidationError(err error) bool {
	var ve *models.ValidationError
	return errors.As(err, &ve)
}

// storeErr classifies a driver error: no documents becomes ErrNotFound,
// transient infrastructure failures become *StoreUnavailableError, everything
// else is wrapped with the operation name.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if db.IsTransientError(err) {
		return &StoreUnavailableError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
