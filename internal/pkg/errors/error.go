package xerrors

import (
	"errors"
	"fmt"
)

// Common reusable application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict: resource already exists")
	ErrInternal     = errors.New("internal server error")
)

// CRM sync error taxonomy. Services wrap these with context; handlers
// translate them into HTTP statuses.
var (
	// ErrNotConfigured means the tenant is missing a CRM identifier the
	// operation requires (location, pipeline, calendar). User-fixable,
	// never retried automatically.
	ErrNotConfigured = errors.New("tenant CRM configuration missing")

	// ErrCustomerNotSynced means a push requires the customer to already
	// have a linked CRM contact. The caller should run contact sync first.
	ErrCustomerNotSynced = errors.New("customer has no linked CRM contact")

	// ErrSyncAlreadyRunning means another sync for the same tenant and
	// entity type holds the advisory lock.
	ErrSyncAlreadyRunning = errors.New("sync already running for tenant and entity")

	// ErrAmbiguousMatch means identity resolution found more than one
	// remote candidate; the item is skipped for manual resolution.
	ErrAmbiguousMatch = errors.New("multiple CRM contacts matched")

	// ErrRemoteUnavailable means the CRM kept failing transiently until
	// the retry budget was exhausted.
	ErrRemoteUnavailable = errors.New("CRM unavailable after retries")

	// ErrRemoteRejected means the CRM returned a non-retryable rejection
	// (bad payload, auth failure).
	ErrRemoteRejected = errors.New("CRM rejected the request")

	// ErrSchedulingConflict means the CRM calendar refused an appointment
	// because of an overlap. The CRM is the scheduling authority; the
	// conflict is surfaced as-is and never retried.
	ErrSchedulingConflict = errors.New("CRM reported a scheduling conflict")
)

// MappingError reports a single item that could not be translated to or
// from the CRM wire format. It short-circuits that item only, never the
// whole batch.
type MappingError struct {
	Field  string
	Reason string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("mapping failed on %s: %s", e.Field, e.Reason)
}

// NewMappingError builds a MappingError for a single field.
func NewMappingError(field, reason string) *MappingError {
	return &MappingError{Field: field, Reason: reason}
}

// IsMapping reports whether err is (or wraps) a MappingError.
func IsMapping(err error) bool {
	var me *MappingError
	return errors.As(err, &me)
}

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is allows checking whether an error is a specific sentinel error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Unwrap extracts the underlying wrapped error.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// MessageOrDefault returns err.Error() or a fallback message if err is nil.
func MessageOrDefault(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
