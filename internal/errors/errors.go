package errors

import (
	"errors"
	"fmt"
)

// Validation errors returned directly to callers, never retried.

// ErrInvalidURL is returned when a submitted URL cannot be normalized into an absolute http(s) URL
var ErrInvalidURL = errors.New("invalid URL format")

// ErrInvalidShortCode is returned when a custom short code has a forbidden format or is reserved
var ErrInvalidShortCode = errors.New("invalid short code format")

// ErrCodeAlreadyTaken is returned when a requested custom short code is used by another link
var ErrCodeAlreadyTaken = errors.New("short code is already taken")

// ErrCodeGenerationExhausted is returned when every generated short code collided
var ErrCodeGenerationExhausted = errors.New("failed to generate unique short code")

// ErrLinkNotFound is returned when a lookup by id or short code finds nothing
var ErrLinkNotFound = errors.New("link not found")

// ErrUnauthorized is returned when the requester does not own the targeted link
var ErrUnauthorized = errors.New("not authorized to access this link")

// ErrEmptyBatch is returned when a bulk request carries no items
var ErrEmptyBatch = errors.New("no URLs provided")

// ErrBatchTooLarge is returned when a bulk request exceeds the per-call item limit
var ErrBatchTooLarge = errors.New("too many URLs in a single bulk operation")

// ErrAnalyticsNotFound is returned when no analytics summary has been computed for a link yet
var ErrAnalyticsNotFound = errors.New("analytics not found")

// ErrInvalidGranularity is returned for an unknown analytics bucket granularity
var ErrInvalidGranularity = errors.New("invalid bucket granularity")

// ErrUniqueViolation is reported by stores when an insert or update breaks a uniqueness constraint
var ErrUniqueViolation = errors.New("unique constraint violation")

// ErrStoreFailure matches every StoreError
var ErrStoreFailure = errors.New("store failure")

// StoreError wraps an unclassified error coming from the persistence layer
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStoreFailure) true for any StoreError
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}

// Store wraps err as a StoreError for the given operation. A nil err stays nil.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
