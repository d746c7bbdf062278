package reconciliation

import (
	"errors"
	"fmt"

	"github.com/cotador/backend/internal/domain/shared"
)

// Commit error codes. Only the commit coordinator's I/O boundary raises these;
// the scorer and the converter never error on ordinary input.
const (
	CodeValidation  = "COMMIT_VALIDATION"  // caller error, not retriable as-is
	CodeConflict    = "COMMIT_CONFLICT"    // active-quotation invariant, re-fetch and re-decide
	CodePersistence = "COMMIT_PERSISTENCE" // store failure, whole commit may be retried
	CodeLookup      = "COMMIT_LOOKUP"      // referenced product/supplier vanished, re-resolve
)

// Session errors
var (
	ErrSessionNotFound = shared.NewDomainError("SESSION_NOT_FOUND", "Reconciliation session not found")
	ErrItemNotFound    = shared.NewDomainError("SESSION_ITEM_NOT_FOUND", "Session item not found")
)

// NewValidationError creates a commit validation error
func NewValidationError(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewConflictError creates a commit conflict error
func NewConflictError(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(CodeConflict, fmt.Sprintf(format, args...))
}

// NewPersistenceError creates a commit persistence error
func NewPersistenceError(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(CodePersistence, fmt.Sprintf(format, args...))
}

// NewLookupError creates a commit lookup error
func NewLookupError(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(CodeLookup, fmt.Sprintf(format, args...))
}

func hasCode(err error, code string) bool {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// IsValidationError reports whether err is a commit validation error
func IsValidationError(err error) bool { return hasCode(err, CodeValidation) }

// IsConflictError reports whether err is a commit conflict error
func IsConflictError(err error) bool { return hasCode(err, CodeConflict) }

// IsPersistenceError reports whether err is a commit persistence error
func IsPersistenceError(err error) bool { return hasCode(err, CodePersistence) }

// IsLookupError reports whether err is a commit lookup error
func IsLookupError(err error) bool { return hasCode(err, CodeLookup) }
