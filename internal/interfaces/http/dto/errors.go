package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeValidation is the base code for input validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when a concurrent writer won the race
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// Commit error codes, one per failure category of the commit coordinator
const (
	// ErrCodeCommitValidation is used when the session has unresolved items
	ErrCodeCommitValidation = "ERR_COMMIT_VALIDATION"
	// ErrCodeCommitConflict is used when the append/create choice no longer
	// matches the supplier's quotation state
	ErrCodeCommitConflict = "ERR_COMMIT_CONFLICT"
	// ErrCodeCommitLookup is used when a linked product or the supplier
	// disappeared between reconciliation and commit
	ErrCodeCommitLookup = "ERR_COMMIT_LOOKUP"
	// ErrCodeCommitPersistence is used when the quotation store failed mid-write
	ErrCodeCommitPersistence = "ERR_COMMIT_PERSISTENCE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,

	// Commit errors. Validation and lookup are the operator's to fix, conflict
	// means re-plan, persistence means retry.
	ErrCodeCommitValidation:  http.StatusUnprocessableEntity,
	ErrCodeCommitConflict:    http.StatusConflict,
	ErrCodeCommitLookup:      http.StatusUnprocessableEntity,
	ErrCodeCommitPersistence: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the wire format
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":              ErrCodeNotFound,
	"SESSION_NOT_FOUND":      ErrCodeNotFound,
	"SESSION_ITEM_NOT_FOUND": ErrCodeNotFound,
	"ALREADY_EXISTS":         ErrCodeAlreadyExists,
	"CONCURRENCY_CONFLICT":   ErrCodeConcurrencyConflict,
	"INVALID_STATE":          ErrCodeInvalidState,
	"ALREADY_CLOSED":         ErrCodeInvalidState,
	"QUOTATION_CLOSED":       ErrCodeInvalidState,
	"NO_SUGGESTION":          ErrCodeBusinessRule,
	"UNLINKED_ITEM":          ErrCodeBusinessRule,
	"NO_ITEMS":               ErrCodeBusinessRule,
	"COMMIT_VALIDATION":      ErrCodeCommitValidation,
	"COMMIT_CONFLICT":        ErrCodeCommitConflict,
	"COMMIT_LOOKUP":          ErrCodeCommitLookup,
	"COMMIT_PERSISTENCE":     ErrCodeCommitPersistence,
}

// NormalizeErrorCode converts a domain error code to the wire format.
// Unmapped INVALID_* codes are input validation, anything else unknown
// passes through as-is.
func NormalizeErrorCode(code string) string {
	if wireCode, ok := DomainErrorCodeMapping[code]; ok {
		return wireCode
	}
	if strings.HasPrefix(code, "INVALID_") {
		return ErrCodeValidation
	}
	return code
}
