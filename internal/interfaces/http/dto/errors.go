package dto

import (
	"net/http"

	"github.com/notaria/backend/internal/domain/custody"
	"github.com/notaria/backend/internal/domain/shared"
	"github.com/notaria/backend/internal/domain/withholding"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeValidation is used when a request or domain value fails validation
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeInvalidAmount is used for negative, zero or malformed money amounts
	ErrCodeInvalidAmount = "ERR_INVALID_AMOUNT"
	// ErrCodeRequestTooLarge is used when the body exceeds http.max_body_size
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Identity error codes
const (
	// ErrCodeUnauthorized is used when the actor headers are missing or invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the actor lacks the privilege
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTooManyAttempts is used when verification attempts are rate limited
	ErrCodeTooManyAttempts = "ERR_TOO_MANY_ATTEMPTS"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a document or payment event is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConcurrencyConflict is used when the document stayed locked past every retry
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Lifecycle and ledger error codes
const (
	ErrCodeInvalidTransition    = "ERR_INVALID_TRANSITION"
	ErrCodeVerificationMismatch = "ERR_VERIFICATION_MISMATCH"
	ErrCodeAlreadySettled       = "ERR_ALREADY_SETTLED"
	ErrCodeOverAllocation       = "ERR_OVER_ALLOCATION"
)

// Withholding certificate error codes
const (
	ErrCodeCertificateMismatch      = "ERR_CERTIFICATE_MISMATCH"
	ErrCodeCertificateNotAuthorized = "ERR_CERTIFICATE_NOT_AUTHORIZED"
	ErrCodeNoRetentionFound         = "ERR_NO_RETENTION_FOUND"
	ErrCodeDuplicateCertificate     = "ERR_DUPLICATE_CERTIFICATE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeInvalidAmount:   http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeForbidden:       http.StatusForbidden,
	ErrCodeTooManyAttempts: http.StatusTooManyRequests,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// State and reconciliation preconditions -> 422 Unprocessable Entity
	ErrCodeInvalidTransition:        http.StatusUnprocessableEntity,
	ErrCodeVerificationMismatch:     http.StatusUnprocessableEntity,
	ErrCodeAlreadySettled:           http.StatusUnprocessableEntity,
	ErrCodeOverAllocation:           http.StatusUnprocessableEntity,
	ErrCodeCertificateMismatch:      http.StatusUnprocessableEntity,
	ErrCodeCertificateNotAuthorized: http.StatusUnprocessableEntity,
	ErrCodeNoRetentionFound:         http.StatusUnprocessableEntity,
	ErrCodeDuplicateCertificate:     http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	shared.CodeNotFound:                      ErrCodeNotFound,
	shared.CodeValidation:                    ErrCodeValidation,
	shared.CodeInvalidTransition:             ErrCodeInvalidTransition,
	shared.CodeForbidden:                     ErrCodeForbidden,
	shared.CodeConcurrencyConflict:           ErrCodeConcurrencyConflict,
	custody.CodeVerificationMismatch:         ErrCodeVerificationMismatch,
	custody.CodeAlreadySettled:               ErrCodeAlreadySettled,
	custody.CodeOverAllocation:               ErrCodeOverAllocation,
	custody.CodeInvalidAmount:                ErrCodeInvalidAmount,
	withholding.CodeCertificateMismatch:      ErrCodeCertificateMismatch,
	withholding.CodeCertificateNotAuthorized: ErrCodeCertificateNotAuthorized,
	withholding.CodeNoRetentionFound:         ErrCodeNoRetentionFound,
	withholding.CodeDuplicateCertificate:     ErrCodeDuplicateCertificate,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unknown codes become ErrCodeInternal.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	if _, ok := ErrorCodeHTTPStatus[code]; ok {
		return code
	}
	return ErrCodeInternal
}
