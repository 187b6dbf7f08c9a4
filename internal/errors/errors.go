package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Authentication & Authorization
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"

	// Identity
	ErrCodeIdentityNotFound ErrorCode = "IDENTITY_NOT_FOUND"

	// Game session lifecycle
	ErrCodeCooldownActive     ErrorCode = "COOLDOWN_ACTIVE"
	ErrCodeInvalidSession     ErrorCode = "INVALID_SESSION"
	ErrCodeVerificationFailed ErrorCode = "VERIFICATION_FAILED"
	ErrCodeSessionExpired     ErrorCode = "SESSION_EXPIRED"

	// Validation
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Resource
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	ErrCodeConflict ErrorCode = "CONFLICT"

	// Rate Limiting
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Internal
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
)

// AppError is a structured error that can be returned to clients
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

// CooldownDetails is attached to COOLDOWN_ACTIVE errors so clients can
// render a countdown.
type CooldownDetails struct {
	CooldownEndsAt time.Time `json:"cooldownEndsAt"`
	RemainingMs    int64     `json:"remainingMs"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message)
}

func IdentityNotFound() *AppError {
	return New(ErrCodeIdentityNotFound, "Customer not found")
}

// CooldownActive is the expected not-yet-eligible outcome, not a fault.
func CooldownActive(endsAt time.Time, remaining time.Duration) *AppError {
	return New(ErrCodeCooldownActive, "Cooldown active").WithDetails(CooldownDetails{
		CooldownEndsAt: endsAt,
		RemainingMs:    remaining.Milliseconds(),
	})
}

// InvalidSession covers nonce mismatches: replayed, consumed, or never-issued
// sessions all look identical to the caller.
func InvalidSession() *AppError {
	return New(ErrCodeInvalidSession, "Session invalid, start a new game")
}

// VerificationFailed covers tampering, malformed claims, and forged decks
// with a single generic message so the verifier leaks nothing about which
// check rejected the claim.
func VerificationFailed() *AppError {
	return New(ErrCodeVerificationFailed, "Session invalid, start a new game")
}

func SessionExpired() *AppError {
	return New(ErrCodeSessionExpired, "Session expired, start a new game")
}

func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func InvalidInput(field string, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("Invalid %s: %s", field, reason))
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message)
}

func RateLimitExceeded() *AppError {
	return New(ErrCodeRateLimitExceeded, "Rate limit exceeded")
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func Database(cause error) *AppError {
	return Wrap(ErrCodeDatabase, "Database error", cause)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
