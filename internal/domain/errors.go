package domain

import (
	"errors"
	"net/http"
)

// Error codes for business logic errors.
const (
	CodeNotFound = iota + 1
	CodeDuplicate
	CodeValidation
	CodeNotAuthenticated
	CodeInvalidToken
	CodeTokenExpired
	CodeStaleToken
	CodeForbidden
	CodeInternal
)

// AppError represents an operational error with a code, a user-safe message,
// and an optional wrapped cause.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped error for use with errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined business errors.
//
// To check whether an error matches one of these categories, use the
// corresponding helper function (IsNotFound, IsDuplicate, etc.) instead of
// errors.Is. The helpers use errors.As with error-code comparison, so they
// correctly match any *AppError that carries the same code, including
// freshly constructed instances from NewAppError and wrapped errors,
// whereas errors.Is only matches by pointer identity with the specific
// sentinel below.
var (
	ErrNotFound         = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrDuplicate        = &AppError{Code: CodeDuplicate, Message: "duplicate field value"}
	ErrValidation       = &AppError{Code: CodeValidation, Message: "validation error"}
	ErrNotAuthenticated = &AppError{Code: CodeNotAuthenticated, Message: "you are not logged in"}
	ErrInvalidToken     = &AppError{Code: CodeInvalidToken, Message: "invalid token, please log in again"}
	ErrTokenExpired     = &AppError{Code: CodeTokenExpired, Message: "your token has expired, please log in again"}
	ErrStaleToken       = &AppError{Code: CodeStaleToken, Message: "token is no longer valid, please log in again"}
	ErrForbidden        = &AppError{Code: CodeForbidden, Message: "you do not have permission to perform this action"}
	ErrInternal         = &AppError{Code: CodeInternal, Message: "internal error"}
)

// NewAppError creates a new AppError with the given code, message, and wrapped error.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsNotFound reports whether err is or wraps an AppError with CodeNotFound.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsDuplicate reports whether err is or wraps an AppError with CodeDuplicate.
func IsDuplicate(err error) bool {
	return hasCode(err, CodeDuplicate)
}

// IsValidation reports whether err is or wraps an AppError with CodeValidation.
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation)
}

// IsForbidden reports whether err is or wraps an AppError with CodeForbidden.
func IsForbidden(err error) bool {
	return hasCode(err, CodeForbidden)
}

// IsInternal reports whether err is or wraps an AppError with CodeInternal.
func IsInternal(err error) bool {
	return hasCode(err, CodeInternal)
}

// IsAuthFailure reports whether err is any of the authentication failure
// categories (not authenticated, invalid, expired, or stale token).
func IsAuthFailure(err error) bool {
	return hasCode(err, CodeNotAuthenticated) ||
		hasCode(err, CodeInvalidToken) ||
		hasCode(err, CodeTokenExpired) ||
		hasCode(err, CodeStaleToken)
}

// IsOperational reports whether err is an anticipated, user-facing failure.
// Internal errors and errors that are not AppError at all are not operational:
// their details must never reach the client in release mode.
func IsOperational(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code != CodeInternal
}

// hasCode checks whether err is or wraps an *AppError with the given code.
func hasCode(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// HTTPStatusCode maps an error to an HTTP status code.
// If the error is an *AppError, the code is mapped; otherwise
// http.StatusInternalServerError is returned.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if err != nil && errors.As(err, &appErr) {
		switch appErr.Code {
		case CodeNotFound:
			return http.StatusNotFound
		case CodeDuplicate, CodeValidation:
			return http.StatusBadRequest
		case CodeNotAuthenticated, CodeInvalidToken, CodeTokenExpired, CodeStaleToken:
			return http.StatusUnauthorized
		case CodeForbidden:
			return http.StatusForbidden
		case CodeInternal:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
