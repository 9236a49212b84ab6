package constants

import "net/http"

// APIError represents a standardized API error with code, message, and HTTP status.
// Use these predefined errors for consistent API responses across the application.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// WithMessage returns a copy of the APIError with a custom message.
// Useful for validation errors or other dynamic messages.
func (e APIError) WithMessage(message string) APIError {
	return APIError{
		Code:    e.Code,
		Message: message,
		Status:  e.Status,
	}
}

// Common errors - shared across multiple modules
var (
	ErrInvalidRequestBody = APIError{
		Code:    CodeInvalidRequest,
		Message: MsgInvalidRequestBody,
		Status:  http.StatusBadRequest,
	}
	ErrInternalError = APIError{
		Code:    CodeInternalError,
		Message: MsgInternalError,
		Status:  http.StatusInternalServerError,
	}
	ErrUnauthorized = APIError{
		Code:    CodeUnauthorized,
		Message: MsgUnauthorized,
		Status:  http.StatusUnauthorized,
	}
	ErrRateLimited = APIError{
		Code:    CodeRateLimited,
		Message: MsgRateLimited,
		Status:  http.StatusTooManyRequests,
	}
	ErrRouteNotFound = APIError{
		Code:    CodeNotFound,
		Message: MsgRouteNotFound,
		Status:  http.StatusNotFound,
	}
)

// Link and tracking errors
var (
	ErrInvalidURL = APIError{
		Code:    CodeInvalidURL,
		Message: MsgInvalidURL,
		Status:  http.StatusBadRequest,
	}
	ErrInvalidCode = APIError{
		Code:    CodeInvalidRequest,
		Message: MsgInvalidCode,
		Status:  http.StatusBadRequest,
	}
	ErrLinkNotFound = APIError{
		Code:    CodeLinkNotFound,
		Message: MsgLinkNotFound,
		Status:  http.StatusNotFound,
	}
	ErrLinkInactive = APIError{
		Code:    CodeLinkInactive,
		Message: MsgLinkInactive,
		Status:  http.StatusGone,
	}
	ErrInvalidPeriod = APIError{
		Code:    CodeInvalidPeriod,
		Message: MsgInvalidPeriod,
		Status:  http.StatusBadRequest,
	}
	ErrInvalidFormat = APIError{
		Code:    CodeInvalidFormat,
		Message: MsgInvalidFormat,
		Status:  http.StatusBadRequest,
	}
)
