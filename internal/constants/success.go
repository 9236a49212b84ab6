package constants

import "net/http"

// APISuccess represents a standardized API success response with code and HTTP status.
// Use these predefined success constants for consistent API responses across the application.
type APISuccess struct {
	Code   string
	Status int
}

var (
	SuccessLinkCreated = APISuccess{
		Code:   CodeLinkCreated,
		Status: http.StatusCreated,
	}
	SuccessLinkFound = APISuccess{
		Code:   CodeLinkFound,
		Status: http.StatusOK,
	}
	SuccessLinkUpdated = APISuccess{
		Code:   CodeLinkUpdated,
		Status: http.StatusOK,
	}
	SuccessClickTracked = APISuccess{
		Code:   CodeClickTracked,
		Status: http.StatusOK,
	}
	SuccessAnalyticsFound = APISuccess{
		Code:   CodeAnalyticsFound,
		Status: http.StatusOK,
	}
	SuccessHealthy = APISuccess{
		Code:   CodeHealthy,
		Status: http.StatusOK,
	}
	// HealthDegraded keeps the health payload but reports 503.
	HealthDegraded = APISuccess{
		Code:   CodeUnhealthy,
		Status: http.StatusServiceUnavailable,
	}
)
