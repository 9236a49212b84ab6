package constants

// Error codes used in API responses.
// These are the machine-readable codes returned in the "error" field.
const (
	// Common error codes
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeRateLimited    = "RATE_LIMITED"

	// Link and tracking codes
	CodeInvalidURL    = "INVALID_URL"
	CodeLinkNotFound  = "LINK_NOT_FOUND"
	CodeLinkInactive  = "LINK_INACTIVE"
	CodeInvalidPeriod = "INVALID_PERIOD"
	CodeInvalidFormat = "INVALID_FORMAT"

	// Success codes
	CodeLinkCreated    = "LINK_CREATED"
	CodeLinkFound      = "LINK_FOUND"
	CodeLinkUpdated    = "LINK_UPDATED"
	CodeClickTracked   = "CLICK_TRACKED"
	CodeAnalyticsFound = "ANALYTICS_FOUND"
	CodeHealthy        = "HEALTHY"
	CodeUnhealthy      = "UNHEALTHY"
)
