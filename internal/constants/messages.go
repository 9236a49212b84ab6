package constants

// Error messages used in API responses.
// These are the human-readable messages returned in the "message" field.
const (
	// Common messages
	MsgInvalidRequestBody = "Invalid request body"
	MsgInternalError      = "An internal error occurred"
	MsgUnauthorized       = "Unauthorized"
	MsgRateLimited        = "Too many requests, try again later"
	MsgRouteNotFound      = "Route not found"

	// Link and tracking messages
	MsgInvalidURL    = "Invalid URL (must be http or https)"
	MsgInvalidCode   = "Invalid short code"
	MsgLinkNotFound  = "Link not found"
	MsgLinkInactive  = "Link is no longer active"
	MsgInvalidPeriod = "Invalid period (use 24h, 7d, 30d, 90d or all)"
	MsgInvalidFormat = "Invalid format (use csv or json)"
)
