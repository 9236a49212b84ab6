package httputils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/constants"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CorrelationIDHeader      = "X-Correlation-Id"
	RateLimitLimitHeader     = "X-RateLimit-Limit"
	RateLimitRemainingHeader = "X-RateLimit-Remaining"
	RateLimitResetHeader     = "X-RateLimit-Reset"
)

// APIResponse wraps all API responses with metadata
type APIResponse struct {
	ResponseTime  time.Time `json:"responseTime" example:"2024-01-15T10:30:00Z"`
	CorrelationId string    `json:"correlationId" example:"550e8400-e29b-41d4-a716-446655440000"`
	Code          string    `json:"code,omitempty" example:"CLICK_TRACKED"`
	Data          any       `json:"data,omitempty"`
	Error         string    `json:"error,omitempty" example:"INVALID_REQUEST"`
	Message       string    `json:"message,omitempty" example:"Request processed successfully"`
	RetryAfter    int       `json:"retryAfter,omitempty" example:"42"`
}

// RateLimitInfo is what the X-RateLimit-* headers report.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// GetCorrelationID extracts the correlation ID from the request header
// If not present, generates a new UUID v4
func GetCorrelationID(r *http.Request) string {
	correlationID := r.Header.Get(CorrelationIDHeader)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	return correlationID
}

// WriteAPIError writes an error response with metadata using a predefined APIError
func WriteAPIError(w http.ResponseWriter, r *http.Request, apiErr constants.APIError) {
	writeEnvelope(w, r, apiErr.Status, APIResponse{
		Error:   apiErr.Code,
		Message: apiErr.Message,
	})
}

// WriteRateLimited answers 429 with a Retry-After header and the same hint
// in the body.
func WriteRateLimited(w http.ResponseWriter, r *http.Request, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	writeEnvelope(w, r, constants.ErrRateLimited.Status, APIResponse{
		Error:      constants.ErrRateLimited.Code,
		Message:    constants.ErrRateLimited.Message,
		RetryAfter: retryAfter,
	})
}

// WriteAPISuccess writes a success response with metadata using a predefined APISuccess
func WriteAPISuccess(w http.ResponseWriter, r *http.Request, apiSuccess constants.APISuccess, data any) {
	writeEnvelope(w, r, apiSuccess.Status, APIResponse{
		Code: apiSuccess.Code,
		Data: data,
	})
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, response APIResponse) {
	correlationID := GetCorrelationID(r)

	w.Header().Set(CorrelationIDHeader, correlationID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response.ResponseTime = time.Now().UTC()
	response.CorrelationId = correlationID

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("failed to encode json response", zap.Error(err))
	}
}

// WriteRateLimitHeaders sets X-RateLimit-Limit, -Remaining and -Reset. Reset
// is a unix timestamp in seconds.
func WriteRateLimitHeaders(w http.ResponseWriter, info RateLimitInfo) {
	h := w.Header()
	h.Set(RateLimitLimitHeader, strconv.Itoa(info.Limit))
	h.Set(RateLimitRemainingHeader, strconv.Itoa(info.Remaining))
	h.Set(RateLimitResetHeader, strconv.FormatInt(info.Reset.Unix(), 10))
}

// WriteAttachment sends body as a downloadable file.
func WriteAttachment(w http.ResponseWriter, r *http.Request, filename, contentType string, body []byte) {
	w.Header().Set(CorrelationIDHeader, GetCorrelationID(r))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(body); err != nil {
		logger.Error("failed to write attachment", zap.String("filename", filename), zap.Error(err))
	}
}
