package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/constants"
	"github.com/IgorGrieder/clicktrack/internal/domain"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/logger"
	appvalidation "github.com/IgorGrieder/clicktrack/internal/infrastructure/validation"
	"github.com/IgorGrieder/clicktrack/internal/processing/tracking"
	"github.com/IgorGrieder/clicktrack/internal/transport/http/middleware"
	"github.com/IgorGrieder/clicktrack/pkg/httputils"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxBodyBytes = 16 << 10

var timeNow = time.Now

type Tracker interface {
	Track(ctx context.Context, in tracking.TrackInput) (tracking.TrackResult, error)
}

type TrackHandler struct {
	tracker Tracker
}

func NewTrackHandler(tracker Tracker) *TrackHandler {
	return &TrackHandler{tracker: tracker}
}

type trackRequest struct {
	Code        string `json:"code" validate:"required,shortcode"`
	Fingerprint string `json:"fingerprint,omitempty" validate:"omitempty,max=128"`
	Referrer    string `json:"referrer,omitempty" validate:"omitempty,max=2048"`
	SourceType  string `json:"sourceType,omitempty" validate:"omitempty,oneof=direct qr api"`
	UTMSource   string `json:"utmSource,omitempty" validate:"omitempty,max=255"`
	UTMMedium   string `json:"utmMedium,omitempty" validate:"omitempty,max=255"`
	UTMCampaign string `json:"utmCampaign,omitempty" validate:"omitempty,max=255"`
	UTMTerm     string `json:"utmTerm,omitempty" validate:"omitempty,max=255"`
	UTMContent  string `json:"utmContent,omitempty" validate:"omitempty,max=255"`
}

type trackResponse struct {
	OriginalURL string `json:"originalUrl"`
	Tracked     bool   `json:"tracked"`
}

// Track records a click reported by a landing page or client and returns
// the destination.
func (h *TrackHandler) Track(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody)
		return
	}
	if err := appvalidation.Validate(req); err != nil {
		httputils.WriteAPIError(w, r, trackValidationError(err))
		return
	}

	res, err := h.tracker.Track(r.Context(), tracking.TrackInput{
		Code:        req.Code,
		Fingerprint: req.Fingerprint,
		Referrer:    req.Referrer,
		SourceType:  domain.ParseSourceType(req.SourceType),
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		UTMTerm:     req.UTMTerm,
		UTMContent:  req.UTMContent,
		Headers:     r.Header,
		RemoteAddr:  r.RemoteAddr,
	})
	middleware.WriteRateLimitHeaders(w, res.RateLimit)
	if err != nil {
		writeTrackError(w, r, req.Code, res, err)
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessClickTracked, trackResponse{
		OriginalURL: res.OriginalURL,
		Tracked:     res.Tracked,
	})
}

func trackValidationError(err error) constants.APIError {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			if e.Field() == "code" {
				return constants.ErrInvalidCode
			}
		}
	}
	return constants.ErrInvalidRequestBody.WithMessage(appvalidation.Message(err))
}

// writeTrackError maps tracking failures for both /track and the redirect.
func writeTrackError(w http.ResponseWriter, r *http.Request, code string, res tracking.TrackResult, err error) {
	switch {
	case errors.Is(err, tracking.ErrInvalidCode):
		httputils.WriteAPIError(w, r, constants.ErrInvalidCode)
	case errors.Is(err, tracking.ErrRateLimited):
		httputils.WriteRateLimited(w, r, res.RateLimit.RetryAfter(timeNow()))
	case errors.Is(err, domain.ErrNotFound):
		httputils.WriteAPIError(w, r, constants.ErrLinkNotFound)
	case errors.Is(err, tracking.ErrLinkInactive):
		httputils.WriteAPIError(w, r, constants.ErrLinkInactive)
	default:
		logger.Error("failed to track click", zap.Error(err), zap.String("code", code))
		httputils.WriteAPIError(w, r, constants.ErrInternalError)
	}
}
