package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/IgorGrieder/clicktrack/internal/constants"
	"github.com/IgorGrieder/clicktrack/internal/domain"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/logger"
	"github.com/IgorGrieder/clicktrack/internal/processing/analytics"
	"github.com/IgorGrieder/clicktrack/internal/transport/http/middleware"
	"github.com/IgorGrieder/clicktrack/pkg/httputils"
	"go.uber.org/zap"
)

type AnalyticsService interface {
	GetAnalytics(ctx context.Context, code, ownerID string, period analytics.Period) (*analytics.Report, error)
	Export(ctx context.Context, code, ownerID string, period analytics.Period, format analytics.Format) (*analytics.Export, error)
}

type AnalyticsHandler struct {
	svc AnalyticsService
}

func NewAnalyticsHandler(svc AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// Get returns the owner's report for ?period=24h|7d|30d|90d|all.
func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	period, err := analytics.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidPeriod)
		return
	}

	report, err := h.svc.GetAnalytics(r.Context(), code, middleware.OwnerID(r.Context()), period)
	if err != nil {
		writeAnalyticsError(w, r, code, err)
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessAnalyticsFound, report)
}

// Export streams the raw clicks as an attachment, ?format=csv|json.
func (h *AnalyticsHandler) Export(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	q := r.URL.Query()

	period, err := analytics.ParsePeriod(q.Get("period"))
	if err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidPeriod)
		return
	}
	format, err := analytics.ParseFormat(q.Get("format"))
	if err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidFormat)
		return
	}

	export, err := h.svc.Export(r.Context(), code, middleware.OwnerID(r.Context()), period, format)
	if err != nil {
		writeAnalyticsError(w, r, code, err)
		return
	}

	logger.Info("analytics exported",
		zap.String("code", code),
		zap.String("format", string(format)),
		zap.String("period", string(period)),
		zap.Int("rows", export.Rows),
	)
	httputils.WriteAttachment(w, r, export.Filename, export.ContentType, export.Body)
}

func writeAnalyticsError(w http.ResponseWriter, r *http.Request, code string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		httputils.WriteAPIError(w, r, constants.ErrLinkNotFound)
	case errors.Is(err, analytics.ErrUnauthorized):
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
	case errors.Is(err, analytics.ErrInvalidPeriod):
		httputils.WriteAPIError(w, r, constants.ErrInvalidPeriod)
	case errors.Is(err, analytics.ErrInvalidFormat):
		httputils.WriteAPIError(w, r, constants.ErrInvalidFormat)
	default:
		logger.Error("failed to build analytics", zap.Error(err), zap.String("code", code))
		httputils.WriteAPIError(w, r, constants.ErrInternalError)
	}
}
