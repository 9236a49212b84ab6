package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/constants"
	"github.com/IgorGrieder/clicktrack/internal/domain"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/logger"
	appvalidation "github.com/IgorGrieder/clicktrack/internal/infrastructure/validation"
	"github.com/IgorGrieder/clicktrack/internal/processing/links"
	"github.com/IgorGrieder/clicktrack/internal/processing/tracking"
	"github.com/IgorGrieder/clicktrack/internal/processing/visitor"
	"github.com/IgorGrieder/clicktrack/internal/transport/http/middleware"
	"github.com/IgorGrieder/clicktrack/pkg/httputils"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type LinkService interface {
	CreateLink(ctx context.Context, in links.CreateLinkInput) (*domain.ShortURL, error)
	GetLink(ctx context.Context, code, ownerID string) (*domain.ShortURL, error)
	SetActive(ctx context.Context, code, ownerID string, active bool) (*domain.ShortURL, error)
}

type LinksHandlerOptions struct {
	BaseURL        string
	RedirectStatus int
}

type LinksHandler struct {
	links   LinkService
	tracker Tracker

	baseURL        string
	redirectStatus int
}

func NewLinksHandler(svc LinkService, tracker Tracker, opts LinksHandlerOptions) *LinksHandler {
	if opts.RedirectStatus == 0 {
		opts.RedirectStatus = http.StatusFound
	}

	return &LinksHandler{
		links:          svc,
		tracker:        tracker,
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		redirectStatus: opts.RedirectStatus,
	}
}

type createLinkRequest struct {
	URL   string `json:"url" validate:"required,notblank,http_url,max=2048"`
	Title string `json:"title,omitempty" validate:"omitempty,max=200"`
}

type updateLinkRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type linkResponse struct {
	Code         string    `json:"code"`
	OriginalURL  string    `json:"originalUrl"`
	ShortURL     string    `json:"shortUrl"`
	Title        string    `json:"title,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	TotalClicks  int64     `json:"totalClicks"`
	UniqueClicks int64     `json:"uniqueClicks"`
}

func (h *LinksHandler) toResponse(link *domain.ShortURL) linkResponse {
	return linkResponse{
		Code:         link.Code,
		OriginalURL:  link.OriginalURL,
		ShortURL:     h.baseURL + "/" + link.Code,
		Title:        link.Title,
		IsActive:     link.IsActive,
		CreatedAt:    link.CreatedAt,
		TotalClicks:  link.TotalClicks,
		UniqueClicks: link.UniqueClicks,
	}
}

func (h *LinksHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req createLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody)
		return
	}
	if err := appvalidation.Validate(req); err != nil {
		apiErr := constants.ErrInvalidRequestBody.WithMessage(appvalidation.Message(err))
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			for _, e := range validationErrs {
				if e.Field() == "url" {
					apiErr = constants.ErrInvalidURL
					break
				}
			}
		}
		httputils.WriteAPIError(w, r, apiErr)
		return
	}

	link, err := h.links.CreateLink(r.Context(), links.CreateLinkInput{
		URL:     req.URL,
		Title:   req.Title,
		OwnerID: middleware.OwnerID(r.Context()),
	})
	if err != nil {
		switch {
		case errors.Is(err, links.ErrInvalidURL):
			httputils.WriteAPIError(w, r, constants.ErrInvalidURL)
		default:
			logger.Error("failed to create link", zap.Error(err))
			httputils.WriteAPIError(w, r, constants.ErrInternalError)
		}
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinkCreated, h.toResponse(link))
}

func (h *LinksHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	link, err := h.links.GetLink(r.Context(), code, middleware.OwnerID(r.Context()))
	if err != nil {
		writeOwnedLinkError(w, r, code, err)
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinkFound, h.toResponse(link))
}

func (h *LinksHandler) Update(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req updateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody)
		return
	}
	if err := appvalidation.Validate(req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage(appvalidation.Message(err)))
		return
	}

	link, err := h.links.SetActive(r.Context(), code, middleware.OwnerID(r.Context()), *req.IsActive)
	if err != nil {
		writeOwnedLinkError(w, r, code, err)
		return
	}

	logger.Info("link state changed", zap.String("code", link.Code), zap.Bool("is_active", link.IsActive))
	httputils.WriteAPISuccess(w, r, constants.SuccessLinkUpdated, h.toResponse(link))
}

// Redirect tracks the click and sends the visitor on. Tracking trouble past
// the lookup never blocks the redirect.
func (h *LinksHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	utm := visitor.ParseUTMParams(r.URL.String())

	res, err := h.tracker.Track(r.Context(), tracking.TrackInput{
		Code:        code,
		SourceType:  domain.ParseSourceType(r.URL.Query().Get("src")),
		UTMSource:   utm[visitor.UTMSource],
		UTMMedium:   utm[visitor.UTMMedium],
		UTMCampaign: utm[visitor.UTMCampaign],
		UTMTerm:     utm[visitor.UTMTerm],
		UTMContent:  utm[visitor.UTMContent],
		Headers:     r.Header,
		RemoteAddr:  r.RemoteAddr,
	})
	middleware.WriteRateLimitHeaders(w, res.RateLimit)
	if err != nil {
		writeTrackError(w, r, code, res, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, res.OriginalURL, h.redirectStatus)
}

// writeOwnedLinkError maps owner-scoped lookups shared by links and analytics.
func writeOwnedLinkError(w http.ResponseWriter, r *http.Request, code string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		httputils.WriteAPIError(w, r, constants.ErrLinkNotFound)
	case errors.Is(err, links.ErrUnauthorized):
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
	default:
		logger.Error("failed to load link", zap.Error(err), zap.String("code", code))
		httputils.WriteAPIError(w, r, constants.ErrInternalError)
	}
}
