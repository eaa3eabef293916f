package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "flowpulse/internal/errors"
	"flowpulse/internal/flow"
	custommw "flowpulse/internal/middleware"
	"flowpulse/internal/services"
)

// defaultKeyLevels is the level count served when the client does not ask
// for a specific one.
const defaultKeyLevels = 5

// maxKeyLevels bounds the limit query parameter.
const maxKeyLevels = 50

// DataHandler serves the merged trade set and its derived aggregates.
type DataHandler struct {
	service      DataServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	queryParams  *custommw.QueryParamValidator
}

// NewDataHandler creates a data handler with RFC 7807 error handling.
func NewDataHandler(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
		queryParams:  custommw.NewQueryParamValidator(logger, errorHandler),
	}
}

// Routes returns the data routes.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/info", h.GetInfo)
	r.Get("/tickers", h.GetTickers)
	r.Get("/darkpool", h.GetDarkPool)
	r.Get("/darkpool/summary", h.GetDarkPoolSummaries)
	audit := custommw.AuditLog(h.logger)
	r.With(audit).Post("/reload", h.Reload)
	r.With(audit).Post("/export", h.Export)
	r.Get("/psychology/weekly", h.GetWeeklyPsychology)

	r.Route("/ticker/{ticker}", func(r chi.Router) {
		r.Use(h.TickerCtx)
		r.Get("/profile", h.GetProfile)
		r.Get("/expiries", h.GetExpiries)
		r.Get("/levels", h.GetKeyLevels)
		r.Get("/gamma", h.GetGammaExposure)
		r.Get("/maxpain", h.GetMaxPain)
		r.Get("/unusual", h.GetUnusual)
		r.Get("/price", h.GetPrice)
		r.Get("/psychology/hourly", h.GetHourlyPsychology)
		r.Get("/psychology/daily", h.GetDailyPsychology)
	})

	return r
}

// TickerCtx rejects malformed ticker parameters before any service call.
func (h *DataHandler) TickerCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ticker := chi.URLParam(r, "ticker")
		if ticker == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("ticker", "Ticker symbol is required"))
			return
		}
		if !flow.ValidTicker(normalizeTicker(ticker)) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("ticker", "Invalid ticker symbol format"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleServiceError maps service sentinel errors onto API errors.
func (h *DataHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "data request failed",
		slog.String("error", err.Error()),
		slog.String("path", r.URL.Path))

	switch {
	case errors.Is(err, services.ErrTickerNotFound):
		h.errorHandler.HandleError(w, r, apierrors.TickerNotFoundError(chi.URLParam(r, "ticker")))
	case errors.Is(err, services.ErrInvalidTicker):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("ticker", "Invalid ticker symbol format"))
	case errors.Is(err, services.ErrNoSnapshots):
		h.errorHandler.HandleError(w, r, apierrors.ErrNoSnapshots)
	case errors.Is(err, services.ErrPriceUnavailable), errors.Is(err, services.ErrReloadFailed):
		h.errorHandler.HandleError(w, r, apierrors.ErrServiceUnavailable)
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

// GetInfo handles GET /api/data/info
func (h *DataHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   info,
	})
}

// GetTickers handles GET /api/data/tickers
func (h *DataHandler) GetTickers(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.Summaries(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   summaries,
		"count":  len(summaries),
	})
}

// GetDarkPool handles GET /api/data/darkpool
func (h *DataHandler) GetDarkPool(w http.ResponseWriter, r *http.Request) {
	records, info, err := h.service.DarkPool(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   records,
		"info":   info,
		"count":  len(records),
	})
}

// GetDarkPoolSummaries handles GET /api/data/darkpool/summary
func (h *DataHandler) GetDarkPoolSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.DarkPoolSummaries(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   summaries,
		"count":  len(summaries),
	})
}

// Reload handles POST /api/data/reload
func (h *DataHandler) Reload(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"

	h.logger.InfoContext(r.Context(), "manual reload requested",
		slog.Bool("force", force))

	if err := h.service.Reload(r.Context(), force); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	info, err := h.service.Info(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   info,
	})
}

// Export handles POST /api/data/export?format=csv|json|xlsx
func (h *DataHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, ok := h.queryParams.ValidateEnum(w, r, "format", []string{"csv", "json", "xlsx"}, "csv")
	if !ok {
		return
	}

	path, err := h.service.ExportSummaries(r.Context(), format)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status": "success",
		"path":   path,
		"format": format,
	})
}

// GetProfile handles GET /api/data/ticker/{ticker}/profile?expiry=...
func (h *DataHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	expiry := r.URL.Query().Get("expiry")

	entries, err := h.service.Profile(r.Context(), ticker, expiry)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	highest, err := h.service.HighestVolume(r.Context(), ticker, expiry)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status":  "success",
		"data":    entries,
		"highest": highest,
		"count":   len(entries),
	})
}

// GetExpiries handles GET /api/data/ticker/{ticker}/expiries
func (h *DataHandler) GetExpiries(w http.ResponseWriter, r *http.Request) {
	expiries, err := h.service.Expiries(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   expiries,
		"count":  len(expiries),
	})
}

// GetKeyLevels handles GET /api/data/ticker/{ticker}/levels?limit=N
func (h *DataHandler) GetKeyLevels(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.queryParams.ValidateInt(w, r, "limit", 1, maxKeyLevels, defaultKeyLevels)
	if !ok {
		return
	}

	levels, err := h.service.KeyLevels(r.Context(), chi.URLParam(r, "ticker"), limit)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   levels,
		"count":  len(levels),
	})
}

// GetGammaExposure handles GET /api/data/ticker/{ticker}/gamma
func (h *DataHandler) GetGammaExposure(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.GammaExposure(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   entries,
		"count":  len(entries),
	})
}

// GetMaxPain handles GET /api/data/ticker/{ticker}/maxpain
func (h *DataHandler) GetMaxPain(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.MaxPain(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   result,
	})
}

// GetUnusual handles GET /api/data/ticker/{ticker}/unusual
func (h *DataHandler) GetUnusual(w http.ResponseWriter, r *http.Request) {
	alert, err := h.service.Unusual(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status":  "success",
		"data":    alert,
		"flagged": alert != nil,
	})
}

// GetPrice handles GET /api/data/ticker/{ticker}/price
func (h *DataHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	quote, err := h.service.Price(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   quote,
	})
}

// GetHourlyPsychology handles GET /api/data/ticker/{ticker}/psychology/hourly
func (h *DataHandler) GetHourlyPsychology(w http.ResponseWriter, r *http.Request) {
	slots, err := h.service.PsychologyHourly(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   slots,
		"count":  len(slots),
	})
}

// GetDailyPsychology handles GET /api/data/ticker/{ticker}/psychology/daily
func (h *DataHandler) GetDailyPsychology(w http.ResponseWriter, r *http.Request) {
	days, err := h.service.PsychologyDaily(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   days,
		"count":  len(days),
	})
}

// GetWeeklyPsychology handles GET /api/data/psychology/weekly
func (h *DataHandler) GetWeeklyPsychology(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.service.PsychologyWeekly(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   weeks,
		"count":  len(weeks),
	})
}

func normalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
