package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/api/response"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/service"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/validation"
)

// defaultLookback is the range used when the caller omits start_date.
const defaultLookback = 365 * 24 * time.Hour

// AnalyticsHandler handles portfolio analytics HTTP requests
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// ListPortfolios handles GET requests to retrieve all portfolios.
//
// Endpoint: GET /api/portfolio
// Response: 200 OK with an array of portfolios
func (h *AnalyticsHandler) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.analyticsService.GetAllPortfolios()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "Failed to retrieve portfolios", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, portfolios)
}

// GetIndexSeries handles GET requests for a portfolio's stored index series.
//
// Endpoint: GET /api/portfolio/{uuid}/index
// Query parameters:
//   - start_date: optional, YYYY-MM-DD (default: one year before end_date)
//   - end_date: optional, YYYY-MM-DD (default: today)
//
// Response: 200 OK with the index series, 400 for malformed dates
func (h *AnalyticsHandler) GetIndexSeries(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "Invalid date range", err.Error())
		return
	}

	series, err := h.analyticsService.GetIndexSeries(portfolioID, startDate, endDate)
	if err != nil {
		respondComputationError(w, "Failed to retrieve index series", err)
		return
	}
	respondJSON(w, http.StatusOK, series)
}

// GetRiskMetrics handles GET requests for a portfolio's latest risk snapshot.
//
// Endpoint: GET /api/portfolio/{uuid}/risk
// Response: 200 OK with the snapshot, 404 when none has been computed yet
func (h *AnalyticsHandler) GetRiskMetrics(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	snapshot, err := h.analyticsService.GetLatestRiskSnapshot(portfolioID)
	if err != nil {
		respondComputationError(w, "Failed to retrieve risk metrics", err)
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

// GetDataQuality handles GET requests for a portfolio's data-quality assessment.
// Quality is recomputed on demand rather than read from a snapshot so the
// freshness dimension reflects the moment of the request.
//
// Endpoint: GET /api/portfolio/{uuid}/quality
// Query parameters: start_date, end_date as for the index endpoint
// Response: 200 OK with the assessment
func (h *AnalyticsHandler) GetDataQuality(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "Invalid date range", err.Error())
		return
	}

	quality, err := h.analyticsService.AssessQuality(r.Context(), portfolioID, startDate, endDate)
	if err != nil {
		respondComputationError(w, "Failed to assess data quality", err)
		return
	}
	respondJSON(w, http.StatusOK, quality)
}

// Recompute handles POST requests to recompute a single portfolio's analytics.
//
// Endpoint: POST /api/portfolio/{uuid}/recompute
// Query parameters: start_date, end_date as for the index endpoint
// Response: 200 OK with the full analytics envelope, 422 when the portfolio
// lacks the data to compute an index
func (h *AnalyticsHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "Invalid date range", err.Error())
		return
	}

	result, err := h.analyticsService.ComputePortfolioAnalytics(r.Context(), portfolioID, startDate, endDate)
	if err != nil {
		respondComputationError(w, "Failed to compute portfolio analytics", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// RecomputeAll handles POST requests to recompute analytics for every
// non-archived portfolio over the trailing year. Per-portfolio failures are
// reported in the body without failing the batch.
//
// Endpoint: POST /api/portfolio/recompute
// Response: 200 OK with a batch summary
func (h *AnalyticsHandler) RecomputeAll(w http.ResponseWriter, r *http.Request) {
	result, err := h.analyticsService.RecomputeAll(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "Failed to recompute portfolios", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// parseDateRange reads start_date and end_date query parameters, applying
// the default trailing-year window and validating ordering.
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	endDate := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		parsed, err := validation.ParseDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		endDate = parsed
	}

	startDate := endDate.Add(-defaultLookback)
	if raw := r.URL.Query().Get("start_date"); raw != "" {
		parsed, err := validation.ParseDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		startDate = parsed
	}

	if err := validation.ValidateDateRange(startDate, endDate); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return startDate, endDate, nil
}
