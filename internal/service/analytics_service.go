package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/analytics"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/apperrors"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/model"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/repository"
)

// batchParallelism bounds how many portfolios recompute concurrently.
// Independent requests share no mutable state beyond the rate cache, so the
// limit exists to cap database pressure, not for correctness.
const batchParallelism = 4

// AnalyticsService orchestrates the analytics engine over stored rows: it
// loads prices, allocations and portfolio metadata, runs the valuation,
// risk and quality computations, and persists the resulting snapshots.
//
// Degradation policy lives here, not in the engine: the index series and
// allocation schedule are required feeds, while the benchmark series and
// risk statistics are best-effort. An absent benchmark or an
// insufficient-data risk result produces nil fields in the response rather
// than a failure, mirroring how optional feeds degrade in the UI.
type AnalyticsService struct {
	db             *sql.DB
	portfolioRepo  *repository.PortfolioRepository
	priceRepo      *repository.PriceRepository
	allocationRepo *repository.AllocationRepository
	snapshotRepo   *repository.SnapshotRepository
	valuation      *analytics.ValuationEngine
	risk           *analytics.RiskCalculator
	assessor       *analytics.Assessor
	riskFreeRate   float64
	now            func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService with the provided dependencies.
func NewAnalyticsService(
	db *sql.DB,
	portfolioRepo *repository.PortfolioRepository,
	priceRepo *repository.PriceRepository,
	allocationRepo *repository.AllocationRepository,
	snapshotRepo *repository.SnapshotRepository,
	valuation *analytics.ValuationEngine,
	risk *analytics.RiskCalculator,
	assessor *analytics.Assessor,
) *AnalyticsService {
	return &AnalyticsService{
		db:             db,
		portfolioRepo:  portfolioRepo,
		priceRepo:      priceRepo,
		allocationRepo: allocationRepo,
		snapshotRepo:   snapshotRepo,
		valuation:      valuation,
		risk:           risk,
		assessor:       assessor,
		now:            time.Now,
	}
}

// SetClock overrides the service clock. Intended for tests.
func (s *AnalyticsService) SetClock(now func() time.Time) {
	s.now = now
}

// SetRiskFreeRate sets the annualized risk-free rate used for Sharpe ratios.
func (s *AnalyticsService) SetRiskFreeRate(rate float64) {
	s.riskFreeRate = rate
}

// ComputePortfolioAnalytics runs one full analytics pass for a portfolio
// over a date range and persists the results.
//
// The index series is the required feed: valuation failures
// (apperrors.ErrInvalidInput, apperrors.ErrInsufficientData) abort the run.
// The benchmark series and the risk snapshot are best-effort: their absence
// leaves nil fields. Quality assessment never fails.
func (s *AnalyticsService) ComputePortfolioAnalytics(ctx context.Context, portfolioID string, startDate, endDate time.Time) (model.PortfolioAnalytics, error) {
	portfolio, err := s.portfolioRepo.GetPortfolio(portfolioID)
	if err != nil {
		return model.PortfolioAnalytics{}, err
	}

	assets, err := s.priceRepo.GetPortfolioAssets(portfolioID)
	if err != nil {
		return model.PortfolioAnalytics{}, err
	}

	assetIDs := make([]string, len(assets))
	for i, a := range assets {
		assetIDs[i] = a.ID
	}

	prices, err := s.priceRepo.GetPrices(assetIDs, startDate, endDate)
	if err != nil {
		return model.PortfolioAnalytics{}, err
	}

	weights, err := s.allocationRepo.GetWeights(portfolioID, endDate)
	if err != nil {
		return model.PortfolioAnalytics{}, err
	}

	valuation, err := s.valuation.ComputeSeries(ctx, prices, weights, portfolio.BaseCurrency)
	if err != nil {
		return model.PortfolioAnalytics{}, fmt.Errorf("valuation for portfolio %s: %w", portfolioID, err)
	}

	result := model.PortfolioAnalytics{
		PortfolioID:   portfolioID,
		BaseCurrency:  portfolio.BaseCurrency,
		IndexSeries:   valuation.Series,
		DegradedDates: valuation.DegradedDates,
		ComputedAt:    s.now().UTC(),
	}

	// Benchmark returns are a best-effort feed: any failure loading or
	// valuing the benchmark leaves beta/alpha/correlation nil.
	benchmark := s.benchmarkReturns(ctx, portfolio, startDate, endDate)

	snapshot, err := s.risk.Compute(valuation.Returns, benchmark, s.riskFreeRate)
	switch {
	case err == nil:
		snapshot.PortfolioID = portfolioID
		snapshot.Date = result.ComputedAt
		result.Risk = &snapshot
	case errors.Is(err, apperrors.ErrInsufficientData):
		// Partial result: callers still get the series and quality envelope.
	default:
		return model.PortfolioAnalytics{}, err
	}

	quality := s.assessor.Assess(s.rawQualityMetrics(assets, assetIDs, prices, valuation, portfolio))
	result.Quality = &quality

	if err := s.persist(ctx, portfolioID, result); err != nil {
		return model.PortfolioAnalytics{}, err
	}

	return result, nil
}

// AssessQuality recomputes the data-quality snapshot on demand from current
// raw metrics. A failed valuation does not fail the assessment: the raw
// metrics it would have contributed stay absent and degrade the score,
// which is the designed channel for "trust this result less".
func (s *AnalyticsService) AssessQuality(ctx context.Context, portfolioID string, startDate, endDate time.Time) (model.DataQualitySnapshot, error) {
	portfolio, err := s.portfolioRepo.GetPortfolio(portfolioID)
	if err != nil {
		return model.DataQualitySnapshot{}, err
	}

	assets, err := s.priceRepo.GetPortfolioAssets(portfolioID)
	if err != nil {
		return model.DataQualitySnapshot{}, err
	}

	assetIDs := make([]string, len(assets))
	for i, a := range assets {
		assetIDs[i] = a.ID
	}

	prices, err := s.priceRepo.GetPrices(assetIDs, startDate, endDate)
	if err != nil {
		return model.DataQualitySnapshot{}, err
	}

	weights, err := s.allocationRepo.GetWeights(portfolioID, endDate)
	if err != nil {
		return model.DataQualitySnapshot{}, err
	}

	valuation, err := s.valuation.ComputeSeries(ctx, prices, weights, portfolio.BaseCurrency)
	if err != nil {
		valuation = analytics.ValuationResult{}
	}

	return s.assessor.Assess(s.rawQualityMetrics(assets, assetIDs, prices, valuation, portfolio)), nil
}

// GetIndexSeries retrieves a portfolio's stored index series.
func (s *AnalyticsService) GetIndexSeries(portfolioID string, startDate, endDate time.Time) ([]model.IndexValue, error) {
	if _, err := s.portfolioRepo.GetPortfolio(portfolioID); err != nil {
		return nil, err
	}
	return s.snapshotRepo.GetIndexSeries(portfolioID, startDate, endDate)
}

// GetLatestRiskSnapshot retrieves a portfolio's most recent risk snapshot.
func (s *AnalyticsService) GetLatestRiskSnapshot(portfolioID string) (model.RiskMetricSnapshot, error) {
	if _, err := s.portfolioRepo.GetPortfolio(portfolioID); err != nil {
		return model.RiskMetricSnapshot{}, err
	}
	return s.snapshotRepo.GetLatestRiskSnapshot(portfolioID)
}

// GetAllPortfolios retrieves every portfolio, including archived ones.
func (s *AnalyticsService) GetAllPortfolios() ([]model.Portfolio, error) {
	return s.portfolioRepo.GetPortfolios(model.PortfolioFilter{IncludeArchived: true})
}

// benchmarkReturns computes the benchmark asset's per-period return series
// over the same range. Returns nil when no benchmark is configured or any
// step fails; the caller treats nil as "benchmark feed absent".
func (s *AnalyticsService) benchmarkReturns(ctx context.Context, portfolio model.Portfolio, startDate, endDate time.Time) []float64 {
	if portfolio.BenchmarkAssetID == nil {
		return nil
	}

	prices, err := s.priceRepo.GetPrices([]string{*portfolio.BenchmarkAssetID}, startDate, endDate)
	if err != nil || len(prices) < 2 {
		return nil
	}

	weights := []model.AllocationWeight{{
		AssetID: *portfolio.BenchmarkAssetID,
		Date:    prices[0].Date,
		Weight:  1.0,
	}}

	valuation, err := s.valuation.ComputeSeries(ctx, prices, weights, portfolio.BaseCurrency)
	if err != nil {
		return nil
	}
	return valuation.Returns
}

// rawQualityMetrics assembles the observable facts feeding the quality
// assessment from the rows and the valuation outcome. Freshness is measured
// against the newest stored price across the portfolio's assets, not the
// newest inside the requested window: a historical query must not mark
// current data stale. A failed lookup leaves the metric absent.
func (s *AnalyticsService) rawQualityMetrics(
	assets []model.Asset,
	assetIDs []string,
	prices []model.PricePoint,
	valuation analytics.ValuationResult,
	portfolio model.Portfolio,
) model.RawQualityMetrics {
	raw := model.RawQualityMetrics{
		HasBenchmark: portfolio.BenchmarkAssetID != nil,
	}

	pricedAssets := make(map[string]bool)
	for _, p := range prices {
		pricedAssets[p.AssetID] = true
	}

	newest, err := s.priceRepo.GetLatestPriceDate(assetIDs)
	if err == nil && !newest.IsZero() {
		daysOld := s.now().UTC().Sub(newest).Hours() / 24
		if daysOld < 0 {
			daysOld = 0
		}
		raw.DaysOld = &daysOld
	}

	if len(prices) > 0 {
		count := len(pricedAssets)
		raw.ActualAssetCount = &count
	}

	if len(valuation.Series) > 0 {
		errorRate := float64(len(valuation.DegradedDates)) / float64(len(valuation.Series))
		raw.ErrorRate = &errorRate
	}

	sectors := make(map[string]bool)
	regions := make(map[string]bool)
	for _, a := range assets {
		if a.Sector != "" {
			sectors[a.Sector] = true
		}
		if a.Region != "" {
			regions[a.Region] = true
		}
	}
	raw.SectorCount = len(sectors)
	raw.RegionCount = len(regions)

	return raw
}

// persist writes the index series and risk snapshot in one transaction so a
// cancelled or failed run never leaves a partially-written snapshot.
func (s *AnalyticsService) persist(ctx context.Context, portfolioID string, result model.PortfolioAnalytics) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	repo := s.snapshotRepo.WithTx(tx)

	if err := repo.ReplaceIndexSeries(ctx, portfolioID, result.IndexSeries); err != nil {
		return err
	}

	if result.Risk != nil {
		if _, err := repo.SaveRiskSnapshot(ctx, *result.Risk); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot transaction: %w", err)
	}

	return nil
}

// RecomputeAll recomputes analytics for every active portfolio over the
// trailing year. Portfolios run in parallel under a bounded errgroup; each
// item is independent and atomic, so one failure is recorded and the rest
// continue, and a context cancellation aborts remaining items without
// corrupting completed ones.
func (s *AnalyticsService) RecomputeAll(ctx context.Context) (model.BatchResult, error) {
	portfolios, err := s.portfolioRepo.GetPortfolios(model.PortfolioFilter{})
	if err != nil {
		return model.BatchResult{}, err
	}

	endDate := s.now().UTC()
	startDate := endDate.AddDate(-1, 0, 0)

	type itemOutcome struct {
		portfolio model.Portfolio
		err       error
	}

	outcomes := make([]itemOutcome, len(portfolios))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(batchParallelism)

	for i, portfolio := range portfolios {
		i, portfolio := i, portfolio
		g.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				outcomes[i] = itemOutcome{portfolio: portfolio, err: err}
				return nil
			}
			_, err := s.ComputePortfolioAnalytics(groupCtx, portfolio.ID, startDate, endDate)
			outcomes[i] = itemOutcome{portfolio: portfolio, err: err}
			return nil
		})
	}

	// Workers always return nil; per-item errors are collected below.
	_ = g.Wait()

	result := model.BatchResult{
		Recomputed: []string{},
		Errors:     []model.BatchItemError{},
	}
	for _, outcome := range outcomes {
		if outcome.err != nil {
			result.Errors = append(result.Errors, model.BatchItemError{
				PortfolioID: outcome.portfolio.ID,
				Name:        outcome.portfolio.Name,
				Error:       outcome.err.Error(),
			})
			continue
		}
		result.Recomputed = append(result.Recomputed, outcome.portfolio.ID)
	}
	result.TotalComputed = len(result.Recomputed)
	result.TotalErrors = len(result.Errors)
	result.Success = result.TotalComputed > 0

	return result, nil
}
