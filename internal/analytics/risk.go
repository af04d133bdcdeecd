package analytics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/apperrors"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/model"
)

// RiskConfig holds the tunable constants of the risk calculator.
type RiskConfig struct {
	AnnualizationFactor float64 // Trading periods per year
	VaRConfidence       float64 // e.g. 0.95 for 5th-percentile VaR
	MinVaRObservations  int     // Historical-method minimum sample size
}

// DefaultRiskConfig returns the documented defaults: 252 trading periods,
// 95% VaR confidence, 20-observation VaR minimum.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		AnnualizationFactor: 252,
		VaRConfidence:       0.95,
		MinVaRObservations:  20,
	}
}

// RiskCalculator produces a RiskMetricSnapshot from a return series. All
// returns are simple per-period returns. The calculator is stateless; a
// snapshot is a new value per run.
type RiskCalculator struct {
	cfg RiskConfig
}

// NewRiskCalculator creates a RiskCalculator. Zero-valued config fields fall
// back to the defaults.
func NewRiskCalculator(cfg RiskConfig) *RiskCalculator {
	defaults := DefaultRiskConfig()
	if cfg.AnnualizationFactor == 0 {
		cfg.AnnualizationFactor = defaults.AnnualizationFactor
	}
	if cfg.VaRConfidence == 0 {
		cfg.VaRConfidence = defaults.VaRConfidence
	}
	if cfg.MinVaRObservations == 0 {
		cfg.MinVaRObservations = defaults.MinVaRObservations
	}
	return &RiskCalculator{cfg: cfg}
}

// Compute calculates risk and performance statistics over a return series.
//
// The snapshot is a best-effort envelope: metrics that cannot be computed
// from the supplied data are nil, never zero. Sharpe is nil when volatility
// is 0; VaR/CVaR are nil below the historical-method minimum sample; beta,
// alpha and correlation are nil when benchmark is empty or its length does
// not match the return series. Only a sample of fewer than 2 observations
// fails, with apperrors.ErrInsufficientData.
func (c *RiskCalculator) Compute(returns, benchmark []float64, riskFreeRate float64) (model.RiskMetricSnapshot, error) {
	n := len(returns)
	if n < 2 {
		return model.RiskMetricSnapshot{}, fmt.Errorf("%w: %d return observations, need at least 2",
			apperrors.ErrInsufficientData, n)
	}

	snapshot := model.RiskMetricSnapshot{Observations: n}

	// Growth of 1 through the series; equals NAV_last/NAV_first.
	growth := 1.0
	for _, r := range returns {
		growth *= 1 + r
	}
	snapshot.TotalReturn = growth - 1
	snapshot.AnnualizedReturn = math.Pow(growth, c.cfg.AnnualizationFactor/float64(n)) - 1

	// Sample standard deviation (n-1 denominator), annualized.
	snapshot.Volatility = stat.StdDev(returns, nil) * math.Sqrt(c.cfg.AnnualizationFactor)

	if snapshot.Volatility > 0 {
		sharpe := (snapshot.AnnualizedReturn - riskFreeRate) / snapshot.Volatility
		snapshot.SharpeRatio = &sharpe
	}

	snapshot.MaxDrawdown, snapshot.CurrentDrawdown = drawdowns(returns)

	if n >= c.cfg.MinVaRObservations {
		varValue, cvarValue := historicalVaR(returns, c.cfg.VaRConfidence)
		snapshot.VaR95 = &varValue
		snapshot.CVaR95 = &cvarValue
	}

	if len(benchmark) == n {
		c.benchmarkMetrics(&snapshot, returns, benchmark)
	}

	c.winLossAggregates(&snapshot, returns)

	return snapshot, nil
}

// drawdowns rebuilds the NAV path from the return series and measures the
// worst decline from the running peak, plus the decline at the last date.
func drawdowns(returns []float64) (maxDrawdown, currentDrawdown float64) {
	nav := 1.0
	peak := 1.0
	for _, r := range returns {
		nav *= 1 + r
		if nav > peak {
			peak = nav
		}
		currentDrawdown = nav/peak - 1
		if currentDrawdown < maxDrawdown {
			maxDrawdown = currentDrawdown
		}
	}
	return maxDrawdown, currentDrawdown
}

// historicalVaR computes the linear-interpolated order-statistic percentile
// of the return distribution and the mean of the tail at or below it.
func historicalVaR(returns []float64, confidence float64) (varValue, cvarValue float64) {
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	varValue = stat.Quantile(1-confidence, stat.LinInterp, sorted, nil)

	tailSum := 0.0
	tailCount := 0
	for _, r := range sorted {
		if r > varValue {
			break
		}
		tailSum += r
		tailCount++
	}
	if tailCount > 0 {
		cvarValue = tailSum / float64(tailCount)
	} else {
		cvarValue = varValue
	}
	return varValue, cvarValue
}

// benchmarkMetrics fills beta, alpha and correlation against a benchmark
// return series of equal length.
func (c *RiskCalculator) benchmarkMetrics(snapshot *model.RiskMetricSnapshot, returns, benchmark []float64) {
	benchVariance := stat.Variance(benchmark, nil)
	if benchVariance == 0 {
		return
	}

	beta := stat.Covariance(returns, benchmark, nil) / benchVariance
	snapshot.Beta = &beta

	benchGrowth := 1.0
	for _, r := range benchmark {
		benchGrowth *= 1 + r
	}
	benchAnnualized := math.Pow(benchGrowth, c.cfg.AnnualizationFactor/float64(len(benchmark))) - 1
	alpha := snapshot.AnnualizedReturn - beta*benchAnnualized
	snapshot.Alpha = &alpha

	correlation := stat.Correlation(returns, benchmark, nil)
	snapshot.Correlation = &correlation
}

// winLossAggregates fills the sign-partitioned aggregates over the series.
func (c *RiskCalculator) winLossAggregates(snapshot *model.RiskMetricSnapshot, returns []float64) {
	wins, losses := 0, 0
	winSum, lossSum := 0.0, 0.0
	best, worst := returns[0], returns[0]

	for _, r := range returns {
		if r > 0 {
			wins++
			winSum += r
		} else if r < 0 {
			losses++
			lossSum += r
		}
		if r > best {
			best = r
		}
		if r < worst {
			worst = r
		}
	}

	snapshot.WinRate = float64(wins) / float64(len(returns))
	if wins > 0 {
		snapshot.AvgWin = winSum / float64(wins)
	}
	if losses > 0 {
		snapshot.AvgLoss = lossSum / float64(losses)
	}
	snapshot.BestDay = best
	snapshot.WorstDay = worst
}
