package model

import "time"

// IndexValue represents one point of the normalized index series.
// The series is date-monotonic with no duplicate dates, NAV strictly
// positive, base-100 at the first date.
type IndexValue struct {
	Date     time.Time `json:"date"`
	NavValue float64   `json:"navValue"`
}

// RiskMetricSnapshot holds the risk and performance statistics of a single
// computation run. A snapshot is never mutated after it is produced; a new
// run produces a new snapshot. Optional metrics are pointers: nil means the
// metric could not be computed (e.g. no benchmark supplied, sample too
// small), which is distinct from a zero value.
type RiskMetricSnapshot struct {
	ID               string    `json:"id"`
	PortfolioID      string    `json:"portfolioId"`
	Date             time.Time `json:"date"`             // Date the computation ran
	TotalReturn      float64   `json:"totalReturn"`      // NAV_last / NAV_first - 1
	AnnualizedReturn float64   `json:"annualizedReturn"` // Geometric annualization over the period
	Volatility       float64   `json:"volatility"`       // Annualized sample standard deviation of returns
	SharpeRatio      *float64  `json:"sharpeRatio"`      // nil when volatility is 0
	MaxDrawdown      float64   `json:"maxDrawdown"`      // Worst decline from the running NAV peak (<= 0)
	CurrentDrawdown  float64   `json:"currentDrawdown"`  // Drawdown at the last date
	VaR95            *float64  `json:"var95"`            // Historical VaR; nil below the minimum sample size
	CVaR95           *float64  `json:"cvar95"`           // Tail mean at or below VaR; nil below the minimum sample size
	Beta             *float64  `json:"beta"`             // nil when no benchmark series is supplied
	Alpha            *float64  `json:"alpha"`            // nil when no benchmark series is supplied
	Correlation      *float64  `json:"correlation"`      // nil when no benchmark series is supplied
	WinRate          float64   `json:"winRate"`          // Fraction of positive return periods
	AvgWin           float64   `json:"avgWin"`           // Mean of positive returns (0 when none)
	AvgLoss          float64   `json:"avgLoss"`          // Mean of negative returns (0 when none)
	BestDay          float64   `json:"bestDay"`          // Largest single-period return
	WorstDay         float64   `json:"worstDay"`         // Smallest single-period return
	Observations     int       `json:"observations"`     // Number of return periods in the sample
}

// QualityDimension is one scored dimension of a data-quality assessment.
type QualityDimension struct {
	Score  float64 `json:"score"`  // Sub-score in [0,100]
	Status string  `json:"status"` // Label mapped through the configured thresholds
}

// DataQualitySnapshot describes how trustworthy the inputs feeding a
// computation run were. It is derived on demand from current raw metrics and
// never persisted as authoritative state.
type DataQualitySnapshot struct {
	Freshness       QualityDimension `json:"freshness"`
	Completeness    QualityDimension `json:"completeness"`
	Accuracy        QualityDimension `json:"accuracy"`
	Coverage        QualityDimension `json:"coverage"`
	OverallScore    float64          `json:"overallScore"`
	Assessment      string           `json:"assessment"` // Overall label (excellent/healthy/degraded/critical)
	MissingAssets   int              `json:"missingAssets"`
	RequiresRefresh bool             `json:"requiresRefresh"`
	Recommendations []string         `json:"recommendations"`
}

// RawQualityMetrics are the observable facts about the raw inputs that feed
// the data-quality assessment. Pointer fields model missing sub-metrics: a
// nil field degrades the corresponding sub-score to its worst case rather
// than raising an error.
type RawQualityMetrics struct {
	DaysOld          *float64 `json:"daysOld"`          // Age of the newest price row; nil when no prices exist
	ActualAssetCount *int     `json:"actualAssetCount"` // Assets with at least one price in the period
	ErrorRate        *float64 `json:"errorRate"`        // Fraction of degraded dates (gaps, carried-forward prices)
	HasBenchmark     bool     `json:"hasBenchmark"`
	SectorCount      int      `json:"sectorCount"`
	RegionCount      int      `json:"regionCount"`
}

// PortfolioAnalytics is the combined result of one analytics run: the index
// series (required feed), the risk snapshot (best-effort, nil when the
// sample is too small), and the quality envelope annotating how much to
// trust the rest.
type PortfolioAnalytics struct {
	PortfolioID   string               `json:"portfolioId"`
	BaseCurrency  string               `json:"baseCurrency"`
	IndexSeries   []IndexValue         `json:"indexSeries"`
	Risk          *RiskMetricSnapshot  `json:"risk"`
	Quality       *DataQualitySnapshot `json:"quality"`
	DegradedDates []time.Time          `json:"degradedDates"` // Dates valued with carried-forward prices
	ComputedAt    time.Time            `json:"computedAt"`
}

// BatchItemError represents a portfolio that failed to recompute with error details.
type BatchItemError struct {
	PortfolioID string `json:"portfolioId"`
	Name        string `json:"name"`
	Error       string `json:"error"`
}

// BatchResult represents the outcome of a bulk recompute operation. Each
// item is independent and atomic: one portfolio's failure or cancellation
// never affects the snapshots of the others. Success is true if at least one
// portfolio recomputed.
type BatchResult struct {
	Success       bool             `json:"success"`
	Recomputed    []string         `json:"recomputed"` // Portfolio IDs that recomputed successfully
	Errors        []BatchItemError `json:"errors"`
	TotalComputed int              `json:"totalComputed"`
	TotalErrors   int              `json:"totalErrors"`
}
