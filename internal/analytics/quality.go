package analytics

import (
	"math"

	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/config"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/model"
)

// Status labels mapped through the ordered score thresholds. The overall
// assessment uses its own ladder; per-dimension ladders carry
// dimension-specific vocabulary so the refresh policy can name the bands it
// keys on (freshness "critical", completeness "incomplete").
const (
	StatusExcellent = "excellent"
	StatusGood      = "good"
	StatusFair      = "fair"
	StatusPoor      = "poor"

	FreshnessFresh    = "fresh"
	FreshnessRecent   = "recent"
	FreshnessStale    = "stale"
	FreshnessCritical = "critical"

	CompletenessComplete   = "complete"
	CompletenessAdequate   = "adequate"
	CompletenessPartial    = "partial"
	CompletenessIncomplete = "incomplete"

	AssessmentExcellent = "excellent"
	AssessmentHealthy   = "healthy"
	AssessmentDegraded  = "degraded"
	AssessmentCritical  = "critical"
)

// StatusThresholds are the score boundaries of the status ladders. The
// Assessor reads them from AssessorConfig so callers can move the boundaries
// without touching the scoring.
type StatusThresholds struct {
	Excellent float64 // >= Excellent maps to the top band (default 90)
	Good      float64 // >= Good maps to the second band (default 70)
	Fair      float64 // >= Fair maps to the third band (default 50)
}

// AssessorConfig holds the scoring constants of the quality assessor.
type AssessorConfig struct {
	FreshnessCriticalDays float64               // Days at which freshness reaches 0 (default 7)
	ExpectedAssetCount    int                   // Denominator of the completeness ratio (default 50)
	Weights               config.QualityWeights // Sub-score weights, must sum to 1
	RefreshThreshold      float64               // Overall score below which a refresh is required (default 60)
	TargetSectorCount     int                   // Sector diversification target (default 5)
	TargetRegionCount     int                   // Region diversification target (default 3)
	BenchmarkBonus        float64               // Coverage points for a configured benchmark (default 40)
	Thresholds            StatusThresholds
}

// DefaultAssessorConfig returns the documented defaults with equal sub-score
// weighting.
func DefaultAssessorConfig() AssessorConfig {
	return AssessorConfig{
		FreshnessCriticalDays: 7,
		ExpectedAssetCount:    50,
		Weights:               config.QualityWeights{Freshness: 0.25, Completeness: 0.25, Accuracy: 0.25, Coverage: 0.25},
		RefreshThreshold:      60,
		TargetSectorCount:     5,
		TargetRegionCount:     3,
		BenchmarkBonus:        40,
		Thresholds:            StatusThresholds{Excellent: 90, Good: 70, Fair: 50},
	}
}

// Recommendation strings, emitted at most once each per assessment.
const (
	RecommendRefresh       = "Price data is overdue; refresh prices before trusting results"
	RecommendMissingAssets = "Some expected assets have no price data; backfill the missing assets"
	RecommendAccuracy      = "Input error rate is elevated; investigate gap-filled and carried-forward dates"
	RecommendBenchmark     = "No benchmark is configured; add one to enable beta, alpha and correlation"
	RecommendSectors       = "Sector coverage is below target; broaden sector diversification"
	RecommendRegions       = "Region coverage is below target; broaden region diversification"
)

// Assessor scores the freshness, completeness, accuracy and coverage of the
// raw inputs feeding a computation run, and decides whether a refresh is
// required before the results can be trusted. Assess never fails: a missing
// sub-metric degrades its sub-score to the worst case instead of raising an
// error.
type Assessor struct {
	cfg AssessorConfig
}

// NewAssessor creates an Assessor. Zero-valued config fields fall back to
// the defaults.
func NewAssessor(cfg AssessorConfig) *Assessor {
	defaults := DefaultAssessorConfig()
	if cfg.FreshnessCriticalDays == 0 {
		cfg.FreshnessCriticalDays = defaults.FreshnessCriticalDays
	}
	if cfg.ExpectedAssetCount == 0 {
		cfg.ExpectedAssetCount = defaults.ExpectedAssetCount
	}
	if cfg.Weights == (config.QualityWeights{}) {
		cfg.Weights = defaults.Weights
	}
	if cfg.RefreshThreshold == 0 {
		cfg.RefreshThreshold = defaults.RefreshThreshold
	}
	if cfg.TargetSectorCount == 0 {
		cfg.TargetSectorCount = defaults.TargetSectorCount
	}
	if cfg.TargetRegionCount == 0 {
		cfg.TargetRegionCount = defaults.TargetRegionCount
	}
	if cfg.BenchmarkBonus == 0 {
		cfg.BenchmarkBonus = defaults.BenchmarkBonus
	}
	if cfg.Thresholds == (StatusThresholds{}) {
		cfg.Thresholds = defaults.Thresholds
	}
	return &Assessor{cfg: cfg}
}

// Assess scores the supplied raw metrics and returns a best-effort quality
// snapshot, always non-nil, never an error.
func (a *Assessor) Assess(raw model.RawQualityMetrics) model.DataQualitySnapshot {
	snapshot := model.DataQualitySnapshot{
		Recommendations: []string{},
	}

	freshScore := a.freshnessScore(raw.DaysOld)
	snapshot.Freshness = model.QualityDimension{
		Score:  freshScore,
		Status: ladder(freshScore, a.cfg.Thresholds, FreshnessFresh, FreshnessRecent, FreshnessStale, FreshnessCritical),
	}

	completeScore, missing := a.completenessScore(raw.ActualAssetCount)
	snapshot.MissingAssets = missing
	snapshot.Completeness = model.QualityDimension{
		Score:  completeScore,
		Status: ladder(completeScore, a.cfg.Thresholds, CompletenessComplete, CompletenessAdequate, CompletenessPartial, CompletenessIncomplete),
	}

	accuracyScore := a.accuracyScore(raw.ErrorRate)
	snapshot.Accuracy = model.QualityDimension{
		Score:  accuracyScore,
		Status: ladder(accuracyScore, a.cfg.Thresholds, StatusExcellent, StatusGood, StatusFair, StatusPoor),
	}

	coverageScore := a.coverageScore(raw)
	snapshot.Coverage = model.QualityDimension{
		Score:  coverageScore,
		Status: ladder(coverageScore, a.cfg.Thresholds, StatusExcellent, StatusGood, StatusFair, StatusPoor),
	}

	weights := a.cfg.Weights
	snapshot.OverallScore = freshScore*weights.Freshness +
		completeScore*weights.Completeness +
		accuracyScore*weights.Accuracy +
		coverageScore*weights.Coverage
	snapshot.Assessment = ladder(snapshot.OverallScore, a.cfg.Thresholds,
		AssessmentExcellent, AssessmentHealthy, AssessmentDegraded, AssessmentCritical)

	snapshot.RequiresRefresh = snapshot.Freshness.Status == FreshnessCritical ||
		snapshot.Completeness.Status == CompletenessIncomplete ||
		snapshot.OverallScore < a.cfg.RefreshThreshold

	snapshot.Recommendations = a.recommendations(snapshot, raw)

	return snapshot
}

// freshnessScore decreases linearly from 100 at 0 days old to 0 at the
// critical threshold. A nil age (no prices at all) is the worst case.
func (a *Assessor) freshnessScore(daysOld *float64) float64 {
	if daysOld == nil {
		return 0
	}
	if *daysOld <= 0 {
		return 100
	}
	if *daysOld >= a.cfg.FreshnessCriticalDays {
		return 0
	}
	return 100 * (1 - *daysOld/a.cfg.FreshnessCriticalDays)
}

// completenessScore is the capped ratio of priced assets to expected assets.
func (a *Assessor) completenessScore(actual *int) (score float64, missing int) {
	if actual == nil {
		return 0, a.cfg.ExpectedAssetCount
	}
	missing = a.cfg.ExpectedAssetCount - *actual
	if missing < 0 {
		missing = 0
	}
	score = math.Min(100, 100*float64(*actual)/float64(a.cfg.ExpectedAssetCount))
	return score, missing
}

// accuracyScore is 100*(1-errorRate), clamped to [0,100]. A nil error rate
// is the worst case.
func (a *Assessor) accuracyScore(errorRate *float64) float64 {
	if errorRate == nil {
		return 0
	}
	score := 100 * (1 - *errorRate)
	return math.Max(0, math.Min(100, score))
}

// coverageScore is a composite of benchmark presence (fixed bonus) and
// sector/region counts against the diversification targets. Each count
// contributes its share of the remaining points, capped at the target.
func (a *Assessor) coverageScore(raw model.RawQualityMetrics) float64 {
	score := 0.0
	if raw.HasBenchmark {
		score += a.cfg.BenchmarkBonus
	}

	remaining := 100 - a.cfg.BenchmarkBonus
	sectorShare := remaining / 2
	regionShare := remaining - sectorShare

	score += sectorShare * math.Min(1, float64(raw.SectorCount)/float64(a.cfg.TargetSectorCount))
	score += regionShare * math.Min(1, float64(raw.RegionCount)/float64(a.cfg.TargetRegionCount))

	return math.Min(100, score)
}

// recommendations derives a deterministic, deduplicated recommendation list
// from the sub-scores that breach their thresholds.
func (a *Assessor) recommendations(snapshot model.DataQualitySnapshot, raw model.RawQualityMetrics) []string {
	recs := []string{}
	seen := make(map[string]bool)
	add := func(rec string) {
		if !seen[rec] {
			seen[rec] = true
			recs = append(recs, rec)
		}
	}

	if snapshot.Freshness.Status == FreshnessStale || snapshot.Freshness.Status == FreshnessCritical {
		add(RecommendRefresh)
	}
	if snapshot.MissingAssets > 0 {
		add(RecommendMissingAssets)
	}
	if snapshot.Accuracy.Score < a.cfg.Thresholds.Good {
		add(RecommendAccuracy)
	}
	if !raw.HasBenchmark {
		add(RecommendBenchmark)
	}
	if raw.SectorCount < a.cfg.TargetSectorCount {
		add(RecommendSectors)
	}
	if raw.RegionCount < a.cfg.TargetRegionCount {
		add(RecommendRegions)
	}

	return recs
}

// ladder maps a score to one of four ordered band labels.
func ladder(score float64, t StatusThresholds, top, high, mid, low string) string {
	switch {
	case score >= t.Excellent:
		return top
	case score >= t.Good:
		return high
	case score >= t.Fair:
		return mid
	default:
		return low
	}
}
