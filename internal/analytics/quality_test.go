package analytics_test

import (
	"testing"

	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/analytics"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/model"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

// TestAssessor_Assess tests the composite quality assessment on a degraded
// portfolio.
//
// WHY: The four sub-scores, their weighting, the status ladders and the
// refresh decision must agree with the documented scoring, end to end on
// one concrete case.
func TestAssessor_Assess(t *testing.T) {
	assessor := analytics.NewAssessor(analytics.AssessorConfig{})

	snapshot := assessor.Assess(model.RawQualityMetrics{
		DaysOld:          floatPtr(10), // Past the 7-day critical threshold
		ActualAssetCount: intPtr(30),  // Of 50 expected
		ErrorRate:        floatPtr(0.02),
		HasBenchmark:     false,
		SectorCount:      3,
		RegionCount:      2,
	})

	approx(t, snapshot.Freshness.Score, 0, 1e-9, "freshness score")
	if snapshot.Freshness.Status != analytics.FreshnessCritical {
		t.Errorf("Expected critical freshness, got %q", snapshot.Freshness.Status)
	}

	approx(t, snapshot.Completeness.Score, 60, 1e-9, "completeness score")
	if snapshot.MissingAssets != 20 {
		t.Errorf("Expected 20 missing assets, got %d", snapshot.MissingAssets)
	}

	approx(t, snapshot.Accuracy.Score, 98, 1e-9, "accuracy score")

	// No benchmark bonus; sectors 3/5 and regions 2/3 of the remaining 60
	// points split evenly: 30*0.6 + 30*(2/3) = 38.
	approx(t, snapshot.Coverage.Score, 38, 1e-9, "coverage score")

	// Equal weighting: (0 + 60 + 98 + 38) / 4 = 49.
	approx(t, snapshot.OverallScore, 49, 1e-9, "overall score")
	if snapshot.Assessment != analytics.AssessmentCritical {
		t.Errorf("Expected critical assessment, got %q", snapshot.Assessment)
	}
	if !snapshot.RequiresRefresh {
		t.Error("Expected refresh to be required")
	}

	want := []string{
		analytics.RecommendRefresh,
		analytics.RecommendMissingAssets,
		analytics.RecommendBenchmark,
		analytics.RecommendSectors,
		analytics.RecommendRegions,
	}
	if len(snapshot.Recommendations) != len(want) {
		t.Fatalf("Expected %d recommendations, got %d: %v", len(want), len(snapshot.Recommendations), snapshot.Recommendations)
	}
	for i, rec := range want {
		if snapshot.Recommendations[i] != rec {
			t.Errorf("Recommendation %d: expected %q, got %q", i, rec, snapshot.Recommendations[i])
		}
	}
}

// TestAssessor_PerfectInputs tests the healthy end of the scale.
//
// WHY: Complete, fresh, accurate and diversified inputs must score 100 with
// no refresh and no recommendations; spurious advice erodes trust in the
// real warnings.
func TestAssessor_PerfectInputs(t *testing.T) {
	assessor := analytics.NewAssessor(analytics.AssessorConfig{})

	snapshot := assessor.Assess(model.RawQualityMetrics{
		DaysOld:          floatPtr(0),
		ActualAssetCount: intPtr(50),
		ErrorRate:        floatPtr(0),
		HasBenchmark:     true,
		SectorCount:      5,
		RegionCount:      3,
	})

	approx(t, snapshot.OverallScore, 100, 1e-9, "overall score")
	if snapshot.Assessment != analytics.AssessmentExcellent {
		t.Errorf("Expected excellent assessment, got %q", snapshot.Assessment)
	}
	if snapshot.RequiresRefresh {
		t.Error("Expected no refresh requirement")
	}
	if len(snapshot.Recommendations) != 0 {
		t.Errorf("Expected no recommendations, got %v", snapshot.Recommendations)
	}
}

// TestAssessor_MissingMetrics tests nil raw metrics degrade to worst case.
//
// WHY: A missing sub-metric means nothing is known, and unknown data cannot
// score well; the assessment must bottom out instead of erroring.
func TestAssessor_MissingMetrics(t *testing.T) {
	assessor := analytics.NewAssessor(analytics.AssessorConfig{})

	snapshot := assessor.Assess(model.RawQualityMetrics{})

	approx(t, snapshot.Freshness.Score, 0, 1e-9, "freshness score")
	approx(t, snapshot.Completeness.Score, 0, 1e-9, "completeness score")
	approx(t, snapshot.Accuracy.Score, 0, 1e-9, "accuracy score")
	approx(t, snapshot.OverallScore, 0, 1e-9, "overall score")
	if snapshot.MissingAssets != 50 {
		t.Errorf("Expected 50 missing assets, got %d", snapshot.MissingAssets)
	}
	if !snapshot.RequiresRefresh {
		t.Error("Expected refresh to be required")
	}
}

// TestAssessor_SubScores tests the individual scoring functions at their
// edges.
//
// WHY: The linear freshness decay, the completeness cap and the accuracy
// clamp each have boundary behaviour the composite test does not pin down.
func TestAssessor_SubScores(t *testing.T) {
	assessor := analytics.NewAssessor(analytics.AssessorConfig{})

	t.Run("freshness decays linearly to the critical threshold", func(t *testing.T) {
		snapshot := assessor.Assess(model.RawQualityMetrics{DaysOld: floatPtr(3.5)})
		approx(t, snapshot.Freshness.Score, 50, 1e-9, "freshness at half the threshold")
	})

	t.Run("completeness caps at 100 above the expected count", func(t *testing.T) {
		snapshot := assessor.Assess(model.RawQualityMetrics{ActualAssetCount: intPtr(60)})
		approx(t, snapshot.Completeness.Score, 100, 1e-9, "completeness score")
		if snapshot.MissingAssets != 0 {
			t.Errorf("Expected 0 missing assets, got %d", snapshot.MissingAssets)
		}
	})

	t.Run("accuracy clamps an error rate above 1 to zero", func(t *testing.T) {
		snapshot := assessor.Assess(model.RawQualityMetrics{ErrorRate: floatPtr(1.5)})
		approx(t, snapshot.Accuracy.Score, 0, 1e-9, "accuracy score")
	})

	t.Run("status ladder boundaries are inclusive", func(t *testing.T) {
		cases := []struct {
			errorRate float64
			status    string
		}{
			{0.05, analytics.StatusExcellent}, // 95
			{0.25, analytics.StatusGood},      // 75
			{0.45, analytics.StatusFair},      // 55
			{0.6, analytics.StatusPoor},       // 40
		}
		for _, tc := range cases {
			snapshot := assessor.Assess(model.RawQualityMetrics{ErrorRate: floatPtr(tc.errorRate)})
			if snapshot.Accuracy.Status != tc.status {
				t.Errorf("Error rate %v: expected status %q, got %q (score %v)",
					tc.errorRate, tc.status, snapshot.Accuracy.Status, snapshot.Accuracy.Score)
			}
		}
	})
}

// TestAssessor_Monotonicity sweeps each raw metric in isolation and checks
// the scores only ever move with the input, never against it.
//
// WHY: Better raw data must never produce a lower score. A regression here
// would make the assessment misleading in exactly the cases it exists for,
// so each dimension is swept across its range including past the clamps.
func TestAssessor_Monotonicity(t *testing.T) {
	assessor := analytics.NewAssessor(analytics.AssessorConfig{})

	// Mid-range baseline so every sub-score has room to move both ways.
	baseline := func() model.RawQualityMetrics {
		return model.RawQualityMetrics{
			DaysOld:          floatPtr(3),
			ActualAssetCount: intPtr(30),
			ErrorRate:        floatPtr(0.1),
			HasBenchmark:     false,
			SectorCount:      2,
			RegionCount:      1,
		}
	}

	t.Run("staler data never scores higher", func(t *testing.T) {
		prev := assessor.Assess(baseline())
		for days := 1.0; days <= 10; days++ {
			raw := baseline()
			raw.DaysOld = floatPtr(days)
			snapshot := assessor.Assess(raw)
			if snapshot.Freshness.Score > prev.Freshness.Score {
				t.Errorf("Freshness rose from %v to %v as daysOld grew to %v",
					prev.Freshness.Score, snapshot.Freshness.Score, days)
			}
			if snapshot.OverallScore > prev.OverallScore {
				t.Errorf("Overall rose from %v to %v as daysOld grew to %v",
					prev.OverallScore, snapshot.OverallScore, days)
			}
			prev = snapshot
		}
	})

	t.Run("more priced assets never score lower", func(t *testing.T) {
		raw := baseline()
		raw.ActualAssetCount = intPtr(0)
		prev := assessor.Assess(raw)
		for count := 10; count <= 60; count += 10 {
			raw := baseline()
			raw.ActualAssetCount = intPtr(count)
			snapshot := assessor.Assess(raw)
			if snapshot.Completeness.Score < prev.Completeness.Score {
				t.Errorf("Completeness fell from %v to %v as asset count grew to %d",
					prev.Completeness.Score, snapshot.Completeness.Score, count)
			}
			if snapshot.OverallScore < prev.OverallScore {
				t.Errorf("Overall fell from %v to %v as asset count grew to %d",
					prev.OverallScore, snapshot.OverallScore, count)
			}
			prev = snapshot
		}
	})

	t.Run("a higher error rate never scores higher", func(t *testing.T) {
		raw := baseline()
		raw.ErrorRate = floatPtr(0)
		prev := assessor.Assess(raw)
		for rate := 0.1; rate <= 1.2; rate += 0.1 {
			raw := baseline()
			raw.ErrorRate = floatPtr(rate)
			snapshot := assessor.Assess(raw)
			if snapshot.Accuracy.Score > prev.Accuracy.Score {
				t.Errorf("Accuracy rose from %v to %v as error rate grew to %v",
					prev.Accuracy.Score, snapshot.Accuracy.Score, rate)
			}
			if snapshot.OverallScore > prev.OverallScore {
				t.Errorf("Overall rose from %v to %v as error rate grew to %v",
					prev.OverallScore, snapshot.OverallScore, rate)
			}
			prev = snapshot
		}
	})

	t.Run("broader coverage never scores lower", func(t *testing.T) {
		raw := baseline()
		raw.SectorCount = 0
		prev := assessor.Assess(raw)
		for sectors := 1; sectors <= 7; sectors++ {
			raw := baseline()
			raw.SectorCount = sectors
			snapshot := assessor.Assess(raw)
			if snapshot.Coverage.Score < prev.Coverage.Score {
				t.Errorf("Coverage fell from %v to %v as sectors grew to %d",
					prev.Coverage.Score, snapshot.Coverage.Score, sectors)
			}
			prev = snapshot
		}

		raw = baseline()
		raw.RegionCount = 0
		prev = assessor.Assess(raw)
		for regions := 1; regions <= 5; regions++ {
			raw := baseline()
			raw.RegionCount = regions
			snapshot := assessor.Assess(raw)
			if snapshot.Coverage.Score < prev.Coverage.Score {
				t.Errorf("Coverage fell from %v to %v as regions grew to %d",
					prev.Coverage.Score, snapshot.Coverage.Score, regions)
			}
			prev = snapshot
		}

		without := assessor.Assess(baseline())
		raw = baseline()
		raw.HasBenchmark = true
		with := assessor.Assess(raw)
		if with.Coverage.Score < without.Coverage.Score {
			t.Errorf("Coverage fell from %v to %v when a benchmark was added",
				without.Coverage.Score, with.Coverage.Score)
		}
		if with.OverallScore < without.OverallScore {
			t.Errorf("Overall fell from %v to %v when a benchmark was added",
				without.OverallScore, with.OverallScore)
		}
	})
}

// TestAssessor_RefreshTriggers tests each independent refresh trigger.
//
// WHY: A refresh is required on critical freshness OR incomplete data OR a
// low overall score; each condition alone must trip it.
func TestAssessor_RefreshTriggers(t *testing.T) {
	assessor := analytics.NewAssessor(analytics.AssessorConfig{})

	t.Run("incomplete data alone requires refresh", func(t *testing.T) {
		snapshot := assessor.Assess(model.RawQualityMetrics{
			DaysOld:          floatPtr(0),
			ActualAssetCount: intPtr(20), // 40, below the incomplete boundary
			ErrorRate:        floatPtr(0),
			HasBenchmark:     true,
			SectorCount:      5,
			RegionCount:      3,
		})

		if snapshot.OverallScore < 60 {
			t.Fatalf("Test setup broken: overall %v should be above the refresh threshold", snapshot.OverallScore)
		}
		if snapshot.Completeness.Status != analytics.CompletenessIncomplete {
			t.Fatalf("Expected incomplete status, got %q", snapshot.Completeness.Status)
		}
		if !snapshot.RequiresRefresh {
			t.Error("Expected incomplete data alone to require a refresh")
		}
	})

	t.Run("healthy inputs with a stale but non-critical age do not", func(t *testing.T) {
		snapshot := assessor.Assess(model.RawQualityMetrics{
			DaysOld:          floatPtr(2), // ~71, recent
			ActualAssetCount: intPtr(50),
			ErrorRate:        floatPtr(0),
			HasBenchmark:     true,
			SectorCount:      5,
			RegionCount:      3,
		})

		if snapshot.RequiresRefresh {
			t.Error("Expected no refresh for a healthy portfolio")
		}
	})
}
