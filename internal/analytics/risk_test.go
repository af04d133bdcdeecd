package analytics_test

import (
	"errors"
	"math"
	"testing"

	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/analytics"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/apperrors"
)

// TestRiskCalculator_Performance tests the return aggregates.
//
// WHY: Total and annualized return are compounded, not averaged; a +10%
// followed by -10% period must land below zero.
func TestRiskCalculator_Performance(t *testing.T) {
	calc := analytics.NewRiskCalculator(analytics.RiskConfig{})

	snapshot, err := calc.Compute([]float64{0.10, -0.10}, nil, 0)
	if err != nil {
		t.Fatalf("Compute() returned unexpected error: %v", err)
	}

	approx(t, snapshot.TotalReturn, -0.01, 1e-12, "total return")
	approx(t, snapshot.AnnualizedReturn, math.Pow(0.99, 252.0/2.0)-1, 1e-12, "annualized return")

	// Sample stdev of {0.10, -0.10} is sqrt(0.02), annualized by sqrt(252).
	approx(t, snapshot.Volatility, math.Sqrt(0.02)*math.Sqrt(252), 1e-12, "volatility")

	if snapshot.Observations != 2 {
		t.Errorf("Expected 2 observations, got %d", snapshot.Observations)
	}
}

// TestRiskCalculator_Sharpe tests the Sharpe ratio and its zero-volatility guard.
//
// WHY: A zero-volatility series has no defined Sharpe; the snapshot must
// carry nil rather than an infinity that poisons serialization.
func TestRiskCalculator_Sharpe(t *testing.T) {
	calc := analytics.NewRiskCalculator(analytics.RiskConfig{})

	t.Run("constant returns yield nil Sharpe", func(t *testing.T) {
		snapshot, err := calc.Compute([]float64{0.01, 0.01, 0.01}, nil, 0)
		if err != nil {
			t.Fatalf("Compute() returned unexpected error: %v", err)
		}
		if snapshot.Volatility != 0 {
			t.Errorf("Expected zero volatility, got %v", snapshot.Volatility)
		}
		if snapshot.SharpeRatio != nil {
			t.Errorf("Expected nil Sharpe, got %v", *snapshot.SharpeRatio)
		}
	})

	t.Run("Sharpe subtracts the risk-free rate", func(t *testing.T) {
		snapshot, err := calc.Compute([]float64{0.10, -0.10}, nil, 0.02)
		if err != nil {
			t.Fatalf("Compute() returned unexpected error: %v", err)
		}
		if snapshot.SharpeRatio == nil {
			t.Fatal("Expected Sharpe to be computed")
		}
		want := (snapshot.AnnualizedReturn - 0.02) / snapshot.Volatility
		approx(t, *snapshot.SharpeRatio, want, 1e-12, "sharpe ratio")
	})
}

// TestRiskCalculator_Drawdowns tests drawdown measurement off the rebuilt NAV path.
//
// WHY: Drawdown is measured against the running peak of the implied NAV,
// not against the first value; a monotonically rising series has none.
func TestRiskCalculator_Drawdowns(t *testing.T) {
	calc := analytics.NewRiskCalculator(analytics.RiskConfig{})

	t.Run("decline from peak is captured", func(t *testing.T) {
		// NAV path: 1.10, 0.88, 0.924. Peak 1.10.
		snapshot, err := calc.Compute([]float64{0.10, -0.20, 0.05}, nil, 0)
		if err != nil {
			t.Fatalf("Compute() returned unexpected error: %v", err)
		}
		approx(t, snapshot.MaxDrawdown, 0.88/1.10-1, 1e-12, "max drawdown")
		approx(t, snapshot.CurrentDrawdown, 0.924/1.10-1, 1e-12, "current drawdown")
	})

	t.Run("rising series has zero drawdown", func(t *testing.T) {
		snapshot, err := calc.Compute([]float64{0.01, 0.02, 0.03}, nil, 0)
		if err != nil {
			t.Fatalf("Compute() returned unexpected error: %v", err)
		}
		if snapshot.MaxDrawdown != 0 || snapshot.CurrentDrawdown != 0 {
			t.Errorf("Expected zero drawdowns, got max=%v current=%v",
				snapshot.MaxDrawdown, snapshot.CurrentDrawdown)
		}
	})
}

// TestRiskCalculator_VaR tests the historical VaR/CVaR computation and its
// sample-size floor.
//
// WHY: Below the minimum sample the historical method is noise; the
// snapshot must carry nil instead of a meaningless percentile.
func TestRiskCalculator_VaR(t *testing.T) {
	calc := analytics.NewRiskCalculator(analytics.RiskConfig{})

	t.Run("nil below the minimum sample size", func(t *testing.T) {
		returns := make([]float64, 19)
		for i := range returns {
			returns[i] = 0.001 * float64(i-9)
		}

		snapshot, err := calc.Compute(returns, nil, 0)
		if err != nil {
			t.Fatalf("Compute() returned unexpected error: %v", err)
		}
		if snapshot.VaR95 != nil || snapshot.CVaR95 != nil {
			t.Error("Expected nil VaR/CVaR below 20 observations")
		}
	})

	t.Run("tail percentile and tail mean at 20 observations", func(t *testing.T) {
		// Three identical worst losses pin the 5th percentile at -0.05
		// regardless of interpolation between neighbours.
		returns := []float64{-0.05, -0.05, -0.05}
		for i := 0; i < 17; i++ {
			returns = append(returns, 0.002*float64(i+1))
		}

		snapshot, err := calc.Compute(returns, nil, 0)
		if err != nil {
			t.Fatalf("Compute() returned unexpected error: %v", err)
		}
		if snapshot.VaR95 == nil || snapshot.CVaR95 == nil {
			t.Fatal("Expected VaR/CVaR at 20 observations")
		}
		approx(t, *snapshot.VaR95, -0.05, 1e-12, "VaR95")
		approx(t, *snapshot.CVaR95, -0.05, 1e-12, "CVaR95")

		if *snapshot.CVaR95 > *snapshot.VaR95 {
			t.Error("CVaR must not be above VaR")
		}
	})
}

// TestRiskCalculator_Benchmark tests beta, alpha and correlation.
//
// WHY: Benchmark-relative metrics are optional: absent, mismatched or flat
// benchmarks yield nil rather than an error, and a portfolio measured
// against itself must show beta 1, alpha 0, correlation 1.
func TestRiskCalculator_Benchmark(t *testing.T) {
	calc := analytics.NewRiskCalculator(analytics.RiskConfig{})
	returns := []float64{0.02, -0.01, 0.03, -0.02, 0.01}

	t.Run("portfolio against itself", func(t *testing.T) {
		snapshot, err := calc.Compute(returns, returns, 0)
		if err != nil {
			t.Fatalf("Compute() returned unexpected error: %v", err)
		}
		if snapshot.Beta == nil || snapshot.Alpha == nil || snapshot.Correlation == nil {
			t.Fatal("Expected benchmark metrics to be computed")
		}
		approx(t, *snapshot.Beta, 1, 1e-12, "beta")
		approx(t, *snapshot.Alpha, 0, 1e-9, "alpha")
		approx(t, *snapshot.Correlation, 1, 1e-12, "correlation")
	})

	t.Run("no benchmark yields nil metrics", func(t *testing.T) {
		snapshot, err := calc.Compute(returns, nil, 0)
		if err != nil {
			t.Fatalf("Compute() returned unexpected error: %v", err)
		}
		if snapshot.Beta != nil || snapshot.Alpha != nil || snapshot.Correlation != nil {
			t.Error("Expected nil benchmark metrics without a benchmark")
		}
	})

	t.Run("mismatched benchmark length yields nil metrics", func(t *testing.T) {
		snapshot, err := calc.Compute(returns, []float64{0.01, 0.02}, 0)
		if err != nil {
			t.Fatalf("Compute() returned unexpected error: %v", err)
		}
		if snapshot.Beta != nil {
			t.Error("Expected nil beta for mismatched benchmark")
		}
	})

	t.Run("flat benchmark yields nil metrics", func(t *testing.T) {
		snapshot, err := calc.Compute(returns, []float64{0.01, 0.01, 0.01, 0.01, 0.01}, 0)
		if err != nil {
			t.Fatalf("Compute() returned unexpected error: %v", err)
		}
		if snapshot.Beta != nil {
			t.Error("Expected nil beta for a zero-variance benchmark")
		}
	})
}

// TestRiskCalculator_WinLoss tests the sign-partitioned aggregates.
//
// WHY: Zero-return periods count as neither wins nor losses, and the
// averages partition by sign.
func TestRiskCalculator_WinLoss(t *testing.T) {
	calc := analytics.NewRiskCalculator(analytics.RiskConfig{})

	snapshot, err := calc.Compute([]float64{0.10, -0.10, 0.20, 0}, nil, 0)
	if err != nil {
		t.Fatalf("Compute() returned unexpected error: %v", err)
	}

	approx(t, snapshot.WinRate, 0.5, 1e-12, "win rate")
	approx(t, snapshot.AvgWin, 0.15, 1e-12, "avg win")
	approx(t, snapshot.AvgLoss, -0.10, 1e-12, "avg loss")
	approx(t, snapshot.BestDay, 0.20, 1e-12, "best day")
	approx(t, snapshot.WorstDay, -0.10, 1e-12, "worst day")
}

// TestRiskCalculator_InsufficientData tests the minimum sample requirement.
//
// WHY: One observation supports no statistic; the caller degrades the
// analytics envelope on this sentinel instead of failing the whole run.
func TestRiskCalculator_InsufficientData(t *testing.T) {
	calc := analytics.NewRiskCalculator(analytics.RiskConfig{})

	_, err := calc.Compute([]float64{0.01}, nil, 0)
	if !errors.Is(err, apperrors.ErrInsufficientData) {
		t.Fatalf("Expected ErrInsufficientData, got %v", err)
	}
}
