// Package analytics implements the portfolio analytics engine: index
// valuation, risk/performance statistics and data-quality assessment. The
// package is a pure library surface; it performs no I/O and holds no state
// between invocations. Raw rows are supplied by the caller and each
// computation is independent, so the calling layer composes its own
// degradation policy.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/apperrors"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/fx"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/model"
)

const weightSumTolerance = 1e-6

// RateResolver is the currency-conversion dependency of the valuation
// engine. *fx.Resolver satisfies it; tests substitute a deterministic fake.
type RateResolver interface {
	Resolve(ctx context.Context, from, to string, date time.Time) (fx.Resolution, error)
}

// ValuationResult is the output of one index computation: the base-100 NAV
// series, the per-period portfolio returns feeding the risk calculator, and
// the dates that were valued with carried-forward prices or stale rates.
// Degraded dates are consumed by the data-quality assessment, not silently
// ignored.
type ValuationResult struct {
	Series        []model.IndexValue
	Returns       []float64
	DegradedDates []time.Time
	StaleRates    int // Conversions served from a stale cache entry
}

// ValuationEngine converts price and allocation rows into a normalized
// index series, currency-aware.
type ValuationEngine struct {
	resolver RateResolver
}

// NewValuationEngine creates a ValuationEngine using the given rate resolver.
func NewValuationEngine(resolver RateResolver) *ValuationEngine {
	return &ValuationEngine{resolver: resolver}
}

// ComputeSeries computes the base-100 NAV series over the dates covered by
// the price rows.
//
// For each date in ascending order the engine computes each active asset's
// per-period return from prices converted to baseCurrency before the ratio
// (conversion after the ratio would mix FX drift into the asset return),
// then the portfolio return using the weights in effect on the prior date
// (rebalancing applies from the date a new weight row appears, never
// retroactively), and finally the NAV recurrence NAV_t = NAV_{t-1}(1+R_t)
// from NAV_0 = 100.
//
// A missing price for an active asset carries the last known price forward
// and flags the date as degraded. A date where all weights are zero yields a
// flat NAV.
//
// Errors:
//   - apperrors.ErrInvalidInput for a non-positive price or a weight
//     schedule whose per-date weights do not sum to 1 within tolerance
//   - apperrors.ErrInsufficientData when an actively-weighted asset has
//     fewer than 2 priced dates in the period
func (e *ValuationEngine) ComputeSeries(
	ctx context.Context,
	prices []model.PricePoint,
	weights []model.AllocationWeight,
	baseCurrency string,
) (ValuationResult, error) {

	if len(prices) == 0 {
		return ValuationResult{}, fmt.Errorf("%w: no price rows supplied", apperrors.ErrInsufficientData)
	}

	for _, p := range prices {
		if p.ClosePrice <= 0 {
			return ValuationResult{}, fmt.Errorf("%w: non-positive price %g for asset %s on %s",
				apperrors.ErrInvalidInput, p.ClosePrice, p.AssetID, p.Date.Format("2006-01-02"))
		}
	}

	schedule, err := buildWeightSchedule(weights)
	if err != nil {
		return ValuationResult{}, err
	}

	priceTable, currencies := buildPriceTable(prices)
	dates := sortedDates(prices)

	if err := checkPriceCoverage(priceTable, schedule); err != nil {
		return ValuationResult{}, err
	}

	result := ValuationResult{
		Series: make([]model.IndexValue, 0, len(dates)),
	}

	// converted holds each asset's last price expressed in base currency;
	// lastNative holds the raw price for carry-forward on gap dates.
	converted := make(map[string]float64)
	lastNative := make(map[string]float64)

	nav := 100.0
	for i, date := range dates {
		degraded := false

		// Convert every priced (or carried-forward) asset to base currency
		// at this date's rate.
		current := make(map[string]float64)
		for assetID, byDate := range priceTable {
			native, ok := byDate[dateKey(date)]
			if !ok {
				native, ok = lastNative[assetID]
				if !ok {
					continue // No price yet for this asset
				}
				if schedule.weightOn(assetID, date) > 0 {
					degraded = true
				}
			}
			lastNative[assetID] = native

			res, err := e.resolver.Resolve(ctx, currencies[assetID], baseCurrency, date)
			if err != nil {
				return ValuationResult{}, fmt.Errorf("converting %s to %s: %w", assetID, baseCurrency, err)
			}
			if res.IsStale {
				result.StaleRates++
			}
			current[assetID] = native * res.Rate
		}

		if i == 0 {
			result.Series = append(result.Series, model.IndexValue{Date: date, NavValue: nav})
			converted = current
			if degraded {
				result.DegradedDates = append(result.DegradedDates, date)
			}
			continue
		}

		// Portfolio return uses the weights in effect on the prior date.
		priorWeights := schedule.weightsOn(dates[i-1])
		portfolioReturn := 0.0
		for assetID, weight := range priorWeights {
			if weight == 0 {
				continue
			}
			prev, havePrev := converted[assetID]
			cur, haveCur := current[assetID]
			if !havePrev || !haveCur || prev == 0 {
				degraded = true
				continue
			}
			portfolioReturn += weight * (cur/prev - 1)
		}

		nav *= 1 + portfolioReturn
		result.Series = append(result.Series, model.IndexValue{Date: date, NavValue: nav})
		result.Returns = append(result.Returns, portfolioReturn)
		converted = current
		if degraded {
			result.DegradedDates = append(result.DegradedDates, date)
		}
	}

	return result, nil
}

// weightSchedule holds allocation rows grouped by rebalance date, sorted
// ascending, for effective-weight lookup.
type weightSchedule struct {
	byDate  map[string]map[string]float64 // date key -> asset -> weight
	keyList []string                      // date keys ascending
}

// buildWeightSchedule groups weight rows by date and validates that each
// rebalance date's weights sum to 1 within tolerance. Violations are a
// data-integrity error, never silently normalized.
func buildWeightSchedule(weights []model.AllocationWeight) (*weightSchedule, error) {
	schedule := &weightSchedule{byDate: make(map[string]map[string]float64)}

	for _, w := range weights {
		if w.Weight < 0 || w.Weight > 1 {
			return nil, fmt.Errorf("%w: weight %g for asset %s out of [0,1]",
				apperrors.ErrInvalidInput, w.Weight, w.AssetID)
		}
		key := dateKey(w.Date)
		if schedule.byDate[key] == nil {
			schedule.byDate[key] = make(map[string]float64)
			schedule.keyList = append(schedule.keyList, key)
		}
		schedule.byDate[key][w.AssetID] = w.Weight
	}

	sort.Strings(schedule.keyList)

	for key, assets := range schedule.byDate {
		sum := 0.0
		allZero := true
		for _, w := range assets {
			sum += w
			if w != 0 {
				allZero = false
			}
		}
		// An all-zero rebalance date is a deliberate flat allocation, not a
		// schedule violation.
		if allZero {
			continue
		}
		if sum < 1-weightSumTolerance || sum > 1+weightSumTolerance {
			return nil, fmt.Errorf("%w: weights on %s sum to %.8f, expected 1",
				apperrors.ErrInvalidInput, key, sum)
		}
	}

	return schedule, nil
}

// weightsOn returns the weights in effect on a date: the most recent
// rebalance at or before it. Nil when the schedule has not started yet.
func (s *weightSchedule) weightsOn(date time.Time) map[string]float64 {
	key := dateKey(date)
	effective := ""
	for _, k := range s.keyList {
		if k > key {
			break
		}
		effective = k
	}
	if effective == "" {
		return nil
	}
	return s.byDate[effective]
}

func (s *weightSchedule) weightOn(assetID string, date time.Time) float64 {
	return s.weightsOn(date)[assetID]
}

// activeAssets returns every asset that carries a non-zero weight anywhere
// in the schedule.
func (s *weightSchedule) activeAssets() map[string]bool {
	active := make(map[string]bool)
	for _, assets := range s.byDate {
		for assetID, w := range assets {
			if w > 0 {
				active[assetID] = true
			}
		}
	}
	return active
}

// checkPriceCoverage verifies every actively-weighted asset has at least 2
// priced dates in the period spanned by the price rows.
func checkPriceCoverage(priceTable map[string]map[string]float64, schedule *weightSchedule) error {
	for assetID := range schedule.activeAssets() {
		if len(priceTable[assetID]) < 2 {
			return fmt.Errorf("%w: asset %s has %d priced dates, need at least 2",
				apperrors.ErrInsufficientData, assetID, len(priceTable[assetID]))
		}
	}
	return nil
}

func buildPriceTable(prices []model.PricePoint) (map[string]map[string]float64, map[string]string) {
	table := make(map[string]map[string]float64)
	currencies := make(map[string]string)
	for _, p := range prices {
		if table[p.AssetID] == nil {
			table[p.AssetID] = make(map[string]float64)
		}
		table[p.AssetID][dateKey(p.Date)] = p.ClosePrice
		currencies[p.AssetID] = p.Currency
	}
	return table, currencies
}

func sortedDates(prices []model.PricePoint) []time.Time {
	seen := make(map[string]bool)
	dates := make([]time.Time, 0)
	for _, p := range prices {
		key := dateKey(p.Date)
		if !seen[key] {
			seen[key] = true
			dates = append(dates, p.Date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func dateKey(date time.Time) string {
	return date.UTC().Format("2006-01-02")
}
