// Package fx resolves exchange rates between currency pairs for specific
// dates. Resolution tries, in order: identity, a direct cached or stored
// rate, the inverse pair, a cross-rate through the configured base currency,
// and finally the most recent stale cached value. Only when every path is
// exhausted does resolution fail with apperrors.ErrRateUnavailable.
package fx

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/apperrors"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/model"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/validation"
)

// Resolution is the result of resolving a currency pair for a date.
// IsStale marks a rate served from an expired cache entry after every live
// path failed; callers fold staleness into the data-quality score rather
// than treating it as an error.
type Resolution struct {
	Rate    float64 `json:"rate"`
	IsStale bool    `json:"isStale"`
}

// RateStore provides read access to stored exchange-rate rows.
type RateStore interface {
	// GetRate returns the stored rate for an exact (from, to, date) key, or
	// apperrors.ErrExchangeRateNotFound.
	GetRate(from, to string, date time.Time) (model.ExchangeRate, error)

	// GetLatestRate returns the most recent stored rate for the pair at or
	// before asOf, or apperrors.ErrExchangeRateNotFound.
	GetLatestRate(from, to string, asOf time.Time) (model.ExchangeRate, error)
}

// RateSource fetches a live rate from an external provider. Implementations
// must honour context cancellation; the resolver wraps every fetch in a
// timeout.
type RateSource interface {
	FetchRate(ctx context.Context, from, to string, date time.Time) (float64, error)
}

// Options configures a Resolver.
type Options struct {
	BaseCurrency string        // Intermediate currency for cross-rates (default USD)
	CacheTTL     time.Duration // Expiry for current-date rates (default 1h)
	FetchTimeout time.Duration // Per-fetch timeout (default 5s)
	Now          func() time.Time
}

// Resolver resolves exchange rates with caching, cross-rate derivation and
// stale fallback. Its cache is the only mutable shared state in the engine;
// all methods are safe for concurrent use.
type Resolver struct {
	store   RateStore
	source  RateSource // may be nil: resolution then uses stored rows only
	cache   *rateCache
	base    string
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	group   singleflight.Group
}

// NewResolver creates a Resolver over a store of rate rows and an optional
// live source. Zero-valued options fall back to defaults, and Now defaults
// to time.Now so tests can substitute a deterministic clock.
func NewResolver(store RateStore, source RateSource, opts Options) *Resolver {
	if opts.BaseCurrency == "" {
		opts.BaseCurrency = "USD"
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.FetchTimeout == 0 {
		opts.FetchTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Resolver{
		store:   store,
		source:  source,
		cache:   newRateCache(),
		base:    opts.BaseCurrency,
		ttl:     opts.CacheTTL,
		timeout: opts.FetchTimeout,
		now:     opts.Now,
	}
}

// Resolve returns the exchange rate from one currency to another for a date.
// It fails with apperrors.ErrRateUnavailable only when no live path and no
// stale fallback exist.
func (r *Resolver) Resolve(ctx context.Context, from, to string, date time.Time) (Resolution, error) {
	if err := validation.ValidateCurrency(from); err != nil {
		return Resolution{}, err
	}
	if err := validation.ValidateCurrency(to); err != nil {
		return Resolution{}, err
	}

	return r.resolve(ctx, from, to, date, make(map[string]bool))
}

// resolve walks the resolution chain. visited guards cross-rate recursion
// against cycling back through a pair already being resolved.
func (r *Resolver) resolve(ctx context.Context, from, to string, date time.Time, visited map[string]bool) (Resolution, error) {
	if from == to {
		return Resolution{Rate: 1.0}, nil
	}

	pair := pairKey(from, to)
	if visited[pair] || visited[pairKey(to, from)] {
		return Resolution{}, fmt.Errorf("%w: cycle resolving %s", apperrors.ErrRateUnavailable, pair)
	}
	visited[pair] = true

	// Direct rate.
	if res, ok := r.direct(ctx, from, to, date); ok {
		return res, nil
	}

	// Inverse rate.
	if res, ok := r.direct(ctx, to, from, date); ok && res.Rate != 0 {
		return Resolution{Rate: 1 / res.Rate, IsStale: res.IsStale}, nil
	}

	// Cross-rate through the base currency: rate(from,to) = rate(from,BASE) / rate(to,BASE).
	if from != r.base && to != r.base {
		fromLeg, errFrom := r.resolve(ctx, from, r.base, date, visited)
		toLeg, errTo := r.resolve(ctx, to, r.base, date, visited)
		if errFrom == nil && errTo == nil && toLeg.Rate != 0 {
			return Resolution{
				Rate:    fromLeg.Rate / toLeg.Rate,
				IsStale: fromLeg.IsStale || toLeg.IsStale,
			}, nil
		}
	}

	// Stale fallback: most recent previously cached or stored rate for the
	// pair, in either direction.
	if entry, ok := r.cache.Latest(from, to); ok {
		return Resolution{Rate: entry.Rate, IsStale: true}, nil
	}
	if entry, ok := r.cache.Latest(to, from); ok && entry.Rate != 0 {
		return Resolution{Rate: 1 / entry.Rate, IsStale: true}, nil
	}
	if row, err := r.store.GetLatestRate(from, to, date); err == nil {
		return Resolution{Rate: row.Rate, IsStale: true}, nil
	}
	if row, err := r.store.GetLatestRate(to, from, date); err == nil && row.Rate != 0 {
		return Resolution{Rate: 1 / row.Rate, IsStale: true}, nil
	}

	return Resolution{}, fmt.Errorf("%w: %s to %s on %s",
		apperrors.ErrRateUnavailable, from, to, date.Format("2006-01-02"))
}

// direct attempts a fresh rate for the exact directional pair: cache first,
// then stored rows, then a coalesced live fetch. Returns false when no fresh
// rate is obtainable; the caller continues down the resolution chain.
func (r *Resolver) direct(ctx context.Context, from, to string, date time.Time) (Resolution, bool) {
	if entry, ok := r.cache.Get(from, to, date); ok && r.fresh(entry.FetchedAt, date) {
		return Resolution{Rate: entry.Rate}, true
	}

	if row, err := r.store.GetRate(from, to, date); err == nil && r.fresh(row.FetchedAt, date) {
		r.cache.Set(from, to, date, row.Rate, row.FetchedAt)
		return Resolution{Rate: row.Rate}, true
	}

	if r.source == nil {
		return Resolution{}, false
	}

	// Coalesce concurrent fetches for the same key: at most one in-flight
	// fetch per (from, to, date), other callers share its result.
	key := cacheKey(from, to, date)
	v, err, _ := r.group.Do(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return r.source.FetchRate(fetchCtx, from, to, date)
	})
	if err != nil {
		return Resolution{}, false
	}

	rate := v.(float64)
	r.cache.Set(from, to, date, rate, r.now())
	return Resolution{Rate: rate}, true
}

// fresh reports whether a rate fetched at fetchedAt is still live for the
// requested date. Historical (non-today) rates never expire; current-date
// rates expire after the TTL and must be refreshed on next access.
func (r *Resolver) fresh(fetchedAt time.Time, date time.Time) bool {
	now := r.now()
	if !sameDay(date, now) {
		return true
	}
	return now.Sub(fetchedAt) < r.ttl
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
