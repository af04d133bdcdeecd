package apperrors

import "errors"

// Computation errors form the engine's core error taxonomy. Callers branch on
// these with errors.Is to decide between rejecting input, rendering a partial
// result, or substituting a manual override.
var (
	// ErrInvalidInput indicates malformed or out-of-domain data, such as a
	// negative price or an allocation schedule whose weights do not sum to 1.
	// Never retried; always surfaced to the caller.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientData indicates that too few observations exist for the
	// requested statistic. Callers should treat this as a partial result with
	// the unavailable fields omitted, not as a hard failure.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrRateUnavailable indicates that no exchange-rate path exists for a
	// currency pair: no direct, inverse, or cross rate resolves and no stale
	// cached value remains as a fallback.
	ErrRateUnavailable = errors.New("exchange rate unavailable")
)

// Domain entity errors represent missing entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrAssetNotFound indicates that an asset with the given ID does not exist.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrExchangeRateNotFound indicates no record for a specific currency pair and date combination.
	ErrExchangeRateNotFound = errors.New("exchange rate for currency/date not found")

	// ErrSnapshotNotFound indicates that no computed snapshot exists for the portfolio.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrSettingNotFound indicates that a settings key has not been stored.
	ErrSettingNotFound = errors.New("setting not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrInvalidCurrency indicates a currency code that is not a 3-letter ISO 4217 code.
	ErrInvalidCurrency = errors.New("invalid currency code")

	// ErrDuplicateEntry indicates that an entity with the same unique constraint already exists.
	ErrDuplicateEntry = errors.New("duplicate entry")
)
