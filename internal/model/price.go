package model

import "time"

// PricePoint represents a recorded closing price for an asset on a date.
// A price point is immutable once recorded and unique per (assetId, date).
type PricePoint struct {
	ID         string    `json:"id"`
	AssetID    string    `json:"assetId"`
	Date       time.Time `json:"date"`
	ClosePrice float64   `json:"closePrice"`
	Currency   string    `json:"currency"` // Currency the close price is quoted in
}

// AllocationWeight represents an asset's target weight in a portfolio from a
// given date onward. Weights are in [0,1]; for any date present in the
// schedule the weights of all assets on that date must sum to 1 within
// tolerance. A violating schedule is a data-integrity error, never silently
// normalized.
type AllocationWeight struct {
	ID          string    `json:"id"`
	PortfolioID string    `json:"portfolioId"`
	AssetID     string    `json:"assetId"`
	Date        time.Time `json:"date"`
	Weight      float64   `json:"weight"`
}

// ExchangeRate represents a currency exchange rate for a specific date.
// Rates are directional: a stored (A,B) entry does not imply a (B,A) entry,
// the resolver derives the inverse.
type ExchangeRate struct {
	ID           string    `json:"id"`           // Unique identifier for the rate
	FromCurrency string    `json:"fromCurrency"` // Source currency code
	ToCurrency   string    `json:"toCurrency"`   // Target currency code
	Date         time.Time `json:"date"`         // Date the rate applies to
	Rate         float64   `json:"rate"`         // Exchange rate value
	FetchedAt    time.Time `json:"fetchedAt"`    // When the rate was retrieved from the provider
}
