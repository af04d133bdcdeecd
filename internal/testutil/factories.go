package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/model"
)

// PortfolioBuilder provides a fluent interface for creating test portfolios.
//
// Example usage:
//
//	// Simple creation with defaults
//	portfolio := testutil.NewPortfolio().Build(t, db)
//
//	// Customized portfolio
//	portfolio := testutil.NewPortfolio().
//	    WithName("Custom Portfolio").
//	    WithBaseCurrency("EUR").
//	    WithBenchmark(benchmarkAsset.ID).
//	    Build(t, db)
type PortfolioBuilder struct {
	ID               string
	Name             string
	Description      string
	BaseCurrency     string
	BenchmarkAssetID *string
	IsArchived       bool
}

// NewPortfolio creates a PortfolioBuilder with sensible defaults.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{
		ID:           MakeID(),
		Name:         MakePortfolioName("Test Portfolio"),
		Description:  "Test description",
		BaseCurrency: "USD",
	}
}

// WithID sets a custom ID.
func (b *PortfolioBuilder) WithID(id string) *PortfolioBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// WithBaseCurrency sets the currency valuations are expressed in.
func (b *PortfolioBuilder) WithBaseCurrency(currency string) *PortfolioBuilder {
	b.BaseCurrency = currency
	return b
}

// WithBenchmark sets the benchmark asset.
func (b *PortfolioBuilder) WithBenchmark(assetID string) *PortfolioBuilder {
	b.BenchmarkAssetID = &assetID
	return b
}

// Archived marks the portfolio as archived.
func (b *PortfolioBuilder) Archived() *PortfolioBuilder {
	b.IsArchived = true
	return b
}

// Build creates the portfolio in the database and returns it.
func (b *PortfolioBuilder) Build(t *testing.T, db *sql.DB) model.Portfolio {
	t.Helper()

	query := `
		INSERT INTO portfolio (id, name, description, base_currency, benchmark_asset_id, is_archived)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Name, b.Description, b.BaseCurrency, b.BenchmarkAssetID, b.IsArchived)
	if err != nil {
		t.Fatalf("Failed to create test portfolio: %v", err)
	}

	return model.Portfolio{
		ID:               b.ID,
		Name:             b.Name,
		Description:      b.Description,
		BaseCurrency:     b.BaseCurrency,
		BenchmarkAssetID: b.BenchmarkAssetID,
		IsArchived:       b.IsArchived,
	}
}

// AssetBuilder provides a fluent interface for creating test assets.
type AssetBuilder struct {
	ID       string
	Symbol   string
	Name     string
	Currency string
	Sector   string
	Region   string
}

// NewAsset creates an AssetBuilder with sensible defaults.
func NewAsset() *AssetBuilder {
	return &AssetBuilder{
		ID:       MakeID(),
		Symbol:   MakeSymbol("TEST"),
		Name:     "Test Asset",
		Currency: "USD",
		Sector:   "Technology",
		Region:   "North America",
	}
}

// WithSymbol sets a custom ticker symbol.
func (b *AssetBuilder) WithSymbol(symbol string) *AssetBuilder {
	b.Symbol = symbol
	return b
}

// WithCurrency sets the currency the asset's prices are quoted in.
func (b *AssetBuilder) WithCurrency(currency string) *AssetBuilder {
	b.Currency = currency
	return b
}

// WithSector sets the asset's sector.
func (b *AssetBuilder) WithSector(sector string) *AssetBuilder {
	b.Sector = sector
	return b
}

// WithRegion sets the asset's region.
func (b *AssetBuilder) WithRegion(region string) *AssetBuilder {
	b.Region = region
	return b
}

// Build creates the asset in the database and returns it.
func (b *AssetBuilder) Build(t *testing.T, db *sql.DB) model.Asset {
	t.Helper()

	query := `
		INSERT INTO asset (id, symbol, name, currency, sector, region)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Symbol, b.Name, b.Currency, b.Sector, b.Region)
	if err != nil {
		t.Fatalf("Failed to create test asset: %v", err)
	}

	return model.Asset{
		ID:       b.ID,
		Symbol:   b.Symbol,
		Name:     b.Name,
		Currency: b.Currency,
		Sector:   b.Sector,
		Region:   b.Region,
	}
}

// Convenience functions

// CreatePortfolio creates a portfolio with the given name and default values.
//
// Example usage:
//
//	portfolio := testutil.CreatePortfolio(t, db, "My Portfolio")
func CreatePortfolio(t *testing.T, db *sql.DB, name string) model.Portfolio {
	t.Helper()
	return NewPortfolio().WithName(name).Build(t, db)
}

// CreateAsset creates an asset with the given symbol and currency.
func CreateAsset(t *testing.T, db *sql.DB, symbol, currency string) model.Asset {
	t.Helper()
	return NewAsset().WithSymbol(symbol).WithCurrency(currency).Build(t, db)
}

// CreatePrice records a closing price for an asset on a date. The price is
// stored in the asset's quote currency.
func CreatePrice(t *testing.T, db *sql.DB, asset model.Asset, date time.Time, close float64) model.PricePoint {
	t.Helper()

	p := model.PricePoint{
		ID:         MakeID(),
		AssetID:    asset.ID,
		Date:       date,
		ClosePrice: close,
		Currency:   asset.Currency,
	}

	_, err := db.Exec(`
		INSERT INTO asset_price (id, asset_id, date, close_price, currency)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.AssetID, p.Date.Format("2006-01-02"), p.ClosePrice, p.Currency)
	if err != nil {
		t.Fatalf("Failed to create test price: %v", err)
	}

	return p
}

// CreatePrices records a run of daily closing prices for an asset starting
// at the given date, one per element of closes.
func CreatePrices(t *testing.T, db *sql.DB, asset model.Asset, start time.Time, closes []float64) []model.PricePoint {
	t.Helper()

	prices := make([]model.PricePoint, len(closes))
	for i, close := range closes {
		prices[i] = CreatePrice(t, db, asset, start.AddDate(0, 0, i), close)
	}
	return prices
}

// CreateAllocation records an allocation weight for an asset in a portfolio
// effective from the given date.
func CreateAllocation(t *testing.T, db *sql.DB, portfolio model.Portfolio, asset model.Asset, date time.Time, weight float64) model.AllocationWeight {
	t.Helper()

	w := model.AllocationWeight{
		ID:          MakeID(),
		PortfolioID: portfolio.ID,
		AssetID:     asset.ID,
		Date:        date,
		Weight:      weight,
	}

	_, err := db.Exec(`
		INSERT INTO allocation_weight (id, portfolio_id, asset_id, date, weight)
		VALUES (?, ?, ?, ?, ?)
	`, w.ID, w.PortfolioID, w.AssetID, w.Date.Format("2006-01-02"), w.Weight)
	if err != nil {
		t.Fatalf("Failed to create test allocation: %v", err)
	}

	return w
}

// CreateExchangeRate records a stored exchange rate for a (from, to, date) key.
func CreateExchangeRate(t *testing.T, db *sql.DB, from, to string, date time.Time, rate float64) model.ExchangeRate {
	t.Helper()

	r := model.ExchangeRate{
		ID:           MakeID(),
		FromCurrency: from,
		ToCurrency:   to,
		Date:         date,
		Rate:         rate,
		FetchedAt:    date,
	}

	_, err := db.Exec(`
		INSERT INTO exchange_rate (id, from_currency, to_currency, date, rate, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.FromCurrency, r.ToCurrency, r.Date.Format("2006-01-02"), r.Rate, r.FetchedAt.Format(time.RFC3339))
	if err != nil {
		t.Fatalf("Failed to create test exchange rate: %v", err)
	}

	return r
}
