package testutil

import (
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/analytics"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/fx"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/repository"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/service"
)

// NewTestAnalyticsService creates an AnalyticsService wired against the test
// database. Currency resolution uses stored exchange_rate rows only; there is
// no live source, so tests control every rate through CreateExchangeRate.
func NewTestAnalyticsService(t *testing.T, db *sql.DB) *service.AnalyticsService {
	t.Helper()

	resolver := fx.NewResolver(repository.NewRateRepository(db), nil, fx.Options{})

	return service.NewAnalyticsService(
		db,
		repository.NewPortfolioRepository(db),
		repository.NewPriceRepository(db),
		repository.NewAllocationRepository(db),
		repository.NewSnapshotRepository(db),
		analytics.NewValuationEngine(resolver),
		analytics.NewRiskCalculator(analytics.RiskConfig{}),
		analytics.NewAssessor(analytics.AssessorConfig{}),
	)
}

// NewTestSystemService creates a SystemService against the test database.
func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()
	return service.NewSystemService(db)
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeSymbol generates a stock ticker symbol for testing.
//
// Example usage:
//
//	symbol := testutil.MakeSymbol("AAPL")
//	// Returns: "AAPL1A2B"
func MakeSymbol(base string) string {
	if base == "" {
		base = "TEST"
	}
	return base + randomAlphanumeric(4)
}

// MakePortfolioName generates a unique portfolio name for testing.
//
// Example usage:
//
//	name := testutil.MakePortfolioName("MyPortfolio")
//	// Returns: "MyPortfolio ABC123"
func MakePortfolioName(base string) string {
	if base == "" {
		base = "Portfolio"
	}
	return base + " " + randomAlphanumeric(6)
}

// Date builds a UTC midnight timestamp, keeping test data terse.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// randomAlphanumeric generates a random alphanumeric string of the given length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
