package repository_test

import (
	"errors"
	"testing"

	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/apperrors"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/model"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/repository"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/testutil"
)

// TestRateRepository tests exchange-rate row access.
//
// WHY: The repository backs the resolver's store path; exact-key lookup,
// latest-at-or-before lookup and the upsert on re-fetch must behave as the
// resolver assumes.
func TestRateRepository(t *testing.T) {
	t.Run("GetRate returns only the exact key", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewRateRepository(db)
		testutil.CreateExchangeRate(t, db, "EUR", "USD", testutil.Date(2024, 3, 15), 1.09)

		rate, err := repo.GetRate("EUR", "USD", testutil.Date(2024, 3, 15))
		if err != nil {
			t.Fatalf("GetRate() returned unexpected error: %v", err)
		}
		if rate.Rate != 1.09 {
			t.Errorf("Expected rate 1.09, got %v", rate.Rate)
		}

		// A different date is a miss, never a nearest match.
		if _, err := repo.GetRate("EUR", "USD", testutil.Date(2024, 3, 16)); !errors.Is(err, apperrors.ErrExchangeRateNotFound) {
			t.Fatalf("Expected ErrExchangeRateNotFound, got %v", err)
		}

		// Direction matters: the inverse pair is not stored.
		if _, err := repo.GetRate("USD", "EUR", testutil.Date(2024, 3, 15)); !errors.Is(err, apperrors.ErrExchangeRateNotFound) {
			t.Fatalf("Expected ErrExchangeRateNotFound for inverse pair, got %v", err)
		}
	})

	t.Run("GetLatestRate returns the newest row at or before asOf", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewRateRepository(db)
		testutil.CreateExchangeRate(t, db, "EUR", "USD", testutil.Date(2024, 3, 10), 1.05)
		testutil.CreateExchangeRate(t, db, "EUR", "USD", testutil.Date(2024, 3, 12), 1.07)
		testutil.CreateExchangeRate(t, db, "EUR", "USD", testutil.Date(2024, 3, 20), 1.12)

		rate, err := repo.GetLatestRate("EUR", "USD", testutil.Date(2024, 3, 15))
		if err != nil {
			t.Fatalf("GetLatestRate() returned unexpected error: %v", err)
		}
		if rate.Rate != 1.07 {
			t.Errorf("Expected rate 1.07 from 2024-03-12, got %v", rate.Rate)
		}
	})

	t.Run("SaveRate upserts on the pair-date key", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewRateRepository(db)
		date := testutil.Date(2024, 3, 15)

		if _, err := repo.SaveRate(model.ExchangeRate{FromCurrency: "EUR", ToCurrency: "USD", Date: date, Rate: 1.09}); err != nil {
			t.Fatalf("SaveRate() returned unexpected error: %v", err)
		}
		if _, err := repo.SaveRate(model.ExchangeRate{FromCurrency: "EUR", ToCurrency: "USD", Date: date, Rate: 1.10}); err != nil {
			t.Fatalf("SaveRate() upsert returned unexpected error: %v", err)
		}

		rate, err := repo.GetRate("EUR", "USD", date)
		if err != nil {
			t.Fatalf("GetRate() returned unexpected error: %v", err)
		}
		if rate.Rate != 1.10 {
			t.Errorf("Expected upserted rate 1.10, got %v", rate.Rate)
		}

		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM exchange_rate`).Scan(&count); err != nil {
			t.Fatalf("Failed to count rows: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected a single row after upsert, got %d", count)
		}
	})
}
