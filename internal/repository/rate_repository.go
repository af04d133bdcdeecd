package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/apperrors"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/model"
)

// RateRepository provides data access methods for the exchange_rate table.
// It satisfies fx.RateStore, backing the currency resolver with stored rows.
type RateRepository struct {
	db *sql.DB
}

// NewRateRepository creates a new RateRepository with the provided database connection.
func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{db: db}
}

// GetRate retrieves the stored rate for an exact (from, to, date) key.
func (r *RateRepository) GetRate(from, to string, date time.Time) (model.ExchangeRate, error) {
	row := r.db.QueryRow(`
		SELECT id, from_currency, to_currency, date, rate, fetched_at
		FROM exchange_rate
		WHERE from_currency = ? AND to_currency = ? AND date = ?
	`, from, to, date.Format("2006-01-02"))

	return scanRate(row)
}

// GetLatestRate retrieves the most recent stored rate for a pair at or
// before asOf, by date then fetch time.
func (r *RateRepository) GetLatestRate(from, to string, asOf time.Time) (model.ExchangeRate, error) {
	row := r.db.QueryRow(`
		SELECT id, from_currency, to_currency, date, rate, fetched_at
		FROM exchange_rate
		WHERE from_currency = ? AND to_currency = ? AND date <= ?
		ORDER BY date DESC, fetched_at DESC
		LIMIT 1
	`, from, to, asOf.Format("2006-01-02"))

	return scanRate(row)
}

// SaveRate inserts or replaces the rate for a (from, to, date) key.
func (r *RateRepository) SaveRate(rate model.ExchangeRate) (model.ExchangeRate, error) {
	if rate.ID == "" {
		rate.ID = uuid.NewString()
	}
	if rate.FetchedAt.IsZero() {
		rate.FetchedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO exchange_rate (id, from_currency, to_currency, date, rate, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (from_currency, to_currency, date)
		DO UPDATE SET rate = excluded.rate, fetched_at = excluded.fetched_at
	`, rate.ID, rate.FromCurrency, rate.ToCurrency,
		rate.Date.Format("2006-01-02"), rate.Rate, rate.FetchedAt.Format(time.RFC3339))
	if err != nil {
		return model.ExchangeRate{}, fmt.Errorf("failed to upsert exchange rate: %w", err)
	}

	return rate, nil
}

func scanRate(row *sql.Row) (model.ExchangeRate, error) {
	var rate model.ExchangeRate
	var dateStr, fetchedStr string

	err := row.Scan(&rate.ID, &rate.FromCurrency, &rate.ToCurrency, &dateStr, &rate.Rate, &fetchedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ExchangeRate{}, apperrors.ErrExchangeRateNotFound
	}
	if err != nil {
		return model.ExchangeRate{}, fmt.Errorf("failed to scan exchange rate: %w", err)
	}

	rate.Date, err = ParseTime(dateStr)
	if err != nil {
		return model.ExchangeRate{}, fmt.Errorf("failed to parse rate date: %w", err)
	}
	rate.FetchedAt, err = ParseTime(fetchedStr)
	if err != nil {
		return model.ExchangeRate{}, fmt.Errorf("failed to parse fetched_at: %w", err)
	}

	return rate, nil
}
