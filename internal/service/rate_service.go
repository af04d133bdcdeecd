package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/fx"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/model"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/repository"
)

// RateService refreshes current-date exchange rates from the live provider
// into the exchange_rate table, so the resolver's stored-row path stays
// warm and the stale-fallback path has recent data to degrade to.
type RateService struct {
	db           *sql.DB
	rateRepo     *repository.RateRepository
	source       fx.RateSource
	baseCurrency string
	now          func() time.Time
}

// NewRateService creates a new RateService with the provided dependencies.
func NewRateService(db *sql.DB, rateRepo *repository.RateRepository, source fx.RateSource, baseCurrency string) *RateService {
	return &RateService{
		db:           db,
		rateRepo:     rateRepo,
		source:       source,
		baseCurrency: baseCurrency,
		now:          time.Now,
	}
}

// CurrenciesInUse returns the distinct currencies present across assets and
// portfolio base currencies, excluding the resolver's base currency.
func (s *RateService) CurrenciesInUse() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT currency FROM asset
		UNION
		SELECT base_currency FROM portfolio
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query currencies in use: %w", err)
	}
	defer rows.Close()

	currencies := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan currency: %w", err)
		}
		if code != s.baseCurrency {
			currencies = append(currencies, code)
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currencies: %w", err)
	}

	return currencies, nil
}

// RefreshCurrentRates fetches today's rate from every in-use currency to the
// base currency and stores it. Individual pair failures are collected, not
// fatal: the next resolver access falls back to the stale cached value.
func (s *RateService) RefreshCurrentRates(ctx context.Context) (int, error) {
	if s.source == nil {
		return 0, nil
	}

	currencies, err := s.CurrenciesInUse()
	if err != nil {
		return 0, err
	}

	today := s.now().UTC()
	refreshed := 0
	var firstErr error

	for _, code := range currencies {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}

		rate, err := s.source.FetchRate(ctx, code, s.baseCurrency, today)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("refreshing %s/%s: %w", code, s.baseCurrency, err)
			}
			continue
		}

		_, err = s.rateRepo.SaveRate(model.ExchangeRate{
			FromCurrency: code,
			ToCurrency:   s.baseCurrency,
			Date:         today,
			Rate:         rate,
			FetchedAt:    s.now().UTC(),
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		refreshed++
	}

	return refreshed, firstErr
}
