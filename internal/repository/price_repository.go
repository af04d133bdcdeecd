package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/apperrors"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/model"
)

// PriceRepository provides data access methods for the asset and asset_price tables.
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository creates a new PriceRepository with the provided database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// GetPrices retrieves price points for the given assets within a date range,
// ordered by date ascending. Returns an empty slice when nothing matches.
func (r *PriceRepository) GetPrices(assetIDs []string, startDate, endDate time.Time) ([]model.PricePoint, error) {
	if len(assetIDs) == 0 {
		return []model.PricePoint{}, nil
	}

	placeholders := make([]string, len(assetIDs))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := `
		SELECT id, asset_id, date, close_price, currency
		FROM asset_price
		WHERE asset_id IN (` + strings.Join(placeholders, ",") + `)
		AND date >= ?
		AND date <= ?
		ORDER BY date ASC, asset_id ASC
	`

	args := make([]any, 0, len(assetIDs)+2)
	for _, id := range assetIDs {
		args = append(args, id)
	}
	args = append(args, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset_price table: %w", err)
	}
	defer rows.Close()

	prices := []model.PricePoint{}
	for rows.Next() {
		var p model.PricePoint
		var dateStr string

		if err := rows.Scan(&p.ID, &p.AssetID, &dateStr, &p.ClosePrice, &p.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan asset_price results: %w", err)
		}
		p.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse price date: %w", err)
		}
		prices = append(prices, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset_price table: %w", err)
	}

	return prices, nil
}

// SavePrice inserts a price point, generating its ID when empty.
// The (asset_id, date) pair is unique; re-inserting an existing date returns
// apperrors.ErrDuplicateEntry.
func (r *PriceRepository) SavePrice(p model.PricePoint) (model.PricePoint, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	_, err := r.db.Exec(`
		INSERT INTO asset_price (id, asset_id, date, close_price, currency)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.AssetID, p.Date.Format("2006-01-02"), p.ClosePrice, p.Currency)
	if isUniqueViolation(err) {
		return model.PricePoint{}, fmt.Errorf("%w: price for asset %s on %s",
			apperrors.ErrDuplicateEntry, p.AssetID, p.Date.Format("2006-01-02"))
	}
	if err != nil {
		return model.PricePoint{}, fmt.Errorf("failed to insert asset price: %w", err)
	}

	return p, nil
}

// GetLatestPriceDate returns the newest price date across the given assets.
// Returns (zero time, nil) when no prices exist.
func (r *PriceRepository) GetLatestPriceDate(assetIDs []string) (time.Time, error) {
	if len(assetIDs) == 0 {
		return time.Time{}, nil
	}

	placeholders := make([]string, len(assetIDs))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := `
		SELECT MAX(date)
		FROM asset_price
		WHERE asset_id IN (` + strings.Join(placeholders, ",") + `)
	`

	args := make([]any, len(assetIDs))
	for i, id := range assetIDs {
		args[i] = id
	}

	var dateStr sql.NullString
	err := r.db.QueryRow(query, args...).Scan(&dateStr)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !dateStr.Valid) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest price date: %w", err)
	}

	return ParseTime(dateStr.String)
}

// GetAsset retrieves a single asset by ID.
func (r *PriceRepository) GetAsset(assetID string) (model.Asset, error) {
	var a model.Asset
	err := r.db.QueryRow(`
		SELECT id, symbol, name, currency, sector, region
		FROM asset
		WHERE id = ?
	`, assetID).Scan(&a.ID, &a.Symbol, &a.Name, &a.Currency, &a.Sector, &a.Region)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Asset{}, fmt.Errorf("%w: %s", apperrors.ErrAssetNotFound, assetID)
	}
	if err != nil {
		return model.Asset{}, fmt.Errorf("failed to query asset: %w", err)
	}
	return a, nil
}

// GetPortfolioAssets retrieves every asset referenced by a portfolio's
// allocation schedule.
func (r *PriceRepository) GetPortfolioAssets(portfolioID string) ([]model.Asset, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT a.id, a.symbol, a.name, a.currency, a.sector, a.region
		FROM asset a
		INNER JOIN allocation_weight aw ON aw.asset_id = a.id
		WHERE aw.portfolio_id = ?
		ORDER BY a.symbol ASC
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio assets: %w", err)
	}
	defer rows.Close()

	assets := []model.Asset{}
	for rows.Next() {
		var a model.Asset
		if err := rows.Scan(&a.ID, &a.Symbol, &a.Name, &a.Currency, &a.Sector, &a.Region); err != nil {
			return nil, fmt.Errorf("failed to scan asset results: %w", err)
		}
		assets = append(assets, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset table: %w", err)
	}

	return assets, nil
}

// CreateAsset inserts a new asset, generating its ID when empty.
func (r *PriceRepository) CreateAsset(a model.Asset) (model.Asset, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	_, err := r.db.Exec(`
		INSERT INTO asset (id, symbol, name, currency, sector, region)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.Symbol, a.Name, a.Currency, a.Sector, a.Region)
	if err != nil {
		return model.Asset{}, fmt.Errorf("failed to insert asset: %w", err)
	}

	return a, nil
}
