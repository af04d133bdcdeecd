package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/apperrors"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/model"
)

// AllocationRepository provides data access methods for the allocation_weight table.
type AllocationRepository struct {
	db *sql.DB
}

// NewAllocationRepository creates a new AllocationRepository with the provided database connection.
func NewAllocationRepository(db *sql.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// GetWeights retrieves a portfolio's allocation rows up to and including
// endDate, ordered by date ascending. Rows before the requested period are
// included so the schedule in effect at the period start is known.
func (r *AllocationRepository) GetWeights(portfolioID string, endDate time.Time) ([]model.AllocationWeight, error) {
	rows, err := r.db.Query(`
		SELECT id, portfolio_id, asset_id, date, weight
		FROM allocation_weight
		WHERE portfolio_id = ?
		AND date <= ?
		ORDER BY date ASC, asset_id ASC
	`, portfolioID, endDate.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation_weight table: %w", err)
	}
	defer rows.Close()

	weights := []model.AllocationWeight{}
	for rows.Next() {
		var w model.AllocationWeight
		var dateStr string

		if err := rows.Scan(&w.ID, &w.PortfolioID, &w.AssetID, &dateStr, &w.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan allocation_weight results: %w", err)
		}
		w.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse allocation date: %w", err)
		}
		weights = append(weights, w)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation_weight table: %w", err)
	}

	return weights, nil
}

// SaveWeight inserts an allocation row, generating its ID when empty.
// The (portfolio_id, asset_id, date) triple is unique; re-inserting an
// existing row returns apperrors.ErrDuplicateEntry.
func (r *AllocationRepository) SaveWeight(w model.AllocationWeight) (model.AllocationWeight, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}

	_, err := r.db.Exec(`
		INSERT INTO allocation_weight (id, portfolio_id, asset_id, date, weight)
		VALUES (?, ?, ?, ?, ?)
	`, w.ID, w.PortfolioID, w.AssetID, w.Date.Format("2006-01-02"), w.Weight)
	if isUniqueViolation(err) {
		return model.AllocationWeight{}, fmt.Errorf("%w: weight for asset %s on %s",
			apperrors.ErrDuplicateEntry, w.AssetID, w.Date.Format("2006-01-02"))
	}
	if err != nil {
		return model.AllocationWeight{}, fmt.Errorf("failed to insert allocation weight: %w", err)
	}

	return w, nil
}
