package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/apperrors"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/model"
)

// PortfolioRepository provides data access methods for the portfolio table.
type PortfolioRepository struct {
	db *sql.DB
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided database connection.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// GetPortfolios retrieves portfolios matching the filter.
// Returns an empty slice if no portfolios are found.
func (r *PortfolioRepository) GetPortfolios(filter model.PortfolioFilter) ([]model.Portfolio, error) {
	query := `
		SELECT id, name, description, base_currency, benchmark_asset_id, is_archived
		FROM portfolio
	`
	if !filter.IncludeArchived {
		query += ` WHERE is_archived = 0`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}
	for rows.Next() {
		var p model.Portfolio
		var benchmark sql.NullString

		err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.BaseCurrency, &benchmark, &p.IsArchived)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio table results: %w", err)
		}
		if benchmark.Valid {
			p.BenchmarkAssetID = &benchmark.String
		}
		portfolios = append(portfolios, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}

	return portfolios, nil
}

// GetPortfolio retrieves a single portfolio by ID.
func (r *PortfolioRepository) GetPortfolio(portfolioID string) (model.Portfolio, error) {
	query := `
		SELECT id, name, description, base_currency, benchmark_asset_id, is_archived
		FROM portfolio
		WHERE id = ?
	`

	var p model.Portfolio
	var benchmark sql.NullString

	err := r.db.QueryRow(query, portfolioID).Scan(
		&p.ID, &p.Name, &p.Description, &p.BaseCurrency, &benchmark, &p.IsArchived,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Portfolio{}, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to query portfolio: %w", err)
	}
	if benchmark.Valid {
		p.BenchmarkAssetID = &benchmark.String
	}

	return p, nil
}

// CreatePortfolio inserts a new portfolio, generating its ID when empty.
func (r *PortfolioRepository) CreatePortfolio(p model.Portfolio) (model.Portfolio, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	var benchmark any
	if p.BenchmarkAssetID != nil {
		benchmark = *p.BenchmarkAssetID
	}

	_, err := r.db.Exec(`
		INSERT INTO portfolio (id, name, description, base_currency, benchmark_asset_id, is_archived)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Description, p.BaseCurrency, benchmark, p.IsArchived)
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to insert portfolio: %w", err)
	}

	return p, nil
}
