package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/apperrors"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/model"
)

// SnapshotRepository provides data access methods for computed analytics
// snapshots: the index_value and risk_snapshot tables. Writes for one
// portfolio replace that portfolio's series atomically inside a transaction,
// so a cancelled batch item never leaves a partially-written series behind.
type SnapshotRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewSnapshotRepository creates a new SnapshotRepository with the provided database connection.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// WithTx returns a copy of the repository that executes inside the given transaction.
func (r *SnapshotRepository) WithTx(tx *sql.Tx) *SnapshotRepository {
	return &SnapshotRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *SnapshotRepository) getQuerier() interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// ReplaceIndexSeries deletes a portfolio's stored index series and inserts
// the new one. Call inside a transaction via WithTx for atomic replacement.
func (r *SnapshotRepository) ReplaceIndexSeries(ctx context.Context, portfolioID string, series []model.IndexValue) error {
	q := r.getQuerier()

	if _, err := q.ExecContext(ctx, `DELETE FROM index_value WHERE portfolio_id = ?`, portfolioID); err != nil {
		return fmt.Errorf("failed to clear index series: %w", err)
	}

	for _, point := range series {
		_, err := q.ExecContext(ctx, `
			INSERT INTO index_value (id, portfolio_id, date, nav_value)
			VALUES (?, ?, ?, ?)
		`, uuid.NewString(), portfolioID, point.Date.Format("2006-01-02"), point.NavValue)
		if err != nil {
			return fmt.Errorf("failed to insert index value: %w", err)
		}
	}

	return nil
}

// GetIndexSeries retrieves a portfolio's stored index series within a date
// range, ordered by date ascending.
func (r *SnapshotRepository) GetIndexSeries(portfolioID string, startDate, endDate time.Time) ([]model.IndexValue, error) {
	rows, err := r.getQuerier().Query(`
		SELECT date, nav_value
		FROM index_value
		WHERE portfolio_id = ?
		AND date >= ?
		AND date <= ?
		ORDER BY date ASC
	`, portfolioID, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query index_value table: %w", err)
	}
	defer rows.Close()

	series := []model.IndexValue{}
	for rows.Next() {
		var point model.IndexValue
		var dateStr string

		if err := rows.Scan(&dateStr, &point.NavValue); err != nil {
			return nil, fmt.Errorf("failed to scan index_value results: %w", err)
		}
		point.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse index date: %w", err)
		}
		series = append(series, point)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating index_value table: %w", err)
	}

	return series, nil
}

// SaveRiskSnapshot inserts a risk snapshot, generating its ID when empty.
func (r *SnapshotRepository) SaveRiskSnapshot(ctx context.Context, snapshot model.RiskMetricSnapshot) (model.RiskMetricSnapshot, error) {
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}

	_, err := r.getQuerier().ExecContext(ctx, `
		INSERT INTO risk_snapshot (
			id, portfolio_id, date, total_return, annualized_return, volatility,
			sharpe_ratio, max_drawdown, current_drawdown, var_95, cvar_95,
			beta, alpha, correlation, win_rate, avg_win, avg_loss,
			best_day, worst_day, observations
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		snapshot.ID, snapshot.PortfolioID, snapshot.Date.Format("2006-01-02"),
		snapshot.TotalReturn, snapshot.AnnualizedReturn, snapshot.Volatility,
		nullableFloat(snapshot.SharpeRatio), snapshot.MaxDrawdown, snapshot.CurrentDrawdown,
		nullableFloat(snapshot.VaR95), nullableFloat(snapshot.CVaR95),
		nullableFloat(snapshot.Beta), nullableFloat(snapshot.Alpha), nullableFloat(snapshot.Correlation),
		snapshot.WinRate, snapshot.AvgWin, snapshot.AvgLoss,
		snapshot.BestDay, snapshot.WorstDay, snapshot.Observations,
	)
	if err != nil {
		return model.RiskMetricSnapshot{}, fmt.Errorf("failed to insert risk snapshot: %w", err)
	}

	return snapshot, nil
}

// GetLatestRiskSnapshot retrieves a portfolio's most recent risk snapshot.
func (r *SnapshotRepository) GetLatestRiskSnapshot(portfolioID string) (model.RiskMetricSnapshot, error) {
	row := r.getQuerier().QueryRow(`
		SELECT id, portfolio_id, date, total_return, annualized_return, volatility,
		       sharpe_ratio, max_drawdown, current_drawdown, var_95, cvar_95,
		       beta, alpha, correlation, win_rate, avg_win, avg_loss,
		       best_day, worst_day, observations
		FROM risk_snapshot
		WHERE portfolio_id = ?
		ORDER BY date DESC
		LIMIT 1
	`, portfolioID)

	var s model.RiskMetricSnapshot
	var dateStr string
	var sharpe, var95, cvar95, beta, alpha, correlation sql.NullFloat64

	err := row.Scan(
		&s.ID, &s.PortfolioID, &dateStr, &s.TotalReturn, &s.AnnualizedReturn, &s.Volatility,
		&sharpe, &s.MaxDrawdown, &s.CurrentDrawdown, &var95, &cvar95,
		&beta, &alpha, &correlation, &s.WinRate, &s.AvgWin, &s.AvgLoss,
		&s.BestDay, &s.WorstDay, &s.Observations,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RiskMetricSnapshot{}, apperrors.ErrSnapshotNotFound
	}
	if err != nil {
		return model.RiskMetricSnapshot{}, fmt.Errorf("failed to scan risk snapshot: %w", err)
	}

	s.Date, err = ParseTime(dateStr)
	if err != nil {
		return model.RiskMetricSnapshot{}, fmt.Errorf("failed to parse snapshot date: %w", err)
	}
	s.SharpeRatio = floatPointer(sharpe)
	s.VaR95 = floatPointer(var95)
	s.CVaR95 = floatPointer(cvar95)
	s.Beta = floatPointer(beta)
	s.Alpha = floatPointer(alpha)
	s.Correlation = floatPointer(correlation)

	return s, nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatPointer(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	value := v.Float64
	return &value
}
