package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	// Configure SQLite for testing
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA timezone = 'UTC'",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	// Create schema
	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	// Cleanup when test ends
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the production migrations.
func createTestSchema(db *sql.DB) error {
	schema := `
		-- Portfolio table
		CREATE TABLE portfolio (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			base_currency TEXT NOT NULL DEFAULT 'USD',
			benchmark_asset_id TEXT,
			is_archived INTEGER NOT NULL DEFAULT 0
		);

		-- Asset table
		CREATE TABLE asset (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			currency TEXT NOT NULL,
			sector TEXT NOT NULL DEFAULT '',
			region TEXT NOT NULL DEFAULT ''
		);

		-- Asset price table
		CREATE TABLE asset_price (
			id TEXT PRIMARY KEY,
			asset_id TEXT NOT NULL REFERENCES asset(id),
			date TEXT NOT NULL,
			close_price REAL NOT NULL,
			currency TEXT NOT NULL,
			UNIQUE (asset_id, date)
		);

		-- Allocation weight table
		CREATE TABLE allocation_weight (
			id TEXT PRIMARY KEY,
			portfolio_id TEXT NOT NULL REFERENCES portfolio(id),
			asset_id TEXT NOT NULL REFERENCES asset(id),
			date TEXT NOT NULL,
			weight REAL NOT NULL,
			UNIQUE (portfolio_id, asset_id, date)
		);

		-- Exchange rate table
		CREATE TABLE exchange_rate (
			id TEXT PRIMARY KEY,
			from_currency TEXT NOT NULL,
			to_currency TEXT NOT NULL,
			date TEXT NOT NULL,
			rate REAL NOT NULL,
			fetched_at TEXT NOT NULL,
			UNIQUE (from_currency, to_currency, date)
		);

		-- Index value table
		CREATE TABLE index_value (
			id TEXT PRIMARY KEY,
			portfolio_id TEXT NOT NULL REFERENCES portfolio(id),
			date TEXT NOT NULL,
			nav_value REAL NOT NULL,
			UNIQUE (portfolio_id, date)
		);

		-- Risk snapshot table
		CREATE TABLE risk_snapshot (
			id TEXT PRIMARY KEY,
			portfolio_id TEXT NOT NULL REFERENCES portfolio(id),
			date TEXT NOT NULL,
			total_return REAL NOT NULL,
			annualized_return REAL NOT NULL,
			volatility REAL NOT NULL,
			sharpe_ratio REAL,
			max_drawdown REAL NOT NULL,
			current_drawdown REAL NOT NULL,
			var_95 REAL,
			cvar_95 REAL,
			beta REAL,
			alpha REAL,
			correlation REAL,
			win_rate REAL NOT NULL,
			avg_win REAL NOT NULL,
			avg_loss REAL NOT NULL,
			best_day REAL NOT NULL,
			worst_day REAL NOT NULL,
			observations INTEGER NOT NULL
		);

		-- Setting table
		CREATE TABLE setting (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`

	_, err := db.Exec(schema)
	return err
}
