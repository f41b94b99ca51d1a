package history

import "database/sql"

// Schema defines the snapshot tables in history.db. Rows are append-only;
// retention is handled by Prune.
const Schema = `
CREATE TABLE IF NOT EXISTS opportunity_snapshots (
    uuid TEXT PRIMARY KEY,
    symbol TEXT NOT NULL,
    expiration TEXT NOT NULL,
    days_to_exp INTEGER NOT NULL,
    side TEXT NOT NULL,
    strike REAL NOT NULL,
    premium REAL NOT NULL,
    premium_percentage REAL NOT NULL,
    annualized_return REAL NOT NULL,
    delta REAL NOT NULL,
    collateral_required REAL NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS allocation_snapshots (
    uuid TEXT PRIMARY KEY,
    expiry_date TEXT NOT NULL,
    days_to_expiry INTEGER NOT NULL,
    total_allocated_capital REAL NOT NULL,
    total_premium REAL NOT NULL,
    total_premium_percentage REAL NOT NULL,
    capital_efficiency REAL NOT NULL,
    unused_capital REAL NOT NULL,
    score REAL NOT NULL,
    legs_json TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS stock_snapshots (
    uuid TEXT PRIMARY KEY,
    symbol TEXT NOT NULL,
    price REAL NOT NULL,
    previous_close REAL NOT NULL,
    change REAL NOT NULL,
    change_percent REAL NOT NULL,
    sma20 REAL,
    rsi14 REAL,
    trend TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sentiment_snapshots (
    uuid TEXT PRIMARY KEY,
    symbol TEXT NOT NULL,
    average_sentiment REAL NOT NULL,
    label TEXT NOT NULL,
    total_articles INTEGER NOT NULL,
    confidence REAL NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_opportunity_symbol ON opportunity_snapshots(symbol, created_at);
CREATE INDEX IF NOT EXISTS idx_allocation_created ON allocation_snapshots(created_at);
CREATE INDEX IF NOT EXISTS idx_stock_symbol ON stock_snapshots(symbol, created_at);
CREATE INDEX IF NOT EXISTS idx_sentiment_symbol ON sentiment_snapshots(symbol, created_at);
`

// InitSchema ensures all history tables exist.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
