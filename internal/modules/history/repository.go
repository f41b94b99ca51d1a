// Package history persists scan results, portfolio allocations, stock
// snapshots, and sentiment readings to history.db so past decisions can be
// reviewed.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wheelhouse-labs/wheelhouse/internal/modules/portfolio"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/pricing"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/scanner"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/sentiment"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/stocks"
)

// Repository handles snapshot persistence in history.db.
type Repository struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// NewRepository creates a new history repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		now: time.Now,
		log: log.With().Str("repository", "history").Logger(),
	}
}

// OpportunityRecord is a stored opportunity snapshot.
type OpportunityRecord struct {
	UUID        string              `json:"uuid"`
	Opportunity scanner.Opportunity `json:"opportunity"`
	CreatedAt   time.Time           `json:"created_at"`
}

// AllocationRecord is a stored allocation snapshot.
type AllocationRecord struct {
	UUID       string                        `json:"uuid"`
	Allocation portfolio.PortfolioAllocation `json:"allocation"`
	CreatedAt  time.Time                     `json:"created_at"`
}

// StockRecord is a stored stock snapshot.
type StockRecord struct {
	UUID      string          `json:"uuid"`
	Snapshot  stocks.Snapshot `json:"snapshot"`
	CreatedAt time.Time       `json:"created_at"`
}

// SentimentRecord is a stored sentiment snapshot.
type SentimentRecord struct {
	UUID      string            `json:"uuid"`
	Summary   sentiment.Summary `json:"summary"`
	CreatedAt time.Time         `json:"created_at"`
}

// SaveOpportunities stores a batch of scan results in one transaction.
func (r *Repository) SaveOpportunities(opportunities []scanner.Opportunity) error {
	if len(opportunities) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO opportunity_snapshots
		(uuid, symbol, expiration, days_to_exp, side, strike, premium,
		 premium_percentage, annualized_return, delta, collateral_required, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := r.now().Unix()
	for _, opp := range opportunities {
		if _, err := stmt.Exec(
			uuid.New().String(),
			opp.Symbol,
			opp.Expiration,
			opp.DaysToExpiry,
			string(opp.Side),
			opp.Strike,
			opp.Premium,
			opp.PremiumPercentage,
			opp.AnnualizedReturn,
			opp.Delta,
			opp.CollateralRequired,
			now,
		); err != nil {
			return fmt.Errorf("inserting opportunity for %s: %w", opp.Symbol, err)
		}
	}

	return tx.Commit()
}

// RecentOpportunities returns the latest stored opportunities for a symbol,
// newest first.
func (r *Repository) RecentOpportunities(symbol string, limit int) ([]OpportunityRecord, error) {
	rows, err := r.db.Query(`
		SELECT uuid, symbol, expiration, days_to_exp, side, strike, premium,
		       premium_percentage, annualized_return, delta, collateral_required, created_at
		FROM opportunity_snapshots
		WHERE symbol = ?
		ORDER BY created_at DESC, uuid
		LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("querying opportunities: %w", err)
	}
	defer rows.Close()

	var records []OpportunityRecord
	for rows.Next() {
		var rec OpportunityRecord
		var side string
		var createdAt int64
		if err := rows.Scan(
			&rec.UUID,
			&rec.Opportunity.Symbol,
			&rec.Opportunity.Expiration,
			&rec.Opportunity.DaysToExpiry,
			&side,
			&rec.Opportunity.Strike,
			&rec.Opportunity.Premium,
			&rec.Opportunity.PremiumPercentage,
			&rec.Opportunity.AnnualizedReturn,
			&rec.Opportunity.Delta,
			&rec.Opportunity.CollateralRequired,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning opportunity row: %w", err)
		}
		rec.Opportunity.Side = pricingSide(side)
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveAllocation stores one portfolio allocation with its legs as JSON.
func (r *Repository) SaveAllocation(allocation portfolio.PortfolioAllocation) (string, error) {
	legs, err := json.Marshal(allocation.Legs)
	if err != nil {
		return "", fmt.Errorf("marshaling legs: %w", err)
	}

	id := uuid.New().String()
	_, err = r.db.Exec(`
		INSERT INTO allocation_snapshots
		(uuid, expiry_date, days_to_expiry, total_allocated_capital, total_premium,
		 total_premium_percentage, capital_efficiency, unused_capital, score, legs_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		allocation.ExpiryDate,
		allocation.DaysToExpiry,
		allocation.TotalAllocatedCapital,
		allocation.TotalPremium,
		allocation.TotalPremiumPercentage,
		allocation.CapitalEfficiency,
		allocation.UnusedCapital,
		allocation.Score,
		string(legs),
		r.now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("inserting allocation: %w", err)
	}
	return id, nil
}

// RecentAllocations returns the latest stored allocations, newest first.
func (r *Repository) RecentAllocations(limit int) ([]AllocationRecord, error) {
	rows, err := r.db.Query(`
		SELECT uuid, expiry_date, days_to_expiry, total_allocated_capital, total_premium,
		       total_premium_percentage, capital_efficiency, unused_capital, score, legs_json, created_at
		FROM allocation_snapshots
		ORDER BY created_at DESC, uuid
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying allocations: %w", err)
	}
	defer rows.Close()

	var records []AllocationRecord
	for rows.Next() {
		var rec AllocationRecord
		var legsJSON string
		var createdAt int64
		if err := rows.Scan(
			&rec.UUID,
			&rec.Allocation.ExpiryDate,
			&rec.Allocation.DaysToExpiry,
			&rec.Allocation.TotalAllocatedCapital,
			&rec.Allocation.TotalPremium,
			&rec.Allocation.TotalPremiumPercentage,
			&rec.Allocation.CapitalEfficiency,
			&rec.Allocation.UnusedCapital,
			&rec.Allocation.Score,
			&legsJSON,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning allocation row: %w", err)
		}
		if err := json.Unmarshal([]byte(legsJSON), &rec.Allocation.Legs); err != nil {
			return nil, fmt.Errorf("unmarshaling legs: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveStockSnapshots stores a batch of stock snapshots in one transaction.
func (r *Repository) SaveStockSnapshots(snapshots []stocks.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO stock_snapshots
		(uuid, symbol, price, previous_close, change, change_percent, sma20, rsi14, trend, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := r.now().Unix()
	for _, snap := range snapshots {
		if _, err := stmt.Exec(
			uuid.New().String(),
			snap.Symbol,
			snap.Price,
			snap.PreviousClose,
			snap.Change,
			snap.ChangePercent,
			snap.SMA20,
			snap.RSI14,
			snap.Trend,
			now,
		); err != nil {
			return fmt.Errorf("inserting stock snapshot for %s: %w", snap.Symbol, err)
		}
	}

	return tx.Commit()
}

// RecentStockSnapshots returns the latest stored snapshots for a symbol,
// newest first.
func (r *Repository) RecentStockSnapshots(symbol string, limit int) ([]StockRecord, error) {
	rows, err := r.db.Query(`
		SELECT uuid, symbol, price, previous_close, change, change_percent, sma20, rsi14, trend, created_at
		FROM stock_snapshots
		WHERE symbol = ?
		ORDER BY created_at DESC, uuid
		LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("querying stock snapshots: %w", err)
	}
	defer rows.Close()

	var records []StockRecord
	for rows.Next() {
		var rec StockRecord
		var createdAt int64
		if err := rows.Scan(
			&rec.UUID,
			&rec.Snapshot.Symbol,
			&rec.Snapshot.Price,
			&rec.Snapshot.PreviousClose,
			&rec.Snapshot.Change,
			&rec.Snapshot.ChangePercent,
			&rec.Snapshot.SMA20,
			&rec.Snapshot.RSI14,
			&rec.Snapshot.Trend,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning stock snapshot row: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		rec.Snapshot.AsOf = rec.CreatedAt
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveSentiment stores one sentiment summary.
func (r *Repository) SaveSentiment(summary sentiment.Summary) (string, error) {
	id := uuid.New().String()
	_, err := r.db.Exec(`
		INSERT INTO sentiment_snapshots
		(uuid, symbol, average_sentiment, label, total_articles, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		summary.Symbol,
		summary.AverageSentiment,
		summary.Label,
		summary.TotalArticles,
		summary.Confidence,
		r.now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("inserting sentiment: %w", err)
	}
	return id, nil
}

// RecentSentiment returns the latest sentiment readings for a symbol,
// newest first.
func (r *Repository) RecentSentiment(symbol string, limit int) ([]SentimentRecord, error) {
	rows, err := r.db.Query(`
		SELECT uuid, symbol, average_sentiment, label, total_articles, confidence, created_at
		FROM sentiment_snapshots
		WHERE symbol = ?
		ORDER BY created_at DESC, uuid
		LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sentiment: %w", err)
	}
	defer rows.Close()

	var records []SentimentRecord
	for rows.Next() {
		var rec SentimentRecord
		var createdAt int64
		if err := rows.Scan(
			&rec.UUID,
			&rec.Summary.Symbol,
			&rec.Summary.AverageSentiment,
			&rec.Summary.Label,
			&rec.Summary.TotalArticles,
			&rec.Summary.Confidence,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning sentiment row: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

func pricingSide(side string) pricing.OptionSide {
	if side == string(pricing.Call) {
		return pricing.Call
	}
	return pricing.Put
}

// Prune removes snapshots older than the retention window.
// Returns the total number of rows deleted.
func (r *Repository) Prune(retention time.Duration) (int64, error) {
	cutoff := r.now().Add(-retention).Unix()

	var total int64
	for _, table := range []string{"opportunity_snapshots", "allocation_snapshots", "stock_snapshots", "sentiment_snapshots"} {
		result, err := r.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE created_at < ?", table), cutoff)
		if err != nil {
			return total, fmt.Errorf("pruning %s: %w", table, err)
		}
		deleted, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("counting pruned rows in %s: %w", table, err)
		}
		total += deleted
	}
	return total, nil
}
