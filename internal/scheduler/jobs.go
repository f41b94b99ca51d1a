package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wheelhouse-labs/wheelhouse/internal/modules/history"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/pricing"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/scanner"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/sentiment"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/stocks"
)

// MarketScanJob scans the watchlist for opportunities and records them in
// history. Runs hourly during weekdays.
type MarketScanJob struct {
	scanner *scanner.Service
	repo    *history.Repository
	symbols []string
	log     zerolog.Logger
}

// NewMarketScanJob creates a new market scan job.
func NewMarketScanJob(scannerSvc *scanner.Service, repo *history.Repository, symbols []string, log zerolog.Logger) *MarketScanJob {
	return &MarketScanJob{
		scanner: scannerSvc,
		repo:    repo,
		symbols: symbols,
		log:     log.With().Str("job", "market_scan").Logger(),
	}
}

// Name returns the job name.
func (j *MarketScanJob) Name() string { return "market_scan" }

// Schedule runs on the hour during US trading days.
func (j *MarketScanJob) Schedule() string { return "0 0 * * * 1-5" }

// Run scans every watchlist symbol and persists the results.
func (j *MarketScanJob) Run(ctx context.Context) error {
	perSymbol := j.scanner.ScanSymbols(ctx, j.symbols, pricing.Put)

	var total int
	for symbol, opportunities := range perSymbol {
		if err := j.repo.SaveOpportunities(opportunities); err != nil {
			return fmt.Errorf("saving opportunities for %s: %w", symbol, err)
		}
		total += len(opportunities)
	}

	j.log.Info().
		Int("symbols", len(j.symbols)).
		Int("opportunities", total).
		Msg("Market scan recorded")
	return nil
}

// StockSnapshotJob records quote and indicator snapshots for the watchlist.
type StockSnapshotJob struct {
	stocks  *stocks.Service
	repo    *history.Repository
	symbols []string
	log     zerolog.Logger
}

// NewStockSnapshotJob creates a new stock snapshot job.
func NewStockSnapshotJob(stocksSvc *stocks.Service, repo *history.Repository, symbols []string, log zerolog.Logger) *StockSnapshotJob {
	return &StockSnapshotJob{
		stocks:  stocksSvc,
		repo:    repo,
		symbols: symbols,
		log:     log.With().Str("job", "stock_snapshot").Logger(),
	}
}

// Name returns the job name.
func (j *StockSnapshotJob) Name() string { return "stock_snapshot" }

// Schedule runs on the half hour during US trading days, offset from the
// market scan.
func (j *StockSnapshotJob) Schedule() string { return "0 30 * * * 1-5" }

// Run snapshots every watchlist symbol and persists the results.
func (j *StockSnapshotJob) Run(ctx context.Context) error {
	snapshots := j.stocks.Snapshots(ctx, j.symbols)
	if err := j.repo.SaveStockSnapshots(snapshots); err != nil {
		return fmt.Errorf("saving stock snapshots: %w", err)
	}

	j.log.Info().Int("snapshots", len(snapshots)).Msg("Stock snapshots recorded")
	return nil
}

// SentimentRefreshJob recomputes sentiment for the watchlist and records
// the summaries.
type SentimentRefreshJob struct {
	sentiment *sentiment.Service
	repo      *history.Repository
	symbols   []string
	log       zerolog.Logger
}

// NewSentimentRefreshJob creates a new sentiment refresh job.
func NewSentimentRefreshJob(sentimentSvc *sentiment.Service, repo *history.Repository, symbols []string, log zerolog.Logger) *SentimentRefreshJob {
	return &SentimentRefreshJob{
		sentiment: sentimentSvc,
		repo:      repo,
		symbols:   symbols,
		log:       log.With().Str("job", "sentiment_refresh").Logger(),
	}
}

// Name returns the job name.
func (j *SentimentRefreshJob) Name() string { return "sentiment_refresh" }

// Schedule runs every four hours.
func (j *SentimentRefreshJob) Schedule() string { return "0 0 */4 * * *" }

// Run refreshes sentiment for every watchlist symbol.
func (j *SentimentRefreshJob) Run(ctx context.Context) error {
	summaries := j.sentiment.AnalyzeAll(ctx, j.symbols)
	for _, summary := range summaries {
		if _, err := j.repo.SaveSentiment(summary); err != nil {
			return fmt.Errorf("saving sentiment for %s: %w", summary.Symbol, err)
		}
	}

	j.log.Info().Int("symbols", len(summaries)).Msg("Sentiment refresh recorded")
	return nil
}

// HistoryPruneJob trims old snapshots from history.db.
type HistoryPruneJob struct {
	repo      *history.Repository
	retention time.Duration
	log       zerolog.Logger
}

// NewHistoryPruneJob creates a new history prune job.
func NewHistoryPruneJob(repo *history.Repository, retention time.Duration, log zerolog.Logger) *HistoryPruneJob {
	return &HistoryPruneJob{
		repo:      repo,
		retention: retention,
		log:       log.With().Str("job", "history_prune").Logger(),
	}
}

// Name returns the job name.
func (j *HistoryPruneJob) Name() string { return "history_prune" }

// Schedule runs daily before the cache cleanup.
func (j *HistoryPruneJob) Schedule() string { return "0 5 0 * * *" }

// Run deletes snapshots past the retention window.
func (j *HistoryPruneJob) Run(ctx context.Context) error {
	deleted, err := j.repo.Prune(j.retention)
	if err != nil {
		return err
	}
	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("History pruned")
	}
	return nil
}
