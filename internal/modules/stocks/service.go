package stocks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wheelhouse-labs/wheelhouse/internal/clients/yahoo"
	"github.com/wheelhouse-labs/wheelhouse/pkg/formulas"
)

const (
	smaPeriod = 20
	rsiPeriod = 14
	// historyDays leaves headroom over the indicator windows so weekends
	// and holidays don't starve them.
	historyDays = 60
)

// MarketData supplies live quotes and daily close history.
type MarketData interface {
	CurrentQuote(ctx context.Context, symbol string) (yahoo.Quote, error)
	DailyCloses(ctx context.Context, symbol string, days int) ([]float64, error)
}

// Service builds market snapshots for watchlist symbols.
type Service struct {
	market MarketData
	now    func() time.Time
	log    zerolog.Logger
}

// NewService creates a new stocks service.
func NewService(market MarketData, log zerolog.Logger) *Service {
	return &Service{
		market: market,
		now:    time.Now,
		log:    log.With().Str("module", "stocks").Logger(),
	}
}

// Snapshot fetches the live quote for one symbol and augments it with
// indicator context from recent history. A history failure degrades to a
// quote-only snapshot rather than failing the call.
func (s *Service) Snapshot(ctx context.Context, symbol string) (Snapshot, error) {
	quote, err := s.market.CurrentQuote(ctx, symbol)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetching quote for %s: %w", symbol, err)
	}

	snapshot := Snapshot{
		Symbol:        symbol,
		Price:         quote.Price,
		PreviousClose: quote.PreviousClose,
		Change:        quote.Change,
		ChangePercent: quote.ChangePercent,
		Trend:         TrendSideways,
		AsOf:          s.now().UTC(),
	}

	closes, err := s.market.DailyCloses(ctx, symbol, historyDays)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("History unavailable, snapshot has no indicators")
		return snapshot, nil
	}

	snapshot.SMA20 = formulas.CalculateSMA(closes, smaPeriod)
	snapshot.RSI14 = formulas.CalculateRSI(closes, rsiPeriod)
	snapshot.Trend = classifyTrend(quote.Price, snapshot.SMA20)
	return snapshot, nil
}

// Snapshots builds snapshots for a whole watchlist, skipping symbols whose
// quote fetch fails.
func (s *Service) Snapshots(ctx context.Context, symbols []string) []Snapshot {
	snapshots := make([]Snapshot, 0, len(symbols))
	for _, symbol := range symbols {
		snapshot, err := s.Snapshot(ctx, symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Skipping symbol in snapshot batch")
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots
}

// classifyTrend compares price to the moving average with a half-percent
// dead band so a flat tape reads as sideways.
func classifyTrend(price float64, sma *float64) string {
	if sma == nil || *sma <= 0 {
		return TrendSideways
	}
	deviation := (price - *sma) / *sma
	switch {
	case deviation > 0.005:
		return TrendUp
	case deviation < -0.005:
		return TrendDown
	default:
		return TrendSideways
	}
}
