package scanner

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wheelhouse-labs/wheelhouse/internal/modules/pricing"
)

// historyDays is the lookback used for the volatility estimate when the
// market supplies no implied volatility.
const historyDays = 30

// QuoteProvider supplies market data for scanning. Implementations live in
// internal/clients; the scanner only depends on this interface.
type QuoteProvider interface {
	// Expirations returns the available option expiration dates (YYYY-MM-DD)
	// together with the number of calendar days until each.
	Expirations(ctx context.Context, symbol string) (map[string]int, error)
	// OptionChain returns quotes for one symbol, expiry and side. Each quote
	// carries the underlying spot price and days to expiry.
	OptionChain(ctx context.Context, symbol, expiration string, side pricing.OptionSide) ([]OptionQuote, error)
	// DailyCloses returns up to days recent daily closing prices, oldest
	// first.
	DailyCloses(ctx context.Context, symbol string, days int) ([]float64, error)
}

// Config holds scan parameters shared across symbols.
type Config struct {
	RiskFreeRate     float64
	Band             DeltaBand
	ExpiryWindowDays int
	Concurrency      int // bounded pool size for per-symbol fetches
}

// Service scans multiple symbols concurrently through a QuoteProvider.
type Service struct {
	provider QuoteProvider
	cfg      Config
	log      zerolog.Logger
}

// NewService creates a new scanner service.
func NewService(provider QuoteProvider, cfg Config, log zerolog.Logger) *Service {
	if cfg.Band == (DeltaBand{}) {
		cfg.Band = DefaultDeltaBand
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Service{
		provider: provider,
		cfg:      cfg,
		log:      log.With().Str("module", "scanner").Logger(),
	}
}

// ScanSymbol identifies opportunities for a single symbol and side.
//
// A provider failure (missing chain, network error) is treated as "no quote
// chain": the symbol produces an empty result and the error is logged, never
// propagated. This keeps a single bad symbol from failing a whole scan.
func (s *Service) ScanSymbol(ctx context.Context, symbol string, side pricing.OptionSide) []Opportunity {
	expirations, err := s.provider.Expirations(ctx, symbol)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to fetch expirations, skipping symbol")
		return nil
	}

	// Keep only expirations inside the scan window
	valid := make(map[string]int, len(expirations))
	for expiration, days := range expirations {
		if days > 0 && days <= s.cfg.ExpiryWindowDays {
			valid[expiration] = days
		}
	}
	if len(valid) == 0 {
		s.log.Debug().Str("symbol", symbol).Msg("No expirations inside scan window")
		return nil
	}

	closes, err := s.provider.DailyCloses(ctx, symbol, historyDays)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to fetch price history, using default volatility")
		closes = nil
	}
	volatility := pricing.EstimateVolatility(closes)

	var quotes []OptionQuote
	spot := 0.0
	for expiration := range valid {
		chain, err := s.provider.OptionChain(ctx, symbol, expiration, side)
		if err != nil {
			s.log.Warn().Err(err).
				Str("symbol", symbol).
				Str("expiration", expiration).
				Msg("Failed to fetch option chain, skipping expiration")
			continue
		}
		for _, quote := range chain {
			if quote.SpotPrice > 0 {
				spot = quote.SpotPrice
			}
			quotes = append(quotes, quote)
		}
	}
	if len(quotes) == 0 || spot <= 0 {
		return nil
	}

	opportunities := Scan(ScanParams{
		Symbol:           symbol,
		Quotes:           quotes,
		SpotPrice:        spot,
		Volatility:       volatility,
		RiskFreeRate:     s.cfg.RiskFreeRate,
		ExpiryWindowDays: s.cfg.ExpiryWindowDays,
		Band:             s.cfg.Band,
		Side:             side,
	})

	s.log.Debug().
		Str("symbol", symbol).
		Int("quotes", len(quotes)).
		Int("opportunities", len(opportunities)).
		Float64("volatility", volatility).
		Msg("Symbol scan complete")

	return opportunities
}

// ScanSymbols scans every symbol through a bounded worker pool and returns
// the per-symbol ranked opportunity lists. Symbols without opportunities are
// omitted from the result. Each symbol's scan is independent, so pool
// scheduling cannot affect the per-symbol rankings.
func (s *Service) ScanSymbols(ctx context.Context, symbols []string, side pricing.OptionSide) map[string][]Opportunity {
	results := make([][]Opportunity, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			results[i] = s.ScanSymbol(gctx, symbol, side)
			return nil
		})
	}
	// Workers never return errors; provider failures degrade to empty results
	_ = g.Wait()

	perSymbol := make(map[string][]Opportunity, len(symbols))
	for i, symbol := range symbols {
		if len(results[i]) > 0 {
			perSymbol[symbol] = results[i]
		}
	}
	return perSymbol
}
