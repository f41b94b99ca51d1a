package portfolio

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/wheelhouse-labs/wheelhouse/internal/modules/pricing"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/scanner"
)

// AllocationRecorder persists computed allocations. Implemented by the
// history repository.
type AllocationRecorder interface {
	SaveAllocation(allocation PortfolioAllocation) (string, error)
}

// Service orchestrates scanning and combination search into ranked portfolio
// allocations.
type Service struct {
	scanner   *scanner.Service
	optimizer *Optimizer
	recorder  AllocationRecorder
	log       zerolog.Logger
}

// NewService creates a new portfolio service.
func NewService(scannerSvc *scanner.Service, optimizer *Optimizer, log zerolog.Logger) *Service {
	return &Service{
		scanner:   scannerSvc,
		optimizer: optimizer,
		log:       log.With().Str("module", "portfolio").Logger(),
	}
}

// SetRecorder enables allocation snapshots. The best allocation of each
// optimization run is persisted through the recorder.
func (s *Service) SetRecorder(recorder AllocationRecorder) {
	s.recorder = recorder
}

// OptimizePortfolio scans cash-secured put opportunities for the requested
// symbols and returns one best allocation per common expiry, ranked by total
// premium percentage. An empty result is the normal "no solution" outcome:
// no symbol data, no common expiry, or no feasible combination.
func (s *Service) OptimizePortfolio(ctx context.Context, symbols []string) []PortfolioAllocation {
	perSymbol := s.scanner.ScanSymbols(ctx, symbols, pricing.Put)

	// The strict intersection requires every requested symbol to have
	// qualifying opportunities; bail out early when one came back empty.
	for _, symbol := range symbols {
		if len(perSymbol[symbol]) == 0 {
			s.log.Info().Str("symbol", symbol).Msg("No qualifying opportunities, portfolio has no solution")
			return nil
		}
	}

	allocations := s.optimizer.Optimize(symbols, scanner.GroupByExpiry(perSymbol))

	if s.recorder != nil && len(allocations) > 0 {
		if _, err := s.recorder.SaveAllocation(allocations[0]); err != nil {
			s.log.Warn().Err(err).Msg("Failed to record allocation snapshot")
		}
	}

	s.log.Info().
		Int("symbols", len(symbols)).
		Int("allocations", len(allocations)).
		Msg("Portfolio optimization complete")
	return allocations
}
