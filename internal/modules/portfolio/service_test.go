package portfolio

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelhouse-labs/wheelhouse/internal/modules/pricing"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/scanner"
)

// fakeProvider serves one in-band put per symbol for pipeline tests.
type fakeProvider struct {
	expirations map[string]map[string]int
	chains      map[string][]scanner.OptionQuote
	closes      []float64
}

func (f *fakeProvider) Expirations(_ context.Context, symbol string) (map[string]int, error) {
	return f.expirations[symbol], nil
}

func (f *fakeProvider) OptionChain(_ context.Context, symbol, expiration string, _ pricing.OptionSide) ([]scanner.OptionQuote, error) {
	return f.chains[symbol+"|"+expiration], nil
}

func (f *fakeProvider) DailyCloses(_ context.Context, _ string, _ int) ([]float64, error) {
	return f.closes, nil
}

type fakeRecorder struct {
	saved []PortfolioAllocation
	err   error
}

func (f *fakeRecorder) SaveAllocation(allocation PortfolioAllocation) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, allocation)
	return "id", nil
}

func steadyCloses() []float64 {
	closes := make([]float64, 30)
	price := 100.0
	for i := range closes {
		closes[i] = price
		price *= 1.001
	}
	return closes
}

func newTestPipeline(recorder AllocationRecorder) *Service {
	provider := &fakeProvider{
		expirations: map[string]map[string]int{
			"AAPL": {"2025-01-10": 10},
			"MSFT": {"2025-01-10": 10},
		},
		chains: map[string][]scanner.OptionQuote{
			"AAPL|2025-01-10": {
				{Symbol: "AAPL", Expiration: "2025-01-10", Strike: 98.75, Bid: 0.20, Ask: 0.30, SpotPrice: 100, DaysToExpiry: 10},
			},
			"MSFT|2025-01-10": {
				{Symbol: "MSFT", Expiration: "2025-01-10", Strike: 197.50, Bid: 0.40, Ask: 0.60, SpotPrice: 200, DaysToExpiry: 10},
			},
		},
		closes: steadyCloses(),
	}
	scannerSvc := scanner.NewService(provider, scanner.Config{
		RiskFreeRate:     0.05,
		Band:             scanner.DefaultDeltaBand,
		ExpiryWindowDays: 10,
		Concurrency:      2,
	}, zerolog.Nop())

	allocator := Allocator{TotalCapital: 100000, MinFraction: 0.15, MaxFraction: 0.60}
	optimizer := NewOptimizer(allocator, 5, 5, zerolog.Nop())
	svc := NewService(scannerSvc, optimizer, zerolog.Nop())
	if recorder != nil {
		svc.SetRecorder(recorder)
	}
	return svc
}

func TestOptimizePortfolio_EndToEnd(t *testing.T) {
	svc := newTestPipeline(nil)

	allocations := svc.OptimizePortfolio(context.Background(), []string{"AAPL", "MSFT"})

	require.Len(t, allocations, 1)
	assert.Equal(t, "2025-01-10", allocations[0].ExpiryDate)
	require.Len(t, allocations[0].Legs, 2)
	assert.Greater(t, allocations[0].TotalAllocatedCapital, 0.0)
}

func TestOptimizePortfolio_RecordsBestAllocation(t *testing.T) {
	recorder := &fakeRecorder{}
	svc := newTestPipeline(recorder)

	allocations := svc.OptimizePortfolio(context.Background(), []string{"AAPL", "MSFT"})

	require.NotEmpty(t, allocations)
	require.Len(t, recorder.saved, 1)
	assert.Equal(t, allocations[0].ExpiryDate, recorder.saved[0].ExpiryDate)
}

func TestOptimizePortfolio_RecorderFailureDoesNotFailRequest(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("disk full")}
	svc := newTestPipeline(recorder)

	allocations := svc.OptimizePortfolio(context.Background(), []string{"AAPL", "MSFT"})
	assert.NotEmpty(t, allocations)
}

func TestOptimizePortfolio_SymbolWithNoOpportunities(t *testing.T) {
	recorder := &fakeRecorder{}
	svc := newTestPipeline(recorder)

	allocations := svc.OptimizePortfolio(context.Background(), []string{"AAPL", "ZZZZ"})
	assert.Empty(t, allocations)
	assert.Empty(t, recorder.saved)
}
