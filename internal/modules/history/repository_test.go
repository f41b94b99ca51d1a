package history

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/wheelhouse-labs/wheelhouse/internal/modules/portfolio"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/pricing"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/scanner"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/sentiment"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/stocks"
)

func setupRepo(t *testing.T) *Repository {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, InitSchema(db))
	return NewRepository(db, zerolog.Nop())
}

func sampleOpportunity(symbol string, strike float64) scanner.Opportunity {
	return scanner.Opportunity{
		Symbol:             symbol,
		Expiration:         "2025-01-17",
		DaysToExpiry:       7,
		Side:               pricing.Put,
		Strike:             strike,
		Premium:            1.25,
		PremiumPercentage:  1.25 / strike * 100,
		AnnualizedReturn:   65.0,
		Delta:              -0.19,
		CollateralRequired: strike * 100,
	}
}

func TestSaveAndFetchOpportunities(t *testing.T) {
	repo := setupRepo(t)

	batch := []scanner.Opportunity{
		sampleOpportunity("AAPL", 96),
		sampleOpportunity("AAPL", 95),
		sampleOpportunity("MSFT", 400),
	}
	require.NoError(t, repo.SaveOpportunities(batch))

	records, err := repo.RecentOpportunities("AAPL", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.NotEmpty(t, records[0].UUID)
	assert.Equal(t, "AAPL", records[0].Opportunity.Symbol)
	assert.Equal(t, pricing.Put, records[0].Opportunity.Side)
	assert.Equal(t, "2025-01-17", records[0].Opportunity.Expiration)
	assert.False(t, records[0].CreatedAt.IsZero())
}

func TestSaveOpportunities_EmptyBatch(t *testing.T) {
	repo := setupRepo(t)
	require.NoError(t, repo.SaveOpportunities(nil))
}

func TestRecentOpportunities_Limit(t *testing.T) {
	repo := setupRepo(t)

	var batch []scanner.Opportunity
	for i := 0; i < 5; i++ {
		batch = append(batch, sampleOpportunity("AAPL", 90+float64(i)))
	}
	require.NoError(t, repo.SaveOpportunities(batch))

	records, err := repo.RecentOpportunities("AAPL", 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestSaveAndFetchAllocation(t *testing.T) {
	repo := setupRepo(t)

	allocation := portfolio.PortfolioAllocation{
		ExpiryDate:   "2025-01-17",
		DaysToExpiry: 7,
		Legs: []portfolio.AllocationLeg{
			{
				Symbol:           "AAPL",
				Opportunity:      sampleOpportunity("AAPL", 96),
				Contracts:        2,
				AllocatedCapital: 19200,
				Premium:          250,
			},
		},
		TotalAllocatedCapital:  19200,
		TotalPremium:           250,
		TotalPremiumPercentage: 1.302,
		CapitalEfficiency:      96.0,
		UnusedCapital:          800,
		Score:                  29.71,
	}

	id, err := repo.SaveAllocation(allocation)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	records, err := repo.RecentAllocations(5)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0].Allocation
	assert.Equal(t, "2025-01-17", got.ExpiryDate)
	require.Len(t, got.Legs, 1)
	assert.Equal(t, "AAPL", got.Legs[0].Symbol)
	assert.Equal(t, 2, got.Legs[0].Contracts)
	assert.InDelta(t, allocation.Score, got.Score, 1e-9)
}

func TestSaveAndFetchSentiment(t *testing.T) {
	repo := setupRepo(t)

	summary := sentiment.Summary{
		Symbol:           "TSLA",
		AverageSentiment: 3.8,
		Label:            "Positive",
		TotalArticles:    5,
		PositiveArticles: 3,
		Confidence:       0.6,
	}

	id, err := repo.SaveSentiment(summary)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	records, err := repo.RecentSentiment("TSLA", 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 3.8, records[0].Summary.AverageSentiment, 1e-9)
	assert.Equal(t, "Positive", records[0].Summary.Label)
}

func TestSaveAndFetchStockSnapshots(t *testing.T) {
	repo := setupRepo(t)

	sma := 182.4
	rsi := 61.2
	batch := []stocks.Snapshot{
		{
			Symbol:        "AAPL",
			Price:         185.0,
			PreviousClose: 183.5,
			Change:        1.5,
			ChangePercent: 0.8174,
			SMA20:         &sma,
			RSI14:         &rsi,
			Trend:         stocks.TrendUp,
		},
		{
			Symbol:        "MSFT",
			Price:         400.0,
			PreviousClose: 401.0,
			Change:        -1.0,
			ChangePercent: -0.2494,
			Trend:         stocks.TrendSideways,
		},
	}
	require.NoError(t, repo.SaveStockSnapshots(batch))

	records, err := repo.RecentStockSnapshots("AAPL", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	snap := records[0].Snapshot
	assert.Equal(t, "AAPL", snap.Symbol)
	assert.Equal(t, 185.0, snap.Price)
	require.NotNil(t, snap.SMA20)
	assert.Equal(t, 182.4, *snap.SMA20)
	require.NotNil(t, snap.RSI14)
	assert.Equal(t, 61.2, *snap.RSI14)
	assert.Equal(t, stocks.TrendUp, snap.Trend)
	assert.False(t, records[0].CreatedAt.IsZero())

	// Nil indicators round-trip as NULL.
	records, err = repo.RecentStockSnapshots("MSFT", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Snapshot.SMA20)
	assert.Nil(t, records[0].Snapshot.RSI14)
}

func TestSaveStockSnapshots_EmptyBatch(t *testing.T) {
	repo := setupRepo(t)
	require.NoError(t, repo.SaveStockSnapshots(nil))
}

func TestPrune(t *testing.T) {
	repo := setupRepo(t)

	old := time.Now().Add(-48 * time.Hour)
	repo.now = func() time.Time { return old }
	require.NoError(t, repo.SaveOpportunities([]scanner.Opportunity{sampleOpportunity("AAPL", 96)}))
	_, err := repo.SaveSentiment(sentiment.Summary{Symbol: "AAPL", Label: "Neutral"})
	require.NoError(t, err)

	repo.now = time.Now
	require.NoError(t, repo.SaveOpportunities([]scanner.Opportunity{sampleOpportunity("MSFT", 400)}))

	deleted, err := repo.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := repo.RecentOpportunities("MSFT", 10)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	gone, err := repo.RecentOpportunities("AAPL", 10)
	require.NoError(t, err)
	assert.Empty(t, gone)
}
