package clientdata

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, InitSchema(db))
	return db
}

type cachedQuote struct {
	Symbol string  `msgpack:"symbol"`
	Price  float64 `msgpack:"price"`
}

func TestStoreAndGetIfFresh(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	stored := cachedQuote{Symbol: "AAPL", Price: 123.45}
	require.NoError(t, repo.Store("yahoo_quotes", "AAPL", stored, TTLQuote))

	var got cachedQuote
	found, err := repo.GetIfFresh("yahoo_quotes", "AAPL", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, stored, got)
}

func TestGetIfFresh_MissingKey(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	var got cachedQuote
	found, err := repo.GetIfFresh("yahoo_quotes", "MSFT", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetIfFresh_ExpiredEntry(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.Store("yahoo_quotes", "AAPL", cachedQuote{Symbol: "AAPL"}, -time.Minute))

	var got cachedQuote
	found, err := repo.GetIfFresh("yahoo_quotes", "AAPL", &got)
	require.NoError(t, err)
	assert.False(t, found)

	// Get still serves the stale entry for API-failure fallbacks.
	found, err = repo.Get("yahoo_quotes", "AAPL", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "AAPL", got.Symbol)
}

func TestStore_Upsert(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.Store("yahoo_quotes", "AAPL", cachedQuote{Symbol: "AAPL", Price: 100}, TTLQuote))
	require.NoError(t, repo.Store("yahoo_quotes", "AAPL", cachedQuote{Symbol: "AAPL", Price: 105}, TTLQuote))

	var got cachedQuote
	found, err := repo.GetIfFresh("yahoo_quotes", "AAPL", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 105.0, got.Price)
}

func TestCompositeKeyTables(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	closes := []float64{100.1, 100.4, 99.8}
	require.NoError(t, repo.Store("yahoo_history", "AAPL:30", closes, TTLHistory))

	var got []float64
	found, err := repo.GetIfFresh("yahoo_history", "AAPL:30", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, closes, got)
}

func TestInvalidTable(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	err := repo.Store("not_a_table", "key", "data", time.Hour)
	assert.Error(t, err)

	var got string
	_, err = repo.GetIfFresh("not_a_table", "key", &got)
	assert.Error(t, err)

	assert.Error(t, repo.Delete("not_a_table", "key"))
}

func TestDelete(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.Store("news_articles", "AAPL", "headline", TTLNews))
	require.NoError(t, repo.Delete("news_articles", "AAPL"))

	var got string
	found, err := repo.Get("news_articles", "AAPL", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteExpired(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.Store("yahoo_quotes", "FRESH", cachedQuote{}, time.Hour))
	require.NoError(t, repo.Store("yahoo_quotes", "STALE", cachedQuote{}, -time.Hour))

	deleted, err := repo.DeleteExpired("yahoo_quotes")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var got cachedQuote
	found, err := repo.GetIfFresh("yahoo_quotes", "FRESH", &got)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestDeleteAllExpired(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.Store("yahoo_quotes", "STALE", cachedQuote{}, -time.Hour))
	require.NoError(t, repo.Store("news_articles", "STALE", "old", -time.Hour))

	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), results["yahoo_quotes"])
	assert.Equal(t, int64(1), results["news_articles"])
	assert.Equal(t, int64(0), results["yahoo_chains"])
}

func TestCleanupJob(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	require.NoError(t, repo.Store("yahoo_quotes", "STALE", cachedQuote{}, -time.Hour))

	job := NewCleanupJob(repo, zerolog.Nop())
	assert.Equal(t, "cache_cleanup", job.Name())
	require.NoError(t, job.Run(context.Background()))

	var got cachedQuote
	found, err := repo.Get("yahoo_quotes", "STALE", &got)
	require.NoError(t, err)
	assert.False(t, found)
}
