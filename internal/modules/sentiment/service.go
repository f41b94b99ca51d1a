package sentiment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// DefaultArticleLimit bounds how many articles are fetched per symbol.
const DefaultArticleLimit = 5

// NewsProvider supplies recent articles for a symbol. Implementations may
// scrape live sources or synthesize articles when no source is reachable.
type NewsProvider interface {
	Articles(ctx context.Context, symbol string, limit int) ([]Article, error)
}

// Service fetches news and produces sentiment summaries.
type Service struct {
	news     NewsProvider
	analyzer Analyzer
	limit    int
	log      zerolog.Logger
}

// NewService creates a new sentiment service.
func NewService(news NewsProvider, log zerolog.Logger) *Service {
	return &Service{
		news:  news,
		limit: DefaultArticleLimit,
		log:   log.With().Str("module", "sentiment").Logger(),
	}
}

// Analyze fetches recent articles for a symbol and returns the aggregate
// summary alongside the scored articles.
func (s *Service) Analyze(ctx context.Context, symbol string) (Summary, []Article, error) {
	articles, err := s.news.Articles(ctx, symbol, s.limit)
	if err != nil {
		return Summary{}, nil, fmt.Errorf("fetching news for %s: %w", symbol, err)
	}

	summary := s.analyzer.AnalyzeArticles(symbol, articles)
	s.log.Debug().
		Str("symbol", symbol).
		Int("articles", summary.TotalArticles).
		Float64("average", summary.AverageSentiment).
		Msg("Sentiment analysis complete")
	return summary, articles, nil
}

// AnalyzeAll produces summaries for a whole watchlist. Symbols whose news
// fetch fails are skipped with a warning rather than failing the batch.
func (s *Service) AnalyzeAll(ctx context.Context, symbols []string) []Summary {
	summaries := make([]Summary, 0, len(symbols))
	for _, symbol := range symbols {
		summary, _, err := s.Analyze(ctx, symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Skipping symbol in sentiment batch")
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
