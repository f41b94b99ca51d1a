// Package sentiment provides keyword-based sentiment analysis for news
// articles, producing 1-5 star ratings with confidence scores. It needs no
// external scoring API; the lexicon lives in the analyzer.
package sentiment

import "time"

// Article is one news item about a symbol. Title and Content are both fed
// to the analyzer.
type Article struct {
	Symbol      string    `json:"symbol"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_date"`
}

// TextSentiment is the analyzer's verdict for one piece of text.
type TextSentiment struct {
	// Rating is a 1-5 star score; 3.0 is neutral.
	Rating float64 `json:"rating"`
	// Confidence is 0-1, driven by how many lexicon words matched.
	Confidence float64 `json:"confidence"`
}

// Summary aggregates sentiment across a set of articles for one symbol.
type Summary struct {
	Symbol           string  `json:"symbol"`
	AverageSentiment float64 `json:"average_sentiment"`
	Label            string  `json:"label"`
	TotalArticles    int     `json:"total_articles"`
	PositiveArticles int     `json:"positive_articles"`
	NegativeArticles int     `json:"negative_articles"`
	NeutralArticles  int     `json:"neutral_articles"`
	Confidence       float64 `json:"confidence"`
}
