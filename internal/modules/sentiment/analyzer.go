package sentiment

import (
	"strings"
)

// positiveWords and negativeWords form the scoring lexicon. Matching is by
// substring, so "gains" and "upgraded" hit "gain" and "upgrade".
var positiveWords = []string{
	"growth", "profit", "increase", "gain", "bull", "bullish", "rise", "up",
	"higher", "strong", "beat", "exceed", "outperform", "success", "positive",
	"upgrade", "buy", "recommend", "optimistic", "rally", "surge", "boost",
	"excellent", "good", "great", "improve", "expansion", "revenue",
}

var negativeWords = []string{
	"loss", "decline", "bear", "bearish", "fall", "drop", "down", "lower",
	"weak", "miss", "underperform", "fail", "negative", "downgrade", "sell",
	"pessimistic", "crash", "plunge", "worry", "concern", "risk", "poor",
	"bad", "terrible", "cut", "reduce", "layoff", "bankruptcy",
}

// Analyzer scores text against the keyword lexicon. The zero value is ready
// to use and safe for concurrent callers.
type Analyzer struct{}

// AnalyzeText scores one piece of text. Empty text is neutral with zero
// confidence; text without any lexicon hits is neutral with the 0.1
// confidence floor. The rating moves 0.4 stars per point of net keyword
// imbalance, capped at 5 points, so the output stays within [1.0, 5.0].
func (Analyzer) AnalyzeText(text string) TextSentiment {
	if text == "" {
		return TextSentiment{Rating: 3.0, Confidence: 0.0}
	}

	words := strings.Fields(strings.ToLower(text))
	var positive, negative int
	for _, word := range words {
		if containsAny(word, positiveWords) {
			positive++
		}
		if containsAny(word, negativeWords) {
			negative++
		}
	}

	total := positive + negative
	if total == 0 {
		return TextSentiment{Rating: 3.0, Confidence: 0.1}
	}

	rating := 3.0
	switch {
	case positive > negative:
		intensity := positive - negative
		if intensity > 5 {
			intensity = 5
		}
		rating = 3.0 + float64(intensity)*0.4
	case negative > positive:
		intensity := negative - positive
		if intensity > 5 {
			intensity = 5
		}
		rating = 3.0 - float64(intensity)*0.4
	}

	confidence := float64(total) / 10.0
	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0.1 {
		confidence = 0.1
	}

	return TextSentiment{Rating: clampRating(rating), Confidence: confidence}
}

// AnalyzeArticles scores every article on its title plus content and
// aggregates the results. An empty slice yields a neutral zero-confidence
// summary.
func (a Analyzer) AnalyzeArticles(symbol string, articles []Article) Summary {
	if len(articles) == 0 {
		return Summary{
			Symbol:           symbol,
			AverageSentiment: 3.0,
			Label:            Label(3.0),
		}
	}

	var ratingSum, confidenceSum float64
	var positive, negative int
	for _, article := range articles {
		result := a.AnalyzeText(article.Title + " " + article.Content)
		ratingSum += result.Rating
		confidenceSum += result.Confidence
		switch {
		case result.Rating >= 3.5:
			positive++
		case result.Rating < 2.5:
			negative++
		}
	}

	n := len(articles)
	average := ratingSum / float64(n)
	return Summary{
		Symbol:           symbol,
		AverageSentiment: average,
		Label:            Label(average),
		TotalArticles:    n,
		PositiveArticles: positive,
		NegativeArticles: negative,
		NeutralArticles:  n - positive - negative,
		Confidence:       confidenceSum / float64(n),
	}
}

// Label converts a numeric rating to a display label.
func Label(rating float64) string {
	switch {
	case rating >= 4.0:
		return "Very Positive"
	case rating >= 3.5:
		return "Positive"
	case rating > 2.5:
		return "Neutral"
	case rating >= 2.0:
		return "Negative"
	default:
		return "Very Negative"
	}
}

func containsAny(word string, lexicon []string) bool {
	for _, entry := range lexicon {
		if strings.Contains(word, entry) {
			return true
		}
	}
	return false
}

func clampRating(rating float64) float64 {
	if rating < 1.0 {
		return 1.0
	}
	if rating > 5.0 {
		return 5.0
	}
	return rating
}
