package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeText_EmptyText(t *testing.T) {
	var a Analyzer
	result := a.AnalyzeText("")
	assert.Equal(t, 3.0, result.Rating)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestAnalyzeText_NoLexiconHits(t *testing.T) {
	var a Analyzer
	result := a.AnalyzeText("the quarterly report was published on schedule")
	assert.Equal(t, 3.0, result.Rating)
	assert.Equal(t, 0.1, result.Confidence)
}

func TestAnalyzeText_PositiveTilt(t *testing.T) {
	var a Analyzer
	// Two positive hits, zero negative: 3.0 + 2*0.4.
	result := a.AnalyzeText("strong revenue performance this quarter")
	assert.InDelta(t, 3.8, result.Rating, 1e-9)
	assert.InDelta(t, 0.2, result.Confidence, 1e-9)
}

func TestAnalyzeText_NegativeTilt(t *testing.T) {
	var a Analyzer
	// Two negative hits: 3.0 - 2*0.4.
	result := a.AnalyzeText("shares drop on weak guidance")
	assert.InDelta(t, 2.2, result.Rating, 1e-9)
	assert.InDelta(t, 0.2, result.Confidence, 1e-9)
}

func TestAnalyzeText_BalancedIsNeutral(t *testing.T) {
	var a Analyzer
	result := a.AnalyzeText("profit outlook offset by decline")
	assert.Equal(t, 3.0, result.Rating)
	assert.InDelta(t, 0.2, result.Confidence, 1e-9)
}

func TestAnalyzeText_IntensityCapped(t *testing.T) {
	var a Analyzer
	// Seven positive hits, but the rating caps at 3.0 + 5*0.4 = 5.0.
	result := a.AnalyzeText("strong growth profit gain surge rally boost")
	assert.Equal(t, 5.0, result.Rating)
	assert.InDelta(t, 0.7, result.Confidence, 1e-9)
}

func TestAnalyzeText_SubstringMatching(t *testing.T) {
	var a Analyzer
	// "gains" and "upgraded" match "gain" and "upgrade" by substring.
	result := a.AnalyzeText("gains after analysts upgraded")
	assert.InDelta(t, 3.8, result.Rating, 1e-9)
}

func TestAnalyzeText_ConfidenceCappedAtOne(t *testing.T) {
	var a Analyzer
	text := "strong strong strong strong strong strong weak weak weak weak weak weak"
	result := a.AnalyzeText(text)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, 3.0, result.Rating)
}

func TestLabel(t *testing.T) {
	tests := []struct {
		rating float64
		want   string
	}{
		{4.6, "Very Positive"},
		{4.0, "Very Positive"},
		{3.7, "Positive"},
		{3.5, "Positive"},
		{3.0, "Neutral"},
		{2.6, "Neutral"},
		{2.5, "Negative"},
		{2.0, "Negative"},
		{1.9, "Very Negative"},
		{1.0, "Very Negative"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Label(tt.rating), "rating %.1f", tt.rating)
	}
}

func TestAnalyzeArticles_Empty(t *testing.T) {
	var a Analyzer
	summary := a.AnalyzeArticles("AAPL", nil)
	assert.Equal(t, "AAPL", summary.Symbol)
	assert.Equal(t, 3.0, summary.AverageSentiment)
	assert.Equal(t, "Neutral", summary.Label)
	assert.Equal(t, 0, summary.TotalArticles)
	assert.Equal(t, 0.0, summary.Confidence)
}

func TestAnalyzeArticles_Aggregation(t *testing.T) {
	var a Analyzer
	articles := []Article{
		{Title: "Strong revenue growth", Content: "profit beat expectations"},       // 4+ hits, positive
		{Title: "Shares plunge on weak results", Content: "analysts cut estimates"}, // negative
		{Title: "Company publishes annual schedule", Content: "no surprises"},       // neutral
	}

	summary := a.AnalyzeArticles("MSFT", articles)
	assert.Equal(t, 3, summary.TotalArticles)
	assert.Equal(t, 1, summary.PositiveArticles)
	assert.Equal(t, 1, summary.NegativeArticles)
	assert.Equal(t, 1, summary.NeutralArticles)
	assert.Greater(t, summary.Confidence, 0.0)
	assert.Equal(t, Label(summary.AverageSentiment), summary.Label)
}
