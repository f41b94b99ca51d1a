package yahoonews

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"github.com/wheelhouse-labs/wheelhouse/internal/modules/sentiment"
)

// companyNames maps common symbols to display names for generated
// headlines. Unknown symbols fall back to "<SYMBOL> Corporation".
var companyNames = map[string]string{
	"AAPL":  "Apple Inc.",
	"GOOGL": "Alphabet Inc.",
	"MSFT":  "Microsoft Corporation",
	"AMZN":  "Amazon.com Inc.",
	"TSLA":  "Tesla Inc.",
	"META":  "Meta Platforms Inc.",
	"NVDA":  "NVIDIA Corporation",
	"NFLX":  "Netflix Inc.",
	"AMD":   "Advanced Micro Devices",
	"INTC":  "Intel Corporation",
	"JPM":   "JPMorgan Chase",
	"V":     "Visa Inc.",
	"WMT":   "Walmart Inc.",
	"DIS":   "Walt Disney Company",
	"KO":    "Coca-Cola Company",
	"XOM":   "Exxon Mobil Corporation",
}

var headlineTemplates = []string{
	"%[1]s Reports %[2]s Quarterly Earnings",
	"%[1]s Announces New %[3]s Initiative",
	"Analysts %[4]s on %[1]s Stock Performance",
	"%[1]s Expands Operations in %[5]s Market",
	"CEO Discusses %[1]s's Strategic Vision",
	"%[1]s Stock Shows %[6]s Amid Market Volatility",
	"Industry Leaders Praise %[1]s's Innovation",
	"%[1]s Beats Market Expectations in Latest Report",
}

var contentTemplates = []string{
	"%[1]s (%[2]s) demonstrated %[3]s performance this quarter with revenue %[4]s compared to the previous period. The company's strategic initiatives continue to drive growth across key business segments.",
	"Market analysts are %[5]s about %[1]s's future prospects following recent strategic announcements. The company's focus on innovation and market expansion appears to be yielding positive results.",
	"%[1]s continues to strengthen its market position through strategic investments and operational excellence. Recent financial metrics indicate sustained momentum in core business areas.",
	"Investors are closely monitoring %[1]s as the company navigates current market conditions. Leadership remains confident in the company's long-term strategic direction and growth potential.",
}

var sources = []string{"Financial Times", "MarketWatch", "Reuters", "Bloomberg"}

type biasWords struct {
	outcomes     []string
	innovations  []string
	sentiments   []string
	performances []string
	changes      []string
}

var biases = []biasWords{
	{ // positive
		outcomes:     []string{"Strong", "Impressive", "Record"},
		innovations:  []string{"Technology", "Product", "Digital"},
		sentiments:   []string{"Optimistic", "Bullish", "Positive"},
		performances: []string{"Strong", "Resilient", "Robust"},
		changes:      []string{"increased by 8%", "grew significantly", "exceeded forecasts"},
	},
	{ // neutral
		outcomes:     []string{"Steady", "Mixed", "In-Line"},
		innovations:  []string{"Sustainability", "Efficiency", "Growth"},
		sentiments:   []string{"Cautious", "Watchful", "Neutral"},
		performances: []string{"steady", "consistent", "stable"},
		changes:      []string{"remained stable", "met expectations", "showed modest growth"},
	},
	{ // mixed
		outcomes:     []string{"Challenging", "Mixed", "Variable"},
		innovations:  []string{"Restructuring", "Optimization", "Strategic"},
		sentiments:   []string{"Mixed", "Cautious", "Varied"},
		performances: []string{"mixed", "variable", "evolving"},
		changes:      []string{"faced headwinds", "showed mixed results", "experienced volatility"},
	},
}

var markets = []string{"International", "Domestic", "Emerging", "Digital"}

// Simulator generates plausible news articles when no live source is
// reachable. Output is deterministic per symbol and day, so repeated calls
// within one session agree with each other.
type Simulator struct {
	now func() time.Time
}

// NewSimulator creates a new news simulator.
func NewSimulator() *Simulator {
	return &Simulator{now: time.Now}
}

// Generate produces `limit` articles for a symbol.
func (s *Simulator) Generate(symbol string, limit int) []sentiment.Article {
	now := s.now()
	rng := rand.New(rand.NewSource(seed(symbol, now)))

	company := companyNames[symbol]
	if company == "" {
		company = symbol + " Corporation"
	}

	articles := make([]sentiment.Article, 0, limit)
	for i := 0; i < limit; i++ {
		bias := biases[rng.Intn(len(biases))]
		headline := headlineTemplates[rng.Intn(len(headlineTemplates))]
		content := contentTemplates[rng.Intn(len(contentTemplates))]

		outcome := pick(rng, bias.outcomes)
		innovation := pick(rng, bias.innovations)
		sentimentWord := pick(rng, bias.sentiments)
		performance := pick(rng, bias.performances)
		change := pick(rng, bias.changes)
		market := pick(rng, markets)

		articles = append(articles, sentiment.Article{
			Symbol:      symbol,
			Title:       fmt.Sprintf(headline, company, outcome, innovation, sentimentWord, market, performance),
			Content:     fmt.Sprintf(content, company, symbol, performance, change, strings.ToLower(sentimentWord)),
			URL:         fmt.Sprintf("https://finance.example.com/%s-news-%d", strings.ToLower(symbol), i+1),
			Source:      pick(rng, sources),
			PublishedAt: now.Add(-time.Duration(1+rng.Intn(24)) * time.Hour),
		})
	}
	return articles
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}

// seed derives a per-symbol, per-day seed so generated news is stable
// throughout a trading day.
func seed(symbol string, now time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	h.Write([]byte(now.UTC().Format("2006-01-02")))
	return int64(h.Sum64())
}
