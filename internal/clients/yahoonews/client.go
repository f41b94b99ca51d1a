// Package yahoonews fetches stock news headlines from Yahoo Finance,
// falling back to a deterministic simulator when the site is unreachable.
package yahoonews

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/wheelhouse-labs/wheelhouse/internal/clientdata"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/sentiment"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Client scrapes the Yahoo Finance news page for a symbol. It satisfies
// the sentiment module's news provider contract.
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
	simulator *Simulator
}

// NewClient creates a new news client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://finance.yahoo.com",
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "yahoo-news").Logger(),
		cacheRepo: cacheRepo,
		simulator: NewSimulator(),
	}
}

// Articles returns up to `limit` recent articles for a symbol. Scrape
// failures fall back to simulated articles, so the call only errors on
// cache corruption.
func (c *Client) Articles(ctx context.Context, symbol string, limit int) ([]sentiment.Article, error) {
	var cached []sentiment.Article
	if c.cacheRepo != nil {
		if found, err := c.cacheRepo.GetIfFresh("news_articles", symbol, &cached); err == nil && found {
			c.log.Debug().Str("symbol", symbol).Msg("News cache hit")
			return clip(cached, limit), nil
		}
	}

	articles, err := c.scrape(ctx, symbol, limit)
	if err != nil || len(articles) == 0 {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Scrape failed, generating simulated news")
		articles = c.simulator.Generate(symbol, limit)
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("news_articles", symbol, articles, clientdata.TTLNews); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache news")
		}
	}
	return articles, nil
}

// scrape pulls headline links from the symbol's news page.
func (c *Client) scrape(ctx context.Context, symbol string, limit int) ([]sentiment.Article, error) {
	url := fmt.Sprintf("%s/quote/%s/news", c.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing news page: %w", err)
	}

	now := time.Now()
	var articles []sentiment.Article
	doc.Find("h3 a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := strings.TrimSpace(sel.Text())
		if title == "" {
			return true
		}
		href, _ := sel.Attr("href")
		if strings.HasPrefix(href, "/") {
			href = c.baseURL + href
		}

		articles = append(articles, sentiment.Article{
			Symbol:      symbol,
			Title:       title,
			URL:         href,
			Source:      "Yahoo Finance",
			PublishedAt: now,
		})
		return len(articles) < limit
	})

	return articles, nil
}

func clip(articles []sentiment.Article, limit int) []sentiment.Article {
	if len(articles) > limit {
		return articles[:limit]
	}
	return articles
}
