// Package yahoo provides market data fetching from the Yahoo Finance API
// with persistent cache-first behavior.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/wheelhouse-labs/wheelhouse/internal/clientdata"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/pricing"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/scanner"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Client for the Yahoo Finance API. It satisfies the scanner's quote
// provider contract.
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
	now       func() time.Time
}

// NewClient creates a new Yahoo Finance client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://query1.finance.yahoo.com",
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "yahoo").Logger(),
		cacheRepo: cacheRepo,
		now:       time.Now,
	}
}

// CurrentQuote fetches the latest market snapshot for a symbol.
// If the API fails, returns stale cached data if available.
func (c *Client) CurrentQuote(ctx context.Context, symbol string) (Quote, error) {
	var cached Quote
	if c.cacheRepo != nil {
		if found, err := c.cacheRepo.GetIfFresh("yahoo_quotes", symbol, &cached); err == nil && found {
			c.log.Debug().Str("symbol", symbol).Msg("Quote cache hit")
			return cached, nil
		}
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", c.baseURL, symbol)
	var payload chartResponse
	if err := c.getJSON(ctx, url, &payload); err != nil {
		if found := c.staleQuote(symbol, &cached); found {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("API failed, using stale cached quote")
			return cached, nil
		}
		return Quote{}, err
	}

	if payload.Chart.Error != nil {
		return Quote{}, fmt.Errorf("yahoo chart error for %s: %s", symbol, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return Quote{}, fmt.Errorf("no chart data for %s", symbol)
	}

	meta := payload.Chart.Result[0].Meta
	quote := Quote{
		Symbol:        symbol,
		Price:         meta.RegularMarketPrice,
		PreviousClose: meta.PreviousClose,
	}
	if quote.PreviousClose > 0 {
		quote.Change = quote.Price - quote.PreviousClose
		quote.ChangePercent = quote.Change / quote.PreviousClose * 100
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("yahoo_quotes", symbol, quote, clientdata.TTLQuote); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
		}
	}
	return quote, nil
}

// Expirations returns available option expiration dates mapped to days
// until expiry. Dates in the past are excluded.
func (c *Client) Expirations(ctx context.Context, symbol string) (map[string]int, error) {
	var epochs []int64
	fresh := false
	if c.cacheRepo != nil {
		if found, err := c.cacheRepo.GetIfFresh("yahoo_expirations", symbol, &epochs); err == nil && found {
			fresh = true
		}
	}

	if !fresh {
		url := fmt.Sprintf("%s/v7/finance/options/%s", c.baseURL, symbol)
		var payload optionsResponse
		if err := c.getJSON(ctx, url, &payload); err != nil {
			if c.cacheRepo != nil {
				if found, cerr := c.cacheRepo.Get("yahoo_expirations", symbol, &epochs); cerr == nil && found {
					c.log.Warn().Err(err).Str("symbol", symbol).Msg("API failed, using stale cached expirations")
					return c.expiriesFromEpochs(epochs), nil
				}
			}
			return nil, err
		}
		if payload.OptionChain.Error != nil {
			return nil, fmt.Errorf("yahoo options error for %s: %s", symbol, payload.OptionChain.Error.Description)
		}
		if len(payload.OptionChain.Result) == 0 {
			return nil, fmt.Errorf("no options data for %s", symbol)
		}
		epochs = payload.OptionChain.Result[0].ExpirationDates

		if c.cacheRepo != nil {
			if err := c.cacheRepo.Store("yahoo_expirations", symbol, epochs, clientdata.TTLExpirations); err != nil {
				c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache expirations")
			}
		}
	}

	return c.expiriesFromEpochs(epochs), nil
}

// OptionChain fetches the option chain for one symbol, expiration date, and
// side, converted to scanner quotes.
func (c *Client) OptionChain(ctx context.Context, symbol, expiration string, side pricing.OptionSide) ([]scanner.OptionQuote, error) {
	cacheKey := symbol + ":" + expiration + ":" + string(side)
	var cached []scanner.OptionQuote
	if c.cacheRepo != nil {
		if found, err := c.cacheRepo.GetIfFresh("yahoo_chains", cacheKey, &cached); err == nil && found {
			c.log.Debug().Str("symbol", symbol).Str("expiration", expiration).Msg("Chain cache hit")
			return cached, nil
		}
	}

	expiryDate, err := time.ParseInLocation("2006-01-02", expiration, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid expiration date %q: %w", expiration, err)
	}

	url := fmt.Sprintf("%s/v7/finance/options/%s?date=%d", c.baseURL, symbol, expiryDate.Unix())
	var payload optionsResponse
	if err := c.getJSON(ctx, url, &payload); err != nil {
		if c.cacheRepo != nil {
			if found, cerr := c.cacheRepo.Get("yahoo_chains", cacheKey, &cached); cerr == nil && found {
				c.log.Warn().Err(err).Str("symbol", symbol).Msg("API failed, using stale cached chain")
				return cached, nil
			}
		}
		return nil, err
	}
	if payload.OptionChain.Error != nil {
		return nil, fmt.Errorf("yahoo options error for %s: %s", symbol, payload.OptionChain.Error.Description)
	}
	if len(payload.OptionChain.Result) == 0 {
		return nil, fmt.Errorf("no options data for %s", symbol)
	}

	result := payload.OptionChain.Result[0]
	spot := result.Quote.RegularMarketPrice
	daysToExpiry := c.daysUntil(expiryDate)

	var contracts []optionContract
	for _, chain := range result.Options {
		if side == pricing.Call {
			contracts = chain.Calls
		} else {
			contracts = chain.Puts
		}
		break
	}

	quotes := make([]scanner.OptionQuote, 0, len(contracts))
	for _, contract := range contracts {
		quotes = append(quotes, scanner.OptionQuote{
			Symbol:       symbol,
			Expiration:   expiration,
			Strike:       contract.Strike,
			Bid:          contract.Bid,
			Ask:          contract.Ask,
			Side:         side,
			SpotPrice:    spot,
			DaysToExpiry: daysToExpiry,
		})
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("yahoo_chains", cacheKey, quotes, clientdata.TTLChain); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache chain")
		}
	}
	return quotes, nil
}

// DailyCloses returns up to `days` daily closing prices, oldest first.
// Missing bars (halts, holidays) are skipped.
func (c *Client) DailyCloses(ctx context.Context, symbol string, days int) ([]float64, error) {
	cacheKey := symbol + ":" + strconv.Itoa(days)
	var cached []float64
	if c.cacheRepo != nil {
		if found, err := c.cacheRepo.GetIfFresh("yahoo_history", cacheKey, &cached); err == nil && found {
			return cached, nil
		}
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%dd&interval=1d", c.baseURL, symbol, days)
	var payload chartResponse
	if err := c.getJSON(ctx, url, &payload); err != nil {
		if c.cacheRepo != nil {
			if found, cerr := c.cacheRepo.Get("yahoo_history", cacheKey, &cached); cerr == nil && found {
				c.log.Warn().Err(err).Str("symbol", symbol).Msg("API failed, using stale cached history")
				return cached, nil
			}
		}
		return nil, err
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error for %s: %s", symbol, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no history data for %s", symbol)
	}

	raw := payload.Chart.Result[0].Indicators.Quote[0].Close
	closes := make([]float64, 0, len(raw))
	for _, bar := range raw {
		if bar != nil {
			closes = append(closes, *bar)
		}
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("yahoo_history", cacheKey, closes, clientdata.TTLHistory); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache history")
		}
	}
	return closes, nil
}

// getJSON performs a GET request and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, url string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) staleQuote(symbol string, dest *Quote) bool {
	if c.cacheRepo == nil {
		return false
	}
	found, err := c.cacheRepo.Get("yahoo_quotes", symbol, dest)
	return err == nil && found
}

// expiriesFromEpochs converts expiration epochs to date strings with days
// until expiry, dropping past dates.
func (c *Client) expiriesFromEpochs(epochs []int64) map[string]int {
	expirations := make(map[string]int, len(epochs))
	for _, epoch := range epochs {
		expiryDate := time.Unix(epoch, 0).UTC()
		days := c.daysUntil(expiryDate)
		if days < 0 {
			continue
		}
		expirations[expiryDate.Format("2006-01-02")] = days
	}
	return expirations
}

// daysUntil counts whole calendar days between today and the expiry, both
// in UTC.
func (c *Client) daysUntil(expiry time.Time) int {
	today := c.now().UTC().Truncate(24 * time.Hour)
	expiryDay := expiry.UTC().Truncate(24 * time.Hour)
	return int(expiryDay.Sub(today).Hours() / 24)
}
