// Package fundamentals provides balance-sheet fundamentals for publicly traded
// carriers, with caching and an embedded representative fallback dataset.
package fundamentals

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/skylease/watchtower/internal/clientdata"
	"github.com/skylease/watchtower/internal/domain"
)

// Client fetches fundamentals from a market data API.
// Resolution order: fresh cache, live API, stale cache, representative dataset.
// Provenance is recorded in FinancialData.Source ("live" vs "representative")
// and drives downstream confidence labels.
type Client struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new fundamentals client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(baseURL, apiKey string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://financialmodelingprep.com/api/v3"
	}
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		client:    &http.Client{Timeout: 15 * time.Second},
		log:       log.With().Str("client", "fundamentals").Logger(),
		cacheRepo: cacheRepo,
	}
}

// Fundamentals returns fundamentals for a ticker.
// Never returns both nil, nil: when every source fails the representative
// dataset is consulted, and only tickers absent from it produce an error.
func (c *Client) Fundamentals(ticker string) (*domain.FinancialData, error) {
	// Check persistent cache for fresh data
	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh("fundamentals", ticker)
		if err == nil && data != nil {
			var cached domain.FinancialData
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().Str("ticker", ticker).Msg("Cache hit")
				return &cached, nil
			}
		}
	}

	fd, err := c.fetchLive(ticker)
	if err != nil {
		if stale, ok := c.getStaleFromCache(ticker); ok {
			c.log.Warn().Err(err).Str("ticker", ticker).
				Msg("API failed, using stale cached fundamentals")
			return stale, nil
		}
		if rep, ok := representativeData[ticker]; ok {
			c.log.Warn().Err(err).Str("ticker", ticker).
				Msg("API failed, using representative fundamentals")
			repCopy := rep
			return &repCopy, nil
		}
		return nil, fmt.Errorf("no fundamentals available for %s: %w", ticker, err)
	}

	// Cache persistently
	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("fundamentals", ticker, fd, clientdata.TTLFundamentals); err != nil {
			c.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to cache fundamentals")
		}
	}

	c.log.Info().
		Str("ticker", ticker).
		Float64("debt_to_equity", fd.DebtToEquity).
		Float64("profit_margin", fd.ProfitMargin).
		Msg("Fetched fundamentals")

	return fd, nil
}

// fetchLive pulls the latest balance sheet and income figures from the API and
// derives the ratios the evaluators consume.
func (c *Client) fetchLive(ticker string) (*domain.FinancialData, error) {
	url := fmt.Sprintf("%s/key-metrics/%s?limit=1&apikey=%s", c.baseURL, ticker, c.apiKey)

	resp, err := c.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var rows []struct {
		TotalDebt   float64 `json:"totalDebt"`
		TotalEquity float64 `json:"totalEquity"`
		Cash        float64 `json:"cashAndCashEquivalents"`
		Revenue     float64 `json:"revenue"`
		NetIncome   float64 `json:"netIncome"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no fundamentals rows for %s", ticker)
	}
	row := rows[0]

	fd := &domain.FinancialData{
		TotalDebt:   row.TotalDebt,
		TotalEquity: row.TotalEquity,
		Cash:        row.Cash,
		Revenue:     row.Revenue,
		NetIncome:   row.NetIncome,
		Source:      "live",
	}
	if row.TotalEquity != 0 {
		fd.DebtToEquity = row.TotalDebt / row.TotalEquity
	}
	if row.Revenue != 0 {
		fd.ProfitMargin = row.NetIncome / row.Revenue * 100
	}
	if row.TotalDebt != 0 {
		fd.CashToDebt = row.Cash / row.TotalDebt
	}

	return fd, nil
}

// getStaleFromCache retrieves cached fundamentals even if expired.
func (c *Client) getStaleFromCache(ticker string) (*domain.FinancialData, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	data, err := c.cacheRepo.Get("fundamentals", ticker)
	if err != nil || data == nil {
		return nil, false
	}

	var cached domain.FinancialData
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}

	return &cached, true
}
