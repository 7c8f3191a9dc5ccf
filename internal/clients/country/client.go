// Package country provides jurisdiction metadata fetching and caching.
package country

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/skylease/watchtower/internal/clientdata"
	"github.com/skylease/watchtower/internal/domain"
)

// Client for restcountries.com. Returns region, sub-region and the most recent
// Gini inequality index for a country.
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new country data client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://restcountries.com/v3.1/alpha",
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "restcountries").Logger(),
		cacheRepo: cacheRepo,
	}
}

// CountryInfo fetches jurisdiction metadata with cache.
// If the API fails, returns stale cached data if available (stale data > no data).
func (c *Client) CountryInfo(countryCode string) (*domain.JurisdictionInfo, error) {
	// Check persistent cache for fresh data
	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh("country_info", countryCode)
		if err == nil && data != nil {
			var cached domain.JurisdictionInfo
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().Str("country", countryCode).Msg("Cache hit")
				return &cached, nil
			}
		}
	}

	url := fmt.Sprintf("%s/%s?fields=region,subregion,gini", c.baseURL, countryCode)
	c.log.Debug().Str("url", url).Msg("Fetching country info")

	resp, err := c.client.Get(url)
	if err != nil {
		if stale, ok := c.getStaleFromCache(countryCode); ok {
			c.log.Warn().Err(err).Str("country", countryCode).
				Msg("API failed, using stale cached country info")
			return stale, nil
		}
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if stale, ok := c.getStaleFromCache(countryCode); ok {
			c.log.Warn().Int("status", resp.StatusCode).Str("country", countryCode).
				Msg("API error, using stale cached country info")
			return stale, nil
		}
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result struct {
		Region    string             `json:"region"`
		SubRegion string             `json:"subregion"`
		Gini      map[string]float64 `json:"gini"` // keyed by survey year
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if stale, ok := c.getStaleFromCache(countryCode); ok {
			c.log.Warn().Err(err).Str("country", countryCode).
				Msg("Failed to parse API response, using stale cached country info")
			return stale, nil
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	info := &domain.JurisdictionInfo{
		Region:    result.Region,
		SubRegion: result.SubRegion,
	}
	// Most recent survey year wins.
	latestYear := ""
	for year, gini := range result.Gini {
		if year > latestYear {
			latestYear = year
			g := gini
			info.InequalityIndex = &g
		}
	}

	// Cache persistently
	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("country_info", countryCode, info, clientdata.TTLCountryInfo); err != nil {
			c.log.Warn().Err(err).Str("country", countryCode).Msg("Failed to cache country info")
		}
	}

	c.log.Info().
		Str("country", countryCode).
		Str("region", info.Region).
		Bool("has_gini", info.InequalityIndex != nil).
		Msg("Fetched country info")

	return info, nil
}

// getStaleFromCache retrieves cached country info even if expired.
func (c *Client) getStaleFromCache(countryCode string) (*domain.JurisdictionInfo, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	data, err := c.cacheRepo.Get("country_info", countryCode)
	if err != nil || data == nil {
		return nil, false
	}

	var cached domain.JurisdictionInfo
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}

	return &cached, true
}
