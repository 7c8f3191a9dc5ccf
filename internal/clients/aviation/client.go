// Package aviation provides airline directory metadata for the fleet sync job.
package aviation

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/skylease/watchtower/internal/clientdata"
)

// DirectoryEntry is one airline's directory record.
type DirectoryEntry struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
	Active      bool   `json:"active"`
	FleetSize   int    `json:"fleet_size"`
}

// Client for an aviationstack-style airline directory API.
type Client struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new aviation directory client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(baseURL, apiKey string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.aviationstack.com/v1"
	}
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		client:    &http.Client{Timeout: 15 * time.Second},
		log:       log.With().Str("client", "aviation").Logger(),
		cacheRepo: cacheRepo,
	}
}

// Directory fetches one airline's directory metadata with cache.
// If the API fails, returns stale cached data if available.
func (c *Client) Directory(airlineCode string) (*DirectoryEntry, error) {
	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh("airline_directory", airlineCode)
		if err == nil && data != nil {
			var cached DirectoryEntry
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().Str("airline", airlineCode).Msg("Cache hit")
				return &cached, nil
			}
		}
	}

	endpoint := fmt.Sprintf("%s/airlines?access_key=%s&iata_code=%s",
		c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(airlineCode))

	resp, err := c.client.Get(endpoint)
	if err != nil {
		if stale, ok := c.getStaleFromCache(airlineCode); ok {
			c.log.Warn().Err(err).Str("airline", airlineCode).
				Msg("API failed, using stale cached directory entry")
			return stale, nil
		}
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if stale, ok := c.getStaleFromCache(airlineCode); ok {
			c.log.Warn().Int("status", resp.StatusCode).Str("airline", airlineCode).
				Msg("API error, using stale cached directory entry")
			return stale, nil
		}
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result struct {
		Data []struct {
			IataCode    string `json:"iata_code"`
			AirlineName string `json:"airline_name"`
			CountryISO2 string `json:"country_iso2"`
			Status      string `json:"status"`
			FleetSize   string `json:"fleet_size"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if stale, ok := c.getStaleFromCache(airlineCode); ok {
			c.log.Warn().Err(err).Str("airline", airlineCode).
				Msg("Failed to parse API response, using stale cached directory entry")
			return stale, nil
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("airline %s not in directory", airlineCode)
	}
	row := result.Data[0]

	entry := &DirectoryEntry{
		Code:        row.IataCode,
		Name:        row.AirlineName,
		CountryCode: row.CountryISO2,
		Active:      row.Status == "active",
	}
	// fleet_size arrives as a string in this API
	fmt.Sscanf(row.FleetSize, "%d", &entry.FleetSize)

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("airline_directory", airlineCode, entry, clientdata.TTLAirlineDirectory); err != nil {
			c.log.Warn().Err(err).Str("airline", airlineCode).Msg("Failed to cache directory entry")
		}
	}

	c.log.Info().
		Str("airline", airlineCode).
		Int("fleet_size", entry.FleetSize).
		Bool("active", entry.Active).
		Msg("Fetched directory entry")

	return entry, nil
}

// getStaleFromCache retrieves a cached directory entry even if expired.
func (c *Client) getStaleFromCache(airlineCode string) (*DirectoryEntry, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	data, err := c.cacheRepo.Get("airline_directory", airlineCode)
	if err != nil || data == nil {
		return nil, false
	}

	var cached DirectoryEntry
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}

	return &cached, true
}
