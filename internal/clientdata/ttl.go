package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Very stable data (rarely changes)
	TTLCountryInfo      = 30 * 24 * time.Hour // 30 days - regions and inequality indices move slowly
	TTLAirlineDirectory = 7 * 24 * time.Hour  // 7 days - fleet sizes and active flags

	// Quarterly financial data (updates with filings)
	TTLFundamentals = 45 * 24 * time.Hour // 45 days - balance sheet derived ratios

	// Short-lived data
	TTLFlightActivity = time.Hour // 1 hour - recent flight movement counts
)
