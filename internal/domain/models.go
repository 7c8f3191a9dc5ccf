// Package domain contains the core business entities and value objects for Watchtower.
// This package is pure - it has no infrastructure dependencies.
package domain

import "time"

// Confidence is a qualitative reliability label attached to a component score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// RiskBucket classifies a numeric risk score.
type RiskBucket string

const (
	BucketLow    RiskBucket = "Low"
	BucketMedium RiskBucket = "Medium"
	BucketHigh   RiskBucket = "High"
)

// Airline is the identity portion of a risk context.
type Airline struct {
	Code        string `json:"code"` // IATA/ICAO code, primary identifier
	Name        string `json:"name"`
	CountryCode string `json:"country_code"` // ISO 3166-1 alpha-2 jurisdiction
	Active      bool   `json:"active"`
	FleetSize   int    `json:"fleet_size"`
	Ticker      string `json:"ticker,omitempty"` // Market ticker; empty for private carriers
}

// JurisdictionInfo describes the airline's home jurisdiction.
// Supplied by the country data provider; nil when the provider is unreachable.
type JurisdictionInfo struct {
	Region          string   `json:"region"`
	SubRegion       string   `json:"sub_region"`
	InequalityIndex *float64 `json:"inequality_index,omitempty"` // Gini index, 20-60ish
}

// ActivityData captures recent flight activity observed for the carrier.
type ActivityData struct {
	FlightsLast24h int       `json:"flights_last_24h"`
	LastSeen       time.Time `json:"last_seen"`
}

// FinancialData holds fundamentals for a publicly traded carrier.
// Source records provenance: "live" (market data API) or "representative"
// (embedded fallback dataset).
type FinancialData struct {
	TotalDebt    float64 `json:"total_debt"`
	TotalEquity  float64 `json:"total_equity"`
	Cash         float64 `json:"cash"`
	Revenue      float64 `json:"revenue"`
	NetIncome    float64 `json:"net_income"`
	DebtToEquity float64 `json:"debt_to_equity"`
	ProfitMargin float64 `json:"profit_margin"` // percent
	CashToDebt   float64 `json:"cash_to_debt"`
	Source       string  `json:"source"`
}

// RiskContext is the input bundle for one airline evaluation.
// It is passed by value: evaluators receive an immutable view, and the
// aggregator's financial back-fill produces a new value rather than mutating
// a shared one.
type RiskContext struct {
	Airline      Airline
	Jurisdiction *JurisdictionInfo
	Activity     *ActivityData
	Financials   *FinancialData
}

// WithFinancials returns a copy of the context with fundamentals attached.
// This is the single controlled back-fill point used by the aggregator.
func (rc RiskContext) WithFinancials(fd *FinancialData) RiskContext {
	rc.Financials = fd
	return rc
}

// ComponentScore is one risk dimension's evaluation.
// A nil Score means the dimension is unavailable for this airline - a
// first-class outcome, not an error. Unavailable components are reweighted
// away by the aggregator.
type ComponentScore struct {
	Score      *float64               `json:"score"` // 0-100, nil = unavailable
	Confidence Confidence             `json:"confidence"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Available reports whether the component produced a usable score.
func (cs ComponentScore) Available() bool {
	return cs.Score != nil
}

// BreakdownEntry is one row of the ordered per-dimension breakdown in a RiskResult.
type BreakdownEntry struct {
	Dimension       string     `json:"dimension"`
	Name            string     `json:"name"`
	Score           *float64   `json:"score"`
	Confidence      Confidence `json:"confidence"`
	Weight          float64    `json:"weight"`
	EffectiveWeight float64    `json:"effective_weight"`
}

// ResultMetadata explains how the overall score was assembled.
type ResultMetadata struct {
	MissingComponents []string `json:"missing_components"`
	Reweighted        bool     `json:"reweighted"`
	ConfigVersion     string   `json:"config_version"`
}

// RiskResult is the per-airline output of the risk aggregator.
// Immutable once returned; the snapshot store persists it verbatim.
type RiskResult struct {
	AirlineCode  string                    `json:"airline_code"`
	OverallScore float64                   `json:"overall_score"` // 0-100, 1 decimal
	RiskBucket   RiskBucket                `json:"risk_bucket"`
	Components   map[string]ComponentScore `json:"components"`
	Breakdown    []BreakdownEntry          `json:"breakdown"`
	CalculatedAt time.Time                 `json:"calculated_at"`
	ExpiresAt    time.Time                 `json:"expires_at"`
	Metadata     ResultMetadata            `json:"metadata"`
}

// Exposure is a single lease exposure within a portfolio.
// Exactly one airline per exposure; uniqueness is enforced by the store.
type Exposure struct {
	PortfolioID   string  `json:"portfolio_id"`
	AirlineCode   string  `json:"airline_code"`
	AirlineName   string  `json:"airline_name"`
	Amount        float64 `json:"amount"`   // > 0, in Currency units
	Currency      string  `json:"currency"` // ISO 4217
	AircraftCount int     `json:"aircraft_count,omitempty"`
}

// ExposureRow is a ranked exposure within a currency group.
type ExposureRow struct {
	AirlineCode string     `json:"airline_code"`
	AirlineName string     `json:"airline_name"`
	Amount      float64    `json:"amount"`
	SharePct    float64    `json:"share_pct"`
	RiskScore   float64    `json:"risk_score"`
	RiskBucket  RiskBucket `json:"risk_bucket"`
}

// BucketTotals partitions exposure amounts by each exposure's own risk bucket.
type BucketTotals struct {
	Low    float64 `json:"low"`
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

// CurrencyRiskResult is the per-currency portfolio aggregate.
// Amounts in different currencies are never combined into one number.
type CurrencyRiskResult struct {
	Currency             string        `json:"currency"`
	TotalExposure        float64       `json:"total_exposure"`
	BaseRisk             float64       `json:"base_risk"`
	AdjustedRisk         float64       `json:"adjusted_risk"`
	ConcentrationPenalty float64       `json:"concentration_penalty"`
	MaxConcentration     float64       `json:"max_concentration"` // 0-1
	HerfindahlIndex      float64       `json:"herfindahl_index"`  // informational
	RiskBucket           RiskBucket    `json:"risk_bucket"`
	BucketTotals         BucketTotals  `json:"bucket_totals"`
	Rows                 []ExposureRow `json:"rows"`
}

// PortfolioRiskResult is the full multi-currency portfolio aggregate.
// Callers must branch on len(Currencies); there is no combined figure.
type PortfolioRiskResult struct {
	PerCurrency map[string]CurrencyRiskResult `json:"per_currency"`
	Currencies  []string                      `json:"currencies"` // sorted
}

// ScenarioResult is the outcome of a hypothetical exposure override.
type ScenarioResult struct {
	CurrencyRiskResult
	ScenarioID      string        `json:"scenario_id"`
	OverrideApplied bool          `json:"override_applied"`
	TopExposures    []ExposureRow `json:"top_exposures"` // top 10 by amount
}
