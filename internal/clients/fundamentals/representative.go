package fundamentals

import "github.com/skylease/watchtower/internal/domain"

// representativeData is the embedded fallback dataset: typical balance-sheet
// profiles for major carriers, used when the market data API and the cache both
// come up empty. Figures are in millions USD, derived ratios precomputed.
// Source is always "representative" so the financial evaluator can lower its
// confidence accordingly.
var representativeData = map[string]domain.FinancialData{
	"AAL": {
		TotalDebt:    32800,
		TotalEquity:  6248,
		Cash:         9500,
		Revenue:      52790,
		NetIncome:    1522,
		DebtToEquity: 5.25,
		ProfitMargin: 2.88,
		CashToDebt:   0.29,
		Source:       "representative",
	},
	"DAL": {
		TotalDebt:    19700,
		TotalEquity:  11105,
		Cash:         3900,
		Revenue:      58048,
		NetIncome:    4609,
		DebtToEquity: 1.77,
		ProfitMargin: 7.94,
		CashToDebt:   0.20,
		Source:       "representative",
	},
	"UAL": {
		TotalDebt:    28700,
		TotalEquity:  9324,
		Cash:         6334,
		Revenue:      53717,
		NetIncome:    2618,
		DebtToEquity: 3.08,
		ProfitMargin: 4.87,
		CashToDebt:   0.22,
		Source:       "representative",
	},
	"LUV": {
		TotalDebt:    8000,
		TotalEquity:  10397,
		Cash:         9120,
		Revenue:      26091,
		NetIncome:    465,
		DebtToEquity: 0.77,
		ProfitMargin: 1.78,
		CashToDebt:   1.14,
		Source:       "representative",
	},
	"RYAAY": {
		TotalDebt:    4120,
		TotalEquity:  7600,
		Cash:         3950,
		Revenue:      14810,
		NetIncome:    2050,
		DebtToEquity: 0.54,
		ProfitMargin: 13.84,
		CashToDebt:   0.96,
		Source:       "representative",
	},
	"ALK": {
		TotalDebt:    4400,
		TotalEquity:  4113,
		Cash:         1350,
		Revenue:      10426,
		NetIncome:    235,
		DebtToEquity: 1.07,
		ProfitMargin: 2.25,
		CashToDebt:   0.31,
		Source:       "representative",
	},
	"JBLU": {
		TotalDebt:    8700,
		TotalEquity:  2680,
		Cash:         1950,
		Revenue:      9280,
		NetIncome:    -310,
		DebtToEquity: 3.25,
		ProfitMargin: -3.34,
		CashToDebt:   0.22,
		Source:       "representative",
	},
	"ULCC": {
		TotalDebt:    7300,
		TotalEquity:  525,
		Cash:         870,
		Revenue:      3580,
		NetIncome:    -160,
		DebtToEquity: 13.9,
		ProfitMargin: -4.47,
		CashToDebt:   0.12,
		Source:       "representative",
	},
}

// RepresentativeTickers returns the tickers covered by the embedded dataset.
func RepresentativeTickers() []string {
	tickers := make([]string, 0, len(representativeData))
	for t := range representativeData {
		tickers = append(tickers, t)
	}
	return tickers
}
