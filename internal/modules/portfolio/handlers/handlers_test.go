package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/skylease/watchtower/internal/domain"
	"github.com/skylease/watchtower/internal/modules/airlines"
	"github.com/skylease/watchtower/internal/modules/portfolio"
	"github.com/skylease/watchtower/internal/modules/risk"
	"github.com/skylease/watchtower/internal/modules/scoring"
	"github.com/skylease/watchtower/internal/modules/scoring/evaluators"
	"github.com/skylease/watchtower/internal/modules/snapshots"
)

type stubCountry struct{}

func (stubCountry) CountryInfo(countryCode string) (*domain.JurisdictionInfo, error) {
	return nil, nil
}

type stubActivity struct{}

func (stubActivity) Activity(airlineCode string) (*domain.ActivityData, error) {
	return nil, nil
}

type testEnv struct {
	router    http.Handler
	exposures *portfolio.ExposureRepository
	snapshots *snapshots.Repository
}

func setupEnv(t *testing.T) *testEnv {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE airlines (
			code         TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			country_code TEXT NOT NULL DEFAULT '',
			active       INTEGER NOT NULL DEFAULT 1,
			fleet_size   INTEGER NOT NULL DEFAULT 0,
			ticker       TEXT NOT NULL DEFAULT '',
			updated_at   INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE portfolios (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			created_at INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE exposures (
			portfolio_id   TEXT NOT NULL REFERENCES portfolios(id),
			airline_code   TEXT NOT NULL,
			airline_name   TEXT NOT NULL DEFAULT '',
			amount         REAL NOT NULL,
			currency       TEXT NOT NULL,
			aircraft_count INTEGER NOT NULL DEFAULT 0,
			position       INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (portfolio_id, airline_code)
		);
		CREATE TABLE risk_snapshots (
			airline_code  TEXT PRIMARY KEY,
			payload       BLOB NOT NULL,
			overall_score REAL NOT NULL,
			risk_bucket   TEXT NOT NULL,
			calculated_at INTEGER NOT NULL,
			expires_at    INTEGER NOT NULL
		);
	`)
	require.NoError(t, err)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	airlineRepo := airlines.NewRepository(db, log)
	exposureRepo := portfolio.NewExposureRepository(db, log)
	snapshotRepo := snapshots.NewRepository(db, log)

	cfg := scoring.DefaultConfig()
	agg := scoring.NewAggregator(cfg, []scoring.Evaluator{
		evaluators.NewJurisdictionEvaluator(),
		evaluators.NewScaleEvaluator(),
		evaluators.NewAssetLiquidityEvaluator(),
	}, log)
	riskService := risk.NewService(airlineRepo, stubCountry{}, stubActivity{}, agg, snapshotRepo, log)
	calculator := portfolio.NewCalculator(cfg.Thresholds, log)

	handler := NewHandler(exposureRepo, calculator, riskService, log)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	return &testEnv{router: router, exposures: exposureRepo, snapshots: snapshotRepo}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body, "data")
	return body["data"].(map[string]interface{})
}

func TestCreatePortfolio(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, "POST", "/portfolios", `{"name":"Narrowbody Leases"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, "Narrowbody Leases", data["name"])
	assert.NotEmpty(t, data["id"])
}

func TestCreatePortfolioRequiresName(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, "POST", "/portfolios", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExposureLifecycle(t *testing.T) {
	env := setupEnv(t)

	p, err := env.exposures.CreatePortfolio("Test")
	require.NoError(t, err)

	rec := env.do(t, "POST", "/portfolios/"+p.ID+"/exposures",
		`{"airline_code":"AA","airline_name":"American","amount":1000000,"currency":"USD","aircraft_count":3}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, "GET", "/portfolios/"+p.ID+"/exposures", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body["data"], 1)

	rec = env.do(t, "DELETE", "/portfolios/"+p.ID+"/exposures/AA", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, "GET", "/portfolios/"+p.ID+"/exposures", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body["data"])
}

func TestUpsertExposureValidation(t *testing.T) {
	env := setupEnv(t)

	p, err := env.exposures.CreatePortfolio("Test")
	require.NoError(t, err)

	rec := env.do(t, "POST", "/portfolios/"+p.ID+"/exposures", `{"amount":100,"currency":"USD"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, "POST", "/portfolios/"+p.ID+"/exposures", `{"airline_code":"AA","amount":-5,"currency":"USD"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExposuresPortfolioNotFound(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, "GET", "/portfolios/missing/exposures", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPortfolioRisk(t *testing.T) {
	env := setupEnv(t)

	p, err := env.exposures.CreatePortfolio("Test")
	require.NoError(t, err)

	for _, exp := range []domain.Exposure{
		{PortfolioID: p.ID, AirlineCode: "AA", Amount: 600, Currency: "USD"},
		{PortfolioID: p.ID, AirlineCode: "DL", Amount: 400, Currency: "USD"},
		{PortfolioID: p.ID, AirlineCode: "FR", Amount: 500, Currency: "EUR"},
	} {
		require.NoError(t, env.exposures.UpsertExposure(exp))
	}

	scoreFor := func(code string, score float64) {
		require.NoError(t, env.snapshots.Save(&domain.RiskResult{
			AirlineCode:  code,
			OverallScore: score,
			RiskBucket:   domain.BucketMedium,
		}))
	}
	scoreFor("AA", 55)
	scoreFor("DL", 45)

	rec := env.do(t, "GET", "/portfolios/"+p.ID+"/risk", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	currencies := data["currencies"].([]interface{})
	assert.Equal(t, []interface{}{"EUR", "USD"}, currencies)

	perCurrency := data["per_currency"].(map[string]interface{})
	usd := perCurrency["USD"].(map[string]interface{})
	assert.Equal(t, 1000.0, usd["total_exposure"])
	// 55*0.6 + 45*0.4 = 51
	assert.Equal(t, 51.0, usd["base_risk"])

	// FR has no snapshot, so EUR runs on the neutral default.
	eur := perCurrency["EUR"].(map[string]interface{})
	assert.Equal(t, 50.0, eur["base_risk"])
}

func TestScenario(t *testing.T) {
	env := setupEnv(t)

	p, err := env.exposures.CreatePortfolio("Test")
	require.NoError(t, err)

	for _, exp := range []domain.Exposure{
		{PortfolioID: p.ID, AirlineCode: "AA", Amount: 600, Currency: "USD"},
		{PortfolioID: p.ID, AirlineCode: "DL", Amount: 400, Currency: "USD"},
	} {
		require.NoError(t, env.exposures.UpsertExposure(exp))
	}

	rec := env.do(t, "POST", "/portfolios/"+p.ID+"/scenario",
		`{"currency":"USD","override":{"airline_code":"AA","amount":1200}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, "USD", data["currency"])
	assert.Equal(t, true, data["override_applied"])
	assert.Equal(t, 1600.0, data["total_exposure"])
}

func TestScenarioRequiresCurrency(t *testing.T) {
	env := setupEnv(t)

	p, err := env.exposures.CreatePortfolio("Test")
	require.NoError(t, err)

	rec := env.do(t, "POST", "/portfolios/"+p.ID+"/scenario", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
