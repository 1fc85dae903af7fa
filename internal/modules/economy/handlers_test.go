package economy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewarsim/engine/internal/database"
	"github.com/tradewarsim/engine/internal/domain"
	"github.com/tradewarsim/engine/internal/events"
	"github.com/tradewarsim/engine/internal/modules/budget"
	"github.com/tradewarsim/engine/internal/modules/countries"
	"github.com/tradewarsim/engine/internal/modules/diplomacy"
	"github.com/tradewarsim/engine/pkg/logger"
)

func setupPolicyRouter(t *testing.T) (chi.Router, *countries.Repository) {
	router, countryRepo, _ := setupPolicyRouterBus(t)
	return router, countryRepo
}

func setupPolicyRouterBus(t *testing.T) (chi.Router, *countries.Repository, *events.Bus) {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	log := logger.New(logger.Config{Level: "error", Pretty: false})
	countryRepo := countries.NewRepository(db.Conn(), log)
	relationRepo := diplomacy.NewRepository(db.Conn(), log)
	paramsRepo := NewParamsRepository(db.Conn(), log)
	decisionRepo := NewDecisionRepository(db.Conn(), log)
	budgetRepo := budget.NewRepository(db.Conn(), log)
	ledger := budget.NewSubsidyLedger(db.Conn(), log)
	budgetService := budget.NewService(budgetRepo, ledger, log)
	bus := events.NewBus()
	eventMgr := events.NewManager(bus, log)

	model := NewModel(DefaultPolicyRanges(), log)
	handler := NewHandler(model, paramsRepo, decisionRepo, countryRepo,
		budgetService, ledger, relationRepo, eventMgr, 5, log)

	r := chi.NewRouter()
	r.Route("/api/policy", func(r chi.Router) {
		handler.Routes(r)
	})
	return r, countryRepo, bus
}

func TestHandleApplyPolicy(t *testing.T) {
	router, countryRepo := setupPolicyRouter(t)
	require.NoError(t, countryRepo.Save(domain.Country{
		ISOCode: "USA", Name: "USA", GDP: 25000000,
		TradingPartners: []domain.TradingPartner{{Country: "CHN", Volume: 650000}},
	}))

	body := `{"iso_code":"USA","policy":{"tariff":{"type":"tariff","value":40,"target":"all"}}}`
	req := httptest.NewRequest("POST", "/api/policy", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp struct {
		ISOCode string `json:"iso_code"`
		Results map[string]struct {
			Effect struct {
				GDPGrowthChange float64 `json:"gdpGrowthChange"`
			} `json:"effect"`
			Projection struct {
				ShortTerm        []float64 `json:"shortTerm"`
				UncertaintyRange []float64 `json:"uncertaintyRange"`
			} `json:"projection"`
			RiskOfRetaliation string `json:"riskOfRetaliation"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "USA", resp.ISOCode)
	result, ok := resp.Results["tariff"]
	require.True(t, ok)
	assert.InDelta(t, 0.225, result.Effect.GDPGrowthChange, 1e-9)
	assert.Len(t, result.Projection.ShortTerm, 5)
	assert.Equal(t, "Høj på tværs af handelspartnere", result.RiskOfRetaliation)
}

func TestHandleApplyPolicy_OutOfRange(t *testing.T) {
	router, countryRepo := setupPolicyRouter(t)
	require.NoError(t, countryRepo.Save(domain.Country{ISOCode: "USA", Name: "USA", GDP: 25000000}))

	body := `{"iso_code":"USA","policy":{"tariff":{"type":"tariff","value":99}}}`
	req := httptest.NewRequest("POST", "/api/policy", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandleApplyPolicy_UnknownCountry(t *testing.T) {
	router, _ := setupPolicyRouter(t)

	body := `{"iso_code":"ZZZ","policy":{"tariff":{"type":"tariff","value":20}}}`
	req := httptest.NewRequest("POST", "/api/policy", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleApplyPolicy_MissingFields(t *testing.T) {
	router, _ := setupPolicyRouter(t)

	req := httptest.NewRequest("POST", "/api/policy", strings.NewReader(`{"iso_code":"USA"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetRanges(t *testing.T) {
	router, _ := setupPolicyRouter(t)

	req := httptest.NewRequest("GET", "/api/policy/ranges", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var ranges map[string]domain.PolicyRange
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ranges))

	require.Contains(t, ranges, "tariff")
	assert.Equal(t, 10.0, ranges["tariff"].Normal)
	assert.Equal(t, 50.0, ranges["tariff"].Max)
	require.Contains(t, ranges, "tax")
	require.Contains(t, ranges, "subsidy")
}

func TestHandleHistory(t *testing.T) {
	router, countryRepo := setupPolicyRouter(t)
	require.NoError(t, countryRepo.Save(domain.Country{ISOCode: "USA", Name: "USA", GDP: 25000000}))

	body := `{"iso_code":"USA","policy":{"tax":{"type":"tax","value":45}}}`
	req := httptest.NewRequest("POST", "/api/policy", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/api/policy/history/USA", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Decisions []domain.PolicyDecision `json:"decisions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Decisions, 1)
	assert.Equal(t, domain.PolicyTax, resp.Decisions[0].Policy)
	assert.Equal(t, 45.0, resp.Decisions[0].Value)
}

func TestHandleApplyPolicy_InvalidEntryRecordsNothing(t *testing.T) {
	router, countryRepo := setupPolicyRouter(t)
	require.NoError(t, countryRepo.Save(domain.Country{ISOCode: "USA", Name: "USA", GDP: 25000000}))

	// One valid entry and one out-of-range entry: the whole request must
	// be rejected without recording the valid one.
	body := `{"iso_code":"USA","policy":{
		"tariff":{"type":"tariff","value":20},
		"tax":{"type":"tax","value":999}
	}}`
	req := httptest.NewRequest("POST", "/api/policy", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	req = httptest.NewRequest("GET", "/api/policy/history/USA", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Decisions []domain.PolicyDecision `json:"decisions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Decisions)
}

func TestHandleApplyPolicy_EmitsRelationChanged(t *testing.T) {
	router, countryRepo, bus := setupPolicyRouterBus(t)
	require.NoError(t, countryRepo.Save(domain.Country{
		ISOCode: "USA", Name: "USA", GDP: 25000000,
		TradingPartners: []domain.TradingPartner{{Country: "CHN", Volume: 650000}},
	}))

	var got []*events.Event
	bus.Subscribe(events.RelationChanged, func(e *events.Event) { got = append(got, e) })

	body := `{"iso_code":"USA","policy":{"tariff":{"type":"tariff","value":40,"target":"CHN"}}}`
	req := httptest.NewRequest("POST", "/api/policy", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, got, 1)
	assert.Equal(t, "USA", got[0].Data["country_a"])
	assert.Equal(t, "CHN", got[0].Data["country_b"])
	level, ok := got[0].Data["level"].(float64)
	require.True(t, ok)
	assert.Negative(t, level)
}
