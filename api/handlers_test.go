/*
handlers_test.go - HTTP-level tests for API handlers

Tests run against the real router and an in-memory SQLite store seeded
through the demo scenarios, so they cover the full request path: routing,
JSON decoding, domain computation, and error-to-status mapping.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reloconomics/relocation-engine/store/sqlite"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store)
	ctx := context.Background()
	require.NoError(t, h.loadTechRelocation(ctx))
	require.NoError(t, h.LoadTables(ctx))
	return h
}

func doJSON(t *testing.T, h *Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

// =============================================================================
// REFERENCE ENDPOINTS
// =============================================================================

func TestListFilingStatuses(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/filing-statuses", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	statuses := decode[[]string](t, rec)
	assert.Contains(t, statuses, "single")
	assert.Contains(t, statuses, "married_joint")
	assert.Len(t, statuses, 4)
}

func TestListStates(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/states", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	states := decode[[]StateDTO](t, rec)
	byCode := make(map[string]StateDTO, len(states))
	for _, s := range states {
		byCode[s.Code] = s
	}

	require.Contains(t, byCode, "TX")
	require.NotNil(t, byCode["TX"].FlatRate)
	assert.Zero(t, *byCode["TX"].FlatRate)

	require.Contains(t, byCode, "CA")
	assert.Nil(t, byCode["CA"].FlatRate)
	assert.Greater(t, byCode["CA"].Brackets, 0)
}

func TestListCities(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/cities", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cities := decode[[]string](t, rec)
	assert.Contains(t, cities, "Austin")
	assert.Contains(t, cities, "San Francisco")
	// Tulsa has a cost index but no history in this scenario; still listed
	assert.Contains(t, cities, "Tulsa")
	assert.IsIncreasing(t, cities)
}

// =============================================================================
// TAX ENDPOINT
// =============================================================================

func TestTakeHome_NoIncomeTaxState(t *testing.T) {
	// GIVEN: a single filer earning 95k in Texas
	// WHEN: computing take-home pay
	// THEN: state tax is zero and the components net out

	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/tax/take-home", TakeHomeRequest{
		GrossIncome:  dec("95000"),
		FilingStatus: "single",
		StateCode:    "TX",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decode[TakeHomeDTO](t, rec)
	assert.Zero(t, result.StateTax)
	assert.Greater(t, result.Federal.Tax, 0.0)
	assert.Greater(t, result.Fica.Total, 0.0)
	assert.InDelta(t, result.Federal.Tax+result.Fica.Total, result.TotalTaxes, 0.01)
	assert.InDelta(t, 95000-result.TotalTaxes, result.NetAnnual, 0.01)
	assert.InDelta(t, result.NetAnnual/12, result.NetMonthly, 0.01)
	assert.NotEmpty(t, result.Federal.Breakdown)
}

func TestTakeHome_CaliforniaTaxesMore(t *testing.T) {
	h := newTestHandler(t)

	tx := decode[TakeHomeDTO](t, doJSON(t, h, http.MethodPost, "/api/tax/take-home", TakeHomeRequest{
		GrossIncome: dec("120000"), FilingStatus: "single", StateCode: "TX",
	}))
	ca := decode[TakeHomeDTO](t, doJSON(t, h, http.MethodPost, "/api/tax/take-home", TakeHomeRequest{
		GrossIncome: dec("120000"), FilingStatus: "single", StateCode: "CA",
	}))

	assert.Greater(t, ca.StateTax, 0.0)
	assert.Less(t, ca.NetAnnual, tx.NetAnnual)
}

func TestTakeHome_BadInputs(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		req  TakeHomeRequest
		want int
	}{
		{"unknown filing status", TakeHomeRequest{GrossIncome: dec("50000"), FilingStatus: "widowed", StateCode: "TX"}, http.StatusBadRequest},
		{"unknown state", TakeHomeRequest{GrossIncome: dec("50000"), FilingStatus: "single", StateCode: "ZZ"}, http.StatusBadRequest},
		{"negative income", TakeHomeRequest{GrossIncome: dec("-1"), FilingStatus: "single", StateCode: "TX"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/tax/take-home", tt.req)
			assert.Equal(t, tt.want, rec.Code)

			resp := decode[ErrorResponse](t, rec)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

// =============================================================================
// COMPARISON ENDPOINT
// =============================================================================

func TestCompare_AustinVsSanFrancisco(t *testing.T) {
	// GIVEN: the same income in Austin, TX and San Francisco, CA
	// WHEN: comparing the two cities
	// THEN: SF costs more across the board and nets less after tax

	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/compare", CompareRequest{
		GrossIncome:  dec("150000"),
		FilingStatus: "single",
		CityA:        "Austin",
		StateA:       "TX",
		CityB:        "San Francisco",
		StateB:       "CA",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	cmp := decode[ComparisonDTO](t, rec)
	assert.Equal(t, "Austin", cmp.A.City)
	assert.Equal(t, "San Francisco", cmp.B.City)
	assert.Greater(t, cmp.A.NetAnnual, cmp.B.NetAnnual)
	assert.Greater(t, cmp.B.TotalExpenses, cmp.A.TotalExpenses)
	assert.Greater(t, cmp.TotalDelta.DeltaDollars, 0.0)
	require.Len(t, cmp.Deltas, 5)

	// Housing dominates the SF premium
	assert.Equal(t, "housing", cmp.Deltas[0].Category)
	assert.Greater(t, cmp.Deltas[0].DeltaDollars, 0.0)
	require.NotNil(t, cmp.Deltas[0].DeltaPercent)
}

func TestCompare_UnknownCity(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/compare", CompareRequest{
		GrossIncome:  dec("100000"),
		FilingStatus: "single",
		CityA:        "Atlantis",
		StateA:       "TX",
		CityB:        "Austin",
		StateB:       "TX",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// FORECAST AND SEASONAL ENDPOINTS
// =============================================================================

func TestForecast_FullCity(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/forecast", ForecastRequest{
		City:    "Austin",
		Horizon: 6,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decode[CityForecastDTO](t, rec)
	assert.Equal(t, "Austin", result.City)
	assert.Len(t, result.Categories, 5)
	assert.Empty(t, result.Skipped)
	require.Len(t, result.Totals, 6)

	for _, total := range result.Totals {
		assert.GreaterOrEqual(t, total.Amount, 0.0)
	}
}

func TestForecast_BadHorizon(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/forecast", ForecastRequest{
		City:    "Austin",
		Horizon: 13,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForecast_SparseSeriesReportedAsSkipped(t *testing.T) {
	// The midwest scenario seeds Tulsa with a deliberately short
	// healthcare series

	h := newTestHandler(t)
	ctx := context.Background()
	require.NoError(t, h.Store.Reset(ctx))
	require.NoError(t, h.loadMidwestBudget(ctx))
	require.NoError(t, h.LoadTables(ctx))

	rec := doJSON(t, h, http.MethodPost, "/api/forecast", ForecastRequest{
		City:    "Tulsa",
		Horizon: 6,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decode[CityForecastDTO](t, rec)
	assert.Len(t, result.Categories, 4)
	assert.Contains(t, result.Skipped, "healthcare")
}

func TestSeasonal_UtilitiesPeakInSummer(t *testing.T) {
	// The synthetic history gives utilities a hard summer peak

	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/seasonal/Austin?category=utilities", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	result := decode[SeasonalDTO](t, rec)
	assert.Equal(t, "utilities", result.Category)
	assert.Len(t, result.MonthlyMeans, 12)
	// Summer peak plus cost drift puts August on top
	assert.Contains(t, result.MostExpensive, "August")
	require.NotNil(t, result.Variance)
	assert.Greater(t, *result.Variance, 0.0)
}

func TestSeasonal_UnknownCity(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/seasonal/Atlantis", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// HISTORY IMPORT
// =============================================================================

func TestImportHistory(t *testing.T) {
	h := newTestHandler(t)

	payload := `[
		{"city": "Boise", "category": "food", "month_index": 0, "month": 1, "amount": 480},
		{"city": "Boise", "category": "food", "month_index": 1, "month": 2, "amount": 492.50}
	]`

	req := httptest.NewRequest(http.MethodPost, "/api/history/import", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	result := decode[map[string]int](t, rec)
	assert.Equal(t, 2, result["imported"])

	cities := decode[[]string](t, doJSON(t, h, http.MethodGet, "/api/cities", nil))
	assert.Contains(t, cities, "Boise")
}

func TestImportHistory_RejectsBadPayload(t *testing.T) {
	h := newTestHandler(t)

	payload := `[{"city": "Boise", "category": "entertainment", "month_index": 0, "month": 1, "amount": 100}]`
	req := httptest.NewRequest(http.MethodPost, "/api/history/import", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// SCENARIO ENDPOINTS
// =============================================================================

func TestScenarios_LoadAndReset(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	h := NewHandler(store)

	// Fresh database: reference-backed endpoints report missing tables
	rec := doJSON(t, h, http.MethodGet, "/api/states", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "tech-relocation"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	current := decode[ScenarioDTO](t, rec)
	assert.Equal(t, "tech-relocation", current.ID)

	rec = doJSON(t, h, http.MethodGet, "/api/states", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/states", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScenarios_CurrentSafeDuringLoadAndReset(t *testing.T) {
	// GIVEN: readers polling the current scenario while loads and resets
	//        rewrite it
	// WHEN: running them concurrently (the race detector watches the
	//       shared handler state)
	// THEN: every read serves cleanly and the final state is consistent

	h := newTestHandler(t)
	router := NewRouter(h)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				req := httptest.NewRequest(http.MethodGet, "/api/scenarios/current", nil)
				router.ServeHTTP(httptest.NewRecorder(), req)
			}
		}()
	}

	for j := 0; j < 10; j++ {
		rec := doJSON(t, h, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "midwest-budget"})
		require.Equal(t, http.StatusOK, rec.Code)
		rec = doJSON(t, h, http.MethodPost, "/api/scenarios/reset", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	wg.Wait()

	rec := doJSON(t, h, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}

func TestScenarios_UnknownID(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
