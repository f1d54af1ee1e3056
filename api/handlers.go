/*
handlers.go - HTTP API handlers for the relocation economics engine

PURPOSE:
  Exposes the computation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Reference:
    GET    /api/filing-statuses      List supported filing statuses
    GET    /api/states               List states with tax rules
    GET    /api/cities               List cities with cost/history data

  Computation:
    POST   /api/tax/take-home        Net pay for one income/state
    POST   /api/compare              Two-city comparison for one income
    POST   /api/forecast             Per-category expense forecast
    GET    /api/seasonal/{city}      Seasonal profile of one series
    POST   /api/history/import       Append expense history from JSON

  Scenarios:
    GET    /api/scenarios            List demo scenarios
    POST   /api/scenarios/load       Load a demo scenario
    POST   /api/scenarios/reset      Clear all data

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: reference-data and history persistence
  - Cached tax tables and cost indices, refreshed on scenario load

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (calculator, comparator, forecaster)
  4. Serialize response
  5. Map domain errors to status codes

ERROR HANDLING:
  Errors are returned as JSON with status derived from the domain error:
  - 400: Invalid input (bad status, negative income, bad horizon)
  - 404: Unknown city, state, or missing reference data
  - 422: Series too short to fit a model
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/reloconomics/relocation-engine/expense"
	"github.com/reloconomics/relocation-engine/factory"
	"github.com/reloconomics/relocation-engine/finance"
	"github.com/reloconomics/relocation-engine/forecast"
	"github.com/reloconomics/relocation-engine/store/sqlite"
	"github.com/reloconomics/relocation-engine/tax"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store

	// Cached reference tables; the store stays authoritative and the cache
	// refreshes on scenario load or reset.
	mu      sync.RWMutex
	tables  tax.Tables
	indices expense.CostIndexTable
	loaded  bool

	// Guarded by mu alongside the cache it describes.
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{Store: store}
}

// LoadTables loads reference tables from the database into cache. Missing
// reference data is not an error at startup; computation endpoints report
// it per request instead.
func (h *Handler) LoadTables(ctx context.Context) error {
	tables, err := h.Store.Tables(ctx)
	if err != nil {
		if finance.IsNotFound(err) {
			return nil
		}
		return err
	}
	indices, err := h.Store.CostIndexTable(ctx)
	if err != nil {
		if finance.IsNotFound(err) {
			return nil
		}
		return err
	}

	h.mu.Lock()
	h.tables = tables
	h.indices = indices
	h.loaded = true
	h.mu.Unlock()
	return nil
}

func (h *Handler) cachedTables() (tax.Tables, expense.CostIndexTable, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.loaded {
		return tax.Tables{}, expense.CostIndexTable{}, &finance.NotFoundError{Kind: "reference", Key: "tables"}
	}
	return h.tables, h.indices, nil
}

func (h *Handler) invalidateCache() {
	h.mu.Lock()
	h.tables = tax.Tables{}
	h.indices = expense.CostIndexTable{}
	h.loaded = false
	h.mu.Unlock()
}

func (h *Handler) scenarioID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.currentScenario
}

func (h *Handler) setScenarioID(id string) {
	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
}

// =============================================================================
// REFERENCE HANDLERS
// =============================================================================

// ListFilingStatuses returns the supported filing statuses.
func (h *Handler) ListFilingStatuses(w http.ResponseWriter, r *http.Request) {
	statuses := tax.FilingStatuses()
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	writeJSON(w, http.StatusOK, names)
}

// ListStates returns every state with a configured tax rule.
func (h *Handler) ListStates(w http.ResponseWriter, r *http.Request) {
	tables, _, err := h.cachedTables()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]StateDTO, 0, len(tables.States))
	for _, code := range tables.States.Codes() {
		rule := tables.States[code]
		dto := StateDTO{Code: code, Name: rule.Name}
		if rule.Flat() {
			rate := rule.FlatRate.InexactFloat64()
			dto.FlatRate = &rate
		} else {
			dto.Brackets = len(rule.Brackets)
		}
		dtos = append(dtos, dto)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// ListCities returns cities known to the cost index and to the expense
// history, merged and sorted.
func (h *Handler) ListCities(w http.ResponseWriter, r *http.Request) {
	seen := make(map[string]bool)

	if _, indices, err := h.cachedTables(); err == nil {
		for _, city := range indices.CityNames() {
			seen[city] = true
		}
	}

	historyCities, err := h.Store.Cities(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	for _, city := range historyCities {
		seen[city] = true
	}

	cities := make([]string, 0, len(seen))
	for city := range seen {
		cities = append(cities, city)
	}
	sort.Strings(cities)

	writeJSON(w, http.StatusOK, cities)
}

// =============================================================================
// COMPUTATION HANDLERS
// =============================================================================

// TakeHome computes net pay for one income, filing status, and state.
func (h *Handler) TakeHome(w http.ResponseWriter, r *http.Request) {
	var req TakeHomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tables, _, err := h.cachedTables()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status, err := tax.ParseFilingStatus(req.FilingStatus)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := tax.ComputeTakeHome(req.GrossIncome, status, req.StateCode, tables)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTakeHomeDTO(result))
}

// CompareCities runs the full two-city comparison for one income.
func (h *Handler) CompareCities(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tables, indices, err := h.cachedTables()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status, err := tax.ParseFilingStatus(req.FilingStatus)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	takeHomeA, err := tax.ComputeTakeHome(req.GrossIncome, status, req.StateA, tables)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	takeHomeB, err := tax.ComputeTakeHome(req.GrossIncome, status, req.StateB, tables)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	comparison, err := expense.BuildComparison(req.CityA, req.CityB, takeHomeA, takeHomeB, indices)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toComparisonDTO(comparison))
}

// Forecast fits and forecasts every expense category for one city.
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	var req ForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := forecast.FitAll(r.Context(), h.Store, req.City, req.Horizon)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCityForecastDTO(result))
}

// Seasonal returns the month-of-year profile for one (city, category).
// Category defaults to housing.
func (h *Handler) Seasonal(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")

	rawCategory := r.URL.Query().Get("category")
	if rawCategory == "" {
		rawCategory = string(expense.CategoryHousing)
	}
	category, err := expense.ParseCategory(rawCategory)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	series, err := h.Store.Series(r.Context(), city, category)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	seasonal, err := forecast.BestWorstMonths(series)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSeasonalDTO(city, category, seasonal))
}

// ImportHistory appends expense history from a JSON array in the request
// body. The blob is validated record by record before anything is written.
func (h *Handler) ImportHistory(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	records, err := factory.ParseHistory(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid history payload", err)
		return
	}

	if err := h.Store.AddRecords(r.Context(), records); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store history", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int{"imported": len(records)})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	h.invalidateCache()
	h.setScenarioID("")

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain error categories onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case finance.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case finance.IsInsufficientData(err):
		writeError(w, http.StatusUnprocessableEntity, "Not enough data", err)
	case finance.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
