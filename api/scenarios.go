/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario seeds the reference tables
	(2024 federal brackets, state rules, FICA constants, cost indices) and
	synthetic expense history with seasonal shape.

AVAILABLE SCENARIOS:

	tech-relocation:  Austin / San Francisco / Denver with two years of
	                  history - the classic high-cost vs low-cost move
	midwest-budget:   Tulsa / Columbus, including a deliberately sparse
	                  healthcare series to demonstrate graceful skipping

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Save reference blobs (validated on write)
 3. Generate deterministic monthly history per city and category
 4. Refresh the handler's table cache

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "tech-relocation"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
  - factory/loader.go: The JSON schemas the blobs follow
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/reloconomics/relocation-engine/expense"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "tech-relocation",
		Name:        "Tech Relocation",
		Description: "Austin vs San Francisco vs Denver with two years of expense history",
	},
	{
		ID:          "midwest-budget",
		Name:        "Midwest Budget",
		Description: "Tulsa vs Columbus, including a sparse series that cannot be forecast",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	id := h.scenarioID()
	if id == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == id {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:   id,
		Name: id,
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.invalidateCache()
	h.setScenarioID("")

	var err error
	switch req.ScenarioID {
	case "tech-relocation":
		err = h.loadTechRelocation(ctx)
	case "midwest-budget":
		err = h.loadMidwestBudget(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	if err := h.LoadTables(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to refresh tables", err)
		return
	}

	h.setScenarioID(req.ScenarioID)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "loaded",
		"scenario": req.ScenarioID,
	})
}

// =============================================================================
// REFERENCE DATA (tax year 2024)
// =============================================================================

const federal2024 = `{
	"single": {
		"standard_deduction": 14600,
		"brackets": [
			{"min": 0, "max": 11600, "rate": 0.10},
			{"min": 11600, "max": 47150, "rate": 0.12},
			{"min": 47150, "max": 100525, "rate": 0.22},
			{"min": 100525, "max": 191950, "rate": 0.24},
			{"min": 191950, "max": 243725, "rate": 0.32},
			{"min": 243725, "max": 609350, "rate": 0.35},
			{"min": 609350, "max": null, "rate": 0.37}
		]
	},
	"married_joint": {
		"standard_deduction": 29200,
		"brackets": [
			{"min": 0, "max": 23200, "rate": 0.10},
			{"min": 23200, "max": 94300, "rate": 0.12},
			{"min": 94300, "max": 201050, "rate": 0.22},
			{"min": 201050, "max": 383900, "rate": 0.24},
			{"min": 383900, "max": 487450, "rate": 0.32},
			{"min": 487450, "max": 731200, "rate": 0.35},
			{"min": 731200, "max": null, "rate": 0.37}
		]
	},
	"married_separate": {
		"standard_deduction": 14600,
		"brackets": [
			{"min": 0, "max": 11600, "rate": 0.10},
			{"min": 11600, "max": 47150, "rate": 0.12},
			{"min": 47150, "max": 100525, "rate": 0.22},
			{"min": 100525, "max": 191950, "rate": 0.24},
			{"min": 191950, "max": 243725, "rate": 0.32},
			{"min": 243725, "max": 365600, "rate": 0.35},
			{"min": 365600, "max": null, "rate": 0.37}
		]
	},
	"head_of_household": {
		"standard_deduction": 21900,
		"brackets": [
			{"min": 0, "max": 16550, "rate": 0.10},
			{"min": 16550, "max": 63100, "rate": 0.12},
			{"min": 63100, "max": 100500, "rate": 0.22},
			{"min": 100500, "max": 191950, "rate": 0.24},
			{"min": 191950, "max": 243700, "rate": 0.32},
			{"min": 243700, "max": 609350, "rate": 0.35},
			{"min": 609350, "max": null, "rate": 0.37}
		]
	}
}`

const states2024 = `{
	"TX": {"name": "Texas", "flat_rate": 0},
	"CO": {"name": "Colorado", "flat_rate": 0.044},
	"OK": {"name": "Oklahoma", "flat_rate": 0.0475},
	"CA": {"name": "California", "brackets": [
		{"min": 0, "max": 10412, "rate": 0.01},
		{"min": 10412, "max": 24684, "rate": 0.02},
		{"min": 24684, "max": 38959, "rate": 0.04},
		{"min": 38959, "max": 54081, "rate": 0.06},
		{"min": 54081, "max": 68350, "rate": 0.08},
		{"min": 68350, "max": 349137, "rate": 0.093},
		{"min": 349137, "max": null, "rate": 0.123}
	]},
	"OH": {"name": "Ohio", "brackets": [
		{"min": 0, "max": 26050, "rate": 0},
		{"min": 26050, "max": 100000, "rate": 0.0275},
		{"min": 100000, "max": null, "rate": 0.035}
	]}
}`

const fica2024 = `{
	"social_security_rate": 0.062,
	"social_security_wage_base": 168600,
	"medicare_rate": 0.0145,
	"additional_medicare_rate": 0.009,
	"additional_medicare_threshold": 200000
}`

const costIndices = `{
	"national_average_expenses": {
		"housing": 2000, "food": 600, "transportation": 450,
		"healthcare": 500, "utilities": 350
	},
	"cities": {
		"Austin":        {"overall_index": 103, "housing": 110, "food": 98,  "transportation": 102, "healthcare": 101, "utilities": 104},
		"San Francisco": {"overall_index": 170, "housing": 280, "food": 125, "transportation": 130, "healthcare": 120, "utilities": 115},
		"Denver":        {"overall_index": 112, "housing": 135, "food": 102, "transportation": 105, "healthcare": 104, "utilities": 98},
		"Tulsa":         {"overall_index": 86,  "housing": 70,  "food": 93,  "transportation": 95,  "healthcare": 97,  "utilities": 96},
		"Columbus":      {"overall_index": 91,  "housing": 82,  "food": 96,  "transportation": 98,  "healthcare": 99,  "utilities": 100}
	}
}`

func (h *Handler) seedReference(ctx context.Context) error {
	blobs := map[string]string{
		"federal":    federal2024,
		"states":     states2024,
		"fica":       fica2024,
		"cost_index": costIndices,
	}
	for kind, blob := range blobs {
		if err := h.Store.SaveReference(ctx, kind, []byte(blob)); err != nil {
			return fmt.Errorf("seed %s: %w", kind, err)
		}
	}
	return nil
}

// =============================================================================
// SYNTHETIC HISTORY
// =============================================================================

// cityBase is the per-category monthly baseline a city's history grows from.
var cityBases = map[string]map[expense.Category]float64{
	"Austin": {
		expense.CategoryHousing: 2200, expense.CategoryFood: 588,
		expense.CategoryTransportation: 459, expense.CategoryHealthcare: 505,
		expense.CategoryUtilities: 364,
	},
	"San Francisco": {
		expense.CategoryHousing: 5600, expense.CategoryFood: 750,
		expense.CategoryTransportation: 585, expense.CategoryHealthcare: 600,
		expense.CategoryUtilities: 402,
	},
	"Denver": {
		expense.CategoryHousing: 2700, expense.CategoryFood: 612,
		expense.CategoryTransportation: 472, expense.CategoryHealthcare: 520,
		expense.CategoryUtilities: 343,
	},
	"Tulsa": {
		expense.CategoryHousing: 1400, expense.CategoryFood: 558,
		expense.CategoryTransportation: 427, expense.CategoryHealthcare: 485,
		expense.CategoryUtilities: 336,
	},
	"Columbus": {
		expense.CategoryHousing: 1640, expense.CategoryFood: 576,
		expense.CategoryTransportation: 441, expense.CategoryHealthcare: 495,
		expense.CategoryUtilities: 350,
	},
}

// seasonalFactor shapes a category across the calendar year. Utilities peak
// in summer (cooling) and mid-winter (heating); food rises over the
// holidays; transportation climbs with summer travel.
func seasonalFactor(category expense.Category, month time.Month) float64 {
	switch category {
	case expense.CategoryUtilities:
		switch month {
		case time.June, time.July, time.August:
			return 1.20
		case time.December, time.January:
			return 1.15
		}
	case expense.CategoryFood:
		switch month {
		case time.November, time.December:
			return 1.05
		}
	case expense.CategoryTransportation:
		switch month {
		case time.June, time.July, time.August:
			return 1.08
		}
	}
	return 1.0
}

// monthlyDrift is the gentle cost inflation applied per elapsed month.
const monthlyDrift = 0.003

func syntheticHistory(city string, months int) []expense.Record {
	bases, ok := cityBases[city]
	if !ok {
		return nil
	}

	var records []expense.Record
	for _, category := range expense.Categories() {
		month := time.January
		for i := 0; i < months; i++ {
			amount := bases[category] * seasonalFactor(category, month) * (1 + monthlyDrift*float64(i))
			records = append(records, expense.Record{
				City:       city,
				Category:   category,
				MonthIndex: i,
				Month:      month,
				Amount:     decimal.NewFromFloat(amount).Round(2),
			})
			if month == time.December {
				month = time.January
			} else {
				month++
			}
		}
	}
	return records
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadTechRelocation(ctx context.Context) error {
	if err := h.seedReference(ctx); err != nil {
		return err
	}

	for _, city := range []string{"Austin", "San Francisco", "Denver"} {
		if err := h.Store.AddRecords(ctx, syntheticHistory(city, 24)); err != nil {
			return fmt.Errorf("seed history for %s: %w", city, err)
		}
	}
	return nil
}

func (h *Handler) loadMidwestBudget(ctx context.Context) error {
	if err := h.seedReference(ctx); err != nil {
		return err
	}

	if err := h.Store.AddRecords(ctx, syntheticHistory("Columbus", 24)); err != nil {
		return fmt.Errorf("seed history for Columbus: %w", err)
	}

	// Tulsa gets full series except healthcare, which is deliberately too
	// short to fit - the forecast endpoint reports it as skipped.
	var records []expense.Record
	for _, r := range syntheticHistory("Tulsa", 24) {
		if r.Category == expense.CategoryHealthcare && r.MonthIndex >= 3 {
			continue
		}
		records = append(records, r)
	}
	if err := h.Store.AddRecords(ctx, records); err != nil {
		return fmt.Errorf("seed history for Tulsa: %w", err)
	}
	return nil
}
