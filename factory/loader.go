/*
Package factory provides JSON to domain-table conversion.

PURPOSE:
  Converts JSON reference data (federal brackets, state rules, FICA
  constants, cost-of-living indices, expense history) into validated
  in-memory tables. This is the loader collaborator the computation
  packages rely on: they only ever see pre-validated structs and never
  read a file themselves, which keeps them trivially unit-testable with
  synthetic tables.

WHY JSON?
  - The tables are externally maintained, human-editable records
  - Analysts can update a tax year without code changes
  - Easy to store as blobs in the reference-data database

JSON SCHEMAS:
  Federal table:
    {
      "single": {
        "standard_deduction": 14600,
        "brackets": [
          {"min": 0, "max": 11000, "rate": 0.10},
          {"min": 11000, "max": null, "rate": 0.12}
        ]
      },
      ...
    }

  State table:
    {
      "TX": {"name": "Texas", "flat_rate": 0},
      "CA": {"name": "California", "brackets": [...]}
    }

  FICA constants:
    {
      "social_security_rate": 0.062,
      "social_security_wage_base": 168600,
      "medicare_rate": 0.0145,
      "additional_medicare_rate": 0.009,
      "additional_medicare_threshold": 200000
    }

  Cost index table:
    {
      "national_average_expenses": {"housing": 2000, ...},
      "cities": {
        "Austin": {"overall_index": 103, "housing": 110, ...}
      }
    }

  Expense history: array of
    {"city": "Austin", "category": "food", "month_index": 0,
     "month": 1, "amount": 520.50}

KEY FEATURES:
  - Validates structure and runs the domain Validate() before returning
  - null/absent "max" means an unbounded top bracket
  - Helpful errors naming the offending field

SEE ALSO:
  - tax/types.go: Table shapes and invariants
  - expense/costindex.go: Index table shape
  - store/sqlite: Persists these JSON blobs and replays them through here
*/
package factory

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/reloconomics/relocation-engine/expense"
	"github.com/reloconomics/relocation-engine/tax"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// BracketJSON is one marginal-rate band. Max null or absent = unbounded.
type BracketJSON struct {
	Min  decimal.Decimal  `json:"min"`
	Max  *decimal.Decimal `json:"max"`
	Rate decimal.Decimal  `json:"rate"`
}

// StatusEntryJSON is one filing status' federal entry.
type StatusEntryJSON struct {
	StandardDeduction decimal.Decimal `json:"standard_deduction"`
	Brackets          []BracketJSON   `json:"brackets"`
}

// StateRuleJSON is one state's rule: exactly one of flat_rate/brackets.
type StateRuleJSON struct {
	Name     string           `json:"name"`
	FlatRate *decimal.Decimal `json:"flat_rate,omitempty"`
	Brackets []BracketJSON    `json:"brackets,omitempty"`
}

// FicaJSON mirrors tax.FicaConstants.
type FicaJSON struct {
	SocialSecurityRate          decimal.Decimal `json:"social_security_rate"`
	SocialSecurityWageBase      decimal.Decimal `json:"social_security_wage_base"`
	MedicareRate                decimal.Decimal `json:"medicare_rate"`
	AdditionalMedicareRate      decimal.Decimal `json:"additional_medicare_rate"`
	AdditionalMedicareThreshold decimal.Decimal `json:"additional_medicare_threshold"`
}

// costIndexJSON is the raw cost-of-living document. Each city's category
// keys sit beside its overall index, so cities unmarshal into raw maps.
type costIndexJSON struct {
	NationalAverages map[string]decimal.Decimal            `json:"national_average_expenses"`
	Cities           map[string]map[string]decimal.Decimal `json:"cities"`
}

// HistoryRecordJSON is one historical expense observation.
type HistoryRecordJSON struct {
	City       string          `json:"city"`
	Category   string          `json:"category"`
	MonthIndex int             `json:"month_index"`
	Month      int             `json:"month"`
	Amount     decimal.Decimal `json:"amount"`
}

// =============================================================================
// PARSERS
// =============================================================================

// ParseFederalTable converts federal bracket JSON into a validated table.
func ParseFederalTable(raw []byte) (tax.FederalTable, error) {
	var schema map[string]StatusEntryJSON
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("federal table: %w", err)
	}

	table := make(tax.FederalTable, len(schema))
	for rawStatus, entry := range schema {
		status, err := tax.ParseFilingStatus(rawStatus)
		if err != nil {
			return nil, err
		}
		table[status] = tax.StatusEntry{
			StandardDeduction: entry.StandardDeduction,
			Brackets:          toBrackets(entry.Brackets),
		}
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// ParseStateTable converts state rule JSON into a validated table.
func ParseStateTable(raw []byte) (tax.StateTable, error) {
	var schema map[string]StateRuleJSON
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("state table: %w", err)
	}

	table := make(tax.StateTable, len(schema))
	for code, rule := range schema {
		table[code] = tax.StateRule{
			Name:     rule.Name,
			FlatRate: rule.FlatRate,
			Brackets: toBrackets(rule.Brackets),
		}
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// ParseFicaConstants converts FICA JSON into validated constants.
func ParseFicaConstants(raw []byte) (tax.FicaConstants, error) {
	var schema FicaJSON
	if err := json.Unmarshal(raw, &schema); err != nil {
		return tax.FicaConstants{}, fmt.Errorf("fica constants: %w", err)
	}

	constants := tax.FicaConstants{
		SocialSecurityRate:          schema.SocialSecurityRate,
		SocialSecurityWageBase:      schema.SocialSecurityWageBase,
		MedicareRate:                schema.MedicareRate,
		AdditionalMedicareRate:      schema.AdditionalMedicareRate,
		AdditionalMedicareThreshold: schema.AdditionalMedicareThreshold,
	}
	if err := constants.Validate(); err != nil {
		return tax.FicaConstants{}, err
	}
	return constants, nil
}

// ParseCostIndexTable converts cost-of-living JSON into a validated table.
// Each city object carries "overall_index" plus one key per category.
func ParseCostIndexTable(raw []byte) (expense.CostIndexTable, error) {
	var schema costIndexJSON
	if err := json.Unmarshal(raw, &schema); err != nil {
		return expense.CostIndexTable{}, fmt.Errorf("cost index table: %w", err)
	}

	table := expense.CostIndexTable{
		Cities:           make(map[string]expense.CityIndex, len(schema.Cities)),
		NationalAverages: make(expense.CategoryAmounts, len(schema.NationalAverages)),
	}

	for rawCategory, amount := range schema.NationalAverages {
		category, err := expense.ParseCategory(rawCategory)
		if err != nil {
			return expense.CostIndexTable{}, err
		}
		table.NationalAverages[category] = amount
	}

	for city, values := range schema.Cities {
		idx := expense.CityIndex{Categories: make(map[expense.Category]decimal.Decimal)}
		for k, v := range values {
			if k == "overall_index" {
				idx.Overall = v
				continue
			}
			category, err := expense.ParseCategory(k)
			if err != nil {
				return expense.CostIndexTable{}, err
			}
			idx.Categories[category] = v
		}
		table.Cities[city] = idx
	}

	if err := table.Validate(); err != nil {
		return expense.CostIndexTable{}, err
	}
	return table, nil
}

// ParseHistory converts an expense history JSON array into validated,
// chronologically sorted records.
func ParseHistory(raw []byte) ([]expense.Record, error) {
	var schema []HistoryRecordJSON
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("expense history: %w", err)
	}

	records := make([]expense.Record, 0, len(schema))
	for _, r := range schema {
		category, err := expense.ParseCategory(r.Category)
		if err != nil {
			return nil, err
		}
		records = append(records, expense.Record{
			City:       r.City,
			Category:   category,
			MonthIndex: r.MonthIndex,
			Month:      time.Month(r.Month),
			Amount:     r.Amount,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].MonthIndex < records[j].MonthIndex
	})

	// Validate each (city, category) series independently
	grouped := make(map[string]expense.Series)
	for _, r := range records {
		k := r.City + "/" + string(r.Category)
		grouped[k] = append(grouped[k], r)
	}
	for _, series := range grouped {
		if err := series.Validate(); err != nil {
			return nil, err
		}
	}

	return records, nil
}

func toBrackets(schema []BracketJSON) tax.BracketTable {
	brackets := make(tax.BracketTable, 0, len(schema))
	for _, b := range schema {
		bracket := tax.Bracket{Lower: b.Min, Rate: b.Rate}
		if b.Max != nil {
			bracket.Upper = *b.Max
		}
		brackets = append(brackets, bracket)
	}
	return brackets
}
