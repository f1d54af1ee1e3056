/*
costindex.go - Cost-of-living index baselines

PURPOSE:
  Derives a city's estimated monthly expenses per category from regional
  price parity indices, where 100 = national average. The index table and
  the national average dollar amounts arrive pre-parsed from a loader
  collaborator; this file only does the multiplication.

  amount(city, category) = national_average(category) * index(city, category) / 100

  A city missing an index for some category is treated as exactly average
  for that category.

SEE ALSO:
  - comparator.go: Compares the derived baselines between two cities
  - factory/: JSON to CostIndexTable conversion
*/
package expense

import (
	"sort"

	"github.com/reloconomics/relocation-engine/finance"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// COST INDEX TABLE
// =============================================================================

// CityIndex holds one city's regional price indices (100 = national average).
type CityIndex struct {
	Overall    decimal.Decimal
	Categories map[Category]decimal.Decimal
}

// CostIndexTable is the full reference table: per-city indices plus the
// national average monthly dollar amount per category.
type CostIndexTable struct {
	Cities           map[string]CityIndex
	NationalAverages CategoryAmounts
}

// CityNames returns all cities in the table, sorted.
func (t CostIndexTable) CityNames() []string {
	names := make([]string, 0, len(t.Cities))
	for name := range t.Cities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every tracked category has a national average and
// that no index is negative.
func (t CostIndexTable) Validate() error {
	for _, category := range Categories() {
		avg, ok := t.NationalAverages[category]
		if !ok {
			return &finance.InvalidInputError{Field: "national_averages", Reason: "missing category: " + string(category)}
		}
		if avg.IsNegative() {
			return &finance.InvalidInputError{Field: "national_averages", Reason: "negative average for " + string(category)}
		}
	}
	for city, idx := range t.Cities {
		if idx.Overall.IsNegative() {
			return &finance.InvalidInputError{Field: "cost_index", Reason: "negative overall index for " + city}
		}
		for category, value := range idx.Categories {
			if value.IsNegative() {
				return &finance.InvalidInputError{Field: "cost_index", Reason: "negative " + string(category) + " index for " + city}
			}
		}
	}
	return nil
}

// MonthlyExpenses derives the per-category monthly baseline for a city.
func (t CostIndexTable) MonthlyExpenses(city string) (CategoryAmounts, error) {
	idx, ok := t.Cities[city]
	if !ok {
		return nil, &finance.NotFoundError{Kind: "city", Key: city}
	}

	amounts := make(CategoryAmounts, len(Categories()))
	for _, category := range Categories() {
		index, ok := idx.Categories[category]
		if !ok {
			index = hundred // no index recorded: treat as national average
		}
		amounts[category] = t.NationalAverages[category].Mul(index).Div(hundred)
	}
	return amounts, nil
}
