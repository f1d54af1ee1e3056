/*
Package expense models monthly living costs and compares them across cities.

PURPOSE:
  This package holds the expense-side data model: the five tracked spending
  categories, immutable historical expense records, per-city cost-of-living
  indices, and the comparison arithmetic that turns two cities' baselines
  into per-category deltas and a discretionary-income figure.

KEY CONCEPTS IN THIS FILE (types.go):
  - Category: One of housing, food, transportation, healthcare, utilities
  - Record: An immutable (city, category, month) expense observation
  - Series: Ordered Records for one (city, category) pair
  - Percent: A ratio that may be undefined (zero baseline) - never NaN
  - HistoryStore: Read-only access to historical series, loaded elsewhere

DESIGN PRINCIPLES:
  1. Records are historical facts: never mutated, only read
  2. Precision: decimal.Decimal for dollar amounts
  3. Undefined is explicit: a Percent with Valid=false, not a zero or an Inf

SEE ALSO:
  - comparator.go: Delta and discretionary arithmetic
  - costindex.go: Index-based baseline derivation
  - store/memory.go: In-memory HistoryStore for tests and demos
  - forecast/: Consumes Series for model fitting
*/
package expense

import (
	"context"
	"time"

	"github.com/reloconomics/relocation-engine/finance"
	"github.com/shopspring/decimal"
)

// =============================================================================
// CATEGORIES
// =============================================================================

type Category string

const (
	CategoryHousing        Category = "housing"
	CategoryFood           Category = "food"
	CategoryTransportation Category = "transportation"
	CategoryHealthcare     Category = "healthcare"
	CategoryUtilities      Category = "utilities"
)

// Categories returns all tracked categories in canonical order.
func Categories() []Category {
	return []Category{
		CategoryHousing,
		CategoryFood,
		CategoryTransportation,
		CategoryHealthcare,
		CategoryUtilities,
	}
}

// ParseCategory validates a raw category string.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", &finance.InvalidInputError{Field: "category", Reason: "unknown category: " + s}
}

// =============================================================================
// HISTORICAL RECORDS
// =============================================================================

// Record is a single historical expense observation. MonthIndex is a
// monotonically increasing time index (not a calendar date); Month carries
// the calendar month-of-year for seasonality.
type Record struct {
	City       string
	Category   Category
	MonthIndex int
	Month      time.Month
	Amount     decimal.Decimal
}

// Series is a chronologically ordered sequence of Records for one
// (city, category) pair.
type Series []Record

// Validate checks that the series is non-empty-keyed, single-keyed, strictly
// increasing in MonthIndex, and carries valid calendar months.
func (s Series) Validate() error {
	for i, r := range s {
		if r.Month < time.January || r.Month > time.December {
			return &finance.InvalidInputError{Field: "month", Reason: "calendar month out of range"}
		}
		if r.Amount.IsNegative() {
			return &finance.InvalidInputError{Field: "amount", Reason: "negative expense amount"}
		}
		if i == 0 {
			continue
		}
		if r.City != s[0].City || r.Category != s[0].Category {
			return &finance.InvalidInputError{Field: "series", Reason: "series mixes cities or categories"}
		}
		if r.MonthIndex <= s[i-1].MonthIndex {
			return &finance.InvalidInputError{Field: "month_index", Reason: "month index must be strictly increasing"}
		}
	}
	return nil
}

// Amounts returns the dollar values in series order.
func (s Series) Amounts() []decimal.Decimal {
	out := make([]decimal.Decimal, len(s))
	for i, r := range s {
		out[i] = r.Amount
	}
	return out
}

// =============================================================================
// PERCENT - A ratio that may be undefined
// =============================================================================

// Percent is a ratio (0.146 means 14.6%). Valid is false when the ratio is
// undefined, e.g. a delta against a zero baseline. Callers must check Valid
// before using Ratio.
type Percent struct {
	Ratio decimal.Decimal
	Valid bool
}

// NewPercent returns a defined percent.
func NewPercent(ratio decimal.Decimal) Percent {
	return Percent{Ratio: ratio, Valid: true}
}

// UndefinedPercent is the sentinel for ratios with no meaningful value.
func UndefinedPercent() Percent { return Percent{} }

// =============================================================================
// HISTORY STORE - Read-only access to historical series
// =============================================================================

// CategoryAmounts maps each category to a monthly dollar amount.
type CategoryAmounts map[Category]decimal.Decimal

// Total sums all category amounts.
func (ca CategoryAmounts) Total() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range ca {
		total = total.Add(amount)
	}
	return total
}

// HistoryStore provides read access to historical expense series. The engine
// never writes through this interface; loading is a collaborator's job.
type HistoryStore interface {
	// Series returns the ordered series for one (city, category), or a
	// NotFound error when the city is unknown.
	Series(ctx context.Context, city string, category Category) (Series, error)

	// Cities returns all cities with historical data, sorted.
	Cities(ctx context.Context) ([]string, error)
}
