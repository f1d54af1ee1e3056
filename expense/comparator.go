/*
comparator.go - Two-city expense deltas and discretionary income

PURPOSE:
  The "current state" half of a relocation comparison. Given two cities'
  monthly category baselines and each city's net monthly take-home, this
  produces per-category dollar/percent deltas, a discretionary-income
  figure per city, and a deficit flag.

CONVENTIONS:
  - Deltas are signed from location A's perspective: positive means B costs
    more than A for that category.
  - delta_percent is relative to A's value. If A's value is 0 the percent is
    undefined and reported as Percent{Valid: false}, never a division result.
  - is_deficit is a pure comparison (expenses > net monthly), no hysteresis.

SEE ALSO:
  - costindex.go: Where the baselines come from
  - tax/calculator.go: Where NetMonthly comes from
*/
package expense

import (
	"github.com/reloconomics/relocation-engine/tax"
	"github.com/shopspring/decimal"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// CategoryDelta is the per-category difference between two cities.
type CategoryDelta struct {
	Category     Category
	AmountA      decimal.Decimal
	AmountB      decimal.Decimal
	DeltaDollars decimal.Decimal // B - A
	DeltaPercent Percent         // relative to A; undefined when A is 0
}

// Discretionary is net take-home minus committed monthly expenses.
type Discretionary struct {
	NetMonthly    decimal.Decimal
	TotalExpenses decimal.Decimal
	Amount        decimal.Decimal
	IsDeficit     bool
	ExpenseRatio  Percent // expenses / net monthly; undefined when net is 0
}

// CitySide is one city's half of a Comparison.
type CitySide struct {
	City          string
	NetAnnual     decimal.Decimal
	NetMonthly    decimal.Decimal
	Expenses      CategoryAmounts
	TotalExpenses decimal.Decimal
	Discretionary Discretionary
}

// Comparison is the complete two-city current-state result.
type Comparison struct {
	A          CitySide
	B          CitySide
	Deltas     []CategoryDelta
	TotalDelta CategoryDelta // across all categories combined
}

// =============================================================================
// COMPARISON
// =============================================================================

// Compare computes per-category deltas of b against a, in canonical category
// order. Missing categories are treated as zero.
func Compare(a, b CategoryAmounts) []CategoryDelta {
	deltas := make([]CategoryDelta, 0, len(Categories()))
	for _, category := range Categories() {
		deltas = append(deltas, deltaFor(category, a[category], b[category]))
	}
	return deltas
}

func deltaFor(category Category, amountA, amountB decimal.Decimal) CategoryDelta {
	delta := amountB.Sub(amountA)
	percent := UndefinedPercent()
	if !amountA.IsZero() {
		percent = NewPercent(delta.Div(amountA))
	}
	return CategoryDelta{
		Category:     category,
		AmountA:      amountA,
		AmountB:      amountB,
		DeltaDollars: delta,
		DeltaPercent: percent,
	}
}

// ComputeDiscretionary nets monthly expenses against take-home pay.
func ComputeDiscretionary(netMonthly, totalExpenses decimal.Decimal) Discretionary {
	ratio := UndefinedPercent()
	if !netMonthly.IsZero() {
		ratio = NewPercent(totalExpenses.Div(netMonthly))
	}
	return Discretionary{
		NetMonthly:    netMonthly,
		TotalExpenses: totalExpenses,
		Amount:        netMonthly.Sub(totalExpenses),
		IsDeficit:     totalExpenses.GreaterThan(netMonthly),
		ExpenseRatio:  ratio,
	}
}

// BuildComparison assembles the full current-state view for two cities from
// their take-home results and the cost index table.
func BuildComparison(cityA, cityB string, takeHomeA, takeHomeB *tax.TakeHome, indices CostIndexTable) (*Comparison, error) {
	sideA, err := buildSide(cityA, takeHomeA, indices)
	if err != nil {
		return nil, err
	}
	sideB, err := buildSide(cityB, takeHomeB, indices)
	if err != nil {
		return nil, err
	}

	totalDelta := deltaFor("", sideA.TotalExpenses, sideB.TotalExpenses)

	return &Comparison{
		A:          sideA,
		B:          sideB,
		Deltas:     Compare(sideA.Expenses, sideB.Expenses),
		TotalDelta: totalDelta,
	}, nil
}

func buildSide(city string, takeHome *tax.TakeHome, indices CostIndexTable) (CitySide, error) {
	expenses, err := indices.MonthlyExpenses(city)
	if err != nil {
		return CitySide{}, err
	}
	total := expenses.Total()
	return CitySide{
		City:          city,
		NetAnnual:     takeHome.NetAnnual,
		NetMonthly:    takeHome.NetMonthly,
		Expenses:      expenses,
		TotalExpenses: total,
		Discretionary: ComputeDiscretionary(takeHome.NetMonthly, total),
	}, nil
}
