/*
seasonal.go - Best and worst budgeting months

PURPOSE:
  Groups a historical series by calendar month-of-year across all years
  present, averages each month, and reports the cheapest and most expensive
  months. Ties are preserved: if two months share the minimal mean, both
  appear in the cheapest set rather than picking one arbitrarily.

  Independent of the forecaster; shares only the input series.

SEE ALSO:
  - forecaster.go: The model-based projection over the same series
*/
package forecast

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/reloconomics/relocation-engine/expense"
	"github.com/reloconomics/relocation-engine/finance"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// Seasonal is the month-of-year profile of one (city, category) series.
type Seasonal struct {
	// MonthlyMeans holds the arithmetic mean amount for every month that
	// appears in the series.
	MonthlyMeans map[time.Month]float64

	// Cheapest and MostExpensive are sorted ascending; ties produce
	// multiple entries.
	Cheapest      []time.Month
	MostExpensive []time.Month

	// Variance is (peak - low) / low, the seasonal swing relative to the
	// cheapest month. Undefined when the cheapest month's mean is zero.
	Variance Metric
}

// =============================================================================
// ANALYSIS
// =============================================================================

// BestWorstMonths computes the seasonal profile of a series.
func BestWorstMonths(series expense.Series) (*Seasonal, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, &finance.InsufficientDataError{Have: 0, Need: 1, Unit: "points"}
	}

	byMonth := make(map[time.Month][]float64)
	for _, r := range series {
		byMonth[r.Month] = append(byMonth[r.Month], r.Amount.InexactFloat64())
	}

	means := make(map[time.Month]float64, len(byMonth))
	for month, amounts := range byMonth {
		means[month] = stat.Mean(amounts, nil)
	}

	low, high := extremes(means)

	variance := Metric{}
	lowMean := means[low[0]]
	if lowMean != 0 {
		variance = Metric{Value: (means[high[0]] - lowMean) / lowMean, Valid: true}
	}

	return &Seasonal{
		MonthlyMeans:  means,
		Cheapest:      low,
		MostExpensive: high,
		Variance:      variance,
	}, nil
}

// extremes returns the months with minimal and maximal mean, each sorted
// ascending, preserving ties.
func extremes(means map[time.Month]float64) (low, high []time.Month) {
	first := true
	var min, max float64
	for month, mean := range means {
		switch {
		case first:
			min, max = mean, mean
			low, high = []time.Month{month}, []time.Month{month}
			first = false
			continue
		case mean < min:
			min = mean
			low = []time.Month{month}
		case mean == min:
			low = append(low, month)
		}
		switch {
		case mean > max:
			max = mean
			high = []time.Month{month}
		case mean == max:
			high = append(high, month)
		}
	}
	sortMonths(low)
	sortMonths(high)
	return low, high
}

func sortMonths(months []time.Month) {
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })
}
