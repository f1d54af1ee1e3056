/*
Package forecast fits per-(city, category) expense models and projects
future monthly spending.

PURPOSE:
  The "projected state" half of a relocation comparison. A historical
  expense series becomes a supervised feature matrix (three lag terms,
  calendar month, trend index), a linear model is fit on the chronological
  first 80% and evaluated on the trailing 20%, and multi-month forecasts
  are produced by chaining: each prediction is fed back in as a lag for the
  next step.

KEY CONCEPTS IN THIS FILE (features.go):
  - FeatureRow: (lag1, lag2, lag3, month, trend) -> target amount
  - BuildFeatures: Series -> ordered feature rows, deterministically

DESIGN PRINCIPLES:
  1. Feature rows are ephemeral: built fresh per call, owned by the caller
  2. Determinism: identical input series produce byte-identical output
  3. Floating point at the boundary: dollar amounts convert from decimal to
     float64 here, because least-squares fitting is floating-point work;
     everything upstream of this package stays decimal

SEE ALSO:
  - model.go: Least-squares fit over feature rows
  - forecaster.go: Split, evaluation, and chained forecasting
  - seasonal.go: Month-of-year analysis over the same series
*/
package forecast

import (
	"time"

	"github.com/reloconomics/relocation-engine/expense"
)

// lagCount is the number of trailing observations used as predictors.
const lagCount = 3

// =============================================================================
// FEATURE ROW
// =============================================================================

// FeatureRow is one supervised training example. Trend is the record's
// 0-based position in the overall series; chained forecasting continues the
// same axis when appending synthetic points.
type FeatureRow struct {
	Lag1   float64
	Lag2   float64
	Lag3   float64
	Month  time.Month
	Trend  int
	Target float64
}

// =============================================================================
// FEATURE CONSTRUCTION
// =============================================================================

// BuildFeatures transforms an ordered series into feature rows. Each row
// needs three lags plus a target, so series shorter than 4 points yield an
// empty result.
func BuildFeatures(series expense.Series) []FeatureRow {
	if len(series) < lagCount+1 {
		return nil
	}

	amounts := make([]float64, len(series))
	for i, r := range series {
		amounts[i] = r.Amount.InexactFloat64()
	}

	rows := make([]FeatureRow, 0, len(series)-lagCount)
	for i := lagCount; i < len(series); i++ {
		rows = append(rows, FeatureRow{
			Lag1:   amounts[i-1],
			Lag2:   amounts[i-2],
			Lag3:   amounts[i-3],
			Month:  series[i].Month,
			Trend:  i,
			Target: amounts[i],
		})
	}
	return rows
}

// nextMonth advances a calendar month with wraparound (December -> January).
func nextMonth(m time.Month) time.Month {
	if m == time.December {
		return time.January
	}
	return m + 1
}
