package forecast_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reloconomics/relocation-engine/expense"
	"github.com/reloconomics/relocation-engine/finance"
	"github.com/reloconomics/relocation-engine/forecast"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// seriesOf builds a series for one (city, category) starting at the given
// calendar month, one record per month.
func seriesOf(startMonth time.Month, amounts ...float64) expense.Series {
	series := make(expense.Series, len(amounts))
	month := startMonth
	for i, amount := range amounts {
		series[i] = expense.Record{
			City:       "Austin",
			Category:   expense.CategoryFood,
			MonthIndex: i,
			Month:      month,
			Amount:     decimal.NewFromFloat(amount),
		}
		if month == time.December {
			month = time.January
		} else {
			month++
		}
	}
	return series
}

func constantSeries(n int, amount float64) expense.Series {
	amounts := make([]float64, n)
	for i := range amounts {
		amounts[i] = amount
	}
	return seriesOf(time.January, amounts...)
}

// =============================================================================
// FEATURE CONSTRUCTION
// =============================================================================

func TestBuildFeatures_TooShortYieldsEmpty(t *testing.T) {
	// GIVEN: a series of only 3 points (3 lags but no target)
	// WHEN: building features
	// THEN: the result is empty, not an error

	rows := forecast.BuildFeatures(seriesOf(time.January, 100, 110, 120))
	assert.Empty(t, rows)
}

func TestBuildFeatures_LengthFourYieldsOneRow(t *testing.T) {
	// GIVEN: exactly 4 chronological points
	// WHEN: building features
	// THEN: exactly one row: lags are the first three amounts (most recent
	//       first), target is the fourth, trend is the target's position

	rows := forecast.BuildFeatures(seriesOf(time.January, 100, 110, 120, 130))
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, 120.0, row.Lag1)
	assert.Equal(t, 110.0, row.Lag2)
	assert.Equal(t, 100.0, row.Lag3)
	assert.Equal(t, time.April, row.Month)
	assert.Equal(t, 3, row.Trend)
	assert.Equal(t, 130.0, row.Target)
}

func TestBuildFeatures_Deterministic(t *testing.T) {
	series := seriesOf(time.March, 100, 105, 98, 110, 120, 101, 99, 130)
	first := forecast.BuildFeatures(series)
	second := forecast.BuildFeatures(series)
	assert.Equal(t, first, second)
}

// =============================================================================
// FIT AND FORECAST
// =============================================================================

func TestFitAndForecast_ConstantSeriesForecastsConstant(t *testing.T) {
	// GIVEN: 13 months of constant amount 1000
	// WHEN: fitting and forecasting 6 months ahead
	// THEN: every horizon predicts 1000 and MAE is ~0

	result, err := forecast.FitAndForecast(constantSeries(13, 1000), 6)
	require.NoError(t, err)

	require.Len(t, result.Points, 6)
	for _, p := range result.Points {
		assert.InDelta(t, 1000.0, p.Amount, 1e-6, "horizon %d", p.Horizon)
	}
	assert.InDelta(t, 0.0, result.MeanAbsoluteError, 1e-6)

	// Constant evaluation target: zero variance, r-squared is undefined
	assert.False(t, result.RSquared.Valid)
}

func TestFitAndForecast_ConstantSeriesStableAcrossYearBoundary(t *testing.T) {
	// GIVEN: a constant series whose last observation is December, so the
	//        very first forecast step wraps the calendar to January
	// WHEN: forecasting a full year ahead
	// THEN: the model has collapsed to the series mean (zero slopes), so
	//       the month wrap cannot pull predictions off the constant

	amounts := make([]float64, 23)
	for i := range amounts {
		amounts[i] = 1000
	}
	series := seriesOf(time.February, amounts...)
	require.Equal(t, time.December, series[len(series)-1].Month)

	result, err := forecast.FitAndForecast(series, 12)
	require.NoError(t, err)

	require.Len(t, result.Points, 12)
	assert.Equal(t, time.January, result.Points[0].Month)
	for _, p := range result.Points {
		assert.InDelta(t, 1000.0, p.Amount, 1e-6, "horizon %d", p.Horizon)
	}
	assert.InDelta(t, 0.0, result.MeanAbsoluteError, 1e-6)

	// The fit is mean + zero slopes, not weight smeared onto month/trend
	require.Len(t, result.Coefficients, 6)
	assert.InDelta(t, 1000.0, result.Coefficients[0], 1e-6)
	for _, c := range result.Coefficients[1:] {
		assert.InDelta(t, 0.0, c, 1e-9)
	}
}

func TestFitAndForecast_LinearTrendContinues(t *testing.T) {
	// GIVEN: a perfectly linear series, 100 + 10*t over 20 months
	// WHEN: forecasting 3 months ahead
	// THEN: the chained predictions continue the line

	amounts := make([]float64, 20)
	for i := range amounts {
		amounts[i] = 100 + 10*float64(i)
	}
	result, err := forecast.FitAndForecast(seriesOf(time.January, amounts...), 3)
	require.NoError(t, err)

	require.Len(t, result.Points, 3)
	for i, p := range result.Points {
		want := 100 + 10*float64(20+i)
		assert.InDelta(t, want, p.Amount, 1e-3, "horizon %d", p.Horizon)
	}
	assert.InDelta(t, 0.0, result.MeanAbsoluteError, 1e-3)
}

func TestFitAndForecast_Deterministic(t *testing.T) {
	// GIVEN: identical inputs
	// WHEN: calling fit_and_forecast twice
	// THEN: results are bit-identical

	series := seriesOf(time.June, 900, 950, 1000, 980, 1020, 1100, 1050, 990, 1010, 1080, 1120, 1060, 1030)

	first, err := forecast.FitAndForecast(series, 12)
	require.NoError(t, err)
	second, err := forecast.FitAndForecast(series, 12)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFitAndForecast_HorizonValidation(t *testing.T) {
	series := constantSeries(13, 1000)

	_, err := forecast.FitAndForecast(series, 0)
	assert.ErrorIs(t, err, finance.ErrInvalidInput)

	_, err = forecast.FitAndForecast(series, 13)
	assert.ErrorIs(t, err, finance.ErrInvalidInput)

	_, err = forecast.FitAndForecast(series, -1)
	assert.ErrorIs(t, err, finance.ErrInvalidInput)
}

func TestFitAndForecast_InsufficientRows(t *testing.T) {
	// GIVEN: 8 points produce exactly 5 feature rows; 7 points produce 4
	// WHEN: fitting at and just below the minimum
	// THEN: 8 points fit, 7 points fail with InsufficientData

	_, err := forecast.FitAndForecast(constantSeries(8, 1000), 3)
	assert.NoError(t, err, "5 feature rows is the minimum")

	_, err = forecast.FitAndForecast(constantSeries(7, 1000), 3)
	assert.ErrorIs(t, err, finance.ErrInsufficientData)

	var insufficient *finance.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 4, insufficient.Have)
	assert.Equal(t, 5, insufficient.Need)
}

func TestFitAndForecast_MonthWraparound(t *testing.T) {
	// GIVEN: a series whose last observation is October
	// WHEN: forecasting 5 months ahead
	// THEN: forecast months are Nov, Dec, Jan, Feb, Mar

	series := seriesOf(time.January, 1000, 1010, 1020, 1000, 990, 1005, 1015, 1000, 1010, 1020)
	require.Equal(t, time.October, series[len(series)-1].Month)

	result, err := forecast.FitAndForecast(series, 5)
	require.NoError(t, err)

	months := make([]time.Month, 0, 5)
	for _, p := range result.Points {
		months = append(months, p.Month)
	}
	assert.Equal(t, []time.Month{time.November, time.December, time.January, time.February, time.March}, months)
}

func TestFitAndForecast_PredictionsNeverNegative(t *testing.T) {
	// GIVEN: a steeply declining series that a linear model extrapolates
	//        below zero
	// WHEN: forecasting far ahead
	// THEN: predictions floor at 0

	amounts := make([]float64, 15)
	for i := range amounts {
		amounts[i] = 1400 - 100*float64(i)
	}
	result, err := forecast.FitAndForecast(seriesOf(time.January, amounts...), 12)
	require.NoError(t, err)

	for _, p := range result.Points {
		assert.GreaterOrEqual(t, p.Amount, 0.0, "horizon %d", p.Horizon)
	}
	// The first step extrapolates the exact line one month below zero and
	// must come back clamped.
	assert.Equal(t, 0.0, result.Points[0].Amount)
}

func TestResult_HorizonTable(t *testing.T) {
	// The multi-horizon table is a subsequence of one chained result, not
	// separate per-horizon models.
	result, err := forecast.FitAndForecast(constantSeries(16, 1000), 12)
	require.NoError(t, err)

	table := result.HorizonTable([]int{3, 6, 9, 12})
	require.Len(t, table, 4)
	for i, wantHorizon := range []int{3, 6, 9, 12} {
		assert.Equal(t, wantHorizon, table[i].Horizon)
		full, ok := result.At(wantHorizon)
		require.True(t, ok)
		assert.Equal(t, full, table[i], "table entry must be the chained point itself")
	}
}
