/*
forecaster.go - Model fitting, evaluation, and chained multi-step forecasts

PURPOSE:
  Turns one (city, category) series into a ForecastResult: a fitted linear
  model, held-out evaluation metrics, and an ordered sequence of chained
  predictions.

SPLIT:
  Chronological, never randomized: the first 80% of feature rows train,
  the trailing 20% evaluate. Shuffling would leak future observations into
  training. Train size is floor(0.8 * n); the remainder evaluates. Fewer
  than 5 feature rows in total is an InsufficientData failure, not a crash.

CHAINED FORECASTING:
  To predict month t+1, the three most recent known-or-predicted amounts
  become the lags, the calendar month advances with wraparound, and the
  trend index continues the series axis. The prediction is then appended as
  if it were ground truth for the next step, so errors compound forward by
  design of the method - a single model produces every horizon. The loop is
  an explicit bounded iteration so each step is auditable in tests.

METRICS:
  mean_absolute_error = mean(|predicted - actual|) over the held-out rows.
  r_squared = 1 - SSR/SST around the mean of the held-out actuals; reported
  as undefined when the held-out targets are constant (zero variance).

SEE ALSO:
  - features.go: Feature construction
  - model.go: The least-squares solve
  - pool.go: Parallel fitting across categories
*/
package forecast

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/reloconomics/relocation-engine/expense"
	"github.com/reloconomics/relocation-engine/finance"
)

const (
	// MaxHorizon bounds how far ahead a single request may forecast.
	MaxHorizon = 12

	// minRows is the minimum number of feature rows needed to fit and
	// evaluate a model.
	minRows = 5
)

// trainShare numerator/denominator: floor(4n/5) rows train.
const (
	trainShareNum = 4
	trainShareDen = 5
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// Metric is a model diagnostic that may be undefined (e.g. r-squared on a
// constant evaluation target). Callers must check Valid before using Value.
type Metric struct {
	Value float64
	Valid bool
}

// Point is one forecast step.
type Point struct {
	Horizon int // 1-based steps ahead of the last observation
	Month   time.Month
	Amount  float64
}

// Result is the outcome of FitAndForecast for one (city, category).
type Result struct {
	City     string
	Category expense.Category

	Points []Point

	MeanAbsoluteError float64
	RSquared          Metric

	// Fitted coefficients, exposed for diagnostics:
	// [intercept, lag1, lag2, lag3, month, trend]
	Coefficients []float64
}

// At returns the point at the given horizon, if present.
func (r *Result) At(horizon int) (Point, bool) {
	for _, p := range r.Points {
		if p.Horizon == horizon {
			return p, true
		}
	}
	return Point{}, false
}

// HorizonTable selects the subsequence of points at the requested horizons.
// No separate model is fit per horizon; this is pure selection.
func (r *Result) HorizonTable(horizons []int) []Point {
	table := make([]Point, 0, len(horizons))
	for _, h := range horizons {
		if p, ok := r.At(h); ok {
			table = append(table, p)
		}
	}
	return table
}

// =============================================================================
// FIT AND FORECAST
// =============================================================================

// FitAndForecast builds features, fits on the chronological first 80%,
// evaluates on the trailing 20%, and chains `horizon` forecast steps.
func FitAndForecast(series expense.Series, horizon int) (*Result, error) {
	if horizon < 1 || horizon > MaxHorizon {
		return nil, &finance.InvalidInputError{Field: "horizon", Reason: "horizon must be between 1 and 12"}
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}

	rows := BuildFeatures(series)
	if len(rows) < minRows {
		return nil, &finance.InsufficientDataError{Have: len(rows), Need: minRows, Unit: "rows"}
	}

	trainN := len(rows) * trainShareNum / trainShareDen
	train, eval := rows[:trainN], rows[trainN:]

	model, err := fit(train)
	if err != nil {
		return nil, err
	}

	mae, r2 := evaluate(model, eval)
	points := chain(model, series, horizon)

	result := &Result{
		Points:            points,
		MeanAbsoluteError: mae,
		RSquared:          r2,
		Coefficients:      model.Coefficients[:],
	}
	if len(series) > 0 {
		result.City = series[0].City
		result.Category = series[0].Category
	}
	return result, nil
}

// evaluate computes MAE and r-squared on the held-out rows.
func evaluate(model *Model, eval []FeatureRow) (float64, Metric) {
	actuals := make([]float64, len(eval))
	absErrs := make([]float64, len(eval))
	ssr := 0.0
	for i, row := range eval {
		pred := model.Predict(row)
		actuals[i] = row.Target
		absErrs[i] = math.Abs(pred - row.Target)
		ssr += (pred - row.Target) * (pred - row.Target)
	}

	mae := stat.Mean(absErrs, nil)

	mean := stat.Mean(actuals, nil)
	sst := 0.0
	for _, a := range actuals {
		sst += (a - mean) * (a - mean)
	}
	if sst == 0 {
		// Constant evaluation target: total variance is zero, r-squared is
		// undefined rather than 0 or infinity.
		return mae, Metric{}
	}
	return mae, Metric{Value: 1 - ssr/sst, Valid: true}
}

// chain produces `horizon` steps, feeding each prediction back in as a lag.
func chain(model *Model, series expense.Series, horizon int) []Point {
	last := series[len(series)-1]

	// Rolling window of the three most recent known-or-predicted amounts,
	// most recent last.
	window := [lagCount]float64{
		series[len(series)-3].Amount.InexactFloat64(),
		series[len(series)-2].Amount.InexactFloat64(),
		series[len(series)-1].Amount.InexactFloat64(),
	}

	month := last.Month
	trend := len(series) // continues the 0-based series axis

	points := make([]Point, 0, horizon)
	for step := 1; step <= horizon; step++ {
		month = nextMonth(month)

		pred := model.Predict(FeatureRow{
			Lag1:  window[2],
			Lag2:  window[1],
			Lag3:  window[0],
			Month: month,
			Trend: trend,
		})
		if pred < 0 {
			pred = 0 // expenses cannot go negative
		}

		points = append(points, Point{Horizon: step, Month: month, Amount: pred})

		// The prediction becomes ground truth for the next step's lags.
		window[0], window[1], window[2] = window[1], window[2], pred
		trend++
	}
	return points
}
