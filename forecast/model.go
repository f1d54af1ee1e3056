/*
model.go - Ordinary least squares over feature rows

PURPOSE:
  Fits the linear model
      amount = b0 + b1*lag1 + b2*lag2 + b3*lag3 + b4*month + b5*trend
  minimizing squared error over the training rows.

  The intercept is not a design column: features and target are centered
  on their means, the slopes are solved on the centered system, and the
  intercept is recovered as ybar - xbar . beta afterward. This matters on
  degenerate input - the lag columns of a flat series are perfectly
  collinear (lag1 = lag2 = lag3 everywhere), leaving infinitely many
  least-squares solutions. Centering makes the flat series' centered
  target all zeros, so the minimum-norm solve returns zero slopes and the
  model collapses to the series mean instead of smearing weight onto the
  month and trend columns, which would drift once the calendar wraps past
  December.

  The centered solve itself goes through the SVD pseudo-inverse rather
  than QR or the normal equations, since QR also rejects rank-deficient
  designs.

SEE ALSO:
  - forecaster.go: Train/eval split and chained prediction
*/
package forecast

import (
	"gonum.org/v1/gonum/mat"

	"github.com/reloconomics/relocation-engine/finance"
)

// featureCount is the number of predictors excluding the intercept.
const featureCount = 5

// =============================================================================
// LINEAR MODEL
// =============================================================================

// Model is a fitted linear expense model.
type Model struct {
	// Coefficients: [intercept, lag1, lag2, lag3, month, trend]
	Coefficients [featureCount + 1]float64
}

// designRow is the model input vector for one feature row.
func designRow(row FeatureRow) []float64 {
	return []float64{1, row.Lag1, row.Lag2, row.Lag3, float64(row.Month), float64(row.Trend)}
}

// features is the predictor vector without the intercept column.
func features(row FeatureRow) []float64 {
	return []float64{row.Lag1, row.Lag2, row.Lag3, float64(row.Month), float64(row.Trend)}
}

// fit solves for the slopes on mean-centered features and target, then
// recovers the intercept from the means.
func fit(rows []FeatureRow) (*Model, error) {
	if len(rows) == 0 {
		return nil, &finance.InsufficientDataError{Have: 0, Need: 1, Unit: "rows"}
	}

	n := len(rows)

	// Column means of the predictors and the target
	var xbar [featureCount]float64
	ybar := 0.0
	for _, row := range rows {
		for j, v := range features(row) {
			xbar[j] += v
		}
		ybar += row.Target
	}
	for j := range xbar {
		xbar[j] /= float64(n)
	}
	ybar /= float64(n)

	x := mat.NewDense(n, featureCount, nil)
	y := mat.NewVecDense(n, nil)
	for i, row := range rows {
		for j, v := range features(row) {
			x.Set(i, j, v-xbar[j])
		}
		y.SetVec(i, row.Target-ybar)
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, &finance.InsufficientDataError{Have: n, Need: featureCount, Unit: "rows"}
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)

	// Tolerance for treating a singular value as zero, following the usual
	// max(dim) * eps * sigma_max rule.
	const eps = 2.220446049250313e-16
	tol := float64(max(n, featureCount)) * eps * values[0]

	// beta = V * diag(1/sigma) * U^T * y, dropping near-zero singular values
	k := len(values)
	uty := mat.NewVecDense(k, nil)
	uty.MulVec(u.T(), y)
	for i := 0; i < k; i++ {
		if values[i] > tol {
			uty.SetVec(i, uty.AtVec(i)/values[i])
		} else {
			uty.SetVec(i, 0)
		}
	}

	beta := mat.NewVecDense(featureCount, nil)
	beta.MulVec(&v, uty)

	m := &Model{}
	intercept := ybar
	for j := 0; j < featureCount; j++ {
		m.Coefficients[j+1] = beta.AtVec(j)
		intercept -= xbar[j] * beta.AtVec(j)
	}
	m.Coefficients[0] = intercept
	return m, nil
}

// Predict evaluates the model on one feature row (Target is ignored).
func (m *Model) Predict(row FeatureRow) float64 {
	x := designRow(row)
	sum := 0.0
	for i, c := range m.Coefficients {
		sum += c * x[i]
	}
	return sum
}
