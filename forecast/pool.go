/*
pool.go - Parallel per-category fitting for one city

PURPOSE:
  Fitting is embarrassingly parallel across (city, category) keys: every
  unit of work reads its own immutable series and writes its own result.
  This file dispatches the fixed set of categories to a bounded worker
  pool - no scheduler, no shared mutable state, just a jobs channel and a
  results channel.

DEGRADATION:
  A sparse category (InsufficientData) does not fail the city: its error is
  recorded per category and the remaining categories still forecast. Any
  other error aborts the request.

SEE ALSO:
  - forecaster.go: The per-series work each worker performs
*/
package forecast

import (
	"context"
	"sync"

	"github.com/reloconomics/relocation-engine/expense"
	"github.com/reloconomics/relocation-engine/finance"
)

// defaultWorkers bounds concurrent fits; five categories never need more.
const defaultWorkers = 4

// =============================================================================
// CITY FORECAST
// =============================================================================

// CityForecast aggregates per-category results for one city.
type CityForecast struct {
	City    string
	Horizon int

	// Results holds one entry per category that had enough data.
	Results map[expense.Category]*Result

	// Skipped maps sparse categories to their InsufficientData error.
	Skipped map[expense.Category]error

	// Totals is the per-horizon sum across forecast categories.
	Totals []Point
}

// =============================================================================
// PARALLEL FIT
// =============================================================================

type fitJob struct {
	category expense.Category
	series   expense.Series
}

type fitOutcome struct {
	category expense.Category
	result   *Result
	err      error
}

// FitAll fits and forecasts every category for one city in parallel.
func FitAll(ctx context.Context, store expense.HistoryStore, city string, horizon int) (*CityForecast, error) {
	if horizon < 1 || horizon > MaxHorizon {
		return nil, &finance.InvalidInputError{Field: "horizon", Reason: "horizon must be between 1 and 12"}
	}

	// Load all series up front; store access stays on the caller goroutine.
	jobs := make([]fitJob, 0, len(expense.Categories()))
	for _, category := range expense.Categories() {
		series, err := store.Series(ctx, city, category)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, fitJob{category: category, series: series})
	}

	jobCh := make(chan fitJob)
	outCh := make(chan fitOutcome, len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < defaultWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				result, err := FitAndForecast(job.series, horizon)
				outCh <- fitOutcome{category: job.category, result: result, err: err}
			}
		}()
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)
	wg.Wait()
	close(outCh)

	forecast := &CityForecast{
		City:    city,
		Horizon: horizon,
		Results: make(map[expense.Category]*Result),
		Skipped: make(map[expense.Category]error),
	}

	for outcome := range outCh {
		switch {
		case outcome.err == nil:
			outcome.result.City = city
			forecast.Results[outcome.category] = outcome.result
		case finance.IsInsufficientData(outcome.err):
			forecast.Skipped[outcome.category] = outcome.err
		default:
			return nil, outcome.err
		}
	}

	forecast.Totals = sumPoints(forecast.Results, horizon)
	return forecast, nil
}

// sumPoints adds category forecasts per horizon step. The calendar month is
// taken from any contributing result; all categories share the same axis.
func sumPoints(results map[expense.Category]*Result, horizon int) []Point {
	if len(results) == 0 {
		return nil
	}

	totals := make([]Point, horizon)
	// Canonical category order keeps float accumulation deterministic.
	for _, category := range expense.Categories() {
		result, ok := results[category]
		if !ok {
			continue
		}
		for i, p := range result.Points {
			totals[i].Horizon = p.Horizon
			totals[i].Month = p.Month
			totals[i].Amount += p.Amount
		}
	}
	return totals
}
