/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY REPRESENTATION:
  Domain money is decimal; DTOs expose float64 for JSON ergonomics. The
  conversion happens only at this boundary - no arithmetic is performed on
  the float values.

UNDEFINED METRICS:
  Ratios that have no defined value (percent change against a zero
  baseline, r-squared of a constant target) serialize as null via *float64
  rather than NaN, which encoding/json rejects.

SEE ALSO:
  - handlers.go: Uses these types
  - tax/calculator.go, expense/comparator.go, forecast/forecaster.go:
    The domain results these mirror
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/reloconomics/relocation-engine/expense"
	"github.com/reloconomics/relocation-engine/forecast"
	"github.com/reloconomics/relocation-engine/tax"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// TakeHomeRequest is the request to compute net pay.
type TakeHomeRequest struct {
	GrossIncome  decimal.Decimal `json:"gross_income"`
	FilingStatus string          `json:"filing_status"`
	StateCode    string          `json:"state_code"`
}

// CompareRequest is the request to compare two cities for one income.
type CompareRequest struct {
	GrossIncome  decimal.Decimal `json:"gross_income"`
	FilingStatus string          `json:"filing_status"`
	CityA        string          `json:"city_a"`
	StateA       string          `json:"state_a"`
	CityB        string          `json:"city_b"`
	StateB       string          `json:"state_b"`
}

// ForecastRequest is the request to forecast one city's expenses.
type ForecastRequest struct {
	City    string `json:"city"`
	Horizon int    `json:"horizon"`
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// TAX RESPONSE TYPES
// =============================================================================

// BracketShareDTO is one marginal band of the federal breakdown.
type BracketShareDTO struct {
	Rate   float64 `json:"rate"`
	Income float64 `json:"income"`
	Tax    float64 `json:"tax"`
}

// FederalDTO is the federal component of a take-home response.
type FederalDTO struct {
	StandardDeduction float64           `json:"standard_deduction"`
	TaxableIncome     float64           `json:"taxable_income"`
	Tax               float64           `json:"tax"`
	EffectiveRate     float64           `json:"effective_rate"`
	Breakdown         []BracketShareDTO `json:"breakdown"`
}

// FicaDTO is the payroll tax component.
type FicaDTO struct {
	SocialSecurity float64 `json:"social_security"`
	Medicare       float64 `json:"medicare"`
	Total          float64 `json:"total"`
}

// TakeHomeDTO is the complete take-home response.
type TakeHomeDTO struct {
	GrossIncome    float64    `json:"gross_income"`
	FilingStatus   string     `json:"filing_status"`
	StateCode      string     `json:"state_code"`
	Federal        FederalDTO `json:"federal"`
	StateTax       float64    `json:"state_tax"`
	Fica           FicaDTO    `json:"fica"`
	TotalTaxes     float64    `json:"total_taxes"`
	NetAnnual      float64    `json:"net_annual"`
	NetMonthly     float64    `json:"net_monthly"`
	OverallTaxRate float64    `json:"overall_tax_rate"`
}

// StateDTO is one state's tax rule summary.
type StateDTO struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	FlatRate *float64 `json:"flat_rate,omitempty"`
	Brackets int      `json:"brackets,omitempty"`
}

// =============================================================================
// COMPARISON RESPONSE TYPES
// =============================================================================

// CategoryDeltaDTO is the per-category difference between two cities.
type CategoryDeltaDTO struct {
	Category     string   `json:"category"`
	AmountA      float64  `json:"amount_a"`
	AmountB      float64  `json:"amount_b"`
	DeltaDollars float64  `json:"delta_dollars"`
	DeltaPercent *float64 `json:"delta_percent"` // null when baseline is zero
}

// DiscretionaryDTO is net pay minus committed expenses.
type DiscretionaryDTO struct {
	NetMonthly    float64  `json:"net_monthly"`
	TotalExpenses float64  `json:"total_expenses"`
	Amount        float64  `json:"amount"`
	IsDeficit     bool     `json:"is_deficit"`
	ExpenseRatio  *float64 `json:"expense_ratio"` // null when net is zero
}

// CitySideDTO is one city's half of a comparison.
type CitySideDTO struct {
	City          string             `json:"city"`
	NetAnnual     float64            `json:"net_annual"`
	NetMonthly    float64            `json:"net_monthly"`
	Expenses      map[string]float64 `json:"expenses"`
	TotalExpenses float64            `json:"total_expenses"`
	Discretionary DiscretionaryDTO   `json:"discretionary"`
}

// ComparisonDTO is the complete two-city response.
type ComparisonDTO struct {
	A          CitySideDTO        `json:"city_a"`
	B          CitySideDTO        `json:"city_b"`
	Deltas     []CategoryDeltaDTO `json:"deltas"`
	TotalDelta CategoryDeltaDTO   `json:"total_delta"`
}

// =============================================================================
// FORECAST RESPONSE TYPES
// =============================================================================

// ForecastPointDTO is one forecast step.
type ForecastPointDTO struct {
	Horizon int     `json:"horizon"`
	Month   string  `json:"month"`
	Amount  float64 `json:"amount"`
}

// CategoryForecastDTO is one category's forecast plus diagnostics.
type CategoryForecastDTO struct {
	Category          string             `json:"category"`
	Points            []ForecastPointDTO `json:"points"`
	MeanAbsoluteError float64            `json:"mean_absolute_error"`
	RSquared          *float64           `json:"r_squared"` // null when undefined
}

// CityForecastDTO is the full per-city forecast response.
type CityForecastDTO struct {
	City       string                `json:"city"`
	Horizon    int                   `json:"horizon"`
	Categories []CategoryForecastDTO `json:"categories"`
	Skipped    map[string]string     `json:"skipped,omitempty"`
	Totals     []ForecastPointDTO    `json:"totals"`
}

// SeasonalDTO is the month-of-year profile of one series.
type SeasonalDTO struct {
	City          string             `json:"city"`
	Category      string             `json:"category"`
	MonthlyMeans  map[string]float64 `json:"monthly_means"`
	Cheapest      []string           `json:"cheapest_months"`
	MostExpensive []string           `json:"most_expensive_months"`
	Variance      *float64           `json:"seasonal_variance"` // null when undefined
}

// =============================================================================
// SCENARIO AND ERROR TYPES
// =============================================================================

// ScenarioDTO describes one demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func f(d decimal.Decimal) float64 { return d.InexactFloat64() }

func percentPtr(p expense.Percent) *float64 {
	if !p.Valid {
		return nil
	}
	v := f(p.Ratio)
	return &v
}

func metricPtr(m forecast.Metric) *float64 {
	if !m.Valid {
		return nil
	}
	v := m.Value
	return &v
}

func toTakeHomeDTO(th *tax.TakeHome) TakeHomeDTO {
	breakdown := make([]BracketShareDTO, len(th.Federal.Breakdown))
	for i, share := range th.Federal.Breakdown {
		breakdown[i] = BracketShareDTO{
			Rate:   f(share.Rate),
			Income: f(share.Income),
			Tax:    f(share.Tax),
		}
	}

	return TakeHomeDTO{
		GrossIncome:  f(th.GrossIncome),
		FilingStatus: string(th.FilingStatus),
		StateCode:    th.StateCode,
		Federal: FederalDTO{
			StandardDeduction: f(th.Federal.StandardDeduction),
			TaxableIncome:     f(th.Federal.TaxableIncome),
			Tax:               f(th.Federal.Tax),
			EffectiveRate:     f(th.Federal.EffectiveRate),
			Breakdown:         breakdown,
		},
		StateTax: f(th.StateTax),
		Fica: FicaDTO{
			SocialSecurity: f(th.Fica.SocialSecurity),
			Medicare:       f(th.Fica.Medicare),
			Total:          f(th.Fica.Total),
		},
		TotalTaxes:     f(th.TotalTaxes),
		NetAnnual:      f(th.NetAnnual),
		NetMonthly:     f(th.NetMonthly),
		OverallTaxRate: f(th.OverallTaxRate),
	}
}

func toDeltaDTO(delta expense.CategoryDelta) CategoryDeltaDTO {
	return CategoryDeltaDTO{
		Category:     string(delta.Category),
		AmountA:      f(delta.AmountA),
		AmountB:      f(delta.AmountB),
		DeltaDollars: f(delta.DeltaDollars),
		DeltaPercent: percentPtr(delta.DeltaPercent),
	}
}

func toCitySideDTO(side expense.CitySide) CitySideDTO {
	expenses := make(map[string]float64, len(side.Expenses))
	for category, amount := range side.Expenses {
		expenses[string(category)] = f(amount)
	}

	return CitySideDTO{
		City:          side.City,
		NetAnnual:     f(side.NetAnnual),
		NetMonthly:    f(side.NetMonthly),
		Expenses:      expenses,
		TotalExpenses: f(side.TotalExpenses),
		Discretionary: DiscretionaryDTO{
			NetMonthly:    f(side.Discretionary.NetMonthly),
			TotalExpenses: f(side.Discretionary.TotalExpenses),
			Amount:        f(side.Discretionary.Amount),
			IsDeficit:     side.Discretionary.IsDeficit,
			ExpenseRatio:  percentPtr(side.Discretionary.ExpenseRatio),
		},
	}
}

func toComparisonDTO(cmp *expense.Comparison) ComparisonDTO {
	deltas := make([]CategoryDeltaDTO, len(cmp.Deltas))
	for i, delta := range cmp.Deltas {
		deltas[i] = toDeltaDTO(delta)
	}

	return ComparisonDTO{
		A:          toCitySideDTO(cmp.A),
		B:          toCitySideDTO(cmp.B),
		Deltas:     deltas,
		TotalDelta: toDeltaDTO(cmp.TotalDelta),
	}
}

func toPointDTOs(points []forecast.Point) []ForecastPointDTO {
	dtos := make([]ForecastPointDTO, len(points))
	for i, p := range points {
		dtos[i] = ForecastPointDTO{
			Horizon: p.Horizon,
			Month:   p.Month.String(),
			Amount:  p.Amount,
		}
	}
	return dtos
}

func toCityForecastDTO(cf *forecast.CityForecast) CityForecastDTO {
	dto := CityForecastDTO{
		City:    cf.City,
		Horizon: cf.Horizon,
		Totals:  toPointDTOs(cf.Totals),
	}

	// Canonical category order keeps responses stable
	for _, category := range expense.Categories() {
		if result, ok := cf.Results[category]; ok {
			dto.Categories = append(dto.Categories, CategoryForecastDTO{
				Category:          string(category),
				Points:            toPointDTOs(result.Points),
				MeanAbsoluteError: result.MeanAbsoluteError,
				RSquared:          metricPtr(result.RSquared),
			})
		}
	}

	if len(cf.Skipped) > 0 {
		dto.Skipped = make(map[string]string, len(cf.Skipped))
		for category, err := range cf.Skipped {
			dto.Skipped[string(category)] = err.Error()
		}
	}
	return dto
}

func toSeasonalDTO(city string, category expense.Category, s *forecast.Seasonal) SeasonalDTO {
	means := make(map[string]float64, len(s.MonthlyMeans))
	for month, mean := range s.MonthlyMeans {
		means[month.String()] = mean
	}

	return SeasonalDTO{
		City:          city,
		Category:      string(category),
		MonthlyMeans:  means,
		Cheapest:      monthNames(s.Cheapest),
		MostExpensive: monthNames(s.MostExpensive),
		Variance:      metricPtr(s.Variance),
	}
}

func monthNames(months []time.Month) []string {
	names := make([]string, len(months))
	for i, m := range months {
		names[i] = m.String()
	}
	return names
}
