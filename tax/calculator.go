/*
calculator.go - Progressive tax and FICA arithmetic

PURPOSE:
  Converts gross income + filing status + state into a full take-home
  breakdown. This is the bracket-walk core: each marginal rate applies only
  to the slice of income inside its bracket's [lower, upper) range, so no
  bracket's full range is ever taxed at a higher bracket's rate.

ALGORITHM:
  federal_tax = sum over brackets of
      rate_i * max(0, min(taxable, upper_i) - lower_i)
  where taxable = max(0, gross - standard_deduction).

  State tax is either gross * flat_rate or the same walk over the state's
  own table (no state standard deduction unless the table encodes one).

  FICA:
    social_security = min(gross, wage_base) * ss_rate
    medicare        = gross * medicare_rate
                    + max(0, gross - threshold) * additional_rate

EDGE CASES:
  - gross = 0: every component is zero, no division anywhere
  - gross < 0: rejected with InvalidInput, never clamped
  - net annual may be negative under a pathological custom table; that is
    surfaced as-is because it signals a data error upstream

SEE ALSO:
  - types.go: Table shapes and validation
  - expense/comparator.go: Consumes NetMonthly for discretionary income
*/
package tax

import (
	"github.com/reloconomics/relocation-engine/finance"
	"github.com/shopspring/decimal"
)

var months = decimal.NewFromInt(12)

// =============================================================================
// RESULT TYPES
// =============================================================================

// BracketShare records how much income fell in one bracket and the tax on it.
type BracketShare struct {
	Rate   decimal.Decimal
	Income decimal.Decimal
	Tax    decimal.Decimal
}

// FederalResult is the federal component of a take-home computation.
type FederalResult struct {
	StandardDeduction decimal.Decimal
	TaxableIncome     decimal.Decimal
	Tax               decimal.Decimal
	EffectiveRate     decimal.Decimal // tax / gross, 0 when gross is 0
	Breakdown         []BracketShare
}

// FicaResult is the payroll tax component.
type FicaResult struct {
	SocialSecurity decimal.Decimal
	Medicare       decimal.Decimal
	Total          decimal.Decimal
}

// TakeHome is the complete result of ComputeTakeHome.
type TakeHome struct {
	GrossIncome  decimal.Decimal
	FilingStatus FilingStatus
	StateCode    string

	Federal  FederalResult
	StateTax decimal.Decimal
	Fica     FicaResult

	TotalTaxes     decimal.Decimal
	NetAnnual      decimal.Decimal
	NetMonthly     decimal.Decimal
	OverallTaxRate decimal.Decimal // total taxes / gross, 0 when gross is 0
}

// =============================================================================
// BRACKET WALK
// =============================================================================

// walkBrackets applies each marginal rate to the slice of taxable income
// inside its bracket. Brackets are assumed validated: contiguous from 0,
// last one unbounded.
func walkBrackets(taxable decimal.Decimal, brackets BracketTable) (decimal.Decimal, []BracketShare) {
	total := decimal.Zero
	var shares []BracketShare

	for _, b := range brackets {
		if taxable.LessThanOrEqual(b.Lower) {
			break
		}
		top := taxable
		if !b.Unbounded() && b.Upper.LessThan(top) {
			top = b.Upper
		}
		inBracket := top.Sub(b.Lower)
		taxHere := inBracket.Mul(b.Rate)
		shares = append(shares, BracketShare{Rate: b.Rate, Income: inBracket, Tax: taxHere})
		total = total.Add(taxHere)
	}
	return total, shares
}

// =============================================================================
// COMPONENT CALCULATIONS
// =============================================================================

// FederalTax computes the federal component for a validated table.
func FederalTax(gross decimal.Decimal, status FilingStatus, table FederalTable) (FederalResult, error) {
	entry, ok := table[status]
	if !ok {
		return FederalResult{}, &finance.InvalidInputError{Field: "filing_status", Reason: "no federal table for status: " + string(status)}
	}

	taxable := gross.Sub(entry.StandardDeduction)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}

	total, shares := walkBrackets(taxable, entry.Brackets)

	effective := decimal.Zero
	if gross.IsPositive() {
		effective = total.Div(gross)
	}

	return FederalResult{
		StandardDeduction: entry.StandardDeduction,
		TaxableIncome:     taxable,
		Tax:               total,
		EffectiveRate:     effective,
		Breakdown:         shares,
	}, nil
}

// StateTax computes the state component. Flat rates apply to gross income;
// bracketed states walk their own table over gross income.
func StateTax(gross decimal.Decimal, stateCode string, states StateTable) (decimal.Decimal, error) {
	rule, ok := states[stateCode]
	if !ok {
		return decimal.Zero, &finance.InvalidInputError{Field: "state", Reason: "unknown state code: " + stateCode}
	}
	if rule.Flat() {
		return gross.Mul(*rule.FlatRate), nil
	}
	total, _ := walkBrackets(gross, rule.Brackets)
	return total, nil
}

// Fica computes Social Security and Medicare taxes. Social Security stops
// accruing at the wage base; the additional Medicare rate applies only to
// income above the threshold.
func Fica(gross decimal.Decimal, c FicaConstants) FicaResult {
	ssTaxable := gross
	if c.SocialSecurityWageBase.LessThan(ssTaxable) {
		ssTaxable = c.SocialSecurityWageBase
	}
	ss := ssTaxable.Mul(c.SocialSecurityRate)

	medicare := gross.Mul(c.MedicareRate)
	if gross.GreaterThan(c.AdditionalMedicareThreshold) {
		surtax := gross.Sub(c.AdditionalMedicareThreshold).Mul(c.AdditionalMedicareRate)
		medicare = medicare.Add(surtax)
	}

	return FicaResult{
		SocialSecurity: ss,
		Medicare:       medicare,
		Total:          ss.Add(medicare),
	}
}

// =============================================================================
// TAKE-HOME
// =============================================================================

// ComputeTakeHome runs all three components and nets them out.
func ComputeTakeHome(gross decimal.Decimal, status FilingStatus, stateCode string, tables Tables) (*TakeHome, error) {
	if gross.IsNegative() {
		return nil, &finance.InvalidInputError{Field: "gross_income", Reason: "gross income must be non-negative"}
	}
	if _, err := ParseFilingStatus(string(status)); err != nil {
		return nil, err
	}

	federal, err := FederalTax(gross, status, tables.Federal)
	if err != nil {
		return nil, err
	}
	state, err := StateTax(gross, stateCode, tables.States)
	if err != nil {
		return nil, err
	}
	fica := Fica(gross, tables.Fica)

	totalTaxes := federal.Tax.Add(state).Add(fica.Total)
	netAnnual := gross.Sub(totalTaxes)

	overall := decimal.Zero
	if gross.IsPositive() {
		overall = totalTaxes.Div(gross)
	}

	return &TakeHome{
		GrossIncome:    gross,
		FilingStatus:   status,
		StateCode:      stateCode,
		Federal:        federal,
		StateTax:       state,
		Fica:           fica,
		TotalTaxes:     totalTaxes,
		NetAnnual:      netAnnual,
		NetMonthly:     netAnnual.Div(months),
		OverallTaxRate: overall,
	}, nil
}
