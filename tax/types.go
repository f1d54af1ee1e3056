/*
Package tax computes US income tax estimates for relocation comparisons.

PURPOSE:
  This package contains the types and algorithms for estimating federal
  income tax, state income tax, and FICA payroll taxes from a gross salary
  and filing status. The output is an annual and monthly take-home figure
  that the expense comparison layer builds on.

KEY CONCEPTS IN THIS FILE (types.go):
  - FilingStatus: Which federal bracket table and standard deduction apply
  - Bracket/BracketTable: Ordered marginal-rate bands covering [0, inf)
  - FederalTable: Per-status bracket tables plus standard deductions
  - StateRule: Flat rate or bracketed, one representation per state
  - FicaConstants: Social Security and Medicare rates and thresholds

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors on money
  2. Tables are data: All rates arrive pre-parsed from a loader collaborator;
     nothing here reads files or hard-codes a tax year
  3. Validation up front: Tables are validated once on load, so the
     calculator can walk them without re-checking shape

USAGE:
  tables := tax.Tables{Federal: fed, States: states, Fica: fica}
  result, err := tax.ComputeTakeHome(gross, tax.StatusSingle, "TX", tables)

SEE ALSO:
  - calculator.go: Bracket-walk and FICA arithmetic
  - errors.go: Error taxonomy
  - factory/: JSON to table conversion
*/
package tax

import (
	"sort"

	"github.com/reloconomics/relocation-engine/finance"
	"github.com/shopspring/decimal"
)

// =============================================================================
// FILING STATUS
// =============================================================================

type FilingStatus string

const (
	StatusSingle          FilingStatus = "single"
	StatusMarriedJoint    FilingStatus = "married_joint"
	StatusMarriedSeparate FilingStatus = "married_separate"
	StatusHeadOfHousehold FilingStatus = "head_of_household"
)

// FilingStatuses returns all valid statuses in a stable order.
func FilingStatuses() []FilingStatus {
	return []FilingStatus{
		StatusSingle,
		StatusMarriedJoint,
		StatusMarriedSeparate,
		StatusHeadOfHousehold,
	}
}

// ParseFilingStatus validates a raw status string.
func ParseFilingStatus(s string) (FilingStatus, error) {
	for _, fs := range FilingStatuses() {
		if string(fs) == s {
			return fs, nil
		}
	}
	return "", &finance.InvalidInputError{Field: "filing_status", Reason: "unknown filing status: " + s}
}

// =============================================================================
// BRACKETS
// =============================================================================

// Bracket is a single marginal-rate band. Upper equal to decimal.Zero on the
// last bracket means unbounded.
type Bracket struct {
	Lower decimal.Decimal
	Upper decimal.Decimal // zero = unbounded (top bracket only)
	Rate  decimal.Decimal
}

// Unbounded reports whether this bracket has no upper bound.
func (b Bracket) Unbounded() bool { return b.Upper.IsZero() }

// BracketTable is an ordered sequence of contiguous brackets covering [0, inf).
type BracketTable []Bracket

// Validate enforces the table invariants: first bracket starts at 0, bounds
// are contiguous and non-overlapping, the last bracket is unbounded, and
// rates are non-decreasing.
func (t BracketTable) Validate() error {
	if len(t) == 0 {
		return &finance.InvalidInputError{Field: "brackets", Reason: "empty bracket table"}
	}
	if !t[0].Lower.IsZero() {
		return &finance.InvalidInputError{Field: "brackets", Reason: "first bracket must start at 0"}
	}
	for i, b := range t {
		last := i == len(t)-1
		if last {
			if !b.Upper.IsZero() {
				return &finance.InvalidInputError{Field: "brackets", Reason: "last bracket must be unbounded"}
			}
		} else {
			if b.Upper.LessThanOrEqual(b.Lower) {
				return &finance.InvalidInputError{Field: "brackets", Reason: "bracket upper bound must exceed lower bound"}
			}
			if !t[i+1].Lower.Equal(b.Upper) {
				return &finance.InvalidInputError{Field: "brackets", Reason: "brackets must be contiguous"}
			}
		}
		if b.Rate.IsNegative() {
			return &finance.InvalidInputError{Field: "brackets", Reason: "negative marginal rate"}
		}
		if i > 0 && b.Rate.LessThan(t[i-1].Rate) {
			return &finance.InvalidInputError{Field: "brackets", Reason: "marginal rates must be non-decreasing"}
		}
	}
	return nil
}

// =============================================================================
// FEDERAL TABLE
// =============================================================================

// StatusEntry holds the bracket table and standard deduction for one status.
type StatusEntry struct {
	StandardDeduction decimal.Decimal
	Brackets          BracketTable
}

// FederalTable maps each filing status to its entry.
type FederalTable map[FilingStatus]StatusEntry

// Validate checks every entry's bracket table.
func (ft FederalTable) Validate() error {
	for status, entry := range ft {
		if _, err := ParseFilingStatus(string(status)); err != nil {
			return err
		}
		if entry.StandardDeduction.IsNegative() {
			return &finance.InvalidInputError{Field: "standard_deduction", Reason: "negative standard deduction"}
		}
		if err := entry.Brackets.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// STATE RULES
// =============================================================================

// StateRule is either a flat rate on gross income or a bracketed table on
// gross income. Exactly one representation is active.
type StateRule struct {
	Name     string
	FlatRate *decimal.Decimal // nil when bracketed
	Brackets BracketTable     // empty when flat
}

// Flat reports whether this state uses a single flat rate.
func (r StateRule) Flat() bool { return r.FlatRate != nil }

// Validate checks that exactly one representation is present.
func (r StateRule) Validate() error {
	switch {
	case r.FlatRate != nil && len(r.Brackets) > 0:
		return &finance.InvalidInputError{Field: "state_rule", Reason: "state rule has both flat rate and brackets"}
	case r.FlatRate == nil && len(r.Brackets) == 0:
		return &finance.InvalidInputError{Field: "state_rule", Reason: "state rule has neither flat rate nor brackets"}
	case r.FlatRate != nil && r.FlatRate.IsNegative():
		return &finance.InvalidInputError{Field: "state_rule", Reason: "negative flat rate"}
	case len(r.Brackets) > 0:
		return r.Brackets.Validate()
	}
	return nil
}

// StateTable maps two-letter state codes to their rule.
type StateTable map[string]StateRule

// Codes returns all state codes sorted alphabetically.
func (st StateTable) Codes() []string {
	codes := make([]string, 0, len(st))
	for code := range st {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Validate checks every rule.
func (st StateTable) Validate() error {
	for code, rule := range st {
		if len(code) != 2 {
			return &finance.InvalidInputError{Field: "state_code", Reason: "state code must be two letters: " + code}
		}
		if err := rule.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// FICA CONSTANTS
// =============================================================================

// FicaConstants holds payroll tax rates and thresholds for a tax year.
type FicaConstants struct {
	SocialSecurityRate          decimal.Decimal
	SocialSecurityWageBase      decimal.Decimal
	MedicareRate                decimal.Decimal
	AdditionalMedicareRate      decimal.Decimal
	AdditionalMedicareThreshold decimal.Decimal
}

// Validate enforces wage base and threshold positivity.
func (f FicaConstants) Validate() error {
	if !f.SocialSecurityWageBase.IsPositive() {
		return &finance.InvalidInputError{Field: "social_security_wage_base", Reason: "wage base must be positive"}
	}
	if !f.AdditionalMedicareThreshold.IsPositive() {
		return &finance.InvalidInputError{Field: "additional_medicare_threshold", Reason: "threshold must be positive"}
	}
	if f.SocialSecurityRate.IsNegative() || f.MedicareRate.IsNegative() || f.AdditionalMedicareRate.IsNegative() {
		return &finance.InvalidInputError{Field: "fica_rates", Reason: "negative FICA rate"}
	}
	return nil
}

// =============================================================================
// TABLES - Everything the calculator needs, loaded by a collaborator
// =============================================================================

// Tables bundles the reference data consumed read-only by ComputeTakeHome.
type Tables struct {
	Federal FederalTable
	States  StateTable
	Fica    FicaConstants
}

// Validate checks all three tables.
func (t Tables) Validate() error {
	if err := t.Federal.Validate(); err != nil {
		return err
	}
	if err := t.States.Validate(); err != nil {
		return err
	}
	return t.Fica.Validate()
}
