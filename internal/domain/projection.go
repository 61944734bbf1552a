package domain

import (
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ProjectionParameters is the input to a single projection run.
// Percentages are entered as whole numbers (5 means 5%).
type ProjectionParameters struct {
	CurrentAge    int `json:"currentAge" yaml:"current_age"`
	RetirementAge int `json:"retirementAge" yaml:"retirement_age"`

	Savings       decimal.Decimal  `json:"savings" yaml:"savings"`
	AnnualSavings *decimal.Decimal `json:"annualSavings,omitempty" yaml:"annual_savings,omitempty"` // nil means contribute the full income
	Income        decimal.Decimal  `json:"income" yaml:"income"`

	InvestmentReturnRate decimal.Decimal `json:"investmentReturnRate" yaml:"investment_return_rate"`
	AnnualRaise          decimal.Decimal `json:"annualRaise" yaml:"annual_raise"`
	InflationRate        decimal.Decimal `json:"inflationRate" yaml:"inflation_rate"`

	Pension        decimal.Decimal `json:"pension" yaml:"pension"`
	SocialSecurity decimal.Decimal `json:"socialSecurity" yaml:"social_security"`

	PostYears      int             `json:"postYears" yaml:"post_years"`
	WithdrawalRate decimal.Decimal `json:"withdrawalRate" yaml:"withdrawal_rate"`
}

// UnmarshalYAML decodes the optional annual savings through a string so an
// absent key stays nil instead of zero.
func (p *ProjectionParameters) UnmarshalYAML(value *yaml.Node) error {
	var aux struct {
		CurrentAge           int             `yaml:"current_age"`
		RetirementAge        int             `yaml:"retirement_age"`
		Savings              decimal.Decimal `yaml:"savings"`
		AnnualSavings        *string         `yaml:"annual_savings,omitempty"`
		Income               decimal.Decimal `yaml:"income"`
		InvestmentReturnRate decimal.Decimal `yaml:"investment_return_rate"`
		AnnualRaise          decimal.Decimal `yaml:"annual_raise"`
		InflationRate        decimal.Decimal `yaml:"inflation_rate"`
		Pension              decimal.Decimal `yaml:"pension"`
		SocialSecurity       decimal.Decimal `yaml:"social_security"`
		PostYears            int             `yaml:"post_years"`
		WithdrawalRate       decimal.Decimal `yaml:"withdrawal_rate"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}

	*p = ProjectionParameters{
		CurrentAge:           aux.CurrentAge,
		RetirementAge:        aux.RetirementAge,
		Savings:              aux.Savings,
		Income:               aux.Income,
		InvestmentReturnRate: aux.InvestmentReturnRate,
		AnnualRaise:          aux.AnnualRaise,
		InflationRate:        aux.InflationRate,
		Pension:              aux.Pension,
		SocialSecurity:       aux.SocialSecurity,
		PostYears:            aux.PostYears,
		WithdrawalRate:       aux.WithdrawalRate,
	}
	if aux.AnnualSavings != nil {
		val, err := decimal.NewFromString(*aux.AnnualSavings)
		if err != nil {
			return err
		}
		p.AnnualSavings = &val
	}
	return nil
}

// WorkingYears returns the number of growth years before retirement.
func (p ProjectionParameters) WorkingYears() int {
	return p.RetirementAge - p.CurrentAge
}

// ProjectionRow is one simulated year. Withdrawal, Pension and SocialSecurity
// are only set on post-retirement rows.
type ProjectionRow struct {
	Age            int    `json:"age"`
	Balance        int64  `json:"balance"`
	Income         int64  `json:"income"`
	RealIncome     int64  `json:"realIncome"`
	Withdrawal     *int64 `json:"withdrawal,omitempty"`
	Pension        *int64 `json:"pension,omitempty"`
	SocialSecurity *int64 `json:"socialSecurity,omitempty"`
}

// IsRetired reports whether the row belongs to the decumulation phase.
func (r ProjectionRow) IsRetired() bool {
	return r.Withdrawal != nil
}

// Projection bundles a run's inputs and outputs for formatting.
type Projection struct {
	Parameters             ProjectionParameters `json:"parameters"`
	Rows                   []ProjectionRow      `json:"rows"`
	SocialSecurityEstimate int64                `json:"socialSecurityEstimate"`
}

// Working returns the accumulation rows (age <= retirement age).
func (p *Projection) Working() []ProjectionRow {
	out := make([]ProjectionRow, 0, len(p.Rows))
	for _, r := range p.Rows {
		if r.Age <= p.Parameters.RetirementAge {
			out = append(out, r)
		}
	}
	return out
}

// Retirement returns the decumulation rows (age > retirement age).
func (p *Projection) Retirement() []ProjectionRow {
	out := make([]ProjectionRow, 0, len(p.Rows))
	for _, r := range p.Rows {
		if r.Age > p.Parameters.RetirementAge {
			out = append(out, r)
		}
	}
	return out
}

// FinalBalance returns the balance of the last row, or zero for an empty run.
func (p *Projection) FinalBalance() int64 {
	if len(p.Rows) == 0 {
		return 0
	}
	return p.Rows[len(p.Rows)-1].Balance
}
