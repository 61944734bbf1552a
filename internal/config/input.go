package config

import (
	"fmt"
	"os"

	"github.com/rpgo/lifedash/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of input files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

func readYAML(filename string, out any) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// LoadParameters loads projection parameters from a YAML or JSON file
func (ip *InputParser) LoadParameters(filename string) (*domain.ProjectionParameters, error) {
	var params domain.ProjectionParameters
	if err := readYAML(filename, &params); err != nil {
		return nil, err
	}
	if err := ip.ValidateParameters(&params); err != nil {
		return nil, fmt.Errorf("parameter validation failed: %w", err)
	}
	return &params, nil
}

var hundred = decimal.NewFromInt(100)

// ValidateParameters validates projection parameters
func (ip *InputParser) ValidateParameters(p *domain.ProjectionParameters) error {
	if p.CurrentAge < 0 || p.CurrentAge > 120 {
		return fmt.Errorf("current age must be between 0 and 120")
	}
	if p.RetirementAge < p.CurrentAge {
		return fmt.Errorf("retirement age cannot be before current age")
	}
	if p.PostYears < 0 || p.PostYears > 100 {
		return fmt.Errorf("post-retirement years must be between 0 and 100")
	}
	if p.Income.IsNegative() {
		return fmt.Errorf("income cannot be negative")
	}
	if p.AnnualSavings != nil && p.AnnualSavings.IsNegative() {
		return fmt.Errorf("annual savings cannot be negative")
	}
	if p.Pension.IsNegative() {
		return fmt.Errorf("pension cannot be negative")
	}
	if p.SocialSecurity.IsNegative() {
		return fmt.Errorf("social security cannot be negative")
	}
	if p.WithdrawalRate.IsNegative() || p.WithdrawalRate.GreaterThan(hundred) {
		return fmt.Errorf("withdrawal rate must be between 0 and 100")
	}
	if p.InvestmentReturnRate.LessThanOrEqual(hundred.Neg()) {
		return fmt.Errorf("investment return rate must be greater than -100%%")
	}
	if p.InflationRate.LessThanOrEqual(hundred.Neg()) {
		return fmt.Errorf("inflation rate must be greater than -100%%")
	}
	return nil
}

// LoadBudget loads a budget record. The file mirrors the stored record:
// built-in fields at the top level plus the nested category maps.
func (ip *InputParser) LoadBudget(filename string) (domain.Record, error) {
	var rec map[string]any
	if err := readYAML(filename, &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		rec = map[string]any{}
	}
	for _, key := range []string{"salary", "netPay"} {
		if v, ok := rec[key]; ok && !isNumber(v) {
			return nil, fmt.Errorf("budget %s must be a number", key)
		}
	}
	for key, v := range rec {
		if m, ok := v.(map[string]any); ok {
			for name, amount := range m {
				if !isNumber(amount) {
					return nil, fmt.Errorf("budget %s.%s must be a number", key, name)
				}
			}
		}
	}
	return domain.Record(rec), nil
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int64, uint64, float64:
		return true
	default:
		return false
	}
}

// LoadPlanningForm loads planning form fields. Blank fields are kept blank
// so form defaults apply.
func (ip *InputParser) LoadPlanningForm(filename string) (domain.PlanningForm, error) {
	var form domain.PlanningForm
	if err := readYAML(filename, &form); err != nil {
		return domain.PlanningForm{}, err
	}
	if form.CurrentAge == "" || form.RetirementAge == "" {
		return domain.PlanningForm{}, fmt.Errorf("planning form requires cur_age and ret_age")
	}
	return form, nil
}

// CreateExampleParameters returns a sample parameter set
func (ip *InputParser) CreateExampleParameters() *domain.ProjectionParameters {
	savings := decimal.NewFromInt(15000)
	return &domain.ProjectionParameters{
		CurrentAge:           35,
		RetirementAge:        65,
		Savings:              decimal.NewFromInt(50000),
		AnnualSavings:        &savings,
		Income:               decimal.NewFromInt(85000),
		InvestmentReturnRate: decimal.NewFromInt(6),
		AnnualRaise:          decimal.NewFromInt(2),
		InflationRate:        decimal.NewFromInt(3),
		Pension:              decimal.Zero,
		SocialSecurity:       decimal.NewFromInt(24000),
		PostYears:            30,
		WithdrawalRate:       decimal.NewFromInt(4),
	}
}
