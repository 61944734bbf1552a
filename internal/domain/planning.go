package domain

import "strings"

// HistorySnapshot is one day's recorded (age, balance) pair.
type HistorySnapshot struct {
	Timestamp string `json:"timestamp"`
	Age       int    `json:"age"`
	Balance   int64  `json:"balance"`
}

// PlanningForm holds the raw planning inputs exactly as entered. Blank means
// "not filled in"; numeric parsing happens downstream.
type PlanningForm struct {
	CurrentAge           string `json:"curAge" yaml:"cur_age"`
	RetirementAge        string `json:"retAge" yaml:"ret_age"`
	Income               string `json:"income" yaml:"income"`
	AnnualSavings        string `json:"annualSavings" yaml:"annual_savings"`
	AnnualRaise          string `json:"annualRaise" yaml:"annual_raise"`
	Inflation            string `json:"inflation" yaml:"inflation"`
	Pension              string `json:"pension" yaml:"pension"`
	WithdrawalRate       string `json:"withdrawalRate" yaml:"withdrawal_rate"`
	PostYears            string `json:"postYears" yaml:"post_years"`
	SocialSecurity       string `json:"socialSecurity" yaml:"social_security"`
	RealEstate           string `json:"realEstate" yaml:"real_estate"`
	CarValue             string `json:"carValue" yaml:"car_value"`
	AssetSavings         string `json:"assetSavings" yaml:"asset_savings"`
	SavingsReturnRate    string `json:"savingsReturnRate" yaml:"savings_return_rate"`
	Checking             string `json:"checking" yaml:"checking"`
	Investment           string `json:"investment" yaml:"investment"`
	InvestmentReturnRate string `json:"investmentReturnRate" yaml:"investment_return_rate"`
	RollingCredit        string `json:"rollingCredit" yaml:"rolling_credit"`
}

// RequiredFieldsPresent reports whether every field a snapshot depends on is
// filled in: current age, each asset and the rolling credit liability.
func (f PlanningForm) RequiredFieldsPresent() bool {
	for _, v := range []string{
		f.CurrentAge, f.RealEstate, f.CarValue, f.AssetSavings,
		f.Checking, f.Investment, f.RollingCredit,
	} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// FinanceSettings is the persisted "finance" section of the planning record.
type FinanceSettings struct {
	CurrentAge           int     `json:"curAge"`
	RetirementAge        int     `json:"retAge"`
	Income               float64 `json:"income"`
	AnnualSavings        float64 `json:"annualSavings"`
	AnnualRaise          float64 `json:"annualRaise"`
	Inflation            float64 `json:"inflation"`
	InvestmentReturnRate float64 `json:"investmentReturnRate"`
	SavingsReturnRate    float64 `json:"savingsReturnRate"`
	Pension              float64 `json:"pension"`
	WithdrawalRate       float64 `json:"withdrawalRate"`
	PostYears            int     `json:"postYears"`
	SocialSecurity       float64 `json:"socialSecurity"`
}

// AssetSettings is the persisted "assets" section.
type AssetSettings struct {
	RealEstate   float64 `json:"realEstate"`
	CarValue     float64 `json:"carValue"`
	AssetSavings float64 `json:"assetSavings"`
	Checking     float64 `json:"checking"`
	Investment   float64 `json:"investment"`
}

// Liabilities is the persisted "budget" section of the planning record.
type Liabilities struct {
	RollingCredit float64 `json:"rollingCredit"`
}

// PlanningState is the typed view of the planning record.
type PlanningState struct {
	Finance     FinanceSettings   `json:"finance"`
	Assets      AssetSettings     `json:"assets"`
	Budget      Liabilities       `json:"budget"`
	History     []HistorySnapshot `json:"history"`
	LastUpdated int64             `json:"lastUpdated,omitempty"`
}
