package domain

import "github.com/shopspring/decimal"

// BudgetInput feeds the monthly budget summary. Salary is annual; NetPay is
// treated as gross monthly pay when no salary is given.
type BudgetInput struct {
	Salary           decimal.Decimal            `json:"salary" yaml:"salary"`
	NetPay           decimal.Decimal            `json:"netPay" yaml:"net_pay"`
	Categories       map[string]decimal.Decimal `json:"categories" yaml:"categories"`
	IncomeCategories map[string]decimal.Decimal `json:"incomeCategories,omitempty" yaml:"income_categories,omitempty"`
}

// BudgetSummary is the monthly result. Expenses exclude federal tax.
type BudgetSummary struct {
	MonthlyIncome decimal.Decimal `json:"monthlyIncome"`
	FederalTax    decimal.Decimal `json:"federalTax"`
	Tax           decimal.Decimal `json:"tax"`
	Income        decimal.Decimal `json:"income"`
	NetPay        decimal.Decimal `json:"netPay"`
	Expenses      decimal.Decimal `json:"expenses"`
	Leftover      decimal.Decimal `json:"leftover"`
}

// BudgetTotals is one column of the current-vs-goal comparison.
type BudgetTotals struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Leftover decimal.Decimal `json:"leftover"`
}

// BudgetComparison compares the current budget with the goal budget.
type BudgetComparison struct {
	Current BudgetTotals `json:"current"`
	Goal    BudgetTotals `json:"goal"`
}
