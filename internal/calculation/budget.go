package calculation

import (
	"strings"

	"github.com/rpgo/lifedash/internal/domain"
	"github.com/rpgo/lifedash/pkg/decimal"
	sd "github.com/shopspring/decimal"
)

// FederalTaxRate is the flat rate applied to monthly income.
var FederalTaxRate = sd.NewFromFloat(0.10)

// Nested budget record sections.
const (
	RecurringKey           = "recurring"
	SubscriptionsKey       = "subscriptions"
	GoalRecurringKey       = "goalRecurring"
	GoalSubscriptionsKey   = "goalSubscriptions"
	IncomeRecurringKey     = "incomeRecurring"
	GoalIncomeRecurringKey = "goalIncomeRecurring"
	RemovedBuiltInsKey     = "removedBuiltIns"
	SalaryKey              = "salary"
	NetPayKey              = "netPay"
	GoalPrefix             = "goal_"
)

// DefaultRecurring lists the built-in expense fields stored at the top level
// of a budget record, with their display names.
var DefaultRecurring = []struct {
	Field string
	Name  string
}{
	{"mortgageInterest", "Mortgage Interest"},
	{"mortgagePrincipal", "Mortgage Principal"},
	{"escrow", "Escrow"},
	{"rent", "Rent"},
	{"electric", "Electric"},
	{"water", "Water"},
	{"gas", "Gas"},
	{"internet", "Internet"},
	{"cell", "Cell Phone"},
	{"food", "Food"},
	{"transGas", "Gas (Car)"},
	{"carPayment", "Car Payment"},
	{"tolls", "Tolls"},
	{"insurance", "Car Insurance"},
	{"healthInsurance", "Health Insurance"},
	{"dentalInsurance", "Dental Insurance"},
	{"savings", "Savings"},
	{"investmentAccounts", "Investment Accounts"},
	{"federalDeductions", "Federal Deductions"},
	{"stateTaxes", "State Taxes"},
	{"misc", "Misc"},
}

// CalculateMonthlyBudget summarizes one month. Salary is annual and wins over
// NetPay, which is otherwise taken as gross monthly pay.
func CalculateMonthlyBudget(in domain.BudgetInput) domain.BudgetSummary {
	monthly := decimal.NewMoneyFromDecimal(in.NetPay)
	if !in.Salary.IsZero() {
		monthly = decimal.NewMoneyFromDecimal(in.Salary).Monthly()
	}
	federalTax := monthly.Mul(FederalTaxRate).RoundWhole()

	additional := sumValues(in.IncomeCategories)
	netPay := monthly.Sub(federalTax).Add(additional)
	expenses := sumValues(in.Categories)

	return domain.BudgetSummary{
		MonthlyIncome: monthly.Decimal,
		FederalTax:    federalTax.Decimal,
		Tax:           federalTax.Decimal,
		Income:        additional.Decimal,
		NetPay:        netPay.Decimal,
		Expenses:      expenses.Decimal,
		Leftover:      netPay.Sub(expenses).Decimal,
	}
}

// CurrentMonthlyBudget derives the budget input from a saved budget record:
// built-in fields, recurring and subscription expenses, and recurring income.
func CurrentMonthlyBudget(record domain.Record) domain.BudgetInput {
	in := domain.BudgetInput{
		Salary:           NumberFrom(record[SalaryKey]),
		NetPay:           NumberFrom(record[NetPayKey]),
		Categories:       map[string]sd.Decimal{},
		IncomeCategories: map[string]sd.Decimal{},
	}
	for name, v := range builtInValues(record, "") {
		in.Categories[name] = v
	}
	addSection(in.Categories, record.Map(RecurringKey))
	addSection(in.Categories, record.Map(SubscriptionsKey))
	addSection(in.IncomeCategories, record.Map(IncomeRecurringKey))
	return in
}

// CompareBudget totals the current and goal columns of a budget record.
func CompareBudget(record domain.Record) domain.BudgetComparison {
	current := map[string]sd.Decimal{}
	goal := map[string]sd.Decimal{}
	for name, v := range builtInValues(record, "") {
		current[name] = v
	}
	for name, v := range builtInValues(record, GoalPrefix) {
		goal[name] = v
	}
	addSection(current, record.Map(RecurringKey))
	addSection(current, record.Map(SubscriptionsKey))
	addSection(goal, record.Map(GoalRecurringKey))
	addSection(goal, record.Map(GoalSubscriptionsKey))

	return domain.BudgetComparison{
		Current: totals(sumMap(record.Map(IncomeRecurringKey)), sumValues(current)),
		Goal:    totals(sumMap(record.Map(GoalIncomeRecurringKey)), sumValues(goal)),
	}
}

func totals(income, expenses decimal.Money) domain.BudgetTotals {
	return domain.BudgetTotals{
		Income:   income.Decimal,
		Expenses: expenses.Decimal,
		Leftover: income.Sub(expenses).Decimal,
	}
}

// builtInValues returns the built-in fields (or their goal_ twins) that are
// set and not removed, keyed by display name.
func builtInValues(record domain.Record, prefix string) map[string]sd.Decimal {
	removed := map[string]bool{}
	if list, ok := record[RemovedBuiltInsKey].([]any); ok {
		for _, v := range list {
			if s, ok := v.(string); ok {
				removed[s] = true
			}
		}
	}
	out := map[string]sd.Decimal{}
	for _, b := range DefaultRecurring {
		if removed[b.Field] {
			continue
		}
		v, ok := record[prefix+b.Field]
		if !ok || isBlank(v) {
			continue
		}
		out[b.Name] = NumberFrom(v)
	}
	return out
}

func addSection(dst map[string]sd.Decimal, section map[string]any) {
	for name, v := range section {
		if isBlank(v) {
			continue
		}
		dst[name] = NumberFrom(v)
	}
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func sumValues(values map[string]sd.Decimal) decimal.Money {
	all := make([]sd.Decimal, 0, len(values))
	for _, v := range values {
		all = append(all, v)
	}
	return decimal.Sum(all...)
}

func sumMap(section map[string]any) decimal.Money {
	total := decimal.Zero()
	for _, v := range section {
		total = total.Add(decimal.NewMoneyFromDecimal(NumberFrom(v)))
	}
	return total
}
