package calculation

import (
	"github.com/shopspring/decimal"
)

// MaxEarningYears is the number of top earning years the benefit formula averages.
const MaxEarningYears = 35

var replacementRate = decimal.NewFromFloat(0.4)

// EstimateSocialSecurity approximates an annual benefit as 40% of the
// average income over up to 35 working years, income held constant.
// Zero income or zero working years yields 0.
func EstimateSocialSecurity(income decimal.Decimal, currentAge, retirementAge int) int64 {
	years := retirementAge - currentAge
	if years < 0 {
		years = 0
	}
	if years > MaxEarningYears {
		years = MaxEarningYears
	}
	if income.IsZero() || years == 0 {
		return 0
	}
	average := income.Mul(decimal.NewFromInt(int64(years))).Div(decimal.NewFromInt(MaxEarningYears))
	return whole(average.Mul(replacementRate))
}
