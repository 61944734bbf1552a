package calculation

import (
	"github.com/rpgo/lifedash/internal/domain"
	"github.com/rpgo/lifedash/pkg/decimal"
	sd "github.com/shopspring/decimal"
)

// WithdrawalEscalator is the fixed nominal growth of withdrawals after the
// first retirement year. It does not follow the inflation parameter.
var WithdrawalEscalator = sd.NewFromFloat(1.03)

var hundred = sd.NewFromInt(100)

// percent converts a whole-number percentage (5 means 5%) to a fraction.
func percent(p sd.Decimal) sd.Decimal {
	return p.Div(hundred)
}

func whole(d sd.Decimal) int64 {
	return decimal.RoundHalfUp(d).IntPart()
}

// Project computes the year-by-year trajectory: one accumulation row for
// every age from CurrentAge through RetirementAge, then PostYears
// decumulation rows.
func Project(p domain.ProjectionParameters) []domain.ProjectionRow {
	years := p.WorkingYears()
	if years < 0 {
		years = 0
	}
	postYears := p.PostYears
	if postYears < 0 {
		postYears = 0
	}

	one := sd.NewFromInt(1)
	growth := one.Add(percent(p.InvestmentReturnRate))
	raise := one.Add(percent(p.AnnualRaise))
	inflation := one.Add(percent(p.InflationRate))
	withdrawalRate := percent(p.WithdrawalRate)

	contribution := p.Income
	if p.AnnualSavings != nil {
		contribution = *p.AnnualSavings
	}
	balance := p.Savings
	income := p.Income

	rows := make([]domain.ProjectionRow, 0, years+1+postYears)
	deflator := one
	for i := 0; i <= years; i++ {
		if i > 0 {
			balance = balance.Add(contribution).Mul(growth)
			contribution = contribution.Mul(raise)
			income = income.Mul(raise)
			deflator = deflator.Mul(inflation)
		}
		rows = append(rows, domain.ProjectionRow{
			Age:        p.CurrentAge + i,
			Balance:    whole(balance),
			Income:     whole(income),
			RealIncome: whole(income.Div(deflator)),
		})
	}

	withdrawal := sd.Zero
	socialSecurity := p.SocialSecurity
	pension := p.Pension
	for i := 1; i <= postYears; i++ {
		balance = balance.Mul(growth)
		if i == 1 {
			withdrawal = balance.Mul(withdrawalRate)
		} else {
			withdrawal = withdrawal.Mul(WithdrawalEscalator)
			socialSecurity = socialSecurity.Mul(inflation)
			pension = pension.Mul(inflation)
		}
		deflator = deflator.Mul(inflation)

		w := whole(withdrawal)
		balance = balance.Sub(sd.NewFromInt(w))
		ss := whole(socialSecurity)
		pn := whole(pension)
		total := w + pn + ss

		rows = append(rows, domain.ProjectionRow{
			Age:            p.RetirementAge + i,
			Balance:        whole(balance),
			Income:         total,
			RealIncome:     whole(sd.NewFromInt(total).Div(deflator)),
			Withdrawal:     &w,
			Pension:        &pn,
			SocialSecurity: &ss,
		})
	}
	return rows
}

// Run projects p and bundles the rows with the Social Security estimate.
func Run(p domain.ProjectionParameters) *domain.Projection {
	return &domain.Projection{
		Parameters:             p,
		Rows:                   Project(p),
		SocialSecurityEstimate: EstimateSocialSecurity(p.Income, p.CurrentAge, p.RetirementAge),
	}
}
