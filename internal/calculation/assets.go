package calculation

import (
	"github.com/rpgo/lifedash/pkg/decimal"
	sd "github.com/shopspring/decimal"
)

// AssetInput is the asset side of the planning form plus its one liability.
// Rates are whole-number percentages.
type AssetInput struct {
	RealEstate           sd.Decimal
	CarValue             sd.Decimal
	Savings              sd.Decimal
	Checking             sd.Decimal
	Investment           sd.Decimal
	RollingCredit        sd.Decimal
	InvestmentReturnRate sd.Decimal
	SavingsReturnRate    sd.Decimal
}

// AssetSummary is the net asset position and the return rate it implies.
type AssetSummary struct {
	Total             sd.Decimal `json:"total"`
	InvestmentAssets  sd.Decimal `json:"investmentAssets"`
	SavingsAssets     sd.Decimal `json:"savingsAssets"`
	BlendedReturnRate sd.Decimal `json:"blendedReturnRate"`
}

// SummarizeAssets nets the liability against all assets and weights the two
// return rates by holdings. Real estate and vehicles grow at the investment
// rate; savings and checking at the savings rate. A non-positive total has a
// blended rate of 0.
func SummarizeAssets(in AssetInput) AssetSummary {
	investment := decimal.Sum(in.RealEstate, in.CarValue, in.Investment)
	savings := decimal.Sum(in.Savings, in.Checking)
	total := investment.Add(savings).Sub(decimal.NewMoneyFromDecimal(in.RollingCredit))

	rate := sd.Zero
	if total.IsPositive() {
		rate = investment.Mul(in.InvestmentReturnRate).
			Add(savings.Mul(in.SavingsReturnRate)).
			Decimal.Div(total.Decimal)
	}
	return AssetSummary{
		Total:             total.Decimal,
		InvestmentAssets:  investment.Decimal,
		SavingsAssets:     savings.Decimal,
		BlendedReturnRate: rate,
	}
}
