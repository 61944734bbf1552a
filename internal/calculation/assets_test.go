package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSummarizeAssets(t *testing.T) {
	got := SummarizeAssets(AssetInput{
		RealEstate:           decimal.NewFromInt(100000),
		CarValue:             decimal.NewFromInt(10000),
		Savings:              decimal.NewFromInt(5000),
		Checking:             decimal.NewFromInt(5000),
		Investment:           decimal.NewFromInt(80000),
		InvestmentReturnRate: decimal.NewFromInt(7),
		SavingsReturnRate:    decimal.NewFromInt(2),
	})
	assertDecimal(t, "200000", got.Total)
	assertDecimal(t, "190000", got.InvestmentAssets)
	assertDecimal(t, "10000", got.SavingsAssets)
	assertDecimal(t, "6.75", got.BlendedReturnRate)
}

func TestSummarizeAssetsNetsRollingCredit(t *testing.T) {
	got := SummarizeAssets(AssetInput{
		Checking:             decimal.NewFromInt(1000),
		RollingCredit:        decimal.NewFromInt(1500),
		InvestmentReturnRate: decimal.NewFromInt(7),
		SavingsReturnRate:    decimal.NewFromInt(2),
	})
	assertDecimal(t, "-500", got.Total)
	assertDecimal(t, "0", got.BlendedReturnRate)
}
