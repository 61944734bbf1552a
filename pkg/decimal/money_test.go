package decimal

import (
	"testing"

	stddec "github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func money(f float64) Money { return NewMoneyFromDecimal(stddec.NewFromFloat(f)) }

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{2.5, 3},
		{2.49, 2},
		{-2.5, -2},
		{-2.51, -3},
		{0, 0},
		{9999.5, 10000},
	}
	for _, tt := range tests {
		got := RoundHalfUp(stddec.NewFromFloat(tt.in))
		assert.Equal(t, tt.want, got.IntPart(), "RoundHalfUp(%v)", tt.in)
		assert.Equal(t, tt.want, money(tt.in).RoundWhole().IntPart())
	}
}

func TestMonthlyAndArithmetic(t *testing.T) {
	assert.Equal(t, "10000.00", money(120000).Monthly().String())
	assert.Equal(t, "8333.33", money(100000).Monthly().String())

	a := money(10.10)
	b := money(5.05)
	assert.Equal(t, "15.15", a.Add(b).String())
	assert.Equal(t, "5.05", a.Sub(b).String())
	assert.Equal(t, "25.25", a.Mul(stddec.NewFromFloat(2.5)).String())
	assert.True(t, Zero().IsZero())
}

func TestSum(t *testing.T) {
	got := Sum(stddec.NewFromInt(1500), stddec.NewFromInt(300), stddec.NewFromInt(95))
	assert.Equal(t, "1895.00", got.String())
	assert.True(t, Sum().IsZero())
}
