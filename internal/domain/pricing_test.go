package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApplyPricing(t *testing.T) {
	tests := []struct {
		name       string
		cost, sell string
		wantSAR    string
		wantProfit string
	}{
		{"basic", "10", "50", "37.5", "12.5"},
		{"loss", "20", "50", "75", "-25"},
		{"zero cost", "0", "9.99", "0", "9.99"},
		{"fractional", "0.1", "1", "0.375", "0.625"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{BuyPriceUSD: d(tt.cost), SellPrice: d(tt.sell)}
			p.ApplyPricing()
			assert.True(t, p.BuyPriceSAR.Equal(d(tt.wantSAR)), "sar %s", p.BuyPriceSAR)
			assert.True(t, p.Profit.Equal(d(tt.wantProfit)), "profit %s", p.Profit)
			// profit == sell - cost * rate, exactly
			assert.True(t, p.Profit.Equal(p.SellPrice.Sub(p.BuyPriceUSD.Mul(FixedRate()))))
		})
	}
}

func TestApplyPricingRecomputesOnEdit(t *testing.T) {
	p := Product{BuyPriceUSD: d("10"), SellPrice: d("50")}
	p.ApplyPricing()
	p.SellPrice = d("60")
	assert.NoError(t, p.BeforeSave(nil))
	assert.True(t, p.Profit.Equal(d("22.5")))
}

func TestSetFixedRate(t *testing.T) {
	defer SetFixedRate(3.75)

	SetFixedRate(-1)
	assert.True(t, FixedRate().Equal(d("3.75")))

	SetFixedRate(4)
	assert.True(t, ConvertCost(d("2")).Equal(d("8")))
}

func TestFormatMoney(t *testing.T) {
	assert.Contains(t, FormatMoney(d("187.5"), SaleCurrency), "187.50")
	assert.Contains(t, FormatMoney(d("1234.567"), CostCurrency), "1,234.57")
}

func TestProductStockFlags(t *testing.T) {
	p := Product{Quantity: 3, Active: true}
	assert.True(t, p.InStock())
	assert.True(t, p.IsLowStock(5))
	p.Quantity = 0
	assert.False(t, p.InStock())
	assert.False(t, p.IsLowStock(5))
	p.Quantity = 6
	p.Active = false
	assert.False(t, p.InStock())
	assert.False(t, p.IsLowStock(5))
}
