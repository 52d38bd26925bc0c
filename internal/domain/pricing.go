package domain

import (
	"sync/atomic"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const (
	// DefaultFixedRate is the USD to SAR conversion applied to cost prices.
	DefaultFixedRate = "3.75"

	CostCurrency = money.USD
	SaleCurrency = money.SAR
)

var fixedRate atomic.Value

func init() {
	fixedRate.Store(decimal.RequireFromString(DefaultFixedRate))
}

// FixedRate returns the active conversion rate.
func FixedRate() decimal.Decimal {
	return fixedRate.Load().(decimal.Decimal)
}

// SetFixedRate overrides the conversion rate, non positive values are ignored.
func SetFixedRate(rate float64) {
	if rate <= 0 {
		return
	}
	fixedRate.Store(decimal.NewFromFloat(rate))
}

// ConvertCost converts a source currency cost into the sale currency.
func ConvertCost(cost decimal.Decimal) decimal.Decimal {
	return cost.Mul(FixedRate())
}

// UnitProfit = sell - cost * FixedRate
func UnitProfit(sell, cost decimal.Decimal) decimal.Decimal {
	return sell.Sub(ConvertCost(cost))
}

// FormatMoney renders an amount with the currency's own formatting rules.
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := *money.New(0, currency).Currency()
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, currency).Display()
}
