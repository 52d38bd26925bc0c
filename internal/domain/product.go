package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry. BuyPriceSAR and Profit are derived from
// BuyPriceUSD and SellPrice and are recomputed on every save.
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"size:100;not null;index" json:"name"`
	Category    string          `gorm:"size:50;index" json:"category"`
	BuyPriceUSD decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"buy_price_usd"` // cost in source currency
	BuyPriceSAR decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"buy_price_sar"` // cost converted with FixedRate
	SellPrice   decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"sell_price"`
	Profit      decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"profit"`
	Quantity    int             `gorm:"not null;default:0" json:"quantity"`
	Notes       string          `gorm:"type:text" json:"notes"`
	Image       string          `gorm:"size:255" json:"image"`
	Active      bool            `gorm:"not null;index" json:"active"` // false once stock is depleted by a sale
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "product"
}

// ApplyPricing recomputes the converted cost and the unit profit.
func (p *Product) ApplyPricing() {
	p.BuyPriceSAR = ConvertCost(p.BuyPriceUSD)
	p.Profit = UnitProfit(p.SellPrice, p.BuyPriceUSD)
}

// BeforeSave keeps the derived pricing fields in sync for Create and Save.
func (p *Product) BeforeSave(_ *gorm.DB) error {
	p.ApplyPricing()
	return nil
}

// InStock reports whether the product can be sold.
func (p *Product) InStock() bool {
	return p.Active && p.Quantity > 0
}

// IsLowStock reports 0 < quantity <= threshold.
func (p *Product) IsLowStock(threshold int) bool {
	return p.Quantity > 0 && p.Quantity <= threshold
}
