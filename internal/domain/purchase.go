package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is an immutable sale record, created only by checkout.
type Purchase struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerName string          `gorm:"size:100;not null;index" json:"customer_name"`
	TotalPrice   decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"total_price"` // before discount
	Discount     decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"discount"`
	FinalAmount  decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"final_amount"`
	Date         time.Time       `gorm:"index" json:"date"`
	Operator     string          `gorm:"size:64" json:"operator"`
	Items        []PurchaseItem  `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// TableName Specify table name
func (Purchase) TableName() string {
	return "purchase"
}

// PurchaseItem is one cart line. ProductName and UnitPrice are captured at
// sale time so the invoice stays readable after the product changes.
type PurchaseItem struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	PurchaseID  int64           `gorm:"not null;index" json:"purchase_id"`
	ProductID   int64           `gorm:"not null;index" json:"product_id"`
	ProductName string          `gorm:"size:100" json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"unit_price"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"line_total"`
	Quantity    int             `gorm:"not null" json:"quantity"`
}

// TableName Specify table name
func (PurchaseItem) TableName() string {
	return "purchase_item"
}
