package checkout

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CartItem is one line of the client built cart. Price is display data
// only and never used for totals.
type CartItem struct {
	ID       int64            `json:"id"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Quantity int              `json:"quantity"`
}

// ParseCart decodes the JSON array submitted with the purchase form.
// A blank payload is an empty cart.
func ParseCart(raw string) ([]CartItem, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var items []CartItem
	if err := json.UnmarshalFromString(raw, &items); err != nil {
		return nil, errors.Wrapf(ErrInvalidCart, "malformed cart payload: %v", err)
	}
	return items, nil
}

// Request carries already validated form scalars plus the decoded cart.
type Request struct {
	CustomerName string
	Discount     decimal.Decimal
	Items        []CartItem
	Operator     string
}

// Validate checks the request shape before any store access.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Operator) == "" {
		return ErrUnauthenticated
	}
	if strings.TrimSpace(r.CustomerName) == "" {
		return ErrMissingCustomer
	}
	if r.Discount.IsNegative() {
		return ErrInvalidDiscount
	}
	if len(r.Items) == 0 {
		return errors.Wrap(ErrInvalidCart, "cart is empty")
	}
	for i, it := range r.Items {
		if it.ID <= 0 {
			return errors.Wrapf(ErrInvalidCart, "line %d: invalid product id %d", i+1, it.ID)
		}
		if it.Quantity <= 0 {
			return errors.Wrapf(ErrInvalidCart, "line %d: quantity must be positive", i+1)
		}
	}
	return nil
}
