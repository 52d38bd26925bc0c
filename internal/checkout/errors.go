package checkout

import "github.com/pkg/errors"

var (
	ErrUnauthenticated   = errors.New("checkout requires an authenticated operator")
	ErrMissingCustomer   = errors.New("customer name is required")
	ErrInvalidDiscount   = errors.New("discount must not be negative")
	ErrInvalidCart       = errors.New("invalid cart")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPriceMismatch     = errors.New("cart price does not match catalog price")
)

// IsIntegrityError reports whether err is one of the cart integrity failures
// that abort a checkout.
func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrPriceMismatch) ||
		errors.Is(err, ErrInvalidCart)
}
