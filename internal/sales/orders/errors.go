package orders

import "errors"

var (
	// ErrAddressNotFound means the ship address is not one of the customer's
	// saved addresses.
	ErrAddressNotFound = errors.New("orders: customer address not found")
)
