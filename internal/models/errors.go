package models

import (
	"errors"
	"fmt"
)

// Business failures carry enough for the HTTP layer to pick a status code and
// a user-facing message; anything else is treated as an internal error.

var (
	// ErrNotFound covers lookups of reference data (categories, banners,
	// users, orders by id).
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned on signup or user creation with an email
	// that already has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidLogin is returned for a bad email/password pair.
	ErrInvalidLogin = errors.New("invalid email or password")

	// ErrOrderNumberTaken signals an order-number collision. The checkout is
	// rolled back and safe to resubmit.
	ErrOrderNumberTaken = errors.New("order number already taken")
)

// ProductNotFoundError aborts an allocation for a cart line whose product id
// no longer exists.
type ProductNotFoundError struct {
	Name string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.Name)
}

// OutOfStockError aborts an allocation when a product has no credential left
// in its pool and no stock. The whole checkout rolls back.
type OutOfStockError struct {
	Name string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %s is out of stock", e.Name)
}

// IsBusinessError reports whether err is a deliberate business outcome rather
// than an infrastructure failure, so callers know resubmitting won't help.
func IsBusinessError(err error) bool {
	var pnf *ProductNotFoundError
	var oos *OutOfStockError
	return errors.As(err, &pnf) || errors.As(err, &oos) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrInvalidLogin)
}
