package orders

import (
	"errors"
	"fmt"

	"github.com/example/shopcore/pkg/models"
)

var (
	// ErrEmptyCart is returned when a checkout is attempted with no cart lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrDuplicateOrderNumber is returned by the store when the order number
	// unique index rejects an insert. Checkout retries with a fresh number.
	ErrDuplicateOrderNumber = errors.New("order number already exists")

	// ErrCancelShipped is returned when a cancellation is requested for an
	// order that already left the warehouse. Those go through support.
	ErrCancelShipped = errors.New("order already shipped, cancellation requires support")
)

// ValidationError reports a missing or malformed checkout field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a missing resource by kind and id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// InsufficientStockError carries the product that could not be reserved and
// how much stock was actually available when the row lock was taken.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// InvalidStatusError reports a status value outside the known enums.
type InvalidStatusError struct {
	Value string
}

func (e InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid status value: %q", e.Value)
}

// IllegalTransitionError reports a transition the state machine forbids.
type IllegalTransitionError struct {
	Current   string
	Requested string
}

func (e IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition from %q to %q", e.Current, e.Requested)
}

func illegalTransition(from models.OrderStatus, to models.OrderStatus) error {
	return IllegalTransitionError{Current: string(from), Requested: string(to)}
}

func illegalPaymentTransition(from, to models.PaymentStatus) error {
	return IllegalTransitionError{Current: string(from), Requested: string(to)}
}
