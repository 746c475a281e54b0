package checkout

import (
	"errors"
	"fmt"
)

var ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

// ProductNotFoundError means a requested product has no document in the
// store at all.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InsufficientStockError is the expected business failure: the requested
// quantity exceeds what is available. Nothing was written for this item.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

// ConflictError means concurrent writers kept moving the stock document's
// revision and the retry budget ran out.
type ConflictError struct {
	ProductID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrent update conflict on product %s", e.ProductID)
}

// CompensationError is the integrity emergency: a reversing write could not
// be applied, so the listed products are left over-decremented and need
// manual reconciliation. Callers must never retry past this.
type CompensationError struct {
	AttemptID  string
	ProductIDs []string
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("compensation failed for attempt %s, products left inconsistent: %v", e.AttemptID, e.ProductIDs)
}
