package inventory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
)

// InsufficientStockError reports a failed sufficiency check for one product.
// It unwraps to shared.ErrInsufficientStock so callers can branch on the error
// kind while still having access to the figures.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Available int
	Requested int
}

// NewInsufficientStockError creates an InsufficientStockError
func NewInsufficientStockError(productID uuid.UUID, available, requested int) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID: productID,
		Available: available,
		Requested: requested,
	}
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Unwrap returns the insufficient-stock sentinel
func (e *InsufficientStockError) Unwrap() error {
	return shared.ErrInsufficientStock
}

// ProductsNotFoundError reports every product in a batch request that has no
// ledger row at the branch, not just the first one encountered.
type ProductsNotFoundError struct {
	BranchID   uuid.UUID
	ProductIDs []uuid.UUID
}

// NewProductsNotFoundError creates a ProductsNotFoundError
func NewProductsNotFoundError(branchID uuid.UUID, productIDs []uuid.UUID) *ProductsNotFoundError {
	return &ProductsNotFoundError{
		BranchID:   branchID,
		ProductIDs: productIDs,
	}
}

// Error implements the error interface
func (e *ProductsNotFoundError) Error() string {
	ids := make([]string, len(e.ProductIDs))
	for i, id := range e.ProductIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("no inventory at branch %s for products: %s",
		e.BranchID, strings.Join(ids, ", "))
}

// Unwrap returns the not-found sentinel
func (e *ProductsNotFoundError) Unwrap() error {
	return shared.ErrNotFound
}
