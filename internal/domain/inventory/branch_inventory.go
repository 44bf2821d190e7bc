package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
)

// BranchInventory is the stock ledger row for a branch-product combination.
// It is the aggregate root for stock operations.
// The composite identifier is BranchID + ProductID.
type BranchInventory struct {
	shared.BaseAggregateRoot
	BranchID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_branch_inventory_branch_product,priority:1"`
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_branch_inventory_branch_product,priority:2"`
	Stock           int        `gorm:"not null;default:0"` // Units on hand, never negative
	MinStock        int        `gorm:"not null;default:0"` // Advisory threshold for restocking alerts
	LastRestockDate *time.Time `gorm:""`
}

// TableName returns the table name for GORM
func (BranchInventory) TableName() string {
	return "branch_inventories"
}

// NewBranchInventory creates a new ledger row for a branch-product combination
func NewBranchInventory(branchID, productID uuid.UUID) (*BranchInventory, error) {
	if branchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Branch ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}

	return &BranchInventory{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BranchID:          branchID,
		ProductID:         productID,
		Stock:             0,
		MinStock:          0,
	}, nil
}

// Reduce removes quantity units from stock.
// Fails with an InsufficientStockError before mutating anything if the row
// does not hold enough stock; stock can never go negative.
func (i *BranchInventory) Reduce(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if i.Stock < quantity {
		return NewInsufficientStockError(i.ProductID, i.Stock, quantity)
	}

	i.Stock -= quantity
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewStockReducedEvent(i, quantity))

	if i.MinStock > 0 && i.Stock <= i.MinStock {
		i.AddDomainEvent(NewStockBelowThresholdEvent(i))
	}

	return nil
}

// Restore credits quantity units back to stock. Credits are unconditionally
// safe and never fail for sufficiency.
func (i *BranchInventory) Restore(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	i.Stock += quantity
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewStockRestoredEvent(i, quantity))

	return nil
}

// Increase credits quantity units of new stock and stamps the restock date.
// Used when receiving goods, including the target side of a completed transfer.
func (i *BranchInventory) Increase(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	now := time.Now()
	i.Stock += quantity
	i.LastRestockDate = &now
	i.UpdatedAt = now
	i.IncrementVersion()

	i.AddDomainEvent(NewRestockedEvent(i, quantity))

	return nil
}

// SetMinStock sets the advisory restocking threshold
func (i *BranchInventory) SetMinStock(quantity int) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Minimum stock cannot be negative")
	}

	i.MinStock = quantity
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return nil
}

// CanFulfill returns true if the row holds at least the requested quantity
func (i *BranchInventory) CanFulfill(quantity int) bool {
	return i.Stock >= quantity
}

// IsLowStock returns true if stock has fallen to or below the threshold
func (i *BranchInventory) IsLowStock() bool {
	return i.Stock <= i.MinStock
}
