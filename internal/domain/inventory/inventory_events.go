package inventory

import (
	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeStockReduced        = "inventory.stock_reduced"
	EventTypeStockRestored       = "inventory.stock_restored"
	EventTypeRestocked           = "inventory.restocked"
	EventTypeStockBelowThreshold = "inventory.below_threshold"
)

// AggregateTypeBranchInventory is the aggregate type for ledger events
const AggregateTypeBranchInventory = "BranchInventory"

// StockReducedEvent is emitted when stock is debited from a ledger row
type StockReducedEvent struct {
	shared.BaseDomainEvent
	BranchID       uuid.UUID `json:"branch_id"`
	ProductID      uuid.UUID `json:"product_id"`
	Quantity       int       `json:"quantity"`
	RemainingStock int       `json:"remaining_stock"`
}

// NewStockReducedEvent creates a new StockReducedEvent
func NewStockReducedEvent(item *BranchInventory, quantity int) *StockReducedEvent {
	return &StockReducedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReduced, AggregateTypeBranchInventory, item.ID),
		BranchID:        item.BranchID,
		ProductID:       item.ProductID,
		Quantity:        quantity,
		RemainingStock:  item.Stock,
	}
}

// StockRestoredEvent is emitted when previously debited stock is credited back
type StockRestoredEvent struct {
	shared.BaseDomainEvent
	BranchID     uuid.UUID `json:"branch_id"`
	ProductID    uuid.UUID `json:"product_id"`
	Quantity     int       `json:"quantity"`
	CurrentStock int       `json:"current_stock"`
}

// NewStockRestoredEvent creates a new StockRestoredEvent
func NewStockRestoredEvent(item *BranchInventory, quantity int) *StockRestoredEvent {
	return &StockRestoredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockRestored, AggregateTypeBranchInventory, item.ID),
		BranchID:        item.BranchID,
		ProductID:       item.ProductID,
		Quantity:        quantity,
		CurrentStock:    item.Stock,
	}
}

// RestockedEvent is emitted when new stock is received at a branch
type RestockedEvent struct {
	shared.BaseDomainEvent
	BranchID     uuid.UUID `json:"branch_id"`
	ProductID    uuid.UUID `json:"product_id"`
	Quantity     int       `json:"quantity"`
	CurrentStock int       `json:"current_stock"`
}

// NewRestockedEvent creates a new RestockedEvent
func NewRestockedEvent(item *BranchInventory, quantity int) *RestockedEvent {
	return &RestockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRestocked, AggregateTypeBranchInventory, item.ID),
		BranchID:        item.BranchID,
		ProductID:       item.ProductID,
		Quantity:        quantity,
		CurrentStock:    item.Stock,
	}
}

// StockBelowThresholdEvent is emitted when a debit leaves stock at or below
// the advisory minimum
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	BranchID     uuid.UUID `json:"branch_id"`
	ProductID    uuid.UUID `json:"product_id"`
	CurrentStock int       `json:"current_stock"`
	MinStock     int       `json:"min_stock"`
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(item *BranchInventory) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, AggregateTypeBranchInventory, item.ID),
		BranchID:        item.BranchID,
		ProductID:       item.ProductID,
		CurrentStock:    item.Stock,
		MinStock:        item.MinStock,
	}
}
