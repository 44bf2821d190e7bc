package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/inventory"
)

// StockAdjustment is one (product, quantity) pair in a batched adjustment
type StockAdjustment struct {
	ProductID uuid.UUID
	Quantity  int
}

// BranchInventoryResponse is the read model for a ledger row
type BranchInventoryResponse struct {
	ID              uuid.UUID  `json:"id"`
	BranchID        uuid.UUID  `json:"branch_id"`
	ProductID       uuid.UUID  `json:"product_id"`
	Stock           int        `json:"stock"`
	MinStock        int        `json:"min_stock"`
	LastRestockDate *time.Time `json:"last_restock_date,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ToBranchInventoryResponse maps a ledger row to its response representation
func ToBranchInventoryResponse(item *inventory.BranchInventory) BranchInventoryResponse {
	return BranchInventoryResponse{
		ID:              item.ID,
		BranchID:        item.BranchID,
		ProductID:       item.ProductID,
		Stock:           item.Stock,
		MinStock:        item.MinStock,
		LastRestockDate: item.LastRestockDate,
		UpdatedAt:       item.UpdatedAt,
	}
}

// ToBranchInventoryResponses maps a slice of ledger rows
func ToBranchInventoryResponses(items []inventory.BranchInventory) []BranchInventoryResponse {
	responses := make([]BranchInventoryResponse, 0, len(items))
	for i := range items {
		responses = append(responses, ToBranchInventoryResponse(&items[i]))
	}
	return responses
}
