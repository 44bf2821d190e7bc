package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// SaleLineInput is one requested line item when creating or updating a sale
type SaleLineInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreateSaleCommand carries the input for a new sale
type CreateSaleCommand struct {
	BranchID uuid.UUID
	SoldBy   uuid.UUID
	Lines    []SaleLineInput
}

// SaleDetailResponse is the read model for a sale line item
type SaleDetailResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SaleResponse is the read model for a sale
type SaleResponse struct {
	ID        uuid.UUID            `json:"id"`
	BranchID  uuid.UUID            `json:"branch_id"`
	SoldBy    uuid.UUID            `json:"sold_by"`
	Status    sales.SaleStatus     `json:"status"`
	Total     decimal.Decimal      `json:"total"`
	Details   []SaleDetailResponse `json:"details"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// ToSaleResponse maps a sale to its response representation
func ToSaleResponse(s *sales.Sale) SaleResponse {
	details := make([]SaleDetailResponse, 0, len(s.Details))
	for _, d := range s.Details {
		details = append(details, SaleDetailResponse{
			ID:        d.ID,
			ProductID: d.ProductID,
			Quantity:  d.Quantity,
			UnitPrice: d.UnitPrice,
			Subtotal:  d.Subtotal,
		})
	}
	return SaleResponse{
		ID:        s.ID,
		BranchID:  s.BranchID,
		SoldBy:    s.SoldBy,
		Status:    s.Status,
		Total:     s.Total,
		Details:   details,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// toLines converts line inputs to domain sale lines
func toLines(lines []SaleLineInput) []sales.SaleLine {
	out := make([]sales.SaleLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, sales.SaleLine{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return out
}
