package sales

import (
	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeSaleCreated   = "sale.created"
	EventTypeSaleCancelled = "sale.cancelled"
)

// AggregateTypeSale is the aggregate type for sale events
const AggregateTypeSale = "Sale"

// SaleCreatedEvent is emitted when a sale is recorded and stock debited
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	BranchID  uuid.UUID       `json:"branch_id"`
	SoldBy    uuid.UUID       `json:"sold_by"`
	Total     decimal.Decimal `json:"total"`
	LineCount int             `json:"line_count"`
}

// NewSaleCreatedEvent creates a new SaleCreatedEvent
func NewSaleCreatedEvent(s *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, AggregateTypeSale, s.ID),
		BranchID:        s.BranchID,
		SoldBy:          s.SoldBy,
		Total:           s.Total,
		LineCount:       len(s.Details),
	}
}

// SaleCancelledEvent is emitted when a sale is cancelled and stock restored
type SaleCancelledEvent struct {
	shared.BaseDomainEvent
	BranchID uuid.UUID       `json:"branch_id"`
	Total    decimal.Decimal `json:"total"`
}

// NewSaleCancelledEvent creates a new SaleCancelledEvent
func NewSaleCancelledEvent(s *Sale) *SaleCancelledEvent {
	return &SaleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCancelled, AggregateTypeSale, s.ID),
		BranchID:        s.BranchID,
		Total:           s.Total,
	}
}
