package transfer

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/transfer"
)

// RequestTransferCommand carries the input for a new transfer request.
// IdempotencyKey is optional; a retried request with the same key returns the
// transfer created by the first attempt instead of a duplicate row.
type RequestTransferCommand struct {
	SourceBranchID uuid.UUID
	TargetBranchID uuid.UUID
	ProductID      uuid.UUID
	Quantity       int
	RequestedBy    uuid.UUID
	IdempotencyKey string
}

// TransferResponse is the read model for a stock transfer
type TransferResponse struct {
	ID              uuid.UUID               `json:"id"`
	SourceBranchID  uuid.UUID               `json:"source_branch_id"`
	TargetBranchID  uuid.UUID               `json:"target_branch_id"`
	ProductID       uuid.UUID               `json:"product_id"`
	Quantity        int                     `json:"quantity"`
	Status          transfer.TransferStatus `json:"status"`
	RequestedBy     uuid.UUID               `json:"requested_by"`
	RequestedAt     time.Time               `json:"requested_at"`
	ApprovedBy      *uuid.UUID              `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time              `json:"approved_at,omitempty"`
	CompletedAt     *time.Time              `json:"completed_at,omitempty"`
	RejectionReason string                  `json:"rejection_reason,omitempty"`
}

// ToTransferResponse maps a transfer to its response representation
func ToTransferResponse(t *transfer.StockTransfer) TransferResponse {
	return TransferResponse{
		ID:              t.ID,
		SourceBranchID:  t.SourceBranchID,
		TargetBranchID:  t.TargetBranchID,
		ProductID:       t.ProductID,
		Quantity:        t.Quantity,
		Status:          t.Status,
		RequestedBy:     t.RequestedBy,
		RequestedAt:     t.RequestedAt,
		ApprovedBy:      t.ApprovedBy,
		ApprovedAt:      t.ApprovedAt,
		CompletedAt:     t.CompletedAt,
		RejectionReason: t.RejectionReason,
	}
}

// ToTransferResponses maps a slice of transfers
func ToTransferResponses(items []transfer.StockTransfer) []TransferResponse {
	responses := make([]TransferResponse, 0, len(items))
	for i := range items {
		responses = append(responses, ToTransferResponse(&items[i]))
	}
	return responses
}
