package transfer

import (
	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeTransferRequested = "transfer.requested"
	EventTypeTransferApproved  = "transfer.approved"
	EventTypeTransferRejected  = "transfer.rejected"
	EventTypeTransferCompleted = "transfer.completed"
	EventTypeTransferCancelled = "transfer.cancelled"
)

// AggregateTypeStockTransfer is the aggregate type for transfer events
const AggregateTypeStockTransfer = "StockTransfer"

// transferEventBody carries the fields every transfer lifecycle event shares
type transferEventBody struct {
	SourceBranchID uuid.UUID `json:"source_branch_id"`
	TargetBranchID uuid.UUID `json:"target_branch_id"`
	ProductID      uuid.UUID `json:"product_id"`
	Quantity       int       `json:"quantity"`
	RequestedBy    uuid.UUID `json:"requested_by"`
}

func newTransferEventBody(t *StockTransfer) transferEventBody {
	return transferEventBody{
		SourceBranchID: t.SourceBranchID,
		TargetBranchID: t.TargetBranchID,
		ProductID:      t.ProductID,
		Quantity:       t.Quantity,
		RequestedBy:    t.RequestedBy,
	}
}

// TransferRequestedEvent is emitted when a new transfer enters PENDING
type TransferRequestedEvent struct {
	shared.BaseDomainEvent
	transferEventBody
}

// NewTransferRequestedEvent creates a new TransferRequestedEvent
func NewTransferRequestedEvent(t *StockTransfer) *TransferRequestedEvent {
	return &TransferRequestedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeTransferRequested, AggregateTypeStockTransfer, t.ID),
		transferEventBody: newTransferEventBody(t),
	}
}

// TransferApprovedEvent is emitted when a transfer is approved; addressed to
// the requester by the notification layer
type TransferApprovedEvent struct {
	shared.BaseDomainEvent
	transferEventBody
	ApprovedBy uuid.UUID `json:"approved_by"`
}

// NewTransferApprovedEvent creates a new TransferApprovedEvent
func NewTransferApprovedEvent(t *StockTransfer) *TransferApprovedEvent {
	e := &TransferApprovedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeTransferApproved, AggregateTypeStockTransfer, t.ID),
		transferEventBody: newTransferEventBody(t),
	}
	if t.ApprovedBy != nil {
		e.ApprovedBy = *t.ApprovedBy
	}
	return e
}

// TransferRejectedEvent is emitted when a transfer is rejected; addressed to
// the requester by the notification layer
type TransferRejectedEvent struct {
	shared.BaseDomainEvent
	transferEventBody
	RejectedBy uuid.UUID `json:"rejected_by"`
	Reason     string    `json:"reason"`
}

// NewTransferRejectedEvent creates a new TransferRejectedEvent
func NewTransferRejectedEvent(t *StockTransfer) *TransferRejectedEvent {
	e := &TransferRejectedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeTransferRejected, AggregateTypeStockTransfer, t.ID),
		transferEventBody: newTransferEventBody(t),
		Reason:            t.RejectionReason,
	}
	if t.ApprovedBy != nil {
		e.RejectedBy = *t.ApprovedBy
	}
	return e
}

// TransferCompletedEvent is emitted when stock has moved between the branches;
// addressed to admins and managers by the notification layer
type TransferCompletedEvent struct {
	shared.BaseDomainEvent
	transferEventBody
}

// NewTransferCompletedEvent creates a new TransferCompletedEvent
func NewTransferCompletedEvent(t *StockTransfer) *TransferCompletedEvent {
	return &TransferCompletedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeTransferCompleted, AggregateTypeStockTransfer, t.ID),
		transferEventBody: newTransferEventBody(t),
	}
}

// TransferCancelledEvent is emitted when a pending transfer is withdrawn
type TransferCancelledEvent struct {
	shared.BaseDomainEvent
	transferEventBody
	CancelledBy uuid.UUID `json:"cancelled_by"`
}

// NewTransferCancelledEvent creates a new TransferCancelledEvent
func NewTransferCancelledEvent(t *StockTransfer, cancelledBy uuid.UUID) *TransferCancelledEvent {
	return &TransferCancelledEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeTransferCancelled, AggregateTypeStockTransfer, t.ID),
		transferEventBody: newTransferEventBody(t),
		CancelledBy:       cancelledBy,
	}
}
