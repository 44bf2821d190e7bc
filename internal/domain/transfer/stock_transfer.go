package transfer

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
)

// TransferStatus represents the status of a stock transfer
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "PENDING"
	TransferStatusApproved  TransferStatus = "APPROVED"
	TransferStatusRejected  TransferStatus = "REJECTED"
	TransferStatusCancelled TransferStatus = "CANCELLED"
	TransferStatusCompleted TransferStatus = "COMPLETED"
)

// IsValid checks if the status is a valid TransferStatus
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusPending, TransferStatusApproved, TransferStatusRejected,
		TransferStatusCancelled, TransferStatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of TransferStatus
func (s TransferStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Transitions are one-directional; no state is ever re-entered.
func (s TransferStatus) CanTransitionTo(target TransferStatus) bool {
	switch s {
	case TransferStatusPending:
		return target == TransferStatusApproved || target == TransferStatusRejected || target == TransferStatusCancelled
	case TransferStatusApproved:
		return target == TransferStatusCompleted
	case TransferStatusRejected, TransferStatusCancelled, TransferStatusCompleted:
		return false // Terminal states
	}
	return false
}

// IsTerminal returns true if no further transition is defined from the status
func (s TransferStatus) IsTerminal() bool {
	switch s {
	case TransferStatusRejected, TransferStatusCancelled, TransferStatusCompleted:
		return true
	}
	return false
}

// ActorRole identifies the privilege level of the user driving a transition
type ActorRole string

const (
	RoleAdmin    ActorRole = "ADMIN"
	RoleManager  ActorRole = "MANAGER"
	RoleEmployee ActorRole = "EMPLOYEE"
)

// StockTransfer represents a requested movement of a fixed quantity of one
// product from a source branch to a target branch. No stock moves until the
// transfer completes; the request only records intent.
type StockTransfer struct {
	shared.BaseAggregateRoot
	SourceBranchID  uuid.UUID      `gorm:"type:uuid;not null;index"`
	TargetBranchID  uuid.UUID      `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID      `gorm:"type:uuid;not null;index"`
	Quantity        int            `gorm:"not null"`
	Status          TransferStatus `gorm:"type:varchar(20);not null;index"`
	RequestedBy     uuid.UUID      `gorm:"type:uuid;not null;index"`
	RequestedAt     time.Time      `gorm:"not null"`
	ApprovedBy      *uuid.UUID     `gorm:"type:uuid"`
	ApprovedAt      *time.Time     `gorm:""`
	CompletedAt     *time.Time     `gorm:""`
	RejectionReason string         `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (StockTransfer) TableName() string {
	return "stock_transfers"
}

// NewStockTransfer creates a new transfer in PENDING status
func NewStockTransfer(sourceBranchID, targetBranchID, productID uuid.UUID, quantity int, requestedBy uuid.UUID) (*StockTransfer, error) {
	if sourceBranchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Source branch ID cannot be empty")
	}
	if targetBranchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Target branch ID cannot be empty")
	}
	if sourceBranchID == targetBranchID {
		return nil, shared.NewDomainError("INVALID_STATE", "Source and target branch must differ")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Transfer quantity must be positive")
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REQUESTER", "Requester ID cannot be empty")
	}

	t := &StockTransfer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SourceBranchID:    sourceBranchID,
		TargetBranchID:    targetBranchID,
		ProductID:         productID,
		Quantity:          quantity,
		Status:            TransferStatusPending,
		RequestedBy:       requestedBy,
		RequestedAt:       time.Now(),
	}

	t.AddDomainEvent(NewTransferRequestedEvent(t))

	return t, nil
}

// Approve moves the transfer from PENDING to APPROVED, recording the approver
// and timestamp. Stock is still untouched; completion moves it.
func (t *StockTransfer) Approve(approverID uuid.UUID) error {
	if !t.Status.CanTransitionTo(TransferStatusApproved) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve transfer in %s status", t.Status))
	}
	if approverID == uuid.Nil {
		return shared.NewDomainError("INVALID_APPROVER", "Approver ID cannot be empty")
	}

	now := time.Now()
	t.Status = TransferStatusApproved
	t.ApprovedBy = &approverID
	t.ApprovedAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()

	t.AddDomainEvent(NewTransferApprovedEvent(t))

	return nil
}

// Reject moves the transfer from PENDING to REJECTED with a mandatory reason
func (t *StockTransfer) Reject(approverID uuid.UUID, reason string) error {
	if !t.Status.CanTransitionTo(TransferStatusRejected) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject transfer in %s status", t.Status))
	}
	if approverID == uuid.Nil {
		return shared.NewDomainError("INVALID_APPROVER", "Approver ID cannot be empty")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Rejection reason is required")
	}

	now := time.Now()
	t.Status = TransferStatusRejected
	t.ApprovedBy = &approverID
	t.ApprovedAt = &now
	t.RejectionReason = reason
	t.UpdatedAt = now
	t.IncrementVersion()

	t.AddDomainEvent(NewTransferRejectedEvent(t))

	return nil
}

// Complete moves the transfer from APPROVED to COMPLETED. The caller is
// responsible for having moved the stock before marking completion.
func (t *StockTransfer) Complete() error {
	if !t.Status.CanTransitionTo(TransferStatusCompleted) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete transfer in %s status", t.Status))
	}

	now := time.Now()
	t.Status = TransferStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()

	t.AddDomainEvent(NewTransferCompletedEvent(t))

	return nil
}

// Cancel moves the transfer from PENDING to CANCELLED. Only the original
// requester or an administrator may cancel. No stock was ever moved, so no
// compensating adjustment is needed.
func (t *StockTransfer) Cancel(actorID uuid.UUID, role ActorRole) error {
	if !t.Status.CanTransitionTo(TransferStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel transfer in %s status", t.Status))
	}
	if !t.CanBeCancelledBy(actorID, role) {
		return shared.NewDomainError("FORBIDDEN", "Only the requester or an administrator may cancel a transfer")
	}

	t.Status = TransferStatusCancelled
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	t.AddDomainEvent(NewTransferCancelledEvent(t, actorID))

	return nil
}

// CanBeCancelledBy reports whether the actor may cancel this transfer
func (t *StockTransfer) CanBeCancelledBy(actorID uuid.UUID, role ActorRole) bool {
	return actorID == t.RequestedBy || role == RoleAdmin
}

// IsPending returns true if the transfer is awaiting review
func (t *StockTransfer) IsPending() bool {
	return t.Status == TransferStatusPending
}

// IsApproved returns true if the transfer is approved but not yet completed
func (t *StockTransfer) IsApproved() bool {
	return t.Status == TransferStatusApproved
}

// IsCompleted returns true if the stock has been moved
func (t *StockTransfer) IsCompleted() bool {
	return t.Status == TransferStatusCompleted
}
