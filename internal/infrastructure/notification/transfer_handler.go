package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/transfer"
)

// TransferLifecycleHandler turns transfer lifecycle events into notifications.
// Approval and rejection outcomes are addressed to the requester; completions
// go to admins and branch managers.
type TransferLifecycleHandler struct {
	logger   *zap.Logger
	notifier Notifier
}

// NewTransferLifecycleHandler creates a new handler for transfer lifecycle events
func NewTransferLifecycleHandler(logger *zap.Logger, notifier Notifier) *TransferLifecycleHandler {
	return &TransferLifecycleHandler{
		logger:   logger,
		notifier: notifier,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *TransferLifecycleHandler) EventTypes() []string {
	return []string{
		transfer.EventTypeTransferApproved,
		transfer.EventTypeTransferRejected,
		transfer.EventTypeTransferCompleted,
	}
}

// Handle processes a transfer lifecycle event
func (h *TransferLifecycleHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var n Notification

	switch e := event.(type) {
	case *transfer.TransferApprovedEvent:
		n = Notification{
			Audience:  AudienceUser,
			Recipient: e.RequestedBy.String(),
			Subject:   "Stock transfer approved",
			Body: fmt.Sprintf("Your transfer of %d units of product %s was approved",
				e.Quantity, e.ProductID),
			Metadata: map[string]string{
				"transfer_id": e.AggregateID().String(),
				"approved_by": e.ApprovedBy.String(),
			},
		}
	case *transfer.TransferRejectedEvent:
		n = Notification{
			Audience:  AudienceUser,
			Recipient: e.RequestedBy.String(),
			Subject:   "Stock transfer rejected",
			Body: fmt.Sprintf("Your transfer of %d units of product %s was rejected: %s",
				e.Quantity, e.ProductID, e.Reason),
			Metadata: map[string]string{
				"transfer_id": e.AggregateID().String(),
				"rejected_by": e.RejectedBy.String(),
			},
		}
	case *transfer.TransferCompletedEvent:
		n = Notification{
			Audience: AudienceManagement,
			Subject:  "Stock transfer completed",
			Body: fmt.Sprintf("%d units of product %s moved from branch %s to branch %s",
				e.Quantity, e.ProductID, e.SourceBranchID, e.TargetBranchID),
			Metadata: map[string]string{
				"transfer_id": e.AggregateID().String(),
			},
		}
	default:
		h.logger.Error("unexpected event type",
			zap.String("event_type", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	if err := h.notifier.Send(ctx, n); err != nil {
		// Notification failure must not fail the event handling
		h.logger.Error("failed to send transfer notification",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	}
	return nil
}

var _ shared.EventHandler = (*TransferLifecycleHandler)(nil)
