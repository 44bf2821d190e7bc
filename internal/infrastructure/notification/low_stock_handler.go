package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
)

// LowStockAlertHandler raises an alert towards admins and branch managers
// whenever a debit leaves a ledger row at or below its advisory minimum.
type LowStockAlertHandler struct {
	logger   *zap.Logger
	notifier Notifier
}

// NewLowStockAlertHandler creates a new handler for below-threshold events
func NewLowStockAlertHandler(logger *zap.Logger, notifier Notifier) *LowStockAlertHandler {
	return &LowStockAlertHandler{
		logger:   logger,
		notifier: notifier,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockAlertHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowThreshold}
}

// Handle processes a StockBelowThresholdEvent
func (h *LowStockAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*inventory.StockBelowThresholdEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", inventory.EventTypeStockBelowThreshold),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockBelowThreshold, event.EventType())
	}

	alertType := "low_stock"
	if e.CurrentStock == 0 {
		alertType = "out_of_stock"
	}

	h.logger.Warn("stock below threshold",
		zap.String("branch_id", e.BranchID.String()),
		zap.String("product_id", e.ProductID.String()),
		zap.Int("current_stock", e.CurrentStock),
		zap.Int("min_stock", e.MinStock),
		zap.String("alert_type", alertType),
	)

	n := Notification{
		Audience: AudienceManagement,
		Subject:  "Low stock alert",
		Body: fmt.Sprintf("Product %s at branch %s is down to %d units (minimum %d)",
			e.ProductID, e.BranchID, e.CurrentStock, e.MinStock),
		Metadata: map[string]string{
			"alert_type": alertType,
			"branch_id":  e.BranchID.String(),
			"product_id": e.ProductID.String(),
		},
	}

	if err := h.notifier.Send(ctx, n); err != nil {
		// Notification failure must not fail the event handling
		h.logger.Error("failed to send low stock alert",
			zap.String("product_id", e.ProductID.String()),
			zap.Error(err),
		)
	}
	return nil
}

var _ shared.EventHandler = (*LowStockAlertHandler)(nil)
