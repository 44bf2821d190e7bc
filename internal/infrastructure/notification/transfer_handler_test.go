package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/transfer"
)

type capturingNotifier struct {
	sent []Notification
	err  error
}

func (n *capturingNotifier) Send(_ context.Context, notification Notification) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification)
	return nil
}

func approvedTransfer(t *testing.T) *transfer.StockTransfer {
	t.Helper()
	tr, err := transfer.NewStockTransfer(uuid.New(), uuid.New(), uuid.New(), 5, uuid.New())
	require.NoError(t, err)
	require.NoError(t, tr.Approve(uuid.New()))
	return tr
}

func TestTransferLifecycleHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("approval is addressed to the requester", func(t *testing.T) {
		notifier := &capturingNotifier{}
		handler := NewTransferLifecycleHandler(zap.NewNop(), notifier)

		tr := approvedTransfer(t)
		err := handler.Handle(ctx, transfer.NewTransferApprovedEvent(tr))
		require.NoError(t, err)

		require.Len(t, notifier.sent, 1)
		n := notifier.sent[0]
		assert.Equal(t, AudienceUser, n.Audience)
		assert.Equal(t, tr.RequestedBy.String(), n.Recipient)
		assert.Equal(t, "Stock transfer approved", n.Subject)
		assert.Equal(t, tr.ID.String(), n.Metadata["transfer_id"])
	})

	t.Run("rejection carries the reason to the requester", func(t *testing.T) {
		notifier := &capturingNotifier{}
		handler := NewTransferLifecycleHandler(zap.NewNop(), notifier)

		tr, err := transfer.NewStockTransfer(uuid.New(), uuid.New(), uuid.New(), 5, uuid.New())
		require.NoError(t, err)
		require.NoError(t, tr.Reject(uuid.New(), "target branch overstocked"))

		err = handler.Handle(ctx, transfer.NewTransferRejectedEvent(tr))
		require.NoError(t, err)

		require.Len(t, notifier.sent, 1)
		n := notifier.sent[0]
		assert.Equal(t, AudienceUser, n.Audience)
		assert.Equal(t, tr.RequestedBy.String(), n.Recipient)
		assert.Contains(t, n.Body, "target branch overstocked")
	})

	t.Run("completion goes to management", func(t *testing.T) {
		notifier := &capturingNotifier{}
		handler := NewTransferLifecycleHandler(zap.NewNop(), notifier)

		tr := approvedTransfer(t)
		require.NoError(t, tr.Complete())

		err := handler.Handle(ctx, transfer.NewTransferCompletedEvent(tr))
		require.NoError(t, err)

		require.Len(t, notifier.sent, 1)
		n := notifier.sent[0]
		assert.Equal(t, AudienceManagement, n.Audience)
		assert.Empty(t, n.Recipient)
	})

	t.Run("notifier failure does not surface", func(t *testing.T) {
		notifier := &capturingNotifier{err: errors.New("smtp down")}
		handler := NewTransferLifecycleHandler(zap.NewNop(), notifier)

		tr := approvedTransfer(t)
		err := handler.Handle(ctx, transfer.NewTransferApprovedEvent(tr))
		assert.NoError(t, err)
	})

	t.Run("rejects unrelated event types", func(t *testing.T) {
		notifier := &capturingNotifier{}
		handler := NewTransferLifecycleHandler(zap.NewNop(), notifier)

		row, err := inventory.NewBranchInventory(uuid.New(), uuid.New())
		require.NoError(t, err)

		err = handler.Handle(ctx, inventory.NewStockBelowThresholdEvent(row))
		require.Error(t, err)
		assert.Empty(t, notifier.sent)
	})
}

func TestLowStockAlertHandler(t *testing.T) {
	ctx := context.Background()

	newRow := func(t *testing.T, stock, minStock int) *inventory.BranchInventory {
		t.Helper()
		row, err := inventory.NewBranchInventory(uuid.New(), uuid.New())
		require.NoError(t, err)
		row.Stock = stock
		row.MinStock = minStock
		return row
	}

	t.Run("alerts management with stock figures", func(t *testing.T) {
		notifier := &capturingNotifier{}
		handler := NewLowStockAlertHandler(zap.NewNop(), notifier)

		row := newRow(t, 3, 10)
		err := handler.Handle(ctx, inventory.NewStockBelowThresholdEvent(row))
		require.NoError(t, err)

		require.Len(t, notifier.sent, 1)
		n := notifier.sent[0]
		assert.Equal(t, AudienceManagement, n.Audience)
		assert.Equal(t, "low_stock", n.Metadata["alert_type"])
		assert.Contains(t, n.Body, "3 units")
	})

	t.Run("zero stock is flagged as out of stock", func(t *testing.T) {
		notifier := &capturingNotifier{}
		handler := NewLowStockAlertHandler(zap.NewNop(), notifier)

		row := newRow(t, 0, 10)
		err := handler.Handle(ctx, inventory.NewStockBelowThresholdEvent(row))
		require.NoError(t, err)

		require.Len(t, notifier.sent, 1)
		assert.Equal(t, "out_of_stock", notifier.sent[0].Metadata["alert_type"])
	})

	t.Run("rejects unrelated event types", func(t *testing.T) {
		notifier := &capturingNotifier{}
		handler := NewLowStockAlertHandler(zap.NewNop(), notifier)

		tr := approvedTransfer(t)
		err := handler.Handle(ctx, transfer.NewTransferApprovedEvent(tr))
		require.Error(t, err)
		assert.Empty(t, notifier.sent)
	})
}
