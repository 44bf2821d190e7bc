package sales

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestSale(t *testing.T) *Sale {
	t.Helper()
	sale, err := NewSale(uuid.New(), uuid.New(), []SaleLine{
		{ProductID: uuid.New(), Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
		{ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromFloat(5.50)},
	})
	require.NoError(t, err)
	sale.ClearDomainEvents()
	return sale
}

func TestNewSale(t *testing.T) {
	branchID := uuid.New()
	soldBy := uuid.New()
	productID := uuid.New()

	t.Run("creates active sale with computed total", func(t *testing.T) {
		sale, err := NewSale(branchID, soldBy, []SaleLine{
			{ProductID: productID, Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
			{ProductID: uuid.New(), Quantity: 3, UnitPrice: decimal.NewFromInt(4)},
		})

		require.NoError(t, err)
		assert.Equal(t, SaleStatusActive, sale.Status)
		assert.Len(t, sale.Details, 2)
		assert.True(t, sale.Total.Equal(decimal.NewFromInt(32)))

		events := sale.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeSaleCreated, events[0].EventType())
	})

	t.Run("detail subtotals snapshot the unit price", func(t *testing.T) {
		sale, err := NewSale(branchID, soldBy, []SaleLine{
			{ProductID: productID, Quantity: 4, UnitPrice: decimal.NewFromFloat(2.25)},
		})

		require.NoError(t, err)
		detail := sale.Details[0]
		assert.True(t, detail.UnitPrice.Equal(decimal.NewFromFloat(2.25)))
		assert.True(t, detail.Subtotal.Equal(decimal.NewFromInt(9)))
		assert.Equal(t, sale.ID, detail.SaleID)
	})

	t.Run("requires at least one line", func(t *testing.T) {
		_, err := NewSale(branchID, soldBy, nil)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewSale(branchID, soldBy, []SaleLine{
			{ProductID: productID, Quantity: 0, UnitPrice: decimal.NewFromInt(10)},
		})
		assert.Error(t, err)
	})

	t.Run("rejects negative unit price", func(t *testing.T) {
		_, err := NewSale(branchID, soldBy, []SaleLine{
			{ProductID: productID, Quantity: 1, UnitPrice: decimal.NewFromInt(-1)},
		})
		assert.Error(t, err)
	})

	t.Run("rejects nil branch or seller", func(t *testing.T) {
		lines := []SaleLine{{ProductID: productID, Quantity: 1, UnitPrice: decimal.NewFromInt(1)}}

		_, err := NewSale(uuid.Nil, soldBy, lines)
		assert.Error(t, err)

		_, err = NewSale(branchID, uuid.Nil, lines)
		assert.Error(t, err)
	})
}

func TestSale_Cancel(t *testing.T) {
	t.Run("marks the sale cancelled", func(t *testing.T) {
		sale := createTestSale(t)

		require.NoError(t, sale.Cancel())

		assert.Equal(t, SaleStatusCancelled, sale.Status)
		assert.False(t, sale.IsActive())

		events := sale.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeSaleCancelled, events[0].EventType())
	})

	t.Run("cancelling twice is refused", func(t *testing.T) {
		sale := createTestSale(t)
		require.NoError(t, sale.Cancel())

		err := sale.Cancel()

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})
}

func TestSale_ReplaceLines(t *testing.T) {
	t.Run("swaps details and recomputes the total", func(t *testing.T) {
		sale := createTestSale(t)
		newProduct := uuid.New()

		err := sale.ReplaceLines([]SaleLine{
			{ProductID: newProduct, Quantity: 4, UnitPrice: decimal.NewFromInt(3)},
		})

		require.NoError(t, err)
		require.Len(t, sale.Details, 1)
		assert.Equal(t, newProduct, sale.Details[0].ProductID)
		assert.True(t, sale.Total.Equal(decimal.NewFromInt(12)))
	})

	t.Run("a cancelled sale cannot be edited", func(t *testing.T) {
		sale := createTestSale(t)
		require.NoError(t, sale.Cancel())

		err := sale.ReplaceLines([]SaleLine{
			{ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(1)},
		})

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})

	t.Run("an empty replacement is refused", func(t *testing.T) {
		sale := createTestSale(t)

		assert.Error(t, sale.ReplaceLines(nil))
		assert.Len(t, sale.Details, 2)
	})
}

func TestSale_LineItems(t *testing.T) {
	sale := createTestSale(t)

	items := sale.LineItems()

	require.Len(t, items, 2)
	assert.Equal(t, sale.Details[0].ProductID, items[0].ProductID)
	assert.Equal(t, sale.Details[0].Quantity, items[0].Quantity)
}
