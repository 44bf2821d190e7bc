package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{
		events: make([]shared.DomainEvent, 0),
	}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// MockBranchInventoryRepository is a mock implementation of BranchInventoryRepository
type MockBranchInventoryRepository struct {
	mock.Mock
}

func (m *MockBranchInventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.BranchInventory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.BranchInventory), args.Error(1)
}

func (m *MockBranchInventoryRepository) FindByBranchAndProduct(ctx context.Context, branchID, productID uuid.UUID) (*inventory.BranchInventory, error) {
	args := m.Called(ctx, branchID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.BranchInventory), args.Error(1)
}

func (m *MockBranchInventoryRepository) FindByBranchAndProducts(ctx context.Context, branchID uuid.UUID, productIDs []uuid.UUID) ([]inventory.BranchInventory, error) {
	args := m.Called(ctx, branchID, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.BranchInventory), args.Error(1)
}

func (m *MockBranchInventoryRepository) FindByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]inventory.BranchInventory, error) {
	args := m.Called(ctx, branchID, filter)
	return args.Get(0).([]inventory.BranchInventory), args.Error(1)
}

func (m *MockBranchInventoryRepository) FindLowStock(ctx context.Context, branchID *uuid.UUID) ([]inventory.BranchInventory, error) {
	args := m.Called(ctx, branchID)
	return args.Get(0).([]inventory.BranchInventory), args.Error(1)
}

func (m *MockBranchInventoryRepository) Save(ctx context.Context, item *inventory.BranchInventory) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockBranchInventoryRepository) SaveWithLock(ctx context.Context, item *inventory.BranchInventory) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockBranchInventoryRepository) SaveAllWithLock(ctx context.Context, items []*inventory.BranchInventory) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockBranchInventoryRepository) GetOrCreate(ctx context.Context, branchID, productID uuid.UUID) (*inventory.BranchInventory, error) {
	args := m.Called(ctx, branchID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.BranchInventory), args.Error(1)
}

func (m *MockBranchInventoryRepository) CountByBranch(ctx context.Context, branchID uuid.UUID) (int64, error) {
	args := m.Called(ctx, branchID)
	return args.Get(0).(int64), args.Error(1)
}

func createTestRow(branchID, productID uuid.UUID, stock, minStock int) *inventory.BranchInventory {
	row, _ := inventory.NewBranchInventory(branchID, productID)
	row.Stock = stock
	row.MinStock = minStock
	return row
}

func newTestService(repo *MockBranchInventoryRepository) *AdjustmentService {
	return NewAdjustmentService(repo, NewNoOpTransactionScope(repo, nil))
}

func TestAdjustmentService_GetStock(t *testing.T) {
	ctx := context.Background()
	branchID := uuid.New()
	productID := uuid.New()

	t.Run("returns units on hand", func(t *testing.T) {
		repo := new(MockBranchInventoryRepository)
		repo.On("FindByBranchAndProduct", mock.Anything, branchID, productID).
			Return(createTestRow(branchID, productID, 42, 0), nil).Once()

		stock, err := newTestService(repo).GetStock(ctx, branchID, productID)

		require.NoError(t, err)
		assert.Equal(t, 42, stock)
	})

	t.Run("missing row reads as zero", func(t *testing.T) {
		repo := new(MockBranchInventoryRepository)
		repo.On("FindByBranchAndProduct", mock.Anything, branchID, productID).
			Return(nil, shared.ErrNotFound).Once()

		stock, err := newTestService(repo).GetStock(ctx, branchID, productID)

		require.NoError(t, err)
		assert.Equal(t, 0, stock)
	})

	t.Run("storage errors propagate", func(t *testing.T) {
		repo := new(MockBranchInventoryRepository)
		repo.On("FindByBranchAndProduct", mock.Anything, branchID, productID).
			Return(nil, errors.New("connection reset")).Once()

		_, err := newTestService(repo).GetStock(ctx, branchID, productID)

		assert.Error(t, err)
	})
}

func TestAdjustmentService_ReduceBatch(t *testing.T) {
	ctx := context.Background()
	branchID := uuid.New()
	productA := uuid.New()
	productB := uuid.New()

	t.Run("debits every row and persists the batch once", func(t *testing.T) {
		rowA := createTestRow(branchID, productA, 10, 0)
		rowB := createTestRow(branchID, productB, 8, 0)

		repo := new(MockBranchInventoryRepository)
		repo.On("FindByBranchAndProducts", mock.Anything, branchID, []uuid.UUID{productA, productB}).
			Return([]inventory.BranchInventory{*rowA, *rowB}, nil).Once()
		repo.On("SaveAllWithLock", mock.Anything, mock.AnythingOfType("[]*inventory.BranchInventory")).
			Run(func(args mock.Arguments) {
				saved := args.Get(1).([]*inventory.BranchInventory)
				require.Len(t, saved, 2)
				assert.Equal(t, 7, saved[0].Stock)
				assert.Equal(t, 3, saved[1].Stock)
			}).Return(nil).Once()

		err := newTestService(repo).ReduceBatch(ctx, branchID, []StockAdjustment{
			{ProductID: productA, Quantity: 3},
			{ProductID: productB, Quantity: 5},
		})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate product IDs are summed before the sufficiency check", func(t *testing.T) {
		row := createTestRow(branchID, productA, 10, 0)

		repo := new(MockBranchInventoryRepository)
		repo.On("FindByBranchAndProducts", mock.Anything, branchID, []uuid.UUID{productA}).
			Return([]inventory.BranchInventory{*row}, nil).Once()
		repo.On("SaveAllWithLock", mock.Anything, mock.AnythingOfType("[]*inventory.BranchInventory")).
			Run(func(args mock.Arguments) {
				saved := args.Get(1).([]*inventory.BranchInventory)
				require.Len(t, saved, 1)
				assert.Equal(t, 3, saved[0].Stock)
			}).Return(nil).Once()

		err := newTestService(repo).ReduceBatch(ctx, branchID, []StockAdjustment{
			{ProductID: productA, Quantity: 3},
			{ProductID: productA, Quantity: 4},
		})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("summed duplicates exceeding stock fail even when each line alone fits", func(t *testing.T) {
		row := createTestRow(branchID, productA, 6, 0)

		repo := new(MockBranchInventoryRepository)
		repo.On("FindByBranchAndProducts", mock.Anything, branchID, []uuid.UUID{productA}).
			Return([]inventory.BranchInventory{*row}, nil).Once()

		err := newTestService(repo).ReduceBatch(ctx, branchID, []StockAdjustment{
			{ProductID: productA, Quantity: 3},
			{ProductID: productA, Quantity: 4},
		})

		require.Error(t, err)
		var insufficientErr *inventory.InsufficientStockError
		require.ErrorAs(t, err, &insufficientErr)
		assert.Equal(t, productA, insufficientErr.ProductID)
		assert.Equal(t, 6, insufficientErr.Available)
		assert.Equal(t, 7, insufficientErr.Requested)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		repo.AssertNotCalled(t, "SaveAllWithLock", mock.Anything, mock.Anything)
	})

	t.Run("any missing row fails the whole batch and names every missing product", func(t *testing.T) {
		rowA := createTestRow(branchID, productA, 10, 0)

		repo := new(MockBranchInventoryRepository)
		repo.On("FindByBranchAndProducts", mock.Anything, branchID, []uuid.UUID{productA, productB}).
			Return([]inventory.BranchInventory{*rowA}, nil).Once()

		err := newTestService(repo).ReduceBatch(ctx, branchID, []StockAdjustment{
			{ProductID: productA, Quantity: 1},
			{ProductID: productB, Quantity: 1},
		})

		require.Error(t, err)
		var notFoundErr *inventory.ProductsNotFoundError
		require.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, []uuid.UUID{productB}, notFoundErr.ProductIDs)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		repo.AssertNotCalled(t, "SaveAllWithLock", mock.Anything, mock.Anything)
	})

	t.Run("empty batch is rejected", func(t *testing.T) {
		repo := new(MockBranchInventoryRepository)

		err := newTestService(repo).ReduceBatch(ctx, branchID, nil)

		assert.Error(t, err)
	})

	t.Run("non-positive quantity is rejected", func(t *testing.T) {
		repo := new(MockBranchInventoryRepository)

		err := newTestService(repo).ReduceBatch(ctx, branchID, []StockAdjustment{
			{ProductID: productA, Quantity: 0},
		})

		assert.Error(t, err)
	})
}

func TestAdjustmentService_ReduceBatch_ConflictRetry(t *testing.T) {
	ctx := context.Background()
	branchID := uuid.New()
	productID := uuid.New()

	t.Run("retries with fresh reads and succeeds", func(t *testing.T) {
		repo := new(MockBranchInventoryRepository)
		repo.On("FindByBranchAndProducts", mock.Anything, branchID, []uuid.UUID{productID}).
			Return([]inventory.BranchInventory{*createTestRow(branchID, productID, 10, 0)}, nil).Times(3)
		repo.On("SaveAllWithLock", mock.Anything, mock.AnythingOfType("[]*inventory.BranchInventory")).
			Return(shared.ErrConcurrencyConflict).Twice()
		repo.On("SaveAllWithLock", mock.Anything, mock.AnythingOfType("[]*inventory.BranchInventory")).
			Return(nil).Once()

		err := newTestService(repo).ReduceBatch(ctx, branchID, []StockAdjustment{
			{ProductID: productID, Quantity: 4},
		})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("surfaces the conflict once the retry budget is exhausted", func(t *testing.T) {
		repo := new(MockBranchInventoryRepository)
		repo.On("FindByBranchAndProducts", mock.Anything, branchID, []uuid.UUID{productID}).
			Return([]inventory.BranchInventory{*createTestRow(branchID, productID, 10, 0)}, nil)
		repo.On("SaveAllWithLock", mock.Anything, mock.AnythingOfType("[]*inventory.BranchInventory")).
			Return(shared.ErrConcurrencyConflict)

		service := newTestService(repo)
		service.SetMaxRetries(2)

		err := service.ReduceBatch(ctx, branchID, []StockAdjustment{
			{ProductID: productID, Quantity: 4},
		})

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
		// initial attempt plus two retries
		repo.AssertNumberOfCalls(t, "SaveAllWithLock", 3)
	})

	t.Run("retry re-checks sufficiency against the fresh read", func(t *testing.T) {
		// Another writer drains the row between attempts. The retry must
		// fail on the diminished figure, not the stale one.
		repo := new(MockBranchInventoryRepository)
		repo.On("FindByBranchAndProducts", mock.Anything, branchID, []uuid.UUID{productID}).
			Return([]inventory.BranchInventory{*createTestRow(branchID, productID, 10, 0)}, nil).Once()
		repo.On("SaveAllWithLock", mock.Anything, mock.AnythingOfType("[]*inventory.BranchInventory")).
			Return(shared.ErrConcurrencyConflict).Once()
		repo.On("FindByBranchAndProducts", mock.Anything, branchID, []uuid.UUID{productID}).
			Return([]inventory.BranchInventory{*createTestRow(branchID, productID, 4, 0)}, nil).Once()

		err := newTestService(repo).ReduceBatch(ctx, branchID, []StockAdjustment{
			{ProductID: productID, Quantity: 6},
		})

		require.Error(t, err)
		var insufficientErr *inventory.InsufficientStockError
		require.ErrorAs(t, err, &insufficientErr)
		assert.Equal(t, 4, insufficientErr.Available)
		assert.Equal(t, 6, insufficientErr.Requested)
		repo.AssertNumberOfCalls(t, "SaveAllWithLock", 1)
	})

	t.Run("non-conflict errors are not retried", func(t *testing.T) {
		repo := new(MockBranchInventoryRepository)
		repo.On("FindByBranchAndProducts", mock.Anything, branchID, []uuid.UUID{productID}).
			Return([]inventory.BranchInventory{*createTestRow(branchID, productID, 10, 0)}, nil)
		repo.On("SaveAllWithLock", mock.Anything, mock.AnythingOfType("[]*inventory.BranchInventory")).
			Return(errors.New("disk full"))

		err := newTestService(repo).ReduceBatch(ctx, branchID, []StockAdjustment{
			{ProductID: productID, Quantity: 4},
		})

		require.Error(t, err)
		repo.AssertNumberOfCalls(t, "SaveAllWithLock", 1)
	})
}

func TestAdjustmentService_RestoreBatch(t *testing.T) {
	ctx := context.Background()
	branchID := uuid.New()
	productID := uuid.New()

	t.Run("credits the rows back", func(t *testing.T) {
		row := createTestRow(branchID, productID, 3, 0)

		repo := new(MockBranchInventoryRepository)
		repo.On("FindByBranchAndProducts", mock.Anything, branchID, []uuid.UUID{productID}).
			Return([]inventory.BranchInventory{*row}, nil).Once()
		repo.On("SaveAllWithLock", mock.Anything, mock.AnythingOfType("[]*inventory.BranchInventory")).
			Run(func(args mock.Arguments) {
				saved := args.Get(1).([]*inventory.BranchInventory)
				require.Len(t, saved, 1)
				assert.Equal(t, 10, saved[0].Stock)
			}).Return(nil).Once()

		err := newTestService(repo).RestoreBatch(ctx, branchID, []StockAdjustment{
			{ProductID: productID, Quantity: 7},
		})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("empty batch is a silent no-op touching no repository", func(t *testing.T) {
		repo := new(MockBranchInventoryRepository)

		service := newTestService(repo)
		require.NoError(t, service.RestoreBatch(ctx, branchID, nil))
		require.NoError(t, service.RestoreBatch(ctx, branchID, []StockAdjustment{}))

		repo.AssertNotCalled(t, "FindByBranchAndProducts", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "SaveAllWithLock", mock.Anything, mock.Anything)
	})

	t.Run("missing row fails the credit", func(t *testing.T) {
		repo := new(MockBranchInventoryRepository)
		repo.On("FindByBranchAndProducts", mock.Anything, branchID, []uuid.UUID{productID}).
			Return([]inventory.BranchInventory{}, nil).Once()

		err := newTestService(repo).RestoreBatch(ctx, branchID, []StockAdjustment{
			{ProductID: productID, Quantity: 7},
		})

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestAdjustmentService_ReduceThenRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	branchID := uuid.New()
	productID := uuid.New()

	var persisted []int

	repo := new(MockBranchInventoryRepository)
	repo.On("FindByBranchAndProducts", mock.Anything, branchID, []uuid.UUID{productID}).
		Return([]inventory.BranchInventory{*createTestRow(branchID, productID, 10, 0)}, nil).Once()
	repo.On("FindByBranchAndProducts", mock.Anything, branchID, []uuid.UUID{productID}).
		Return([]inventory.BranchInventory{*createTestRow(branchID, productID, 6, 0)}, nil).Once()
	repo.On("SaveAllWithLock", mock.Anything, mock.AnythingOfType("[]*inventory.BranchInventory")).
		Run(func(args mock.Arguments) {
			saved := args.Get(1).([]*inventory.BranchInventory)
			persisted = append(persisted, saved[0].Stock)
		}).Return(nil).Twice()

	service := newTestService(repo)
	items := []StockAdjustment{{ProductID: productID, Quantity: 4}}

	require.NoError(t, service.ReduceBatch(ctx, branchID, items))
	require.NoError(t, service.RestoreBatch(ctx, branchID, items))

	// debit leaves 6, the symmetric credit brings the row back to 10
	assert.Equal(t, []int{6, 10}, persisted)
	repo.AssertExpectations(t)
}

func TestAdjustmentService_IncreaseStock(t *testing.T) {
	ctx := context.Background()
	branchID := uuid.New()
	productID := uuid.New()

	t.Run("credits an existing row and stamps the restock date", func(t *testing.T) {
		row := createTestRow(branchID, productID, 5, 0)

		repo := new(MockBranchInventoryRepository)
		repo.On("GetOrCreate", mock.Anything, branchID, productID).Return(row, nil).Once()
		repo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*inventory.BranchInventory")).
			Return(nil).Once()

		err := newTestService(repo).IncreaseStock(ctx, branchID, productID, 20)

		require.NoError(t, err)
		assert.Equal(t, 25, row.Stock)
		assert.NotNil(t, row.LastRestockDate)
		repo.AssertExpectations(t)
	})

	t.Run("creates the row for a product never stocked at the branch", func(t *testing.T) {
		fresh, err := inventory.NewBranchInventory(branchID, productID)
		require.NoError(t, err)

		repo := new(MockBranchInventoryRepository)
		repo.On("GetOrCreate", mock.Anything, branchID, productID).Return(fresh, nil).Once()
		repo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*inventory.BranchInventory")).
			Return(nil).Once()

		require.NoError(t, newTestService(repo).IncreaseStock(ctx, branchID, productID, 12))
		assert.Equal(t, 12, fresh.Stock)
	})

	t.Run("rejects non-positive quantities", func(t *testing.T) {
		repo := new(MockBranchInventoryRepository)

		assert.Error(t, newTestService(repo).IncreaseStock(ctx, branchID, productID, 0))
		assert.Error(t, newTestService(repo).IncreaseStock(ctx, branchID, productID, -3))
	})
}

func TestAdjustmentService_SetMinStock(t *testing.T) {
	ctx := context.Background()
	branchID := uuid.New()
	productID := uuid.New()

	row := createTestRow(branchID, productID, 5, 0)

	repo := new(MockBranchInventoryRepository)
	repo.On("FindByBranchAndProduct", mock.Anything, branchID, productID).Return(row, nil).Once()
	repo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*inventory.BranchInventory")).
		Return(nil).Once()

	err := newTestService(repo).SetMinStock(ctx, branchID, productID, 8)

	require.NoError(t, err)
	assert.Equal(t, 8, row.MinStock)
	repo.AssertExpectations(t)
}

func TestAdjustmentService_PublishesStockBelowThresholdEvent(t *testing.T) {
	ctx := context.Background()
	branchID := uuid.New()
	productID := uuid.New()

	row := createTestRow(branchID, productID, 10, 5)

	repo := new(MockBranchInventoryRepository)
	repo.On("FindByBranchAndProducts", mock.Anything, branchID, []uuid.UUID{productID}).
		Return([]inventory.BranchInventory{*row}, nil).Once()
	repo.On("SaveAllWithLock", mock.Anything, mock.AnythingOfType("[]*inventory.BranchInventory")).
		Return(nil).Once()

	publisher := NewMockEventPublisher()
	service := newTestService(repo)
	service.SetEventPublisher(publisher)

	// 10 - 6 = 4, at or below the threshold of 5
	err := service.ReduceBatch(ctx, branchID, []StockAdjustment{{ProductID: productID, Quantity: 6}})

	require.NoError(t, err)
	assert.Len(t, publisher.GetEventsByType(inventory.EventTypeStockReduced), 1)
	assert.Len(t, publisher.GetEventsByType(inventory.EventTypeStockBelowThreshold), 1)
}

func TestAdjustmentService_ListLowStock(t *testing.T) {
	ctx := context.Background()
	branchID := uuid.New()

	rows := []inventory.BranchInventory{
		*createTestRow(branchID, uuid.New(), 2, 5),
		*createTestRow(branchID, uuid.New(), 0, 3),
	}

	repo := new(MockBranchInventoryRepository)
	repo.On("FindLowStock", mock.Anything, &branchID).Return(rows, nil).Once()

	responses, err := newTestService(repo).ListLowStock(ctx, &branchID)

	require.NoError(t, err)
	assert.Len(t, responses, 2)
	assert.Equal(t, 2, responses[0].Stock)
}
