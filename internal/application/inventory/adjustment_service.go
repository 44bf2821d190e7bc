package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
)

// DefaultMaxRetries bounds how often a conflicted validate-then-write sequence
// is re-run before the conflict is surfaced to the caller.
const DefaultMaxRetries = 3

// AdjustmentService is the stock adjustment engine. All mutations are batched
// per branch, validated against the ledger, and persisted with optimistic
// version checks; a concurrent writer invalidates the read and the whole
// sequence is retried against fresh values.
type AdjustmentService struct {
	inventoryRepo  inventory.BranchInventoryRepository
	scope          TransactionScope
	eventPublisher shared.EventPublisher
	maxRetries     int
}

// NewAdjustmentService creates a new AdjustmentService
func NewAdjustmentService(inventoryRepo inventory.BranchInventoryRepository, scope TransactionScope) *AdjustmentService {
	return &AdjustmentService{
		inventoryRepo: inventoryRepo,
		scope:         scope,
		maxRetries:    DefaultMaxRetries,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AdjustmentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMaxRetries overrides the conflict retry budget
func (s *AdjustmentService) SetMaxRetries(n int) {
	if n > 0 {
		s.maxRetries = n
	}
}

// GetStock returns the units on hand for a branch-product combination.
// A missing ledger row means the product was never stocked at the branch and
// reads as zero, never as an error.
func (s *AdjustmentService) GetStock(ctx context.Context, branchID, productID uuid.UUID) (int, error) {
	item, err := s.inventoryRepo.FindByBranchAndProduct(ctx, branchID, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return item.Stock, nil
}

// ListLowStock returns ledger rows at or below their advisory threshold,
// optionally scoped to one branch. Read-only.
func (s *AdjustmentService) ListLowStock(ctx context.Context, branchID *uuid.UUID) ([]BranchInventoryResponse, error) {
	items, err := s.inventoryRepo.FindLowStock(ctx, branchID)
	if err != nil {
		return nil, err
	}
	return ToBranchInventoryResponses(items), nil
}

// ListByBranch returns the ledger rows at a branch
func (s *AdjustmentService) ListByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]BranchInventoryResponse, error) {
	items, err := s.inventoryRepo.FindByBranch(ctx, branchID, filter)
	if err != nil {
		return nil, err
	}
	return ToBranchInventoryResponses(items), nil
}

// SetMinStock updates the advisory restocking threshold for a ledger row
func (s *AdjustmentService) SetMinStock(ctx context.Context, branchID, productID uuid.UUID, minStock int) error {
	return s.withConflictRetry(ctx, func() ([]*inventory.BranchInventory, error) {
		var mutated []*inventory.BranchInventory
		err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			item, err := repos.InventoryRepo().FindByBranchAndProduct(ctx, branchID, productID)
			if err != nil {
				return err
			}
			if err := item.SetMinStock(minStock); err != nil {
				return err
			}
			if err := repos.InventoryRepo().SaveWithLock(ctx, item); err != nil {
				return err
			}
			mutated = []*inventory.BranchInventory{item}
			return nil
		})
		return mutated, err
	})
}

// ReduceBatch debits stock for a set of products at one branch, atomically.
// Duplicate product IDs within the batch are summed before the sufficiency
// check. If any product has no ledger row, the whole batch fails with a
// not-found error listing every missing product; if any row holds less than
// the aggregated request, the batch fails with an insufficient-stock error
// and nothing is mutated.
func (s *AdjustmentService) ReduceBatch(ctx context.Context, branchID uuid.UUID, items []StockAdjustment) error {
	if err := validateAdjustments(branchID, items, true); err != nil {
		return err
	}

	return s.withConflictRetry(ctx, func() ([]*inventory.BranchInventory, error) {
		var mutated []*inventory.BranchInventory
		err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			mutated, err = s.ReduceBatchWith(ctx, repos.InventoryRepo(), branchID, items)
			return err
		})
		return mutated, err
	})
}

// RestoreBatch credits stock for a set of products at one branch, atomically.
// Symmetric to ReduceBatch but never fails for insufficiency; credits are
// unconditionally safe. An empty or nil batch is a silent no-op that touches
// no repository.
func (s *AdjustmentService) RestoreBatch(ctx context.Context, branchID uuid.UUID, items []StockAdjustment) error {
	if len(items) == 0 {
		return nil
	}
	if err := validateAdjustments(branchID, items, false); err != nil {
		return err
	}

	return s.withConflictRetry(ctx, func() ([]*inventory.BranchInventory, error) {
		var mutated []*inventory.BranchInventory
		err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			mutated, err = s.RestoreBatchWith(ctx, repos.InventoryRepo(), branchID, items)
			return err
		})
		return mutated, err
	})
}

// ReduceSingle debits stock for a single product, with the same sufficiency
// and not-found semantics as the batch form
func (s *AdjustmentService) ReduceSingle(ctx context.Context, branchID, productID uuid.UUID, quantity int) error {
	return s.ReduceBatch(ctx, branchID, []StockAdjustment{{ProductID: productID, Quantity: quantity}})
}

// RestoreSingle credits stock for a single product
func (s *AdjustmentService) RestoreSingle(ctx context.Context, branchID, productID uuid.UUID, quantity int) error {
	return s.RestoreBatch(ctx, branchID, []StockAdjustment{{ProductID: productID, Quantity: quantity}})
}

// IncreaseStock unconditionally credits new stock at a branch, creating the
// ledger row with zero starting stock if the product was never stocked there.
// Used when receiving goods, including the target side of a completed transfer.
func (s *AdjustmentService) IncreaseStock(ctx context.Context, branchID, productID uuid.UUID, quantity int) error {
	if branchID == uuid.Nil {
		return shared.NewDomainError("INVALID_BRANCH", "Branch ID cannot be empty")
	}
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	return s.withConflictRetry(ctx, func() ([]*inventory.BranchInventory, error) {
		var mutated []*inventory.BranchInventory
		err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			item, err := repos.InventoryRepo().GetOrCreate(ctx, branchID, productID)
			if err != nil {
				return err
			}
			if err := item.Increase(quantity); err != nil {
				return err
			}
			if err := repos.InventoryRepo().SaveWithLock(ctx, item); err != nil {
				return err
			}
			mutated = []*inventory.BranchInventory{item}
			return nil
		})
		return mutated, err
	})
}

// ReduceBatchWith runs one validate-then-write debit pass against the given
// repository. Exposed so callers composing a larger transaction (e.g. sale
// creation) can share the engine's semantics; it performs no retry of its own
// and returns the mutated aggregates so their events can be published after
// commit.
func (s *AdjustmentService) ReduceBatchWith(ctx context.Context, repo inventory.BranchInventoryRepository, branchID uuid.UUID, items []StockAdjustment) ([]*inventory.BranchInventory, error) {
	aggregated := aggregateAdjustments(items)

	rows, missing, err := s.loadRows(ctx, repo, branchID, aggregated)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, inventory.NewProductsNotFoundError(branchID, missing)
	}

	mutated := make([]*inventory.BranchInventory, 0, len(aggregated))
	for _, adj := range aggregated {
		row := rows[adj.ProductID]
		if err := row.Reduce(adj.Quantity); err != nil {
			return nil, err
		}
		mutated = append(mutated, row)
	}

	if err := repo.SaveAllWithLock(ctx, mutated); err != nil {
		return nil, err
	}
	return mutated, nil
}

// RestoreBatchWith runs one credit pass against the given repository, with
// the same missing-product validation as the debit form
func (s *AdjustmentService) RestoreBatchWith(ctx context.Context, repo inventory.BranchInventoryRepository, branchID uuid.UUID, items []StockAdjustment) ([]*inventory.BranchInventory, error) {
	if len(items) == 0 {
		return nil, nil
	}
	aggregated := aggregateAdjustments(items)

	rows, missing, err := s.loadRows(ctx, repo, branchID, aggregated)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, inventory.NewProductsNotFoundError(branchID, missing)
	}

	mutated := make([]*inventory.BranchInventory, 0, len(aggregated))
	for _, adj := range aggregated {
		row := rows[adj.ProductID]
		if err := row.Restore(adj.Quantity); err != nil {
			return nil, err
		}
		mutated = append(mutated, row)
	}

	if err := repo.SaveAllWithLock(ctx, mutated); err != nil {
		return nil, err
	}
	return mutated, nil
}

// loadRows batch-reads the ledger rows for the aggregated adjustments and
// reports which requested products have no row at the branch
func (s *AdjustmentService) loadRows(ctx context.Context, repo inventory.BranchInventoryRepository, branchID uuid.UUID, aggregated []StockAdjustment) (map[uuid.UUID]*inventory.BranchInventory, []uuid.UUID, error) {
	productIDs := make([]uuid.UUID, 0, len(aggregated))
	for _, adj := range aggregated {
		productIDs = append(productIDs, adj.ProductID)
	}

	found, err := repo.FindByBranchAndProducts(ctx, branchID, productIDs)
	if err != nil {
		return nil, nil, err
	}

	rows := make(map[uuid.UUID]*inventory.BranchInventory, len(found))
	for i := range found {
		rows[found[i].ProductID] = &found[i]
	}

	var missing []uuid.UUID
	for _, id := range productIDs {
		if _, ok := rows[id]; !ok {
			missing = append(missing, id)
		}
	}
	return rows, missing, nil
}

// PublishEvents publishes the pending domain events of the given aggregates.
// Event delivery is fire-and-forget: failures are logged by the bus and never
// affect the stock mutation that produced them.
func (s *AdjustmentService) PublishEvents(ctx context.Context, mutated []*inventory.BranchInventory) {
	if s.eventPublisher == nil {
		return
	}
	for _, item := range mutated {
		events := item.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		_ = s.eventPublisher.Publish(ctx, events...)
		item.ClearDomainEvents()
	}
}

// withConflictRetry re-runs a validate-then-write sequence while it fails on
// optimistic version conflicts, up to the retry budget, and publishes the
// surviving aggregates' events once the sequence commits
func (s *AdjustmentService) withConflictRetry(ctx context.Context, attempt func() ([]*inventory.BranchInventory, error)) error {
	var lastErr error
	for try := 0; try <= s.maxRetries; try++ {
		mutated, err := attempt()
		if err == nil {
			s.PublishEvents(ctx, mutated)
			return nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// validateAdjustments checks the structural preconditions of a batch call
func validateAdjustments(branchID uuid.UUID, items []StockAdjustment, requireNonEmpty bool) error {
	if branchID == uuid.Nil {
		return shared.NewDomainError("INVALID_BRANCH", "Branch ID cannot be empty")
	}
	if requireNonEmpty && len(items) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "Adjustment batch cannot be empty")
	}
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
		}
		if item.Quantity <= 0 {
			return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
		}
	}
	return nil
}

// aggregateAdjustments sums duplicate product IDs within one batch so a batch
// requesting 3 + 4 units of the same product is checked as a single request
// for 7, preserving first-occurrence order
func aggregateAdjustments(items []StockAdjustment) []StockAdjustment {
	index := make(map[uuid.UUID]int, len(items))
	aggregated := make([]StockAdjustment, 0, len(items))
	for _, item := range items {
		if pos, ok := index[item.ProductID]; ok {
			aggregated[pos].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(aggregated)
		aggregated = append(aggregated, item)
	}
	return aggregated
}
