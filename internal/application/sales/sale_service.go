package sales

import (
	"context"
	"errors"

	"github.com/google/uuid"
	appinventory "github.com/retailcore/backend/internal/application/inventory"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/sales"
	"github.com/retailcore/backend/internal/domain/shared"
)

// StockBatchAdjuster is the slice of the stock adjustment engine the sale
// workflow composes into its own transactions: one validate-then-write pass
// per call, no retry, mutated rows returned for post-commit event publishing.
type StockBatchAdjuster interface {
	ReduceBatchWith(ctx context.Context, repo inventory.BranchInventoryRepository, branchID uuid.UUID, items []appinventory.StockAdjustment) ([]*inventory.BranchInventory, error)
	RestoreBatchWith(ctx context.Context, repo inventory.BranchInventoryRepository, branchID uuid.UUID, items []appinventory.StockAdjustment) ([]*inventory.BranchInventory, error)
	PublishEvents(ctx context.Context, mutated []*inventory.BranchInventory)
}

// SaleService handles sale lifecycle operations. Every stock-affecting
// operation runs the sale write and the ledger adjustment in one transaction,
// so a sale is never persisted without its debit nor a debit without its sale.
type SaleService struct {
	saleRepo       sales.SaleRepository
	scope          appinventory.TransactionScope
	adjuster       StockBatchAdjuster
	eventPublisher shared.EventPublisher
	maxRetries     int
}

// NewSaleService creates a new SaleService
func NewSaleService(saleRepo sales.SaleRepository, scope appinventory.TransactionScope, adjuster StockBatchAdjuster) *SaleService {
	return &SaleService{
		saleRepo:   saleRepo,
		scope:      scope,
		adjuster:   adjuster,
		maxRetries: appinventory.DefaultMaxRetries,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMaxRetries overrides the conflict retry budget
func (s *SaleService) SetMaxRetries(n int) {
	if n > 0 {
		s.maxRetries = n
	}
}

// CreateSale records a sale and debits the sold quantities from the branch
// ledger in the same transaction. If any line lacks stock the sale is not
// persisted and the insufficient-stock error carries the shortfall figures.
func (s *SaleService) CreateSale(ctx context.Context, cmd CreateSaleCommand) (*SaleResponse, error) {
	return s.withConflictRetry(ctx, func() (*sales.Sale, []*inventory.BranchInventory, error) {
		sale, err := sales.NewSale(cmd.BranchID, cmd.SoldBy, toLines(cmd.Lines))
		if err != nil {
			return nil, nil, err
		}

		var mutated []*inventory.BranchInventory
		err = s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			var err error
			mutated, err = s.adjuster.ReduceBatchWith(ctx, repos.InventoryRepo(), sale.BranchID, toAdjustments(sale.LineItems()))
			if err != nil {
				return err
			}
			return repos.SaleRepo().Save(ctx, sale)
		})
		return sale, mutated, err
	})
}

// CancelSale cancels an active sale and credits its line quantities back to
// the branch ledger in the same transaction
func (s *SaleService) CancelSale(ctx context.Context, saleID uuid.UUID) (*SaleResponse, error) {
	return s.withConflictRetry(ctx, func() (*sales.Sale, []*inventory.BranchInventory, error) {
		var sale *sales.Sale
		var mutated []*inventory.BranchInventory
		err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			var err error
			sale, err = repos.SaleRepo().FindByID(ctx, saleID)
			if err != nil {
				return err
			}
			if err := sale.Cancel(); err != nil {
				return err
			}
			mutated, err = s.adjuster.RestoreBatchWith(ctx, repos.InventoryRepo(), sale.BranchID, toAdjustments(sale.LineItems()))
			if err != nil {
				return err
			}
			return repos.SaleRepo().SaveWithLock(ctx, sale)
		})
		return sale, mutated, err
	})
}

// UpdateSaleItems replaces the lines of an active sale. The old quantities are
// credited back and the new ones debited in one transaction, so a concurrent
// reader never observes a half-swapped ledger.
func (s *SaleService) UpdateSaleItems(ctx context.Context, saleID uuid.UUID, lines []SaleLineInput) (*SaleResponse, error) {
	return s.withConflictRetry(ctx, func() (*sales.Sale, []*inventory.BranchInventory, error) {
		var sale *sales.Sale
		var mutated []*inventory.BranchInventory
		err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			var err error
			sale, err = repos.SaleRepo().FindByID(ctx, saleID)
			if err != nil {
				return err
			}

			restored, err := s.adjuster.RestoreBatchWith(ctx, repos.InventoryRepo(), sale.BranchID, toAdjustments(sale.LineItems()))
			if err != nil {
				return err
			}
			if err := sale.ReplaceLines(toLines(lines)); err != nil {
				return err
			}
			reduced, err := s.adjuster.ReduceBatchWith(ctx, repos.InventoryRepo(), sale.BranchID, toAdjustments(sale.LineItems()))
			if err != nil {
				return err
			}

			mutated = append(restored, reduced...)
			return repos.SaleRepo().SaveWithLock(ctx, sale)
		})
		return sale, mutated, err
	})
}

// DeleteSale removes a sale. An active sale has its line quantities credited
// back first; a cancelled sale was already restored and is deleted as-is.
func (s *SaleService) DeleteSale(ctx context.Context, saleID uuid.UUID) error {
	_, err := s.withConflictRetry(ctx, func() (*sales.Sale, []*inventory.BranchInventory, error) {
		var sale *sales.Sale
		var mutated []*inventory.BranchInventory
		err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			var err error
			sale, err = repos.SaleRepo().FindByID(ctx, saleID)
			if err != nil {
				return err
			}
			if sale.IsActive() {
				mutated, err = s.adjuster.RestoreBatchWith(ctx, repos.InventoryRepo(), sale.BranchID, toAdjustments(sale.LineItems()))
				if err != nil {
					return err
				}
			}
			return repos.SaleRepo().Delete(ctx, saleID)
		})
		return sale, mutated, err
	})
	return err
}

// GetByID returns a sale with its detail lines
func (s *SaleService) GetByID(ctx context.Context, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// ListByBranch returns the sales recorded at a branch
func (s *SaleService) ListByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]SaleResponse, error) {
	items, err := s.saleRepo.FindByBranch(ctx, branchID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]SaleResponse, 0, len(items))
	for i := range items {
		responses = append(responses, ToSaleResponse(&items[i]))
	}
	return responses, nil
}

// withConflictRetry re-runs a sale transaction while it fails on optimistic
// version conflicts, up to the retry budget, and publishes the sale's and the
// mutated ledger rows' events once the transaction commits
func (s *SaleService) withConflictRetry(ctx context.Context, attempt func() (*sales.Sale, []*inventory.BranchInventory, error)) (*SaleResponse, error) {
	var lastErr error
	for try := 0; try <= s.maxRetries; try++ {
		sale, mutated, err := attempt()
		if err == nil {
			s.publishSaleEvents(ctx, sale)
			s.adjuster.PublishEvents(ctx, mutated)
			response := ToSaleResponse(sale)
			return &response, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// publishSaleEvents publishes the sale's pending domain events, fire-and-forget
func (s *SaleService) publishSaleEvents(ctx context.Context, sale *sales.Sale) {
	if s.eventPublisher == nil || sale == nil {
		return
	}
	events := sale.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	sale.ClearDomainEvents()
}

// toAdjustments converts sale lines to the engine's adjustment form
func toAdjustments(lines []sales.SaleLine) []appinventory.StockAdjustment {
	items := make([]appinventory.StockAdjustment, 0, len(lines))
	for _, line := range lines {
		items = append(items, appinventory.StockAdjustment{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return items
}
