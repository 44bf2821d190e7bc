package inventory

import (
	"context"

	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/sales"
)

// TransactionScope provides transactional access to the repositories the
// stock core mutates. When a function is executed within a transaction scope,
// all repository operations are part of the same database transaction and
// commit or roll back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories participating
// in a stock mutation. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// InventoryRepo returns the ledger repository scoped to the current transaction
	InventoryRepo() inventory.BranchInventoryRepository
	// SaleRepo returns the sale repository scoped to the current transaction
	SaleRepo() sales.SaleRepository
}

// NoOpTransactionScope runs the function without a real transaction.
// Useful in tests, where repositories are mocked and atomicity is asserted
// at the call level rather than the storage level.
type NoOpTransactionScope struct {
	inventoryRepo inventory.BranchInventoryRepository
	saleRepo      sales.SaleRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	inventoryRepo inventory.BranchInventoryRepository,
	saleRepo sales.SaleRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		inventoryRepo: inventoryRepo,
		saleRepo:      saleRepo,
	}
}

// Execute runs the function directly
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// InventoryRepo returns the ledger repository
func (s *NoOpTransactionScope) InventoryRepo() inventory.BranchInventoryRepository {
	return s.inventoryRepo
}

// SaleRepo returns the sale repository
func (s *NoOpTransactionScope) SaleRepo() sales.SaleRepository {
	return s.saleRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
