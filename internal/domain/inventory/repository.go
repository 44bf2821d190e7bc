package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
)

// BranchInventoryRepository defines the interface for ledger persistence.
// SaveWithLock and SaveAllWithLock carry optimistic-version semantics: the
// write only succeeds if the stored version matches the version the aggregate
// was loaded with, and a mismatch surfaces as shared.ErrConcurrencyConflict.
type BranchInventoryRepository interface {
	// FindByID finds a ledger row by its surrogate ID
	FindByID(ctx context.Context, id uuid.UUID) (*BranchInventory, error)

	// FindByBranchAndProduct finds the row for a branch-product combination
	FindByBranchAndProduct(ctx context.Context, branchID, productID uuid.UUID) (*BranchInventory, error)

	// FindByBranchAndProducts loads the rows for a set of products at one
	// branch in a single batch read. Products without a row are absent from
	// the result, not an error.
	FindByBranchAndProducts(ctx context.Context, branchID uuid.UUID, productIDs []uuid.UUID) ([]BranchInventory, error)

	// FindByBranch finds all ledger rows at a branch
	FindByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]BranchInventory, error)

	// FindLowStock finds rows where stock <= min_stock, optionally scoped to
	// one branch (nil means all branches)
	FindLowStock(ctx context.Context, branchID *uuid.UUID) ([]BranchInventory, error)

	// Save creates or updates a ledger row without a version check
	Save(ctx context.Context, item *BranchInventory) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, item *BranchInventory) error

	// SaveAllWithLock saves a batch of rows, each with a version check, in one
	// transaction. If any row conflicts, no row is persisted.
	SaveAllWithLock(ctx context.Context, items []*BranchInventory) error

	// GetOrCreate returns the existing row for a branch-product combination
	// or creates one with zero starting stock
	GetOrCreate(ctx context.Context, branchID, productID uuid.UUID) (*BranchInventory, error)

	// CountByBranch counts ledger rows at a branch
	CountByBranch(ctx context.Context, branchID uuid.UUID) (int64, error)
}
