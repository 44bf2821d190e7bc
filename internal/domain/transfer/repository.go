package transfer

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
)

// StockTransferRepository defines the interface for transfer persistence
type StockTransferRepository interface {
	// FindByID finds a transfer by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockTransfer, error)

	// FindByStatus finds transfers with a specific status
	FindByStatus(ctx context.Context, status TransferStatus, filter shared.Filter) ([]StockTransfer, error)

	// FindBySourceBranch finds transfers originating at a branch
	FindBySourceBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]StockTransfer, error)

	// FindByRequester finds transfers requested by a user
	FindByRequester(ctx context.Context, requesterID uuid.UUID, filter shared.Filter) ([]StockTransfer, error)

	// FindAll finds transfers matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]StockTransfer, error)

	// Save creates or updates a transfer
	Save(ctx context.Context, t *StockTransfer) error

	// SaveWithLock persists a state transition conditioned on the version the
	// transition was computed from; a concurrent transition surfaces as
	// CONCURRENCY_CONFLICT instead of being overwritten
	SaveWithLock(ctx context.Context, t *StockTransfer) error

	// CountByStatus counts transfers with a specific status
	CountByStatus(ctx context.Context, status TransferStatus) (int64, error)
}
