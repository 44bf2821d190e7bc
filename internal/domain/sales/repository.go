package sales

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
)

// SaleRepository defines the interface for sale persistence. Detail lines are
// child entities of the Sale aggregate and are persisted with it.
type SaleRepository interface {
	// FindByID finds a sale with its detail lines
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindByBranch finds sales at a branch
	FindByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]Sale, error)

	// Save creates or updates a sale with its detail lines
	Save(ctx context.Context, sale *Sale) error

	// SaveWithLock updates a sale and its detail lines conditioned on the
	// version the change was computed from; a concurrent writer surfaces as
	// CONCURRENCY_CONFLICT
	SaveWithLock(ctx context.Context, sale *Sale) error

	// Delete removes a sale and its detail lines
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByBranch counts sales at a branch
	CountByBranch(ctx context.Context, branchID uuid.UUID) (int64, error)
}
