package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/transfer"
)

// GormStockTransferRepository implements StockTransferRepository using GORM
type GormStockTransferRepository struct {
	db *gorm.DB
}

// NewGormStockTransferRepository creates a new GormStockTransferRepository
func NewGormStockTransferRepository(db *gorm.DB) *GormStockTransferRepository {
	return &GormStockTransferRepository{db: db}
}

// FindByID finds a transfer by its ID
func (r *GormStockTransferRepository) FindByID(ctx context.Context, id uuid.UUID) (*transfer.StockTransfer, error) {
	var t transfer.StockTransfer
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindByStatus finds transfers with a specific status
func (r *GormStockTransferRepository) FindByStatus(ctx context.Context, status transfer.TransferStatus, filter shared.Filter) ([]transfer.StockTransfer, error) {
	var transfers []transfer.StockTransfer
	query := applyFilter(
		r.db.WithContext(ctx).Model(&transfer.StockTransfer{}).
			Where("status = ?", status),
		filter,
	)

	if err := query.Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}

// FindBySourceBranch finds transfers originating at a branch
func (r *GormStockTransferRepository) FindBySourceBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]transfer.StockTransfer, error) {
	var transfers []transfer.StockTransfer
	query := applyFilter(
		r.db.WithContext(ctx).Model(&transfer.StockTransfer{}).
			Where("source_branch_id = ?", branchID),
		filter,
	)

	if err := query.Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}

// FindByRequester finds transfers requested by a user
func (r *GormStockTransferRepository) FindByRequester(ctx context.Context, requesterID uuid.UUID, filter shared.Filter) ([]transfer.StockTransfer, error) {
	var transfers []transfer.StockTransfer
	query := applyFilter(
		r.db.WithContext(ctx).Model(&transfer.StockTransfer{}).
			Where("requested_by = ?", requesterID),
		filter,
	)

	if err := query.Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}

// FindAll finds transfers matching the filter
func (r *GormStockTransferRepository) FindAll(ctx context.Context, filter shared.Filter) ([]transfer.StockTransfer, error) {
	var transfers []transfer.StockTransfer
	query := applyFilter(r.db.WithContext(ctx).Model(&transfer.StockTransfer{}), filter)

	if err := query.Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}

// Save creates or updates a transfer
func (r *GormStockTransferRepository) Save(ctx context.Context, t *transfer.StockTransfer) error {
	return r.db.WithContext(ctx).Save(t).Error
}

// SaveWithLock persists a state transition conditioned on the version the
// transition was computed from. A concurrent transition wins the row and this
// write reports a conflict instead of re-entering an already-left state.
func (r *GormStockTransferRepository) SaveWithLock(ctx context.Context, t *transfer.StockTransfer) error {
	result := r.db.WithContext(ctx).
		Model(t).
		Where("id = ? AND version = ?", t.ID, t.Version-1).
		Updates(map[string]interface{}{
			"status":           t.Status,
			"approved_by":      t.ApprovedBy,
			"approved_at":      t.ApprovedAt,
			"completed_at":     t.CompletedAt,
			"rejection_reason": t.RejectionReason,
			"version":          t.Version,
			"updated_at":       t.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// CountByStatus counts transfers with a specific status
func (r *GormStockTransferRepository) CountByStatus(ctx context.Context, status transfer.TransferStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&transfer.StockTransfer{}).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormStockTransferRepository implements StockTransferRepository
var _ transfer.StockTransferRepository = (*GormStockTransferRepository)(nil)
