package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailcore/backend/internal/domain/sales"
	"github.com/retailcore/backend/internal/domain/shared"
)

// GormSaleRepository implements SaleRepository using GORM.
// Detail lines are children of the sale aggregate and are saved and deleted
// with it.
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale with its detail lines
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var sale sales.Sale
	if err := r.db.WithContext(ctx).
		Preload("Details").
		First(&sale, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindByBranch finds sales at a branch
func (r *GormSaleRepository) FindByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]sales.Sale, error) {
	var result []sales.Sale
	query := applyFilter(
		r.db.WithContext(ctx).Model(&sales.Sale{}).
			Preload("Details").
			Where("branch_id = ?", branchID),
		filter,
	)

	if err := query.Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// Save creates or updates a sale with its detail lines
func (r *GormSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Details").Save(sale).Error; err != nil {
			return err
		}
		return syncSaleDetails(tx, sale)
	})
}

// SaveWithLock updates a sale conditioned on the version the change was
// computed from. A concurrent writer wins the row and this write reports a
// conflict; the detail lines are only touched when the header write lands.
func (r *GormSaleRepository) SaveWithLock(ctx context.Context, sale *sales.Sale) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(sale).
			Where("id = ? AND version = ?", sale.ID, sale.Version-1).
			Updates(map[string]interface{}{
				"status":     sale.Status,
				"total":      sale.Total,
				"version":    sale.Version,
				"updated_at": sale.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return syncSaleDetails(tx, sale)
	})
}

// syncSaleDetails removes lines dropped by an update, then saves the current set
func syncSaleDetails(tx *gorm.DB, sale *sales.Sale) error {
	currentIDs := make([]uuid.UUID, len(sale.Details))
	for i, detail := range sale.Details {
		currentIDs[i] = detail.ID
	}

	if len(currentIDs) > 0 {
		if err := tx.Where("sale_id = ? AND id NOT IN ?", sale.ID, currentIDs).
			Delete(&sales.SaleDetail{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("sale_id = ?", sale.ID).
			Delete(&sales.SaleDetail{}).Error; err != nil {
			return err
		}
	}

	for i := range sale.Details {
		sale.Details[i].SaleID = sale.ID
		if err := tx.Save(&sale.Details[i]).Error; err != nil {
			return err
		}
	}

	return nil
}

// Delete removes a sale and its detail lines
func (r *GormSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sale_id = ?", id).Delete(&sales.SaleDetail{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&sales.Sale{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// CountByBranch counts sales at a branch
func (r *GormSaleRepository) CountByBranch(ctx context.Context, branchID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&sales.Sale{}).
		Where("branch_id = ?", branchID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormSaleRepository implements SaleRepository
var _ sales.SaleRepository = (*GormSaleRepository)(nil)
