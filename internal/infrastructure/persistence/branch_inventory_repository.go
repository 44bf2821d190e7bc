package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
)

// GormBranchInventoryRepository implements BranchInventoryRepository using GORM
type GormBranchInventoryRepository struct {
	db *gorm.DB
}

// NewGormBranchInventoryRepository creates a new GormBranchInventoryRepository
func NewGormBranchInventoryRepository(db *gorm.DB) *GormBranchInventoryRepository {
	return &GormBranchInventoryRepository{db: db}
}

// FindByID finds a ledger row by its surrogate ID
func (r *GormBranchInventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.BranchInventory, error) {
	var item inventory.BranchInventory
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByBranchAndProduct finds the row for a branch-product combination
func (r *GormBranchInventoryRepository) FindByBranchAndProduct(ctx context.Context, branchID, productID uuid.UUID) (*inventory.BranchInventory, error) {
	var item inventory.BranchInventory
	if err := r.db.WithContext(ctx).
		Where("branch_id = ? AND product_id = ?", branchID, productID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByBranchAndProducts loads the rows for a set of products at one branch.
// Products without a row are simply absent from the result.
func (r *GormBranchInventoryRepository) FindByBranchAndProducts(ctx context.Context, branchID uuid.UUID, productIDs []uuid.UUID) ([]inventory.BranchInventory, error) {
	if len(productIDs) == 0 {
		return []inventory.BranchInventory{}, nil
	}

	var items []inventory.BranchInventory
	if err := r.db.WithContext(ctx).
		Where("branch_id = ? AND product_id IN ?", branchID, productIDs).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindByBranch finds all ledger rows at a branch
func (r *GormBranchInventoryRepository) FindByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]inventory.BranchInventory, error) {
	var items []inventory.BranchInventory
	query := applyFilter(
		r.db.WithContext(ctx).Model(&inventory.BranchInventory{}).
			Where("branch_id = ?", branchID),
		filter,
	)

	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindLowStock finds rows where stock <= min_stock, optionally scoped to a branch
func (r *GormBranchInventoryRepository) FindLowStock(ctx context.Context, branchID *uuid.UUID) ([]inventory.BranchInventory, error) {
	query := r.db.WithContext(ctx).Model(&inventory.BranchInventory{}).
		Where("stock <= min_stock")
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	}

	var items []inventory.BranchInventory
	if err := query.Order("branch_id, product_id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Save creates or updates a ledger row without a version check
func (r *GormBranchInventoryRepository) Save(ctx context.Context, item *inventory.BranchInventory) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormBranchInventoryRepository) SaveWithLock(ctx context.Context, item *inventory.BranchInventory) error {
	return saveWithLock(r.db.WithContext(ctx), item)
}

// SaveAllWithLock saves a batch of rows, each with a version check, in one
// transaction. If any row conflicts, the whole batch rolls back.
func (r *GormBranchInventoryRepository) SaveAllWithLock(ctx context.Context, items []*inventory.BranchInventory) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			if err := saveWithLock(tx, item); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveWithLock(tx *gorm.DB, item *inventory.BranchInventory) error {
	result := tx.
		Model(item).
		Where("id = ? AND version = ?", item.ID, item.Version-1).
		Updates(map[string]interface{}{
			"stock":             item.Stock,
			"min_stock":         item.MinStock,
			"last_restock_date": item.LastRestockDate,
			"version":           item.Version,
			"updated_at":        item.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// GetOrCreate returns the existing row for a branch-product combination or
// creates one with zero starting stock
func (r *GormBranchInventoryRepository) GetOrCreate(ctx context.Context, branchID, productID uuid.UUID) (*inventory.BranchInventory, error) {
	item, err := r.FindByBranchAndProduct(ctx, branchID, productID)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	item, err = inventory.NewBranchInventory(branchID, productID)
	if err != nil {
		return nil, err
	}

	// ON CONFLICT handles a concurrent create of the same row
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "branch_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(item).Error; err != nil {
		return nil, err
	}

	if item.ID == uuid.Nil {
		return r.FindByBranchAndProduct(ctx, branchID, productID)
	}
	return item, nil
}

// CountByBranch counts ledger rows at a branch
func (r *GormBranchInventoryRepository) CountByBranch(ctx context.Context, branchID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.BranchInventory{}).
		Where("branch_id = ?", branchID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies pagination and ordering to a query
func applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// Ensure GormBranchInventoryRepository implements BranchInventoryRepository
var _ inventory.BranchInventoryRepository = (*GormBranchInventoryRepository)(nil)
