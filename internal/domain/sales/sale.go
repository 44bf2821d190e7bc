package sales

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SaleStatus represents the status of a sale
type SaleStatus string

const (
	SaleStatusActive    SaleStatus = "ACTIVE"
	SaleStatusCancelled SaleStatus = "CANCELLED"
)

// SaleDetail is a line item in a sale. The unit price is captured at sale
// time; it is a snapshot, not a live reference to the product's price.
type SaleDetail struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (SaleDetail) TableName() string {
	return "sale_details"
}

// NewSaleDetail creates a new sale line item
func NewSaleDetail(saleID, productID uuid.UUID, quantity int, unitPrice decimal.Decimal) (*SaleDetail, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	return &SaleDetail{
		ID:        uuid.New(),
		SaleID:    saleID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Subtotal:  unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Sale is a completed checkout at a branch. It owns an ordered collection of
// detail lines; Total always equals the sum of the detail subtotals.
type Sale struct {
	shared.BaseAggregateRoot
	BranchID uuid.UUID       `gorm:"type:uuid;not null;index"`
	SoldBy   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status   SaleStatus      `gorm:"type:varchar(20);not null;index"`
	Total    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Details  []SaleDetail    `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (Sale) TableName() string {
	return "sales"
}

// SaleLine is the input for one line item when creating a sale
type SaleLine struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// NewSale creates a new active sale with its detail lines
func NewSale(branchID, soldBy uuid.UUID, lines []SaleLine) (*Sale, error) {
	if branchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Branch ID cannot be empty")
	}
	if soldBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SELLER", "Seller ID cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "A sale requires at least one line item")
	}

	sale := &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BranchID:          branchID,
		SoldBy:            soldBy,
		Status:            SaleStatusActive,
		Total:             decimal.Zero,
		Details:           make([]SaleDetail, 0, len(lines)),
	}

	for _, line := range lines {
		detail, err := NewSaleDetail(sale.ID, line.ProductID, line.Quantity, line.UnitPrice)
		if err != nil {
			return nil, err
		}
		sale.Details = append(sale.Details, *detail)
		sale.Total = sale.Total.Add(detail.Subtotal)
	}

	sale.AddDomainEvent(NewSaleCreatedEvent(sale))

	return sale, nil
}

// Cancel marks an active sale as cancelled. The caller restores the debited
// stock; cancelling twice is refused.
func (s *Sale) Cancel() error {
	if s.Status != SaleStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel sale in %s status", s.Status))
	}

	s.Status = SaleStatusCancelled
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	s.AddDomainEvent(NewSaleCancelledEvent(s))

	return nil
}

// ReplaceLines swaps the sale's detail lines for a new set and recomputes the
// total. Stock bookkeeping (restore old, reduce new) is the caller's job.
func (s *Sale) ReplaceLines(lines []SaleLine) error {
	if s.Status != SaleStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot update sale in %s status", s.Status))
	}
	if len(lines) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "A sale requires at least one line item")
	}

	details := make([]SaleDetail, 0, len(lines))
	total := decimal.Zero
	for _, line := range lines {
		detail, err := NewSaleDetail(s.ID, line.ProductID, line.Quantity, line.UnitPrice)
		if err != nil {
			return err
		}
		details = append(details, *detail)
		total = total.Add(detail.Subtotal)
	}

	s.Details = details
	s.Total = total
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// IsActive returns true if the sale has not been cancelled
func (s *Sale) IsActive() bool {
	return s.Status == SaleStatusActive
}

// LineItems returns the (product, quantity) pairs of the sale's details,
// in the form the stock adjustment engine consumes
func (s *Sale) LineItems() []SaleLine {
	items := make([]SaleLine, 0, len(s.Details))
	for _, d := range s.Details {
		items = append(items, SaleLine{ProductID: d.ProductID, Quantity: d.Quantity, UnitPrice: d.UnitPrice})
	}
	return items
}
