package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	invapp "github.com/retailcore/backend/internal/application/inventory"
	"github.com/retailcore/backend/internal/interfaces/http/dto"
	"github.com/retailcore/backend/internal/interfaces/http/middleware"
)

// InventoryHandler handles stock ledger API endpoints
type InventoryHandler struct {
	BaseHandler
	service *invapp.AdjustmentService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(service *invapp.AdjustmentService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// StockLevelResponse reports the on-hand stock for a branch-product combination
type StockLevelResponse struct {
	BranchID  string `json:"branch_id"`
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
}

// AdjustmentLineRequest is one product line in a batch adjustment request
type AdjustmentLineRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// BatchAdjustmentRequest carries the lines of a reduce or restore request
type BatchAdjustmentRequest struct {
	Items []AdjustmentLineRequest `json:"items" binding:"required,dive"`
}

// IncreaseStockRequest carries a restock delivery
type IncreaseStockRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// SetMinStockRequest carries a new advisory minimum
type SetMinStockRequest struct {
	MinStock int `json:"min_stock" binding:"gte=0"`
}

// GetStock returns the stock level for a branch-product combination.
// A combination with no ledger row reads as zero.
// GET /api/v1/branches/:branch_id/inventory/:product_id
func (h *InventoryHandler) GetStock(c *gin.Context) {
	branchID, err := uuid.Parse(c.Param("branch_id"))
	if err != nil {
		h.BadRequest(c, "Invalid branch ID")
		return
	}
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	stock, err := h.service.GetStock(c.Request.Context(), branchID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, StockLevelResponse{
		BranchID:  branchID.String(),
		ProductID: productID.String(),
		Stock:     stock,
	})
}

// ListByBranch returns all ledger rows at a branch.
// GET /api/v1/branches/:branch_id/inventory
func (h *InventoryHandler) ListByBranch(c *gin.Context) {
	branchID, err := uuid.Parse(c.Param("branch_id"))
	if err != nil {
		h.BadRequest(c, "Invalid branch ID")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items, err := h.service.ListByBranch(c.Request.Context(), branchID, parseFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, items)
}

// ListLowStock returns rows at or below their advisory minimum.
// An optional branch_id query parameter scopes the report to one branch.
// GET /api/v1/inventory/low-stock
func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	var branchID *uuid.UUID
	if raw := c.Query("branch_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid branch ID")
			return
		}
		branchID = &id
	}

	items, err := h.service.ListLowStock(c.Request.Context(), branchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, items)
}

// ReduceStock debits a batch of product quantities at a branch.
// The batch is all-or-nothing: any failing sufficiency check rejects it whole.
// POST /api/v1/branches/:branch_id/inventory/reduce
func (h *InventoryHandler) ReduceStock(c *gin.Context) {
	h.adjust(c, h.service.ReduceBatch)
}

// RestoreStock credits a batch of product quantities back to a branch.
// POST /api/v1/branches/:branch_id/inventory/restore
func (h *InventoryHandler) RestoreStock(c *gin.Context) {
	h.adjust(c, h.service.RestoreBatch)
}

func (h *InventoryHandler) adjust(c *gin.Context, op func(ctx context.Context, branchID uuid.UUID, items []invapp.StockAdjustment) error) {
	branchID, err := uuid.Parse(c.Param("branch_id"))
	if err != nil {
		h.BadRequest(c, "Invalid branch ID")
		return
	}

	var req BatchAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	items := make([]invapp.StockAdjustment, 0, len(req.Items))
	for _, line := range req.Items {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			h.BadRequest(c, "Invalid product ID: "+line.ProductID)
			return
		}
		items = append(items, invapp.StockAdjustment{ProductID: productID, Quantity: line.Quantity})
	}

	if err := op(c.Request.Context(), branchID, items); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// IncreaseStock credits a restock delivery to a branch-product combination,
// creating the ledger row if it does not exist yet.
// POST /api/v1/branches/:branch_id/inventory/:product_id/increase
func (h *InventoryHandler) IncreaseStock(c *gin.Context) {
	branchID, err := uuid.Parse(c.Param("branch_id"))
	if err != nil {
		h.BadRequest(c, "Invalid branch ID")
		return
	}
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req IncreaseStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if err := h.service.IncreaseStock(c.Request.Context(), branchID, productID, req.Quantity); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// SetMinStock updates the advisory minimum for a branch-product combination.
// PUT /api/v1/branches/:branch_id/inventory/:product_id/min-stock
func (h *InventoryHandler) SetMinStock(c *gin.Context) {
	branchID, err := uuid.Parse(c.Param("branch_id"))
	if err != nil {
		h.BadRequest(c, "Invalid branch ID")
		return
	}
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req SetMinStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if err := h.service.SetMinStock(c.Request.Context(), branchID, productID, req.MinStock); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
