package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	salesapp "github.com/retailcore/backend/internal/application/sales"
	"github.com/retailcore/backend/internal/interfaces/http/dto"
	"github.com/retailcore/backend/internal/interfaces/http/middleware"
)

// SaleHandler handles sale API endpoints
type SaleHandler struct {
	BaseHandler
	service *salesapp.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(service *salesapp.SaleService) *SaleHandler {
	return &SaleHandler{service: service}
}

// SaleLineRequest is one requested line item in a sale
type SaleLineRequest struct {
	ProductID string  `json:"product_id" binding:"required,uuid"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" binding:"required,gte=0"`
}

// CreateSaleRequest carries a new sale with its line items
type CreateSaleRequest struct {
	BranchID string            `json:"branch_id" binding:"required,uuid"`
	Lines    []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// UpdateSaleItemsRequest carries the replacement line items for a sale
type UpdateSaleItemsRequest struct {
	Lines []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// Create records a sale and debits the sold quantities in the same transaction.
// POST /api/v1/sales
func (h *SaleHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing or invalid user identity")
		return
	}

	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	cmd := salesapp.CreateSaleCommand{
		BranchID: uuid.MustParse(req.BranchID),
		SoldBy:   userID,
		Lines:    toLineInputs(req.Lines),
	}

	result, err := h.service.CreateSale(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Cancel voids a sale and credits its quantities back to the branch ledger.
// POST /api/v1/sales/:id/cancel
func (h *SaleHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID")
		return
	}

	result, err := h.service.CancelSale(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// UpdateItems replaces a sale's line items, restoring the old quantities and
// debiting the new ones atomically.
// PUT /api/v1/sales/:id/items
func (h *SaleHandler) UpdateItems(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID")
		return
	}

	var req UpdateSaleItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.service.UpdateSaleItems(c.Request.Context(), id, toLineInputs(req.Lines))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Delete removes a sale. Active sales get their stock credited back first.
// DELETE /api/v1/sales/:id
func (h *SaleHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID")
		return
	}

	if err := h.service.DeleteSale(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// GetByID returns a sale with its line items.
// GET /api/v1/sales/:id
func (h *SaleHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID")
		return
	}

	result, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListByBranch returns sales at a branch.
// GET /api/v1/branches/:branch_id/sales
func (h *SaleHandler) ListByBranch(c *gin.Context) {
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

	result, err := h.service.ListByBranch(c.Request.Context(), branchID, parseFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

func toLineInputs(lines []SaleLineRequest) []salesapp.SaleLineInput {
	inputs := make([]salesapp.SaleLineInput, 0, len(lines))
	for _, line := range lines {
		inputs = append(inputs, salesapp.SaleLineInput{
			ProductID: uuid.MustParse(line.ProductID),
			Quantity:  line.Quantity,
			UnitPrice: decimal.NewFromFloat(line.UnitPrice),
		})
	}
	return inputs
}
