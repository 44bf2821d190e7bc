package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	transferapp "github.com/retailcore/backend/internal/application/transfer"
	"github.com/retailcore/backend/internal/domain/transfer"
	"github.com/retailcore/backend/internal/interfaces/http/dto"
	"github.com/retailcore/backend/internal/interfaces/http/middleware"
)

// TransferHandler handles stock transfer API endpoints
type TransferHandler struct {
	BaseHandler
	service *transferapp.TransferService
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(service *transferapp.TransferService) *TransferHandler {
	return &TransferHandler{service: service}
}

// RequestTransferRequest carries a new transfer request
type RequestTransferRequest struct {
	SourceBranchID string `json:"source_branch_id" binding:"required,uuid"`
	TargetBranchID string `json:"target_branch_id" binding:"required,uuid"`
	ProductID      string `json:"product_id" binding:"required,uuid"`
	Quantity       int    `json:"quantity" binding:"required,gt=0"`
}

// RejectTransferRequest carries the mandatory rejection reason
type RejectTransferRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Request creates a new transfer in PENDING status.
// A repeated request with the same Idempotency-Key header returns the
// transfer created by the first attempt.
// POST /api/v1/transfers
func (h *TransferHandler) Request(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing or invalid user identity")
		return
	}

	var req RequestTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	cmd := transferapp.RequestTransferCommand{
		SourceBranchID: uuid.MustParse(req.SourceBranchID),
		TargetBranchID: uuid.MustParse(req.TargetBranchID),
		ProductID:      uuid.MustParse(req.ProductID),
		Quantity:       req.Quantity,
		RequestedBy:    userID,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	}

	result, err := h.service.RequestTransfer(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Approve moves a pending transfer to APPROVED.
// POST /api/v1/transfers/:id/approve
func (h *TransferHandler) Approve(c *gin.Context) {
	h.transition(c, func(id, userID uuid.UUID) (*transferapp.TransferResponse, error) {
		return h.service.ApproveTransfer(c.Request.Context(), id, userID)
	})
}

// Reject moves a pending transfer to REJECTED with a mandatory reason.
// POST /api/v1/transfers/:id/reject
func (h *TransferHandler) Reject(c *gin.Context) {
	var req RejectTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	h.transition(c, func(id, userID uuid.UUID) (*transferapp.TransferResponse, error) {
		return h.service.RejectTransfer(c.Request.Context(), id, userID, req.Reason)
	})
}

// Complete executes an approved transfer, moving the stock between branches.
// POST /api/v1/transfers/:id/complete
func (h *TransferHandler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transfer ID")
		return
	}

	result, err := h.service.CompleteTransfer(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Cancel withdraws a pending transfer. Allowed for the requester and admins.
// POST /api/v1/transfers/:id/cancel
func (h *TransferHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transfer ID")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing or invalid user identity")
		return
	}

	result, err := h.service.CancelTransfer(c.Request.Context(), id, userID, getUserRole(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetByID returns a single transfer.
// GET /api/v1/transfers/:id
func (h *TransferHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transfer ID")
		return
	}

	result, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListByStatus returns transfers in the requested status.
// GET /api/v1/transfers?status=PENDING
func (h *TransferHandler) ListByStatus(c *gin.Context) {
	status := transfer.TransferStatus(c.Query("status"))

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ListByStatus(c.Request.Context(), status, parseFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// transition runs an approve/reject style state change driven by the acting user
func (h *TransferHandler) transition(c *gin.Context, op func(id, userID uuid.UUID) (*transferapp.TransferResponse, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transfer ID")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing or invalid user identity")
		return
	}

	result, err := op(id, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
