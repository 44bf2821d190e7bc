package transfer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/branch"
	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/transfer"
)

// StockAdjuster is the slice of the adjustment engine the transfer workflow
// drives. Stock is never reserved at request time; the workflow only reads
// for a plausibility check and moves stock at completion.
type StockAdjuster interface {
	GetStock(ctx context.Context, branchID, productID uuid.UUID) (int, error)
	ReduceSingle(ctx context.Context, branchID, productID uuid.UUID, quantity int) error
	RestoreSingle(ctx context.Context, branchID, productID uuid.UUID, quantity int) error
	IncreaseStock(ctx context.Context, branchID, productID uuid.UUID, quantity int) error
}

// TransferService coordinates the stock transfer state machine between two
// branches' ledgers via the adjustment engine
type TransferService struct {
	transferRepo     transfer.StockTransferRepository
	branchRepo       branch.BranchRepository
	productRepo      catalog.ProductRepository
	adjuster         StockAdjuster
	eventPublisher   shared.EventPublisher
	idempotencyStore shared.IdempotencyStore
	idempotencyCfg   shared.IdempotencyConfig
}

// NewTransferService creates a new TransferService
func NewTransferService(
	transferRepo transfer.StockTransferRepository,
	branchRepo branch.BranchRepository,
	productRepo catalog.ProductRepository,
	adjuster StockAdjuster,
) *TransferService {
	return &TransferService{
		transferRepo:   transferRepo,
		branchRepo:     branchRepo,
		productRepo:    productRepo,
		adjuster:       adjuster,
		idempotencyCfg: shared.DefaultIdempotencyConfig(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *TransferService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore enables idempotency-key handling on RequestTransfer
func (s *TransferService) SetIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	s.idempotencyStore = store
	s.idempotencyCfg = cfg
}

// publishDomainEvents publishes all domain events from the transfer.
// Delivery is fire-and-forget; the bus logs failures and the state transition
// never depends on it.
func (s *TransferService) publishDomainEvents(ctx context.Context, t *transfer.StockTransfer) {
	if s.eventPublisher == nil {
		return
	}
	events := t.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	t.ClearDomainEvents()
}

// RequestTransfer creates a new PENDING transfer. Current source stock is
// read for a plausibility check only; no stock is moved or reserved until
// completion, so sufficiency is re-validated then.
func (s *TransferService) RequestTransfer(ctx context.Context, cmd RequestTransferCommand) (*TransferResponse, error) {
	if s.idempotencyStore != nil && s.idempotencyCfg.Enabled && cmd.IdempotencyKey != "" {
		if existing, ok, err := s.idempotencyStore.Lookup(ctx, cmd.IdempotencyKey); err == nil && ok {
			if id, parseErr := uuid.Parse(existing); parseErr == nil {
				return s.GetByID(ctx, id)
			}
		}
	}

	if cmd.SourceBranchID == cmd.TargetBranchID {
		return nil, shared.NewDomainError("INVALID_STATE", "Source and target branch must differ")
	}

	if _, err := s.branchRepo.FindByID(ctx, cmd.SourceBranchID); err != nil {
		return nil, err
	}
	if _, err := s.branchRepo.FindByID(ctx, cmd.TargetBranchID); err != nil {
		return nil, err
	}
	if _, err := s.productRepo.FindByID(ctx, cmd.ProductID); err != nil {
		return nil, err
	}

	available, err := s.adjuster.GetStock(ctx, cmd.SourceBranchID, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if available < cmd.Quantity {
		return nil, inventory.NewInsufficientStockError(cmd.ProductID, available, cmd.Quantity)
	}

	t, err := transfer.NewStockTransfer(cmd.SourceBranchID, cmd.TargetBranchID, cmd.ProductID, cmd.Quantity, cmd.RequestedBy)
	if err != nil {
		return nil, err
	}

	if err := s.transferRepo.Save(ctx, t); err != nil {
		return nil, err
	}

	if s.idempotencyStore != nil && s.idempotencyCfg.Enabled && cmd.IdempotencyKey != "" {
		stored, existing, err := s.idempotencyStore.Remember(ctx, cmd.IdempotencyKey, t.ID.String(), s.idempotencyCfg.TTL)
		if err == nil && !stored {
			// Lost the race to a concurrent retry carrying the same key
			if id, parseErr := uuid.Parse(existing); parseErr == nil && id != t.ID {
				return s.GetByID(ctx, id)
			}
		}
	}

	s.publishDomainEvents(ctx, t)

	resp := ToTransferResponse(t)
	return &resp, nil
}

// ApproveTransfer moves a PENDING transfer to APPROVED
func (s *TransferService) ApproveTransfer(ctx context.Context, id, approverID uuid.UUID) (*TransferResponse, error) {
	t, err := s.transferRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := t.Approve(approverID); err != nil {
		return nil, err
	}
	if err := s.transferRepo.SaveWithLock(ctx, t); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, t)

	resp := ToTransferResponse(t)
	return &resp, nil
}

// RejectTransfer moves a PENDING transfer to REJECTED with a mandatory reason
func (s *TransferService) RejectTransfer(ctx context.Context, id, approverID uuid.UUID, reason string) (*TransferResponse, error) {
	t, err := s.transferRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := t.Reject(approverID, reason); err != nil {
		return nil, err
	}
	if err := s.transferRepo.SaveWithLock(ctx, t); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, t)

	resp := ToTransferResponse(t)
	return &resp, nil
}

// CompleteTransfer moves the stock of an APPROVED transfer. Time has passed
// since approval, so source sufficiency is re-checked against the live ledger
// and the target branch's continued existence is verified before any mutation.
func (s *TransferService) CompleteTransfer(ctx context.Context, id uuid.UUID) (*TransferResponse, error) {
	t, err := s.transferRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !t.IsApproved() {
		return nil, shared.NewDomainError("INVALID_STATE", "Only an approved transfer can be completed")
	}

	available, err := s.adjuster.GetStock(ctx, t.SourceBranchID, t.ProductID)
	if err != nil {
		return nil, err
	}
	if available < t.Quantity {
		return nil, inventory.NewInsufficientStockError(t.ProductID, available, t.Quantity)
	}

	exists, err := s.branchRepo.Exists(ctx, t.TargetBranchID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewDomainError("NOT_FOUND", "Target branch no longer exists")
	}

	if err := s.adjuster.ReduceSingle(ctx, t.SourceBranchID, t.ProductID, t.Quantity); err != nil {
		return nil, err
	}
	if err := s.adjuster.IncreaseStock(ctx, t.TargetBranchID, t.ProductID, t.Quantity); err != nil {
		// Put the already-debited units back so the failure leaves both ledgers unchanged
		if restoreErr := s.adjuster.RestoreSingle(ctx, t.SourceBranchID, t.ProductID, t.Quantity); restoreErr != nil {
			return nil, fmt.Errorf("restoring %d units of product %s to branch %s after failed target credit: %v: %w",
				t.Quantity, t.ProductID, t.SourceBranchID, restoreErr, err)
		}
		return nil, err
	}

	if err := t.Complete(); err != nil {
		return nil, err
	}
	if err := s.transferRepo.SaveWithLock(ctx, t); err != nil {
		// A concurrent transition won the row. The movement above belongs to
		// a completion that never committed, so both ledgers must be unwound
		// before the conflict surfaces.
		return nil, s.unwindMovement(ctx, t, err)
	}

	s.publishDomainEvents(ctx, t)

	resp := ToTransferResponse(t)
	return &resp, nil
}

// CancelTransfer withdraws a PENDING transfer. Only the original requester or
// an administrator may cancel; no stock was ever moved, so there is nothing
// to compensate.
func (s *TransferService) CancelTransfer(ctx context.Context, id, actorID uuid.UUID, role transfer.ActorRole) (*TransferResponse, error) {
	t, err := s.transferRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := t.Cancel(actorID, role); err != nil {
		return nil, err
	}
	if err := s.transferRepo.SaveWithLock(ctx, t); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, t)

	resp := ToTransferResponse(t)
	return &resp, nil
}

// unwindMovement reverses a completed stock movement whose state transition
// could not be committed. An unwind failure is attached to the cause rather
// than swallowed; the moved units must never vanish without a trace.
func (s *TransferService) unwindMovement(ctx context.Context, t *transfer.StockTransfer, cause error) error {
	if err := s.adjuster.ReduceSingle(ctx, t.TargetBranchID, t.ProductID, t.Quantity); err != nil {
		return fmt.Errorf("reclaiming %d units of product %s from branch %s after failed completion: %v: %w",
			t.Quantity, t.ProductID, t.TargetBranchID, err, cause)
	}
	if err := s.adjuster.RestoreSingle(ctx, t.SourceBranchID, t.ProductID, t.Quantity); err != nil {
		return fmt.Errorf("restoring %d units of product %s to branch %s after failed completion: %v: %w",
			t.Quantity, t.ProductID, t.SourceBranchID, err, cause)
	}
	return cause
}

// GetByID retrieves a transfer by ID
func (s *TransferService) GetByID(ctx context.Context, id uuid.UUID) (*TransferResponse, error) {
	t, err := s.transferRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToTransferResponse(t)
	return &resp, nil
}

// ListByStatus retrieves transfers with the given status
func (s *TransferService) ListByStatus(ctx context.Context, status transfer.TransferStatus, filter shared.Filter) ([]TransferResponse, error) {
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown transfer status")
	}
	items, err := s.transferRepo.FindByStatus(ctx, status, filter)
	if err != nil {
		return nil, err
	}
	return ToTransferResponses(items), nil
}
