package movements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stockpilot-wms/stockpilot/internal/catalog"
	"github.com/stockpilot-wms/stockpilot/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ProductSource provides product snapshots and cache control.
type ProductSource interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	InvalidateProducts(ctx context.Context, warehouse string)
}

// Service coordinates movement submissions and transfer resolutions.
type Service struct {
	repo        RepositoryPort
	products    ProductSource
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	validator   *Validator
	builder     *Builder
	integration IntegrationHandler
}

// NewService builds Service.
func NewService(repo RepositoryPort, products ProductSource, audit AuditPort, idem *shared.IdempotencyStore, validator *Validator, builder *Builder, integration IntegrationHandler) *Service {
	return &Service{
		repo:        repo,
		products:    products,
		audit:       audit,
		idempotency: idem,
		validator:   validator,
		builder:     builder,
		integration: integration,
	}
}

// Submit validates a submission, builds one ledger record per selected
// product and applies every stock change atomically. Validation failures
// come back as a field-keyed ValidationError; a stock snapshot that went
// stale between read and write surfaces as ErrStaleStock.
func (s *Service) Submit(ctx context.Context, in SubmitInput) ([]StockMovement, error) {
	actor := shared.IdentityFromContext(ctx)
	if actor == nil || actor.UserID == "" {
		return nil, ErrMissingIdentity
	}

	snapshots := make(map[string]*catalog.Product, len(in.Selections))
	for _, sel := range in.Selections {
		if _, ok := snapshots[sel.ProductID]; ok {
			continue
		}
		product, err := s.products.GetProduct(ctx, sel.ProductID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("movements: load product %s: %w", sel.ProductID, err)
		}
		snapshots[sel.ProductID] = product
	}

	if fields := s.validator.Validate(in, snapshots); fields != nil {
		return nil, NewValidationError(fields)
	}

	built, err := s.builder.Build(in, actor, snapshots)
	if err != nil {
		return nil, err
	}

	insertedKey := false
	if s.idempotency != nil && in.IdempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, in.IdempotencyKey, "movements"); err != nil {
			return nil, err
		}
		insertedKey = true
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for i := range built {
			if err := tx.InsertMovement(ctx, &built[i]); err != nil {
				return err
			}
			if err := tx.ApplyStockChange(ctx, built[i].ProductID, built[i].PreviousStock, built[i].NewStock); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, in.IdempotencyKey)
		}
		return nil, err
	}

	s.recordAudit(ctx, actor, "movements:submit", built[0].ID, map[string]any{
		"type":     in.Type,
		"reason":   in.Reason,
		"products": len(built),
	})
	s.invalidateWarehouses(ctx, built)

	return built, nil
}

// ReceiveTransfer marks a pending transfer as arrived and notifies the
// integration layer so the destination-side entry gets posted.
func (s *Service) ReceiveTransfer(ctx context.Context, movementID string, actualDelivery *time.Time) (*StockMovement, error) {
	actor := shared.IdentityFromContext(ctx)
	if actor == nil || actor.UserID == "" {
		return nil, ErrMissingIdentity
	}

	var movement *StockMovement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		m, err := tx.GetMovementForUpdate(ctx, movementID)
		if err != nil {
			return err
		}
		if m.Type != TypeTransfer || m.Transfer == nil {
			return ErrNotTransfer
		}
		if err := m.Transfer.Receive(actor.UserID, time.Now().UTC(), actualDelivery); err != nil {
			return err
		}
		if err := tx.UpdateTransfer(ctx, m.ID, m.Transfer); err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.integration != nil {
		evt := TransferReceivedEvent{
			MovementID:           movement.ID,
			TrackingCode:         movement.Transfer.TrackingCode,
			ProductID:            movement.ProductID,
			ProductSKU:           movement.ProductSKU,
			ProductName:          movement.ProductName,
			Quantity:             movement.Quantity,
			SourceWarehouse:      movement.Transfer.SourceWarehouse,
			DestinationWarehouse: movement.Transfer.DestinationWarehouse,
			ReceivedBy:           actor.UserID,
		}
		if err := s.integration.HandleTransferReceived(ctx, evt); err != nil {
			return nil, err
		}
	}

	s.recordAudit(ctx, actor, "movements:transfer_received", movement.ID, map[string]any{
		"tracking_code": movement.Transfer.TrackingCode,
	})
	return movement, nil
}

// RejectTransfer refuses a pending transfer and notifies the integration
// layer so the stock returns to the source warehouse.
func (s *Service) RejectTransfer(ctx context.Context, movementID, reason string) (*StockMovement, error) {
	actor := shared.IdentityFromContext(ctx)
	if actor == nil || actor.UserID == "" {
		return nil, ErrMissingIdentity
	}

	var movement *StockMovement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		m, err := tx.GetMovementForUpdate(ctx, movementID)
		if err != nil {
			return err
		}
		if m.Type != TypeTransfer || m.Transfer == nil {
			return ErrNotTransfer
		}
		if err := m.Transfer.Reject(actor.UserID, reason, time.Now().UTC()); err != nil {
			return err
		}
		if err := tx.UpdateTransfer(ctx, m.ID, m.Transfer); err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.integration != nil {
		evt := TransferRejectedEvent{
			MovementID:      movement.ID,
			TrackingCode:    movement.Transfer.TrackingCode,
			ProductID:       movement.ProductID,
			Quantity:        movement.Quantity,
			SourceWarehouse: movement.Transfer.SourceWarehouse,
			RejectedBy:      actor.UserID,
			Reason:          reason,
		}
		if err := s.integration.HandleTransferRejected(ctx, evt); err != nil {
			return nil, err
		}
	}

	s.recordAudit(ctx, actor, "movements:transfer_rejected", movement.ID, map[string]any{
		"tracking_code": movement.Transfer.TrackingCode,
		"reason":        reason,
	})
	return movement, nil
}

// ResolveApproval decides a pending entry approval.
func (s *Service) ResolveApproval(ctx context.Context, movementID string, approve bool) (*StockMovement, error) {
	actor := shared.IdentityFromContext(ctx)
	if actor == nil || actor.UserID == "" {
		return nil, ErrMissingIdentity
	}

	var movement *StockMovement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		m, err := tx.GetMovementForUpdate(ctx, movementID)
		if err != nil {
			return err
		}
		if m.Type != TypeEntry || m.ApprovalStatus == nil {
			return ErrNotEntry
		}
		if !m.ApprovalStatus.CanResolve() {
			return ErrApprovalResolved
		}
		status := ApprovalApproved
		if !approve {
			status = ApprovalRejected
		}
		now := time.Now().UTC()
		if err := tx.UpdateApproval(ctx, m.ID, status, actor.UserID, now); err != nil {
			return err
		}
		m.ApprovalStatus = &status
		m.ApprovedBy = &actor.UserID
		m.ApprovedAt = &now
		movement = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor, "movements:approval", movement.ID, map[string]any{
		"status": *movement.ApprovalStatus,
	})
	return movement, nil
}

// List lists ledger records.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]StockMovement, error) {
	return s.repo.ListMovements(ctx, filter)
}

// Get fetches one ledger record.
func (s *Service) Get(ctx context.Context, id string) (*StockMovement, error) {
	return s.repo.GetMovement(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, actor *shared.Identity, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "stock_movement",
		EntityID: entityID,
		Meta:     meta,
	})
}

func (s *Service) invalidateWarehouses(ctx context.Context, built []StockMovement) {
	if s.products == nil {
		return
	}
	seen := make(map[string]struct{}, 1)
	for _, m := range built {
		if _, ok := seen[m.Warehouse]; ok {
			continue
		}
		seen[m.Warehouse] = struct{}{}
		s.products.InvalidateProducts(ctx, m.Warehouse)
	}
}
