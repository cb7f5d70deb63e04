package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/stockpilot-wms/stockpilot/internal/catalog"
	"github.com/stockpilot-wms/stockpilot/internal/movements"
	"github.com/stockpilot-wms/stockpilot/internal/shared"
)

// Compensator posts the compensating ledger entry after a transfer
// resolution: a destination-side entry when the transfer was received, a
// source-side reversal when it was rejected. Both go through the movements
// service so validation, audit and the optimistic stock check apply.
type Compensator struct {
	logger    *slog.Logger
	movements *movements.Service
	catalog   *catalog.Service
}

// NewCompensator constructs a Compensator.
func NewCompensator(logger *slog.Logger, movementsSvc *movements.Service, catalogSvc *catalog.Service) *Compensator {
	return &Compensator{logger: logger, movements: movementsSvc, catalog: catalogSvc}
}

// HandleTransferCompensate processes TaskTransferCompensate tasks.
func (c *Compensator) HandleTransferCompensate(ctx context.Context, t *asynq.Task) error {
	var payload TransferCompensatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	actorCtx := shared.ContextWithIdentity(ctx, &shared.Identity{
		UserID: payload.ActorID,
		Name:   "transfer worker",
	})

	switch payload.Kind {
	case CompensationReceived:
		return c.compensateReceived(actorCtx, payload)
	case CompensationRejected:
		return c.compensateRejected(actorCtx, payload)
	default:
		c.logger.Warn("unknown compensation kind", slog.String("kind", payload.Kind))
		return asynq.SkipRetry
	}
}

func (c *Compensator) compensateReceived(ctx context.Context, payload TransferCompensatePayload) error {
	product, err := c.catalog.GetProductBySKU(ctx, payload.DestinationWarehouse, payload.ProductSKU)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		product, err = c.cloneToDestination(ctx, payload)
		if err != nil {
			return err
		}
	}

	return c.postEntry(ctx, product.ID, payload, movements.ReasonTransferReceived, CompensationReceived)
}

func (c *Compensator) compensateRejected(ctx context.Context, payload TransferCompensatePayload) error {
	product, err := c.catalog.GetProduct(ctx, payload.ProductID)
	if err != nil {
		return err
	}
	return c.postEntry(ctx, product.ID, payload, movements.ReasonTransferReturned, CompensationRejected)
}

// cloneToDestination creates the product at the destination warehouse with
// zero stock when no SKU match exists there yet.
func (c *Compensator) cloneToDestination(ctx context.Context, payload TransferCompensatePayload) (*catalog.Product, error) {
	source, err := c.catalog.GetProduct(ctx, payload.ProductID)
	if err != nil {
		return nil, err
	}
	clone := &catalog.Product{
		ID:            uuid.NewString(),
		SKU:           source.SKU,
		Name:          source.Name,
		Unit:          source.Unit,
		Category:      source.Category,
		PurchasePrice: source.PurchasePrice,
		CurrentStock:  0,
		MinStock:      source.MinStock,
		Location:      catalog.Location{Warehouse: payload.DestinationWarehouse},
	}
	if err := c.catalog.CreateProduct(ctx, clone); err != nil {
		return nil, err
	}
	return clone, nil
}

func (c *Compensator) postEntry(ctx context.Context, productID string, payload TransferCompensatePayload, reason, kind string) error {
	in := movements.SubmitInput{
		Type:           movements.TypeEntry,
		Reason:         reason,
		Notes:          "Transfer " + payload.TrackingCode,
		IdempotencyKey: "compensate:" + payload.TrackingCode + ":" + kind,
		Selections: []movements.ProductSelection{{
			ProductID: productID,
			Quantity:  strconv.FormatInt(payload.Quantity, 10),
		}},
	}

	_, err := c.movements.Submit(ctx, in)
	if err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return nil
		}
		var vErr *movements.ValidationError
		if errors.As(err, &vErr) {
			c.logger.Error("compensation rejected by validation",
				slog.String("tracking_code", payload.TrackingCode),
				slog.Any("fields", vErr.Fields()))
			return asynq.SkipRetry
		}
		return err
	}
	return nil
}

// NewIdempotencyCleanupHandler prunes idempotency keys older than retention.
func NewIdempotencyCleanupHandler(store *shared.IdempotencyStore, retention time.Duration) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		return store.Cleanup(ctx, retention)
	}
}
