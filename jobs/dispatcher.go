package jobs

import (
	"context"

	"github.com/stockpilot-wms/stockpilot/internal/movements"
)

// Dispatcher forwards transfer resolution events to the job queue.
type Dispatcher struct {
	client *Client
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(client *Client) *Dispatcher {
	return &Dispatcher{client: client}
}

// HandleTransferReceived enqueues the destination-side compensating entry.
func (d *Dispatcher) HandleTransferReceived(ctx context.Context, evt movements.TransferReceivedEvent) error {
	_, err := d.client.EnqueueTransferCompensate(ctx, TransferCompensatePayload{
		Kind:                 CompensationReceived,
		MovementID:           evt.MovementID,
		TrackingCode:         evt.TrackingCode,
		ProductID:            evt.ProductID,
		ProductSKU:           evt.ProductSKU,
		ProductName:          evt.ProductName,
		Quantity:             evt.Quantity,
		SourceWarehouse:      evt.SourceWarehouse,
		DestinationWarehouse: evt.DestinationWarehouse,
		ActorID:              evt.ReceivedBy,
	})
	return err
}

// HandleTransferRejected enqueues the source-side reversal entry.
func (d *Dispatcher) HandleTransferRejected(ctx context.Context, evt movements.TransferRejectedEvent) error {
	_, err := d.client.EnqueueTransferCompensate(ctx, TransferCompensatePayload{
		Kind:            CompensationRejected,
		MovementID:      evt.MovementID,
		TrackingCode:    evt.TrackingCode,
		ProductID:       evt.ProductID,
		Quantity:        evt.Quantity,
		SourceWarehouse: evt.SourceWarehouse,
		ActorID:         evt.RejectedBy,
	})
	return err
}

var _ movements.IntegrationHandler = (*Dispatcher)(nil)
