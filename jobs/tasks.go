package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTransferCompensate posts the compensating stock write after a
	// transfer resolution.
	TaskTransferCompensate = "transfer:compensate"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// Compensation kinds.
const (
	CompensationReceived = "received"
	CompensationRejected = "rejected"
)

// TransferCompensatePayload describes the compensating movement to post.
type TransferCompensatePayload struct {
	Kind                 string `json:"kind"`
	MovementID           string `json:"movement_id"`
	TrackingCode         string `json:"tracking_code"`
	ProductID            string `json:"product_id"`
	ProductSKU           string `json:"product_sku,omitempty"`
	ProductName          string `json:"product_name,omitempty"`
	Quantity             int64  `json:"quantity"`
	SourceWarehouse      string `json:"source_warehouse"`
	DestinationWarehouse string `json:"destination_warehouse,omitempty"`
	ActorID              string `json:"actor_id"`
}

// NewTransferCompensateTask constructs an Asynq task.
func NewTransferCompensateTask(payload TransferCompensatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTransferCompensate, data), nil
}

// NewIdempotencyCleanupTask constructs the periodic cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}
