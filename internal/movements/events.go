package movements

import "context"

// TransferReceivedEvent signals a transfer arrival needing a destination-side entry.
type TransferReceivedEvent struct {
	MovementID           string
	TrackingCode         string
	ProductID            string
	ProductSKU           string
	ProductName          string
	Quantity             int64
	SourceWarehouse      string
	DestinationWarehouse string
	ReceivedBy           string
}

// TransferRejectedEvent signals a rejected transfer needing a source-side reversal.
type TransferRejectedEvent struct {
	MovementID      string
	TrackingCode    string
	ProductID       string
	Quantity        int64
	SourceWarehouse string
	RejectedBy      string
	Reason          string
}

// IntegrationHandler receives transfer resolution events for follow-up work.
type IntegrationHandler interface {
	HandleTransferReceived(ctx context.Context, evt TransferReceivedEvent) error
	HandleTransferRejected(ctx context.Context, evt TransferRejectedEvent) error
}
