package movements

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType classifies how a movement changes stock.
type MovementType string

const (
	TypeEntry      MovementType = "entry"
	TypeExit       MovementType = "exit"
	TypeTransfer   MovementType = "transfer"
	TypeAdjustment MovementType = "adjustment"
)

// IsValid checks if the movement type is known.
func (t MovementType) IsValid() bool {
	switch t {
	case TypeEntry, TypeExit, TypeTransfer, TypeAdjustment:
		return true
	default:
		return false
	}
}

// Decreases reports whether the movement takes stock out of the source location.
func (t MovementType) Decreases() bool {
	return t == TypeExit || t == TypeTransfer
}

// ReasonPurchase is the entry reason that requires a unit price.
const ReasonPurchase = "purchase"

// Reasons used by transfer compensation entries.
const (
	ReasonTransferReceived = "transfer received"
	ReasonTransferReturned = "transfer returned"
)

// ReasonsByType is the reason vocabulary offered per movement type.
// "other" submissions carry free text, so membership is advisory.
var ReasonsByType = map[MovementType][]string{
	TypeEntry:      {ReasonPurchase, "return", ReasonTransferReceived, ReasonTransferReturned, "other"},
	TypeExit:       {"sale", "loss", "damage", "expiry", "transfer sent", "other"},
	TypeTransfer:   {"relocation", "internal use", "other"},
	TypeAdjustment: {"inventory count", "error correction", "audit", "other"},
}

// KnownReason reports whether the reason belongs to the type's vocabulary.
func KnownReason(t MovementType, reason string) bool {
	for _, r := range ReasonsByType[t] {
		if r == reason {
			return true
		}
	}
	return false
}

// ApprovalStatus tracks the approval workflow of entry movements.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// CanResolve checks if the approval can still be decided.
func (s ApprovalStatus) CanResolve() bool {
	return s == ApprovalPending
}

// TransferStatus represents the lifecycle of a transfer movement.
type TransferStatus string

const (
	TransferPending  TransferStatus = "pending"
	TransferReceived TransferStatus = "received"
	TransferRejected TransferStatus = "rejected"
)

// IsValid checks if the status is valid.
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferPending, TransferReceived, TransferRejected:
		return true
	default:
		return false
	}
}

// CanReceive checks if the transfer can be marked received.
func (s TransferStatus) CanReceive() bool {
	return s == TransferPending
}

// CanReject checks if the transfer can be rejected.
func (s TransferStatus) CanReject() bool {
	return s == TransferPending
}

// TransferData carries the transfer lifecycle attached to a transfer movement.
type TransferData struct {
	TrackingCode         string         `json:"tracking_code"`
	SourceWarehouse      string         `json:"source_warehouse"`
	DestinationWarehouse string         `json:"destination_warehouse"`
	Status               TransferStatus `json:"status"`
	SentBy               string         `json:"sent_by"`
	SentAt               time.Time      `json:"sent_at"`
	ExpectedDeliveryDate *time.Time     `json:"expected_delivery_date,omitempty"`
	TransportNotes       string         `json:"transport_notes,omitempty"`
	ReceivedBy           *string        `json:"received_by,omitempty"`
	ReceivedAt           *time.Time     `json:"received_at,omitempty"`
	ActualDeliveryDate   *time.Time     `json:"actual_delivery_date,omitempty"`
	RejectedBy           *string        `json:"rejected_by,omitempty"`
	RejectedAt           *time.Time     `json:"rejected_at,omitempty"`
	RejectionReason      *string        `json:"rejection_reason,omitempty"`
}

// StockMovement is one immutable ledger record for one product.
type StockMovement struct {
	ID             string           `json:"id"`
	ProductID      string           `json:"product_id"`
	ProductSKU     string           `json:"product_sku"`
	ProductName    string           `json:"product_name"`
	Type           MovementType     `json:"type"`
	Quantity       int64            `json:"quantity"`
	Reason         string           `json:"reason"`
	Notes          string           `json:"notes,omitempty"`
	Batch          string           `json:"batch,omitempty"`
	PreviousStock  int64            `json:"previous_stock"`
	NewStock       int64            `json:"new_stock"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	ApprovalStatus *ApprovalStatus  `json:"approval_status,omitempty"`
	ApprovedBy     *string          `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time       `json:"approved_at,omitempty"`
	Warehouse      string           `json:"warehouse"`
	Transfer       *TransferData    `json:"transfer,omitempty"`
	Attachments    []string         `json:"attachments,omitempty"`
	UserID         string           `json:"user_id"`
	UserName       string           `json:"user_name"`
	CreatedAt      time.Time        `json:"created_at"`
}

// ListFilter narrows movement listings.
type ListFilter struct {
	ProductID string
	Type      MovementType
	Warehouse string
	Limit     int
	Offset    int
}
