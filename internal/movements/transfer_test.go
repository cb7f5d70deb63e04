package movements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func pendingTransfer() *TransferData {
	return &TransferData{
		TrackingCode:         "TRF-1700000000000000000-A1B2C3",
		SourceWarehouse:      "central",
		DestinationWarehouse: "north",
		Status:               TransferPending,
		SentBy:               "u-1",
		SentAt:               time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestTransferReceive(t *testing.T) {
	tr := pendingTransfer()
	at := time.Date(2025, 3, 15, 11, 0, 0, 0, time.UTC)
	delivery := time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)

	require.NoError(t, tr.Receive("u-2", at, &delivery))
	require.Equal(t, TransferReceived, tr.Status)
	require.Equal(t, "u-2", *tr.ReceivedBy)
	require.Equal(t, at, *tr.ReceivedAt)
	require.Equal(t, delivery, *tr.ActualDeliveryDate)

	// Resolved transfers are terminal.
	require.ErrorIs(t, tr.Receive("u-3", at, nil), ErrInvalidStateTransition)
	require.ErrorIs(t, tr.Reject("u-3", "late", at), ErrInvalidStateTransition)
}

func TestTransferReject(t *testing.T) {
	tr := pendingTransfer()
	at := time.Date(2025, 3, 15, 11, 0, 0, 0, time.UTC)

	require.NoError(t, tr.Reject("u-2", "damaged crate", at))
	require.Equal(t, TransferRejected, tr.Status)
	require.Equal(t, "u-2", *tr.RejectedBy)
	require.Equal(t, "damaged crate", *tr.RejectionReason)

	require.ErrorIs(t, tr.Receive("u-3", at, nil), ErrInvalidStateTransition)
}

func TestTransferRejectRequiresReason(t *testing.T) {
	tr := pendingTransfer()
	at := time.Now().UTC()

	require.ErrorIs(t, tr.Reject("u-2", "   ", at), ErrRejectionReason)
	require.Equal(t, TransferPending, tr.Status)
}

func TestTransferGuardsActor(t *testing.T) {
	tr := pendingTransfer()
	at := time.Now().UTC()

	require.ErrorIs(t, tr.Receive("", at, nil), ErrMissingIdentity)
	require.ErrorIs(t, tr.Reject("", "damaged", at), ErrMissingIdentity)
	require.Equal(t, TransferPending, tr.Status)
}
