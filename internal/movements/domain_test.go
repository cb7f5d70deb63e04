package movements

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKnownReason(t *testing.T) {
	require.True(t, KnownReason(TypeEntry, ReasonPurchase))
	require.True(t, KnownReason(TypeEntry, ReasonTransferReceived))
	require.True(t, KnownReason(TypeEntry, ReasonTransferReturned))
	require.True(t, KnownReason(TypeExit, "sale"))
	require.True(t, KnownReason(TypeAdjustment, "inventory count"))

	require.False(t, KnownReason(TypeExit, ReasonPurchase))
	require.False(t, KnownReason(TypeTransfer, "sale"))
	require.False(t, KnownReason(MovementType("bogus"), "other"))
}

func TestReasonVocabularyCoversEveryType(t *testing.T) {
	for _, typ := range []MovementType{TypeEntry, TypeExit, TypeTransfer, TypeAdjustment} {
		require.NotEmpty(t, ReasonsByType[typ])
		require.True(t, KnownReason(typ, "other"))
	}
}
