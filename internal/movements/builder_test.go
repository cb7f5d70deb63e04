package movements

import (
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot-wms/stockpilot/internal/shared"
)

var trackingPattern = regexp.MustCompile(`^TRF-\d+-[0-9A-Z]{6}$`)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	clock := func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }
	return NewBuilder(clock, rand.New(rand.NewSource(1)), newTestMoney(t))
}

func testActor() *shared.Identity {
	return &shared.Identity{UserID: "u-1", Name: "Maria Souza", Role: "manager"}
}

func TestBuildPurchaseEntry(t *testing.T) {
	b := newTestBuilder(t)

	in := SubmitInput{
		Type:   TypeEntry,
		Reason: ReasonPurchase,
		Batch:  " LOT-2025-017 ",
		Selections: []ProductSelection{
			{ProductID: "p-1", Quantity: "4", Price: "R$ 12,50"},
			{ProductID: "p-2", Quantity: "2", Price: "R$ 3,00"},
		},
	}
	built, err := b.Build(in, testActor(), testProducts())
	require.NoError(t, err)
	require.Len(t, built, 2)

	first := built[0]
	require.Equal(t, "p-1", first.ProductID)
	require.Equal(t, "WID-001", first.ProductSKU)
	require.Equal(t, int64(10), first.PreviousStock)
	require.Equal(t, int64(14), first.NewStock)
	require.Equal(t, "central", first.Warehouse)
	require.Equal(t, "u-1", first.UserID)
	require.Equal(t, "Maria Souza", first.UserName)
	require.Equal(t, "LOT-2025-017", first.Batch)

	require.NotNil(t, first.ApprovalStatus)
	require.Equal(t, ApprovalPending, *first.ApprovalStatus)
	require.NotNil(t, first.Price)
	require.True(t, first.Price.Equal(decimal.RequireFromString("12.50")))

	// Persistence assigns these.
	require.Empty(t, first.ID)
	require.True(t, first.CreatedAt.IsZero())
}

func TestBuildExitHasNoApprovalOrPrice(t *testing.T) {
	b := newTestBuilder(t)

	in := SubmitInput{
		Type:       TypeExit,
		Reason:     "sale",
		Selections: []ProductSelection{{ProductID: "p-1", Quantity: "4"}},
	}
	built, err := b.Build(in, testActor(), testProducts())
	require.NoError(t, err)
	require.Len(t, built, 1)
	require.Nil(t, built[0].ApprovalStatus)
	require.Nil(t, built[0].Price)
	require.Equal(t, int64(6), built[0].NewStock)
}

func TestBuildTransfer(t *testing.T) {
	b := newTestBuilder(t)

	expected := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	in := SubmitInput{
		Type:                 TypeTransfer,
		Reason:               "restock",
		SourceWarehouse:      "central",
		DestinationWarehouse: "north",
		ExpectedDeliveryDate: &expected,
		TransportNotes:       "fragile, keep upright",
		Selections: []ProductSelection{
			{ProductID: "p-1", Quantity: "2"},
			{ProductID: "p-2", Quantity: "1"},
		},
	}
	built, err := b.Build(in, testActor(), testProducts())
	require.NoError(t, err)
	require.Len(t, built, 2)

	codes := make(map[string]struct{})
	for _, m := range built {
		require.Equal(t, "central", m.Warehouse)
		require.NotNil(t, m.Transfer)
		require.Equal(t, TransferPending, m.Transfer.Status)
		require.Equal(t, "central", m.Transfer.SourceWarehouse)
		require.Equal(t, "north", m.Transfer.DestinationWarehouse)
		require.Equal(t, "u-1", m.Transfer.SentBy)
		require.Equal(t, expected, *m.Transfer.ExpectedDeliveryDate)
		require.Equal(t, "fragile, keep upright", m.Transfer.TransportNotes)
		require.Regexp(t, trackingPattern, m.Transfer.TrackingCode)
		codes[m.Transfer.TrackingCode] = struct{}{}
	}
	require.Len(t, codes, 2, "each movement gets its own tracking code")
}

func TestBuildDeterministicWithSeededSource(t *testing.T) {
	in := SubmitInput{
		Type:                 TypeTransfer,
		Reason:               "restock",
		SourceWarehouse:      "central",
		DestinationWarehouse: "north",
		Selections:           []ProductSelection{{ProductID: "p-1", Quantity: "1"}},
	}

	a, err := newTestBuilder(t).Build(in, testActor(), testProducts())
	require.NoError(t, err)
	b, err := newTestBuilder(t).Build(in, testActor(), testProducts())
	require.NoError(t, err)
	require.Equal(t, a[0].Transfer.TrackingCode, b[0].Transfer.TrackingCode)
}

func TestBuildRequiresActor(t *testing.T) {
	b := newTestBuilder(t)

	in := SubmitInput{
		Type:       TypeExit,
		Reason:     "sale",
		Selections: []ProductSelection{{ProductID: "p-1", Quantity: "1"}},
	}
	_, err := b.Build(in, nil, testProducts())
	require.ErrorIs(t, err, ErrMissingIdentity)

	_, err = b.Build(in, &shared.Identity{Name: "nameless"}, testProducts())
	require.ErrorIs(t, err, ErrMissingIdentity)
}
