package movements

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockpilot-wms/stockpilot/internal/catalog"
	"github.com/stockpilot-wms/stockpilot/internal/shared"
)

type memoryRepo struct {
	movements map[string]*StockMovement
	stocks    map[string]int64
	seq       int
}

func newMemoryRepo(stocks map[string]int64) *memoryRepo {
	return &memoryRepo{movements: make(map[string]*StockMovement), stocks: stocks}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) ListMovements(ctx context.Context, filter ListFilter) ([]StockMovement, error) {
	var out []StockMovement
	for _, m := range r.movements {
		if filter.ProductID != "" && m.ProductID != filter.ProductID {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (r *memoryRepo) GetMovement(ctx context.Context, id string) (*StockMovement, error) {
	m, ok := r.movements[id]
	if !ok {
		return nil, ErrMovementNotFound
	}
	return m, nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) InsertMovement(ctx context.Context, m *StockMovement) error {
	t.repo.seq++
	m.ID = fmt.Sprintf("mov-%d", t.repo.seq)
	m.CreatedAt = time.Now().UTC()
	stored := *m
	t.repo.movements[m.ID] = &stored
	return nil
}

func (t *memoryTx) ApplyStockChange(ctx context.Context, productID string, previous, next int64) error {
	if t.repo.stocks[productID] != previous {
		return ErrStaleStock
	}
	t.repo.stocks[productID] = next
	return nil
}

func (t *memoryTx) GetMovementForUpdate(ctx context.Context, id string) (*StockMovement, error) {
	m, ok := t.repo.movements[id]
	if !ok {
		return nil, ErrMovementNotFound
	}
	return m, nil
}

func (t *memoryTx) UpdateTransfer(ctx context.Context, movementID string, tr *TransferData) error {
	m, ok := t.repo.movements[movementID]
	if !ok {
		return ErrMovementNotFound
	}
	m.Transfer = tr
	return nil
}

func (t *memoryTx) UpdateApproval(ctx context.Context, movementID string, status ApprovalStatus, by string, at time.Time) error {
	m, ok := t.repo.movements[movementID]
	if !ok {
		return ErrMovementNotFound
	}
	m.ApprovalStatus = &status
	m.ApprovedBy = &by
	m.ApprovedAt = &at
	return nil
}

type productSourceFake struct {
	products    map[string]*catalog.Product
	invalidated []string
}

func (f *productSourceFake) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (f *productSourceFake) InvalidateProducts(ctx context.Context, warehouse string) {
	f.invalidated = append(f.invalidated, warehouse)
}

type integrationRecorder struct {
	received []TransferReceivedEvent
	rejected []TransferRejectedEvent
}

func (r *integrationRecorder) HandleTransferReceived(ctx context.Context, evt TransferReceivedEvent) error {
	r.received = append(r.received, evt)
	return nil
}

func (r *integrationRecorder) HandleTransferRejected(ctx context.Context, evt TransferRejectedEvent) error {
	r.rejected = append(r.rejected, evt)
	return nil
}

type auditRecorder struct {
	actions []string
}

func (a *auditRecorder) Record(ctx context.Context, log shared.AuditLog) error {
	a.actions = append(a.actions, log.Action)
	return nil
}

type serviceFixture struct {
	service     *Service
	repo        *memoryRepo
	products    *productSourceFake
	integration *integrationRecorder
	audit       *auditRecorder
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	products := testProducts()
	stocks := make(map[string]int64, len(products))
	for id, p := range products {
		stocks[id] = p.CurrentStock
	}

	repo := newMemoryRepo(stocks)
	source := &productSourceFake{products: products}
	integration := &integrationRecorder{}
	audit := &auditRecorder{}
	money := newTestMoney(t)

	return &serviceFixture{
		service:     NewService(repo, source, audit, nil, NewValidator(money), NewBuilder(nil, nil, money), integration),
		repo:        repo,
		products:    source,
		integration: integration,
		audit:       audit,
	}
}

func identityCtx() context.Context {
	return shared.ContextWithIdentity(context.Background(), &shared.Identity{
		UserID: "u-1",
		Name:   "Maria Souza",
		Role:   "manager",
	})
}

func TestSubmitExit(t *testing.T) {
	f := newServiceFixture(t)

	built, err := f.service.Submit(identityCtx(), SubmitInput{
		Type:       TypeExit,
		Reason:     "sale",
		Selections: []ProductSelection{{ProductID: "p-1", Quantity: "4"}},
	})
	require.NoError(t, err)
	require.Len(t, built, 1)
	require.Equal(t, int64(10), built[0].PreviousStock)
	require.Equal(t, int64(6), built[0].NewStock)
	require.Equal(t, int64(6), f.repo.stocks["p-1"])
	require.NotEmpty(t, built[0].ID)

	require.Equal(t, []string{"movements:submit"}, f.audit.actions)
	require.Equal(t, []string{"central"}, f.products.invalidated)
}

func TestSubmitValidationFailureLeavesStockUntouched(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Submit(identityCtx(), SubmitInput{
		Type:       TypeExit,
		Reason:     "sale",
		Selections: []ProductSelection{{ProductID: "p-1", Quantity: "99"}},
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields(), "quantity_p-1")
	require.Equal(t, int64(10), f.repo.stocks["p-1"])
	require.Empty(t, f.repo.movements)
}

func TestSubmitUnknownProduct(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Submit(identityCtx(), SubmitInput{
		Type:       TypeExit,
		Reason:     "sale",
		Selections: []ProductSelection{{ProductID: "ghost", Quantity: "1"}},
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields(), "product_ghost")
}

func TestSubmitRequiresIdentity(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Submit(context.Background(), SubmitInput{
		Type:       TypeExit,
		Reason:     "sale",
		Selections: []ProductSelection{{ProductID: "p-1", Quantity: "1"}},
	})
	require.ErrorIs(t, err, ErrMissingIdentity)
}

func TestSubmitStaleStock(t *testing.T) {
	f := newServiceFixture(t)

	// Another writer moved the live stock after the snapshot was taken.
	f.repo.stocks["p-1"] = 8

	_, err := f.service.Submit(identityCtx(), SubmitInput{
		Type:       TypeExit,
		Reason:     "sale",
		Selections: []ProductSelection{{ProductID: "p-1", Quantity: "4"}},
	})
	require.ErrorIs(t, err, ErrStaleStock)
	require.Equal(t, int64(8), f.repo.stocks["p-1"])
	require.Empty(t, f.audit.actions)
}

func submitTransfer(t *testing.T, f *serviceFixture) StockMovement {
	t.Helper()
	built, err := f.service.Submit(identityCtx(), SubmitInput{
		Type:                 TypeTransfer,
		Reason:               "restock",
		SourceWarehouse:      "central",
		DestinationWarehouse: "north",
		Selections:           []ProductSelection{{ProductID: "p-2", Quantity: "2"}},
	})
	require.NoError(t, err)
	require.Len(t, built, 1)
	return built[0]
}

func TestSubmitTransferDebitsSource(t *testing.T) {
	f := newServiceFixture(t)

	m := submitTransfer(t, f)
	require.Equal(t, int64(3), f.repo.stocks["p-2"])
	require.NotNil(t, m.Transfer)
	require.Equal(t, TransferPending, m.Transfer.Status)
	require.Equal(t, "central", m.Warehouse)
}

func TestReceiveTransfer(t *testing.T) {
	f := newServiceFixture(t)
	m := submitTransfer(t, f)

	delivery := time.Now().UTC()
	resolved, err := f.service.ReceiveTransfer(identityCtx(), m.ID, &delivery)
	require.NoError(t, err)
	require.Equal(t, TransferReceived, resolved.Transfer.Status)
	require.Equal(t, "u-1", *resolved.Transfer.ReceivedBy)

	require.Len(t, f.integration.received, 1)
	evt := f.integration.received[0]
	require.Equal(t, m.Transfer.TrackingCode, evt.TrackingCode)
	require.Equal(t, "north", evt.DestinationWarehouse)
	require.Equal(t, int64(2), evt.Quantity)

	_, err = f.service.ReceiveTransfer(identityCtx(), m.ID, nil)
	require.ErrorIs(t, err, ErrInvalidStateTransition)
	require.Len(t, f.integration.received, 1)
}

func TestRejectTransfer(t *testing.T) {
	f := newServiceFixture(t)
	m := submitTransfer(t, f)

	_, err := f.service.RejectTransfer(identityCtx(), m.ID, "  ")
	require.ErrorIs(t, err, ErrRejectionReason)
	require.Empty(t, f.integration.rejected)

	resolved, err := f.service.RejectTransfer(identityCtx(), m.ID, "damaged crate")
	require.NoError(t, err)
	require.Equal(t, TransferRejected, resolved.Transfer.Status)

	require.Len(t, f.integration.rejected, 1)
	evt := f.integration.rejected[0]
	require.Equal(t, "central", evt.SourceWarehouse)
	require.Equal(t, "damaged crate", evt.Reason)
}

func TestReceiveNonTransfer(t *testing.T) {
	f := newServiceFixture(t)

	built, err := f.service.Submit(identityCtx(), SubmitInput{
		Type:       TypeExit,
		Reason:     "sale",
		Selections: []ProductSelection{{ProductID: "p-1", Quantity: "1"}},
	})
	require.NoError(t, err)

	_, err = f.service.ReceiveTransfer(identityCtx(), built[0].ID, nil)
	require.ErrorIs(t, err, ErrNotTransfer)
}

func TestResolveApproval(t *testing.T) {
	f := newServiceFixture(t)

	built, err := f.service.Submit(identityCtx(), SubmitInput{
		Type:       TypeEntry,
		Reason:     "donation",
		Selections: []ProductSelection{{ProductID: "p-1", Quantity: "5"}},
	})
	require.NoError(t, err)
	require.Equal(t, ApprovalPending, *built[0].ApprovalStatus)

	resolved, err := f.service.ResolveApproval(identityCtx(), built[0].ID, true)
	require.NoError(t, err)
	require.Equal(t, ApprovalApproved, *resolved.ApprovalStatus)
	require.Equal(t, "u-1", *resolved.ApprovedBy)

	_, err = f.service.ResolveApproval(identityCtx(), built[0].ID, false)
	require.ErrorIs(t, err, ErrApprovalResolved)
}

func TestResolveApprovalRejectsNonEntry(t *testing.T) {
	f := newServiceFixture(t)

	built, err := f.service.Submit(identityCtx(), SubmitInput{
		Type:       TypeExit,
		Reason:     "sale",
		Selections: []ProductSelection{{ProductID: "p-1", Quantity: "1"}},
	})
	require.NoError(t, err)

	_, err = f.service.ResolveApproval(identityCtx(), built[0].ID, true)
	require.ErrorIs(t, err, ErrNotEntry)
}
