package movements

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/stockpilot-wms/stockpilot/internal/catalog"
	"github.com/stockpilot-wms/stockpilot/internal/shared"
)

const trackingAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Builder constructs immutable movement records from a validated submission.
// The clock and random source are injectable for deterministic tests.
type Builder struct {
	clock func() time.Time
	rnd   *rand.Rand
	money *MoneyFormat
}

// NewBuilder constructs a Builder. Nil clock or random source fall back to
// the wall clock and a time-seeded source.
func NewBuilder(clock func() time.Time, rnd *rand.Rand, money *MoneyFormat) *Builder {
	if clock == nil {
		clock = time.Now
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Builder{clock: clock, rnd: rnd, money: money}
}

// Build produces one movement per selected product. The submission must have
// passed validation; Build snapshots previous/new stock, assigns approval
// status to entries, prices to purchase entries, and transfer records with
// fresh tracking codes to transfers.
func (b *Builder) Build(in SubmitInput, actor *shared.Identity, products map[string]*catalog.Product) ([]StockMovement, error) {
	if actor == nil || actor.UserID == "" {
		return nil, ErrMissingIdentity
	}

	purchaseEntry := in.Type == TypeEntry && strings.TrimSpace(in.Reason) == ReasonPurchase
	now := b.clock()

	movements := make([]StockMovement, 0, len(in.Selections))
	for _, sel := range in.Selections {
		product, ok := products[sel.ProductID]
		if !ok {
			return nil, fmt.Errorf("movements: unknown product %s", sel.ProductID)
		}

		qty := ParseQuantity(sel.Quantity)
		m := StockMovement{
			ProductID:     product.ID,
			ProductSKU:    product.SKU,
			ProductName:   product.Name,
			Type:          in.Type,
			Quantity:      qty,
			Reason:        strings.TrimSpace(in.Reason),
			Notes:         strings.TrimSpace(in.Notes),
			Batch:         strings.TrimSpace(in.Batch),
			PreviousStock: product.CurrentStock,
			NewStock:      ComputeNewStock(in.Type, product.CurrentStock, qty),
			Warehouse:     product.Location.Warehouse,
			Attachments:   append([]string(nil), in.Attachments...),
			UserID:        actor.UserID,
			UserName:      actor.Name,
		}

		if purchaseEntry {
			price := b.money.Parse(sel.Price)
			m.Price = &price
		}

		if in.Type == TypeEntry {
			status := ApprovalPending
			m.ApprovalStatus = &status
		}

		if in.Type == TypeTransfer {
			m.Warehouse = in.SourceWarehouse
			m.Transfer = &TransferData{
				TrackingCode:         b.trackingCode(now),
				SourceWarehouse:      in.SourceWarehouse,
				DestinationWarehouse: in.DestinationWarehouse,
				Status:               TransferPending,
				SentBy:               actor.UserID,
				SentAt:               now,
				ExpectedDeliveryDate: in.ExpectedDeliveryDate,
				TransportNotes:       strings.TrimSpace(in.TransportNotes),
			}
		}

		movements = append(movements, m)
	}
	return movements, nil
}

// trackingCode yields TRF-<unix-nanos>-<6 random base36 chars>, uppercased.
func (b *Builder) trackingCode(at time.Time) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = trackingAlphabet[b.rnd.Intn(len(trackingAlphabet))]
	}
	return strings.ToUpper(fmt.Sprintf("TRF-%d-%s", at.UnixNano(), suffix))
}
