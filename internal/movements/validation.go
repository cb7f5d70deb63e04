package movements

import (
	"fmt"
	"strings"
	"time"

	"github.com/stockpilot-wms/stockpilot/internal/catalog"
)

// ProductSelection is one chosen product with its raw user-entered values.
type ProductSelection struct {
	ProductID string
	Quantity  string
	Price     string
}

// SubmitInput is a movement submission prior to validation.
type SubmitInput struct {
	Type                 MovementType
	Reason               string
	Notes                string
	Batch                string
	SourceWarehouse      string
	DestinationWarehouse string
	ExpectedDeliveryDate *time.Time
	TransportNotes       string
	Attachments          []string
	Selections           []ProductSelection
	IdempotencyKey       string
}

// Validator checks submissions against business rules.
type Validator struct {
	money *MoneyFormat
}

// NewValidator constructs a Validator.
func NewValidator(money *MoneyFormat) *Validator {
	return &Validator{money: money}
}

// Validate collects every rule violation into a field-keyed map instead of
// stopping at the first. A nil result means the submission is valid.
func (v *Validator) Validate(in SubmitInput, products map[string]*catalog.Product) map[string]string {
	errs := make(map[string]string)

	if !in.Type.IsValid() {
		errs["type"] = "Unknown movement type"
	}
	if strings.TrimSpace(in.Reason) == "" {
		errs["reason"] = "Reason is required"
	}
	if len(in.Selections) == 0 {
		errs["products"] = "Select at least one product"
	}
	if in.Type == TypeTransfer {
		if in.SourceWarehouse == "" || in.DestinationWarehouse == "" {
			errs["warehouse"] = "Source and destination warehouses are required"
		} else if in.SourceWarehouse == in.DestinationWarehouse {
			errs["warehouse"] = "Source and destination warehouses must differ"
		}
	}

	purchaseEntry := in.Type == TypeEntry && strings.TrimSpace(in.Reason) == ReasonPurchase

	for _, sel := range in.Selections {
		product, ok := products[sel.ProductID]
		if !ok {
			errs["product_"+sel.ProductID] = "Unknown product"
			continue
		}

		if in.Type == TypeTransfer && in.SourceWarehouse != "" && product.Location.Warehouse != in.SourceWarehouse {
			errs["product_"+sel.ProductID] = "Product is not stored in the source warehouse"
		}

		qty := ParseQuantity(sel.Quantity)
		key := "quantity_" + sel.ProductID
		switch {
		case in.Type == TypeAdjustment:
			// Adjustments set an absolute level; zero is valid, blank is not.
			if strings.TrimSpace(sel.Quantity) == "" {
				errs[key] = "Adjustment value is required"
			}
		case qty <= 0:
			errs[key] = "Quantity must be a positive number"
		case in.Type.Decreases() && qty > product.CurrentStock:
			errs[key] = fmt.Sprintf("Quantity exceeds available stock (%d)", product.CurrentStock)
		}

		if purchaseEntry {
			if !v.money.Parse(sel.Price).IsPositive() {
				errs["price_"+sel.ProductID] = "Purchase price must be greater than zero"
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
