package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Location pinpoints where a product is stored.
type Location struct {
	Warehouse string `json:"warehouse"`
	Aisle     string `json:"aisle,omitempty"`
	Shelf     string `json:"shelf,omitempty"`
	Position  string `json:"position,omitempty"`
}

// Product is a stock-keeping item tracked per warehouse.
type Product struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	Category      string          `json:"category,omitempty"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	CurrentStock  int64           `json:"current_stock"`
	MinStock      int64           `json:"min_stock"`
	Location      Location        `json:"location"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
