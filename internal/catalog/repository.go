package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockpilot-wms/stockpilot/internal/shared"
)

// Repository defines persistence operations for the catalog module.
type Repository interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
	GetProductBySKU(ctx context.Context, warehouse, sku string) (*Product, error)
	ListProducts(ctx context.Context, warehouse string) ([]Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	ListWarehouses(ctx context.Context) ([]string, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const productColumns = `id, sku, name, unit, category, purchase_price, current_stock, min_stock,
	location_warehouse, location_aisle, location_shelf, location_position, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Unit, &p.Category, &p.PurchasePrice,
		&p.CurrentStock, &p.MinStock,
		&p.Location.Warehouse, &p.Location.Aisle, &p.Location.Shelf, &p.Location.Position,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetProduct fetches a product by id.
func (r *PGRepository) GetProduct(ctx context.Context, id string) (*Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("catalog: get product: %w", err)
	}
	return p, nil
}

// GetProductBySKU fetches a product by SKU within a warehouse.
func (r *PGRepository) GetProductBySKU(ctx context.Context, warehouse, sku string) (*Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE location_warehouse = $1 AND sku = $2`, warehouse, sku)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("catalog: get product by sku: %w", err)
	}
	return p, nil
}

// ListProducts lists products, optionally filtered by warehouse.
func (r *PGRepository) ListProducts(ctx context.Context, warehouse string) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY name`
	args := []any{}
	if warehouse != "" {
		query = `SELECT ` + productColumns + ` FROM products WHERE location_warehouse = $1 ORDER BY name`
		args = append(args, warehouse)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// CreateProduct inserts a new product row.
func (r *PGRepository) CreateProduct(ctx context.Context, p *Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, sku, name, unit, category, purchase_price, current_stock, min_stock,
			location_warehouse, location_aisle, location_shelf, location_position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())`,
		p.ID, p.SKU, p.Name, p.Unit, p.Category, p.PurchasePrice, p.CurrentStock, p.MinStock,
		p.Location.Warehouse, p.Location.Aisle, p.Location.Shelf, p.Location.Position)
	if err != nil {
		return fmt.Errorf("catalog: create product: %w", err)
	}
	return nil
}

// ListWarehouses lists the distinct warehouses products are stored in.
func (r *PGRepository) ListWarehouses(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT location_warehouse FROM products ORDER BY location_warehouse`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("catalog: scan warehouse: %w", err)
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
