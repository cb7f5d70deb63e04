package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const productListTTL = 30 * time.Second

// Service serves catalog reads with a Redis cache in front of PostgreSQL.
type Service struct {
	logger *slog.Logger
	repo   Repository
	cache  *redis.Client
	group  singleflight.Group
}

// NewService constructs a new Service.
func NewService(logger *slog.Logger, repo Repository, cache *redis.Client) *Service {
	return &Service{logger: logger, repo: repo, cache: cache}
}

// GetProduct fetches a product snapshot by id.
func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// GetProductBySKU fetches a product by SKU within a warehouse.
func (s *Service) GetProductBySKU(ctx context.Context, warehouse, sku string) (*Product, error) {
	return s.repo.GetProductBySKU(ctx, warehouse, sku)
}

// CreateProduct inserts a new product.
func (s *Service) CreateProduct(ctx context.Context, p *Product) error {
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return err
	}
	s.invalidateProducts(ctx, p.Location.Warehouse)
	return nil
}

// ListProducts lists products for a warehouse, collapsing concurrent cache misses.
func (s *Service) ListProducts(ctx context.Context, warehouse string) ([]Product, error) {
	key := s.productListKey(warehouse)

	if s.cache != nil {
		if payload, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var products []Product
			if err := json.Unmarshal(payload, &products); err == nil {
				return products, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("product cache read", slog.Any("error", err))
		}
	}

	result := s.group.DoChan(key, func() (any, error) {
		products, err := s.repo.ListProducts(ctx, warehouse)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if payload, err := json.Marshal(products); err == nil {
				if err := s.cache.Set(ctx, key, payload, productListTTL).Err(); err != nil {
					s.logger.Warn("product cache write", slog.Any("error", err))
				}
			}
		}
		return products, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Product), nil
	}
}

// ListWarehouses lists the distinct warehouses products are stored in.
func (s *Service) ListWarehouses(ctx context.Context) ([]string, error) {
	return s.repo.ListWarehouses(ctx)
}

// InvalidateProducts drops the cached list after a stock write.
func (s *Service) InvalidateProducts(ctx context.Context, warehouse string) {
	s.invalidateProducts(ctx, warehouse)
}

func (s *Service) invalidateProducts(ctx context.Context, warehouse string) {
	if s.cache == nil {
		return
	}
	keys := []string{s.productListKey(warehouse), s.productListKey("")}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn("product cache invalidate", slog.Any("error", err))
	}
}

func (s *Service) productListKey(warehouse string) string {
	if warehouse == "" {
		return "catalog:products:all"
	}
	return fmt.Sprintf("catalog:products:%s", warehouse)
}
