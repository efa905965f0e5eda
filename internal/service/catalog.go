package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MoonSoon24/coffee-shop/internal/cache"
	"github.com/MoonSoon24/coffee-shop/internal/catalog"
	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/MoonSoon24/coffee-shop/internal/repo"
	"go.uber.org/zap"
)

// ProductDetail adds bundle pricing to a product for display.
type ProductDetail struct {
	domain.Product
	BundleChildren      []domain.Product `json:"bundle_children,omitempty"`
	BundleOriginalPrice int64            `json:"bundle_original_price,omitempty"`
	BundleSavings       int64            `json:"bundle_savings,omitempty"`
}

// CatalogService reads products through the Redis cache. The cache is
// optional; a nil cache reads straight from the repository.
type CatalogService struct {
	products repo.ProductRepository
	tx       repo.Transactor
	cache    *cache.Cache
	logger   *zap.SugaredLogger

	loadMu sync.Mutex
}

func NewCatalogService(
	products repo.ProductRepository,
	tx repo.Transactor,
	cache *cache.Cache,
	logger *zap.SugaredLogger,
) *CatalogService {
	return &CatalogService{
		products: products,
		tx:       tx,
		cache:    cache,
		logger:   logger,
	}
}

func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if products, ok := s.cachedList(ctx, filter); ok {
		return products, nil
	}

	// one loader per miss; the rest wait and read what it cached
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if products, ok := s.cachedList(ctx, filter); ok {
		return products, nil
	}

	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetProducts(ctx, filter, products); err != nil {
			s.logger.Warnw("failed to cache product list", "category", filter.Category, "error", err)
		}
	}

	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if s.cache != nil {
		product, err := s.cache.GetProduct(ctx, id)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warnw("product cache read failed", "product_id", id, "error", err)
		}
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetProduct(ctx, product); err != nil {
			s.logger.Warnw("failed to cache product", "product_id", id, "error", err)
		}
	}

	return product, nil
}

// GetProducts always reads the repository so callers price with current data.
func (s *CatalogService) GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return products, nil
}

func (s *CatalogService) GetProductDetail(ctx context.Context, id int64) (*ProductDetail, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &ProductDetail{Product: *product}
	if !product.IsBundle || len(product.BundleItems) == 0 {
		return detail, nil
	}

	ids := make([]int64, 0, len(product.BundleItems))
	for _, item := range product.BundleItems {
		ids = append(ids, item.ChildProductID)
	}

	children, err := s.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, item := range product.BundleItems {
		if child, ok := children[item.ChildProductID]; ok {
			detail.BundleChildren = append(detail.BundleChildren, child)
		}
	}
	detail.BundleOriginalPrice = catalog.BundleOriginalPrice(*product, children)
	detail.BundleSavings = catalog.BundleSavings(*product, children)

	return detail, nil
}

// Import validates and upserts products as one unit, then drops the cached
// catalog. It returns how many products were written and the rejected ones.
func (s *CatalogService) Import(ctx context.Context, products []domain.Product) (int, []error, error) {
	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	// bundles may reference products that are already stored
	var missing []int64
	for _, p := range products {
		for _, item := range p.BundleItems {
			if _, ok := byID[item.ChildProductID]; !ok {
				missing = append(missing, item.ChildProductID)
			}
		}
	}
	if len(missing) > 0 {
		stored, err := s.products.GetByIDs(ctx, missing)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to load bundle items: %w", err)
		}
		for id, p := range stored {
			byID[id] = p
		}
	}

	var valid []domain.Product
	var rejected []error
	for _, p := range products {
		if err := catalog.Validate(p); err != nil {
			rejected = append(rejected, fmt.Errorf("product %d: %w", p.ID, err))
			continue
		}
		if p.IsBundle {
			if err := catalog.ValidateBundle(p, byID); err != nil {
				rejected = append(rejected, fmt.Errorf("product %d: %w", p.ID, err))
				continue
			}
		}
		valid = append(valid, p)
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		for i := range valid {
			if err := s.products.Upsert(ctx, &valid[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, rejected, fmt.Errorf("failed to import products: %w", err)
	}

	s.InvalidateCache(ctx)

	return len(valid), rejected, nil
}

func (s *CatalogService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProducts(ctx); err != nil {
		s.logger.Warnw("failed to invalidate product cache", "error", err)
	}
}

func (s *CatalogService) cachedList(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, bool) {
	if s.cache == nil {
		return nil, false
	}

	products, err := s.cache.GetProducts(ctx, filter)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warnw("product cache read failed", "category", filter.Category, "error", err)
		}
		return nil, false
	}
	return products, true
}
