package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"neurocart/internal/cache"
	"neurocart/internal/domain"
	applog "neurocart/internal/log"
	"neurocart/internal/repos"
)

// ProductsListKey caches the unfiltered product listing.
const ProductsListKey = "products_list"

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
	Cache cache.Cache
	TTL   time.Duration
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, c cache.Cache, ttl time.Duration) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Cache: c, TTL: ttl}
}

type ProductInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Price       string `json:"price" validate:"required,money"`
	Quantity    int    `json:"quantity" validate:"gte=0"`
	Category    string `json:"category" validate:"required,category"`
	Description string `json:"description" validate:"max=5000"`
}

func (in ProductInput) product(id string) (domain.Product, error) {
	price, err := decimal.NewFromString(in.Price)
	if err != nil {
		return domain.Product{}, domain.ErrInvalid
	}
	return domain.Product{
		ID: id, Name: in.Name, Price: price, Quantity: in.Quantity,
		Category: domain.Category(in.Category), Description: in.Description,
	}, nil
}

// ListProducts serves the unfiltered list from cache; filtered queries always hit the store.
// A broken cache degrades to the store rather than failing the request.
func (s *CatalogService) ListProducts(ctx context.Context, f repos.ProductFilter) ([]domain.Product, error) {
	cacheable := f.Category == "" && f.Query == "" && s.Cache != nil
	if cacheable {
		b, ok, err := s.Cache.Get(ctx, ProductsListKey)
		if err != nil {
			applog.Error(nil, "cache.get.fail", err, map[string]any{"key": ProductsListKey})
		}
		if ok {
			var out []domain.Product
			if json.Unmarshal(b, &out) == nil {
				return out, nil
			}
		}
	}

	out, err := s.Prods.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if b, err := json.Marshal(out); err == nil {
			if err := s.Cache.Set(ctx, ProductsListKey, b, s.TTL); err != nil {
				applog.Error(nil, "cache.set.fail", err, map[string]any{"key": ProductsListKey})
			}
		}
	}
	return out, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.Prods.Get(ctx, id)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]repos.CategoryCount, error) {
	return s.Cats.Counts(ctx)
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	p, err := in.product(uuid.NewString())
	if err != nil {
		return p, err
	}
	if err := s.Prods.Create(ctx, p); err != nil {
		return p, err
	}
	s.Invalidate(ctx)
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (domain.Product, error) {
	p, err := in.product(id)
	if err != nil {
		return p, err
	}
	if err := s.Prods.Update(ctx, p); err != nil {
		return p, err
	}
	s.Invalidate(ctx)
	return s.Prods.Get(ctx, id)
}

// Invalidate drops the cached listing. Called after every committed product write.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, ProductsListKey); err != nil {
		applog.Error(nil, "cache.invalidate.fail", err, map[string]any{"key": ProductsListKey})
	}
}
