package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"thriftbazaar/internal/domain"
	applog "thriftbazaar/internal/log"
)

// CatalogAPI is the public product surface of the market API.
type CatalogAPI interface {
	ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}

// CatalogService never fails a browse: when the API is unreachable the
// static samples are served instead.
type CatalogService struct {
	API CatalogAPI

	group singleflight.Group
}

func NewCatalogService(api CatalogAPI) *CatalogService {
	return &CatalogService{API: api}
}

func filterKey(f domain.ProductFilter) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", f.Category, f.Condition, strings.ToLower(f.Search), f.MinPrice.Decimal.String(), f.MaxPrice.Decimal.String())
}

// List returns products matching f. live is false when the samples were
// used.
func (s *CatalogService) List(ctx context.Context, f domain.ProductFilter) (products []domain.Product, live bool) {
	// the flight is shared, so one caller going away must not fail the rest;
	// the market client bounds the call with its own timeout
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(filterKey(f), func() (any, error) {
		return s.API.ListProducts(flightCtx, f)
	})
	if err != nil {
		applog.Error(nil, "catalog.fallback", err, map[string]any{"op": "list"})
		return filterProducts(sampleProducts, f), false
	}
	list := v.([]domain.Product)
	// the API filters by category and price only
	return filterProducts(list, domain.ProductFilter{Condition: f.Condition, Search: f.Search}), true
}

// Featured is the home page selection: up to four live products followed
// by four samples.
func (s *CatalogService) Featured(ctx context.Context) []domain.Product {
	list, live := s.List(ctx, domain.ProductFilter{})
	if !live || len(list) == 0 {
		return append([]domain.Product(nil), sampleProducts...)
	}
	if len(list) > 4 {
		list = list[:4]
	}
	out := make([]domain.Product, 0, len(list)+4)
	out = append(out, list...)
	return append(out, sampleProducts[:4]...)
}

// Get fetches one product, falling back to the matching sample or a
// generic placeholder. The result always carries at least three images.
func (s *CatalogService) Get(ctx context.Context, id string) domain.Product {
	p, err := s.API.GetProduct(ctx, id)
	if err != nil {
		applog.Error(nil, "catalog.fallback", err, map[string]any{"op": "get", "product_id": id})
		p = genericSample(id)
		for _, sp := range sampleProducts {
			if sp.ID == id {
				p = sp
				break
			}
		}
	}
	return normalizeProduct(p)
}

// SellerName resolves a display name for the contact page.
func SellerName(sellerID, fallback string) string {
	if n, ok := knownSellers[sellerID]; ok {
		return n
	}
	if fallback != "" {
		return fallback
	}
	return "Unknown Seller"
}

func normalizeProduct(p domain.Product) domain.Product {
	imgs := make([]string, 0, 3)
	for _, im := range p.Images {
		if strings.TrimSpace(im) != "" {
			imgs = append(imgs, im)
		}
	}
	if len(imgs) == 0 {
		imgs = append(imgs, placeholderImage)
	}
	for len(imgs) < 3 {
		imgs = append(imgs, imgs[0])
	}
	p.Images = imgs
	if p.Name == "" {
		p.Name = "Product"
	}
	if p.Condition == "" {
		p.Condition = domain.ConditionGood
	}
	if p.Seller == "" {
		p.Seller = "ThriftBazaar Seller"
	}
	return p
}

func filterProducts(in []domain.Product, f domain.ProductFilter) []domain.Product {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]domain.Product, 0, len(in))
	for _, p := range in {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Condition != "" && p.Condition != f.Condition {
			continue
		}
		if f.MinPrice.Valid && p.Price.LessThan(f.MinPrice.Decimal) {
			continue
		}
		if f.MaxPrice.Valid && p.Price.GreaterThan(f.MaxPrice.Decimal) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}
