package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"thriftbazaar/internal/domain"
	"thriftbazaar/internal/log"
	"thriftbazaar/internal/services"
	"thriftbazaar/internal/validate"
)

// CatalogHandler serves the browse pages: home, shop and about.
type CatalogHandler struct {
	Catalog *services.CatalogService
}

func (h *CatalogHandler) Home(c *fiber.Ctx) error {
	return render(c, "home", fiber.Map{
		"Products":   h.Catalog.Featured(c.UserContext()),
		"Categories": domain.Categories,
	})
}

// filterFromQuery reads the shop filters. Malformed values are dropped
// rather than rejected.
func filterFromQuery(c *fiber.Ctx) domain.ProductFilter {
	var f domain.ProductFilter
	if cat := domain.Category(strings.ToUpper(strings.TrimSpace(c.Query("category")))); cat.Valid() {
		f.Category = cat
	}
	if cond, ok := domain.ParseCondition(c.Query("condition")); ok {
		f.Condition = cond
	}
	if q, ok := validate.Q(c.Query("q")); ok {
		f.Search = q
	}
	if p, ok := validate.Price(c.Query("minPrice")); ok {
		f.MinPrice = decimal.NewNullDecimal(p)
	}
	if p, ok := validate.Price(c.Query("maxPrice")); ok {
		f.MaxPrice = decimal.NewNullDecimal(p)
	}
	return f
}

func (h *CatalogHandler) Shop(c *fiber.Ctx) error {
	f := filterFromQuery(c)
	if raw := c.Query("q"); raw != "" && f.Search == "" {
		log.Security(c, "validation.fail", map[string]any{"field": "q"})
	}
	products, live := h.Catalog.List(c.UserContext(), f)
	return render(c, "shop", fiber.Map{
		"Products":   products,
		"Live":       live,
		"Filter":     f,
		"Categories": domain.Categories,
		"Conditions": []domain.Condition{domain.ConditionExcellent, domain.ConditionGood, domain.ConditionFair},
	})
}

func (h *CatalogHandler) About(c *fiber.Ctx) error {
	return render(c, "about", nil)
}
