package handlers

import (
	"github.com/gofiber/fiber/v2"

	"thriftbazaar/internal/services"
	"thriftbazaar/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "This item is no longer available")
	}
	p := h.Catalog.Get(c.UserContext(), id)
	return render(c, "product", fiber.Map{"Product": p, "Seller": services.SellerName(p.VendorID, p.Seller)})
}
