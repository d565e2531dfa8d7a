package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"thriftbazaar/internal/domain"
	applog "thriftbazaar/internal/log"
	"thriftbazaar/internal/pricing"
	"thriftbazaar/internal/services"
	"thriftbazaar/internal/validate"
)

type CartHandler struct {
	Cart    *services.CartService
	Catalog *services.CatalogService
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	sess := sessionOf(c)
	items, err := h.Cart.Items(c.UserContext(), sess)
	if err != nil {
		applog.Error(c, "cart.load", err, nil)
		return err
	}
	q, _ := pricing.Compute(items, "")
	return render(c, "cart", fiber.Map{"Items": items, "Quote": q})
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	sess := sessionOf(c)
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "productId"})
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	qty := validate.Qty(c.FormValue("qty"))
	p := h.Catalog.Get(c.UserContext(), productID)
	if _, err := h.Cart.AddItem(c.UserContext(), sess, p, qty); err != nil {
		applog.Error(c, "cart.add", err, map[string]any{"product_id": productID})
		return err
	}
	applog.Info(c, "cart.add", map[string]any{"product_id": productID, "qty": qty})
	if c.FormValue("buyNow") != "" {
		return c.Redirect("/checkout")
	}
	return c.Redirect("/cart")
}

// Update sets a line's quantity; zero or less removes the line.
func (h *CartHandler) Update(c *fiber.Ctx) error {
	sess := sessionOf(c)
	lineID := strings.TrimSpace(c.FormValue("lineId"))
	qty, err := strconv.Atoi(strings.TrimSpace(c.FormValue("qty")))
	if err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "qty"})
		return c.Redirect("/cart")
	}
	if qty < 1 {
		_, err = h.Cart.RemoveItem(c.UserContext(), sess, lineID)
	} else {
		_, err = h.Cart.UpdateQuantity(c.UserContext(), sess, lineID, qty)
	}
	if err != nil && !errors.Is(err, domain.ErrInvalidQuantity) {
		applog.Error(c, "cart.update", err, map[string]any{"line_id": lineID})
		return err
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sess := sessionOf(c)
	lineID := strings.TrimSpace(c.FormValue("lineId"))
	if _, err := h.Cart.RemoveItem(c.UserContext(), sess, lineID); err != nil {
		applog.Error(c, "cart.remove", err, map[string]any{"line_id": lineID})
		return err
	}
	return c.Redirect("/cart")
}
