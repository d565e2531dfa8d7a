package handlers

import (
	"github.com/gofiber/fiber/v2"

	"thriftbazaar/internal/domain"
	applog "thriftbazaar/internal/log"
	"thriftbazaar/internal/services"
	"thriftbazaar/internal/validate"
)

type ContactHandler struct {
	Contact *services.ContactService
	Catalog *services.CatalogService
}

// seller resolves the page header: the seller's name and, when the visitor
// came from a listing, that product.
func (h *ContactHandler) seller(c *fiber.Ctx, sellerID string) (string, *domain.Product) {
	var fallback string
	var prod *domain.Product
	if pid, ok := validate.ID(c.Query("product")); ok {
		p := h.Catalog.Get(c.UserContext(), pid)
		prod = &p
		fallback = p.Seller
	}
	return services.SellerName(sellerID, fallback), prod
}

func (h *ContactHandler) Page(c *fiber.Ctx) error {
	sellerID, ok := validate.ID(c.Params("sellerId"))
	if !ok {
		return notFound(c, "Seller not found")
	}
	name, prod := h.seller(c, sellerID)
	sess := sessionOf(c)
	var thread []domain.Message
	if sess.ID != "" {
		var err error
		if thread, err = h.Contact.Thread(c.UserContext(), sess.ID, sellerID); err != nil {
			applog.Error(c, "contact.load", err, map[string]any{"seller_id": sellerID})
			return err
		}
	}
	return render(c, "contact", fiber.Map{
		"SellerID":   sellerID,
		"SellerName": name,
		"Product":    prod,
		"Thread":     thread,
		"Form":       domain.Message{Name: sess.Name, Email: sess.Email},
	})
}

func (h *ContactHandler) Send(c *fiber.Ctx) error {
	sellerID, ok := validate.ID(c.Params("sellerId"))
	if !ok {
		return notFound(c, "Seller not found")
	}
	sid := ensureSID(c)
	name, prod := h.seller(c, sellerID)
	m := domain.Message{Name: c.FormValue("name"), Email: c.FormValue("email"), Text: c.FormValue("message")}
	thread, err := h.Contact.Send(c.UserContext(), sid, sellerID, name, m)
	if err != nil {
		_, msg := formErr(err)
		if statusOf(err) >= fiber.StatusInternalServerError {
			applog.Error(c, "contact.send", err, map[string]any{"seller_id": sellerID})
			return err
		}
		thread, _ = h.Contact.Thread(c.UserContext(), sid, sellerID)
		return c.Status(statusOf(err)).Render("contact", withSessionData(c, fiber.Map{
			"SellerID": sellerID, "SellerName": name, "Product": prod,
			"Thread": thread, "Form": m, "Err": msg,
		}))
	}
	applog.Info(c, "contact.send", map[string]any{"seller_id": sellerID})
	return render(c, "contact", fiber.Map{
		"SellerID": sellerID, "SellerName": name, "Product": prod,
		"Thread": thread, "Form": domain.Message{Name: m.Name, Email: m.Email}, "Sent": true,
	})
}
