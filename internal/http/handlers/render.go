package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"thriftbazaar/internal/domain"
)

// withSessionData adds what every layout needs: the session, the cart badge
// and the CSRF token.
func withSessionData(c *fiber.Ctx, data fiber.Map) fiber.Map {
	if data == nil {
		data = fiber.Map{}
	}
	data["Session"] = sessionOf(c)
	if n, ok := c.Locals("cart_count").(int); ok {
		data["CartCount"] = n
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return data
}

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	return c.Render(tmpl, withSessionData(c, data))
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", withSessionData(c, fiber.Map{"Message": msg}))
}

// formErr turns err into the message shown next to a form, plus the name of
// the offending field when known.
func formErr(err error) (field, msg string) {
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		return fe.Field, fe.Msg
	}
	return "", publicMessage(err)
}
