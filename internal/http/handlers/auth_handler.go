package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"thriftbazaar/internal/domain"
	"thriftbazaar/internal/log"
	"thriftbazaar/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	if sessionOf(c).LoggedIn {
		return c.Redirect("/")
	}
	return render(c, "login", fiber.Map{
		"Err":        "",
		"Next":       c.Query("next"),
		"Registered": c.Query("registered") != "",
	})
}

func loginErrMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingField):
		_, msg := formErr(err)
		return msg
	case errors.Is(err, domain.ErrUnavailable):
		return "Login is unavailable right now. Please try again shortly."
	}
	return "Invalid email or password"
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c)
	email := strings.TrimSpace(c.FormValue("email"))
	next := c.FormValue("next")

	sess, err := h.Auth.Login(c.UserContext(), sid, email, c.FormValue("password"))
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": err.Error()})
		return c.Status(statusOf(err)).Render("login", withSessionData(c, fiber.Map{
			"Err":   loginErrMessage(err),
			"Email": email,
			"Next":  next,
		}))
	}
	c.Locals("session", sess)
	c.Locals("user_id", sess.UserID)
	log.Audit(c, "auth.login.success", map[string]any{"email": email, "role": string(sess.Role)})

	def := "/"
	if sess.IsVendor() {
		def = "/dashboard"
	}
	return c.Redirect(safeNext(next, def))
}

func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	return render(c, "register", fiber.Map{"Form": domain.VendorRegistration{}})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	sid := ensureSID(c)
	reg := domain.VendorRegistration{
		Vendor: domain.Vendor{
			Name:        strings.TrimSpace(c.FormValue("name")),
			Email:       strings.TrimSpace(c.FormValue("email")),
			ShopName:    strings.TrimSpace(c.FormValue("shopName")),
			Phone:       strings.TrimSpace(c.FormValue("phone")),
			Address:     strings.TrimSpace(c.FormValue("address")),
			Description: strings.TrimSpace(c.FormValue("description")),
		},
		Password: c.FormValue("password"),
	}
	sess, err := h.Auth.RegisterVendor(c.UserContext(), sid, reg, c.FormValue("confirmPassword"))
	if err != nil {
		field, msg := formErr(err)
		log.Security(c, "auth.register.fail", map[string]any{"email": reg.Email, "field": field, "reason": err.Error()})
		reg.Password = ""
		return c.Status(statusOf(err)).Render("register", withSessionData(c, fiber.Map{
			"Err":   msg,
			"Field": field,
			"Form":  reg,
		}))
	}
	log.Audit(c, "auth.register.success", map[string]any{"email": reg.Email, "shop": reg.ShopName})
	if !sess.LoggedIn {
		return c.Redirect("/login?registered=1")
	}
	c.Locals("session", sess)
	return c.Redirect("/dashboard")
}

// Logout forgets the token. The namespace cookie stays so the visitor's
// order history and anonymous cart survive, as they would in the browser.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	sess, err := h.Auth.Logout(c.UserContext(), sid)
	if err != nil {
		log.Error(c, "auth.logout", err, nil)
		return err
	}
	c.Locals("session", sess)
	log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/")
}
