package handlers

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"thriftbazaar/internal/domain"
	applog "thriftbazaar/internal/log"
	"thriftbazaar/internal/services"
)

// ensureSID returns the storage namespace of this browser, issuing the
// cookie on first use.
func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		if s, ok := c.Locals("session").(domain.Session); ok && s.ID != "" {
			return s.ID
		}
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // enable true behind TLS
		})
		s, _ := c.Locals("session").(domain.Session)
		s.ID = sid
		c.Locals("session", s)
	}
	return sid
}

func sessionOf(c *fiber.Ctx) domain.Session {
	s, _ := c.Locals("session").(domain.Session)
	if s.ID == "" {
		s.ID = c.Cookies("sid")
	}
	return s
}

// Session resolves the visitor's session once per request and exposes it,
// together with the cart badge count, to handlers and templates.
func Session(auth *services.AuthService, cart *services.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		sess := domain.Session{ID: sid}
		if sid != "" {
			s, err := auth.Resolve(c.UserContext(), sid)
			if err != nil {
				applog.Error(c, "session.resolve", err, nil)
			} else {
				sess = s
			}
		}
		c.Locals("session", sess)
		if sess.UserID != "" {
			c.Locals("user_id", sess.UserID)
		}
		if cart != nil && sid != "" {
			c.Locals("cart_count", cart.Count(c.UserContext(), sess))
		}
		return c.Next()
	}
}

func isAPI(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/")
}

// RequireLogin sends anonymous visitors to the login page, or answers 401
// on the JSON API.
func RequireLogin(c *fiber.Ctx) error {
	if sessionOf(c).LoggedIn {
		return c.Next()
	}
	applog.Security(c, "access.denied.login", nil)
	if isAPI(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": domain.ErrNotLoggedIn.Error()})
	}
	return c.Redirect("/login?next=" + url.QueryEscape(c.OriginalURL()))
}

// RequireVendor hides seller pages from other roles. The role comes from an
// unverified token, so this only steers navigation; the market API checks
// ownership on every vendor call.
func RequireVendor(c *fiber.Ctx) error {
	sess := sessionOf(c)
	if !sess.LoggedIn {
		return RequireLogin(c)
	}
	if !sess.IsVendor() {
		applog.Security(c, "access.denied.vendor", map[string]any{"role": string(sess.Role)})
		return c.Status(fiber.StatusForbidden).Render("notfound", withSessionData(c, fiber.Map{
			"Message": "The seller dashboard is only available to vendor accounts.",
		}))
	}
	return c.Next()
}

// safeNext keeps post-login redirects on this site.
func safeNext(next, def string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return def
	}
	return next
}
