package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "thriftbazaar/internal/log"
)

// Register mounts every storefront route on app. Session must already be
// installed as middleware.
func Register(app *fiber.App, d *Deps) {
	// Public pages
	app.Get("/", d.CatalogHandler.Home)
	app.Get("/shop", d.CatalogHandler.Shop)
	app.Get("/about", d.CatalogHandler.About)
	app.Get("/product", func(c *fiber.Ctx) error { return notFound(c, "This item is no longer available") })
	app.Get("/product/:id", d.ProductHandler.Detail)
	app.Get("/contact-seller/:sellerId", d.ContactHandler.Page)
	app.Post("/contact-seller/:sellerId", d.ContactHandler.Send)

	// Auth routes (login throttled; the form and the API share one budget)
	loginLimit := limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", map[string]any{"path": c.Path()})
			if isAPI(c) {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
			}
			return c.Status(fiber.StatusTooManyRequests).Render("login", withSessionData(c, fiber.Map{"Err": "Too many attempts. Please try again later."}))
		},
	})
	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", loginLimit, d.AuthHandler.Login)
	app.Get("/register", d.AuthHandler.RegisterForm)
	app.Post("/register", d.AuthHandler.Register)
	app.Post("/logout", d.AuthHandler.Logout)

	// Cart, checkout and orders
	app.Get("/cart", d.CartHandler.View)
	app.Post("/cart/add", RequireLogin, d.CartHandler.Add)
	app.Post("/cart/update", RequireLogin, d.CartHandler.Update)
	app.Post("/cart/remove", RequireLogin, d.CartHandler.Remove)
	app.Get("/checkout", RequireLogin, d.OrderHandler.Checkout)
	app.Post("/checkout", RequireLogin, d.OrderHandler.Place)
	app.Get("/payment", RequireLogin, d.OrderHandler.PaymentForm)
	app.Post("/payment", RequireLogin, d.OrderHandler.Pay)
	app.Get("/orders", RequireLogin, d.OrderHandler.History)
	app.Post("/orders/:id/status", RequireLogin, d.OrderHandler.UpdateStatus)
	app.Post("/orders/:id/cancel", RequireLogin, d.OrderHandler.Cancel)

	// Seller dashboard
	for _, prefix := range []string{"/dashboard", "/vendor/dashboard"} {
		g := app.Group(prefix, RequireVendor)
		g.Get("/", d.VendorHandler.Dashboard)
		g.Post("/products", d.VendorHandler.Create)
		g.Post("/products/:id", d.VendorHandler.Update)
		g.Post("/products/:id/delete", d.VendorHandler.Delete)
		g.Post("/upload", d.VendorHandler.Upload)
		g.Post("/profile", d.VendorHandler.UpdateProfile)
	}

	// API
	api := app.Group("/api/v1")
	api.Post("/login", loginLimit, d.APIHandler.Login)
	api.Post("/logout", d.APIHandler.Logout)
	api.Get("/me", d.APIHandler.Me)
	api.Get("/cart", RequireLogin, d.APIHandler.GetCart)
	api.Post("/cart/items", RequireLogin, d.APIHandler.AddItem)
	api.Patch("/cart/items/:lineId", RequireLogin, d.APIHandler.UpdateItem)
	api.Delete("/cart/items/:lineId", RequireLogin, d.APIHandler.RemoveItem)
	api.Post("/checkout/quote", RequireLogin, d.APIHandler.Quote)
	api.Post("/orders", RequireLogin, d.APIHandler.PlaceOrder)
	api.Get("/orders", RequireLogin, d.APIHandler.ListOrders)
	api.Get("/orders/:id", RequireLogin, d.APIHandler.GetOrder)
	api.Post("/orders/:id/status", RequireLogin, d.APIHandler.UpdateStatus)
	api.Post("/orders/:id/cancel", RequireLogin, d.APIHandler.CancelOrder)
	api.Post("/payments", RequireLogin, d.APIHandler.Pay)
	api.Get("/payments", RequireLogin, d.APIHandler.ListPayments)
	api.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	// Health & catch-all
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet {
			return c.Redirect("/")
		}
		return notFound(c, "Page not found")
	})
}
