package marketapi

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"thriftbazaar/internal/domain"
	applog "thriftbazaar/internal/log"
	"thriftbazaar/internal/services"
	"thriftbazaar/internal/validate"
)

const (
	roleVendor   = string(domain.RoleVendor)
	roleCustomer = string(domain.RoleCustomer)
)

var allowedImageExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

type Server struct {
	Users    *UserRepo
	Products *ProductRepo
	Tokens   *Tokens
	MediaDir string
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"message": msg})
}

func failErr(c *fiber.Ctx, action string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrEmailTaken):
		return fail(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidProduct), errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrMissingField):
		var fe *domain.FieldError
		if errors.As(err, &fe) {
			return fail(c, fiber.StatusBadRequest, fe.Msg)
		}
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	applog.Error(c, action, err, nil)
	return fail(c, fiber.StatusInternalServerError, "internal error")
}

// App wires the REST routes under /api and the uploaded media under /media.
// Extra middleware runs before every route.
func (s *Server) App(middleware ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 8 << 20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			applog.Error(c, "marketapi.error", err, nil)
			return fail(c, code, "request failed")
		},
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	for _, mw := range middleware {
		app.Use(mw)
	}

	api := app.Group("/api")
	api.Get("/products", s.listProducts)
	api.Get("/products/my", s.auth, s.vendorOnly, s.myProducts)
	api.Get("/products/:id", s.getProduct)
	api.Post("/products", s.auth, s.vendorOnly, s.createProduct)
	api.Put("/products/:id", s.auth, s.vendorOnly, s.updateProduct)
	api.Delete("/products/:id", s.auth, s.vendorOnly, s.deleteProduct)

	api.Post("/users/login", limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return fail(c, fiber.StatusTooManyRequests, "too many attempts")
		},
	}), s.login)
	api.Post("/users/register", s.registerCustomer)
	api.Post("/vendors/register", s.registerVendor)
	api.Get("/vendors/me", s.auth, s.me)
	api.Put("/vendors/me", s.auth, s.updateMe)
	api.Post("/upload", s.auth, s.upload)

	app.Static("/media", s.MediaDir)
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	return app
}

func (s *Server) cost() int {
	if s.BcryptCost == 0 {
		return bcrypt.DefaultCost
	}
	return s.BcryptCost
}

func claimsOf(c *fiber.Ctx) *Claims {
	cl, _ := c.Locals("claims").(*Claims)
	return cl
}

func (s *Server) auth(c *fiber.Ctx) error {
	h := c.Get(fiber.HeaderAuthorization)
	raw, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || raw == "" {
		return fail(c, fiber.StatusUnauthorized, "missing bearer token")
	}
	cl, err := s.Tokens.Parse(strings.TrimSpace(raw))
	if err != nil {
		applog.Security(c, "marketapi.token.invalid", nil)
		return fail(c, fiber.StatusUnauthorized, "invalid token")
	}
	c.Locals("claims", cl)
	c.Locals("user_id", cl.Subject)
	return c.Next()
}

func (s *Server) vendorOnly(c *fiber.Ctx) error {
	if cl := claimsOf(c); cl == nil || cl.Role != roleVendor {
		applog.Security(c, "access.denied.vendor", nil)
		return fail(c, fiber.StatusForbidden, "vendor account required")
	}
	return c.Next()
}

func filterFrom(c *fiber.Ctx) domain.ProductFilter {
	var f domain.ProductFilter
	if cat := domain.Category(strings.ToUpper(c.Query("category"))); cat.Valid() {
		f.Category = cat
	}
	if cond, ok := domain.ParseCondition(c.Query("condition")); ok {
		f.Condition = cond
	}
	if p, ok := validate.Price(c.Query("minPrice")); ok {
		f.MinPrice = decimal.NewNullDecimal(p)
	}
	if p, ok := validate.Price(c.Query("maxPrice")); ok {
		f.MaxPrice = decimal.NewNullDecimal(p)
	}
	return f
}

func (s *Server) listProducts(c *fiber.Ctx) error {
	ps, err := s.Products.List(filterFrom(c))
	if err != nil {
		return failErr(c, "marketapi.products.list", err)
	}
	return c.JSON(ps)
}

func (s *Server) getProduct(c *fiber.Ctx) error {
	p, err := s.Products.Get(c.Params("id"))
	if err != nil {
		return failErr(c, "marketapi.products.get", err)
	}
	return c.JSON(p)
}

func (s *Server) myProducts(c *fiber.Ctx) error {
	ps, err := s.Products.ByVendor(claimsOf(c).Subject)
	if err != nil {
		return failErr(c, "marketapi.products.mine", err)
	}
	return c.JSON(ps)
}

// listingFromBody applies the same rules as the dashboard form.
func listingFromBody(c *fiber.Ctx, minImages int) (domain.Product, error) {
	var p domain.Product
	if err := c.BodyParser(&p); err != nil {
		return p, domain.ErrInvalidInput
	}
	if cond, ok := domain.ParseCondition(string(p.Condition)); ok {
		p.Condition = cond
	}
	p.Category = domain.Category(strings.ToUpper(string(p.Category)))
	return p, services.ValidateListing(p, minImages)
}

func (s *Server) createProduct(c *fiber.Ctx) error {
	p, err := listingFromBody(c, 1)
	if err != nil {
		return failErr(c, "marketapi.products.create", err)
	}
	p.ID = uuid.NewString()
	p.VendorID = claimsOf(c).Subject
	if err := s.Products.Create(p); err != nil {
		return failErr(c, "marketapi.products.create", err)
	}
	applog.Audit(c, "marketapi.products.create", map[string]any{"product_id": p.ID})
	created, err := s.Products.Get(p.ID)
	if err != nil {
		return failErr(c, "marketapi.products.create", err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// owned loads product id and checks the caller owns it.
func (s *Server) owned(c *fiber.Ctx) (domain.Product, error) {
	cur, err := s.Products.Get(c.Params("id"))
	if err != nil {
		return cur, err
	}
	if cur.VendorID != claimsOf(c).Subject {
		applog.Security(c, "access.denied.product", map[string]any{"product_id": cur.ID})
		return cur, domain.ErrForbidden
	}
	return cur, nil
}

func (s *Server) updateProduct(c *fiber.Ctx) error {
	cur, err := s.owned(c)
	if errors.Is(err, domain.ErrForbidden) {
		return fail(c, fiber.StatusForbidden, "not your listing")
	}
	if err != nil {
		return failErr(c, "marketapi.products.update", err)
	}
	p, err := listingFromBody(c, 3)
	if err != nil {
		return failErr(c, "marketapi.products.update", err)
	}
	p.ID, p.VendorID = cur.ID, cur.VendorID
	if err := s.Products.Update(p); err != nil {
		return failErr(c, "marketapi.products.update", err)
	}
	applog.Audit(c, "marketapi.products.update", map[string]any{"product_id": p.ID})
	updated, err := s.Products.Get(p.ID)
	if err != nil {
		return failErr(c, "marketapi.products.update", err)
	}
	return c.JSON(updated)
}

func (s *Server) deleteProduct(c *fiber.Ctx) error {
	cur, err := s.owned(c)
	if errors.Is(err, domain.ErrForbidden) {
		return fail(c, fiber.StatusForbidden, "not your listing")
	}
	if err != nil {
		return failErr(c, "marketapi.products.delete", err)
	}
	if err := s.Products.Delete(cur.ID); err != nil {
		return failErr(c, "marketapi.products.delete", err)
	}
	applog.Audit(c, "marketapi.products.delete", map[string]any{"product_id": cur.ID})
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) login(c *fiber.Ctx) error {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	u, err := s.Users.ByEmail(strings.TrimSpace(in.Email))
	if err != nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return failErr(c, "marketapi.login", err)
		}
		applog.Security(c, "marketapi.login.fail", map[string]any{"email": in.Email})
		return fail(c, fiber.StatusUnauthorized, "invalid email or password")
	}
	tok, err := s.Tokens.Issue(u)
	if err != nil {
		return failErr(c, "marketapi.login", err)
	}
	applog.Audit(c, "marketapi.login.success", map[string]any{"user_id": u.ID})
	return c.JSON(fiber.Map{"token": tok})
}

func (s *Server) register(c *fiber.Ctx, role string) error {
	var in domain.VendorRegistration
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "email is invalid")
	}
	name, ok := validate.Name(in.Name)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "name is required")
	}
	if !validate.Password(in.Password) {
		return fail(c, fiber.StatusBadRequest, "password must be at least 6 characters")
	}
	if role == roleVendor && strings.TrimSpace(in.ShopName) == "" {
		return fail(c, fiber.StatusBadRequest, "shop name is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost())
	if err != nil {
		return failErr(c, "marketapi.register", err)
	}
	u := userRow{
		ID: uuid.NewString(), Email: email, Name: name, PasswordHash: string(hash), Role: role,
		ShopName: strings.TrimSpace(in.ShopName), Phone: in.Phone, Address: in.Address, Description: in.Description,
	}
	if err := s.Users.Create(u); err != nil {
		return failErr(c, "marketapi.register", err)
	}
	tok, err := s.Tokens.Issue(u)
	if err != nil {
		return failErr(c, "marketapi.register", err)
	}
	applog.Audit(c, "marketapi.register", map[string]any{"user_id": u.ID, "role": role})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"token": tok})
}

func (s *Server) registerVendor(c *fiber.Ctx) error   { return s.register(c, roleVendor) }
func (s *Server) registerCustomer(c *fiber.Ctx) error { return s.register(c, roleCustomer) }

func (s *Server) me(c *fiber.Ctx) error {
	u, err := s.Users.ByID(claimsOf(c).Subject)
	if err != nil {
		return failErr(c, "marketapi.me", err)
	}
	return c.JSON(u.vendor())
}

func (s *Server) updateMe(c *fiber.Ctx) error {
	var v domain.Vendor
	if err := c.BodyParser(&v); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	id := claimsOf(c).Subject
	cur, err := s.Users.ByID(id)
	if err != nil {
		return failErr(c, "marketapi.me.update", err)
	}
	if strings.TrimSpace(v.Name) == "" {
		v.Name = cur.Name
	}
	if err := s.Users.UpdateProfile(id, v); err != nil {
		return failErr(c, "marketapi.me.update", err)
	}
	u, err := s.Users.ByID(id)
	if err != nil {
		return failErr(c, "marketapi.me.update", err)
	}
	return c.JSON(u.vendor())
}

// upload stores an image under MediaDir/uploads and answers with the public
// path, which the storefront also serves from the same directory.
func (s *Server) upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "file is required")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageExt[ext] {
		return fail(c, fiber.StatusBadRequest, "unsupported image type")
	}
	dir := filepath.Join(s.MediaDir, "uploads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return failErr(c, "marketapi.upload", err)
	}
	name := uuid.NewString() + ext
	if err := c.SaveFile(fh, filepath.Join(dir, name)); err != nil {
		return failErr(c, "marketapi.upload", err)
	}
	applog.Audit(c, "marketapi.upload", map[string]any{"file": name, "size": fh.Size})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": "/media/uploads/" + name})
}
