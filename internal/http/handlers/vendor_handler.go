package handlers

import (
	"io"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"thriftbazaar/internal/domain"
	applog "thriftbazaar/internal/log"
	"thriftbazaar/internal/services"
	"thriftbazaar/internal/validate"
)

const maxUploadBytes = 5 << 20

// VendorHandler serves the seller dashboard.
type VendorHandler struct {
	Vendor *services.VendorService
}

func (h *VendorHandler) dashboard(c *fiber.Ctx, status int, extra fiber.Map) error {
	sess := sessionOf(c)
	data := fiber.Map{
		"Categories": domain.Categories,
		"Conditions": []domain.Condition{domain.ConditionExcellent, domain.ConditionGood, domain.ConditionFair},
		"Uploaded":   c.Query("uploaded"),
	}
	for k, v := range extra {
		data[k] = v
	}
	products, err := h.Vendor.MyProducts(c.UserContext(), sess)
	if err != nil {
		applog.Error(c, "vendor.products.load", err, nil)
		data["LoadErr"] = publicMessage(err)
	}
	data["Products"] = products
	if v, err := h.Vendor.Profile(c.UserContext(), sess); err == nil {
		data["Vendor"] = v
	} else {
		applog.Error(c, "vendor.profile.load", err, nil)
	}
	return c.Status(status).Render("dashboard", withSessionData(c, data))
}

func (h *VendorHandler) Dashboard(c *fiber.Ctx) error {
	return h.dashboard(c, fiber.StatusOK, nil)
}

// productFromForm reads a listing. Images come one URL per line, plus an
// optional uploaded file.
func (h *VendorHandler) productFromForm(c *fiber.Ctx) (domain.Product, error) {
	f := func(k string) string { return strings.TrimSpace(c.FormValue(k)) }
	p := domain.Product{
		Name:        f("name"),
		Description: f("description"),
		Category:    domain.Category(strings.ToUpper(f("category"))),
		Size:        f("size"),
		Color:       f("color"),
		Material:    f("material"),
	}
	if price, ok := validate.Price(f("price")); ok {
		p.Price = price
	} else {
		p.Price = decimal.Zero
	}
	if cond, ok := domain.ParseCondition(f("condition")); ok {
		p.Condition = cond
	} else {
		p.Condition = domain.Condition(f("condition"))
	}
	for _, line := range strings.Split(c.FormValue("images"), "\n") {
		if u := strings.TrimSpace(line); u != "" {
			p.Images = append(p.Images, u)
		}
	}
	fh, err := c.FormFile("image")
	if err != nil || fh == nil || fh.Size == 0 {
		return p, nil
	}
	link, err := h.upload(c, fh)
	if err != nil {
		return p, err
	}
	p.Images = append(p.Images, link)
	return p, nil
}

func (h *VendorHandler) upload(c *fiber.Ctx, fh *multipart.FileHeader) (string, error) {
	if fh.Size > maxUploadBytes {
		return "", domain.NewFieldError("images", domain.ErrInvalidInput, "image must be 5 MB or smaller")
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	link, err := h.Vendor.UploadImage(c.UserContext(), sessionOf(c), fh.Filename, data)
	if err == nil {
		applog.Audit(c, "vendor.upload", map[string]any{"file": fh.Filename, "url": link})
	}
	return link, err
}

func (h *VendorHandler) fail(c *fiber.Ctx, action string, err error, extra fiber.Map) error {
	if statusOf(err) >= fiber.StatusInternalServerError {
		applog.Error(c, action, err, nil)
		return err
	}
	field, msg := formErr(err)
	applog.Security(c, action, map[string]any{"field": field, "reason": err.Error()})
	if extra == nil {
		extra = fiber.Map{}
	}
	extra["Err"] = msg
	extra["Field"] = field
	return h.dashboard(c, statusOf(err), extra)
}

func (h *VendorHandler) Create(c *fiber.Ctx) error {
	p, err := h.productFromForm(c)
	if err == nil {
		p, err = h.Vendor.Create(c.UserContext(), sessionOf(c), p)
	}
	if err != nil {
		return h.fail(c, "vendor.product.create.fail", err, fiber.Map{"Draft": p})
	}
	applog.Audit(c, "vendor.product.create", map[string]any{"product_id": p.ID})
	return c.Redirect("/dashboard")
}

func (h *VendorHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Listing not found")
	}
	p, err := h.productFromForm(c)
	if err == nil {
		p.ID = id
		p, err = h.Vendor.Update(c.UserContext(), sessionOf(c), id, p)
	}
	if err != nil {
		return h.fail(c, "vendor.product.update.fail", err, fiber.Map{"EditID": id})
	}
	applog.Audit(c, "vendor.product.update", map[string]any{"product_id": id})
	return c.Redirect("/dashboard")
}

func (h *VendorHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Listing not found")
	}
	if err := h.Vendor.Delete(c.UserContext(), sessionOf(c), id); err != nil {
		return h.fail(c, "vendor.product.delete.fail", err, nil)
	}
	applog.Audit(c, "vendor.product.delete", map[string]any{"product_id": id})
	return c.Redirect("/dashboard")
}

// Upload hosts a picture and returns to the dashboard with its URL, ready
// to paste into a listing.
func (h *VendorHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return h.fail(c, "vendor.upload.fail", domain.NewFieldError("images", domain.ErrMissingField, "choose an image to upload"), nil)
	}
	link, err := h.upload(c, fh)
	if err != nil {
		return h.fail(c, "vendor.upload.fail", err, nil)
	}
	return c.Redirect("/dashboard?uploaded=" + url.QueryEscape(link))
}

func (h *VendorHandler) UpdateProfile(c *fiber.Ctx) error {
	f := func(k string) string { return strings.TrimSpace(c.FormValue(k)) }
	v := domain.Vendor{
		Name:        f("name"),
		ShopName:    f("shopName"),
		Phone:       f("phone"),
		Address:     f("address"),
		Description: f("description"),
	}
	if _, err := h.Vendor.UpdateProfile(c.UserContext(), sessionOf(c), v); err != nil {
		return h.fail(c, "vendor.profile.update.fail", err, nil)
	}
	applog.Audit(c, "vendor.profile.update", nil)
	return c.Redirect("/dashboard")
}
