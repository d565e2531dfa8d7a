package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"thriftbazaar/internal/domain"
	applog "thriftbazaar/internal/log"
	"thriftbazaar/internal/pricing"
	"thriftbazaar/internal/services"
	"thriftbazaar/internal/validate"
)

// APIHandler is the JSON face of the lifecycle engine under /api/v1.
type APIHandler struct {
	Auth    *services.AuthService
	Cart    *services.CartService
	Catalog *services.CatalogService
	Order   *services.OrderService
	Payment *services.PaymentService
}

type quoteJSON struct {
	Subtotal string `json:"subtotal"`
	Coupon   string `json:"coupon,omitempty"`
	Discount string `json:"discount"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

func toQuoteJSON(q pricing.Quote) quoteJSON {
	return quoteJSON{
		Subtotal: q.Subtotal.String(),
		Coupon:   q.Coupon,
		Discount: q.Discount.String(),
		Tax:      q.Tax.String(),
		Total:    q.Total.String(),
	}
}

func cartJSON(items []domain.CartLine) fiber.Map {
	if items == nil {
		items = []domain.CartLine{}
	}
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	q, _ := pricing.Compute(items, "")
	return fiber.Map{"items": items, "count": n, "quote": toQuoteJSON(q)}
}

func (h *APIHandler) Login(c *fiber.Ctx) error {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return apiError(c, "api.login", domain.ErrInvalidInput)
	}
	sess, err := h.Auth.Login(c.UserContext(), ensureSID(c), in.Email, in.Password)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": in.Email, "reason": err.Error()})
		return apiError(c, "api.login", err)
	}
	applog.Audit(c, "auth.login.success", map[string]any{"email": in.Email, "role": string(sess.Role)})
	return c.JSON(fiber.Map{"loggedIn": true, "role": string(sess.Role), "email": sess.Email})
}

func (h *APIHandler) Logout(c *fiber.Ctx) error {
	if _, err := h.Auth.Logout(c.UserContext(), ensureSID(c)); err != nil {
		return apiError(c, "api.logout", err)
	}
	applog.Audit(c, "auth.logout", nil)
	return c.JSON(fiber.Map{"loggedIn": false})
}

func (h *APIHandler) Me(c *fiber.Ctx) error {
	sess := sessionOf(c)
	return c.JSON(fiber.Map{"loggedIn": sess.LoggedIn, "role": string(sess.Role), "email": sess.Email})
}

func (h *APIHandler) GetCart(c *fiber.Ctx) error {
	items, err := h.Cart.Items(c.UserContext(), sessionOf(c))
	if err != nil {
		return apiError(c, "api.cart.load", err)
	}
	return c.JSON(cartJSON(items))
}

func (h *APIHandler) AddItem(c *fiber.Ctx) error {
	var in struct {
		ProductID string `json:"productId"`
		Quantity  *int   `json:"quantity"`
	}
	if err := c.BodyParser(&in); err != nil {
		return apiError(c, "api.cart.add", domain.ErrInvalidInput)
	}
	id, ok := validate.ID(in.ProductID)
	if !ok {
		return apiError(c, "api.cart.add", domain.NewFieldError("productId", domain.ErrMissingField, "productId is required"))
	}
	qty := 1
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	p := h.Catalog.Get(c.UserContext(), id)
	items, err := h.Cart.AddItem(c.UserContext(), sessionOf(c), p, qty)
	if err != nil {
		return apiError(c, "api.cart.add", err)
	}
	applog.Info(c, "cart.add", map[string]any{"product_id": id, "qty": qty})
	return c.Status(fiber.StatusCreated).JSON(cartJSON(items))
}

func (h *APIHandler) UpdateItem(c *fiber.Ctx) error {
	var in struct {
		Quantity int `json:"quantity"`
	}
	if err := c.BodyParser(&in); err != nil {
		return apiError(c, "api.cart.update", domain.ErrInvalidInput)
	}
	items, err := h.Cart.UpdateQuantity(c.UserContext(), sessionOf(c), c.Params("lineId"), in.Quantity)
	if err != nil {
		return apiError(c, "api.cart.update", err)
	}
	return c.JSON(cartJSON(items))
}

func (h *APIHandler) RemoveItem(c *fiber.Ctx) error {
	items, err := h.Cart.RemoveItem(c.UserContext(), sessionOf(c), c.Params("lineId"))
	if err != nil {
		return apiError(c, "api.cart.remove", err)
	}
	return c.JSON(cartJSON(items))
}

// Quote prices the current cart. An unknown coupon answers 422 with the
// zero-discount quote so the client can still show totals.
func (h *APIHandler) Quote(c *fiber.Ctx) error {
	var in struct {
		Coupon string `json:"coupon"`
	}
	_ = c.BodyParser(&in)
	items, err := h.Cart.Items(c.UserContext(), sessionOf(c))
	if err != nil {
		return apiError(c, "api.checkout.quote", err)
	}
	q, err := pricing.Compute(items, in.Coupon)
	if err != nil {
		applog.Info(c, "checkout.coupon.invalid", map[string]any{"coupon": in.Coupon})
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Invalid coupon code",
			"field": "coupon",
			"quote": toQuoteJSON(q),
		})
	}
	return c.JSON(fiber.Map{"quote": toQuoteJSON(q)})
}

func (h *APIHandler) PlaceOrder(c *fiber.Ctx) error {
	var in struct {
		Customer      domain.Customer `json:"customer"`
		PaymentMethod string          `json:"paymentMethod"`
		Coupon        string          `json:"coupon"`
	}
	if err := c.BodyParser(&in); err != nil {
		return apiError(c, "api.order.place", domain.ErrInvalidInput)
	}
	sess := sessionOf(c)
	items, err := h.Cart.Items(c.UserContext(), sess)
	if err != nil {
		return apiError(c, "api.order.place", err)
	}
	q, err := pricing.Compute(items, in.Coupon)
	if err != nil {
		return apiError(c, "api.order.place", domain.NewFieldError("coupon", err, "Invalid coupon code"))
	}
	method, _ := domain.ParsePaymentMethod(in.PaymentMethod)
	id, err := h.Order.Place(c.UserContext(), sess, items, q, in.Customer, method)
	if err != nil {
		return apiError(c, "api.order.place", err)
	}
	applog.Audit(c, "order.place", map[string]any{"order_id": id, "total": q.Total.String(), "method": in.PaymentMethod})
	o, err := h.Order.Get(c.UserContext(), sess.ID, id)
	if err != nil {
		return apiError(c, "api.order.place", err)
	}
	return c.Status(fiber.StatusCreated).JSON(o)
}

func (h *APIHandler) ListOrders(c *fiber.Ctx) error {
	orders, err := h.Order.List(c.UserContext(), sessionOf(c).ID)
	if err != nil {
		return apiError(c, "api.orders.list", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return c.JSON(orders)
}

func (h *APIHandler) GetOrder(c *fiber.Ctx) error {
	o, err := h.Order.Get(c.UserContext(), sessionOf(c).ID, c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			applog.Security(c, "access.denied.order", map[string]any{"order_id": c.Params("id")})
		}
		return apiError(c, "api.order.get", err)
	}
	return c.JSON(o)
}

func (h *APIHandler) UpdateStatus(c *fiber.Ctx) error {
	var in struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&in); err != nil {
		return apiError(c, "api.order.status", domain.ErrInvalidInput)
	}
	next, ok := domain.ParseOrderStatus(in.Status)
	if !ok {
		return apiError(c, "api.order.status", domain.NewFieldError("status", domain.ErrInvalidInput, "unknown status"))
	}
	o, err := h.Order.UpdateStatus(c.UserContext(), sessionOf(c).ID, c.Params("id"), next)
	if err != nil {
		return apiError(c, "api.order.status", err)
	}
	applog.Audit(c, "order.status", map[string]any{"order_id": o.ID, "status": string(o.Status)})
	return c.JSON(o)
}

func (h *APIHandler) CancelOrder(c *fiber.Ctx) error {
	o, err := h.Order.Cancel(c.UserContext(), sessionOf(c).ID, c.Params("id"))
	if err != nil {
		return apiError(c, "api.order.cancel", err)
	}
	applog.Audit(c, "order.cancel", map[string]any{"order_id": o.ID})
	return c.JSON(o)
}

type paymentIn struct {
	OrderID string `json:"orderId"`
	Method  string `json:"method"`
	Card    struct {
		Number string `json:"number"`
		Name   string `json:"name"`
		Expiry string `json:"expiry"`
		CVV    string `json:"cvv"`
	} `json:"card"`
	UPI string `json:"upiId"`
}

func (h *APIHandler) Pay(c *fiber.Ctx) error {
	var in paymentIn
	if err := c.BodyParser(&in); err != nil {
		return apiError(c, "api.payment", domain.ErrInvalidInput)
	}
	req := services.PaymentRequest{
		Card: domain.CardDetails{Number: in.Card.Number, Name: in.Card.Name, Expiry: in.Card.Expiry, CVV: in.Card.CVV},
		UPI:  in.UPI,
	}
	if in.Method != "" {
		m, ok := domain.ParsePaymentMethod(in.Method)
		if !ok {
			return apiError(c, "api.payment", domain.NewFieldError("method", domain.ErrInvalidInput, "unknown payment method"))
		}
		req.Method = m
	}
	p, err := h.Payment.Pay(c.UserContext(), sessionOf(c).ID, in.OrderID, req)
	if err != nil {
		applog.Security(c, "payment.settle.fail", map[string]any{"order_id": in.OrderID, "reason": err.Error()})
		return apiError(c, "api.payment", err)
	}
	applog.Audit(c, "payment.settle", map[string]any{"order_id": p.OrderID, "txn_id": p.TransactionID, "amount": p.Amount.String()})
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *APIHandler) ListPayments(c *fiber.Ctx) error {
	ps, err := h.Payment.List(c.UserContext(), sessionOf(c).ID)
	if err != nil {
		return apiError(c, "api.payments.list", err)
	}
	if ps == nil {
		ps = []domain.Payment{}
	}
	return c.JSON(ps)
}
