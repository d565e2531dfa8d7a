package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"thriftbazaar/internal/domain"
	applog "thriftbazaar/internal/log"
	"thriftbazaar/internal/pricing"
	"thriftbazaar/internal/services"
)

type OrderHandler struct {
	Cart    *services.CartService
	Order   *services.OrderService
	Payment *services.PaymentService
}

func customerFromForm(c *fiber.Ctx) domain.Customer {
	f := func(k string) string { return strings.TrimSpace(c.FormValue(k)) }
	return domain.Customer{
		FirstName: f("firstName"),
		LastName:  f("lastName"),
		Email:     f("email"),
		Phone:     f("phone"),
		Address:   f("address"),
		City:      f("city"),
		State:     f("state"),
		ZipCode:   f("zipCode"),
	}
}

func (h *OrderHandler) checkoutPage(c *fiber.Ctx, status int, data fiber.Map) error {
	return c.Status(status).Render("checkout", withSessionData(c, data))
}

// Checkout shows the order summary. ?coupon= applies a code; an unknown
// code leaves the discount at zero and says so.
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	sess := sessionOf(c)
	items, err := h.Cart.Items(c.UserContext(), sess)
	if err != nil {
		applog.Error(c, "checkout.load", err, nil)
		return err
	}
	if len(items) == 0 {
		return c.Redirect("/cart")
	}
	coupon := strings.TrimSpace(c.Query("coupon"))
	q, qerr := pricing.Compute(items, coupon)
	data := fiber.Map{
		"Items":    items,
		"Quote":    q,
		"Customer": domain.Customer{Email: sess.Email},
		"Method":   string(domain.MethodCard),
	}
	if qerr != nil {
		applog.Info(c, "checkout.coupon.invalid", map[string]any{"coupon": coupon})
		data["CouponErr"] = "Invalid coupon code"
		data["CouponInput"] = coupon
	}
	return h.checkoutPage(c, fiber.StatusOK, data)
}

func (h *OrderHandler) Place(c *fiber.Ctx) error {
	sess := sessionOf(c)
	items, err := h.Cart.Items(c.UserContext(), sess)
	if err != nil {
		applog.Error(c, "checkout.load", err, nil)
		return err
	}
	cust := customerFromForm(c)
	method, _ := domain.ParsePaymentMethod(c.FormValue("paymentMethod"))
	// the quote is recomputed from the stored cart, never taken from the form
	q, qerr := pricing.Compute(items, c.FormValue("coupon"))

	fail := func(status int, field, msg string) error {
		return h.checkoutPage(c, status, fiber.Map{
			"Items": items, "Quote": q, "Customer": cust, "Method": string(method),
			"Err": msg, "Field": field,
		})
	}
	if len(items) == 0 {
		return c.Redirect("/cart")
	}
	if qerr != nil {
		return fail(fiber.StatusUnprocessableEntity, "coupon", "Invalid coupon code")
	}
	if method == "" {
		return fail(fiber.StatusBadRequest, "paymentMethod", "Please choose a payment method")
	}

	orderID, err := h.Order.Place(c.UserContext(), sess, items, q, cust, method)
	if err != nil {
		field, msg := formErr(err)
		applog.Security(c, "order.place.fail", map[string]any{"field": field, "error": err.Error()})
		if statusOf(err) >= fiber.StatusInternalServerError {
			return err
		}
		return fail(statusOf(err), field, msg)
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id": orderID,
		"total":    q.Total.String(),
		"coupon":   q.Coupon,
		"method":   string(method),
	})
	return c.Redirect("/payment?order=" + orderID)
}

func (h *OrderHandler) PaymentForm(c *fiber.Ctx) error {
	sess := sessionOf(c)
	o, err := h.Order.Get(c.UserContext(), sess.ID, c.Query("order"))
	if err != nil {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": c.Query("order")})
		return notFound(c, "Order not found")
	}
	if o.Status != domain.StatusPending {
		return c.Redirect("/orders")
	}
	return render(c, "payment", fiber.Map{"Order": o, "Method": string(o.PaymentMethod)})
}

func paymentRequestFromForm(c *fiber.Ctx) services.PaymentRequest {
	method, _ := domain.ParsePaymentMethod(c.FormValue("method"))
	return services.PaymentRequest{
		Method: method,
		Card: domain.CardDetails{
			Number: c.FormValue("cardNumber"),
			Name:   c.FormValue("cardName"),
			Expiry: c.FormValue("expiry"),
			CVV:    c.FormValue("cvv"),
		},
		UPI: c.FormValue("upiId"),
	}
}

// Pay settles a pending order. A decline returns the shopper to method
// selection with the order still pending.
func (h *OrderHandler) Pay(c *fiber.Ctx) error {
	sess := sessionOf(c)
	orderID := c.FormValue("orderId")
	o, err := h.Order.Get(c.UserContext(), sess.ID, orderID)
	if err != nil {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": orderID})
		return notFound(c, "Order not found")
	}
	req := paymentRequestFromForm(c)
	p, err := h.Payment.Pay(c.UserContext(), sess.ID, o.ID, req)
	if err != nil {
		field, msg := formErr(err)
		if errors.Is(err, domain.ErrNotPayable) {
			return c.Redirect("/orders")
		}
		if statusOf(err) >= fiber.StatusInternalServerError {
			applog.Error(c, "payment.settle.fail", err, map[string]any{"order_id": o.ID})
			return err
		}
		applog.Security(c, "payment.settle.fail", map[string]any{"order_id": o.ID, "method": string(req.Method), "reason": err.Error()})
		return c.Status(statusOf(err)).Render("payment", withSessionData(c, fiber.Map{
			"Order": o, "Method": string(req.Method), "Err": msg, "Field": field,
		}))
	}
	applog.Audit(c, "payment.settle", map[string]any{
		"order_id": o.ID,
		"txn_id":   p.TransactionID,
		"amount":   p.Amount.String(),
		"method":   string(p.Method),
	})
	return render(c, "payment_success", fiber.Map{"Payment": p, "Order": o})
}

func (h *OrderHandler) History(c *fiber.Ctx) error {
	sess := sessionOf(c)
	orders, err := h.Order.List(c.UserContext(), sess.ID)
	if err != nil {
		applog.Error(c, "orders.history.fail", err, nil)
		return err
	}
	payments, err := h.Payment.List(c.UserContext(), sess.ID)
	if err != nil {
		applog.Error(c, "payments.history.fail", err, nil)
		return err
	}
	paid := make(map[string]*domain.Payment, len(payments))
	for i := range payments {
		paid[payments[i].OrderID] = &payments[i]
	}
	return render(c, "orders", fiber.Map{
		"Orders": orders,
		"Paid":   paid,
		"Err":    transitionMessage(c.Query("err")),
	})
}

func transitionMessage(code string) string {
	switch code {
	case "transition":
		return "That status change is not allowed for this order."
	case "notfound":
		return "Order not found."
	}
	return ""
}

func (h *OrderHandler) redirectAfterUpdate(c *fiber.Ctx, id string, err error) error {
	switch {
	case err == nil:
		return c.Redirect("/orders")
	case errors.Is(err, domain.ErrInvalidTransition):
		applog.Security(c, "order.status.reject", map[string]any{"order_id": id})
		return c.Redirect("/orders?err=transition")
	case errors.Is(err, domain.ErrNotFound):
		applog.Security(c, "access.denied.order", map[string]any{"order_id": id})
		return c.Redirect("/orders?err=notfound")
	}
	applog.Error(c, "order.status.fail", err, map[string]any{"order_id": id})
	return err
}

func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	sess := sessionOf(c)
	id := c.Params("id")
	next, ok := domain.ParseOrderStatus(c.FormValue("status"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "status"})
		return c.Redirect("/orders?err=transition")
	}
	o, err := h.Order.UpdateStatus(c.UserContext(), sess.ID, id, next)
	if err == nil {
		applog.Audit(c, "order.status", map[string]any{"order_id": id, "status": string(o.Status)})
	}
	return h.redirectAfterUpdate(c, id, err)
}

func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	sess := sessionOf(c)
	id := c.Params("id")
	_, err := h.Order.Cancel(c.UserContext(), sess.ID, id)
	if err == nil {
		applog.Audit(c, "order.cancel", map[string]any{"order_id": id})
	}
	return h.redirectAfterUpdate(c, id, err)
}
