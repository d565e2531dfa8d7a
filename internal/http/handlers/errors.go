package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"thriftbazaar/internal/domain"
	applog "thriftbazaar/internal/log"
)

// statusOf maps lifecycle errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrNotLoggedIn), errors.Is(err, domain.ErrBadCreds):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrNotPayable), errors.Is(err, domain.ErrEmailTaken):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrPaymentDeclined):
		return fiber.StatusPaymentRequired
	case errors.Is(err, domain.ErrInvalidCoupon):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrMissingField), errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidCard), errors.Is(err, domain.ErrInvalidUPI),
		errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidProduct):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// publicMessage is safe to show to shoppers; unexpected errors get a generic
// text.
func publicMessage(err error) string {
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		return fe.Msg
	}
	switch statusOf(err) {
	case fiber.StatusInternalServerError:
		return "Something went wrong. Please try again."
	case fiber.StatusServiceUnavailable:
		return "The marketplace is unavailable right now. Please try again shortly."
	case fiber.StatusPaymentRequired:
		return "Payment failed. Please try again or choose another method."
	}
	return err.Error()
}

func apiError(c *fiber.Ctx, action string, err error) error {
	st := statusOf(err)
	body := fiber.Map{"error": publicMessage(err)}
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		body["field"] = fe.Field
	}
	if st >= fiber.StatusInternalServerError {
		applog.Error(c, action, err, nil)
	} else {
		applog.Info(c, action+".reject", map[string]any{"status": st, "reason": err.Error()})
	}
	return c.Status(st).JSON(body)
}

// ErrorHandler is the last line of recovery: it logs the failure and
// renders a friendly page that leads back home.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	applog.Error(c, "server.error", err, map[string]any{"code": code})
	if isAPI(c) {
		msg := "Something went wrong. Please try again."
		if code < fiber.StatusInternalServerError && fe != nil {
			msg = fe.Message
		}
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
	if rerr := c.Status(code).Render("error", withSessionData(c, fiber.Map{
		"Message": "Something went wrong. Please try again.",
	})); rerr != nil {
		return c.Status(code).SendString("Something went wrong. Please try again.")
	}
	return nil
}
