// Package pricing turns a cart and an optional coupon into checkout totals.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"thriftbazaar/internal/domain"
)

var (
	TaxRate = decimal.RequireFromString("0.05")

	coupons = map[string]decimal.Decimal{
		"SAVE10": decimal.RequireFromString("0.10"),
		"SAVE15": decimal.RequireFromString("0.15"),
		"SAVE20": decimal.RequireFromString("0.20"),
	}
)

// Quote is the price breakdown shown at checkout and frozen into an order.
type Quote struct {
	Subtotal decimal.Decimal
	Coupon   string
	Rate     decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// CouponRate returns the discount fraction for a known code. Codes are
// matched exactly.
func CouponRate(code string) (decimal.Decimal, bool) {
	r, ok := coupons[strings.TrimSpace(code)]
	return r, ok
}

// Subtotal sums price × quantity over the lines.
func Subtotal(items []domain.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// Compute prices items with an optional coupon. An unknown non-empty code
// yields a zero-discount quote together with domain.ErrInvalidCoupon.
// Tax is 5% of the discounted amount rounded half away from zero to whole
// currency units; the discount itself is not rounded.
func Compute(items []domain.CartLine, coupon string) (Quote, error) {
	q := Quote{Subtotal: Subtotal(items), Rate: decimal.Zero, Discount: decimal.Zero}
	var err error
	if code := strings.TrimSpace(coupon); code != "" {
		if rate, ok := CouponRate(code); ok {
			q.Coupon = code
			q.Rate = rate
			q.Discount = q.Subtotal.Mul(rate)
		} else {
			err = domain.ErrInvalidCoupon
		}
	}
	taxable := q.Subtotal.Sub(q.Discount)
	q.Tax = taxable.Mul(TaxRate).Round(0)
	q.Total = taxable.Add(q.Tax)
	return q, err
}
