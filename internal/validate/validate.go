package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reEmail  = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ      = regexp.MustCompile(`^[A-Za-z0-9 _'\\-]{1,50}$`)
	reID     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	rePhone  = regexp.MustCompile(`^\+?[0-9][0-9 -]{6,18}[0-9]$`)
	reUPI    = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z]{3,}$`)
	reExpiry = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
	reCVV    = regexp.MustCompile(`^[0-9]{3}$`)
	reCoupon = regexp.MustCompile(`^[A-Za-z0-9]{0,20}$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 80 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > 50 {
		return 50
	} // clamp to avoid abuse
	return n
}

// ID validates a simple resource identifier (product/line/order ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 80 {
		return "", false
	}
	return s, true
}

// Password enforces the minimum length accepted at registration.
func Password(s string) bool {
	return len(s) >= 6 && len(s) <= 72 // bcrypt ignores the rest
}

func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, rePhone.MatchString(s)
}

// UPI checks the username@bank shape of a UPI handle.
func UPI(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reUPI.MatchString(s)
}

// CardNumber strips spaces and dashes and requires exactly 16 digits.
func CardNumber(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ' ' || r == '-':
			continue
		case r < '0' || r > '9':
			return "", false
		}
		b.WriteRune(r)
	}
	out := b.String()
	return out, len(out) == 16
}

// Expiry accepts MM/YY.
func Expiry(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reExpiry.MatchString(s)
}

func CVV(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reCVV.MatchString(s)
}

// Coupon upper-bounds what is accepted from the form. Whether the code
// grants a discount is decided by pricing.
func Coupon(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reCoupon.MatchString(s)
}

// Price parses a strictly positive amount.
func Price(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}
