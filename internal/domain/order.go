package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one product snapshot in a cart or an order.
type CartLine struct {
	LineID   string  `json:"cartItemId"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
}

func (c Customer) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// DeliveryAddress joins the address parts that were filled in.
func (c Customer) DeliveryAddress() string {
	out := c.Address
	for _, part := range []string{c.City, c.State, c.ZipCode} {
		if part == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += part
	}
	return out
}

type PaymentMethod string

const (
	MethodCard   PaymentMethod = "card"
	MethodUPI    PaymentMethod = "upi"
	MethodWallet PaymentMethod = "wallet"
	MethodCOD    PaymentMethod = "cod"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch m := PaymentMethod(s); m {
	case MethodCard, MethodUPI, MethodWallet, MethodCOD:
		return m, true
	}
	return "", false
}

type Order struct {
	ID            string          `json:"orderId"`
	Items         []CartLine      `json:"items"`
	Customer      Customer        `json:"customer"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Status        OrderStatus     `json:"status"`
	Coupon        string          `json:"coupon,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"totalAmount"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ItemCount sums quantities across lines.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// Payment is the receipt of a successful settlement.
type Payment struct {
	TransactionID string          `json:"transactionId"`
	OrderID       string          `json:"orderId"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	Status        string          `json:"status"`
	Timestamp     time.Time       `json:"timestamp"`
}

type CardDetails struct {
	Number string
	Name   string
	Expiry string
	CVV    string
}

// Event is emitted on every order lifecycle change.
type Event struct {
	Type      string          `json:"type"`
	OrderID   string          `json:"orderId"`
	Status    OrderStatus     `json:"status,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Namespace string          `json:"-"`
	At        time.Time       `json:"at"`
}

const (
	EventOrderPlaced   = "order.placed"
	EventOrderStatus   = "order.status_changed"
	EventPaymentSettle = "payment.completed"
	EventPaymentFailed = "payment.declined"
)
