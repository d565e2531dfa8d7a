package services

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"thriftbazaar/internal/domain"
	applog "thriftbazaar/internal/log"
	"thriftbazaar/internal/validate"
)

// PaymentRequest is what the payment form submits.
type PaymentRequest struct {
	Method domain.PaymentMethod
	Card   domain.CardDetails
	UPI    string
}

// PaymentService simulates a gateway: non-COD settlements wait Delay and
// then succeed when Decide says so. Cash on delivery always succeeds at once.
type PaymentService struct {
	Payments PaymentRepository
	Orders   *OrderService
	Events   Publisher
	Delay    time.Duration
	Decide   func() bool
	Now      func() time.Time
	NewTxnID func() string

	locks    keyedMutex
	inflight keyedMutex
}

func NewPaymentService(payments PaymentRepository, orders *OrderService, events Publisher, delay time.Duration, successRate float64) *PaymentService {
	return &PaymentService{
		Payments: payments,
		Orders:   orders,
		Events:   events,
		Delay:    delay,
		Decide:   func() bool { return rand.Float64() < successRate },
		Now:      func() time.Time { return time.Now().UTC() },
		NewTxnID: func() string { return "TXN-" + strings.ToUpper(uuid.NewString()[:8]) },
	}
}

// ValidateCard checks shape only: 16 digits, a holder name, MM/YY expiry
// and a 3 digit CVV.
func ValidateCard(c domain.CardDetails) error {
	if _, ok := validate.CardNumber(c.Number); !ok {
		return domain.NewFieldError("cardNumber", domain.ErrInvalidCard, "invalid card number")
	}
	if strings.TrimSpace(c.Name) == "" {
		return domain.NewFieldError("cardName", domain.ErrInvalidCard, "please enter cardholder name")
	}
	if _, ok := validate.Expiry(c.Expiry); !ok {
		return domain.NewFieldError("expiryDate", domain.ErrInvalidCard, "invalid expiry date")
	}
	if _, ok := validate.CVV(c.CVV); !ok {
		return domain.NewFieldError("cvv", domain.ErrInvalidCard, "invalid CVV")
	}
	return nil
}

func ValidateUPI(id string) error {
	if _, ok := validate.UPI(id); !ok {
		return domain.NewFieldError("upiId", domain.ErrInvalidUPI, "invalid UPI ID, format: username@bankname")
	}
	return nil
}

// Validate applies the method specific checks. Wallet and COD carry no
// details.
func (s *PaymentService) Validate(req PaymentRequest) error {
	switch req.Method {
	case domain.MethodCard:
		return ValidateCard(req.Card)
	case domain.MethodUPI:
		return ValidateUPI(req.UPI)
	case domain.MethodWallet, domain.MethodCOD:
		return nil
	}
	return domain.NewFieldError("paymentMethod", domain.ErrInvalidInput, "unknown payment method")
}

// authorize stands in for the gateway round trip: non-COD methods wait
// Delay and then ask Decide. A decline is published and returned as
// domain.ErrPaymentDeclined.
func (s *PaymentService) authorize(ctx context.Context, ns string, method domain.PaymentMethod, amount decimal.Decimal, orderID string) error {
	if method == domain.MethodCOD {
		return nil
	}
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	if s.Decide != nil && !s.Decide() {
		publish(ctx, s.Events, domain.Event{
			Type: domain.EventPaymentFailed, OrderID: orderID, Amount: amount, Namespace: ns, At: s.Now(),
		})
		return domain.ErrPaymentDeclined
	}
	return nil
}

func (s *PaymentService) receipt(method domain.PaymentMethod, amount decimal.Decimal, orderID string) domain.Payment {
	return domain.Payment{
		TransactionID: s.NewTxnID(),
		OrderID:       orderID,
		Amount:        amount,
		Method:        method,
		Status:        "completed",
		Timestamp:     s.Now(),
	}
}

func (s *PaymentService) record(ctx context.Context, ns string, p domain.Payment) error {
	defer s.locks.lock(ns)()
	list, err := s.Payments.Load(ctx, ns)
	if err != nil {
		return err
	}
	return s.Payments.Save(ctx, ns, append(list, p))
}

func (s *PaymentService) settled(ctx context.Context, ns string, p domain.Payment) {
	publish(ctx, s.Events, domain.Event{
		Type: domain.EventPaymentSettle, OrderID: p.OrderID, Amount: p.Amount, Namespace: ns, At: p.Timestamp,
	})
}

// Settle runs one simulated settlement. On success the receipt is appended
// to the namespace's payment list; a decline is retryable and records
// nothing.
func (s *PaymentService) Settle(ctx context.Context, ns string, method domain.PaymentMethod, amount decimal.Decimal, orderID string) (domain.Payment, error) {
	if err := s.authorize(ctx, ns, method, amount, orderID); err != nil {
		return domain.Payment{}, err
	}
	p := s.receipt(method, amount, orderID)
	if err := s.record(ctx, ns, p); err != nil {
		return domain.Payment{}, err
	}
	s.settled(ctx, ns, p)
	return p, nil
}

// Pay validates req, settles the order total and moves the order from
// pending to processing. One attempt per order runs at a time; a second
// submit waits and then finds the order paid. If the order leaves pending
// while the gateway is deciding, nothing is recorded and
// domain.ErrNotPayable is returned.
func (s *PaymentService) Pay(ctx context.Context, ns, orderID string, req PaymentRequest) (domain.Payment, error) {
	defer s.inflight.lock(ns + "/" + orderID)()

	o, err := s.Orders.Get(ctx, ns, orderID)
	if err != nil {
		return domain.Payment{}, err
	}
	if o.Status != domain.StatusPending {
		return domain.Payment{}, domain.ErrNotPayable
	}
	if req.Method == "" {
		req.Method = o.PaymentMethod
	}
	if err := s.Validate(req); err != nil {
		return domain.Payment{}, err
	}
	if err := s.authorize(ctx, ns, req.Method, o.Total, o.ID); err != nil {
		return domain.Payment{}, err
	}

	p := s.receipt(req.Method, o.Total, o.ID)
	if _, err := s.Orders.markPaid(ctx, ns, o.ID, func() error { return s.record(ctx, ns, p) }); err != nil {
		if errors.Is(err, domain.ErrNotPayable) {
			applog.Security(nil, "payment.order_moved", map[string]any{"order_id": o.ID})
		}
		return domain.Payment{}, err
	}
	s.settled(ctx, ns, p)
	return p, nil
}

func (s *PaymentService) List(ctx context.Context, ns string) ([]domain.Payment, error) {
	return s.Payments.Load(ctx, ns)
}
