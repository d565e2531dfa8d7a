package services

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"thriftbazaar/internal/domain"
	applog "thriftbazaar/internal/log"
	"thriftbazaar/internal/pricing"
	"thriftbazaar/internal/validate"
)

// NewOrderID returns "ORD-" followed by a monotonic ULID, so ids are unique
// within the process and sort by creation time.
func NewOrderID() string { return "ORD-" + ulid.Make().String() }

// OrderService is the order ledger of one browser namespace: it freezes a
// cart into an order and drives the order through its status lifecycle.
type OrderService struct {
	Orders OrderRepository
	Carts  *CartService
	Events Publisher
	Now    func() time.Time
	NewID  func() string

	locks keyedMutex
}

func NewOrderService(orders OrderRepository, carts *CartService, events Publisher) *OrderService {
	return &OrderService{
		Orders: orders,
		Carts:  carts,
		Events: events,
		Now:    func() time.Time { return time.Now().UTC() },
		NewID:  NewOrderID,
	}
}

func validateCustomer(c domain.Customer) error {
	if strings.TrimSpace(c.FirstName) == "" {
		return domain.NewFieldError("firstName", domain.ErrMissingField, "first name is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		return domain.NewFieldError("email", domain.ErrMissingField, "email is required")
	}
	if _, ok := validate.Email(c.Email); !ok {
		return domain.NewFieldError("email", domain.ErrInvalidInput, "email is not valid")
	}
	if strings.TrimSpace(c.Phone) == "" {
		return domain.NewFieldError("phone", domain.ErrMissingField, "phone is required")
	}
	if strings.TrimSpace(c.Address) == "" {
		return domain.NewFieldError("address", domain.ErrMissingField, "address is required")
	}
	return nil
}

// Place records a pending order built from the cart snapshot and quote,
// then empties the cart. The returned id is what the payment step uses.
func (s *OrderService) Place(ctx context.Context, sess domain.Session, items []domain.CartLine, q pricing.Quote, cust domain.Customer, method domain.PaymentMethod) (string, error) {
	if len(items) == 0 {
		return "", domain.ErrEmptyCart
	}
	if err := validateCustomer(cust); err != nil {
		return "", err
	}
	if _, ok := domain.ParsePaymentMethod(string(method)); !ok {
		return "", domain.NewFieldError("paymentMethod", domain.ErrInvalidInput, "unknown payment method")
	}

	now := s.Now()
	snapshot := make([]domain.CartLine, len(items))
	copy(snapshot, items)
	o := domain.Order{
		ID:            s.NewID(),
		Items:         snapshot,
		Customer:      cust,
		PaymentMethod: method,
		Status:        domain.StatusPending,
		Coupon:        q.Coupon,
		Subtotal:      q.Subtotal,
		Discount:      q.Discount,
		Tax:           q.Tax,
		Total:         q.Total,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	unlock := s.locks.lock(sess.ID)
	orders, err := s.Orders.Load(ctx, sess.ID)
	if err == nil {
		err = s.Orders.Save(ctx, sess.ID, append(orders, o))
	}
	unlock()
	if err != nil {
		return "", err
	}

	if s.Carts != nil {
		if err := s.Carts.Clear(ctx, sess); err != nil {
			applog.Error(nil, "cart.clear_failed", err, map[string]any{"order_id": o.ID})
		}
	}
	publish(ctx, s.Events, domain.Event{
		Type: domain.EventOrderPlaced, OrderID: o.ID, Status: o.Status,
		Amount: o.Total, Namespace: sess.ID, At: now,
	})
	return o.ID, nil
}

// List returns the namespace's orders in insertion order.
func (s *OrderService) List(ctx context.Context, ns string) ([]domain.Order, error) {
	return s.Orders.Load(ctx, ns)
}

func (s *OrderService) Get(ctx context.Context, ns, id string) (domain.Order, error) {
	orders, err := s.Orders.Load(ctx, ns)
	if err != nil {
		return domain.Order{}, err
	}
	for _, o := range orders {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

// UpdateStatus moves one order to next. Rejected transitions leave the
// ledger untouched and return domain.ErrInvalidTransition.
func (s *OrderService) UpdateStatus(ctx context.Context, ns, id string, next domain.OrderStatus) (domain.Order, error) {
	if _, ok := domain.ParseOrderStatus(string(next)); !ok {
		return domain.Order{}, domain.NewFieldError("status", domain.ErrInvalidTransition, "unknown status "+string(next))
	}

	unlock := s.locks.lock(ns)
	orders, err := s.Orders.Load(ctx, ns)
	if err != nil {
		unlock()
		return domain.Order{}, err
	}
	idx := -1
	for i := range orders {
		if orders[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		unlock()
		return domain.Order{}, domain.ErrOrderNotFound
	}
	cur := orders[idx]
	if !cur.Status.CanTransitionTo(next) {
		unlock()
		return cur, domain.ErrInvalidTransition
	}
	now := s.Now()
	orders[idx].Status = next
	orders[idx].UpdatedAt = now
	err = s.Orders.Save(ctx, ns, orders)
	unlock()
	if err != nil {
		return cur, err
	}

	publish(ctx, s.Events, domain.Event{
		Type: domain.EventOrderStatus, OrderID: id, Status: next,
		Amount: cur.Total, Namespace: ns, At: now,
	})
	return orders[idx], nil
}

// markPaid moves a pending order to processing. record runs while the ledger
// is locked and before the status is saved, so a receipt is only kept for an
// order that is still pending. Any other status yields domain.ErrNotPayable.
func (s *OrderService) markPaid(ctx context.Context, ns, id string, record func() error) (domain.Order, error) {
	unlock := s.locks.lock(ns)
	orders, err := s.Orders.Load(ctx, ns)
	if err != nil {
		unlock()
		return domain.Order{}, err
	}
	idx := -1
	for i := range orders {
		if orders[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		unlock()
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if orders[idx].Status != domain.StatusPending {
		unlock()
		return orders[idx], domain.ErrNotPayable
	}
	if err := record(); err != nil {
		unlock()
		return orders[idx], err
	}
	now := s.Now()
	orders[idx].Status = domain.StatusProcessing
	orders[idx].UpdatedAt = now
	err = s.Orders.Save(ctx, ns, orders)
	unlock()
	if err != nil {
		return orders[idx], err
	}

	publish(ctx, s.Events, domain.Event{
		Type: domain.EventOrderStatus, OrderID: id, Status: domain.StatusProcessing,
		Amount: orders[idx].Total, Namespace: ns, At: now,
	})
	return orders[idx], nil
}

// Cancel is UpdateStatus to cancelled.
func (s *OrderService) Cancel(ctx context.Context, ns, id string) (domain.Order, error) {
	return s.UpdateStatus(ctx, ns, id, domain.StatusCancelled)
}
