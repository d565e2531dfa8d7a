package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"thriftbazaar/internal/domain"
	"thriftbazaar/internal/repos"
	"thriftbazaar/internal/services"
	"thriftbazaar/internal/storage"
)

type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorder) Publish(_ context.Context, ev domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type stack struct {
	store    storage.Store
	carts    *services.CartService
	orders   *services.OrderService
	payments *services.PaymentService
	events   *recorder
	sess     domain.Session
}

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newStack(t *testing.T) *stack {
	t.Helper()
	s, closeFn, err := openStack()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(closeFn)
	return s
}

func openStack() (*stack, func(), error) {
	db, err := storage.OpenDB(":memory:")
	if err != nil {
		return nil, nil, err
	}
	st := storage.NewSQLStore(db)

	ev := &recorder{}
	carts := services.NewCartService(repos.NewCartRepo(st))
	orders := services.NewOrderService(repos.NewOrderRepo(st), carts, ev)
	orders.Now = func() time.Time { return fixedNow }
	payments := services.NewPaymentService(repos.NewPaymentRepo(st), orders, ev, 0, 1)
	payments.Now = func() time.Time { return fixedNow }

	return &stack{
		store:    st,
		carts:    carts,
		orders:   orders,
		payments: payments,
		events:   ev,
		sess:     domain.Session{ID: "sid-test", LoggedIn: true, Email: "asha@example.com", Role: domain.RoleCustomer},
	}, func() { _ = db.Close() }, nil
}

func product(id string, price int64) domain.Product {
	return domain.Product{
		ID: id, Name: "Item " + id, Price: decimal.NewFromInt(price),
		Category: domain.CategoryJeans, Condition: domain.ConditionGood,
		Images: []string{"a.jpg"},
	}
}

func customer() domain.Customer {
	return domain.Customer{
		FirstName: "Asha", LastName: "Rao", Email: "asha@example.com",
		Phone: "9876543210", Address: "12 MG Road", City: "Pune", State: "MH", ZipCode: "411001",
	}
}
