package services

import (
	"context"
	"sync"

	"thriftbazaar/internal/domain"
	applog "thriftbazaar/internal/log"
)

type CartRepository interface {
	Load(ctx context.Context, ns, key string) ([]domain.CartLine, error)
	Save(ctx context.Context, ns, key string, lines []domain.CartLine) error
	Clear(ctx context.Context, ns, key string) error
}

type OrderRepository interface {
	Load(ctx context.Context, ns string) ([]domain.Order, error)
	Save(ctx context.Context, ns string, orders []domain.Order) error
}

type PaymentRepository interface {
	Load(ctx context.Context, ns string) ([]domain.Payment, error)
	Save(ctx context.Context, ns string, payments []domain.Payment) error
}

type TokenRepository interface {
	Load(ctx context.Context, ns string) (string, error)
	Save(ctx context.Context, ns, token string) error
	Clear(ctx context.Context, ns string) error
}

type MessageRepository interface {
	Load(ctx context.Context, ns, sellerID string) ([]domain.Message, error)
	Save(ctx context.Context, ns, sellerID string, msgs []domain.Message) error
}

// Publisher fans order lifecycle events out to whatever backend is
// configured. Delivery failures never fail the operation that emitted them.
type Publisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

func publish(ctx context.Context, p Publisher, ev domain.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		applog.Error(nil, "events.publish_failed", err, map[string]any{"type": ev.Type, "order_id": ev.OrderID})
	}
}

// keyedMutex serialises read-modify-write cycles on one record. An entry
// lives only while someone holds or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = map[string]*refMutex{}
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
