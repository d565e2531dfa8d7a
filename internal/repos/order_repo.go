package repos

import (
	"context"

	"thriftbazaar/internal/domain"
	"thriftbazaar/internal/storage"
)

const ordersKey = "orders"

type OrderRepo struct{ st storage.Store }

func NewOrderRepo(st storage.Store) *OrderRepo { return &OrderRepo{st: st} }

// Load returns every order of the namespace in insertion order.
func (r *OrderRepo) Load(ctx context.Context, ns string) ([]domain.Order, error) {
	return loadList[domain.Order](ctx, r.st, ns, ordersKey)
}

func (r *OrderRepo) Save(ctx context.Context, ns string, orders []domain.Order) error {
	return saveList(ctx, r.st, ns, ordersKey, orders)
}
