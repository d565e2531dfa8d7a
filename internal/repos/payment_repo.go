package repos

import (
	"context"

	"thriftbazaar/internal/domain"
	"thriftbazaar/internal/storage"
)

const paymentsKey = "payments"

type PaymentRepo struct{ st storage.Store }

func NewPaymentRepo(st storage.Store) *PaymentRepo { return &PaymentRepo{st: st} }

func (r *PaymentRepo) Load(ctx context.Context, ns string) ([]domain.Payment, error) {
	return loadList[domain.Payment](ctx, r.st, ns, paymentsKey)
}

func (r *PaymentRepo) Save(ctx context.Context, ns string, payments []domain.Payment) error {
	return saveList(ctx, r.st, ns, paymentsKey, payments)
}
