package repos

import (
	"context"

	"thriftbazaar/internal/domain"
	"thriftbazaar/internal/storage"
)

// CartRepo persists cart line lists. The key is chosen by the caller
// (see domain.Session.CartKey).
type CartRepo struct{ st storage.Store }

func NewCartRepo(st storage.Store) *CartRepo { return &CartRepo{st: st} }

func (r *CartRepo) Load(ctx context.Context, ns, key string) ([]domain.CartLine, error) {
	return loadList[domain.CartLine](ctx, r.st, ns, key)
}

func (r *CartRepo) Save(ctx context.Context, ns, key string, lines []domain.CartLine) error {
	return saveList(ctx, r.st, ns, key, lines)
}

func (r *CartRepo) Clear(ctx context.Context, ns, key string) error {
	return r.st.Delete(ctx, ns, key)
}
