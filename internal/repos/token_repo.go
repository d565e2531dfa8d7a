package repos

import (
	"context"
	"errors"

	"thriftbazaar/internal/storage"
)

const tokenKey = "token"

// TokenRepo binds a bearer token to a browser namespace.
type TokenRepo struct{ st storage.Store }

func NewTokenRepo(st storage.Store) *TokenRepo { return &TokenRepo{st: st} }

// Load returns "" when no token is stored.
func (r *TokenRepo) Load(ctx context.Context, ns string) (string, error) {
	b, err := r.st.Get(ctx, ns, tokenKey)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *TokenRepo) Save(ctx context.Context, ns, token string) error {
	return r.st.Put(ctx, ns, tokenKey, []byte(token))
}

func (r *TokenRepo) Clear(ctx context.Context, ns string) error {
	return r.st.Delete(ctx, ns, tokenKey)
}
