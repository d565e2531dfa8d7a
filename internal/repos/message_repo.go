package repos

import (
	"context"

	"thriftbazaar/internal/domain"
	"thriftbazaar/internal/storage"
)

// MessageRepo keeps one conversation per seller under messages_<sellerID>.
type MessageRepo struct{ st storage.Store }

func NewMessageRepo(st storage.Store) *MessageRepo { return &MessageRepo{st: st} }

func messagesKey(sellerID string) string { return "messages_" + sellerID }

func (r *MessageRepo) Load(ctx context.Context, ns, sellerID string) ([]domain.Message, error) {
	return loadList[domain.Message](ctx, r.st, ns, messagesKey(sellerID))
}

func (r *MessageRepo) Save(ctx context.Context, ns, sellerID string, msgs []domain.Message) error {
	return saveList(ctx, r.st, ns, messagesKey(sellerID), msgs)
}
