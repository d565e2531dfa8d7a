package repos

import (
	"context"
	"encoding/json"
	"errors"

	applog "thriftbazaar/internal/log"
	"thriftbazaar/internal/storage"
)

// loadList reads a JSON array record. Missing and unreadable records both
// come back as an empty list; the latter is logged so it can be inspected.
func loadList[T any](ctx context.Context, st storage.Store, ns, key string) ([]T, error) {
	raw, err := st.Get(ctx, ns, key)
	if errors.Is(err, storage.ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		applog.Error(nil, "storage.corrupt_record", err, map[string]any{"ns": ns, "key": key})
		return []T{}, nil
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func saveList[T any](ctx context.Context, st storage.Store, ns, key string, list []T) error {
	if list == nil {
		list = []T{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return st.Put(ctx, ns, key, b)
}
