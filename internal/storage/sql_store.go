package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLStore keeps records in the client_records table.
type SQLStore struct{ db *sqlx.DB }

func NewSQLStore(db *sqlx.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Get(ctx context.Context, ns, key string) ([]byte, error) {
	var val string
	err := s.db.GetContext(ctx, &val, `SELECT value FROM client_records WHERE namespace=? AND key=?`, ns, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(val), nil
}

func (s *SQLStore) Put(ctx context.Context, ns, key string, val []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_records(namespace,key,value,updated_at)
		VALUES(?,?,?,?)
		ON CONFLICT(namespace,key) DO UPDATE
		SET value = excluded.value, updated_at = excluded.updated_at
	`, ns, key, string(val), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLStore) Delete(ctx context.Context, ns, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM client_records WHERE namespace=? AND key=?`, ns, key)
	return err
}
