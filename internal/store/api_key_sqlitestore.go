package store

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
)

type APIKeySQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewAPIKeySQLiteStore(rdb, rwdb *sql.DB) *APIKeySQLiteStore {
	return &APIKeySQLiteStore{rdb, rwdb}
}

func (store *APIKeySQLiteStore) CreateAPIKey(
	ctx context.Context,
	description, value string,
) (*APIKey, error) {
	key := &APIKey{Description: description, Value: value}
	query := `insert into api_keys (description, value)
	values ($1, $2)
	returning id, created_on`
	if err := sqlscan.Get(ctx, store.rwdb, key, query, key.Description, key.Value); err != nil {
		return nil, err
	}
	return key, nil
}

func (store *APIKeySQLiteStore) ReadAPIKeyByValue(
	ctx context.Context,
	value string,
) (*APIKey, error) {
	key := new(APIKey)
	query := "select * from api_keys where value = $1"
	if err := sqlscan.Get(ctx, store.rdb, key, query, value); err != nil {
		return nil, err
	}
	return key, nil
}

func (store *APIKeySQLiteStore) DeleteAPIKey(ctx context.Context, id int64) error {
	query := "delete from api_keys where id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

func (store *APIKeySQLiteStore) ListAPIKeys(ctx context.Context) ([]*APIKey, error) {
	keys := []*APIKey{}
	query := "select * from api_keys order by id"
	if err := sqlscan.Select(ctx, store.rdb, &keys, query); err != nil {
		return nil, err
	}
	return keys, nil
}
