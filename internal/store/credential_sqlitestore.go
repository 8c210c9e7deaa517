package store

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
)

type CredentialSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewCredentialSQLiteStore(rdb, rwdb *sql.DB) *CredentialSQLiteStore {
	return &CredentialSQLiteStore{rdb, rwdb}
}

func (store *CredentialSQLiteStore) CreateCredential(
	ctx context.Context,
	name, description, secretHash string,
) (*Credential, error) {
	c := &Credential{
		Name:        name,
		Description: description,
		SecretHash:  secretHash,
	}
	query := `insert into credentials (
		name,
		description,
		secret_hash
	)
	values ($1, $2, $3)
	returning credential_id, created_on`
	if err := sqlscan.Get(
		ctx, store.rwdb, c, query,
		c.Name, c.Description, c.SecretHash,
	); err != nil {
		return nil, err
	}
	return c, nil
}

func (store *CredentialSQLiteStore) ReadCredentialByName(
	ctx context.Context,
	name string,
) (*Credential, error) {
	c := new(Credential)
	query := "select * from credentials where name = $1"
	if err := sqlscan.Get(ctx, store.rdb, c, query, name); err != nil {
		return nil, err
	}
	return c, nil
}

func (store *CredentialSQLiteStore) UpdateCredentialSecret(
	ctx context.Context,
	name, secretHash string,
) error {
	query := "update credentials set secret_hash = $1 where name = $2"
	_, err := store.rwdb.ExecContext(ctx, query, secretHash, name)
	return err
}

func (store *CredentialSQLiteStore) DeleteCredential(ctx context.Context, id int64) error {
	query := "delete from credentials where credential_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

func (store *CredentialSQLiteStore) ListCredentials(ctx context.Context) ([]*Credential, error) {
	credentials := []*Credential{}
	query := "select * from credentials order by name"
	if err := sqlscan.Select(ctx, store.rdb, &credentials, query); err != nil {
		return nil, err
	}
	return credentials, nil
}
