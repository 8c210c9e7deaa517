package store

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
)

type ConfigVersionSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewConfigVersionSQLiteStore(rdb, rwdb *sql.DB) *ConfigVersionSQLiteStore {
	return &ConfigVersionSQLiteStore{rdb, rwdb}
}

func (store *ConfigVersionSQLiteStore) CreateConfigVersion(
	ctx context.Context,
	id int64,
	config, configHash string,
	tag ConfigTag,
) (*ConfigVersion, error) {
	cv := &ConfigVersion{
		ID:         id,
		Config:     config,
		ConfigHash: configHash,
		Tag:        tag,
	}
	query := `insert into config_versions (
		id,
		config,
		config_hash,
		tag
	)
	values ($1, $2, $3, $4)
	returning created_at`
	if err := sqlscan.Get(
		ctx, store.rwdb, cv, query,
		cv.ID, cv.Config, cv.ConfigHash, cv.Tag,
	); err != nil {
		return nil, err
	}
	return cv, nil
}

func (store *ConfigVersionSQLiteStore) ReadConfigVersionByID(
	ctx context.Context,
	id int64,
) (*ConfigVersion, error) {
	cv := &ConfigVersion{ID: id}
	query := "select * from config_versions where id = $1"
	if err := sqlscan.Get(ctx, store.rdb, cv, query, cv.ID); err != nil {
		return nil, err
	}
	return cv, nil
}

func (store *ConfigVersionSQLiteStore) ListConfigVersions(
	ctx context.Context,
	limit, offset int64,
) ([]ConfigVersion, error) {
	versions := []ConfigVersion{}
	query := `select * from config_versions
	order by id desc
	limit $1 offset $2`
	if err := sqlscan.Select(ctx, store.rdb, &versions, query, limit, offset); err != nil {
		return nil, err
	}
	return versions, nil
}
