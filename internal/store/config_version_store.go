package store

import (
	"context"
	"time"
)

type ConfigTag string

const (
	TagStable ConfigTag = "STABLE"
	TagNoisy  ConfigTag = "NOISY"
)

// ConfigVersion is a stored configuration snapshot. The id is assigned
// by the caller, not the database. The pipeline itself never reads
// this table.
type ConfigVersion struct {
	ID         int64 `param:"id"`
	Config     string
	ConfigHash string
	Tag        ConfigTag
	CreatedAt  time.Time
}

type ConfigVersionStore interface {
	CreateConfigVersion(context.Context, int64, string, string, ConfigTag) (*ConfigVersion, error)
	ReadConfigVersionByID(context.Context, int64) (*ConfigVersion, error)
	ListConfigVersions(context.Context, int64, int64) ([]ConfigVersion, error)
}
