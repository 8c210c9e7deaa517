package store

import (
	"context"
	"time"
)

type APIKey struct {
	ID          int64
	Description string
	Value       string
	CreatedOn   time.Time
}

type APIKeyStore interface {
	CreateAPIKey(context.Context, string, string) (*APIKey, error)
	ReadAPIKeyByValue(context.Context, string) (*APIKey, error)
	DeleteAPIKey(context.Context, int64) error
	ListAPIKeys(context.Context) ([]*APIKey, error)
}
