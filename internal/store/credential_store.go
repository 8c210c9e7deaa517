package store

import (
	"context"
	"time"
)

// Credential is a named secret: slack token, tracker api key, registry
// password or builder ssh key. Secret holds the decrypted value and is
// only populated by the credential service, never read from the db.
type Credential struct {
	CredentialID int64
	Name         string
	Description  string
	SecretHash   string
	CreatedOn    time.Time

	Secret []byte
}

type CredentialStore interface {
	CreateCredential(context.Context, string, string, string) (*Credential, error)
	ReadCredentialByName(context.Context, string) (*Credential, error)
	UpdateCredentialSecret(context.Context, string, string) error
	DeleteCredential(context.Context, int64) error
	ListCredentials(context.Context) ([]*Credential, error)
}
