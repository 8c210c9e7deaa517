package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/haatos/shipci/internal/security"
	"github.com/haatos/shipci/internal/store"
)

type CredentialWriter interface {
	CreateCredential(context.Context, string, string, string) (*store.Credential, error)
	UpdateCredentialSecret(context.Context, string, string) error
	DeleteCredential(context.Context, int64) error
}

type CredentialReader interface {
	ReadCredentialByName(context.Context, string) (*store.Credential, error)
	ListCredentials(context.Context) ([]*store.Credential, error)
}

type CredentialStore interface {
	CredentialWriter
	CredentialReader
}

// CredentialService stores named secrets encrypted at rest: the slack
// token, the rollout tracker api key, registry passwords and the
// builder ssh key.
type CredentialService struct {
	credentialStore CredentialStore
	encrypter       security.Encrypter
}

func NewCredentialService(
	s CredentialStore,
	encrypter security.Encrypter,
) *CredentialService {
	return &CredentialService{credentialStore: s, encrypter: encrypter}
}

func (s *CredentialService) SetCredential(
	ctx context.Context,
	name, description, secret string,
) (*store.Credential, error) {
	hash := s.encrypter.EncryptAES(secret)
	c, err := s.credentialStore.CreateCredential(ctx, name, description, hash)
	if err == nil {
		return c, nil
	}
	// name already taken: rotate the secret instead
	if updateErr := s.credentialStore.UpdateCredentialSecret(ctx, name, hash); updateErr != nil {
		return nil, errors.Join(err, updateErr)
	}
	return s.credentialStore.ReadCredentialByName(ctx, name)
}

// GetSecret returns the decrypted secret for name.
func (s *CredentialService) GetSecret(ctx context.Context, name string) ([]byte, error) {
	c, err := s.credentialStore.ReadCredentialByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.encrypter.DecryptAES(c.SecretHash)
}

func (s *CredentialService) ListCredentials(ctx context.Context) ([]*store.Credential, error) {
	credentials, err := s.credentialStore.ListCredentials(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return credentials, nil
}

func (s *CredentialService) DeleteCredential(ctx context.Context, credentialID int64) error {
	return s.credentialStore.DeleteCredential(ctx, credentialID)
}
