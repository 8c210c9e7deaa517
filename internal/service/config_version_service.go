package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/haatos/shipci/internal/store"
)

// ConfigVersionService validates and stores configuration snapshots.
// The content hash is always computed server side from the payload.
type ConfigVersionService struct {
	configVersionStore store.ConfigVersionStore
}

func NewConfigVersionService(s store.ConfigVersionStore) *ConfigVersionService {
	return &ConfigVersionService{configVersionStore: s}
}

func (s *ConfigVersionService) CreateConfigVersion(
	ctx context.Context,
	id int64,
	config string,
	tag store.ConfigTag,
) (*store.ConfigVersion, error) {
	if !json.Valid([]byte(config)) {
		return nil, InvalidConfigVersionError{Message: "config is not valid JSON"}
	}
	if tag != store.TagStable && tag != store.TagNoisy {
		return nil, InvalidConfigVersionError{Message: "tag must be STABLE or NOISY"}
	}

	sum := sha256.Sum256([]byte(config))
	hash := hex.EncodeToString(sum[:])
	return s.configVersionStore.CreateConfigVersion(ctx, id, config, hash, tag)
}

func (s *ConfigVersionService) GetConfigVersionByID(
	ctx context.Context,
	id int64,
) (*store.ConfigVersion, error) {
	return s.configVersionStore.ReadConfigVersionByID(ctx, id)
}

func (s *ConfigVersionService) ListConfigVersions(
	ctx context.Context,
	limit, offset int64,
) ([]store.ConfigVersion, error) {
	return s.configVersionStore.ListConfigVersions(ctx, limit, offset)
}
