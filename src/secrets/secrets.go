package secrets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/veilpay/wallet-core/src/model"
	"github.com/veilpay/wallet-core/src/storage"
	"go.uber.org/zap"
)

// SecretStore plumbs opaque crypto-client blobs (proving keys, nullifier
// state and the like) through the key-value store. The blobs are owned by
// the crypto client's storage adapter; this layer never interprets them.
type SecretStore struct {
	store  *storage.Store
	logger *zap.Logger
}

func NewSecretStore(store *storage.Store, logger *zap.Logger) *SecretStore {
	return &SecretStore{
		store:  store,
		logger: logger.With(zap.String("component", "secret_store")),
	}
}

// KeyHash derives the storage key for an account private key. The stored
// layout keys rows by the bare sha256 of the key bytes so the key itself
// never lands in the store.
func KeyHash(privateKey []byte) string {
	digest := sha256.Sum256(privateKey)
	return hex.EncodeToString(digest[:])
}

// value layout under the key-hash row: chain id -> item key -> blob
type secretBlob map[string]map[string]string

func (s *SecretStore) load(ctx context.Context, keyHash string) (secretBlob, error) {
	raw, found, err := s.store.Get(ctx, storage.StoreSecrets, keyHash)
	if err != nil {
		return nil, err
	}
	blob := secretBlob{}
	if !found {
		return blob, nil
	}
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		s.logger.Warn("discarding unparsable secret blob", zap.Error(err))
		return secretBlob{}, nil
	}
	return blob, nil
}

func (s *SecretStore) GetItem(ctx context.Context, keyHash string, chain model.ChainId, item string) (string, bool, error) {
	blob, err := s.load(ctx, keyHash)
	if err != nil {
		return "", false, err
	}
	chainItems, ok := blob[string(chain)]
	if !ok {
		return "", false, nil
	}
	value, ok := chainItems[item]
	return value, ok, nil
}

func (s *SecretStore) PutItem(ctx context.Context, keyHash string, chain model.ChainId, item string, value string) error {
	blob, err := s.load(ctx, keyHash)
	if err != nil {
		return err
	}
	if blob[string(chain)] == nil {
		blob[string(chain)] = map[string]string{}
	}
	blob[string(chain)][item] = value

	encoded, err := json.Marshal(blob)
	if err != nil {
		return errors.Wrap(err, "failed encoding secret blob")
	}
	return s.store.Put(ctx, storage.StoreSecrets, keyHash, string(encoded))
}

// Clear wipes the whole secret store, used on logout/reset.
func (s *SecretStore) Clear(ctx context.Context) error {
	return s.store.Clear(ctx, storage.StoreSecrets)
}
