package secrets

import (
	"context"
	"fmt"
	"sync"

	"github.com/veilpay/wallet-core/src/model"
	"golang.org/x/sync/singleflight"
)

// InitFunc builds a crypto client for the pair. Initialization is
// expensive (key derivation, on-chain scan) which is why the registry
// collapses concurrent requests.
type InitFunc func(ctx context.Context, chain model.ChainId, keyHash string) (interface{}, error)

// ClientRegistry caches crypto clients keyed by (chain, key-hash). At
// most one initialization per pair is ever in flight; callers arriving
// while one runs await the same result. Entries live until explicitly
// invalidated on an account or chain switch.
type ClientRegistry struct {
	init InitFunc

	mu      sync.Mutex
	clients map[string]interface{}
	group   singleflight.Group
}

func NewClientRegistry(init InitFunc) *ClientRegistry {
	return &ClientRegistry{
		init:    init,
		clients: map[string]interface{}{},
	}
}

func registryKey(chain model.ChainId, keyHash string) string {
	return fmt.Sprintf("%s/%s", chain, keyHash)
}

func (r *ClientRegistry) Get(ctx context.Context, chain model.ChainId, keyHash string) (interface{}, error) {
	key := registryKey(chain, keyHash)
	r.mu.Lock()
	if client, ok := r.clients[key]; ok {
		r.mu.Unlock()
		return client, nil
	}
	r.mu.Unlock()

	client, err, _ := r.group.Do(key, func() (interface{}, error) {
		created, err := r.init(ctx, chain, keyHash)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.clients[key] = created
		r.mu.Unlock()
		return created, nil
	})
	return client, err
}

func (r *ClientRegistry) Invalidate(chain model.ChainId, keyHash string) {
	key := registryKey(chain, keyHash)
	r.mu.Lock()
	delete(r.clients, key)
	r.mu.Unlock()
	r.group.Forget(key)
}
