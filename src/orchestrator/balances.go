package orchestrator

import (
	"context"
	"fmt"
	"math/big"

	"github.com/go-redis/redis/v8"
	"github.com/veilpay/wallet-core/src/model"
	"go.uber.org/zap"
)

type BalanceScope string

const (
	BalancePublic   BalanceScope = "public"
	BalanceShielded BalanceScope = "shielded"
)

const nativeTokenKey = "native"

// BalanceCache is the downstream read-through balance cache. The
// orchestrator owns invalidation; readers fall through to their fetcher
// on a miss. Redis being down degrades to fetch-every-time, never to an
// error.
type BalanceCache struct {
	client *redis.Client
	logger *zap.Logger
}

func NewBalanceCache(client *redis.Client, logger *zap.Logger) *BalanceCache {
	return &BalanceCache{
		client: client,
		logger: logger.With(zap.String("component", "balance_cache")),
	}
}

func tokenKey(token model.Token) string {
	if token.IsNative() {
		return nativeTokenKey
	}
	return token.Address
}

func (b *BalanceCache) key(account model.AccountAddr, chain model.ChainId, scope BalanceScope, token model.Token) string {
	return fmt.Sprintf("veil:balance:%s:%s:%s:%s", account, chain, scope, tokenKey(token))
}

// Get returns the cached balance or fetches and caches it.
func (b *BalanceCache) Get(ctx context.Context, account model.AccountAddr, chain model.ChainId,
	scope BalanceScope, token model.Token, fetch func(ctx context.Context) (*big.Int, error)) (*big.Int, error) {
	key := b.key(account, chain, scope, token)
	cached, err := b.client.Get(ctx, key).Result()
	if err == nil {
		if value, ok := new(big.Int).SetString(cached, 10); ok {
			return value, nil
		}
	} else if err != redis.Nil {
		b.logger.Warn("balance cache read degraded", zap.Error(err))
	}

	value, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := b.client.Set(ctx, key, value.String(), 0).Err(); err != nil {
		b.logger.Warn("balance cache write degraded", zap.Error(err))
	}
	return value, nil
}

// InvalidateToken drops both the shielded and public balance of the
// token for the pair.
func (b *BalanceCache) InvalidateToken(ctx context.Context, account model.AccountAddr, chain model.ChainId, token model.Token) {
	b.del(ctx,
		b.key(account, chain, BalancePublic, token),
		b.key(account, chain, BalanceShielded, token))
}

// InvalidateNative drops the public native balance; gas moves it on
// every submission, successful or not.
func (b *BalanceCache) InvalidateNative(ctx context.Context, account model.AccountAddr, chain model.ChainId) {
	b.del(ctx, b.key(account, chain, BalancePublic, model.NativeToken()))
}

func (b *BalanceCache) del(ctx context.Context, keys ...string) {
	if err := b.client.Del(ctx, keys...).Err(); err != nil {
		b.logger.Warn("balance cache invalidation degraded", zap.Error(err))
	}
}
