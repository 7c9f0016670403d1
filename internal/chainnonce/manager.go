// Package chainnonce manages per-chain, per-address EVM transaction
// nonces behind a Redis-backed distributed lock, adapted from
// payout-engine/internal/nonce/manager.go for the EVM chain adapter's
// nonce bookkeeping.
package chainnonce

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// Manager tracks nonces for many (chainID, address) pairs.
type Manager struct {
	redis   *redis.Client
	clients map[uint64]*ethclient.Client
	mu      sync.RWMutex
	lockTTL time.Duration
}

// NewManager dials Redis at addr and returns a ready Manager.
func NewManager(ctx context.Context, addr, password string, db int) (*Manager, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("chainnonce: redis connection: %w", err)
	}
	return &Manager{
		redis:   rdb,
		clients: make(map[uint64]*ethclient.Client),
		lockTTL: 30 * time.Second,
	}, nil
}

// AddChainClient registers the ethclient used to fetch on-chain nonces for
// chainID when the Redis cache misses.
func (m *Manager) AddChainClient(chainID uint64, client *ethclient.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[chainID] = client
}

// GetNonce acquires a distributed lock, resolves the next nonce (from the
// Redis cache or the chain), pre-increments it, and returns a release
// function the caller must invoke once the transaction using this nonce has
// been submitted (or failed).
func (m *Manager) GetNonce(ctx context.Context, chainID uint64, address common.Address) (uint64, func(), error) {
	key := fmt.Sprintf("nonce:%d:%s", chainID, address.Hex())
	lockKey := fmt.Sprintf("lock:%s", key)

	acquired, err := m.acquireLock(ctx, lockKey)
	if err != nil {
		return 0, nil, fmt.Errorf("chainnonce: acquire lock: %w", err)
	}
	if !acquired {
		return 0, nil, fmt.Errorf("chainnonce: nonce lock busy for %s on chain %d", address.Hex(), chainID)
	}
	releaseFn := func() { m.releaseLock(ctx, lockKey) }

	nonce, err := m.getNonceValue(ctx, chainID, address, key)
	if err != nil {
		releaseFn()
		return 0, nil, err
	}
	m.redis.Incr(ctx, key)

	return nonce, releaseFn, nil
}

func (m *Manager) getNonceValue(ctx context.Context, chainID uint64, address common.Address, key string) (uint64, error) {
	cached, err := m.redis.Get(ctx, key).Uint64()
	if err == nil {
		return cached, nil
	}

	m.mu.RLock()
	client, ok := m.clients[chainID]
	m.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("chainnonce: no client for chain %d", chainID)
	}

	onchain, err := client.PendingNonceAt(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("chainnonce: on-chain nonce: %w", err)
	}
	m.redis.Set(ctx, key, onchain, 10*time.Minute)
	return onchain, nil
}

// ResetNonce clears the cached nonce, used after a submission failure so
// the next attempt re-reads from the chain.
func (m *Manager) ResetNonce(ctx context.Context, chainID uint64, address common.Address) error {
	key := fmt.Sprintf("nonce:%d:%s", chainID, address.Hex())
	return m.redis.Del(ctx, key).Err()
}

func (m *Manager) acquireLock(ctx context.Context, key string) (bool, error) {
	result, err := m.redis.SetNX(ctx, key, "1", m.lockTTL).Result()
	if err != nil {
		return false, err
	}
	if result {
		return true, nil
	}
	for i := 0; i < 10; i++ {
		time.Sleep(100 * time.Millisecond)
		result, err = m.redis.SetNX(ctx, key, "1", m.lockTTL).Result()
		if err != nil {
			return false, err
		}
		if result {
			return true, nil
		}
	}
	return false, nil
}

func (m *Manager) releaseLock(ctx context.Context, key string) {
	if err := m.redis.Del(ctx, key).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to release nonce lock")
	}
}
