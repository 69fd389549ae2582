// AngelaMos | 2026
// store_memory.go

package entitlement

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const memoryStoreSize = 16384

// MemoryStore is an in-process CacheStore for single-instance deployments
// and tests. The TTL is fixed at construction because the expirable LRU
// applies one TTL per cache; Set ignores its ttl argument.
type MemoryStore struct {
	lru *expirable.LRU[string, []byte]
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		lru: expirable.NewLRU[string, []byte](memoryStoreSize, nil, ttl),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	if data, ok := s.lru.Get(key); ok {
		return data, nil
	}
	return nil, ErrCacheMiss
}

func (s *MemoryStore) Set(
	_ context.Context,
	key string,
	value []byte,
	_ time.Duration,
) error {
	s.lru.Add(key, value)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.lru.Remove(key)
	return nil
}

func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	for _, key := range s.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.lru.Remove(key)
		}
	}
	return nil
}
