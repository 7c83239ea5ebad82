package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/cloudmere/avro"
)

// RedisBackend shares a schema cache across reader processes. Since a
// parsed Schema tree is a Go pointer graph that can't cross a process
// boundary, the value stored in Redis is the schema's own raw JSON
// (which round-trips byte-for-byte as the cache key); a hit re-parses
// locally, which is still far cheaper than no cache at all when many
// processes are reading files sharing one writer's schema, and lets
// the slow path (re-parsing once per process instead of once per
// file) stay correct without inventing a wire format for Schema.
type RedisBackend struct {
	client *redis.Client
	ttl    time.Duration
	local  *LRUBackend // avoids re-parsing within one process
}

var _ Backend = (*RedisBackend)(nil)

// NewRedis returns a Backend backed by a Redis server at addr, with
// entries expiring after ttl (zero means no expiry).
func NewRedis(addr string, ttl time.Duration, localSize int) *RedisBackend {
	return &RedisBackend{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
		local:  NewLRU(localSize),
	}
}

func (b *RedisBackend) Get(key string) (avro.Schema, bool) {
	if s, ok := b.local.Get(key); ok {
		return s, true
	}
	data, err := b.client.Get(context.Background(), redisKey(key)).Bytes()
	if err != nil {
		return nil, false
	}
	s, err := avro.ParseSchema(data)
	if err != nil {
		return nil, false
	}
	b.local.Add(key, s)
	return s, true
}

func (b *RedisBackend) Add(key string, s avro.Schema) {
	b.local.Add(key, s)
	b.client.Set(context.Background(), redisKey(key), []byte(key), b.ttl)
}

func redisKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "avro-schema:" + hex.EncodeToString(sum[:])
}
