package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const releaseScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

// RedisKeyPrefix namespaces every key written by the Redis backend.
const RedisKeyPrefix = "kargo:token:"

// NewRedisBackend returns the store and locker for carrier on client.
func NewRedisBackend(client redis.UniversalClient, carrier string) (*RedisStore, *RedisLocker) {
	return NewRedisStore(client, RedisKeyPrefix+carrier),
		NewRedisLocker(client, RedisKeyPrefix+carrier+":lock")
}

// RedisStore keeps every token of one carrier in a single Redis hash whose
// fields are cache keys and whose values use the file store's entry shape.
type RedisStore struct {
	client redis.UniversalClient
	hash   string
}

// NewRedisStore creates a store on the given hash key.
func NewRedisStore(client redis.UniversalClient, hash string) *RedisStore {
	return &RedisStore{client: client, hash: hash}
}

func (s *RedisStore) Get(ctx context.Context, key string) (Token, bool, error) {
	raw, err := s.client.HGet(ctx, s.hash, key).Result()
	if errors.Is(err, redis.Nil) {
		return Token{}, false, nil
	}
	if err != nil {
		return Token{}, false, fmt.Errorf("redis HGET %s: %w", s.hash, err)
	}
	var entry fileEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.Token == "" {
		return Token{}, false, nil
	}
	return Token{Value: entry.Token, ExpiresAt: time.Unix(entry.ExpiresAt, 0)}, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, tok Token) error {
	data, err := json.Marshal(fileEntry{Token: tok.Value, ExpiresAt: tok.ExpiresAt.Unix()})
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := s.client.HSet(ctx, s.hash, key, string(data)).Err(); err != nil {
		return fmt.Errorf("redis HSET %s: %w", s.hash, err)
	}
	return nil
}

func (s *RedisStore) All(ctx context.Context) (map[string]Token, error) {
	raw, err := s.client.HGetAll(ctx, s.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL %s: %w", s.hash, err)
	}
	out := make(map[string]Token, len(raw))
	for k, v := range raw {
		var entry fileEntry
		if err := json.Unmarshal([]byte(v), &entry); err != nil || entry.Token == "" {
			continue
		}
		out[k] = Token{Value: entry.Token, ExpiresAt: time.Unix(entry.ExpiresAt, 0)}
	}
	return out, nil
}

// RedisLocker is a SETNX lock with an owner id and a TTL, released with a
// compare-and-delete script so a holder never frees someone else's lock.
type RedisLocker struct {
	client     redis.UniversalClient
	key        string
	ttl        time.Duration
	retryDelay time.Duration
}

// NewRedisLocker creates a locker on key. The lock expires after 30s if its
// holder dies.
func NewRedisLocker(client redis.UniversalClient, key string) *RedisLocker {
	return &RedisLocker{
		client:     client,
		key:        key,
		ttl:        30 * time.Second,
		retryDelay: 25 * time.Millisecond,
	}
}

func (l *RedisLocker) Lock(ctx context.Context) (func(), error) {
	owner := uuid.NewString()
	for {
		acquired, err := l.client.SetNX(ctx, l.key, owner, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis SETNX %s: %w", l.key, err)
		}
		if acquired {
			return func() {
				// The caller's context may already be done.
				_ = l.client.Eval(context.Background(), releaseScript, []string{l.key}, owner).Err()
			}, nil
		}

		timer := time.NewTimer(l.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
