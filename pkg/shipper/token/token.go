// Package token manages bearer tokens for carriers that authenticate with a
// credential exchange. Tokens are cached in memory, shared across processes
// through a Store, and refreshed under a per-carrier Locker.
package token

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Token is a cached bearer credential.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Usable reports whether the token can still be sent at now, keeping skew as
// a margin before its nominal expiry.
func (t Token) Usable(now time.Time, skew time.Duration) bool {
	return t.Value != "" && now.Add(skew).Before(t.ExpiresAt)
}

// Store persists tokens by cache key so other processes can adopt them.
type Store interface {
	// Get returns the stored token for key. A missing or unreadable entry
	// yields ok == false and no error.
	Get(ctx context.Context, key string) (tok Token, ok bool, err error)

	// Put overwrites the entry for key, leaving other keys untouched.
	Put(ctx context.Context, key string, tok Token) error

	// All returns every stored entry.
	All(ctx context.Context) (map[string]Token, error)
}

// Locker serializes token refreshes for one carrier across processes.
type Locker interface {
	// Lock blocks until the lock is held or ctx ends.
	Lock(ctx context.Context) (unlock func(), err error)
}

// Key hashes the account fields that scope a token into a stable cache key.
func Key(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

var expiryLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseExpiry parses a carrier-reported expiry. Timestamps without a zone
// are read in local time. Anything unparseable yields the zero time, which
// makes the Manager apply its TTL.
func ParseExpiry(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range expiryLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil && t.Unix() > 0 {
			return t
		}
	}
	return time.Time{}
}

// Backend pairs the store and locker a Manager shares with other processes.
type Backend struct {
	Store  Store
	Locker Locker
}

// FileBackend is NewFileBackend as a Backend.
func FileBackend(dir, carrier string) Backend {
	store, locker := NewFileBackend(dir, carrier)
	return Backend{Store: store, Locker: locker}
}

// RedisBackend is NewRedisBackend as a Backend.
func RedisBackend(client redis.UniversalClient, carrier string) Backend {
	store, locker := NewRedisBackend(client, carrier)
	return Backend{Store: store, Locker: locker}
}
