package token

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
)

// CacheFileName and LockFileName return the per-carrier file names used by
// the file backend.
func CacheFileName(carrier string) string { return carrier + "_token_cache.json" }
func LockFileName(carrier string) string  { return carrier + "_token_refresh.lock" }

// NewFileBackend returns the store and locker for carrier under dir. An empty
// dir means os.TempDir().
func NewFileBackend(dir, carrier string) (*FileStore, *FileLocker) {
	if dir == "" {
		dir = os.TempDir()
	}
	return NewFileStore(filepath.Join(dir, CacheFileName(carrier))),
		NewFileLocker(filepath.Join(dir, LockFileName(carrier)))
}

type fileEntry struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// FileStore keeps every token of one carrier in a single JSON document
// shaped {key: {token, expiresAt}} with expiresAt in epoch seconds. A missing
// or corrupt file reads as an empty store.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path. The file is created lazily on
// the first Put.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(_ context.Context, key string) (Token, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.read()[key]
	if !ok || entry.Token == "" {
		return Token{}, false, nil
	}
	return Token{Value: entry.Token, ExpiresAt: time.Unix(entry.ExpiresAt, 0)}, true, nil
}

// Put reads the whole document, overwrites key and atomically replaces the
// file. Callers serialize writers across processes with a FileLocker.
func (s *FileStore) Put(_ context.Context, key string, tok Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.read()
	entries[key] = fileEntry{Token: tok.Value, ExpiresAt: tok.ExpiresAt.Unix()}

	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding token cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating token cache dir: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing token cache: %w", err)
	}
	return nil
}

func (s *FileStore) All(_ context.Context) (map[string]Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Token)
	for k, e := range s.read() {
		if e.Token == "" {
			continue
		}
		out[k] = Token{Value: e.Token, ExpiresAt: time.Unix(e.ExpiresAt, 0)}
	}
	return out, nil
}

func (s *FileStore) read() map[string]fileEntry {
	entries := make(map[string]fileEntry)
	raw, err := os.ReadFile(s.path)
	if err != nil || len(raw) == 0 {
		return entries
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return make(map[string]fileEntry)
	}
	return entries
}

// FileLocker is an exclusive advisory lock on a sibling lock file. Each Lock
// call opens its own descriptor, so goroutines of one process exclude each
// other as well as other processes.
type FileLocker struct {
	path       string
	retryDelay time.Duration
}

// NewFileLocker creates a locker on path. The file is created on first use.
func NewFileLocker(path string) *FileLocker {
	return &FileLocker{path: path, retryDelay: 25 * time.Millisecond}
}

// Path returns the lock file path.
func (l *FileLocker) Path() string {
	return l.path
}

func (l *FileLocker) Lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("creating lock dir: %w", err)
	}
	fl := flock.New(l.path)
	locked, err := fl.TryLockContext(ctx, l.retryDelay)
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", l.path, err)
	}
	if !locked {
		return nil, fmt.Errorf("locking %s: not acquired", l.path)
	}
	return func() { _ = fl.Unlock() }, nil
}
