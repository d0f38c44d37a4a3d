package token

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Defaults used when no option overrides them.
const (
	DefaultSkew        = 60 * time.Second
	DefaultTTL         = 30 * time.Minute
	DefaultLockTimeout = 30 * time.Second
)

// Token event names reported to a Recorder.
const (
	EventMemoryHit    = "memory_hit"
	EventStoreHit     = "store_hit"
	EventFetch        = "fetch"
	EventFetchError   = "fetch_error"
	EventRejected     = "rejected"
	EventLockDegraded = "lock_degraded"
	EventStoreError   = "store_error"
)

// ErrRejected marks a call whose token was refused by the carrier even after
// a forced refresh.
var ErrRejected = errors.New("token rejected")

// AcquireError reports a failed credential exchange.
type AcquireError struct {
	Carrier string
	Cause   error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("%s token alinamadi: %v", e.Carrier, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *AcquireError) Unwrap() error {
	return e.Cause
}

// Fetcher performs the network credential exchange. A zero ExpiresAt means
// the carrier did not report one; the manager then applies its TTL.
type Fetcher func(ctx context.Context) (Token, error)

// Recorder receives token lifecycle events. telemetry.Metrics satisfies it.
type Recorder interface {
	RecordTokenEvent(carrier, event string)
}

type nopRecorder struct{}

func (nopRecorder) RecordTokenEvent(string, string) {}

// Option configures a Manager.
type Option func(*Manager)

// WithSkew sets the safety margin before nominal expiry.
func WithSkew(d time.Duration) Option {
	return func(m *Manager) { m.skew = d }
}

// WithTTL sets the lifetime assumed when a fetcher reports no expiry.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) { m.ttl = d }
}

// WithLockTimeout bounds how long a refresh waits for the cross-process lock
// before degrading to an unlocked refresh. Zero waits as long as ctx allows.
func WithLockTimeout(d time.Duration) Option {
	return func(m *Manager) { m.lockTimeout = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *otelzap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRecorder sets the event recorder.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithRejection sets the predicate that decides whether a call error means
// the carrier refused the token. The default only matches ErrRejected.
func WithRejection(fn func(error) bool) Option {
	return func(m *Manager) {
		if fn != nil {
			m.rejected = fn
		}
	}
}

// Manager owns the token lifecycle for one carrier: in-memory cache, shared
// store, lock-guarded refresh and the single retry after a rejection.
type Manager struct {
	carrier     string
	store       Store
	locker      Locker
	skew        time.Duration
	ttl         time.Duration
	lockTimeout time.Duration
	now         func() time.Time
	logger      *otelzap.Logger
	recorder    Recorder
	rejected    func(error) bool

	mu     sync.Mutex
	tokens map[string]Token
	group  singleflight.Group
}

// NewManager creates a manager. A nil store keeps tokens in process memory
// only; a nil locker disables cross-process locking.
func NewManager(carrier string, store Store, locker Locker, opts ...Option) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	if locker == nil {
		locker = NopLocker{}
	}
	m := &Manager{
		carrier:     carrier,
		store:       store,
		locker:      locker,
		skew:        DefaultSkew,
		ttl:         DefaultTTL,
		lockTimeout: DefaultLockTimeout,
		now:         time.Now,
		logger:      otelzap.New(zap.NewNop()),
		recorder:    nopRecorder{},
		rejected:    func(err error) bool { return errors.Is(err, ErrRejected) },
		tokens:      make(map[string]Token),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Carrier returns the carrier this manager serves.
func (m *Manager) Carrier() string {
	return m.carrier
}

// Store returns the shared token store.
func (m *Manager) Store() Store {
	return m.store
}

// Token returns a usable token for key. A valid in-memory token is returned
// without I/O; otherwise the token is adopted from the store or fetched.
func (m *Manager) Token(ctx context.Context, key string, fetch Fetcher) (Token, error) {
	if tok, ok := m.cached(key, Token{}); ok {
		m.recorder.RecordTokenEvent(m.carrier, EventMemoryHit)
		return tok, nil
	}
	return m.refresh(ctx, key, Token{}, fetch)
}

// Refresh discards stale, the token the carrier just refused, and returns a
// different usable token. Cached and stored tokens are only reused when they
// were issued after stale, that is a different value expiring later;
// otherwise a new one is fetched.
func (m *Manager) Refresh(ctx context.Context, key string, stale Token, fetch Fetcher) (Token, error) {
	m.forget(key, stale.Value)
	if tok, ok := m.cached(key, stale); ok {
		return tok, nil
	}
	return m.refresh(ctx, key, stale, fetch)
}

// Do runs call with a usable token. If the carrier refuses the token, the
// token is force-refreshed and call is replayed exactly once.
func (m *Manager) Do(ctx context.Context, key string, fetch Fetcher, call func(ctx context.Context, token string) error) error {
	tok, err := m.Token(ctx, key, fetch)
	if err != nil {
		return err
	}

	err = call(ctx, tok.Value)
	if err == nil || !m.rejected(err) {
		return err
	}

	m.recorder.RecordTokenEvent(m.carrier, EventRejected)
	m.logger.Ctx(ctx).Info("Token rejected, refreshing", zap.String("carrier", m.carrier))

	fresh, err := m.Refresh(ctx, key, tok, fetch)
	if err != nil {
		return err
	}

	if err := call(ctx, fresh.Value); err != nil {
		if m.rejected(err) {
			m.recorder.RecordTokenEvent(m.carrier, EventRejected)
			return fmt.Errorf("%w: %w", ErrRejected, err)
		}
		return err
	}
	return nil
}

func (m *Manager) refresh(ctx context.Context, key string, stale Token, fetch Fetcher) (Token, error) {
	group := key
	if stale.Value != "" {
		group = "force:" + key
	}
	v, err, _ := m.group.Do(group, func() (any, error) {
		return m.refreshLocked(ctx, key, stale, fetch)
	})
	if err != nil {
		return Token{}, err
	}
	return v.(Token), nil
}

func (m *Manager) refreshLocked(ctx context.Context, key string, stale Token, fetch Fetcher) (Token, error) {
	// A concurrent refresh may have finished while we waited.
	if tok, ok := m.cached(key, stale); ok {
		return tok, nil
	}

	lockCtx, cancel := ctx, context.CancelFunc(func() {})
	if m.lockTimeout > 0 {
		lockCtx, cancel = context.WithTimeout(ctx, m.lockTimeout)
	}
	unlock, err := m.locker.Lock(lockCtx)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return Token{}, ctx.Err()
		}
		m.recorder.RecordTokenEvent(m.carrier, EventLockDegraded)
		m.logger.Ctx(ctx).Warn("Token lock unavailable, refreshing without lock",
			zap.String("carrier", m.carrier),
			zap.Error(err),
		)
		if tok, ok := m.adopt(ctx, key, stale); ok {
			return tok, nil
		}
		return m.fetchAndStore(ctx, key, fetch)
	}
	defer unlock()

	if tok, ok := m.adopt(ctx, key, stale); ok {
		return tok, nil
	}
	return m.fetchAndStore(ctx, key, fetch)
}

// adopt loads a usable token from the store into memory.
func (m *Manager) adopt(ctx context.Context, key string, stale Token) (Token, bool) {
	tok, ok, err := m.store.Get(ctx, key)
	if err != nil {
		m.recorder.RecordTokenEvent(m.carrier, EventStoreError)
		m.logger.Ctx(ctx).Warn("Token store read failed",
			zap.String("carrier", m.carrier),
			zap.Error(err),
		)
		return Token{}, false
	}
	if !ok || !tok.Usable(m.now(), m.skew) || !supersedes(tok, stale) {
		return Token{}, false
	}
	m.remember(key, tok)
	m.recorder.RecordTokenEvent(m.carrier, EventStoreHit)
	m.logger.Ctx(ctx).Debug("Token adopted from store",
		zap.String("carrier", m.carrier),
		zap.Time("expires_at", tok.ExpiresAt),
	)
	return tok, true
}

func (m *Manager) fetchAndStore(ctx context.Context, key string, fetch Fetcher) (Token, error) {
	tok, err := fetch(ctx)
	if err == nil && tok.Value == "" {
		err = errors.New("empty token")
	}
	if err != nil {
		m.recorder.RecordTokenEvent(m.carrier, EventFetchError)
		return Token{}, &AcquireError{Carrier: m.carrier, Cause: err}
	}
	if tok.ExpiresAt.IsZero() {
		tok.ExpiresAt = m.now().Add(m.ttl)
	}

	m.remember(key, tok)
	if err := m.store.Put(ctx, key, tok); err != nil {
		m.recorder.RecordTokenEvent(m.carrier, EventStoreError)
		m.logger.Ctx(ctx).Warn("Token store write failed",
			zap.String("carrier", m.carrier),
			zap.Error(err),
		)
	}

	m.recorder.RecordTokenEvent(m.carrier, EventFetch)
	m.logger.Ctx(ctx).Info("Token refreshed",
		zap.String("carrier", m.carrier),
		zap.Time("expires_at", tok.ExpiresAt),
	)
	return tok, nil
}

func (m *Manager) cached(key string, stale Token) (Token, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[key]
	if !ok || !supersedes(tok, stale) || !tok.Usable(m.now(), m.skew) {
		return Token{}, false
	}
	return tok, true
}

// supersedes reports whether tok may be used in place of stale. Without a
// stale token any token qualifies; after a rejection only one issued later
// does.
func supersedes(tok, stale Token) bool {
	if stale.Value == "" {
		return true
	}
	return tok.Value != stale.Value && tok.ExpiresAt.After(stale.ExpiresAt)
}

func (m *Manager) remember(key string, tok Token) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key] = tok
}

func (m *Manager) forget(key, stale string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tok, ok := m.tokens[key]; ok && tok.Value == stale {
		delete(m.tokens, key)
	}
}
