package shipper

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry manages registered shipping carriers.
type Registry struct {
	carriers map[string]Carrier
	mu       sync.RWMutex
}

// NewRegistry creates a new carrier registry.
func NewRegistry() *Registry {
	return &Registry{
		carriers: make(map[string]Carrier),
	}
}

// Register adds a carrier to the registry, replacing any with the same name.
func (r *Registry) Register(c Carrier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carriers[c.Name()] = c
}

// Get returns a carrier by name.
func (r *Registry) Get(name string) (Carrier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.carriers[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrCarrierNotFound, name)
}

// All returns all registered carriers.
func (r *Registry) All() []Carrier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Carrier, 0, len(r.carriers))
	for _, c := range r.carriers {
		result = append(result, c)
	}
	return result
}

// Names returns the sorted names of all registered carriers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.carriers))
	for name := range r.carriers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered carriers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.carriers)
}

// Send dispatches a send request to the named carrier.
func (r *Registry) Send(ctx context.Context, name string, req *SendRequest) (Result, error) {
	c, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, req)
}

// Track dispatches a tracking request to the named carrier. Carriers that do
// not implement Tracker fail with an *UnsupportedError.
func (r *Registry) Track(ctx context.Context, name string, req *TrackRequest) (Result, error) {
	c, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	t, ok := c.(Tracker)
	if !ok {
		return nil, &UnsupportedError{Carrier: name, Operation: OpTrack}
	}
	return t.Track(ctx, req)
}

// Cancel dispatches a cancel request to the named carrier. Carriers that do
// not implement Canceller fail with an *UnsupportedError.
func (r *Registry) Cancel(ctx context.Context, name string, req *CancelRequest) (Result, error) {
	c, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	cc, ok := c.(Canceller)
	if !ok {
		return nil, &UnsupportedError{Carrier: name, Operation: OpCancel}
	}
	return cc.Cancel(ctx, req)
}
