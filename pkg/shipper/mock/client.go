// Package mock provides a mock shipper implementation for testing.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tournevent/kargo/pkg/shipper"
)

// Client is a mock carrier for testing. It implements every capability and
// records the requests it received.
type Client struct {
	name string

	// Optional hooks override the default canned behavior.
	OnSend   func(ctx context.Context, req *shipper.SendRequest) (shipper.Result, error)
	OnTrack  func(ctx context.Context, req *shipper.TrackRequest) (shipper.Result, error)
	OnCancel func(ctx context.Context, req *shipper.CancelRequest) (shipper.Result, error)

	mu      sync.Mutex
	sends   []*shipper.SendRequest
	tracks  []*shipper.TrackRequest
	cancels []*shipper.CancelRequest
}

// New creates a new mock carrier.
func New(name string) *Client {
	return &Client{name: name}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return c.name
}

// Send returns a canned tracking id unless OnSend is set.
func (c *Client) Send(ctx context.Context, req *shipper.SendRequest) (shipper.Result, error) {
	c.mu.Lock()
	c.sends = append(c.sends, req)
	c.mu.Unlock()

	if c.OnSend != nil {
		return c.OnSend(ctx, req)
	}
	return shipper.Result{
		"trackingNo": fmt.Sprintf("%s-%d", c.name, time.Now().UnixNano()),
		"return":     req.Return,
	}, nil
}

// Track echoes the reference unless OnTrack is set.
func (c *Client) Track(ctx context.Context, req *shipper.TrackRequest) (shipper.Result, error) {
	c.mu.Lock()
	c.tracks = append(c.tracks, req)
	c.mu.Unlock()

	if c.OnTrack != nil {
		return c.OnTrack(ctx, req)
	}
	return shipper.Result{
		"reference": req.Reference,
		"status":    "IN_TRANSIT",
	}, nil
}

// Cancel acknowledges the cancellation unless OnCancel is set.
func (c *Client) Cancel(ctx context.Context, req *shipper.CancelRequest) (shipper.Result, error) {
	c.mu.Lock()
	c.cancels = append(c.cancels, req)
	c.mu.Unlock()

	if c.OnCancel != nil {
		return c.OnCancel(ctx, req)
	}
	return shipper.Result{"reference": req.Reference, "cancelled": true}, nil
}

// Sends returns the send requests received so far.
func (c *Client) Sends() []*shipper.SendRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*shipper.SendRequest(nil), c.sends...)
}

// Tracks returns the track requests received so far.
func (c *Client) Tracks() []*shipper.TrackRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*shipper.TrackRequest(nil), c.tracks...)
}

// Cancels returns the cancel requests received so far.
func (c *Client) Cancels() []*shipper.CancelRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*shipper.CancelRequest(nil), c.cancels...)
}

// SendOnly is a carrier with no optional capabilities.
type SendOnly struct {
	Label string
}

// Name returns the carrier name.
func (s SendOnly) Name() string { return s.Label }

// Send always succeeds with an empty result.
func (s SendOnly) Send(context.Context, *shipper.SendRequest) (shipper.Result, error) {
	return shipper.Result{}, nil
}
