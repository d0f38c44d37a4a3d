// Package shipper provides an abstraction layer for shipping carriers.
package shipper

import (
	"context"
)

// Carrier defines the interface that all shipping carriers must implement.
type Carrier interface {
	// Name returns the carrier identifier (e.g., "hepsijet", "dhl", "ups").
	Name() string

	// Send creates a shipment (or a return shipment when req.Return is set).
	// Carriers without reverse logistics fail a return request with an
	// *UnsupportedError before any validation or network call.
	Send(ctx context.Context, req *SendRequest) (Result, error)
}

// Tracker is implemented by carriers that can query a shipment's state.
type Tracker interface {
	Track(ctx context.Context, req *TrackRequest) (Result, error)
}

// Canceller is implemented by carriers that can delete a label or barcode.
type Canceller interface {
	Cancel(ctx context.Context, req *CancelRequest) (Result, error)
}

// TrackingLinker is implemented by carriers that can issue a public tracking link.
type TrackingLinker interface {
	CreateTrackingLink(ctx context.Context, req *LinkRequest) (Result, error)
}
