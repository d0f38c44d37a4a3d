package hepsijet

import (
	"context"

	"github.com/tournevent/kargo/pkg/shipper"
)

// APIClient defines the raw HepsiJet REST operations. The Client layers
// validation, token lifecycle and normalization on top of it.
type APIClient interface {
	// GetToken exchanges basic credentials for an X-Auth-Token.
	GetToken(ctx context.Context, baseURL, username, password string) (string, error)

	// SendDeliveryOrder creates a delivery order.
	SendDeliveryOrder(ctx context.Context, baseURL, token string, body shipper.Payload) (shipper.Result, error)

	// GetDeliveryTracking returns the tracking transactions of a delivery.
	GetDeliveryTracking(ctx context.Context, baseURL, token, customerDeliveryNo string) (shipper.Result, error)

	// CreateTrackingLink issues a public tracking link.
	CreateTrackingLink(ctx context.Context, baseURL, token string, body shipper.Payload) (shipper.Result, error)

	// DeleteDeliveryOrder cancels a delivery by barcode.
	DeleteDeliveryOrder(ctx context.Context, baseURL, token, barcode string) (shipper.Result, error)
}
