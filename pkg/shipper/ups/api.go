package ups

import (
	"context"

	"github.com/tournevent/kargo/pkg/shipper"
)

// Credentials identify a UPS Turkey web service user.
type Credentials struct {
	CustomerNumber string
	Username       string
	Password       string
}

// APIClient defines the raw UPS Turkey SOAP operations. The shipment and
// query services issue separate session ids.
type APIClient interface {
	// LoginShipment opens a session on the shipment service (Login_Type1).
	LoginShipment(ctx context.Context, creds Credentials) (string, error)

	// LoginQuery opens a session on the query service (Login_V1).
	LoginQuery(ctx context.Context, creds Credentials) (string, error)

	// CreateShipment calls CreateShipment_Type2.
	CreateShipment(ctx context.Context, sessionID string, shipment shipper.Payload) (shipper.Result, error)

	// GetTransactions calls GetTransactionsByTrackingNumber_V1.
	GetTransactions(ctx context.Context, sessionID, trackingNo string) (shipper.Result, error)
}
