package aras

import (
	"context"

	"github.com/tournevent/kargo/pkg/shipper"
)

// Credentials identify an Aras Kargo customer.
type Credentials struct {
	Username     string
	Password     string
	CustomerCode string
}

// APIClient defines the raw Aras Kargo SOAP operations. Orders and
// cancellations go to the order service, queries to the integration service.
type APIClient interface {
	// SetOrder submits one order.
	SetOrder(ctx context.Context, creds Credentials, order shipper.Payload) (shipper.Result, error)

	// CancelDispatch cancels an order by integration code.
	CancelDispatch(ctx context.Context, creds Credentials, integrationCode string) (shipper.Result, error)

	// GetQueryXML runs a query and returns the raw XML document it answers with.
	GetQueryXML(ctx context.Context, creds Credentials, queryType int, integrationCode string) (string, error)
}
