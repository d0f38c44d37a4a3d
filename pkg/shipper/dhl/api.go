package dhl

import (
	"context"

	"github.com/tournevent/kargo/pkg/shipper"
)

// Credentials identify an MNG API customer. ClientID and ClientSecret are the
// API gateway keys sent on every request.
type Credentials struct {
	CustomerNumber string
	Password       string
	ClientID       string
	ClientSecret   string
}

// TokenResponse is the reply of the token exchange.
type TokenResponse struct {
	JWT string
	// JWTExpireDate is the raw expiry string, empty when not reported.
	JWTExpireDate string
}

// APIClient defines the raw DHL/MNG REST operations.
type APIClient interface {
	// GetToken exchanges customer credentials for a bearer token.
	GetToken(ctx context.Context, baseURL string, creds Credentials) (*TokenResponse, error)

	// CreateOrder creates an outbound order.
	CreateOrder(ctx context.Context, baseURL string, creds Credentials, token string, body shipper.Payload) (shipper.Result, error)

	// CreateReturnOrder creates a return order.
	CreateReturnOrder(ctx context.Context, baseURL string, creds Credentials, token string, body shipper.Payload) (shipper.Result, error)

	// GetShipment returns the shipment document of a tracking number.
	GetShipment(ctx context.Context, baseURL string, creds Credentials, token, trackingNo string) (any, error)

	// TrackShipment returns the movement history of a tracking number.
	TrackShipment(ctx context.Context, baseURL string, creds Credentials, token, trackingNo string) (any, error)
}
