package dhl

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/kargo/pkg/shipper"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors bool

	OnGetToken          func(ctx context.Context, baseURL string, creds Credentials) (*TokenResponse, error)
	OnCreateOrder       func(ctx context.Context, baseURL string, creds Credentials, token string, body shipper.Payload) (shipper.Result, error)
	OnCreateReturnOrder func(ctx context.Context, baseURL string, creds Credentials, token string, body shipper.Payload) (shipper.Result, error)
	OnGetShipment       func(ctx context.Context, baseURL string, creds Credentials, token, trackingNo string) (any, error)
	OnTrackShipment     func(ctx context.Context, baseURL string, creds Credentials, token, trackingNo string) (any, error)

	tokenCalls atomic.Int32
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// TokenCalls returns how many token exchanges were made.
func (m *MockAPIClient) TokenCalls() int {
	return int(m.tokenCalls.Load())
}

func (m *MockAPIClient) simulated() error {
	if m.SimulateErrors {
		return &shipper.TransportError{StatusCode: 500, Message: "Simulated API error"}
	}
	return nil
}

// GetToken returns a random token valid for one hour.
func (m *MockAPIClient) GetToken(ctx context.Context, baseURL string, creds Credentials) (*TokenResponse, error) {
	m.tokenCalls.Add(1)
	if err := m.simulated(); err != nil {
		return nil, err
	}
	if m.OnGetToken != nil {
		return m.OnGetToken(ctx, baseURL, creds)
	}
	return &TokenResponse{
		JWT:           "mock-" + uuid.NewString(),
		JWTExpireDate: time.Now().Add(time.Hour).Format(time.RFC3339),
	}, nil
}

// CreateOrder echoes the order reference.
func (m *MockAPIClient) CreateOrder(ctx context.Context, baseURL string, creds Credentials, token string, body shipper.Payload) (shipper.Result, error) {
	if err := m.simulated(); err != nil {
		return nil, err
	}
	if m.OnCreateOrder != nil {
		return m.OnCreateOrder(ctx, baseURL, creds, token, body)
	}
	return orderResult(body), nil
}

// CreateReturnOrder echoes the order reference.
func (m *MockAPIClient) CreateReturnOrder(ctx context.Context, baseURL string, creds Credentials, token string, body shipper.Payload) (shipper.Result, error) {
	if err := m.simulated(); err != nil {
		return nil, err
	}
	if m.OnCreateReturnOrder != nil {
		return m.OnCreateReturnOrder(ctx, baseURL, creds, token, body)
	}
	return orderResult(body), nil
}

// GetShipment returns a delivered shipment.
func (m *MockAPIClient) GetShipment(ctx context.Context, baseURL string, creds Credentials, token, trackingNo string) (any, error) {
	if err := m.simulated(); err != nil {
		return nil, err
	}
	if m.OnGetShipment != nil {
		return m.OnGetShipment(ctx, baseURL, creds, token, trackingNo)
	}
	return []any{map[string]any{
		"shipment": map[string]any{
			"shipmentId":         trackingNo,
			"shipmentStatusCode": "7",
			"totalDesi":          "1",
			"finalTotal":         "0",
			"shipmentDateTime":   time.Now().Format("2006-01-02T15:04:05"),
		},
	}}, nil
}

// TrackShipment returns a single movement.
func (m *MockAPIClient) TrackShipment(ctx context.Context, baseURL string, creds Credentials, token, trackingNo string) (any, error) {
	if err := m.simulated(); err != nil {
		return nil, err
	}
	if m.OnTrackShipment != nil {
		return m.OnTrackShipment(ctx, baseURL, creds, token, trackingNo)
	}
	return []any{map[string]any{"shipmentId": trackingNo, "eventStatus": "TESLIM_EDILDI"}}, nil
}

func orderResult(body shipper.Payload) shipper.Result {
	return shipper.Result{
		"orderInvoiceId":     uuid.NewString(),
		"referenceId":        shipper.LookupString(body, "order", "referenceId"),
		"orderInvoiceDetail": []any{},
	}
}
