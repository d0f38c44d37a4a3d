package hepsijet

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tournevent/kargo/pkg/shipper"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors bool

	OnGetToken            func(ctx context.Context, baseURL, username, password string) (string, error)
	OnSendDeliveryOrder   func(ctx context.Context, baseURL, token string, body shipper.Payload) (shipper.Result, error)
	OnGetDeliveryTracking func(ctx context.Context, baseURL, token, customerDeliveryNo string) (shipper.Result, error)
	OnCreateTrackingLink  func(ctx context.Context, baseURL, token string, body shipper.Payload) (shipper.Result, error)
	OnDeleteDeliveryOrder func(ctx context.Context, baseURL, token, barcode string) (shipper.Result, error)

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

// GetToken returns a random token.
func (m *MockAPIClient) GetToken(ctx context.Context, baseURL, username, password string) (string, error) {
	m.tokenCalls.Add(1)
	if err := m.simulated(); err != nil {
		return "", err
	}
	if m.OnGetToken != nil {
		return m.OnGetToken(ctx, baseURL, username, password)
	}
	return "mock-" + uuid.NewString(), nil
}

// SendDeliveryOrder echoes the delivery number.
func (m *MockAPIClient) SendDeliveryOrder(ctx context.Context, baseURL, token string, body shipper.Payload) (shipper.Result, error) {
	if err := m.simulated(); err != nil {
		return nil, err
	}
	if m.OnSendDeliveryOrder != nil {
		return m.OnSendDeliveryOrder(ctx, baseURL, token, body)
	}
	return shipper.Result{
		"status": "OK",
		"data": map[string]any{
			"customerDeliveryNo": shipper.LookupString(body, "delivery", "customerDeliveryNo"),
		},
	}, nil
}

// GetDeliveryTracking returns an empty transaction list.
func (m *MockAPIClient) GetDeliveryTracking(ctx context.Context, baseURL, token, customerDeliveryNo string) (shipper.Result, error) {
	if err := m.simulated(); err != nil {
		return nil, err
	}
	if m.OnGetDeliveryTracking != nil {
		return m.OnGetDeliveryTracking(ctx, baseURL, token, customerDeliveryNo)
	}
	return shipper.Result{
		"status": "OK",
		"data":   []any{map[string]any{"customerDeliveryNo": customerDeliveryNo, "transactions": []any{}}},
	}, nil
}

// CreateTrackingLink returns a fake tracking URL.
func (m *MockAPIClient) CreateTrackingLink(ctx context.Context, baseURL, token string, body shipper.Payload) (shipper.Result, error) {
	if err := m.simulated(); err != nil {
		return nil, err
	}
	if m.OnCreateTrackingLink != nil {
		return m.OnCreateTrackingLink(ctx, baseURL, token, body)
	}
	return shipper.Result{"status": "OK", "data": map[string]any{"url": baseURL + "/track/" + uuid.NewString()[:8]}}, nil
}

// DeleteDeliveryOrder acknowledges the cancellation.
func (m *MockAPIClient) DeleteDeliveryOrder(ctx context.Context, baseURL, token, barcode string) (shipper.Result, error) {
	if err := m.simulated(); err != nil {
		return nil, err
	}
	if m.OnDeleteDeliveryOrder != nil {
		return m.OnDeleteDeliveryOrder(ctx, baseURL, token, barcode)
	}
	return shipper.Result{"status": "OK"}, nil
}
