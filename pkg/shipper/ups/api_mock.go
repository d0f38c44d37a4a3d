package ups

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tournevent/kargo/pkg/shipper"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors bool

	OnLoginShipment   func(ctx context.Context, creds Credentials) (string, error)
	OnLoginQuery      func(ctx context.Context, creds Credentials) (string, error)
	OnCreateShipment  func(ctx context.Context, sessionID string, shipment shipper.Payload) (shipper.Result, error)
	OnGetTransactions func(ctx context.Context, sessionID, trackingNo string) (shipper.Result, error)

	logins atomic.Int32
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// Logins returns how many sessions were opened on either service.
func (m *MockAPIClient) Logins() int {
	return int(m.logins.Load())
}

func (m *MockAPIClient) simulated() error {
	if m.SimulateErrors {
		return &shipper.TransportError{StatusCode: 500, Message: "Simulated API error"}
	}
	return nil
}

// LoginShipment returns a random session id.
func (m *MockAPIClient) LoginShipment(ctx context.Context, creds Credentials) (string, error) {
	m.logins.Add(1)
	if err := m.simulated(); err != nil {
		return "", err
	}
	if m.OnLoginShipment != nil {
		return m.OnLoginShipment(ctx, creds)
	}
	return "S-" + uuid.NewString(), nil
}

// LoginQuery returns a random session id.
func (m *MockAPIClient) LoginQuery(ctx context.Context, creds Credentials) (string, error) {
	m.logins.Add(1)
	if err := m.simulated(); err != nil {
		return "", err
	}
	if m.OnLoginQuery != nil {
		return m.OnLoginQuery(ctx, creds)
	}
	return "Q-" + uuid.NewString(), nil
}

// CreateShipment returns a generated tracking number.
func (m *MockAPIClient) CreateShipment(ctx context.Context, sessionID string, shipment shipper.Payload) (shipper.Result, error) {
	if err := m.simulated(); err != nil {
		return nil, err
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, sessionID, shipment)
	}
	return shipper.Result{
		"CreateShipment_Type2Result": map[string]any{
			"ErrorCode":            "0",
			"ShipmentNo":           fmt.Sprintf("1Z%08d", uuid.New().ID()%100000000),
			"LinkForLabelPrinting": "https://ws.ups.com.tr/label/mock",
		},
	}, nil
}

// GetTransactions returns a single delivered transaction.
func (m *MockAPIClient) GetTransactions(ctx context.Context, sessionID, trackingNo string) (shipper.Result, error) {
	if err := m.simulated(); err != nil {
		return nil, err
	}
	if m.OnGetTransactions != nil {
		return m.OnGetTransactions(ctx, sessionID, trackingNo)
	}
	return shipper.Result{
		"GetTransactionsByTrackingNumber_V1Result": map[string]any{
			"PackageTransaction": map[string]any{
				"TrackingNumber":      trackingNo,
				"StatusCode":          "2",
				"ProcessDescription1": "TESLIM EDILDI",
			},
		},
	}, nil
}
