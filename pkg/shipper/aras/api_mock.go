package aras

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tournevent/kargo/pkg/shipper"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors bool

	OnSetOrder       func(ctx context.Context, creds Credentials, order shipper.Payload) (shipper.Result, error)
	OnCancelDispatch func(ctx context.Context, creds Credentials, integrationCode string) (shipper.Result, error)
	OnGetQueryXML    func(ctx context.Context, creds Credentials, queryType int, integrationCode string) (string, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

func (m *MockAPIClient) simulated() error {
	if m.SimulateErrors {
		return &shipper.TransportError{StatusCode: 500, Message: "Simulated API error"}
	}
	return nil
}

// SetOrder accepts the order and echoes its integration code.
func (m *MockAPIClient) SetOrder(ctx context.Context, creds Credentials, order shipper.Payload) (shipper.Result, error) {
	if err := m.simulated(); err != nil {
		return nil, err
	}
	if m.OnSetOrder != nil {
		return m.OnSetOrder(ctx, creds, order)
	}
	return shipper.Result{
		"SetOrderResult": map[string]any{
			"OrderResultInfo": map[string]any{
				"ResultCode":      "0",
				"ResultMessage":   "Basarili",
				"InvoiceKey":      shipper.Stringify(order["IntegrationCode"]),
				"OrgReceiverCode": fmt.Sprintf("%06d", uuid.New().ID()%1000000),
			},
		},
	}, nil
}

// CancelDispatch reports success.
func (m *MockAPIClient) CancelDispatch(ctx context.Context, creds Credentials, integrationCode string) (shipper.Result, error) {
	if err := m.simulated(); err != nil {
		return nil, err
	}
	if m.OnCancelDispatch != nil {
		return m.OnCancelDispatch(ctx, creds, integrationCode)
	}
	return shipper.Result{
		"CancelDispatchResult": map[string]any{
			"ResultCode":    "0",
			"ResultMessage": "Basarili",
		},
	}, nil
}

// GetQueryXML returns a delivered shipment.
func (m *MockAPIClient) GetQueryXML(ctx context.Context, creds Credentials, queryType int, integrationCode string) (string, error) {
	if err := m.simulated(); err != nil {
		return "", err
	}
	if m.OnGetQueryXML != nil {
		return m.OnGetQueryXML(ctx, creds, queryType, integrationCode)
	}
	return `<NewDataSet><Collection>` +
		`<TIP_KODU>1</TIP_KODU>` +
		`<DURUM_KODU>6</DURUM_KODU>` +
		`<KG_DESI>2</KG_DESI>` +
		`<TUTAR>45.50</TUTAR>` +
		`<DURUMU>TESLIM EDILDI</DURUMU>` +
		`</Collection></NewDataSet>`, nil
}
