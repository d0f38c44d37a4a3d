package ptt

import (
	"context"

	"github.com/tournevent/kargo/pkg/shipper"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors bool

	OnKabulEkle2             func(ctx context.Context, endpoint string, input UploadInput) (shipper.Result, error)
	OnGonderiSorgu           func(ctx context.Context, endpoint, username, password, barcode string) (shipper.Result, error)
	OnGonderiSorguReferansNo func(ctx context.Context, endpoint, username, password, referenceNo string) (shipper.Result, error)
	OnBarkodVeriSil          func(ctx context.Context, endpoint string, input DeleteInput) (shipper.Result, error)
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

// KabulEkle2 accepts every record.
func (m *MockAPIClient) KabulEkle2(ctx context.Context, endpoint string, input UploadInput) (shipper.Result, error) {
	if err := m.simulated(); err != nil {
		return nil, err
	}
	if m.OnKabulEkle2 != nil {
		return m.OnKabulEkle2(ctx, endpoint, input)
	}
	return shipper.Result{
		"return": map[string]any{
			"aciklama": "BASARILI",
			"dosyaAdi": input.DosyaAdi,
			"hataKodu": "1",
		},
	}, nil
}

// GonderiSorgu returns a delivered shipment.
func (m *MockAPIClient) GonderiSorgu(ctx context.Context, endpoint, username, password, barcode string) (shipper.Result, error) {
	if err := m.simulated(); err != nil {
		return nil, err
	}
	if m.OnGonderiSorgu != nil {
		return m.OnGonderiSorgu(ctx, endpoint, username, password, barcode)
	}
	return shipper.Result{
		"return": map[string]any{
			"barno":     barcode,
			"sonucKodu": "1",
			"sonIslem":  "TESLIM EDILDI",
		},
	}, nil
}

// GonderiSorguReferansNo returns a delivered shipment.
func (m *MockAPIClient) GonderiSorguReferansNo(ctx context.Context, endpoint, username, password, referenceNo string) (shipper.Result, error) {
	if err := m.simulated(); err != nil {
		return nil, err
	}
	if m.OnGonderiSorguReferansNo != nil {
		return m.OnGonderiSorguReferansNo(ctx, endpoint, username, password, referenceNo)
	}
	return shipper.Result{
		"return": map[string]any{
			"musteriReferansNo": referenceNo,
			"sonucKodu":         "1",
			"sonIslem":          "TESLIM EDILDI",
		},
	}, nil
}

// BarkodVeriSil reports success.
func (m *MockAPIClient) BarkodVeriSil(ctx context.Context, endpoint string, input DeleteInput) (shipper.Result, error) {
	if err := m.simulated(); err != nil {
		return nil, err
	}
	if m.OnBarkodVeriSil != nil {
		return m.OnBarkodVeriSil(ctx, endpoint, input)
	}
	return shipper.Result{
		"return": map[string]any{
			"aciklama": "BASARILI",
			"hataKodu": "1",
		},
	}, nil
}
