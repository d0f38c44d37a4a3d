package ptt

import (
	"context"

	"github.com/tournevent/kargo/pkg/shipper"
)

// UploadInput is the kabulEkle2 input document.
type UploadInput struct {
	DosyaAdi   string
	GonderiTip string
	GonderiTur string
	Kullanici  string
	// MusteriID is the posta ceki number, or the username for returns.
	MusteriID string
	Sifre     string
	Dongu     []shipper.Payload
}

// DeleteInput is the barkodVeriSil input document.
type DeleteInput struct {
	Barcode   string
	DosyaAdi  string
	MusteriID string
	Sifre     string
}

// APIClient defines the raw PTT SOAP operations. Every method takes the
// service endpoint so callers can switch between test and production.
type APIClient interface {
	// KabulEkle2 uploads a batch of acceptance records.
	KabulEkle2(ctx context.Context, endpoint string, input UploadInput) (shipper.Result, error)

	// GonderiSorgu queries a shipment by barcode.
	GonderiSorgu(ctx context.Context, endpoint, username, password, barcode string) (shipper.Result, error)

	// GonderiSorguReferansNo queries a shipment by customer reference number.
	GonderiSorguReferansNo(ctx context.Context, endpoint, username, password, referenceNo string) (shipper.Result, error)

	// BarkodVeriSil deletes an uploaded barcode from its batch.
	BarkodVeriSil(ctx context.Context, endpoint string, input DeleteInput) (shipper.Result, error)
}
