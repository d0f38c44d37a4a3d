package ptt

import (
	"context"
	"time"

	"github.com/tournevent/kargo/pkg/shipper"
	"github.com/tournevent/kargo/pkg/shipper/soap"
)

const (
	DefaultTrackingNamespace = "http://gonderitakipv2.ptt.gov.tr"
	DefaultUploadNamespace   = "http://pttveriyukleme.ptt.gov.tr"
)

// recordOrder is the element order of one dongu record.
var recordOrder = []string{
	"kullanici",
	"dosyaAdi",
	"gonderiTur",
	"gonderiTip",
	"aAdres",
	"aliciAdi",
	"agirlik",
	"aliciIlAdi",
	"aliciIlceAdi",
	"aliciSms",
	"barkodNo",
	"odeme_sart_ucreti",
	"musteriReferansNo",
	"rezerve1",
	"yukseklik",
	"boy",
	"desi",
	"ekhizmet",
	"en",
	"odemesekli",
	"gondericibilgi",
}

// SOAPAPIClient is the production implementation of APIClient. A SOAP client
// is built per call since the endpoint depends on the request's test flag.
type SOAPAPIClient struct {
	config SOAPAPIClientConfig
}

// SOAPAPIClientConfig holds configuration for the SOAP client.
type SOAPAPIClientConfig struct {
	TrackingNamespace string
	UploadNamespace   string
	ConnectTimeout    time.Duration
	Timeout           time.Duration
	// VerifyTLS enables certificate checks, which PTT's test hosts fail.
	VerifyTLS bool
}

// NewSOAPAPIClient creates a new SOAP-based API client for production use.
func NewSOAPAPIClient(cfg SOAPAPIClientConfig) *SOAPAPIClient {
	if cfg.TrackingNamespace == "" {
		cfg.TrackingNamespace = DefaultTrackingNamespace
	}
	if cfg.UploadNamespace == "" {
		cfg.UploadNamespace = DefaultUploadNamespace
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 4 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &SOAPAPIClient{config: cfg}
}

func (c *SOAPAPIClient) service(endpoint, namespace string) *soap.Client {
	return soap.New(soap.Config{
		Endpoint:           endpoint,
		Namespace:          namespace,
		ConnectTimeout:     c.config.ConnectTimeout,
		Timeout:            c.config.Timeout,
		InsecureSkipVerify: !c.config.VerifyTLS,
	})
}

// KabulEkle2 calls kabulEkle2.
func (c *SOAPAPIClient) KabulEkle2(ctx context.Context, endpoint string, input UploadInput) (shipper.Result, error) {
	records := make([]any, 0, len(input.Dongu))
	for _, r := range input.Dongu {
		records = append(records, soap.Ordered(r, recordOrder...))
	}
	return c.service(endpoint, c.config.UploadNamespace).Call(ctx, "kabulEkle2", soap.Fields{
		{Name: "input", Value: soap.Fields{
			{Name: "dongu", Value: records},
			{Name: "dosyaAdi", Value: input.DosyaAdi},
			{Name: "gonderiTip", Value: input.GonderiTip},
			{Name: "gonderiTur", Value: input.GonderiTur},
			{Name: "kullanici", Value: input.Kullanici},
			{Name: "musteriId", Value: input.MusteriID},
			{Name: "sifre", Value: input.Sifre},
		}},
	})
}

// GonderiSorgu calls gonderiSorgu.
func (c *SOAPAPIClient) GonderiSorgu(ctx context.Context, endpoint, username, password, barcode string) (shipper.Result, error) {
	return c.service(endpoint, c.config.TrackingNamespace).Call(ctx, "gonderiSorgu", soap.Fields{
		{Name: "input", Value: soap.Fields{
			{Name: "barkod", Value: barcode},
			{Name: "kullanici", Value: username},
			{Name: "sifre", Value: password},
		}},
	})
}

// GonderiSorguReferansNo calls gonderiSorgu_referansNo.
func (c *SOAPAPIClient) GonderiSorguReferansNo(ctx context.Context, endpoint, username, password, referenceNo string) (shipper.Result, error) {
	return c.service(endpoint, c.config.TrackingNamespace).Call(ctx, "gonderiSorgu_referansNo", soap.Fields{
		{Name: "input", Value: soap.Fields{
			{Name: "kullanici", Value: username},
			{Name: "referansNo", Value: referenceNo},
			{Name: "sifre", Value: password},
		}},
	})
}

// BarkodVeriSil calls barkodVeriSil.
func (c *SOAPAPIClient) BarkodVeriSil(ctx context.Context, endpoint string, input DeleteInput) (shipper.Result, error) {
	return c.service(endpoint, c.config.UploadNamespace).Call(ctx, "barkodVeriSil", soap.Fields{
		{Name: "inpDelete", Value: soap.Fields{
			{Name: "barcode", Value: input.Barcode},
			{Name: "dosyaAdi", Value: input.DosyaAdi},
			{Name: "musteriId", Value: input.MusteriID},
			{Name: "sifre", Value: input.Sifre},
		}},
	})
}
