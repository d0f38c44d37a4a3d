// Package ptt provides integration with the PTT Kargo web services.
package ptt

import (
	"context"
	"fmt"
	"strings"

	"github.com/tournevent/kargo/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
)

const (
	carrierName = "ptt"

	opTrackByReference = "track_reference"

	defaultKullanici = "PttWs"
)

// TrackingEnvironments lists the shipment query service endpoints.
var TrackingEnvironments = shipper.Environment{
	Production: "https://pttws.ptt.gov.tr/GonderiTakipV2/services/Sorgu",
	Test:       "https://pttws.ptt.gov.tr/GonderiTakipV2Test/services/Sorgu",
}

// UploadEnvironments lists the data upload service endpoints.
var UploadEnvironments = shipper.Environment{
	Production: "https://pttws.ptt.gov.tr/PttVeriYukleme/services/Sorgu",
	Test:       "https://pttws.ptt.gov.tr/PttVeriYuklemeTest/services/Sorgu",
}

// RequiredUploadKeys must be present in every upload payload.
var RequiredUploadKeys = []string{"dosyaAdi", "gonderiTip", "gonderiTur", "dongu"}

// Config holds PTT configuration.
type Config struct {
	// Tracking and Upload override the endpoints, e.g. in tests.
	Tracking shipper.Environment
	Upload   shipper.Environment
	UseMock  bool
	API      SOAPAPIClientConfig
	Observer shipper.Observer
}

// Client is the PTT carrier adapter. It implements shipper.Carrier,
// shipper.Tracker and shipper.Canceller, and supports returns.
type Client struct {
	config     Config
	apiClient  APIClient
	instrument shipper.Instrument
}

// New creates a new PTT client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewSOAPAPIClient(cfg.API)
	}
	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new PTT client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if cfg.Tracking.Production == "" {
		cfg.Tracking = TrackingEnvironments
	}
	if cfg.Upload.Production == "" {
		cfg.Upload = UploadEnvironments
	}
	return &Client{
		config:     cfg,
		apiClient:  apiClient,
		instrument: shipper.NewInstrument(carrierName, logger, tracer, cfg.Observer),
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// Send uploads the payload's records with kabulEkle2. Returns are uploaded
// under the username instead of the posta ceki number.
func (c *Client) Send(ctx context.Context, req *shipper.SendRequest) (shipper.Result, error) {
	op := shipper.OpSend
	if req.Return {
		op = shipper.OpReturn
	}
	return c.instrument.Invoke(ctx, op, req.TestMode, func(ctx context.Context) (shipper.Result, error) {
		if err := req.Account.Require("username", "password", "posta_ceki"); err != nil {
			return nil, err
		}
		records, err := uploadRecords(req.Payload)
		if err != nil {
			return nil, err
		}

		input := UploadInput{
			DosyaAdi:   shipper.Stringify(req.Payload["dosyaAdi"]),
			GonderiTip: shipper.Stringify(req.Payload["gonderiTip"]),
			GonderiTur: shipper.Stringify(req.Payload["gonderiTur"]),
			Kullanici:  shipper.Stringify(req.Payload["kullanici"]),
			MusteriID:  req.Account["posta_ceki"],
			Sifre:      req.Account["password"],
			Dongu:      records,
		}
		if input.Kullanici == "" {
			input.Kullanici = defaultKullanici
		}
		if req.Return {
			input.MusteriID = req.Account["username"]
		}

		res, err := c.apiClient.KabulEkle2(ctx, c.config.Upload.URL(req.TestMode), input)
		if err != nil {
			return nil, fmt.Errorf("PTT send hatasi: %w", err)
		}
		return unwrapReturn(res), nil
	})
}

// Track queries a shipment by barcode.
func (c *Client) Track(ctx context.Context, req *shipper.TrackRequest) (shipper.Result, error) {
	return c.instrument.Invoke(ctx, shipper.OpTrack, req.TestMode, func(ctx context.Context) (shipper.Result, error) {
		if err := req.Account.Require("username", "password"); err != nil {
			return nil, err
		}
		barcode := strings.TrimSpace(req.Reference)
		if barcode == "" {
			return nil, &shipper.FieldError{Field: "barcode", Reason: shipper.ReasonBlank}
		}

		res, err := c.apiClient.GonderiSorgu(ctx, c.config.Tracking.URL(req.TestMode),
			req.Account["username"], req.Account["password"], barcode)
		if err != nil {
			return nil, fmt.Errorf("PTT barkodTakip hatasi: %w", err)
		}
		return unwrapReturn(res), nil
	})
}

// TrackByReference queries a shipment by the customer reference number
// given at upload.
func (c *Client) TrackByReference(ctx context.Context, req *shipper.TrackRequest) (shipper.Result, error) {
	return c.instrument.Invoke(ctx, opTrackByReference, req.TestMode, func(ctx context.Context) (shipper.Result, error) {
		if err := req.Account.Require("username", "password"); err != nil {
			return nil, err
		}
		ref := strings.TrimSpace(req.Reference)
		if ref == "" {
			return nil, &shipper.FieldError{Field: "referansNo", Reason: shipper.ReasonBlank}
		}

		res, err := c.apiClient.GonderiSorguReferansNo(ctx, c.config.Tracking.URL(req.TestMode),
			req.Account["username"], req.Account["password"], ref)
		if err != nil {
			return nil, fmt.Errorf("PTT referansTakip hatasi: %w", err)
		}
		return unwrapReturn(res), nil
	})
}

// Cancel deletes an uploaded barcode. FileName must name the batch the
// barcode was uploaded in.
func (c *Client) Cancel(ctx context.Context, req *shipper.CancelRequest) (shipper.Result, error) {
	return c.instrument.Invoke(ctx, shipper.OpCancel, req.TestMode, func(ctx context.Context) (shipper.Result, error) {
		if err := req.Account.Require("username", "password"); err != nil {
			return nil, err
		}
		if err := shipper.NotBlank(
			shipper.Field{Name: "barcode", Value: req.Reference},
			shipper.Field{Name: "dosyaAdi", Value: req.FileName},
		); err != nil {
			return nil, err
		}

		res, err := c.apiClient.BarkodVeriSil(ctx, c.config.Upload.URL(req.TestMode), DeleteInput{
			Barcode:   strings.TrimSpace(req.Reference),
			DosyaAdi:  strings.TrimSpace(req.FileName),
			MusteriID: req.Account["username"],
			Sifre:     req.Account["password"],
		})
		if err != nil {
			return nil, fmt.Errorf("PTT kargoSil hatasi: %w", err)
		}
		return unwrapReturn(res), nil
	})
}

// uploadRecords checks the upload keys and returns the dongu records.
func uploadRecords(p shipper.Payload) ([]shipper.Payload, error) {
	if err := p.RequireKeys(RequiredUploadKeys...); err != nil {
		return nil, err
	}

	var records []shipper.Payload
	switch t := p["dongu"].(type) {
	case []shipper.Payload:
		records = t
	case []map[string]any:
		for _, r := range t {
			records = append(records, r)
		}
	case []any:
		for _, r := range t {
			switch m := r.(type) {
			case map[string]any:
				records = append(records, m)
			case shipper.Payload:
				records = append(records, m)
			}
		}
	}
	if len(records) == 0 {
		return nil, &shipper.FieldError{Field: "payload.dongu", Reason: "en az 1 kayit icermelidir"}
	}
	return records, nil
}

// unwrapReturn lifts the Axis "return" element to the top level.
func unwrapReturn(res shipper.Result) shipper.Result {
	v, ok := res["return"]
	if !ok {
		return res
	}
	switch t := v.(type) {
	case map[string]any:
		return shipper.Result(t)
	case []any:
		return shipper.Result{shipper.ItemsKey: t}
	default:
		return res
	}
}
