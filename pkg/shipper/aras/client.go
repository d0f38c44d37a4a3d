// Package aras provides integration with the Aras Kargo web services.
package aras

import (
	"context"
	"fmt"
	"strings"

	"github.com/tournevent/kargo/pkg/shipper"
	"github.com/tournevent/kargo/pkg/shipper/soap"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
)

const (
	carrierName = "aras"
	displayName = "Aras"

	// queryByIntegrationCode selects the shipment-by-integration-code query.
	queryByIntegrationCode = 39
)

// RequiredOrderKeys must hold non-blank scalars in every order.
var RequiredOrderKeys = []string{
	"TradingWaybillNumber",
	"IntegrationCode",
	"ReceiverName",
	"ReceiverAddress",
	"ReceiverPhone1",
	"ReceiverCityName",
	"ReceiverTownName",
}

// TrackKeys are the keys of a Track result. All of them are empty when the
// shipment is unknown.
var TrackKeys = []string{"TipKodu", "DurumKodu", "Desi", "Tutar", "Durum"}

// trackFields maps query columns to TrackKeys.
var trackFields = map[string]string{
	"TipKodu":   "TIP_KODU",
	"DurumKodu": "DURUM_KODU",
	"Desi":      "KG_DESI",
	"Tutar":     "TUTAR",
	"Durum":     "DURUMU",
}

// Config holds Aras configuration. Aras has no separate test environment.
type Config struct {
	UseMock  bool
	API      SOAPAPIClientConfig
	Observer shipper.Observer
}

// Client is the Aras carrier adapter. It implements shipper.Carrier,
// shipper.Tracker and shipper.Canceller. Returns use the regular order call.
type Client struct {
	config     Config
	apiClient  APIClient
	instrument shipper.Instrument
}

// New creates a new Aras client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewSOAPAPIClient(cfg.API)
	}
	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new Aras client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
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

// Send submits an order. The account's credentials are filled into the order
// unless the payload sets them.
func (c *Client) Send(ctx context.Context, req *shipper.SendRequest) (shipper.Result, error) {
	op := shipper.OpSend
	if req.Return {
		op = shipper.OpReturn
	}
	return c.instrument.Invoke(ctx, op, req.TestMode, func(ctx context.Context) (shipper.Result, error) {
		creds, err := resolveAccount(req.Account)
		if err != nil {
			return nil, err
		}
		order, err := normalizeOrder(req.Payload, creds)
		if err != nil {
			return nil, err
		}

		res, err := c.apiClient.SetOrder(ctx, creds, order)
		if err != nil {
			return nil, fmt.Errorf("Aras KargoyaGonder hatasi: %w", err)
		}
		info, ok := shipper.Lookup(res, "SetOrderResult", "OrderResultInfo")
		if !ok {
			return shipper.Result{}, nil
		}
		return shipper.FromJSON(info), nil
	})
}

// Track queries a shipment by integration code. A blank reference yields the
// empty TrackKeys shape without calling Aras.
func (c *Client) Track(ctx context.Context, req *shipper.TrackRequest) (shipper.Result, error) {
	return c.instrument.Invoke(ctx, shipper.OpTrack, req.TestMode, func(ctx context.Context) (shipper.Result, error) {
		creds, err := resolveAccount(req.Account)
		if err != nil {
			return nil, err
		}
		trackingNo := strings.TrimSpace(req.Reference)
		if trackingNo == "" {
			return shipper.Blank(TrackKeys...), nil
		}

		doc, err := c.apiClient.GetQueryXML(ctx, creds, queryByIntegrationCode, trackingNo)
		if err != nil {
			return nil, fmt.Errorf("Aras KargoTakip hatasi [%s]: %w", trackingNo, err)
		}
		res, err := normalizeTracking(doc)
		if err != nil {
			return nil, fmt.Errorf("Aras KargoTakip hatasi [%s]: %w", trackingNo, err)
		}
		return res, nil
	})
}

// Cancel cancels an order by integration code.
func (c *Client) Cancel(ctx context.Context, req *shipper.CancelRequest) (shipper.Result, error) {
	return c.instrument.Invoke(ctx, shipper.OpCancel, req.TestMode, func(ctx context.Context) (shipper.Result, error) {
		creds, err := resolveAccount(req.Account)
		if err != nil {
			return nil, err
		}
		code := strings.TrimSpace(req.Reference)
		if code == "" {
			return nil, &shipper.FieldError{Field: "integrationCode", Reason: shipper.ReasonBlank}
		}

		res, err := c.apiClient.CancelDispatch(ctx, creds, code)
		if err != nil {
			return nil, fmt.Errorf("Aras BarkodSil hatasi [%s]: %w", code, err)
		}
		return res, nil
	})
}

func normalizeOrder(p shipper.Payload, creds Credentials) (shipper.Payload, error) {
	order := shipper.WithDefaults(shipper.Payload{
		"UserName":             creds.Username,
		"Password":             creds.Password,
		"TradingWaybillNumber": "",
		"IntegrationCode":      "",
		"ReceiverName":         "",
		"ReceiverAddress":      "",
		"ReceiverPhone1":       "",
		"ReceiverCityName":     "",
		"ReceiverTownName":     "",
		"PayorTypeCode":        0,
		"IsWorldWide":          0,
		"IsCod":                0,
		"CodAmount":            0,
		"CodCollectionType":    0,
	}, p)
	if !pieceShaped(order["PieceDetails"]) {
		order["PieceDetails"] = map[string]any{"BarcodeNumber": ""}
	}
	if err := order.RequireNotBlank(RequiredOrderKeys...); err != nil {
		return nil, err
	}
	return order, nil
}

// pieceShaped reports whether v is a piece map or a list of pieces, which
// are passed to Aras unchanged.
func pieceShaped(v any) bool {
	switch v.(type) {
	case map[string]any, shipper.Payload, []any, []map[string]any, []shipper.Payload:
		return true
	default:
		return false
	}
}

func normalizeTracking(doc string) (shipper.Result, error) {
	if strings.TrimSpace(doc) == "" {
		return shipper.Blank(TrackKeys...), nil
	}
	parsed, err := soap.ParseDocument([]byte(doc))
	if err != nil {
		return nil, err
	}

	var collection any
	for _, root := range parsed {
		if v, ok := shipper.Lookup(root, "Collection"); ok {
			collection = v
		}
	}
	rows := soap.AsList(collection)
	if len(rows) == 0 {
		return shipper.Blank(TrackKeys...), nil
	}

	out := make(shipper.Result, len(TrackKeys))
	for _, k := range TrackKeys {
		out[k] = shipper.LookupString(rows[0], trackFields[k])
	}
	return out, nil
}

func resolveAccount(a shipper.Account) (Credentials, error) {
	if err := a.Require("username", "password", "customer_code"); err != nil {
		return Credentials{}, err
	}
	return Credentials{
		Username:     a["username"],
		Password:     a["password"],
		CustomerCode: a["customer_code"],
	}, nil
}
