// Package dhl provides integration with the DHL eCommerce (MNG Kargo) API.
package dhl

import (
	"context"
	"strings"
	"time"

	"github.com/tournevent/kargo/pkg/shipper"
	"github.com/tournevent/kargo/pkg/shipper/token"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
)

const (
	carrierName = "dhl"
	displayName = "DHL(MNG)"

	tokenTTL  = 30 * time.Minute
	tokenSkew = 60 * time.Second
)

// Environments lists the MNG API endpoints.
var Environments = shipper.Environment{
	Production: "https://api.mngkargo.com.tr",
	Test:       "https://testapi.mngkargo.com.tr",
}

// TrackKeys is the shape of a Track result. All values are blank when the
// shipment is unknown.
var TrackKeys = []string{"Durum", "DurumKodu", "Desi", "Tutar", "TakipNo", "TeslimatTarih"}

// Config holds DHL configuration.
type Config struct {
	Environment  shipper.Environment
	UseMock      bool
	Tokens       token.Backend
	Observer     shipper.Observer
	Recorder     token.Recorder
	TokenOptions []token.Option
}

// Client is the DHL/MNG carrier adapter. It implements shipper.Carrier and
// shipper.Tracker and supports return orders.
type Client struct {
	config     Config
	apiClient  APIClient
	tokens     *token.Manager
	instrument shipper.Instrument
}

// New creates a new DHL client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{})
	}
	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new DHL client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if cfg.Environment.Production == "" {
		cfg.Environment = Environments
	}
	instrument := shipper.NewInstrument(carrierName, logger, tracer, cfg.Observer)

	opts := append([]token.Option{
		token.WithSkew(tokenSkew),
		token.WithTTL(tokenTTL),
		token.WithLogger(instrument.Logger),
		token.WithRecorder(cfg.Recorder),
		token.WithRejection(shipper.IsUnauthorized),
	}, cfg.TokenOptions...)

	return &Client{
		config:     cfg,
		apiClient:  apiClient,
		tokens:     token.NewManager(carrierName, cfg.Tokens.Store, cfg.Tokens.Locker, opts...),
		instrument: instrument,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// Tokens returns the token manager.
func (c *Client) Tokens() *token.Manager {
	return c.tokens
}

// Send creates an order, or a return order when req.Return is set.
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
		baseURL := c.config.Environment.URL(req.TestMode)

		var res shipper.Result
		err = c.withToken(ctx, baseURL, creds, func(ctx context.Context, tok string) error {
			var err error
			if req.Return {
				res, err = c.apiClient.CreateReturnOrder(ctx, baseURL, creds, tok, req.Payload)
			} else {
				res, err = c.apiClient.CreateOrder(ctx, baseURL, creds, tok, req.Payload)
			}
			return err
		})
		return res, err
	})
}

// Track returns the shipment state normalized to TrackKeys.
func (c *Client) Track(ctx context.Context, req *shipper.TrackRequest) (shipper.Result, error) {
	return c.instrument.Invoke(ctx, shipper.OpTrack, req.TestMode, func(ctx context.Context) (shipper.Result, error) {
		creds, err := resolveAccount(req.Account)
		if err != nil {
			return nil, err
		}
		baseURL := c.config.Environment.URL(req.TestMode)

		var doc any
		err = c.withToken(ctx, baseURL, creds, func(ctx context.Context, tok string) error {
			var err error
			doc, err = c.apiClient.GetShipment(ctx, baseURL, creds, tok, req.Reference)
			return err
		})
		if err != nil {
			return nil, err
		}
		return normalizeShipment(doc), nil
	})
}

// Movements returns the movement history of a shipment under
// shipper.ItemsKey. An error document from MNG yields an empty list.
func (c *Client) Movements(ctx context.Context, req *shipper.TrackRequest) (shipper.Result, error) {
	return c.instrument.Invoke(ctx, "movements", req.TestMode, func(ctx context.Context) (shipper.Result, error) {
		creds, err := resolveAccount(req.Account)
		if err != nil {
			return nil, err
		}
		baseURL := c.config.Environment.URL(req.TestMode)

		var doc any
		err = c.withToken(ctx, baseURL, creds, func(ctx context.Context, tok string) error {
			var err error
			doc, err = c.apiClient.TrackShipment(ctx, baseURL, creds, tok, req.Reference)
			return err
		})
		if err != nil {
			return nil, err
		}
		return normalizeMovements(doc), nil
	})
}

func (c *Client) withToken(ctx context.Context, baseURL string, creds Credentials, call func(ctx context.Context, tok string) error) error {
	fetch := func(ctx context.Context) (token.Token, error) {
		resp, err := c.apiClient.GetToken(ctx, baseURL, creds)
		if err != nil {
			return token.Token{}, err
		}
		// An unparseable jwtExpireDate leaves ExpiresAt zero; the manager
		// applies tokenTTL.
		return token.Token{
			Value:     resp.JWT,
			ExpiresAt: token.ParseExpiry(resp.JWTExpireDate),
		}, nil
	}
	err := c.tokens.Do(ctx, CacheKey(baseURL, creds.CustomerNumber, creds.ClientID), fetch, call)
	return shipper.TokenError(displayName, err)
}

// CacheKey scopes a token to an environment, customer and API client.
func CacheKey(baseURL, customerNumber, clientID string) string {
	return token.Key(strings.TrimRight(baseURL, "/"), customerNumber, clientID)
}

func resolveAccount(a shipper.Account) (Credentials, error) {
	if err := a.Require("username", "password", "client_id", "client_secret"); err != nil {
		return Credentials{}, err
	}
	return Credentials{
		CustomerNumber: a["username"],
		Password:       a["password"],
		ClientID:       a["client_id"],
		ClientSecret:   a["client_secret"],
	}, nil
}

func normalizeShipment(doc any) shipper.Result {
	shipment, ok := shipper.Lookup(doc, "0", "shipment")
	if !ok {
		return shipper.Blank(TrackKeys...)
	}
	if _, isMap := shipment.(map[string]any); !isMap {
		return shipper.Blank(TrackKeys...)
	}
	return shipper.Result{
		"Durum":         1,
		"DurumKodu":     shipper.LookupString(shipment, "shipmentStatusCode"),
		"Desi":          shipper.LookupString(shipment, "totalDesi"),
		"Tutar":         shipper.LookupString(shipment, "finalTotal"),
		"TakipNo":       shipper.LookupString(shipment, "shipmentId"),
		"TeslimatTarih": shipper.LookupString(shipment, "shipmentDateTime"),
	}
}

func normalizeMovements(doc any) shipper.Result {
	if _, isError := shipper.Lookup(doc, "type"); isError {
		return shipper.Result{shipper.ItemsKey: []any{}}
	}
	res := shipper.FromJSON(doc)
	if _, ok := res[shipper.ItemsKey]; !ok && len(res) == 0 {
		res[shipper.ItemsKey] = []any{}
	}
	return res
}
