// Package hepsijet provides integration with the HepsiJet delivery API.
package hepsijet

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
	carrierName = "hepsijet"
	displayName = "HepsiJet"

	// Tokens are valid for 30 minutes and dropped 5 minutes early.
	tokenTTL  = 1800 * time.Second
	tokenSkew = 300 * time.Second
)

// Environments lists the HepsiJet integration endpoints.
var Environments = shipper.Environment{
	Production: "https://integration.hepsijet.com",
	Test:       "https://integration-apitest.hepsijet.com",
}

// Config holds HepsiJet configuration.
type Config struct {
	// Environment overrides the endpoints, e.g. in tests.
	Environment shipper.Environment
	UseMock     bool
	Tokens      token.Backend
	Observer    shipper.Observer
	Recorder    token.Recorder
	// TokenOptions are applied after the carrier defaults.
	TokenOptions []token.Option
}

// Client is the HepsiJet carrier adapter. It implements shipper.Carrier,
// shipper.Tracker, shipper.Canceller and shipper.TrackingLinker.
type Client struct {
	config     Config
	apiClient  APIClient
	tokens     *token.Manager
	instrument shipper.Instrument
}

// New creates a new HepsiJet client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{})
	}
	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new HepsiJet client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if cfg.Environment.Production == "" {
		cfg.Environment = Environments
	}
	instrument := shipper.NewInstrument(carrierName, logger, tracer, cfg.Observer)

	opts := []token.Option{
		token.WithSkew(tokenSkew),
		token.WithTTL(tokenTTL),
		token.WithLogger(instrument.Logger),
		token.WithRecorder(cfg.Recorder),
		token.WithRejection(shipper.IsUnauthorized),
	}
	opts = append(opts, cfg.TokenOptions...)

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

// Send creates a delivery order. The account's company block is merged into
// the payload. Returns are not offered by HepsiJet.
func (c *Client) Send(ctx context.Context, req *shipper.SendRequest) (shipper.Result, error) {
	if req.Return {
		return nil, &shipper.UnsupportedError{Carrier: displayName, Operation: "iade"}
	}
	return c.instrument.Invoke(ctx, shipper.OpSend, req.TestMode, func(ctx context.Context) (shipper.Result, error) {
		acc, err := resolveAccount(req.Account)
		if err != nil {
			return nil, err
		}
		body := req.Payload.Clone()
		body["company"] = map[string]any{
			"name":             acc.companyName,
			"abbreviationCode": acc.companyCode,
		}
		baseURL := c.config.Environment.URL(req.TestMode)
		return c.withToken(ctx, baseURL, acc, func(ctx context.Context, tok string) (shipper.Result, error) {
			return c.apiClient.SendDeliveryOrder(ctx, baseURL, tok, body)
		})
	})
}

// Track returns the delivery's tracking transactions.
func (c *Client) Track(ctx context.Context, req *shipper.TrackRequest) (shipper.Result, error) {
	return c.instrument.Invoke(ctx, shipper.OpTrack, req.TestMode, func(ctx context.Context) (shipper.Result, error) {
		acc, err := resolveAccount(req.Account)
		if err != nil {
			return nil, err
		}
		baseURL := c.config.Environment.URL(req.TestMode)
		return c.withToken(ctx, baseURL, acc, func(ctx context.Context, tok string) (shipper.Result, error) {
			return c.apiClient.GetDeliveryTracking(ctx, baseURL, tok, req.Reference)
		})
	})
}

// CreateTrackingLink issues a public tracking link for the payload.
func (c *Client) CreateTrackingLink(ctx context.Context, req *shipper.LinkRequest) (shipper.Result, error) {
	return c.instrument.Invoke(ctx, shipper.OpTrackingLink, req.TestMode, func(ctx context.Context) (shipper.Result, error) {
		acc, err := resolveAccount(req.Account)
		if err != nil {
			return nil, err
		}
		baseURL := c.config.Environment.URL(req.TestMode)
		return c.withToken(ctx, baseURL, acc, func(ctx context.Context, tok string) (shipper.Result, error) {
			return c.apiClient.CreateTrackingLink(ctx, baseURL, tok, req.Payload)
		})
	})
}

// Cancel deletes a delivery order by barcode.
func (c *Client) Cancel(ctx context.Context, req *shipper.CancelRequest) (shipper.Result, error) {
	return c.instrument.Invoke(ctx, shipper.OpCancel, req.TestMode, func(ctx context.Context) (shipper.Result, error) {
		acc, err := resolveAccount(req.Account)
		if err != nil {
			return nil, err
		}
		baseURL := c.config.Environment.URL(req.TestMode)
		return c.withToken(ctx, baseURL, acc, func(ctx context.Context, tok string) (shipper.Result, error) {
			return c.apiClient.DeleteDeliveryOrder(ctx, baseURL, tok, req.Reference)
		})
	})
}

// withToken runs call with a valid token, replaying it once after a 401.
func (c *Client) withToken(ctx context.Context, baseURL string, acc account, call func(ctx context.Context, tok string) (shipper.Result, error)) (shipper.Result, error) {
	fetch := func(ctx context.Context) (token.Token, error) {
		tok, err := c.apiClient.GetToken(ctx, baseURL, acc.username, acc.password)
		if err != nil {
			return token.Token{}, err
		}
		// HepsiJet does not report an expiry; the manager applies tokenTTL.
		return token.Token{Value: tok}, nil
	}

	var res shipper.Result
	err := c.tokens.Do(ctx, CacheKey(baseURL, acc.username, acc.companyCode), fetch, func(ctx context.Context, tok string) error {
		r, err := call(ctx, tok)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, shipper.TokenError(displayName, err)
	}
	return res, nil
}

// CacheKey scopes a token to an environment, user and company.
func CacheKey(baseURL, username, companyCode string) string {
	return token.Key(strings.TrimRight(baseURL, "/"), username, companyCode)
}

type account struct {
	username    string
	password    string
	companyName string
	companyCode string
}

func resolveAccount(a shipper.Account) (account, error) {
	if err := a.Require("username", "password", "company_name", "company_code"); err != nil {
		return account{}, err
	}
	return account{
		username:    a["username"],
		password:    a["password"],
		companyName: a["company_name"],
		companyCode: a["company_code"],
	}, nil
}
