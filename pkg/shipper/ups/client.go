// Package ups provides integration with the UPS Turkey web services.
package ups

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tournevent/kargo/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	carrierName = "ups"
	displayName = "UPS"
)

// RequiredShipmentKeys must be present in every ShipmentInfo payload.
var RequiredShipmentKeys = []string{
	"ShipperAccountNumber",
	"ShipperName",
	"ShipperAddress",
	"ShipperCityCode",
	"ShipperAreaCode",
	"ConsigneeName",
	"ConsigneeContactName",
	"ConsigneeAddress",
	"ConsigneeCityCode",
	"ConsigneeAreaCode",
	"ConsigneePhoneNumber",
	"ConsigneeMobilePhoneNumber",
	"PackageType",
	"ServiceLevel",
	"PaymentType",
}

// Config holds UPS configuration. UPS has no separate test environment, so
// the test flag of a request does not change the endpoints.
type Config struct {
	UseMock  bool
	API      SOAPAPIClientConfig
	Observer shipper.Observer
}

type service string

const (
	shipmentService service = "shipment"
	queryService    service = "query"
)

type sessionKey struct {
	service  service
	customer string
	username string
}

// Client is the UPS carrier adapter. It implements shipper.Carrier and
// shipper.Tracker. Session ids are cached per service and account for the
// lifetime of the Client.
type Client struct {
	config     Config
	apiClient  APIClient
	instrument shipper.Instrument

	mu       sync.Mutex
	sessions map[sessionKey]string
	logins   singleflight.Group
}

// New creates a new UPS client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewSOAPAPIClient(cfg.API)
	}
	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new UPS client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		config:     cfg,
		apiClient:  apiClient,
		instrument: shipper.NewInstrument(carrierName, logger, tracer, cfg.Observer),
		sessions:   make(map[sessionKey]string),
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// Send creates a shipment. UPS does not offer returns.
func (c *Client) Send(ctx context.Context, req *shipper.SendRequest) (shipper.Result, error) {
	if req.Return {
		return nil, &shipper.UnsupportedError{Carrier: displayName, Operation: "iade"}
	}
	return c.instrument.Invoke(ctx, shipper.OpSend, req.TestMode, func(ctx context.Context) (shipper.Result, error) {
		creds, err := resolveAccount(req.Account)
		if err != nil {
			return nil, err
		}
		if err := req.Payload.RequireKeys(RequiredShipmentKeys...); err != nil {
			return nil, err
		}

		return c.withSession(ctx, shipmentService, creds, func(sessionID string) (shipper.Result, error) {
			res, err := c.apiClient.CreateShipment(ctx, sessionID, req.Payload)
			if err != nil {
				return nil, fmt.Errorf("UPS KargoyaGonder hatasi: %w", err)
			}
			return res, nil
		})
	})
}

// Track returns the transactions of a tracking number.
func (c *Client) Track(ctx context.Context, req *shipper.TrackRequest) (shipper.Result, error) {
	return c.instrument.Invoke(ctx, shipper.OpTrack, req.TestMode, func(ctx context.Context) (shipper.Result, error) {
		creds, err := resolveAccount(req.Account)
		if err != nil {
			return nil, err
		}
		trackingNo := strings.TrimSpace(req.Reference)
		if trackingNo == "" {
			return nil, &shipper.FieldError{Field: "trackingNo", Reason: shipper.ReasonBlank}
		}

		return c.withSession(ctx, queryService, creds, func(sessionID string) (shipper.Result, error) {
			res, err := c.apiClient.GetTransactions(ctx, sessionID, trackingNo)
			if err != nil {
				return nil, fmt.Errorf("UPS KargoTakip hatasi [%s]: %w", trackingNo, err)
			}
			return res, nil
		})
	})
}

// withSession runs call with a session id for svc. A failed call drops the
// cached session so the next operation logs in again.
func (c *Client) withSession(ctx context.Context, svc service, creds Credentials, call func(sessionID string) (shipper.Result, error)) (shipper.Result, error) {
	key := sessionKey{service: svc, customer: creds.CustomerNumber, username: creds.Username}
	sessionID, err := c.session(ctx, key, creds)
	if err != nil {
		return nil, err
	}
	res, err := call(sessionID)
	if err != nil {
		c.dropSession(key, sessionID)
		return nil, err
	}
	return res, nil
}

func (c *Client) session(ctx context.Context, key sessionKey, creds Credentials) (string, error) {
	c.mu.Lock()
	sessionID, ok := c.sessions[key]
	c.mu.Unlock()
	if ok {
		return sessionID, nil
	}

	group := fmt.Sprintf("%s|%s|%s", key.service, key.customer, key.username)
	v, err, _ := c.logins.Do(group, func() (any, error) {
		var (
			id  string
			err error
		)
		if key.service == shipmentService {
			id, err = c.apiClient.LoginShipment(ctx, creds)
		} else {
			id, err = c.apiClient.LoginQuery(ctx, creds)
		}
		if err != nil {
			return "", &shipper.AuthError{
				StatusCode: shipper.StatusCode(err),
				Message:    fmt.Sprintf("UPS Login hatasi (%s)", key.service),
				Cause:      err,
			}
		}
		c.mu.Lock()
		c.sessions[key] = id
		c.mu.Unlock()
		c.instrument.Logger.Ctx(ctx).Debug("UPS session opened",
			zap.String("service", string(key.service)),
		)
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) dropSession(key sessionKey, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessions[key] == sessionID {
		delete(c.sessions, key)
	}
}

func resolveAccount(a shipper.Account) (Credentials, error) {
	if err := a.Require("customer_number", "username", "password"); err != nil {
		return Credentials{}, err
	}
	return Credentials{
		CustomerNumber: a["customer_number"],
		Username:       a["username"],
		Password:       a["password"],
	}, nil
}
