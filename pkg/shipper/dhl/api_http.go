package dhl

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/tournevent/kargo/pkg/shipper"
	"github.com/tournevent/kargo/pkg/shipper/rest"
)

const (
	tokenPath        = "/mngapi/api/token"
	createOrderPath  = "/mngapi/api/standardcmdapi/createOrder"
	createReturnPath = "/mngapi/api/standardcmdapi/createReturnOrder"
	getShipmentPath  = "/mngapi/api/standardqueryapi/getshipment/"
	trackPath        = "/mngapi/api/standardqueryapi/trackshipment/"
)

// HTTPAPIClient is the production implementation of APIClient.
type HTTPAPIClient struct {
	connectTimeout time.Duration
	timeout        time.Duration
	queryTimeout   time.Duration
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	ConnectTimeout time.Duration
	// Timeout applies to POST calls.
	Timeout time.Duration
	// QueryTimeout applies to GET calls.
	QueryTimeout time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 3 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.QueryTimeout == 0 {
		cfg.QueryTimeout = 20 * time.Second
	}
	return &HTTPAPIClient{
		connectTimeout: cfg.ConnectTimeout,
		timeout:        cfg.Timeout,
		queryTimeout:   cfg.QueryTimeout,
	}
}

func (c *HTTPAPIClient) transport(baseURL string, creds Credentials) *rest.Client {
	return rest.New(rest.Config{
		BaseURL:        baseURL,
		ConnectTimeout: c.connectTimeout,
		Timeout:        c.timeout,
		Header: http.Header{
			"X-IBM-Client-Id":     {creds.ClientID},
			"X-IBM-Client-Secret": {creds.ClientSecret},
		},
	})
}

// GetToken calls POST /mngapi/api/token.
func (c *HTTPAPIClient) GetToken(ctx context.Context, baseURL string, creds Credentials) (*TokenResponse, error) {
	resp, err := c.transport(baseURL, creds).Do(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   tokenPath,
		Body: map[string]any{
			"customerNumber": creds.CustomerNumber,
			"password":       creds.Password,
			"identityType":   1,
		},
	})
	if err != nil {
		return nil, err
	}
	jwt := shipper.LookupString(resp.Document, "jwt")
	if jwt == "" {
		return nil, errors.New("DHL(MNG) token response beklenen formatta degil")
	}
	return &TokenResponse{
		JWT:           jwt,
		JWTExpireDate: shipper.LookupString(resp.Document, "jwtExpireDate"),
	}, nil
}

// CreateOrder calls POST createOrder.
func (c *HTTPAPIClient) CreateOrder(ctx context.Context, baseURL string, creds Credentials, token string, body shipper.Payload) (shipper.Result, error) {
	doc, err := c.call(ctx, baseURL, creds, token, http.MethodPost, createOrderPath, body)
	if err != nil {
		return nil, err
	}
	return shipper.FromJSON(doc), nil
}

// CreateReturnOrder calls POST createReturnOrder.
func (c *HTTPAPIClient) CreateReturnOrder(ctx context.Context, baseURL string, creds Credentials, token string, body shipper.Payload) (shipper.Result, error) {
	doc, err := c.call(ctx, baseURL, creds, token, http.MethodPost, createReturnPath, body)
	if err != nil {
		return nil, err
	}
	return shipper.FromJSON(doc), nil
}

// GetShipment calls GET getshipment/{trackingNo}.
func (c *HTTPAPIClient) GetShipment(ctx context.Context, baseURL string, creds Credentials, token, trackingNo string) (any, error) {
	return c.call(ctx, baseURL, creds, token, http.MethodGet, getShipmentPath+url.PathEscape(trackingNo), nil)
}

// TrackShipment calls GET trackshipment/{trackingNo}.
func (c *HTTPAPIClient) TrackShipment(ctx context.Context, baseURL string, creds Credentials, token, trackingNo string) (any, error) {
	return c.call(ctx, baseURL, creds, token, http.MethodGet, trackPath+url.PathEscape(trackingNo), nil)
}

func (c *HTTPAPIClient) call(ctx context.Context, baseURL string, creds Credentials, token, method, path string, body any) (any, error) {
	req := rest.Request{
		Method: method,
		Path:   path,
		Body:   body,
		Header: http.Header{"Authorization": {"Bearer " + token}},
	}
	if method == http.MethodGet {
		req.Timeout = c.queryTimeout
	}
	resp, err := c.transport(baseURL, creds).Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Document, nil
}
