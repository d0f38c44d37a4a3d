package hepsijet

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/tournevent/kargo/pkg/shipper"
	"github.com/tournevent/kargo/pkg/shipper/rest"
)

// HTTPAPIClient is the production implementation of APIClient.
type HTTPAPIClient struct {
	connectTimeout time.Duration
	timeout        time.Duration
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	ConnectTimeout time.Duration
	Timeout        time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 3 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &HTTPAPIClient{
		connectTimeout: cfg.ConnectTimeout,
		timeout:        cfg.Timeout,
	}
}

func (c *HTTPAPIClient) transport(baseURL string) *rest.Client {
	return rest.New(rest.Config{
		BaseURL:        baseURL,
		ConnectTimeout: c.connectTimeout,
		Timeout:        c.timeout,
	})
}

// GetToken calls GET /auth/getToken with basic auth.
func (c *HTTPAPIClient) GetToken(ctx context.Context, baseURL, username, password string) (string, error) {
	resp, err := c.transport(baseURL).Do(ctx, rest.Request{
		Method:   http.MethodGet,
		Path:     "/auth/getToken",
		Username: username,
		Password: password,
	})
	if err != nil {
		return "", err
	}
	if shipper.LookupString(resp.Document, "status") != "OK" {
		return "", errors.New("HepsiJet token alinamadi")
	}
	tok := shipper.LookupString(resp.Document, "data", "token")
	if tok == "" {
		return "", errors.New("HepsiJet token response beklenen formatta degil")
	}
	return tok, nil
}

// SendDeliveryOrder calls POST /delivery/sendDeliveryOrderEnhanced.
func (c *HTTPAPIClient) SendDeliveryOrder(ctx context.Context, baseURL, token string, body shipper.Payload) (shipper.Result, error) {
	return c.post(ctx, baseURL, "/delivery/sendDeliveryOrderEnhanced", token, body)
}

// GetDeliveryTracking calls POST /deliveryTransaction/getDeliveryTracking.
func (c *HTTPAPIClient) GetDeliveryTracking(ctx context.Context, baseURL, token, customerDeliveryNo string) (shipper.Result, error) {
	body := map[string]any{
		"deliveries": []map[string]any{{"customerDeliveryNo": customerDeliveryNo}},
	}
	return c.post(ctx, baseURL, "/deliveryTransaction/getDeliveryTracking", token, body)
}

// CreateTrackingLink calls POST /delivery/integration/track.
func (c *HTTPAPIClient) CreateTrackingLink(ctx context.Context, baseURL, token string, body shipper.Payload) (shipper.Result, error) {
	return c.post(ctx, baseURL, "/delivery/integration/track", token, body)
}

// DeleteDeliveryOrder calls POST /delivery/deleteDeliveryOrder/{barcode}.
func (c *HTTPAPIClient) DeleteDeliveryOrder(ctx context.Context, baseURL, token, barcode string) (shipper.Result, error) {
	return c.post(ctx, baseURL, "/delivery/deleteDeliveryOrder/"+url.PathEscape(barcode), token, map[string]any{})
}

func (c *HTTPAPIClient) post(ctx context.Context, baseURL, path, token string, body any) (shipper.Result, error) {
	resp, err := c.transport(baseURL).Do(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
		Header: http.Header{"X-Auth-Token": {token}},
	})
	if err != nil {
		return nil, err
	}
	return shipper.FromJSON(resp.Document), nil
}
