// Package rest is the HTTP/JSON transport shared by the REST carriers.
package rest

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/kargo/pkg/shipper"
)

// ExcerptLength bounds the response body copied into errors.
const ExcerptLength = 300

// Config holds transport settings for one carrier.
type Config struct {
	BaseURL        string
	ConnectTimeout time.Duration
	Timeout        time.Duration
	// InsecureSkipVerify disables TLS certificate checks.
	InsecureSkipVerify bool
	// Header is sent with every request.
	Header http.Header
}

// Client performs JSON calls against one base URL. Every call dials a new
// connection; keep-alives are disabled.
type Client struct {
	config Config
}

// New creates a transport.
func New(cfg Config) *Client {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 3 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{config: cfg}
}

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Request describes one call.
type Request struct {
	Method string
	Path   string
	// Body is JSON encoded when non-nil.
	Body   any
	Header http.Header
	// Timeout overrides the client's total timeout.
	Timeout time.Duration
	// Username and Password, when Username is set, are sent as basic auth.
	Username string
	Password string
}

// Response is a decoded JSON reply. Document holds the decoded body, with
// numbers kept as json.Number; it is nil for an empty body.
type Response struct {
	StatusCode int
	Document   any
}

// Do sends req and decodes the JSON reply. Network failures, undecodable
// bodies and statuses >= 400 return a *shipper.TransportError.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.config.BaseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, vs := range c.config.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("X-Request-Id", uuid.NewString())
	if req.Username != "" {
		httpReq.SetBasicAuth(req.Username, req.Password)
	}

	timeout := c.config.Timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	resp, err := c.httpClient(timeout).Do(httpReq)
	if err != nil {
		return nil, &shipper.TransportError{Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &shipper.TransportError{StatusCode: resp.StatusCode, Message: "reading response", Cause: err}
	}

	if resp.StatusCode >= 400 {
		return nil, &shipper.TransportError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Excerpt:    shipper.Excerpt(string(raw), ExcerptLength),
		}
	}

	out := &Response{StatusCode: resp.StatusCode}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out.Document); err != nil {
		return nil, &shipper.TransportError{
			StatusCode: resp.StatusCode,
			Message:    "invalid JSON",
			Excerpt:    shipper.Excerpt(string(raw), ExcerptLength),
			Cause:      err,
		}
	}
	return out, nil
}

func (c *Client) httpClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: c.config.ConnectTimeout}).DialContext,
		TLSHandshakeTimeout: c.config.ConnectTimeout,
		DisableKeepAlives:   true,
	}
	if c.config.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
