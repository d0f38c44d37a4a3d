// Package soap is the SOAP 1.1 transport shared by the SOAP carriers. It
// writes document/literal envelopes from ordered Fields and normalizes
// replies into plain maps.
package soap

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/xml"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/kargo/pkg/shipper"
)

const envelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"

// Config holds settings for one SOAP service.
type Config struct {
	Endpoint  string
	Namespace string
	// Qualified puts operation children in Namespace. Services with
	// unqualified element forms leave it false.
	Qualified bool
	// ActionBase, when set, replaces Namespace as the SOAPAction prefix,
	// e.g. "http://tempuri.org/IService/" for WCF services.
	ActionBase     string
	ConnectTimeout time.Duration
	Timeout        time.Duration
	// InsecureSkipVerify disables TLS certificate checks.
	InsecureSkipVerify bool
	UserAgent          string
}

// Client calls operations on one SOAP service.
type Client struct {
	config Config
}

// New creates a SOAP client.
func New(cfg Config) *Client {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 3 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "kargo-soap"
	}
	return &Client{config: cfg}
}

// Endpoint returns the service URL.
func (c *Client) Endpoint() string {
	return c.config.Endpoint
}

// Call invokes operation with params and returns the children of the
// <operation>Response element, e.g. {"Login_Type1Result": {...}}.
// Faults and non-2xx replies return a *shipper.TransportError.
func (c *Client) Call(ctx context.Context, operation string, params Fields) (shipper.Result, error) {
	body, err := c.buildEnvelope(operation, params)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `"`+c.soapAction(operation)+`"`)
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &shipper.TransportError{Message: operation + " failed", Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &shipper.TransportError{StatusCode: resp.StatusCode, Message: "reading response", Cause: err}
	}

	return c.parseResponse(operation, resp.StatusCode, raw)
}

func (c *Client) soapAction(operation string) string {
	if c.config.ActionBase != "" {
		return c.config.ActionBase + operation
	}
	ns := c.config.Namespace
	if ns == "" {
		return operation
	}
	if strings.HasSuffix(ns, "/") {
		return ns + operation
	}
	return ns + "/" + operation
}

func (c *Client) buildEnvelope(operation string, params Fields) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	envelope := xml.StartElement{
		Name: xml.Name{Local: "soap:Envelope"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns:soap"}, Value: envelopeNS}},
	}
	bodyEl := xml.StartElement{Name: xml.Name{Local: "soap:Body"}}

	opEl := xml.StartElement{Name: xml.Name{Local: operation}}
	if c.config.Namespace != "" {
		if c.config.Qualified {
			opEl.Attr = []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: c.config.Namespace}}
		} else {
			opEl.Name.Local = "ns:" + operation
			opEl.Attr = []xml.Attr{{Name: xml.Name{Local: "xmlns:ns"}, Value: c.config.Namespace}}
		}
	}

	if err := enc.EncodeToken(envelope); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(bodyEl); err != nil {
		return nil, err
	}
	if err := params.MarshalXML(enc, opEl); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(bodyEl.End()); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(envelope.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Client) parseResponse(operation string, status int, raw []byte) (shipper.Result, error) {
	excerpt := shipper.Excerpt(string(raw), 300)

	root, err := parseTree(bytes.NewReader(raw))
	if err != nil {
		return nil, &shipper.TransportError{StatusCode: status, Message: "invalid SOAP response", Excerpt: excerpt, Cause: err}
	}

	body := root.child("Body")
	if body == nil || len(body.children) == 0 {
		if status >= 300 {
			return nil, &shipper.TransportError{StatusCode: status, Message: http.StatusText(status), Excerpt: excerpt}
		}
		return nil, &shipper.TransportError{StatusCode: status, Message: "SOAP body missing", Excerpt: excerpt}
	}

	first := body.children[0]
	if first.name == "Fault" {
		msg := "SOAP fault"
		if fs := first.child("faultstring"); fs != nil {
			msg = strings.TrimSpace(fs.text.String())
		} else if reason := first.child("Reason"); reason != nil {
			msg = shipper.LookupString(reason.value(), "Text")
		}
		return nil, &shipper.TransportError{StatusCode: status, Message: msg}
	}
	if status >= 300 {
		return nil, &shipper.TransportError{StatusCode: status, Message: http.StatusText(status), Excerpt: excerpt}
	}

	switch v := first.value().(type) {
	case map[string]any:
		return shipper.Result(v), nil
	case nil:
		return shipper.Result{}, nil
	default:
		// A response element with text only, e.g. <fooResponse>ok</fooResponse>.
		return shipper.Result{operation + "Result": v}, nil
	}
}

func (c *Client) httpClient() *http.Client {
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
		Timeout:   c.config.Timeout,
		Transport: transport,
	}
}
