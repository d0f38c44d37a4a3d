package shipper

import (
	"strings"
)

// Operation names used for errors, logs and metrics.
const (
	OpSend         = "send"
	OpReturn       = "return"
	OpTrack        = "track"
	OpCancel       = "cancel"
	OpTrackingLink = "tracking_link"
)

// Account is a carrier-specific credential bundle, e.g. username/password plus
// a customer code, client id/secret or company code. Adapters never mutate it.
type Account map[string]string

// Require checks that every named field is present and not blank. The error
// names the first offending field, prefixed with "account.".
func (a Account) Require(fields ...string) error {
	for _, f := range fields {
		if strings.TrimSpace(a[f]) == "" {
			return &FieldError{Field: "account." + f, Reason: ReasonRequired}
		}
	}
	return nil
}

// Payload is a carrier-shaped request document. Builders produce it once;
// adapters copy before adding carrier defaults.
type Payload map[string]any

// Clone returns a shallow copy of the payload.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// RequireKeys checks that every named key is present, regardless of value.
func (p Payload) RequireKeys(keys ...string) error {
	for _, k := range keys {
		if _, ok := p[k]; !ok {
			return &FieldError{Field: "payload." + k, Reason: ReasonRequired}
		}
	}
	return nil
}

// RequireNotBlank checks that every named key holds a non-blank scalar.
func (p Payload) RequireNotBlank(keys ...string) error {
	for _, k := range keys {
		if strings.TrimSpace(Stringify(p[k])) == "" {
			return &FieldError{Field: "payload." + k, Reason: ReasonRequired}
		}
	}
	return nil
}

// Result is the normalized response of a carrier operation. Callers never
// need to know whether it came from a SOAP object graph or a JSON document.
type Result map[string]any

// SendRequest is the request for creating a shipment.
type SendRequest struct {
	Account  Account
	Payload  Payload
	TestMode bool
	Return   bool
}

// TrackRequest is the request for querying a shipment.
type TrackRequest struct {
	Account   Account
	Reference string
	TestMode  bool
}

// CancelRequest is the request for cancelling a label or barcode.
type CancelRequest struct {
	Account   Account
	Reference string
	// FileName is the upload batch a barcode belongs to (PTT only).
	FileName string
	TestMode bool
}

// LinkRequest is the request for creating a public tracking link.
type LinkRequest struct {
	Account  Account
	Payload  Payload
	TestMode bool
}

// Environment selects one of two endpoints purely from the test flag.
type Environment struct {
	Production string
	Test       string
}

// URL returns the test endpoint when testMode is set, the production one otherwise.
func (e Environment) URL(testMode bool) string {
	if testMode {
		return e.Test
	}
	return e.Production
}
