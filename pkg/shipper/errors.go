package shipper

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tournevent/kargo/pkg/shipper/token"
)

// Reasons used in FieldError messages.
const (
	ReasonRequired      = "zorunludur"
	ReasonBlank         = "bos birakilamaz"
	ReasonNotConfigured = "Oncesinde account(...) cagrilmalidir"
)

// Sentinel errors for the error taxonomy. Typed errors below match them via errors.Is.
var (
	// ErrConfiguration indicates a missing or blank account or payload field.
	ErrConfiguration = errors.New("configuration error")

	// ErrCapabilityUnsupported indicates the carrier does not offer the operation.
	ErrCapabilityUnsupported = errors.New("capability not supported")

	// ErrAuthentication indicates token acquisition failed or the carrier
	// rejected the token beyond the single allowed retry.
	ErrAuthentication = errors.New("authentication failed")

	// ErrTransport indicates a network failure, malformed body or non-success status.
	ErrTransport = errors.New("transport error")

	// ErrCarrierNotFound indicates the requested carrier is not registered.
	ErrCarrierNotFound = errors.New("carrier not found")
)

// FieldError reports a missing or blank required field. It is detected before
// any network call and is never retried or wrapped.
type FieldError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + " " + e.Reason
}

// Is implements errors.Is for FieldError.
func (e *FieldError) Is(target error) bool {
	return target == ErrConfiguration
}

// NotConfigured is returned by builders whose account was never set.
func NotConfigured() *FieldError {
	return &FieldError{Reason: ReasonNotConfigured}
}

// UnsupportedError reports an operation the carrier's API does not offer.
type UnsupportedError struct {
	Carrier   string
	Operation string
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s %s desteklemiyor", e.Carrier, e.Operation)
}

// Is implements errors.Is for UnsupportedError.
func (e *UnsupportedError) Is(target error) bool {
	return target == ErrCapabilityUnsupported
}

// TransportError represents a failed carrier call: network failure, a body
// that cannot be decoded, a SOAP fault or a non-2xx status.
type TransportError struct {
	StatusCode int
	Message    string
	// Excerpt is a truncated copy of the response body for diagnostics.
	Excerpt string
	Cause   error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("HTTP %d: %s", e.StatusCode, msg)
	}
	if e.Excerpt != "" {
		msg += ": " + e.Excerpt
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for TransportError.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// AuthError represents a token acquisition failure or a token the carrier
// kept rejecting after a forced refresh.
type AuthError struct {
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *AuthError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for AuthError.
func (e *AuthError) Is(target error) bool {
	return target == ErrAuthentication
}

// ShipperError wraps a carrier-call error with the originating carrier and
// operation, preserving the cause.
type ShipperError struct {
	Carrier   string
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *ShipperError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Carrier, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ShipperError) Unwrap() error {
	return e.Cause
}

// NewShipperError creates a new ShipperError.
func NewShipperError(carrier, operation string, cause error) *ShipperError {
	return &ShipperError{
		Carrier:   carrier,
		Operation: operation,
		Cause:     cause,
	}
}

// Wrap applies the propagation policy: validation and capability errors are
// returned as-is, everything else is wrapped with carrier and operation.
func Wrap(carrier, operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConfiguration) || errors.Is(err, ErrCapabilityUnsupported) {
		return err
	}
	var se *ShipperError
	if errors.As(err, &se) {
		return err
	}
	return NewShipperError(carrier, operation, err)
}

// TokenError converts token lifecycle failures into an *AuthError. Other
// errors are returned unchanged.
func TokenError(carrier string, err error) error {
	var ae *token.AcquireError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return &AuthError{StatusCode: StatusCode(err), Message: carrier + " token alinamadi", Cause: err}
	case errors.Is(err, token.ErrRejected):
		return &AuthError{StatusCode: StatusCode(err), Message: carrier + " token reddedildi", Cause: err}
	default:
		return err
	}
}

// StatusCode returns the HTTP status carried by a transport or auth error, or 0.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}

// IsUnauthorized returns true if the carrier answered with a 401-equivalent.
func IsUnauthorized(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.StatusCode == http.StatusUnauthorized
}

// Kind returns a short label for the error class, used as a metric label.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrCapabilityUnsupported):
		return "unsupported"
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}

// Excerpt truncates s to at most n runes for diagnostics.
func Excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
