package shipper_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tournevent/kargo/pkg/shipper"
	"github.com/tournevent/kargo/pkg/shipper/token"
)

func TestFieldError_Error(t *testing.T) {
	err := &shipper.FieldError{Field: "account.username", Reason: shipper.ReasonRequired}
	assert.Equal(t, "account.username zorunludur", err.Error())
	assert.True(t, errors.Is(err, shipper.ErrConfiguration))
}

func TestNotConfigured(t *testing.T) {
	err := shipper.NotConfigured()
	assert.Equal(t, "Oncesinde account(...) cagrilmalidir", err.Error())
	assert.True(t, errors.Is(err, shipper.ErrConfiguration))
}

func TestUnsupportedError(t *testing.T) {
	err := &shipper.UnsupportedError{Carrier: "HepsiJet", Operation: "iade"}
	assert.Equal(t, "HepsiJet iade desteklemiyor", err.Error())
	assert.True(t, errors.Is(err, shipper.ErrCapabilityUnsupported))
	assert.False(t, errors.Is(err, shipper.ErrConfiguration))
}

func TestTransportError_Error(t *testing.T) {
	cause := errors.New("connection reset")
	err := &shipper.TransportError{StatusCode: 502, Message: "request failed", Excerpt: "bad gateway", Cause: cause}

	assert.Equal(t, "HTTP 502: request failed: bad gateway: connection reset", err.Error())
	assert.True(t, errors.Is(err, shipper.ErrTransport))
	assert.True(t, errors.Is(err, cause))
}

func TestTransportError_NoStatus(t *testing.T) {
	err := &shipper.TransportError{Message: "network failure"}
	assert.Equal(t, "network failure", err.Error())
}

func TestAuthError(t *testing.T) {
	cause := &shipper.TransportError{StatusCode: 401, Message: "unauthorized"}
	err := &shipper.AuthError{StatusCode: 401, Message: "token rejected", Cause: cause}

	assert.True(t, errors.Is(err, shipper.ErrAuthentication))
	assert.True(t, errors.Is(err, shipper.ErrTransport))
	assert.Contains(t, err.Error(), "token rejected")
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestShipperError_Unwrap(t *testing.T) {
	cause := errors.New("network timeout")
	err := shipper.NewShipperError("dhl", shipper.OpTrack, cause)

	assert.Equal(t, "dhl track: network timeout", err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, shipper.Wrap("ups", shipper.OpSend, nil))
	})

	t.Run("configuration errors are not wrapped", func(t *testing.T) {
		fe := &shipper.FieldError{Field: "payload.dongu", Reason: shipper.ReasonRequired}
		got := shipper.Wrap("ptt", shipper.OpSend, fe)
		assert.Same(t, fe, got)
	})

	t.Run("unsupported errors are not wrapped", func(t *testing.T) {
		ue := &shipper.UnsupportedError{Carrier: "UPS", Operation: "iade"}
		got := shipper.Wrap("ups", shipper.OpReturn, ue)
		assert.Same(t, ue, got)
	})

	t.Run("transport errors carry carrier and operation", func(t *testing.T) {
		te := &shipper.TransportError{StatusCode: 500, Message: "boom"}
		got := shipper.Wrap("aras", shipper.OpCancel, te)

		var se *shipper.ShipperError
		assert.True(t, errors.As(got, &se))
		assert.Equal(t, "aras", se.Carrier)
		assert.Equal(t, shipper.OpCancel, se.Operation)
		assert.True(t, errors.Is(got, shipper.ErrTransport))
	})

	t.Run("already wrapped errors pass through", func(t *testing.T) {
		inner := shipper.NewShipperError("dhl", shipper.OpSend, errors.New("x"))
		got := shipper.Wrap("kargo", shipper.OpSend, fmt.Errorf("outer: %w", inner))

		var se *shipper.ShipperError
		assert.True(t, errors.As(got, &se))
		assert.Equal(t, "dhl", se.Carrier)
	})
}

func TestStatusCodeAndUnauthorized(t *testing.T) {
	unauthorized := shipper.NewShipperError("hepsijet", shipper.OpSend,
		&shipper.TransportError{StatusCode: 401, Message: "unauthorized"})
	assert.Equal(t, 401, shipper.StatusCode(unauthorized))
	assert.True(t, shipper.IsUnauthorized(unauthorized))

	serverErr := &shipper.TransportError{StatusCode: 500}
	assert.False(t, shipper.IsUnauthorized(serverErr))

	assert.Equal(t, 403, shipper.StatusCode(&shipper.AuthError{StatusCode: 403}))
	assert.Equal(t, 0, shipper.StatusCode(errors.New("plain")))
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"field", &shipper.FieldError{Reason: shipper.ReasonBlank}, "configuration"},
		{"unsupported", &shipper.UnsupportedError{}, "unsupported"},
		{"auth", shipper.NewShipperError("dhl", shipper.OpSend, &shipper.AuthError{Message: "x"}), "authentication"},
		{"transport", &shipper.TransportError{}, "transport"},
		{"other", errors.New("x"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shipper.Kind(tt.err))
		})
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "abc", shipper.Excerpt("abc", 5))
	assert.Equal(t, "ab", shipper.Excerpt("abc", 2))
	assert.Equal(t, "çğ", shipper.Excerpt("çğüş", 2))
}

func TestTokenError(t *testing.T) {
	cause := &shipper.TransportError{StatusCode: 401, Message: "Unauthorized"}

	acquire := shipper.TokenError("HepsiJet", &token.AcquireError{Carrier: "hepsijet", Cause: cause})
	var ae *shipper.AuthError
	assert.True(t, errors.As(acquire, &ae))
	assert.Equal(t, 401, ae.StatusCode)
	assert.Equal(t, "HepsiJet token alinamadi", ae.Message)
	assert.True(t, errors.Is(acquire, shipper.ErrAuthentication))

	rejected := shipper.TokenError("DHL", fmt.Errorf("%w: %w", token.ErrRejected, cause))
	assert.True(t, errors.Is(rejected, shipper.ErrAuthentication))
	assert.Equal(t, 401, shipper.StatusCode(rejected))

	other := errors.New("x")
	assert.Same(t, other, shipper.TokenError("DHL", other))
	assert.NoError(t, shipper.TokenError("DHL", nil))
}
