package aras

import (
	"context"

	"github.com/tournevent/kargo/pkg/shipper"
)

// Order describes one Aras order. Use NewOrder for the usual defaults.
type Order struct {
	TradingWaybillNumber string
	IntegrationCode      string
	ReceiverName         string
	ReceiverAddress      string
	ReceiverPhone1       string
	ReceiverCityName     string
	ReceiverTownName     string

	PayorTypeCode     int
	IsWorldWide       int
	IsCod             int
	CodAmount         float64
	CodCollectionType int
	BarcodeNumber     string
}

// NewOrder returns an order paid by the sender.
func NewOrder() Order {
	return Order{PayorTypeCode: 1}
}

func (o Order) validate() error {
	return shipper.NotBlank(
		shipper.Field{Name: "tradingWaybillNumber", Value: o.TradingWaybillNumber},
		shipper.Field{Name: "integrationCode", Value: o.IntegrationCode},
		shipper.Field{Name: "receiverName", Value: o.ReceiverName},
		shipper.Field{Name: "receiverAddress", Value: o.ReceiverAddress},
		shipper.Field{Name: "receiverPhone1", Value: o.ReceiverPhone1},
		shipper.Field{Name: "receiverCityName", Value: o.ReceiverCityName},
		shipper.Field{Name: "receiverTownName", Value: o.ReceiverTownName},
	)
}

// Payload builds the Order document.
func (o Order) Payload() shipper.Payload {
	return shipper.Payload{
		"TradingWaybillNumber": o.TradingWaybillNumber,
		"IntegrationCode":      o.IntegrationCode,
		"ReceiverName":         o.ReceiverName,
		"ReceiverAddress":      o.ReceiverAddress,
		"ReceiverPhone1":       o.ReceiverPhone1,
		"ReceiverCityName":     o.ReceiverCityName,
		"ReceiverTownName":     o.ReceiverTownName,
		"PayorTypeCode":        o.PayorTypeCode,
		"IsWorldWide":          o.IsWorldWide,
		"IsCod":                o.IsCod,
		"CodAmount":            o.CodAmount,
		"CodCollectionType":    o.CodCollectionType,
		"PieceDetails":         map[string]any{"BarcodeNumber": o.BarcodeNumber},
	}
}

// Builder accumulates account, payload and mode for one Aras call chain.
type Builder struct {
	client *Client
	draft  shipper.Draft
}

// NewBuilder returns a builder bound to client.
func NewBuilder(client *Client) *Builder {
	return &Builder{client: client}
}

// Account sets the credentials. Every argument must be non-blank.
func (b *Builder) Account(username, password, customerCode string) *Builder {
	if err := shipper.NotBlank(
		shipper.Field{Name: "username", Value: username},
		shipper.Field{Name: "password", Value: password},
		shipper.Field{Name: "customerCode", Value: customerCode},
	); err != nil {
		b.draft.Fail(err)
		return b
	}
	b.draft.Account = shipper.Account{
		"username":      username,
		"password":      password,
		"customer_code": customerCode,
	}
	return b
}

// Payload validates o and uses it as the order.
func (b *Builder) Payload(o Order) *Builder {
	if err := o.validate(); err != nil {
		b.draft.Fail(err)
		return b
	}
	b.draft.Payload = o.Payload()
	return b
}

// PayloadRaw uses p as-is, without field validation.
func (b *Builder) PayloadRaw(p shipper.Payload) *Builder {
	b.draft.Payload = p
	return b
}

// Test records the test flag. Aras uses the same endpoints either way.
func (b *Builder) Test(enabled bool) *Builder {
	b.draft.TestMode = enabled
	return b
}

// Send submits the order.
func (b *Builder) Send(ctx context.Context) (shipper.Result, error) {
	return b.send(ctx, false)
}

// Return submits the order as a return. Aras takes returns as regular orders.
func (b *Builder) Return(ctx context.Context) (shipper.Result, error) {
	return b.send(ctx, true)
}

func (b *Builder) send(ctx context.Context, isReturn bool) (shipper.Result, error) {
	if err := b.draft.Ready(); err != nil {
		return nil, err
	}
	return b.client.Send(ctx, &shipper.SendRequest{
		Account:  b.draft.Account,
		Payload:  b.draft.Payload,
		TestMode: b.draft.TestMode,
		Return:   isReturn,
	})
}

// Track queries a shipment by integration code.
func (b *Builder) Track(ctx context.Context, trackingNo string) (shipper.Result, error) {
	if err := b.ready("trackingNo", trackingNo); err != nil {
		return nil, err
	}
	return b.client.Track(ctx, &shipper.TrackRequest{
		Account:   b.draft.Account,
		Reference: trackingNo,
		TestMode:  b.draft.TestMode,
	})
}

// Cancel cancels an order by integration code.
func (b *Builder) Cancel(ctx context.Context, integrationCode string) (shipper.Result, error) {
	if err := b.ready("integrationCode", integrationCode); err != nil {
		return nil, err
	}
	return b.client.Cancel(ctx, &shipper.CancelRequest{
		Account:   b.draft.Account,
		Reference: integrationCode,
		TestMode:  b.draft.TestMode,
	})
}

func (b *Builder) ready(field, value string) error {
	if err := b.draft.Ready(); err != nil {
		return err
	}
	return shipper.NotBlank(shipper.Field{Name: field, Value: value})
}
