package hepsijet

import (
	"context"

	"github.com/tournevent/kargo/pkg/shipper"
)

// Address is a sender or recipient address of a delivery.
type Address struct {
	CompanyAddressID string
	CityName         string
	TownName         string
	DistrictName     string
	AddressLine1     string
}

// Delivery describes a single HepsiJet delivery order.
type Delivery struct {
	CustomerDeliveryNo   string
	CustomerOrderID      string
	TotalParcels         string
	Desi                 string
	DeliveryDateOriginal string
	DeliveryType         string
	ProductCode          string

	ReceiverCompanyCustomerID string
	ReceiverFirstName         string
	ReceiverLastName          string
	ReceiverPhone1            string
	ReceiverEmail             string

	Sender    Address
	Recipient Address

	RecipientPerson       string
	RecipientPersonPhone1 string

	// CountryName defaults to "Turkiye".
	CountryName string
	// DeliverySlotOriginal defaults to "0".
	DeliverySlotOriginal string

	// Extra is merged into the top level of the payload.
	Extra shipper.Payload
}

func (d Delivery) validate() error {
	return shipper.NotBlank(
		shipper.Field{Name: "customerDeliveryNo", Value: d.CustomerDeliveryNo},
		shipper.Field{Name: "customerOrderId", Value: d.CustomerOrderID},
		shipper.Field{Name: "deliveryDateOriginal", Value: d.DeliveryDateOriginal},
		shipper.Field{Name: "deliveryType", Value: d.DeliveryType},
		shipper.Field{Name: "productCode", Value: d.ProductCode},
		shipper.Field{Name: "receiverFirstName", Value: d.ReceiverFirstName},
		shipper.Field{Name: "receiverLastName", Value: d.ReceiverLastName},
		shipper.Field{Name: "receiverPhone1", Value: d.ReceiverPhone1},
		shipper.Field{Name: "senderCompanyAddressId", Value: d.Sender.CompanyAddressID},
		shipper.Field{Name: "senderCityName", Value: d.Sender.CityName},
		shipper.Field{Name: "senderTownName", Value: d.Sender.TownName},
		shipper.Field{Name: "senderAddressLine1", Value: d.Sender.AddressLine1},
		shipper.Field{Name: "recipientCompanyAddressId", Value: d.Recipient.CompanyAddressID},
		shipper.Field{Name: "recipientCityName", Value: d.Recipient.CityName},
		shipper.Field{Name: "recipientTownName", Value: d.Recipient.TownName},
		shipper.Field{Name: "recipientAddressLine1", Value: d.Recipient.AddressLine1},
		shipper.Field{Name: "recipientPerson", Value: d.RecipientPerson},
		shipper.Field{Name: "recipientPersonPhone1", Value: d.RecipientPersonPhone1},
	)
}

// Payload builds the sendDeliveryOrderEnhanced document.
func (d Delivery) Payload() shipper.Payload {
	country := d.CountryName
	if country == "" {
		country = "Turkiye"
	}
	slot := d.DeliverySlotOriginal
	if slot == "" {
		slot = "0"
	}
	address := func(a Address) map[string]any {
		return map[string]any{
			"companyAddressId": a.CompanyAddressID,
			"country":          map[string]any{"name": country},
			"city":             map[string]any{"name": a.CityName},
			"town":             map[string]any{"name": a.TownName},
			"district":         map[string]any{"name": a.DistrictName},
			"addressLine1":     a.AddressLine1,
		}
	}

	p := shipper.Payload{
		"delivery": map[string]any{
			"customerDeliveryNo":   d.CustomerDeliveryNo,
			"customerOrderId":      d.CustomerOrderID,
			"totalParcels":         d.TotalParcels,
			"desi":                 d.Desi,
			"deliverySlotOriginal": slot,
			"deliveryDateOriginal": d.DeliveryDateOriginal,
			"deliveryType":         d.DeliveryType,
			"product":              map[string]any{"productCode": d.ProductCode},
			"receiver": map[string]any{
				"companyCustomerId": d.ReceiverCompanyCustomerID,
				"firstName":         d.ReceiverFirstName,
				"lastName":          d.ReceiverLastName,
				"phone1":            d.ReceiverPhone1,
				"email":             d.ReceiverEmail,
			},
			"senderAddress":         address(d.Sender),
			"recipientAddress":      address(d.Recipient),
			"recipientPerson":       d.RecipientPerson,
			"recipientPersonPhone1": d.RecipientPersonPhone1,
		},
	}
	for k, v := range d.Extra {
		p[k] = v
	}
	return p
}

// Builder accumulates account, payload and mode for one HepsiJet call chain.
// HepsiJet has no return shipments, so Builder offers no Return method.
type Builder struct {
	client *Client
	draft  shipper.Draft
}

// NewBuilder returns a builder bound to client.
func NewBuilder(client *Client) *Builder {
	return &Builder{client: client}
}

// Account sets the credentials. Every argument must be non-blank.
func (b *Builder) Account(username, password, companyName, companyCode string) *Builder {
	if err := shipper.NotBlank(
		shipper.Field{Name: "username", Value: username},
		shipper.Field{Name: "password", Value: password},
		shipper.Field{Name: "companyName", Value: companyName},
		shipper.Field{Name: "companyCode", Value: companyCode},
	); err != nil {
		b.draft.Fail(err)
		return b
	}
	b.draft.Account = shipper.Account{
		"username":     username,
		"password":     password,
		"company_name": companyName,
		"company_code": companyCode,
	}
	return b
}

// Payload validates d and uses it as the delivery order.
func (b *Builder) Payload(d Delivery) *Builder {
	if err := d.validate(); err != nil {
		b.draft.Fail(err)
		return b
	}
	b.draft.Payload = d.Payload()
	return b
}

// PayloadRaw uses p as-is, without field validation.
func (b *Builder) PayloadRaw(p shipper.Payload) *Builder {
	b.draft.Payload = p
	return b
}

// Test switches to the test environment.
func (b *Builder) Test(enabled bool) *Builder {
	b.draft.TestMode = enabled
	return b
}

// Send creates the delivery order.
func (b *Builder) Send(ctx context.Context) (shipper.Result, error) {
	if err := b.draft.Ready(); err != nil {
		return nil, err
	}
	return b.client.Send(ctx, &shipper.SendRequest{
		Account:  b.draft.Account,
		Payload:  b.draft.Payload,
		TestMode: b.draft.TestMode,
	})
}

// Track returns the tracking transactions of a barcode.
func (b *Builder) Track(ctx context.Context, barcode string) (shipper.Result, error) {
	if err := b.ready(barcode); err != nil {
		return nil, err
	}
	return b.client.Track(ctx, &shipper.TrackRequest{
		Account:   b.draft.Account,
		Reference: barcode,
		TestMode:  b.draft.TestMode,
	})
}

// TrackingLink creates a public tracking link for data.
func (b *Builder) TrackingLink(ctx context.Context, data shipper.Payload) (shipper.Result, error) {
	if err := b.draft.Ready(); err != nil {
		return nil, err
	}
	return b.client.CreateTrackingLink(ctx, &shipper.LinkRequest{
		Account:  b.draft.Account,
		Payload:  data,
		TestMode: b.draft.TestMode,
	})
}

// Cancel deletes the delivery order of a barcode.
func (b *Builder) Cancel(ctx context.Context, barcode string) (shipper.Result, error) {
	if err := b.ready(barcode); err != nil {
		return nil, err
	}
	return b.client.Cancel(ctx, &shipper.CancelRequest{
		Account:   b.draft.Account,
		Reference: barcode,
		TestMode:  b.draft.TestMode,
	})
}

func (b *Builder) ready(barcode string) error {
	if err := b.draft.Ready(); err != nil {
		return err
	}
	return shipper.NotBlank(shipper.Field{Name: "barcode", Value: barcode})
}
