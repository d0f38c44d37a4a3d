package ups

import (
	"context"

	"github.com/tournevent/kargo/pkg/shipper"
)

// Shipment describes a CreateShipment_Type2 ShipmentInfo. Start from
// NewShipment to get the service defaults.
type Shipment struct {
	ShipperAccountNumber       string
	ShipperName                string
	ShipperAddress             string
	ShipperCityCode            string
	ShipperAreaCode            string
	ConsigneeName              string
	ConsigneeContactName       string
	ConsigneeAddress           string
	ConsigneeCityCode          string
	ConsigneeAreaCode          string
	ConsigneePhoneNumber       string
	ConsigneeMobilePhoneNumber string

	PackageType             string
	ServiceLevel            int
	PaymentType             int
	IDControlFlag           int
	PhonePrealertFlag       int
	SMSToShipper            int
	SMSToConsignee          int
	InsuranceValue          float64
	InsuranceValueCurrency  string
	NumberOfPackages        int
	DescriptionOfGoods      string
	Length                  float64
	Height                  float64
	Width                   float64
	ValueOfGoods            float64
	ValueOfGoodsCurrency    string
	ValueOfGoodsPaymentType int

	// Extra is merged over the generated fields.
	Extra shipper.Payload
}

// NewShipment returns a Shipment with the default package, service and
// notification settings: a document package at service level 3, paid by
// the consignee, with an SMS to the consignee.
func NewShipment() Shipment {
	return Shipment{
		PackageType:             "D",
		ServiceLevel:            3,
		PaymentType:             2,
		SMSToConsignee:          1,
		InsuranceValueCurrency:  "TL",
		NumberOfPackages:        1,
		DescriptionOfGoods:      "0.5",
		Length:                  0.5,
		Height:                  0.5,
		Width:                   0.5,
		ValueOfGoodsCurrency:    "TL",
		ValueOfGoodsPaymentType: 1,
	}
}

func (s Shipment) validate() error {
	return shipper.NotBlank(
		shipper.Field{Name: "shipperAccountNumber", Value: s.ShipperAccountNumber},
		shipper.Field{Name: "shipperName", Value: s.ShipperName},
		shipper.Field{Name: "shipperAddress", Value: s.ShipperAddress},
		shipper.Field{Name: "consigneeName", Value: s.ConsigneeName},
		shipper.Field{Name: "consigneeContactName", Value: s.ConsigneeContactName},
		shipper.Field{Name: "consigneeAddress", Value: s.ConsigneeAddress},
		shipper.Field{Name: "consigneePhoneNumber", Value: s.ConsigneePhoneNumber},
		shipper.Field{Name: "consigneeMobilePhoneNumber", Value: s.ConsigneeMobilePhoneNumber},
	)
}

// Payload builds the ShipmentInfo document.
func (s Shipment) Payload() shipper.Payload {
	p := shipper.Payload{
		"ShipperAccountNumber":       s.ShipperAccountNumber,
		"ShipperName":                s.ShipperName,
		"ShipperAddress":             s.ShipperAddress,
		"ShipperCityCode":            s.ShipperCityCode,
		"ShipperAreaCode":            s.ShipperAreaCode,
		"ConsigneeName":              s.ConsigneeName,
		"ConsigneeContactName":       s.ConsigneeContactName,
		"ConsigneeAddress":           s.ConsigneeAddress,
		"ConsigneeCityCode":          s.ConsigneeCityCode,
		"ConsigneeAreaCode":          s.ConsigneeAreaCode,
		"ConsigneePhoneNumber":       s.ConsigneePhoneNumber,
		"ConsigneeMobilePhoneNumber": s.ConsigneeMobilePhoneNumber,
		"PackageType":                s.PackageType,
		"ServiceLevel":               s.ServiceLevel,
		"PaymentType":                s.PaymentType,
		"IdControlFlag":              s.IDControlFlag,
		"PhonePrealertFlag":          s.PhonePrealertFlag,
		"SmsToShipper":               s.SMSToShipper,
		"SmsToConsignee":             s.SMSToConsignee,
		"InsuranceValue":             s.InsuranceValue,
		"InsuranceValueCurrency":     s.InsuranceValueCurrency,
		"NumberOfPackages":           s.NumberOfPackages,
		"DescriptionOfGoods":         s.DescriptionOfGoods,
		"Length":                     s.Length,
		"Height":                     s.Height,
		"Width":                      s.Width,
		"ValueOfGoods":               s.ValueOfGoods,
		"ValueOfGoodsCurrency":       s.ValueOfGoodsCurrency,
		"ValueOfGoodsPaymentType":    s.ValueOfGoodsPaymentType,
	}
	for k, v := range s.Extra {
		p[k] = v
	}
	return p
}

// Builder accumulates account, payload and mode for one UPS call chain.
// UPS has no return shipments, so Builder offers no Return method.
type Builder struct {
	client *Client
	draft  shipper.Draft
}

// NewBuilder returns a builder bound to client.
func NewBuilder(client *Client) *Builder {
	return &Builder{client: client}
}

// Account sets the web service credentials.
func (b *Builder) Account(customerNumber, username, password string) *Builder {
	if err := shipper.NotBlank(
		shipper.Field{Name: "customerNumber", Value: customerNumber},
		shipper.Field{Name: "username", Value: username},
		shipper.Field{Name: "password", Value: password},
	); err != nil {
		b.draft.Fail(err)
		return b
	}
	b.draft.Account = shipper.Account{
		"customer_number": customerNumber,
		"username":        username,
		"password":        password,
	}
	return b
}

// Payload validates s and uses it as the shipment.
func (b *Builder) Payload(s Shipment) *Builder {
	if err := s.validate(); err != nil {
		b.draft.Fail(err)
		return b
	}
	b.draft.Payload = s.Payload()
	return b
}

// PayloadRaw uses p as-is, without field validation.
func (b *Builder) PayloadRaw(p shipper.Payload) *Builder {
	b.draft.Payload = p
	return b
}

// Test records the test flag. UPS uses the same services either way.
func (b *Builder) Test(enabled bool) *Builder {
	b.draft.TestMode = enabled
	return b
}

// Send creates the shipment.
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

// Track returns the transactions of trackingNo.
func (b *Builder) Track(ctx context.Context, trackingNo string) (shipper.Result, error) {
	if err := b.draft.Ready(); err != nil {
		return nil, err
	}
	if err := shipper.NotBlank(shipper.Field{Name: "trackingNo", Value: trackingNo}); err != nil {
		return nil, err
	}
	return b.client.Track(ctx, &shipper.TrackRequest{
		Account:   b.draft.Account,
		Reference: trackingNo,
		TestMode:  b.draft.TestMode,
	})
}
