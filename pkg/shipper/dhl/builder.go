package dhl

import (
	"context"

	"github.com/tournevent/kargo/pkg/shipper"
)

// Order describes an MNG order with a single piece.
type Order struct {
	ReferenceID         string
	Barcode             string
	IsCOD               bool
	CODAmount           float64
	ShipmentServiceType int
	PackagingType       int
	PaymentType         int
	DeliveryType        int
	Content             string
	Description         string

	CityCode          int
	CityName          string
	DistrictName      string
	DistrictCode      int
	Address           string
	FullName          string
	MobilePhoneNumber string

	// PieceBarcode defaults to "Product".
	PieceBarcode string
	PieceDesi    float64
	PieceKg      float64
	PieceContent string

	SMSPreference1 int
	SMSPreference2 int
	SMSPreference3 int

	// BillOfLandingID defaults to Barcode.
	BillOfLandingID      string
	MarketPlaceShortCode string
	MarketPlaceSaleCode  string
	PudoID               string

	CustomerID          string
	RefCustomerID       string
	BusinessPhoneNumber string
	Email               string
	TaxOffice           string
	TaxNumber           string
	HomePhoneNumber     string

	// Shipper, when non-empty, overrides the account's sender details.
	Shipper map[string]any
}

func (o Order) validate() error {
	return shipper.NotBlank(
		shipper.Field{Name: "referenceId", Value: o.ReferenceID},
		shipper.Field{Name: "barcode", Value: o.Barcode},
		shipper.Field{Name: "content", Value: o.Content},
		shipper.Field{Name: "description", Value: o.Description},
		shipper.Field{Name: "cityName", Value: o.CityName},
		shipper.Field{Name: "districtName", Value: o.DistrictName},
		shipper.Field{Name: "address", Value: o.Address},
		shipper.Field{Name: "fullName", Value: o.FullName},
		shipper.Field{Name: "mobilePhoneNumber", Value: o.MobilePhoneNumber},
	)
}

// Payload builds the createOrder document.
func (o Order) Payload() shipper.Payload {
	billOfLanding := o.BillOfLandingID
	if billOfLanding == "" {
		billOfLanding = o.Barcode
	}
	pieceBarcode := o.PieceBarcode
	if pieceBarcode == "" {
		pieceBarcode = "Product"
	}
	isCOD, codAmount := 0, 0.0
	if o.IsCOD {
		isCOD, codAmount = 1, o.CODAmount
	}

	p := shipper.Payload{
		"order": map[string]any{
			"referenceId":          o.ReferenceID,
			"barcode":              o.Barcode,
			"billOfLandingId":      billOfLanding,
			"isCOD":                isCOD,
			"codAmount":            codAmount,
			"shipmentServiceType":  o.ShipmentServiceType,
			"packagingType":        o.PackagingType,
			"smsPreference1":       o.SMSPreference1,
			"smsPreference2":       o.SMSPreference2,
			"smsPreference3":       o.SMSPreference3,
			"paymentType":          o.PaymentType,
			"deliveryType":         o.DeliveryType,
			"content":              o.Content,
			"description":          o.Description,
			"marketPlaceShortCode": o.MarketPlaceShortCode,
			"marketPlaceSaleCode":  o.MarketPlaceSaleCode,
			"pudoId":               o.PudoID,
		},
		"orderPieceList": []any{map[string]any{
			"barcode": pieceBarcode,
			"desi":    o.PieceDesi,
			"kg":      o.PieceKg,
			"content": o.PieceContent,
		}},
		"recipient": map[string]any{
			"customerId":           o.CustomerID,
			"refCustomerId":        o.RefCustomerID,
			"cityCode":             o.CityCode,
			"cityName":             o.CityName,
			"districtName":         o.DistrictName,
			"districtCode":         o.DistrictCode,
			"address":              o.Address,
			"bussinessPhoneNumber": o.BusinessPhoneNumber,
			"email":                o.Email,
			"taxOffice":            o.TaxOffice,
			"taxNumber":            o.TaxNumber,
			"fullName":             o.FullName,
			"homePhoneNumber":      o.HomePhoneNumber,
			"mobilePhoneNumber":    o.MobilePhoneNumber,
		},
	}
	if len(o.Shipper) > 0 {
		p["shipper"] = o.Shipper
	}
	return p
}

// Builder accumulates account, payload and mode for one DHL call chain.
type Builder struct {
	client *Client
	draft  shipper.Draft
}

// NewBuilder returns a builder bound to client.
func NewBuilder(client *Client) *Builder {
	return &Builder{client: client}
}

// Account sets the customer credentials and API gateway keys.
func (b *Builder) Account(username, password, clientID, clientSecret string) *Builder {
	if err := shipper.NotBlank(
		shipper.Field{Name: "username", Value: username},
		shipper.Field{Name: "password", Value: password},
		shipper.Field{Name: "clientId", Value: clientID},
		shipper.Field{Name: "clientSecret", Value: clientSecret},
	); err != nil {
		b.draft.Fail(err)
		return b
	}
	b.draft.Account = shipper.Account{
		"username":      username,
		"password":      password,
		"client_id":     clientID,
		"client_secret": clientSecret,
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

// Test switches to the test environment.
func (b *Builder) Test(enabled bool) *Builder {
	b.draft.TestMode = enabled
	return b
}

// Send creates the order.
func (b *Builder) Send(ctx context.Context) (shipper.Result, error) {
	return b.send(ctx, false)
}

// Return creates the order as a return order.
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

// Track returns the shipment state of trackingNo.
func (b *Builder) Track(ctx context.Context, trackingNo string) (shipper.Result, error) {
	req, err := b.trackRequest(trackingNo)
	if err != nil {
		return nil, err
	}
	return b.client.Track(ctx, req)
}

// Movements returns the movement history of trackingNo.
func (b *Builder) Movements(ctx context.Context, trackingNo string) (shipper.Result, error) {
	req, err := b.trackRequest(trackingNo)
	if err != nil {
		return nil, err
	}
	return b.client.Movements(ctx, req)
}

func (b *Builder) trackRequest(trackingNo string) (*shipper.TrackRequest, error) {
	if err := b.draft.Ready(); err != nil {
		return nil, err
	}
	if err := shipper.NotBlank(shipper.Field{Name: "trackingNo", Value: trackingNo}); err != nil {
		return nil, err
	}
	return &shipper.TrackRequest{
		Account:   b.draft.Account,
		Reference: trackingNo,
		TestMode:  b.draft.TestMode,
	}, nil
}
