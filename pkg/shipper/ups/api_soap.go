package ups

import (
	"context"
	"errors"
	"time"

	"github.com/tournevent/kargo/pkg/shipper"
	"github.com/tournevent/kargo/pkg/shipper/soap"
)

const (
	DefaultShipmentEndpoint  = "https://ws.ups.com.tr/wsCreateShipment/wsCreateShipment.asmx"
	DefaultShipmentNamespace = "http://ws.ups.com.tr/wsCreateShipment"
	DefaultQueryEndpoint     = "https://ws.ups.com.tr/QueryPackageInfo/wsQueryPackagesInfo.asmx"
	DefaultQueryNamespace    = "http://ws.ups.com.tr/wsPaketSorgulamaEng"
)

// shipmentInfoOrder is the element order of the ShipmentInfo_Type2 sequence.
var shipmentInfoOrder = []string{
	"ShipperAccountNumber",
	"ShipperName",
	"ShipperContactName",
	"ShipperAddress",
	"ShipperCityCode",
	"ShipperAreaCode",
	"ShipperPostalCode",
	"ShipperPhoneNumber",
	"ShipperPhoneExtension",
	"ShipperMobilePhoneNumber",
	"ShipperEMail",
	"ShipperExpenseCode",
	"ConsigneeAccountNumber",
	"ConsigneeName",
	"ConsigneeContactName",
	"ConsigneeAddress",
	"ConsigneeCityCode",
	"ConsigneeAreaCode",
	"ConsigneePostalCode",
	"ConsigneePhoneNumber",
	"ConsigneePhoneExtension",
	"ConsigneeMobilePhoneNumber",
	"ConsigneeEMail",
	"ConsigneeExpenseCode",
	"ServiceLevel",
	"PaymentType",
	"PackageType",
	"NumberOfPackages",
	"CustomerReferance",
	"CustomerInvoiceNumber",
	"DescriptionOfGoods",
	"DeliveryNotificationEmail",
	"IdControlFlag",
	"PhonePrealertFlag",
	"SmsToShipper",
	"SmsToConsignee",
	"InsuranceValue",
	"InsuranceValueCurrency",
	"ValueOfGoods",
	"ValueOfGoodsCurrency",
	"ValueOfGoodsPaymentType",
	"Length",
	"Height",
	"Width",
}

// SOAPAPIClient is the production implementation of APIClient.
type SOAPAPIClient struct {
	shipment *soap.Client
	query    *soap.Client
}

// SOAPAPIClientConfig holds configuration for the SOAP client. Zero values
// select the production services.
type SOAPAPIClientConfig struct {
	ShipmentEndpoint  string
	ShipmentNamespace string
	QueryEndpoint     string
	QueryNamespace    string
	ConnectTimeout    time.Duration
	Timeout           time.Duration
}

// NewSOAPAPIClient creates a new SOAP-based API client for production use.
func NewSOAPAPIClient(cfg SOAPAPIClientConfig) *SOAPAPIClient {
	if cfg.ShipmentEndpoint == "" {
		cfg.ShipmentEndpoint = DefaultShipmentEndpoint
	}
	if cfg.ShipmentNamespace == "" {
		cfg.ShipmentNamespace = DefaultShipmentNamespace
	}
	if cfg.QueryEndpoint == "" {
		cfg.QueryEndpoint = DefaultQueryEndpoint
	}
	if cfg.QueryNamespace == "" {
		cfg.QueryNamespace = DefaultQueryNamespace
	}
	return &SOAPAPIClient{
		shipment: soap.New(soap.Config{
			Endpoint:       cfg.ShipmentEndpoint,
			Namespace:      cfg.ShipmentNamespace,
			Qualified:      true,
			ConnectTimeout: cfg.ConnectTimeout,
			Timeout:        cfg.Timeout,
		}),
		query: soap.New(soap.Config{
			Endpoint:       cfg.QueryEndpoint,
			Namespace:      cfg.QueryNamespace,
			Qualified:      true,
			ConnectTimeout: cfg.ConnectTimeout,
			Timeout:        cfg.Timeout,
		}),
	}
}

// LoginShipment calls Login_Type1.
func (c *SOAPAPIClient) LoginShipment(ctx context.Context, creds Credentials) (string, error) {
	return login(ctx, c.shipment, "Login_Type1", creds)
}

// LoginQuery calls Login_V1.
func (c *SOAPAPIClient) LoginQuery(ctx context.Context, creds Credentials) (string, error) {
	return login(ctx, c.query, "Login_V1", creds)
}

func login(ctx context.Context, client *soap.Client, operation string, creds Credentials) (string, error) {
	res, err := client.Call(ctx, operation, soap.Fields{
		{Name: "CustomerNumber", Value: creds.CustomerNumber},
		{Name: "UserName", Value: creds.Username},
		{Name: "Password", Value: creds.Password},
	})
	if err != nil {
		return "", err
	}
	sessionID := shipper.LookupString(res, operation+"Result", "SessionID")
	if sessionID == "" {
		return "", errors.New("SessionID bos dondu")
	}
	return sessionID, nil
}

// CreateShipment calls CreateShipment_Type2 and asks for the label link and image.
func (c *SOAPAPIClient) CreateShipment(ctx context.Context, sessionID string, shipment shipper.Payload) (shipper.Result, error) {
	return c.shipment.Call(ctx, "CreateShipment_Type2", soap.Fields{
		{Name: "SessionID", Value: sessionID},
		{Name: "ShipmentInfo", Value: soap.Ordered(shipment, shipmentInfoOrder...)},
		{Name: "ReturnLabelLink", Value: true},
		{Name: "ReturnLabelImage", Value: true},
	})
}

// GetTransactions calls GetTransactionsByTrackingNumber_V1 at information level 1.
func (c *SOAPAPIClient) GetTransactions(ctx context.Context, sessionID, trackingNo string) (shipper.Result, error) {
	return c.query.Call(ctx, "GetTransactionsByTrackingNumber_V1", soap.Fields{
		{Name: "SessionID", Value: sessionID},
		{Name: "InformationLevel", Value: 1},
		{Name: "TrackingNumber", Value: trackingNo},
	})
}
