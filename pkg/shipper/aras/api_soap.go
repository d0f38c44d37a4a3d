package aras

import (
	"context"
	"time"

	"github.com/tournevent/kargo/pkg/shipper"
	"github.com/tournevent/kargo/pkg/shipper/soap"
)

const (
	DefaultOrderEndpoint = "https://customerws.araskargo.com.tr/arascargoservice.asmx"
	DefaultQueryEndpoint = "https://customerservices.araskargo.com.tr/ArasCargoCustomerIntegrationService/ArasCargoIntegrationService.svc"
	DefaultNamespace     = "http://tempuri.org/"
	// DefaultQueryAction prefixes the SOAPAction of the WCF query service.
	DefaultQueryAction = "http://tempuri.org/IArasCargoIntegrationService/"
)

// orderFieldOrder is the element order of the Order sequence.
var orderFieldOrder = []string{
	"UserName",
	"Password",
	"TradingWaybillNumber",
	"InvoiceNumber",
	"IntegrationCode",
	"ReceiverName",
	"ReceiverAddress",
	"ReceiverPhone1",
	"ReceiverPhone2",
	"ReceiverPhone3",
	"ReceiverCityName",
	"ReceiverTownName",
	"VolumetricWeight",
	"Weight",
	"PieceCount",
	"SpecialField1",
	"SpecialField2",
	"SpecialField3",
	"IsCod",
	"CodAmount",
	"CodCollectionType",
	"CodBillingType",
	"PayorTypeCode",
	"IsWorldWide",
	"Description",
	"PieceDetails",
}

// SOAPAPIClient is the production implementation of APIClient.
type SOAPAPIClient struct {
	order *soap.Client
	query *soap.Client
}

// SOAPAPIClientConfig holds configuration for the SOAP client. Zero values
// select the production services.
type SOAPAPIClientConfig struct {
	OrderEndpoint  string
	QueryEndpoint  string
	Namespace      string
	QueryAction    string
	ConnectTimeout time.Duration
	Timeout        time.Duration
}

// NewSOAPAPIClient creates a new SOAP-based API client for production use.
func NewSOAPAPIClient(cfg SOAPAPIClientConfig) *SOAPAPIClient {
	if cfg.OrderEndpoint == "" {
		cfg.OrderEndpoint = DefaultOrderEndpoint
	}
	if cfg.QueryEndpoint == "" {
		cfg.QueryEndpoint = DefaultQueryEndpoint
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if cfg.QueryAction == "" {
		cfg.QueryAction = DefaultQueryAction
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 3 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 8 * time.Second
	}
	return &SOAPAPIClient{
		order: soap.New(soap.Config{
			Endpoint:       cfg.OrderEndpoint,
			Namespace:      cfg.Namespace,
			Qualified:      true,
			ConnectTimeout: cfg.ConnectTimeout,
			Timeout:        cfg.Timeout,
		}),
		query: soap.New(soap.Config{
			Endpoint:       cfg.QueryEndpoint,
			Namespace:      cfg.Namespace,
			Qualified:      true,
			ActionBase:     cfg.QueryAction,
			ConnectTimeout: cfg.ConnectTimeout,
			Timeout:        cfg.Timeout,
		}),
	}
}

// SetOrder calls SetOrder with a single order.
func (c *SOAPAPIClient) SetOrder(ctx context.Context, creds Credentials, order shipper.Payload) (shipper.Result, error) {
	return c.order.Call(ctx, "SetOrder", soap.Fields{
		{Name: "orderInfo", Value: soap.Fields{
			{Name: "Order", Value: soap.Ordered(order, orderFieldOrder...)},
		}},
		{Name: "userName", Value: creds.Username},
		{Name: "password", Value: creds.Password},
	})
}

// CancelDispatch calls CancelDispatch.
func (c *SOAPAPIClient) CancelDispatch(ctx context.Context, creds Credentials, integrationCode string) (shipper.Result, error) {
	return c.order.Call(ctx, "CancelDispatch", soap.Fields{
		{Name: "userName", Value: creds.Username},
		{Name: "password", Value: creds.Password},
		{Name: "integrationCode", Value: integrationCode},
	})
}

// GetQueryXML calls GetQueryXML. Login and query info travel as XML
// documents inside string parameters.
func (c *SOAPAPIClient) GetQueryXML(ctx context.Context, creds Credentials, queryType int, integrationCode string) (string, error) {
	loginInfo, err := soap.Fragment("LoginInfo", soap.Fields{
		{Name: "UserName", Value: creds.Username},
		{Name: "Password", Value: creds.Password},
		{Name: "CustomerCode", Value: creds.CustomerCode},
	})
	if err != nil {
		return "", err
	}
	queryInfo, err := soap.Fragment("QueryInfo", soap.Fields{
		{Name: "QueryType", Value: queryType},
		{Name: "IntegrationCode", Value: integrationCode},
	})
	if err != nil {
		return "", err
	}

	res, err := c.query.Call(ctx, "GetQueryXML", soap.Fields{
		{Name: "loginInfo", Value: loginInfo},
		{Name: "queryInfo", Value: queryInfo},
	})
	if err != nil {
		return "", err
	}
	return shipper.LookupString(res, "GetQueryXMLResult"), nil
}
