package aras_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/kargo/pkg/shipper"
	"github.com/tournevent/kargo/pkg/shipper/aras"
	"github.com/tournevent/kargo/pkg/shipper/soap"
	"github.com/tournevent/kargo/pkg/shipper/soap/soaptest"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestClient(mockClient *aras.MockAPIClient) *aras.Client {
	logger := otelzap.New(zap.NewNop())
	return aras.NewWithAPIClient(
		aras.Config{},
		mockClient,
		logger,
		nil,
	)
}

func testAccount() shipper.Account {
	return shipper.Account{
		"username":      "user",
		"password":      "secret",
		"customer_code": "C42",
	}
}

func testOrder() aras.Order {
	o := aras.NewOrder()
	o.TradingWaybillNumber = "W100"
	o.IntegrationCode = "INT100"
	o.ReceiverName = "Ali Veli"
	o.ReceiverAddress = "Ev 2"
	o.ReceiverPhone1 = "5320000000"
	o.ReceiverCityName = "Ankara"
	o.ReceiverTownName = "Cankaya"
	return o
}

func TestClient_Name(t *testing.T) {
	assert.Equal(t, "aras", newTestClient(aras.NewMockAPIClient()).Name())
}

func TestClient_Send_FillsDefaults(t *testing.T) {
	mockAPI := aras.NewMockAPIClient()
	var got shipper.Payload
	mockAPI.OnSetOrder = func(ctx context.Context, creds aras.Credentials, order shipper.Payload) (shipper.Result, error) {
		got = order
		return shipper.Result{"SetOrderResult": map[string]any{
			"OrderResultInfo": map[string]any{"ResultCode": "0", "InvoiceKey": "INT100"},
		}}, nil
	}
	client := newTestClient(mockAPI)

	payload := shipper.Payload{
		"TradingWaybillNumber": "W100",
		"IntegrationCode":      "INT100",
		"ReceiverName":         "Ali Veli",
		"ReceiverAddress":      "Ev 2",
		"ReceiverPhone1":       "5320000000",
		"ReceiverCityName":     "Ankara",
		"ReceiverTownName":     "Cankaya",
		"PieceDetails":         "invalid",
	}
	res, err := client.Send(context.Background(), &shipper.SendRequest{Account: testAccount(), Payload: payload})

	require.NoError(t, err)
	assert.Equal(t, shipper.Result{"ResultCode": "0", "InvoiceKey": "INT100"}, res)
	assert.Equal(t, "user", got["UserName"])
	assert.Equal(t, "secret", got["Password"])
	assert.Equal(t, 0, got["PayorTypeCode"])
	assert.Equal(t, 0, got["IsCod"])
	assert.Equal(t, map[string]any{"BarcodeNumber": ""}, got["PieceDetails"])
	assert.Equal(t, "invalid", payload["PieceDetails"])
}

func TestClient_Send_PayloadOverridesCredentials(t *testing.T) {
	mockAPI := aras.NewMockAPIClient()
	var got shipper.Payload
	mockAPI.OnSetOrder = func(ctx context.Context, creds aras.Credentials, order shipper.Payload) (shipper.Result, error) {
		got = order
		return shipper.Result{}, nil
	}
	payload := testOrder().Payload()
	payload["UserName"] = "override"

	_, err := newTestClient(mockAPI).Send(context.Background(), &shipper.SendRequest{Account: testAccount(), Payload: payload})

	require.NoError(t, err)
	assert.Equal(t, "override", got["UserName"])
	assert.Equal(t, 1, got["PayorTypeCode"])
}

func TestClient_Send_KeepsPieceDetails(t *testing.T) {
	tests := []struct {
		name   string
		pieces any
	}{
		{"payload map", shipper.Payload{"BarcodeNumber": "BC9"}},
		{"plain map", map[string]any{"BarcodeNumber": "BC9"}},
		{"piece list", []any{
			map[string]any{"BarcodeNumber": "BC1"},
			map[string]any{"BarcodeNumber": "BC2"},
		}},
		{"typed piece list", []map[string]any{{"BarcodeNumber": "BC1"}, {"BarcodeNumber": "BC2"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAPI := aras.NewMockAPIClient()
			var got shipper.Payload
			mockAPI.OnSetOrder = func(ctx context.Context, creds aras.Credentials, order shipper.Payload) (shipper.Result, error) {
				got = order
				return shipper.Result{}, nil
			}
			payload := testOrder().Payload()
			payload["PieceDetails"] = tt.pieces

			_, err := newTestClient(mockAPI).Send(context.Background(), &shipper.SendRequest{Account: testAccount(), Payload: payload})

			require.NoError(t, err)
			assert.Equal(t, tt.pieces, got["PieceDetails"])
		})
	}
}

func TestClient_Send_MissingResultInfo(t *testing.T) {
	mockAPI := aras.NewMockAPIClient()
	mockAPI.OnSetOrder = func(ctx context.Context, creds aras.Credentials, order shipper.Payload) (shipper.Result, error) {
		return shipper.Result{"SetOrderResult": map[string]any{}}, nil
	}

	res, err := newTestClient(mockAPI).Send(context.Background(), &shipper.SendRequest{Account: testAccount(), Payload: testOrder().Payload()})

	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestClient_Send_Validation(t *testing.T) {
	tests := []struct {
		name    string
		account shipper.Account
		payload shipper.Payload
		wantErr string
	}{
		{
			name:    "missing customer code",
			account: shipper.Account{"username": "user", "password": "secret"},
			payload: testOrder().Payload(),
			wantErr: "account.customer_code zorunludur",
		},
		{
			name:    "empty payload",
			account: testAccount(),
			payload: shipper.Payload{},
			wantErr: "payload.TradingWaybillNumber zorunludur",
		},
		{
			name:    "blank town",
			account: testAccount(),
			payload: func() shipper.Payload {
				p := testOrder().Payload()
				p["ReceiverTownName"] = "  "
				return p
			}(),
			wantErr: "payload.ReceiverTownName zorunludur",
		},
		{
			name:    "non scalar receiver",
			account: testAccount(),
			payload: func() shipper.Payload {
				p := testOrder().Payload()
				p["ReceiverName"] = map[string]any{"first": "Ali"}
				return p
			}(),
			wantErr: "payload.ReceiverName zorunludur",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAPI := aras.NewMockAPIClient()
			called := false
			mockAPI.OnSetOrder = func(ctx context.Context, creds aras.Credentials, order shipper.Payload) (shipper.Result, error) {
				called = true
				return shipper.Result{}, nil
			}

			_, err := newTestClient(mockAPI).Send(context.Background(), &shipper.SendRequest{Account: tt.account, Payload: tt.payload})

			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
			assert.True(t, errors.Is(err, shipper.ErrConfiguration))
			assert.False(t, called)
		})
	}
}

func TestClient_Send_APIError(t *testing.T) {
	mockAPI := aras.NewMockAPIClient()
	mockAPI.SimulateErrors = true

	_, err := newTestClient(mockAPI).Send(context.Background(), &shipper.SendRequest{Account: testAccount(), Payload: testOrder().Payload()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Aras KargoyaGonder hatasi: ")
	assert.True(t, errors.Is(err, shipper.ErrTransport))
}

func TestClient_Track(t *testing.T) {
	mockAPI := aras.NewMockAPIClient()
	var gotType int
	var gotCode string
	mockAPI.OnGetQueryXML = func(ctx context.Context, creds aras.Credentials, queryType int, integrationCode string) (string, error) {
		gotType, gotCode = queryType, integrationCode
		return `<NewDataSet>
  <Collection>
    <TIP_KODU>1</TIP_KODU>
    <DURUM_KODU>3</DURUM_KODU>
    <KG_DESI>4</KG_DESI>
    <TUTAR>60.00</TUTAR>
    <DURUMU>YOLDA</DURUMU>
  </Collection>
</NewDataSet>`, nil
	}

	res, err := newTestClient(mockAPI).Track(context.Background(), &shipper.TrackRequest{Account: testAccount(), Reference: " INT100 "})

	require.NoError(t, err)
	assert.Equal(t, 39, gotType)
	assert.Equal(t, "INT100", gotCode)
	assert.Equal(t, shipper.Result{
		"TipKodu":   "1",
		"DurumKodu": "3",
		"Desi":      "4",
		"Tutar":     "60.00",
		"Durum":     "YOLDA",
	}, res)
}

func TestClient_Track_EmptyShapes(t *testing.T) {
	empty := shipper.Blank(aras.TrackKeys...)

	tests := []struct {
		name      string
		reference string
		doc       string
	}{
		{name: "blank reference", reference: "  "},
		{name: "empty document", reference: "INT1", doc: ""},
		{name: "no collection", reference: "INT1", doc: "<NewDataSet></NewDataSet>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAPI := aras.NewMockAPIClient()
			calls := 0
			mockAPI.OnGetQueryXML = func(ctx context.Context, creds aras.Credentials, queryType int, integrationCode string) (string, error) {
				calls++
				return tt.doc, nil
			}

			res, err := newTestClient(mockAPI).Track(context.Background(), &shipper.TrackRequest{Account: testAccount(), Reference: tt.reference})

			require.NoError(t, err)
			assert.Equal(t, empty, res)
			if tt.reference == "  " {
				assert.Equal(t, 0, calls)
			}
		})
	}
}

func TestClient_Track_MultipleRowsUsesFirst(t *testing.T) {
	mockAPI := aras.NewMockAPIClient()
	mockAPI.OnGetQueryXML = func(ctx context.Context, creds aras.Credentials, queryType int, integrationCode string) (string, error) {
		return `<NewDataSet><Collection><DURUMU>ILK</DURUMU></Collection><Collection><DURUMU>IKINCI</DURUMU></Collection></NewDataSet>`, nil
	}

	res, err := newTestClient(mockAPI).Track(context.Background(), &shipper.TrackRequest{Account: testAccount(), Reference: "INT1"})

	require.NoError(t, err)
	assert.Equal(t, "ILK", res["Durum"])
	assert.Equal(t, "", res["TipKodu"])
}

func TestClient_Track_InvalidDocument(t *testing.T) {
	mockAPI := aras.NewMockAPIClient()
	mockAPI.OnGetQueryXML = func(ctx context.Context, creds aras.Credentials, queryType int, integrationCode string) (string, error) {
		return "kayit bulunamadi", nil
	}

	_, err := newTestClient(mockAPI).Track(context.Background(), &shipper.TrackRequest{Account: testAccount(), Reference: "INT1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Aras KargoTakip hatasi [INT1]: ")
}

func TestClient_Cancel(t *testing.T) {
	mockAPI := aras.NewMockAPIClient()
	client := newTestClient(mockAPI)

	res, err := client.Cancel(context.Background(), &shipper.CancelRequest{Account: testAccount(), Reference: "INT100"})
	require.NoError(t, err)
	assert.Equal(t, "0", shipper.LookupString(res, "CancelDispatchResult", "ResultCode"))

	_, err = client.Cancel(context.Background(), &shipper.CancelRequest{Account: testAccount(), Reference: " "})
	require.Error(t, err)
	assert.Equal(t, "integrationCode bos birakilamaz", err.Error())

	mockAPI.SimulateErrors = true
	_, err = client.Cancel(context.Background(), &shipper.CancelRequest{Account: testAccount(), Reference: "INT100"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Aras BarkodSil hatasi [INT100]: ")
}

func newSOAPClient(srv *soaptest.Server) *aras.Client {
	return aras.NewWithAPIClient(
		aras.Config{},
		aras.NewSOAPAPIClient(aras.SOAPAPIClientConfig{
			OrderEndpoint: srv.URL + "/arascargoservice.asmx",
			QueryEndpoint: srv.URL + "/ArasCargoIntegrationService.svc",
		}),
		otelzap.New(zap.NewNop()),
		nil,
	)
}

func TestClient_SOAP_EndToEnd(t *testing.T) {
	srv := soaptest.NewServer(func(call soaptest.Call) (soap.Fields, *soaptest.Fault) {
		switch call.Operation {
		case "SetOrder":
			return soap.Fields{{Name: "SetOrderResult", Value: soap.Fields{
				{Name: "OrderResultInfo", Value: soap.Fields{
					{Name: "ResultCode", Value: "0"},
					{Name: "InvoiceKey", Value: shipper.LookupString(call.Params, "orderInfo", "Order", "IntegrationCode")},
				}},
			}}}, nil
		case "GetQueryXML":
			doc := "<NewDataSet><Collection><DURUMU>TESLIM EDILDI</DURUMU></Collection></NewDataSet>"
			return soap.Fields{{Name: "GetQueryXMLResult", Value: doc}}, nil
		case "CancelDispatch":
			return soap.Fields{{Name: "CancelDispatchResult", Value: soap.Fields{{Name: "ResultCode", Value: "0"}}}}, nil
		}
		return nil, &soaptest.Fault{Code: "soap:Client", String: "unknown operation"}
	})
	defer srv.Close()
	client := newSOAPClient(srv)
	ctx := context.Background()

	res, err := client.Send(ctx, &shipper.SendRequest{Account: testAccount(), Payload: testOrder().Payload(), Return: true})
	require.NoError(t, err)
	assert.Equal(t, "INT100", res["InvoiceKey"])

	res, err = client.Track(ctx, &shipper.TrackRequest{Account: testAccount(), Reference: "INT100"})
	require.NoError(t, err)
	assert.Equal(t, "TESLIM EDILDI", res["Durum"])

	_, err = client.Cancel(ctx, &shipper.CancelRequest{Account: testAccount(), Reference: "INT100"})
	require.NoError(t, err)

	assert.Equal(t, []string{"SetOrder", "GetQueryXML", "CancelDispatch"}, srv.Operations())

	calls := srv.Calls()
	send := calls[0]
	assert.Equal(t, `"http://tempuri.org/SetOrder"`, send.SOAPAction)
	assert.Equal(t, "user", shipper.LookupString(send.Params, "userName"))
	assert.Equal(t, "user", shipper.LookupString(send.Params, "orderInfo", "Order", "UserName"))
	assert.Equal(t, "Ankara", shipper.LookupString(send.Params, "orderInfo", "Order", "ReceiverCityName"))

	query := calls[1]
	assert.Equal(t, `"http://tempuri.org/IArasCargoIntegrationService/GetQueryXML"`, query.SOAPAction)
	assert.Equal(t,
		"<LoginInfo><UserName>user</UserName><Password>secret</Password><CustomerCode>C42</CustomerCode></LoginInfo>",
		shipper.LookupString(query.Params, "loginInfo"))
	assert.Equal(t,
		"<QueryInfo><QueryType>39</QueryType><IntegrationCode>INT100</IntegrationCode></QueryInfo>",
		shipper.LookupString(query.Params, "queryInfo"))

	assert.Equal(t, "INT100", shipper.LookupString(calls[2].Params, "integrationCode"))
}

func TestClient_SOAP_Fault(t *testing.T) {
	srv := soaptest.NewServer(func(call soaptest.Call) (soap.Fields, *soaptest.Fault) {
		return nil, &soaptest.Fault{Code: "soap:Server", String: "Kullanici bulunamadi"}
	})
	defer srv.Close()

	_, err := newSOAPClient(srv).Send(context.Background(), &shipper.SendRequest{Account: testAccount(), Payload: testOrder().Payload()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Aras KargoyaGonder hatasi: ")
	assert.Contains(t, err.Error(), "Kullanici bulunamadi")
	assert.Equal(t, 500, shipper.StatusCode(err))
}
