package ptt_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/kargo/pkg/shipper"
	"github.com/tournevent/kargo/pkg/shipper/ptt"
	"github.com/tournevent/kargo/pkg/shipper/soap"
	"github.com/tournevent/kargo/pkg/shipper/soap/soaptest"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestClient(mockClient *ptt.MockAPIClient) *ptt.Client {
	logger := otelzap.New(zap.NewNop())
	return ptt.NewWithAPIClient(
		ptt.Config{},
		mockClient,
		logger,
		nil,
	)
}

func testAccount() shipper.Account {
	return shipper.Account{
		"username":   "900001",
		"password":   "secret",
		"posta_ceki": "PC-77",
	}
}

func testItem() ptt.Item {
	return ptt.Item{
		AAdres:            "Ataturk Cad. 1",
		AliciAdi:          "Ayse Yilmaz",
		Agirlik:           1.5,
		AliciIlAdi:        "Izmir",
		AliciIlceAdi:      "Konak",
		AliciSms:          "5550000000",
		BarkodNo:          "KP000000001",
		MusteriReferansNo: "REF-1",
		Rezerve1:          "R",
		Desi:              "2",
	}
}

func testUpload() ptt.Upload {
	return ptt.Upload{
		DosyaAdi:   "batch-20261016",
		GonderiTur: "KARGO",
		GonderiTip: "NORMAL",
		Items:      []ptt.Item{testItem()},
	}
}

func TestClient_Name(t *testing.T) {
	assert.Equal(t, "ptt", newTestClient(ptt.NewMockAPIClient()).Name())
}

func TestClient_Send(t *testing.T) {
	tests := []struct {
		name          string
		isReturn      bool
		testMode      bool
		wantMusteriID string
		wantEndpoint  string
	}{
		{
			name:          "production send",
			wantMusteriID: "PC-77",
			wantEndpoint:  ptt.UploadEnvironments.Production,
		},
		{
			name:          "test return",
			isReturn:      true,
			testMode:      true,
			wantMusteriID: "900001",
			wantEndpoint:  ptt.UploadEnvironments.Test,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAPI := ptt.NewMockAPIClient()
			var gotEndpoint string
			var got ptt.UploadInput
			mockAPI.OnKabulEkle2 = func(ctx context.Context, endpoint string, input ptt.UploadInput) (shipper.Result, error) {
				gotEndpoint, got = endpoint, input
				return shipper.Result{"return": map[string]any{"hataKodu": "1"}}, nil
			}

			res, err := newTestClient(mockAPI).Send(context.Background(), &shipper.SendRequest{
				Account:  testAccount(),
				Payload:  testUpload().Payload(),
				TestMode: tt.testMode,
				Return:   tt.isReturn,
			})

			require.NoError(t, err)
			assert.Equal(t, shipper.Result{"hataKodu": "1"}, res)
			assert.Equal(t, tt.wantEndpoint, gotEndpoint)
			assert.Equal(t, tt.wantMusteriID, got.MusteriID)
			assert.Equal(t, "secret", got.Sifre)
			assert.Equal(t, "PttWs", got.Kullanici)
			assert.Equal(t, "batch-20261016", got.DosyaAdi)
			require.Len(t, got.Dongu, 1)
			assert.Equal(t, "Ayse Yilmaz", got.Dongu[0]["aliciAdi"])
		})
	}
}

func TestClient_Send_Validation(t *testing.T) {
	tests := []struct {
		name    string
		account shipper.Account
		payload shipper.Payload
		wantErr string
	}{
		{
			name:    "missing posta ceki",
			account: shipper.Account{"username": "900001", "password": "secret"},
			payload: testUpload().Payload(),
			wantErr: "account.posta_ceki zorunludur",
		},
		{
			name:    "missing gonderiTur",
			account: testAccount(),
			payload: shipper.Payload{"dosyaAdi": "b", "gonderiTip": "NORMAL", "dongu": []any{}},
			wantErr: "payload.gonderiTur zorunludur",
		},
		{
			name:    "empty dongu",
			account: testAccount(),
			payload: shipper.Payload{"dosyaAdi": "b", "gonderiTip": "NORMAL", "gonderiTur": "KARGO", "dongu": []any{}},
			wantErr: "payload.dongu en az 1 kayit icermelidir",
		},
		{
			name:    "dongu not a list",
			account: testAccount(),
			payload: shipper.Payload{"dosyaAdi": "b", "gonderiTip": "NORMAL", "gonderiTur": "KARGO", "dongu": "x"},
			wantErr: "payload.dongu en az 1 kayit icermelidir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAPI := ptt.NewMockAPIClient()
			called := false
			mockAPI.OnKabulEkle2 = func(ctx context.Context, endpoint string, input ptt.UploadInput) (shipper.Result, error) {
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

func TestClient_Send_RawRecords(t *testing.T) {
	mockAPI := ptt.NewMockAPIClient()
	var got ptt.UploadInput
	mockAPI.OnKabulEkle2 = func(ctx context.Context, endpoint string, input ptt.UploadInput) (shipper.Result, error) {
		got = input
		return shipper.Result{"return": map[string]any{}}, nil
	}

	_, err := newTestClient(mockAPI).Send(context.Background(), &shipper.SendRequest{
		Account: testAccount(),
		Payload: shipper.Payload{
			"dosyaAdi":   "b",
			"gonderiTip": "NORMAL",
			"gonderiTur": "KARGO",
			"kullanici":  "Entegrasyon",
			"dongu":      []any{map[string]any{"barkodNo": "KP1"}, map[string]any{"barkodNo": "KP2"}},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "Entegrasyon", got.Kullanici)
	require.Len(t, got.Dongu, 2)
	assert.Equal(t, "KP2", got.Dongu[1]["barkodNo"])
}

func TestClient_Send_APIError(t *testing.T) {
	mockAPI := ptt.NewMockAPIClient()
	mockAPI.SimulateErrors = true

	_, err := newTestClient(mockAPI).Send(context.Background(), &shipper.SendRequest{Account: testAccount(), Payload: testUpload().Payload()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "PTT send hatasi: ")
	assert.True(t, errors.Is(err, shipper.ErrTransport))
	assert.Equal(t, 500, shipper.StatusCode(err))
}

func TestClient_Track(t *testing.T) {
	mockAPI := ptt.NewMockAPIClient()
	var gotEndpoint, gotUser string
	mockAPI.OnGonderiSorgu = func(ctx context.Context, endpoint, username, password, barcode string) (shipper.Result, error) {
		gotEndpoint, gotUser = endpoint, username
		return shipper.Result{"return": map[string]any{"barno": barcode}}, nil
	}
	client := newTestClient(mockAPI)

	res, err := client.Track(context.Background(), &shipper.TrackRequest{
		Account:   shipper.Account{"username": "900001", "password": "secret"},
		Reference: "KP1",
		TestMode:  true,
	})

	require.NoError(t, err)
	assert.Equal(t, "KP1", res["barno"])
	assert.Equal(t, ptt.TrackingEnvironments.Test, gotEndpoint)
	assert.Equal(t, "900001", gotUser)

	_, err = client.Track(context.Background(), &shipper.TrackRequest{Account: testAccount(), Reference: " "})
	require.Error(t, err)
	assert.Equal(t, "barcode bos birakilamaz", err.Error())

	mockAPI.SimulateErrors = true
	_, err = client.Track(context.Background(), &shipper.TrackRequest{Account: testAccount(), Reference: "KP1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PTT barkodTakip hatasi: ")
}

func TestClient_TrackByReference(t *testing.T) {
	mockAPI := ptt.NewMockAPIClient()
	client := newTestClient(mockAPI)

	res, err := client.TrackByReference(context.Background(), &shipper.TrackRequest{Account: testAccount(), Reference: "REF-1"})
	require.NoError(t, err)
	assert.Equal(t, "REF-1", res["musteriReferansNo"])

	mockAPI.SimulateErrors = true
	_, err = client.TrackByReference(context.Background(), &shipper.TrackRequest{Account: testAccount(), Reference: "REF-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PTT referansTakip hatasi: ")
}

func TestClient_Cancel(t *testing.T) {
	mockAPI := ptt.NewMockAPIClient()
	var got ptt.DeleteInput
	mockAPI.OnBarkodVeriSil = func(ctx context.Context, endpoint string, input ptt.DeleteInput) (shipper.Result, error) {
		got = input
		return shipper.Result{"return": map[string]any{"hataKodu": "1"}}, nil
	}
	client := newTestClient(mockAPI)

	_, err := client.Cancel(context.Background(), &shipper.CancelRequest{Account: testAccount(), Reference: "KP1", FileName: "batch-1"})
	require.NoError(t, err)
	assert.Equal(t, ptt.DeleteInput{Barcode: "KP1", DosyaAdi: "batch-1", MusteriID: "900001", Sifre: "secret"}, got)

	_, err = client.Cancel(context.Background(), &shipper.CancelRequest{Account: testAccount(), Reference: "KP1"})
	require.Error(t, err)
	assert.Equal(t, "dosyaAdi bos birakilamaz", err.Error())
}

func TestUnwrapReturn_NoReturnElement(t *testing.T) {
	mockAPI := ptt.NewMockAPIClient()
	mockAPI.OnGonderiSorgu = func(ctx context.Context, endpoint, username, password, barcode string) (shipper.Result, error) {
		return shipper.Result{"sonucKodu": "0"}, nil
	}

	res, err := newTestClient(mockAPI).Track(context.Background(), &shipper.TrackRequest{Account: testAccount(), Reference: "KP1"})

	require.NoError(t, err)
	assert.Equal(t, shipper.Result{"sonucKodu": "0"}, res)
}

func TestClient_SOAP_EndToEnd(t *testing.T) {
	srv := soaptest.NewServer(func(call soaptest.Call) (soap.Fields, *soaptest.Fault) {
		switch call.Operation {
		case "kabulEkle2":
			return soap.Fields{{Name: "return", Value: soap.Fields{
				{Name: "aciklama", Value: "BASARILI"},
				{Name: "dosyaAdi", Value: shipper.LookupString(call.Params, "input", "dosyaAdi")},
			}}}, nil
		case "gonderiSorgu":
			return soap.Fields{{Name: "return", Value: soap.Fields{
				{Name: "barno", Value: shipper.LookupString(call.Params, "input", "barkod")},
				{Name: "dongu", Value: soap.Fields{{Name: "islem", Value: "KABUL"}}},
				{Name: "dongu", Value: soap.Fields{{Name: "islem", Value: "TESLIM"}}},
			}}}, nil
		case "barkodVeriSil":
			return soap.Fields{{Name: "return", Value: soap.Fields{{Name: "hataKodu", Value: "1"}}}}, nil
		}
		return nil, &soaptest.Fault{Code: "soapenv:Server", String: "unknown operation"}
	})
	defer srv.Close()

	env := shipper.Environment{Production: srv.URL + "/prod", Test: srv.URL + "/test"}
	client := ptt.NewWithAPIClient(
		ptt.Config{Tracking: env, Upload: env},
		ptt.NewSOAPAPIClient(ptt.SOAPAPIClientConfig{}),
		otelzap.New(zap.NewNop()),
		nil,
	)
	ctx := context.Background()

	upload := testUpload()
	second := testItem()
	second.BarkodNo = "KP000000002"
	upload.Items = append(upload.Items, second)

	res, err := client.Send(ctx, &shipper.SendRequest{Account: testAccount(), Payload: upload.Payload(), TestMode: true})
	require.NoError(t, err)
	assert.Equal(t, "batch-20261016", res["dosyaAdi"])

	res, err = client.Track(ctx, &shipper.TrackRequest{Account: testAccount(), Reference: "KP000000001"})
	require.NoError(t, err)
	assert.Equal(t, "KP000000001", res["barno"])
	assert.Len(t, soap.AsList(res["dongu"]), 2)

	_, err = client.Cancel(ctx, &shipper.CancelRequest{Account: testAccount(), Reference: "KP000000001", FileName: "batch-20261016"})
	require.NoError(t, err)

	_, err = client.TrackByReference(ctx, &shipper.TrackRequest{Account: testAccount(), Reference: "REF-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation")

	calls := srv.Calls()
	require.Len(t, calls, 4)

	send := calls[0]
	assert.Equal(t, "PC-77", shipper.LookupString(send.Params, "input", "musteriId"))
	assert.Equal(t, "PttWs", shipper.LookupString(send.Params, "input", "kullanici"))
	records := soap.AsList(send.Params["input"].(map[string]any)["dongu"])
	require.Len(t, records, 2)
	assert.Equal(t, "KP000000002", shipper.LookupString(records[1], "barkodNo"))
	assert.Equal(t, "1.5", shipper.LookupString(records[0], "agirlik"))

	assert.Equal(t, "900001", shipper.LookupString(calls[2].Params, "inpDelete", "musteriId"))
	assert.Equal(t, "gonderiSorgu_referansNo", calls[3].Operation)
}
