package aras_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/kargo/pkg/shipper"
	"github.com/tournevent/kargo/pkg/shipper/aras"
)

func TestOrder_Payload(t *testing.T) {
	o := testOrder()
	o.IsCod = 1
	o.CodAmount = 120.5
	o.BarcodeNumber = "BC1"

	p := o.Payload()

	assert.Equal(t, "INT100", p["IntegrationCode"])
	assert.Equal(t, 1, p["PayorTypeCode"])
	assert.Equal(t, 1, p["IsCod"])
	assert.Equal(t, 120.5, p["CodAmount"])
	assert.Equal(t, "BC1", shipper.LookupString(p, "PieceDetails", "BarcodeNumber"))
}

func TestBuilder_SendAndReturn(t *testing.T) {
	mockAPI := aras.NewMockAPIClient()
	var orders []shipper.Payload
	mockAPI.OnSetOrder = func(ctx context.Context, creds aras.Credentials, order shipper.Payload) (shipper.Result, error) {
		orders = append(orders, order)
		return shipper.Result{"SetOrderResult": map[string]any{"OrderResultInfo": map[string]any{"ResultCode": "0"}}}, nil
	}
	b := aras.NewBuilder(newTestClient(mockAPI)).
		Account("user", "secret", "C42").
		Payload(testOrder()).
		Test(true)
	ctx := context.Background()

	res, err := b.Send(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0", res["ResultCode"])

	_, err = b.Return(ctx)
	require.NoError(t, err)

	require.Len(t, orders, 2)
	assert.Equal(t, orders[0], orders[1])
}

func TestBuilder_Validation(t *testing.T) {
	tests := []struct {
		name    string
		build   func(b *aras.Builder) *aras.Builder
		wantErr string
	}{
		{
			name:    "account not configured",
			build:   func(b *aras.Builder) *aras.Builder { return b.Payload(testOrder()) },
			wantErr: "Oncesinde account(...) cagrilmalidir",
		},
		{
			name:    "blank customer code",
			build:   func(b *aras.Builder) *aras.Builder { return b.Account("user", "secret", "") },
			wantErr: "customerCode bos birakilamaz",
		},
		{
			name: "blank integration code",
			build: func(b *aras.Builder) *aras.Builder {
				o := testOrder()
				o.IntegrationCode = " "
				return b.Account("user", "secret", "C42").Payload(o)
			},
			wantErr: "integrationCode bos birakilamaz",
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

			_, err := tt.build(aras.NewBuilder(newTestClient(mockAPI))).Send(context.Background())

			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
			assert.True(t, errors.Is(err, shipper.ErrConfiguration))
			assert.False(t, called)
		})
	}
}

func TestBuilder_TrackAndCancel(t *testing.T) {
	mockAPI := aras.NewMockAPIClient()
	var cancelled string
	mockAPI.OnCancelDispatch = func(ctx context.Context, creds aras.Credentials, integrationCode string) (shipper.Result, error) {
		cancelled = integrationCode
		return shipper.Result{}, nil
	}
	b := aras.NewBuilder(newTestClient(mockAPI)).Account("user", "secret", "C42")
	ctx := context.Background()

	res, err := b.Track(ctx, "INT100")
	require.NoError(t, err)
	assert.Equal(t, "TESLIM EDILDI", res["Durum"])

	_, err = b.Cancel(ctx, "INT100")
	require.NoError(t, err)
	assert.Equal(t, "INT100", cancelled)

	_, err = b.Track(ctx, "")
	require.Error(t, err)
	assert.Equal(t, "trackingNo bos birakilamaz", err.Error())

	_, err = b.Cancel(ctx, "")
	require.Error(t, err)
	assert.Equal(t, "integrationCode bos birakilamaz", err.Error())
}
