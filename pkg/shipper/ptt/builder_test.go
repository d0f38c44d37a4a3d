package ptt_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/kargo/pkg/shipper"
	"github.com/tournevent/kargo/pkg/shipper/ptt"
)

func TestUpload_Payload(t *testing.T) {
	u := testUpload()
	u.Items[0].GondericiBilgi = map[string]any{"gonderici_adi": "Acme"}

	p := u.Payload()

	assert.Equal(t, "PttWs", p["kullanici"])
	assert.Equal(t, "NORMAL", p["gonderiTip"])
	records, ok := p["dongu"].([]shipper.Payload)
	require.True(t, ok)
	require.Len(t, records, 1)
	assert.Equal(t, "batch-20261016", records[0]["dosyaAdi"])
	assert.Equal(t, 1.5, records[0]["agirlik"])
	assert.Equal(t, "Acme", shipper.LookupString(records[0], "gondericibilgi", "gonderici_adi"))

	u.Items[0].GondericiBilgi = nil
	records = u.Payload()["dongu"].([]shipper.Payload)
	assert.NotContains(t, records[0], "gondericibilgi")
}

func TestBuilder_SendAndReturn(t *testing.T) {
	mockAPI := ptt.NewMockAPIClient()
	var ids []string
	mockAPI.OnKabulEkle2 = func(ctx context.Context, endpoint string, input ptt.UploadInput) (shipper.Result, error) {
		ids = append(ids, input.MusteriID)
		return shipper.Result{}, nil
	}
	b := ptt.NewBuilder(newTestClient(mockAPI)).
		Account("900001", "secret", "PC-77").
		Payload(testUpload())
	ctx := context.Background()

	_, err := b.Send(ctx)
	require.NoError(t, err)
	_, err = b.Return(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"PC-77", "900001"}, ids)
}

func TestBuilder_Validation(t *testing.T) {
	tests := []struct {
		name    string
		build   func(b *ptt.Builder) *ptt.Builder
		wantErr string
	}{
		{
			name:    "account not configured",
			build:   func(b *ptt.Builder) *ptt.Builder { return b.Payload(testUpload()) },
			wantErr: "Oncesinde account(...) cagrilmalidir",
		},
		{
			name:    "blank posta ceki",
			build:   func(b *ptt.Builder) *ptt.Builder { return b.Account("900001", "secret", " ") },
			wantErr: "postaCeki bos birakilamaz",
		},
		{
			name: "no items",
			build: func(b *ptt.Builder) *ptt.Builder {
				u := testUpload()
				u.Items = nil
				return b.Account("900001", "secret", "PC-77").Payload(u)
			},
			wantErr: "dongu en az 1 kayit icermelidir",
		},
		{
			name: "blank sms",
			build: func(b *ptt.Builder) *ptt.Builder {
				u := testUpload()
				u.Items[0].AliciSms = ""
				return b.Account("900001", "secret", "PC-77").Payload(u)
			},
			wantErr: "aliciSms bos birakilamaz",
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

			_, err := tt.build(ptt.NewBuilder(newTestClient(mockAPI))).Send(context.Background())

			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
			assert.True(t, errors.Is(err, shipper.ErrConfiguration))
			assert.False(t, called)
		})
	}
}

func TestBuilder_TrackingAndCancel(t *testing.T) {
	mockAPI := ptt.NewMockAPIClient()
	var endpoints []string
	mockAPI.OnGonderiSorgu = func(ctx context.Context, endpoint, username, password, barcode string) (shipper.Result, error) {
		endpoints = append(endpoints, endpoint)
		return shipper.Result{}, nil
	}
	b := ptt.NewBuilder(newTestClient(mockAPI)).Account("900001", "secret", "PC-77").Test(true)
	ctx := context.Background()

	_, err := b.Track(ctx, "KP1")
	require.NoError(t, err)
	assert.Equal(t, []string{ptt.TrackingEnvironments.Test}, endpoints)

	res, err := b.TrackByReference(ctx, "REF-1")
	require.NoError(t, err)
	assert.Equal(t, "REF-1", res["musteriReferansNo"])

	_, err = b.Cancel(ctx, "KP1", "batch-1")
	require.NoError(t, err)

	_, err = b.TrackByReference(ctx, "")
	require.Error(t, err)
	assert.Equal(t, "referansNo bos birakilamaz", err.Error())

	_, err = b.Cancel(ctx, "KP1", " ")
	require.Error(t, err)
	assert.Equal(t, "dosyaAdi bos birakilamaz", err.Error())
}
