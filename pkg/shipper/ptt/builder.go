package ptt

import (
	"context"

	"github.com/tournevent/kargo/pkg/shipper"
)

// Item is one acceptance record of an upload.
type Item struct {
	AAdres            string
	AliciAdi          string
	Agirlik           float64
	AliciIlAdi        string
	AliciIlceAdi      string
	AliciSms          string
	BarkodNo          string
	OdemeSartUcreti   string
	MusteriReferansNo string
	Rezerve1          string
	Yukseklik         float64
	Boy               string
	Desi              string
	EkHizmet          string
	En                string
	OdemeSekli        string
	// GondericiBilgi is sent only when non-empty.
	GondericiBilgi map[string]any
}

// Upload is a kabulEkle2 batch.
type Upload struct {
	DosyaAdi   string
	GonderiTur string
	GonderiTip string
	// Kullanici defaults to "PttWs".
	Kullanici string
	Items     []Item
}

func (u Upload) validate() error {
	if err := shipper.NotBlank(
		shipper.Field{Name: "dosyaAdi", Value: u.DosyaAdi},
		shipper.Field{Name: "gonderiTur", Value: u.GonderiTur},
		shipper.Field{Name: "gonderiTip", Value: u.GonderiTip},
	); err != nil {
		return err
	}
	if len(u.Items) == 0 {
		return &shipper.FieldError{Field: "dongu", Reason: "en az 1 kayit icermelidir"}
	}
	for _, it := range u.Items {
		if err := shipper.NotBlank(
			shipper.Field{Name: "aAdres", Value: it.AAdres},
			shipper.Field{Name: "aliciAdi", Value: it.AliciAdi},
			shipper.Field{Name: "aliciIlAdi", Value: it.AliciIlAdi},
			shipper.Field{Name: "aliciIlceAdi", Value: it.AliciIlceAdi},
			shipper.Field{Name: "aliciSms", Value: it.AliciSms},
			shipper.Field{Name: "rezerve1", Value: it.Rezerve1},
		); err != nil {
			return err
		}
	}
	return nil
}

// Payload builds the upload document.
func (u Upload) Payload() shipper.Payload {
	kullanici := u.Kullanici
	if kullanici == "" {
		kullanici = defaultKullanici
	}

	records := make([]shipper.Payload, 0, len(u.Items))
	for _, it := range u.Items {
		r := shipper.Payload{
			"kullanici":         kullanici,
			"dosyaAdi":          u.DosyaAdi,
			"gonderiTur":        u.GonderiTur,
			"gonderiTip":        u.GonderiTip,
			"aAdres":            it.AAdres,
			"aliciAdi":          it.AliciAdi,
			"agirlik":           it.Agirlik,
			"aliciIlAdi":        it.AliciIlAdi,
			"aliciIlceAdi":      it.AliciIlceAdi,
			"aliciSms":          it.AliciSms,
			"barkodNo":          it.BarkodNo,
			"odeme_sart_ucreti": it.OdemeSartUcreti,
			"musteriReferansNo": it.MusteriReferansNo,
			"rezerve1":          it.Rezerve1,
			"yukseklik":         it.Yukseklik,
			"boy":               it.Boy,
			"desi":              it.Desi,
			"ekhizmet":          it.EkHizmet,
			"en":                it.En,
			"odemesekli":        it.OdemeSekli,
		}
		if len(it.GondericiBilgi) > 0 {
			r["gondericibilgi"] = it.GondericiBilgi
		}
		records = append(records, r)
	}

	return shipper.Payload{
		"kullanici":  kullanici,
		"dosyaAdi":   u.DosyaAdi,
		"gonderiTip": u.GonderiTip,
		"gonderiTur": u.GonderiTur,
		"dongu":      records,
	}
}

// Builder accumulates account, payload and mode for one PTT call chain.
type Builder struct {
	client *Client
	draft  shipper.Draft
}

// NewBuilder returns a builder bound to client.
func NewBuilder(client *Client) *Builder {
	return &Builder{client: client}
}

// Account sets the credentials. Every argument must be non-blank.
func (b *Builder) Account(username, password, postaCeki string) *Builder {
	if err := shipper.NotBlank(
		shipper.Field{Name: "username", Value: username},
		shipper.Field{Name: "password", Value: password},
		shipper.Field{Name: "postaCeki", Value: postaCeki},
	); err != nil {
		b.draft.Fail(err)
		return b
	}
	b.draft.Account = shipper.Account{
		"username":   username,
		"password":   password,
		"posta_ceki": postaCeki,
	}
	return b
}

// Payload validates u and uses it as the upload batch.
func (b *Builder) Payload(u Upload) *Builder {
	if err := u.validate(); err != nil {
		b.draft.Fail(err)
		return b
	}
	b.draft.Payload = u.Payload()
	return b
}

// PayloadRaw uses p as-is, without field validation.
func (b *Builder) PayloadRaw(p shipper.Payload) *Builder {
	b.draft.Payload = p
	return b
}

// Test switches to the test services.
func (b *Builder) Test(enabled bool) *Builder {
	b.draft.TestMode = enabled
	return b
}

// Send uploads the batch.
func (b *Builder) Send(ctx context.Context) (shipper.Result, error) {
	return b.send(ctx, false)
}

// Return uploads the batch as returns.
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

// Track queries a shipment by barcode.
func (b *Builder) Track(ctx context.Context, barcode string) (shipper.Result, error) {
	if err := b.ready(shipper.Field{Name: "barcode", Value: barcode}); err != nil {
		return nil, err
	}
	return b.client.Track(ctx, &shipper.TrackRequest{
		Account:   b.draft.Account,
		Reference: barcode,
		TestMode:  b.draft.TestMode,
	})
}

// TrackByReference queries a shipment by customer reference number.
func (b *Builder) TrackByReference(ctx context.Context, referenceNo string) (shipper.Result, error) {
	if err := b.ready(shipper.Field{Name: "referansNo", Value: referenceNo}); err != nil {
		return nil, err
	}
	return b.client.TrackByReference(ctx, &shipper.TrackRequest{
		Account:   b.draft.Account,
		Reference: referenceNo,
		TestMode:  b.draft.TestMode,
	})
}

// Cancel deletes a barcode from the upload batch fileName.
func (b *Builder) Cancel(ctx context.Context, barcode, fileName string) (shipper.Result, error) {
	if err := b.ready(
		shipper.Field{Name: "barcode", Value: barcode},
		shipper.Field{Name: "dosyaAdi", Value: fileName},
	); err != nil {
		return nil, err
	}
	return b.client.Cancel(ctx, &shipper.CancelRequest{
		Account:   b.draft.Account,
		Reference: barcode,
		FileName:  fileName,
		TestMode:  b.draft.TestMode,
	})
}

func (b *Builder) ready(fields ...shipper.Field) error {
	if err := b.draft.Ready(); err != nil {
		return err
	}
	return shipper.NotBlank(fields...)
}
