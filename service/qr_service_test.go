package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Rheinmir/qr-generator-module/banks"
	"github.com/Rheinmir/qr-generator-module/batch"
	"github.com/Rheinmir/qr-generator-module/models"
	"github.com/Rheinmir/qr-generator-module/render"
	"github.com/Rheinmir/qr-generator-module/vietqr"
)

type fakeHost struct {
	publicID string
	err      error
}

func (f *fakeHost) Upload(ctx context.Context, png []byte, publicID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.publicID = publicID
	return "https://cdn.example/" + publicID + ".png", nil
}

func newTestService(t *testing.T, host ImageHost, profile vietqr.Profile) *QRService {
	t.Helper()
	pool, err := batch.NewPool(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	s := NewQRService(noop.NewTracerProvider().Tracer("test"), batch.NewRenderer(pool, 100), banks.NewDirectory(banks.Builtin), host, profile)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return s
}

func decodeDataURL(t *testing.T, dataURL string) []byte {
	t.Helper()
	require.True(t, strings.HasPrefix(dataURL, "data:image/png;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, "data:image/png;base64,"))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return raw
}

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestGeneratePlain(t *testing.T) {
	s := newTestService(t, nil, vietqr.ProfileMinimal)

	resp, err := s.GeneratePlain(context.Background(), &models.PlainRequest{Text: "https://example.com", Options: render.Options{Width: 300}})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "data/png", resp.Format)
	decodeDataURL(t, resp.Data)

	_, err = s.GeneratePlain(context.Background(), &models.PlainRequest{})
	assert.ErrorIs(t, err, render.ErrEmptyText)
	assert.True(t, IsClientError(err))
}

func TestGenerateBatch(t *testing.T) {
	s := newTestService(t, nil, vietqr.ProfileMinimal)

	file, err := s.GenerateBatch(context.Background(), &models.BatchRequest{
		Items: []batch.Item{
			{ID: "1", Text: "QR1", Filename: "code_1.png"},
			{ID: "2", Text: "QR2"},
			{ID: "3"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, ContentTypeZip, file.ContentType)
	assert.Equal(t, "batch_qrcodes.zip", file.Filename)
	assert.ElementsMatch(t, []string{"code_1.png", "qr_2.png"}, zipNames(t, file.Data))

	_, err = s.GenerateBatch(context.Background(), &models.BatchRequest{})
	assert.ErrorIs(t, err, batch.ErrNoItems)
	assert.True(t, IsClientError(err))
}

func sampleSheet(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]interface{}{
		{"ID", "Name", "Department"},
		{"EMP001", "Nguyen Van A", "IT"},
		{"EMP002", "Tran Thi B", "HR"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestGenerateFromSheetZip(t *testing.T) {
	s := newTestService(t, nil, vietqr.ProfileMinimal)

	file, err := s.GenerateFromSheet(context.Background(), bytes.NewReader(sampleSheet(t)), models.SheetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "QR_Batch_1700000000000.zip", file.Filename)
	assert.ElementsMatch(t, []string{"EMP001 - Nguyen Van A - IT.png", "EMP002 - Tran Thi B - HR.png"}, zipNames(t, file.Data))
}

func TestGenerateFromSheetBarcodeWorkbook(t *testing.T) {
	s := newTestService(t, nil, vietqr.ProfileMinimal)

	file, err := s.GenerateFromSheet(context.Background(), bytes.NewReader(sampleSheet(t)), models.SheetOptions{Mode: "barcode", Output: "xlsx"})
	require.NoError(t, err)
	assert.Equal(t, ContentTypeXLSX, file.ContentType)
	assert.Equal(t, "Barcode_Batch_Excel_1700000000000.xlsx", file.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer f.Close()
	pics, err := f.GetPictures("Barcodes", "D2")
	require.NoError(t, err)
	assert.Len(t, pics, 1)
}

func TestGenerateFromSheetInvalidFile(t *testing.T) {
	s := newTestService(t, nil, vietqr.ProfileMinimal)
	_, err := s.GenerateFromSheet(context.Background(), strings.NewReader("plain text"), models.SheetOptions{})
	assert.True(t, IsClientError(err))
}

func TestGeneratePayment(t *testing.T) {
	host := &fakeHost{}
	s := newTestService(t, host, vietqr.ProfileMinimal)

	var req models.PaymentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"bankBin":"970422","accountNumber":"12345678","amount":50000,"content":"Dinner","upload":true}`), &req))

	resp, err := s.GeneratePayment(context.Background(), &req)
	require.NoError(t, err)
	assert.Equal(t, "00020101021238400010A0000007270122000697042201081234567853037045405500005802VN62100806Dinner630468D8", resp.Payload)
	assert.NoError(t, vietqr.Verify(resp.Payload))
	require.Len(t, resp.Fields, 8)
	amount, ok := vietqr.Lookup(resp.Fields, vietqr.TagAmount)
	require.True(t, ok)
	assert.Equal(t, "50000", amount)
	require.NotNil(t, resp.Bank)
	assert.Equal(t, "MBBank", resp.Bank.ShortName)
	assert.Equal(t, "50,000 VND", resp.Amount)
	assert.True(t, strings.HasPrefix(host.publicID, "payment_"))
	assert.Equal(t, "https://cdn.example/"+host.publicID+".png", resp.URL)
	decodeDataURL(t, resp.Data)
}

func TestGeneratePaymentBankCodeAndProfile(t *testing.T) {
	s := newTestService(t, nil, vietqr.ProfileNapas)

	resp, err := s.GeneratePayment(context.Background(), &models.PaymentRequest{BankBin: "MB", AccountNumber: "12345678", Amount: "50000", Content: "Dinner", Upload: true})
	require.NoError(t, err)
	assert.Equal(t, "00020101021238520010A0000007270108QRIBFTTA0222000697042201081234567853037045405500005802VN62100806Dinner63047BDF", resp.Payload)
	assert.Empty(t, resp.URL, "hosting disabled")
}

func TestGeneratePaymentUploadFailureKeepsImage(t *testing.T) {
	s := newTestService(t, &fakeHost{err: errors.New("quota exceeded")}, vietqr.ProfileMinimal)

	resp, err := s.GeneratePayment(context.Background(), &models.PaymentRequest{BankBin: "970422", AccountNumber: "1", Upload: true})
	require.NoError(t, err)
	assert.Empty(t, resp.URL)
	assert.NotEmpty(t, resp.Data)
	assert.Contains(t, resp.Payload, "010211")
}

func TestGeneratePaymentValidation(t *testing.T) {
	s := newTestService(t, nil, vietqr.ProfileMinimal)

	tests := []struct {
		name    string
		req     models.PaymentRequest
		wantErr error
	}{
		{name: "missing bin", req: models.PaymentRequest{AccountNumber: "1"}, wantErr: vietqr.ErrMissingBankBin},
		{name: "missing account", req: models.PaymentRequest{BankBin: "970422"}, wantErr: vietqr.ErrMissingAccountNumber},
		{name: "negative amount", req: models.PaymentRequest{BankBin: "970422", AccountNumber: "1", Amount: "-5"}, wantErr: ErrInvalidAmount},
		{name: "fractional amount", req: models.PaymentRequest{BankBin: "970422", AccountNumber: "1", Amount: 10.5}, wantErr: ErrInvalidAmount},
		{name: "zero amount", req: models.PaymentRequest{BankBin: "970422", AccountNumber: "1", Amount: "0"}, wantErr: ErrInvalidAmount},
		{name: "too many digits", req: models.PaymentRequest{BankBin: "970422", AccountNumber: "1", Amount: "12345678901234"}, wantErr: ErrInvalidAmount},
		{name: "content too long", req: models.PaymentRequest{BankBin: "970422", AccountNumber: "1", Content: strings.Repeat("x", 120)}, wantErr: vietqr.ErrFieldTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := s.GeneratePayment(context.Background(), &req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsClientError(err))
		})
	}
}

func TestCompose(t *testing.T) {
	s := newTestService(t, nil, vietqr.ProfileMinimal)

	resp, err := s.Compose(context.Background(), "wifi", json.RawMessage(`{"ssid":"Office","password":"secret"}`), render.Options{})
	require.NoError(t, err)
	assert.Equal(t, "WIFI:T:WPA;S:Office;P:secret;;", resp.Text)
	decodeDataURL(t, resp.Data)

	_, err = s.Compose(context.Background(), "telex", json.RawMessage(`{}`), render.Options{})
	assert.True(t, IsClientError(err))
}

func TestBanksAndTemplate(t *testing.T) {
	s := newTestService(t, nil, vietqr.ProfileMinimal)
	assert.Len(t, s.Banks(), len(banks.Builtin))

	file, err := s.Template()
	require.NoError(t, err)
	assert.Equal(t, "Batch_Template.xlsx", file.Filename)
	assert.NotEmpty(t, file.Data)
}

func TestIsClientError(t *testing.T) {
	assert.False(t, IsClientError(nil))
	assert.False(t, IsClientError(errors.New("disk full")))
	assert.True(t, IsClientError(vietqr.ErrFieldTooLong))
	assert.True(t, IsClientError(batch.ErrTooMany))
}
