package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Rheinmir/qr-generator-module/banks"
	"github.com/Rheinmir/qr-generator-module/batch"
	"github.com/Rheinmir/qr-generator-module/compose"
	"github.com/Rheinmir/qr-generator-module/logging"
	"github.com/Rheinmir/qr-generator-module/models"
	"github.com/Rheinmir/qr-generator-module/monitoring"
	"github.com/Rheinmir/qr-generator-module/render"
	"github.com/Rheinmir/qr-generator-module/sheet"
	"github.com/Rheinmir/qr-generator-module/vietqr"
)

const (
	formatPNG       = "data/png"
	maxAmountDigits = 13

	ContentTypeZip  = "application/zip"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ImageHost stores a rendered image and returns a public URL.
type ImageHost interface {
	Upload(ctx context.Context, png []byte, publicID string) (string, error)
}

// File is a generated download.
type File struct {
	Data        []byte
	ContentType string
	Filename    string
}

// QRService handles QR, barcode and VietQR generation
type QRService struct {
	tracer   trace.Tracer
	renderer *batch.Renderer
	banks    *banks.Directory
	host     ImageHost
	profile  vietqr.Profile
	now      func() time.Time
}

// NewQRService creates a new QR service. host may be nil when image hosting
// is not configured.
func NewQRService(tracer trace.Tracer, renderer *batch.Renderer, directory *banks.Directory, host ImageHost, profile vietqr.Profile) *QRService {
	return &QRService{
		tracer:   tracer,
		renderer: renderer,
		banks:    directory,
		host:     host,
		profile:  profile,
		now:      time.Now,
	}
}

// GeneratePlain renders a single text as a QR code or barcode
func (s *QRService) GeneratePlain(ctx context.Context, req *models.PlainRequest) (*models.ImageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "generate_plain")
	defer span.End()

	mode := render.ParseMode(req.Mode)
	span.SetAttributes(
		attribute.String("qr.mode", string(mode)),
		attribute.Int("qr.text_length", len(req.Text)),
	)

	png, err := s.render(ctx, "plain", mode, req.Text, req.Caption, req.Options.WithDefaults(render.DefaultMargin))
	if err != nil {
		s.fail(ctx, span, "plain", err)
		return nil, err
	}

	return &models.ImageResponse{Success: true, Data: render.DataURL(png), Format: formatPNG}, nil
}

// GenerateBatch renders every item and returns a zip archive
func (s *QRService) GenerateBatch(ctx context.Context, req *models.BatchRequest) (*File, error) {
	ctx, span := s.tracer.Start(ctx, "generate_batch")
	defer span.End()

	mode := render.ParseMode(req.Mode)
	span.SetAttributes(
		attribute.String("qr.mode", string(mode)),
		attribute.Int("batch.items", len(req.Items)),
	)
	monitoring.BatchSize.Record(ctx, int64(len(req.Items)), metric.WithAttributes(attribute.String("kind", "batch")))

	data, err := s.renderArchive(ctx, "batch", req.Items, mode, req.Options)
	if err != nil {
		s.fail(ctx, span, "batch", err)
		return nil, err
	}
	return &File{Data: data, ContentType: ContentTypeZip, Filename: "batch_qrcodes.zip"}, nil
}

// GenerateFromSheet turns every spreadsheet row into a code. The result is a
// zip of PNGs, or an xlsx with the images embedded when opts.Output is "xlsx".
func (s *QRService) GenerateFromSheet(ctx context.Context, r io.Reader, opts models.SheetOptions) (*File, error) {
	ctx, span := s.tracer.Start(ctx, "generate_from_sheet")
	defer span.End()

	records, err := sheet.ReadRecords(r)
	if err != nil {
		s.fail(ctx, span, "excel", err)
		return nil, err
	}

	mode := render.ParseMode(opts.Mode)
	header := opts.IncludeHeader()
	items := make([]batch.Item, len(records))
	for i, rec := range records {
		item := batch.Item{ID: fmt.Sprintf("%03d", i+1), Filename: batch.SafeFilename(rec.Values, i) + ".png"}
		if mode == render.ModeBarcode {
			item.Text = rec.BarcodeText()
			item.Caption = rec.DisplayText()
		} else {
			item.Text = rec.Content(header)
		}
		items[i] = item
	}

	span.SetAttributes(
		attribute.String("qr.mode", string(mode)),
		attribute.Int("batch.items", len(items)),
		attribute.String("sheet.output", opts.Output),
	)
	monitoring.BatchSize.Record(ctx, int64(len(items)), metric.WithAttributes(attribute.String("kind", "excel")))

	prefix := "QR"
	if mode == render.ModeBarcode {
		prefix = "Barcode"
	}
	stamp := s.now().UnixMilli()

	if !strings.EqualFold(opts.Output, "xlsx") {
		data, err := s.renderArchive(ctx, "excel", items, mode, opts.Options)
		if err != nil {
			s.fail(ctx, span, "excel", err)
			return nil, err
		}
		return &File{Data: data, ContentType: ContentTypeZip, Filename: fmt.Sprintf("%s_Batch_%d.zip", prefix, stamp)}, nil
	}

	results, err := s.renderBatch(ctx, "excel", items, mode, opts.Options)
	if err != nil {
		s.fail(ctx, span, "excel", err)
		return nil, err
	}
	images := make([][]byte, len(records))
	for _, res := range results {
		if res.Err == nil {
			images[res.Index] = res.PNG
		}
	}
	data, err := sheet.WriteWorkbook(records, images, mode == render.ModeBarcode)
	if err != nil {
		s.fail(ctx, span, "excel", err)
		return nil, err
	}
	monitoring.ArchiveBytes.Record(ctx, int64(len(data)), metric.WithAttributes(attribute.String("format", "xlsx")))
	return &File{Data: data, ContentType: ContentTypeXLSX, Filename: fmt.Sprintf("%s_Batch_Excel_%d.xlsx", prefix, stamp)}, nil
}

// GeneratePayment builds a VietQR payload and renders it
func (s *QRService) GeneratePayment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "generate_payment")
	defer span.End()

	amount, err := req.AmountString()
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		s.fail(ctx, span, "payment", err)
		return nil, err
	}
	display, err := validateAmount(amount)
	if err != nil {
		s.fail(ctx, span, "payment", err)
		return nil, err
	}

	bin := strings.TrimSpace(req.BankBin)
	var bank *banks.Bank
	if b, ok := s.banks.Lookup(bin); ok {
		bank = &b
		bin = b.BIN
	}

	span.SetAttributes(
		attribute.String("payment.bank_bin", bin),
		attribute.Bool("payment.has_amount", amount != ""),
		attribute.Bool("payment.has_content", req.Content != ""),
		attribute.String("payment.profile", string(s.profile)),
	)

	payload, err := vietqr.GenerateWithProfile(vietqr.PaymentRequest{
		BankBin:       bin,
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		Amount:        amount,
		Content:       req.Content,
	}, s.profile)
	if err != nil {
		s.fail(ctx, span, "payment", err)
		return nil, err
	}
	fields, err := vietqr.Parse(payload)
	if err != nil {
		s.fail(ctx, span, "payment", err)
		return nil, err
	}
	if crc, ok := vietqr.Lookup(fields, vietqr.TagCRC); ok {
		span.SetAttributes(attribute.String("payment.crc", crc))
	}

	png, err := s.render(ctx, "payment", render.ModeQR, payload, "", req.Options.WithDefaults(render.DefaultMargin))
	if err != nil {
		s.fail(ctx, span, "payment", err)
		return nil, err
	}

	resp := &models.PaymentResponse{
		Success: true,
		Data:    render.DataURL(png),
		Format:  formatPNG,
		Payload: payload,
		Fields:  fields,
		Bank:    bank,
		Amount:  display,
	}

	if req.Upload {
		resp.URL = s.upload(ctx, png, "payment_"+uuid.NewString())
	}

	logger := logging.WithTraceContext(span)
	logger.Info("Payment QR generated",
		zap.String("bank_bin", bin),
		zap.Bool("has_amount", amount != ""),
		zap.Bool("hosted", resp.URL != ""),
	)
	return resp, nil
}

// Compose builds the text for kind and renders it as a QR code
func (s *QRService) Compose(ctx context.Context, kind string, raw json.RawMessage, opts render.Options) (*models.ComposeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "compose")
	defer span.End()
	span.SetAttributes(attribute.String("compose.kind", kind))

	text, err := compose.Build(kind, raw)
	if err != nil {
		s.fail(ctx, span, "compose", err)
		return nil, err
	}
	png, err := s.render(ctx, "compose", render.ModeQR, text, "", opts.WithDefaults(render.DefaultMargin))
	if err != nil {
		s.fail(ctx, span, "compose", err)
		return nil, err
	}
	return &models.ComposeResponse{Success: true, Kind: kind, Text: text, Data: render.DataURL(png), Format: formatPNG}, nil
}

// Banks lists the bank directory
func (s *QRService) Banks() []banks.Bank {
	return s.banks.List()
}

// Template returns the sample spreadsheet
func (s *QRService) Template() (*File, error) {
	data, err := sheet.Template()
	if err != nil {
		return nil, err
	}
	return &File{Data: data, ContentType: ContentTypeXLSX, Filename: "Batch_Template.xlsx"}, nil
}

func (s *QRService) render(ctx context.Context, kind string, mode render.Mode, text, caption string, opts render.Options) ([]byte, error) {
	start := time.Now()
	png, err := render.Render(mode, text, caption, opts)
	s.recordRender(ctx, kind, mode, start, 1, err)
	return png, err
}

func (s *QRService) renderBatch(ctx context.Context, kind string, items []batch.Item, mode render.Mode, opts render.Options) ([]batch.Result, error) {
	start := time.Now()
	results, err := s.renderer.Render(ctx, items, mode, opts)
	if err != nil {
		return nil, err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			logging.Warn("Skipping item that failed to render",
				zap.Int("index", res.Index),
				zap.String("filename", res.Filename),
				zap.Error(res.Err),
			)
		}
	}
	s.recordRender(ctx, kind, mode, start, len(results)-failed, nil)
	if failed > 0 {
		monitoring.GenerationFailures.Add(ctx, int64(failed), metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("reason", "render"),
		))
	}
	return results, nil
}

func (s *QRService) renderArchive(ctx context.Context, kind string, items []batch.Item, mode render.Mode, opts render.Options) ([]byte, error) {
	results, err := s.renderBatch(ctx, kind, items, mode, opts)
	if err != nil {
		return nil, err
	}
	data, err := batch.Archive(results)
	if err != nil {
		return nil, err
	}
	monitoring.ArchiveBytes.Record(ctx, int64(len(data)), metric.WithAttributes(attribute.String("format", "zip")))
	logging.Info("Archive generated",
		zap.String("kind", kind),
		zap.Int("files", len(results)),
		zap.String("size", humanize.Bytes(uint64(len(data)))),
	)
	return data, nil
}

func (s *QRService) recordRender(ctx context.Context, kind string, mode render.Mode, start time.Time, count int, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("mode", string(mode)),
		attribute.String("status", status),
	)
	monitoring.RenderDuration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	if err == nil && count > 0 {
		monitoring.CodesGenerated.Add(ctx, int64(count), attrs)
	}
}

func (s *QRService) upload(ctx context.Context, png []byte, publicID string) string {
	if s.host == nil {
		logging.Warn("Upload requested but image hosting is not configured")
		return ""
	}
	url, err := s.host.Upload(ctx, png, publicID)
	if err != nil {
		// The rendered image is still returned inline.
		logging.Error("Failed to upload QR image", zap.Error(err), zap.String("public_id", publicID))
		return ""
	}
	return url
}

func (s *QRService) fail(ctx context.Context, span trace.Span, kind string, err error) {
	reason := "internal"
	if IsClientError(err) {
		reason = "validation"
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	monitoring.GenerationFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("reason", reason),
	))
	if reason == "internal" {
		logging.WithTraceContext(span).Error("Generation failed", zap.String("kind", kind), zap.Error(err))
	}
}

// validateAmount checks a raw amount and returns a display form such as
// "50,000 VND". The raw string itself is what gets encoded.
func validateAmount(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	if len(raw) > maxAmountDigits || strings.Trim(raw, "0123456789") != "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return "", fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return humanize.Comma(d.IntPart()) + " VND", nil
}
