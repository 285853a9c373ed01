package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Rheinmir/qr-generator-module/logging"
	"github.com/Rheinmir/qr-generator-module/models"
	"github.com/Rheinmir/qr-generator-module/render"
	"github.com/Rheinmir/qr-generator-module/service"
)

// QRHandler handles HTTP requests for code generation
type QRHandler struct {
	qrService      *service.QRService
	maxUploadBytes int64
}

// NewQRHandler creates a new QR handler
func NewQRHandler(qrService *service.QRService, maxUploadBytes int64) *QRHandler {
	return &QRHandler{
		qrService:      qrService,
		maxUploadBytes: maxUploadBytes,
	}
}

// Register mounts every route on r
func (h *QRHandler) Register(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)

	api := r.Group("/api")
	api.POST("/generate/plain", h.GeneratePlain)
	api.POST("/generate/batch", h.GenerateBatch)
	api.POST("/generate/excel", h.GenerateExcel)
	api.POST("/generate/payment", h.GeneratePayment)
	api.POST("/compose/:kind", h.Compose)
	api.GET("/banks", h.ListBanks)
	api.GET("/template", h.DownloadTemplate)
}

// GeneratePlain handles single text rendering
func (h *QRHandler) GeneratePlain(c *gin.Context) {
	var req models.PlainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if req.Text == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Error: "Missing text field"})
		return
	}

	resp, err := h.qrService.GeneratePlain(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "plain", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateBatch handles batch rendering into a zip archive
func (h *QRHandler) GenerateBatch(c *gin.Context) {
	var req models.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	file, err := h.qrService.GenerateBatch(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "batch", err)
		return
	}
	sendFile(c, file)
}

// GenerateExcel handles multipart spreadsheet uploads
func (h *QRHandler) GenerateExcel(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, "excel", err)
			return
		}
		h.badRequest(c, fmt.Errorf("missing file upload: %w", err))
		return
	}

	var opts models.SheetOptions
	if raw := c.PostForm("options"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			h.badRequest(c, fmt.Errorf("invalid options: %w", err))
			return
		}
	}

	f, err := fh.Open()
	if err != nil {
		h.fail(c, "excel", err)
		return
	}
	defer f.Close()

	file, err := h.qrService.GenerateFromSheet(c.Request.Context(), f, opts)
	if err != nil {
		h.fail(c, "excel", err)
		return
	}
	sendFile(c, file)
}

// GeneratePayment handles VietQR payment code requests
func (h *QRHandler) GeneratePayment(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	resp, err := h.qrService.GeneratePayment(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "payment", err)
		return
	}

	span := trace.SpanFromContext(c.Request.Context())
	span.AddEvent("payment_qr_generated")
	c.JSON(http.StatusOK, resp)
}

// Compose handles the structured payload kinds (wifi, contact, ...)
func (h *QRHandler) Compose(c *gin.Context) {
	var body struct {
		Options render.Options `json:"options"`
	}
	raw, err := c.GetRawData()
	if err != nil {
		h.badRequest(c, err)
		return
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			h.badRequest(c, err)
			return
		}
	}

	resp, err := h.qrService.Compose(c.Request.Context(), c.Param("kind"), raw, body.Options)
	if err != nil {
		h.fail(c, "compose", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListBanks returns the bank directory
func (h *QRHandler) ListBanks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.qrService.Banks()})
}

// DownloadTemplate returns the sample spreadsheet
func (h *QRHandler) DownloadTemplate(c *gin.Context) {
	file, err := h.qrService.Template()
	if err != nil {
		h.fail(c, "template", err)
		return
	}
	sendFile(c, file)
}

// HealthCheck handles health check requests
func (h *QRHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func sendFile(c *gin.Context, file *service.File) {
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func (h *QRHandler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Error: err.Error()})
}

func (h *QRHandler) fail(c *gin.Context, kind string, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Success: false, Error: "upload too large"})
	case service.IsClientError(err):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Error: err.Error()})
	default:
		logger := logging.WithTraceContext(trace.SpanFromContext(c.Request.Context()))
		logger.Error("Request failed", zap.String("kind", kind), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Success: false, Error: err.Error()})
	}
}
