package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/Rheinmir/qr-generator-module/banks"
	"github.com/Rheinmir/qr-generator-module/batch"
	"github.com/Rheinmir/qr-generator-module/config"
	"github.com/Rheinmir/qr-generator-module/handlers"
	"github.com/Rheinmir/qr-generator-module/hosting"
	"github.com/Rheinmir/qr-generator-module/logging"
	"github.com/Rheinmir/qr-generator-module/monitoring"
	"github.com/Rheinmir/qr-generator-module/service"
	"github.com/Rheinmir/qr-generator-module/vietqr"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize structured logging
	otlpLogs := ""
	if cfg.TelemetryEnabled {
		otlpLogs = cfg.OTELEndpoint
	}
	if err := logging.InitLogger(cfg.ServiceName, otlpLogs); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logging.Sync()
	defer func() {
		if err := logging.Shutdown(context.Background()); err != nil {
			logging.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var tracer trace.Tracer = noop.NewTracerProvider().Tracer(cfg.ServiceName)
	var meter metric.Meter
	if cfg.TelemetryEnabled {
		tp, t, err := monitoring.InitTracer(cfg.ServiceName, cfg.OTELEndpoint)
		if err != nil {
			logging.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		tracer = t
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logging.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()

		mp, m, err := monitoring.InitMeter(cfg.ServiceName, cfg.OTELEndpoint)
		if err != nil {
			logging.Fatal("Failed to initialize meter", zap.Error(err))
		}
		meter = m
		defer func() {
			if err := mp.Shutdown(context.Background()); err != nil {
				logging.Error("Error shutting down meter provider", zap.Error(err))
			}
		}()
	}

	// Bank directory, refreshed from the remote list when configured
	directory := banks.NewDirectory(banks.Builtin)
	if cfg.BankDirectoryURL != "" {
		go refreshBanks(ctx, banks.NewClient(cfg.BankDirectoryURL), directory, cfg.BankRefreshInterval)
	}

	// Optional image hosting
	var imageHost service.ImageHost
	if cfg.HostingEnabled() {
		host, err := hosting.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			logging.Fatal("Failed to initialize image hosting", zap.Error(err))
		}
		imageHost = host
		go host.RunCleanup(ctx, cfg.CleanupInterval, cfg.CleanupDays)
	}

	// Render worker pool
	pool, err := batch.NewPool(cfg.WorkerPoolSize)
	if err != nil {
		logging.Fatal("Failed to create worker pool", zap.Error(err))
	}
	defer pool.Release()
	if meter != nil {
		if err := monitoring.RegisterWorkerGauge(meter, pool.Running); err != nil {
			logging.Error("Failed to register worker gauge", zap.Error(err))
		}
	}

	// Initialize service layer
	profile := vietqr.ParseProfile(cfg.VietQRProfile)
	qrService := service.NewQRService(tracer, batch.NewRenderer(pool, cfg.MaxBatchItems), directory, imageHost, profile)

	// Initialize handlers
	qrHandler := handlers.NewQRHandler(qrService, cfg.MaxUploadBytes)

	// Setup Gin router
	r := gin.Default()
	r.MaxMultipartMemory = cfg.MaxUploadBytes

	// OpenTelemetry middleware
	if cfg.TelemetryEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	r.Use(httpMetricsMiddleware())

	// Routes
	qrHandler.Register(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Error("Error shutting down server", zap.Error(err))
		}
	}()

	// Start server
	logging.Info("QR service starting",
		zap.String("port", cfg.Port),
		zap.String("vietqr_profile", string(profile)),
		zap.Bool("hosting", cfg.HostingEnabled()),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal("Failed to start server", zap.Error(err))
	}
}

func refreshBanks(ctx context.Context, client *banks.Client, directory *banks.Directory, interval time.Duration) {
	refresh := func() {
		n, err := client.Refresh(ctx, directory)
		if err != nil {
			logging.Warn("Bank directory refresh failed, keeping current list", zap.Error(err))
			return
		}
		logging.Info("Bank directory refreshed", zap.Int("banks", n))
	}

	refresh()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

// httpMetricsMiddleware records HTTP request metrics
func httpMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		// Record duration
		duration := float64(time.Since(start).Milliseconds())

		monitoring.HTTPServerDuration.Record(c.Request.Context(), duration,
			metric.WithAttributes(
				attribute.String("http_method", c.Request.Method),
				attribute.String("http_route", c.FullPath()),
				attribute.String("http_status_code", strconv.Itoa(c.Writer.Status())),
			),
		)
	}
}
