package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/repositories/customer"
	"github.com/Ramsey-B/fern/internal/repositories/order"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/extract"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/kpi"
	"github.com/Ramsey-B/fern/pkg/loader"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/normalizer"
	"github.com/Ramsey-B/fern/pkg/pipeline"
	"github.com/Ramsey-B/fern/pkg/reconciler"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/routes/results"
	"github.com/Ramsey-B/fern/pkg/timezone"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	cfg := &config.Config{}
	if err := ectoenv.BindEnv(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := setupTracing(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to set up tracing")
		os.Exit(1)
	}
	defer shutdownTracing()

	var db database.DB
	if cfg.DatabaseEnabled {
		db, err = database.Connect(database.Config{
			Host:            cfg.DatabaseHost,
			Port:            cfg.DatabasePort,
			UserName:        cfg.DatabaseUserName,
			Password:        cfg.DatabasePassword,
			Name:            cfg.DatabaseName,
			SSLMode:         cfg.DatabaseSSLMode,
			MaxOpenConns:    cfg.DatabaseMaxOpenConns,
			MaxIdleConns:    cfg.DatabaseMaxIdleConns,
			ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
		}, logger)
		if err != nil {
			logger.WithError(err).Error("Failed to connect to database")
			os.Exit(1)
		}
		defer db.Close()

		migrations := database.NewMigrationService(logger, &database.MigrationConfig{
			FolderPath:   cfg.DatabaseMigrationFolderPath,
			AutoRollback: cfg.DatabaseMigrationAutoRollback,
		})
		if err := migrations.Up(db); err != nil {
			logger.WithError(err).Error("Failed to apply migrations")
			os.Exit(1)
		}
	}

	tz, err := timezone.NewConverter(cfg.SourceTimeZone)
	if err != nil {
		logger.WithError(err).WithField("zone", cfg.SourceTimeZone).Error("Failed to load source time zone")
		os.Exit(1)
	}

	var producer *kafka.Producer
	if cfg.RunEventsEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
	}

	var (
		customerRepo *customer.Repository
		orderRepo    *order.Repository
		ld           *loader.Loader
		relational   kpi.Engine
	)
	if db != nil {
		customerRepo = customer.NewRepository(db, logger)
		orderRepo = order.NewRepository(db, logger)
		ld = loader.New(db, customerRepo, orderRepo, logger)
		relational = kpi.NewRelationalEngine(db, logger)
	}

	p := pipeline.New(
		normalizer.New(tz, logger),
		reconciler.New(cfg.AmountToleranceMinor, logger),
		ld,
		relational,
		events.NewEmitter(producer, logger),
		logger,
		pipeline.Options{WindowDays: cfg.WindowDays, TopLimit: cfg.TopCustomerLimit},
	)

	runOnce := func(ctx context.Context) (*pipeline.Outcome, error) {
		customers, err := extract.ReadCustomersFile(cfg.CustomerFilePath)
		if err != nil {
			return nil, err
		}
		orders, err := extract.ReadOrdersFile(cfg.OrderFilePath)
		if err != nil {
			return nil, err
		}
		return p.Run(ctx, customers, orders)
	}

	if _, err := runOnce(ctx); err != nil {
		logger.WithError(err).Error("Initial run failed")
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(echomw.Recover())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	checker := health.NewChecker(db, version)
	checker.RegisterRoutes(e)
	checker.SetReady(true)

	results.NewHandler(p, customerRepo, orderRepo, runOnce).Register(e.Group("/api/v1"))

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.WithField("addr", addr).Info("Starting HTTP server")
		if err := e.Start(addr); err != nil {
			logger.WithError(err).Info("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down HTTP server cleanly")
	}
}

func newLogger(cfg *config.Config) (ectologger.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zcfg = zap.NewDevelopmentConfig()
	}
	if lvl, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zcfg.Level = lvl
	}
	zapLogger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}

// setupTracing installs the configured span exporter and binds the package
// tracer. The returned func flushes and shuts the provider down.
func setupTracing(ctx context.Context, cfg *config.Config) (func(), error) {
	if !cfg.TracingEnabled {
		return func() {}, nil
	}

	var exporter sdktrace.SpanExporter
	switch cfg.TracingExporter {
	case "grpc", "http":
		otlpCfg := exporters.DefaultOTLPConfig()
		otlpCfg.Endpoint = cfg.TracingEndpoint
		otlpCfg.Protocol = cfg.TracingExporter
		otlp, err := exporters.NewOTLPExporter(ctx, otlpCfg)
		if err != nil {
			return nil, err
		}
		exporter = otlp
	default:
		exporter = &exporters.ConsoleExporter{}
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	tracing.SetTracer(otel.Tracer(cfg.AppName))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}, nil
}
