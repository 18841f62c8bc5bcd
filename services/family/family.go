// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package family provides the family graph service for silsila.
//
// This package contains the main service type that coordinates all
// components: the BadgerDB-backed graph store, HTTP routing, and
// observability infrastructure (Prometheus metrics, OpenTelemetry
// tracing).
//
// # Usage
//
//	cfg := family.Config{Port: 12310, DataDir: "/var/lib/silsila"}
//	svc, err := family.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package family

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/silsila-app/silsila/pkg/logging"
	storage "github.com/silsila-app/silsila/pkg/storage/badger"
	"github.com/silsila-app/silsila/services/family/middleware"
	"github.com/silsila-app/silsila/services/family/observability"
	"github.com/silsila-app/silsila/services/family/routes"
	"github.com/silsila-app/silsila/services/family/store"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the family graph service.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and
// should only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing.
	Router() *gin.Engine

	// Store returns the graph store, used by the seeder.
	Store() *store.Store

	// Close releases the database and tracer without starting the
	// server. Run() cleans up on its own; Close is for embedders.
	Close()
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds family service configuration options.
//
// All fields have defaults applied by New(); the zero value starts an
// in-memory instance on the default port.
type Config struct {
	// Port is the HTTP server port. Default: 12310
	Port int

	// DataDir is the BadgerDB directory. Empty means in-memory (data is
	// lost on exit; intended for tests and demos).
	DataDir string

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Empty disables tracing.
	OTelEndpoint string

	// EnableMetrics enables the Prometheus /metrics endpoint.
	EnableMetrics bool

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	GinMode string

	// AuthProvider validates bearer tokens on mutation and moderation
	// routes. Nil uses the no-op provider (every caller is a local
	// moderator).
	AuthProvider middleware.AuthProvider

	// Logger for service-level messages. Nil uses the default.
	Logger *logging.Logger
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// Thread-safe after construction; all fields are read-only after New()
// returns.
type service struct {
	config        Config
	router        *gin.Engine
	db            *storage.DB
	store         *store.Store
	logger        *logging.Logger
	tracerCleanup func(context.Context)
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a family graph Service with the given configuration.
//
// # Description
//
// New initializes all components in order: configuration defaults,
// OpenTelemetry tracing (if configured), Prometheus metrics (if
// enabled), the BadgerDB store, and the HTTP router. A failure after the
// database opens closes it before returning.
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults.
//
// # Outputs
//
//   - Service: Ready-to-run service.
//   - error: Non-nil if the database or tracer cannot initialize.
func New(cfg Config) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	s.logger = s.config.Logger
	if s.logger == nil {
		s.logger = logging.Default()
	}

	if s.config.OTelEndpoint != "" {
		cleanup, err := s.initTracer()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
		s.tracerCleanup = cleanup
	}

	if s.config.EnableMetrics && observability.DefaultMetrics == nil {
		observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics for family graph")
	}

	if err := s.initStore(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
// Cleanup is automatic on return.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting family graph server",
		"port", s.config.Port,
		"data_dir", s.config.DataDir)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// Store returns the graph store.
func (s *service) Store() *store.Store {
	return s.store
}

// Close releases all resources without starting the server.
func (s *service) Close() {
	s.cleanup()
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12310
	}
	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// Sets up the OTLP trace exporter to send spans to the configured
// collector over an insecure gRPC connection (appropriate for internal
// networks). Returns the cleanup function to call on shutdown.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("family-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initStore opens the BadgerDB instance and wraps it in the graph store.
func (s *service) initStore() error {
	storageCfg := storage.DefaultConfig()
	storageCfg.Path = s.config.DataDir
	storageCfg.Logger = s.logger.Slog()
	if s.config.DataDir == "" {
		storageCfg = storage.InMemoryConfig()
		storageCfg.Logger = s.logger.Slog()
		slog.Warn("No data directory configured, using in-memory store")
	}

	db, err := storage.Open(storageCfg)
	if err != nil {
		return err
	}
	s.db = db
	s.store = store.New(db, s.logger)
	return nil
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}

	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("family-service"))

	if s.config.EnableMetrics {
		s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	routes.SetupRoutes(s.router, s.store, s.config.AuthProvider)
}

// cleanup releases all resources held by the service.
func (s *service) cleanup() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Warn("database close error", "error", err)
		}
		s.db = nil
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
		s.tracerCleanup = nil
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
