package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/oyoplus/booking-service/internal/adapters/catalog"
	"github.com/oyoplus/booking-service/internal/adapters/events"
	"github.com/oyoplus/booking-service/internal/adapters/memory"
	"github.com/oyoplus/booking-service/internal/adapters/postgres"
	"github.com/oyoplus/booking-service/internal/adapters/razorpay"
	"github.com/oyoplus/booking-service/internal/config"
	"github.com/oyoplus/booking-service/internal/domain/ports"
	bookingHandler "github.com/oyoplus/booking-service/internal/handlers/booking"
	cronHandler "github.com/oyoplus/booking-service/internal/handlers/cron"
	paymentHandler "github.com/oyoplus/booking-service/internal/handlers/payment"
	bookingService "github.com/oyoplus/booking-service/internal/services/booking"
	"github.com/oyoplus/booking-service/internal/services/idempotency"
	"github.com/oyoplus/booking-service/internal/services/ledger"
	settlementService "github.com/oyoplus/booking-service/internal/services/settlement"
	webhookService "github.com/oyoplus/booking-service/internal/services/webhook"
	pkghttp "github.com/oyoplus/booking-service/pkg/http"
	"github.com/oyoplus/booking-service/pkg/logging"
	"github.com/oyoplus/booking-service/pkg/middleware"
	"github.com/oyoplus/booking-service/pkg/observability"
	"github.com/oyoplus/booking-service/pkg/resilience"
	"github.com/oyoplus/booking-service/pkg/shutdown"
)

const version = "0.3.0"

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Environment, cfg.Logger.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting booking service",
		zap.String("version", version),
		zap.String("environment", cfg.Environment),
	)

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(logger, cfg.Server.ShutdownTimeout)
	healthChecker := observability.NewHealthChecker()

	infra, err := initInfrastructure(ctx, cfg, logger, shutdownMgr, healthChecker)
	if err != nil {
		logger.Fatal("Failed to initialize infrastructure", zap.Error(err))
	}

	app := buildApplication(infra, cfg, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, logger)
	shutdownMgr.RegisterNoErr("rate_limiter", rateLimiter.Shutdown)

	router := newRouter(app.routes(healthChecker), routerConfig{
		corsOrigins:    cfg.Server.CORSOrigins,
		handlerTimeout: cfg.Server.HandlerTimeout,
		development:    !cfg.IsProduction(),
		rateLimiter:    rateLimiter,
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker, logger)
	shutdownMgr.Register("metrics_server", metricsServer.Shutdown)
	shutdownMgr.Register("http_server", httpServer.Shutdown)

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	if failures := shutdownMgr.WaitForShutdown(); len(failures) > 0 {
		os.Exit(1)
	}
}

// infrastructure holds the adapters chosen by configuration
type infrastructure struct {
	orders      ports.OrderStore
	bookings    ports.BookingRepository
	idempotency ports.IdempotencyStore
	purger      cronHandler.Purger
	catalog     ports.PropertyCatalog
	gateway     ports.SettlementGateway
	publisher   ports.EventPublisher

	webhookSecret string
	cronSecret    string
}

func initInfrastructure(ctx context.Context, cfg *config.Config, logger *zap.Logger, shutdownMgr *shutdown.Manager, healthChecker *observability.HealthChecker) (*infrastructure, error) {
	infra := &infrastructure{cronSecret: cfg.Cron.Secret}

	if cfg.Database.UsesDatabase() {
		pool, err := postgres.NewPool(ctx, cfg.Database.ConnectionString(), cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		shutdownMgr.RegisterNoErr("database", pool.Close)

		db := postgres.NewDBExecutor(pool)
		healthChecker.RegisterPinger("database", db)

		idem := postgres.NewIdempotencyRepository(db, cfg.Settlement.IdempotencyTTL)
		infra.orders = postgres.NewOrderRepository(db)
		infra.bookings = postgres.NewBookingRepository(db)
		infra.idempotency = idem
		infra.purger = idem

		logger.Info("Database connection established", zap.String("database", cfg.Database.Database))
	} else {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("DATABASE_URL or DB_HOST is required in production")
		}
		idem := memory.NewIdempotencyStore(cfg.Settlement.IdempotencyTTL)
		observability.RegisterIdempotencySize(idem.Len)
		infra.orders = memory.NewOrderStore()
		infra.bookings = memory.NewBookingStore()
		infra.idempotency = idem
		infra.purger = idem

		logger.Warn("No database configured, using in-memory stores")
	}

	sm, err := initSecretManager(ctx, cfg.Secrets, logger)
	if err != nil {
		return nil, fmt.Errorf("init secret manager: %w", err)
	}
	keySecret, err := resolveSecret(ctx, sm, cfg.Gateway.KeySecret, cfg.Gateway.KeySecretPath)
	if err != nil {
		return nil, err
	}
	if infra.webhookSecret, err = resolveSecret(ctx, sm, cfg.Webhook.Secret, cfg.Webhook.SecretPath); err != nil {
		return nil, err
	}
	if infra.webhookSecret == "" {
		logger.Warn("Webhook secret is empty, every webhook will be rejected")
	}

	gatewayCfg := razorpay.Config{
		BaseURL:   cfg.Gateway.BaseURL,
		KeyID:     cfg.Gateway.KeyID,
		KeySecret: keySecret,
		AccountID: cfg.Gateway.VendorAccountID,
		Currency:  cfg.Gateway.Currency,
		Timeout:   cfg.Gateway.Timeout,
	}
	if err := gatewayCfg.Validate(); err != nil {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("gateway config: %w", err)
		}
		logger.Warn("Settlement gateway is not fully configured, calls will fail", zap.Error(err))
	}
	httpClient := pkghttp.NewHTTPClient(pkghttp.GatewayClientConfig(), 0)
	infra.gateway = razorpay.NewClient(gatewayCfg, httpClient, logging.NewZapLogger(logger))

	if len(cfg.Events.Brokers) > 0 {
		infra.publisher = events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic, logger)
		logger.Info("Publishing settlement events to Kafka",
			zap.Strings("brokers", cfg.Events.Brokers),
			zap.String("topic", cfg.Events.Topic),
		)
	} else {
		infra.publisher = events.NewLogPublisher(logger)
	}
	shutdownMgr.RegisterCloser("event_publisher", infra.publisher)

	if infra.catalog, err = catalog.Load(cfg.Catalog.PropertiesFile); err != nil {
		return nil, err
	}

	return infra, nil
}

// application holds the wired HTTP handlers
type application struct {
	settlement *paymentHandler.SettlementHandler
	webhook    *paymentHandler.WebhookHandler
	booking    *bookingHandler.Handler
	cleanup    *cronHandler.IdempotencyCleanupHandler
}

func buildApplication(infra *infrastructure, cfg *config.Config, logger *zap.Logger) *application {
	portsLogger := logging.NewZapLogger(logger)

	timeouts := resilience.DefaultTimeoutConfig()
	timeouts.Gateway = cfg.Gateway.Timeout

	l := ledger.NewLedger(infra.orders, infra.gateway, cfg.Settlement.PlatformFeePct, portsLogger)
	reconciler := settlementService.NewReconciler(l, infra.gateway, portsLogger)
	cache := idempotency.NewCache(infra.idempotency, portsLogger)
	settlements := settlementService.NewService(l, reconciler, cache, infra.publisher, portsLogger).WithTimeouts(timeouts)

	bookings := bookingService.NewService(infra.catalog, infra.bookings, l, infra.publisher, portsLogger)
	processor := webhookService.NewProcessor(webhookService.NewVerifier(infra.webhookSecret), l, bookings, infra.publisher, portsLogger)

	return &application{
		settlement: paymentHandler.NewSettlementHandler(settlements, logger),
		webhook:    paymentHandler.NewWebhookHandler(processor, logger),
		booking:    bookingHandler.NewHandler(bookings, logger),
		cleanup:    cronHandler.NewIdempotencyCleanupHandler(infra.purger, logger, infra.cronSecret),
	}
}

func (a *application) routes(healthChecker *observability.HealthChecker) routes {
	return routes{
		settlement: a.settlement,
		webhook:    a.webhook,
		booking:    a.booking,
		cleanup:    a.cleanup,
		health:     healthChecker.HealthHandler(),
	}
}
