package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"

	"github.com/sangkips/tablepos-api/internal/application/service"
	"github.com/sangkips/tablepos-api/internal/config"
	domainRepo "github.com/sangkips/tablepos-api/internal/domain/repository"
	"github.com/sangkips/tablepos-api/internal/infrastructure/database"
	"github.com/sangkips/tablepos-api/internal/infrastructure/messaging"
	"github.com/sangkips/tablepos-api/internal/infrastructure/queue"
	"github.com/sangkips/tablepos-api/internal/infrastructure/repository"
	"github.com/sangkips/tablepos-api/internal/presentation/http/handler"
	"github.com/sangkips/tablepos-api/internal/presentation/http/middleware"
	"github.com/sangkips/tablepos-api/internal/presentation/http/routes"
	"github.com/sangkips/tablepos-api/pkg/logger"
	"github.com/sangkips/tablepos-api/pkg/metrics"
	"github.com/sangkips/tablepos-api/pkg/tracing"
	"github.com/sangkips/tablepos-api/pkg/utils"
)

// publisher is what the services publish domain events to
type publisher interface {
	service.EventPublisher
	Close() error
}

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Init(cfg.App.Name, cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var tp *sdktrace.TracerProvider
	if cfg.Tracing.Enabled {
		var err error
		tp, err = tracing.Init(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
		if err != nil {
			logger.Warn(ctx).Err(err).Msg("tracing disabled")
		}
	}
	if tp == nil {
		tracing.InstallPropagator()
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours, cfg.JWT.Issuer)

	if cfg.Seed.DemoData {
		seedDemo(ctx, db, jwtManager)
	}

	redisClient, err := queue.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	printQueue := queue.NewRedisQueue(redisClient, cfg.Queue.PrintersName, cfg.Queue.EnqueueRetries)

	var events publisher = messaging.NoopPublisher{}
	if cfg.Kafka.Enabled() {
		kafka, err := messaging.NewKafkaPublisher(cfg.Kafka.Brokers)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("failed to create kafka publisher")
		}
		events = kafka
	} else {
		logger.Info(ctx).Msg("kafka brokers not configured, domain events are discarded")
	}
	defer events.Close()

	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(cfg.Metrics.Prefix, reg)
		gatherer = reg
	}

	billingLoc, err := time.LoadLocation(cfg.Billing.Timezone)
	if err != nil {
		logger.Warn(ctx).Err(err).Str("timezone", cfg.Billing.Timezone).Msg("unknown billing timezone, using UTC")
		billingLoc = time.UTC
	}

	// Initialize repositories
	tx := repository.NewTransactor(db)
	tenantRepo := repository.NewTenantRepository(db)
	productRepo := repository.NewProductRepository(db)
	stockRepo := repository.NewStockRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	kotRepo := repository.NewKOTRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Initialize services
	stockService := service.NewStockService(tx, stockRepo, productRepo, m)
	kotService := service.NewKOTService(kotRepo, orderRepo, printQueue, m)
	orderService := service.NewOrderService(service.OrderDeps{
		Tx:       tx,
		Orders:   orderRepo,
		Products: productRepo,
		Tenants:  tenantRepo,
		KOTs:     kotRepo,
		Invoices: invoiceRepo,
		Stock:    stockService,
		KOT:      kotService,
		Events:   events,
		Metrics:  m,
	}, service.OrderOptions{AutoPrintKOT: cfg.Orders.AutoPrintKOT, Topic: cfg.Kafka.OrderTopic})
	invoiceService := service.NewInvoiceService(tx, invoiceRepo, paymentRepo, orderRepo, tenantRepo, m, service.InvoiceOptions{
		DueDays:       cfg.Billing.InvoiceDueDays,
		NumberRetries: cfg.Billing.InvoiceNumberRetries,
		Location:      billingLoc,
	})
	paymentService := service.NewPaymentService(tx, invoiceRepo, paymentRepo, events, m, cfg.Kafka.BillingTopic)

	rateLimiter := middleware.NewTenantRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.Burst,
	})
	defer rateLimiter.Stop()

	handlers := &routes.Handlers{
		Order:     handler.NewOrderHandler(orderService),
		KOT:       handler.NewKOTHandler(kotService),
		Inventory: handler.NewInventoryHandler(stockService),
		Billing:   handler.NewBillingHandler(invoiceService, paymentService),
	}

	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		TenantRepo:      tenantRepo,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     rateLimiter,
		Metrics:         m,
		Gatherer:        gatherer,
	})

	go purgeIdempotencyKeys(ctx, idempotencyRepo, time.Hour)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(ctx).
			Str("port", cfg.App.Port).
			Str("env", cfg.App.Env).
			Msgf("starting %s", cfg.App.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background()).Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx).Err(err).Msg("server shutdown failed")
	}
	if tp != nil {
		if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
			logger.Error(shutdownCtx).Err(err).Msg("tracer shutdown failed")
		}
	}
}

// seedDemo creates the demo tenant and logs a token for its first branch
func seedDemo(ctx context.Context, db *gorm.DB, jwtManager *utils.JWTManager) {
	tenant, err := database.SeedDemoData(ctx, db)
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("failed to seed demo data")
		return
	}

	var branchID *uuid.UUID
	if len(tenant.Branches) > 0 {
		branchID = &tenant.Branches[0].ID
	}
	token, err := jwtManager.GenerateAccessToken(uuid.New(), tenant.ID, branchID, []string{"admin"})
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("failed to issue demo token")
		return
	}
	logger.Info(ctx).Str("tenant_id", tenant.ID.String()).Str("token", token).Msg("demo access token")
}

func purgeIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				logger.Warn(ctx).Err(err).Msg("idempotency key cleanup failed")
				continue
			}
			if n > 0 {
				logger.Debug(ctx).Int64("deleted", n).Msg("expired idempotency keys removed")
			}
		}
	}
}
