package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"course-payments/internal/config"
	infraCache "course-payments/internal/infrastructure/cache"
	"course-payments/internal/infrastructure/database"
	"course-payments/internal/infrastructure/email"
	"course-payments/internal/infrastructure/storage"
	"course-payments/pkg/cache"
	pkgdb "course-payments/pkg/database"
	"course-payments/pkg/jwt"

	checkoutHandler "course-payments/internal/domains/checkout/handler"
	checkoutRepo "course-payments/internal/domains/checkout/repository"
	checkoutService "course-payments/internal/domains/checkout/service"
	courseRepo "course-payments/internal/domains/course/repository"
	discountHandler "course-payments/internal/domains/discount/handler"
	discountRepo "course-payments/internal/domains/discount/repository"
	discountService "course-payments/internal/domains/discount/service"
	"course-payments/internal/domains/payment/gateway"
	"course-payments/internal/domains/payment/gateway/midtrans"
	"course-payments/internal/domains/payment/gateway/mock"
	"course-payments/internal/domains/payment/gateway/tripay"
	paymentHandler "course-payments/internal/domains/payment/handler"
	paymentRepo "course-payments/internal/domains/payment/repository"
	paymentService "course-payments/internal/domains/payment/service"
	revenueHandler "course-payments/internal/domains/revenue/handler"
	revenueRepo "course-payments/internal/domains/revenue/repository"
	revenueService "course-payments/internal/domains/revenue/service"
	settingsHandler "course-payments/internal/domains/settings/handler"
	settingsRepo "course-payments/internal/domains/settings/repository"
	settingsService "course-payments/internal/domains/settings/service"
	settlementHandler "course-payments/internal/domains/settlement/handler"
	"course-payments/internal/domains/settlement/notifier"
	settlementRepo "course-payments/internal/domains/settlement/repository"
	settlementService "course-payments/internal/domains/settlement/service"
	userRepo "course-payments/internal/domains/user/repository"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container is the root of the dependency graph, shared by cmd/api and cmd/worker.
type Container struct {
	// Infrastructure
	Config      *config.Config
	DB          *database.PostgresDB
	Redis       *infraCache.RedisClient
	Cache       cache.Cache
	JWTManager  *jwt.Manager
	TxManager   pkgdb.TxManager
	AsynqClient *asynq.Client
	Storage     *storage.MinIOStorage
	Mailer      email.EmailService
	Location    *time.Location

	// Gateways
	SnapGateway   gateway.SnapGateway
	TripayGateway gateway.TripayGateway

	// Repositories
	CourseReader   courseRepo.Reader
	ContactReader  userRepo.ContactReader
	SettingsRepo   settingsRepo.Repository
	DiscountRepo   discountRepo.Repository
	CheckoutRepo   checkoutRepo.Repository
	SettlementRepo settlementRepo.Repository
	ReferenceRepo  paymentRepo.ReferenceRepository
	WebhookRepo    paymentRepo.WebhookRepository
	RevenueRepo    revenueRepo.Repository

	// Services
	SettingsService   settingsService.Service
	DiscountService   discountService.Service
	CheckoutService   checkoutService.Service
	Reconciler        *paymentService.Reconciler
	SettlementService settlementService.Service
	PaymentService    paymentService.Service
	RevenueService    revenueService.Service

	// Handlers
	SettingsHandler   *settingsHandler.SettingsHandler
	DiscountHandler   *discountHandler.DiscountHandler
	CheckoutHandler   *checkoutHandler.CheckoutHandler
	SettlementHandler *settlementHandler.SettlementHandler
	PaymentHandler    *paymentHandler.PaymentHandler
	WebhookHandler    *paymentHandler.WebhookHandler
	RevenueHandler    *revenueHandler.RevenueHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer builds the graph in dependency order:
// config, infrastructure, repositories, services, handlers.
func NewContainer() (*Container, error) {
	log.Println("[CONTAINER] Initializing...")

	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("[CONTAINER] Config loaded (Environment: %s)", cfg.App.Environment)

	loc, err := time.LoadLocation(cfg.Report.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load report timezone: %w", err)
	}
	c.Location = loc

	// ========================================
	// STEP 2: INITIALIZE DATABASE
	// ========================================
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db
	c.TxManager = pkgdb.NewTxManager(db.Pool)

	// ========================================
	// STEP 3: INITIALIZE CACHE AND QUEUE
	// ========================================
	c.Redis = infraCache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := c.Redis.Connect(ctx); err != nil {
		// The settings cache falls back to the database on every miss
		log.Printf("[CONTAINER] Redis connection failed (non-critical): %v", err)
	}
	c.Cache = infraCache.NewRedisCache(c.Redis.Client, "course-payments")

	c.AsynqClient = asynq.NewClient(c.RedisClientOpt())
	c.JWTManager = jwt.NewManager(cfg.JWT.Secret)
	c.Mailer = email.NewSMTPEmailService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From)

	store, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
	if err != nil {
		return nil, fmt.Errorf("failed to init report storage: %w", err)
	}
	c.Storage = store

	// ========================================
	// STEP 4: PAYMENT GATEWAYS
	// ========================================
	if err := c.initGateways(); err != nil {
		return nil, fmt.Errorf("failed to init gateways: %w", err)
	}

	// ========================================
	// STEP 5: REPOSITORIES, SERVICES, HANDLERS
	// ========================================
	c.initRepositories()
	log.Println("[CONTAINER] Repositories initialized")

	c.initServices()
	log.Println("[CONTAINER] Services initialized")

	c.initHandlers()
	log.Println("[CONTAINER] Handlers initialized")

	log.Println("[CONTAINER] Initialized successfully")
	return c, nil
}

// RedisClientOpt is shared by the asynq client, server and scheduler.
func (c *Container) RedisClientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

// initGateways falls back to the mock gateways in development when keys are unset.
func (c *Container) initGateways() error {
	cfg := c.Config

	if cfg.IsDevelopment() && cfg.Midtrans.ServerKey == "" {
		log.Println("[CONTAINER] MIDTRANS_SERVER_KEY not set, using mock Snap gateway")
		c.SnapGateway = mock.NewSnapGateway()
	} else {
		snap, err := midtrans.NewClient(midtrans.NewConfig(cfg.Midtrans))
		if err != nil {
			return err
		}
		c.SnapGateway = snap
	}

	if cfg.IsDevelopment() && cfg.Tripay.PrivateKey == "" {
		log.Println("[CONTAINER] TRIPAY_PRIVATE_KEY not set, using mock Tripay gateway")
		c.TripayGateway = mock.NewTripayGateway()
	} else {
		tp, err := tripay.NewClient(tripay.NewConfig(cfg.Tripay))
		if err != nil {
			return err
		}
		c.TripayGateway = tp
	}

	return nil
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.CourseReader = courseRepo.NewPostgresReader(pool)
	c.ContactReader = userRepo.NewContactReader(pool, c.Cache)
	c.SettingsRepo = settingsRepo.NewPostgresRepository(pool)
	c.DiscountRepo = discountRepo.NewPostgresRepository(pool)
	c.CheckoutRepo = checkoutRepo.NewPostgresRepository(pool)
	c.SettlementRepo = settlementRepo.NewPostgresRepository(pool)
	c.ReferenceRepo = paymentRepo.NewReferenceRepository(pool)
	c.WebhookRepo = paymentRepo.NewWebhookRepository(pool)
	c.RevenueRepo = revenueRepo.NewPostgresRepository(pool)
}

func (c *Container) initServices() {
	cfg := c.Config

	c.SettingsService = settingsService.NewSettingsService(c.SettingsRepo, c.Cache)

	c.DiscountService = discountService.NewDiscountService(
		c.DiscountRepo,
		discountService.NewCalculator(),
	)

	c.CheckoutService = checkoutService.NewCheckoutService(
		c.CheckoutRepo,
		c.CourseReader,
		c.DiscountService,
		c.SettingsService,
		c.ContactReader,
		c.SnapGateway,
	)

	c.Reconciler = paymentService.NewReconciler(c.ReferenceRepo)

	c.SettlementService = settlementService.NewSettlementService(
		c.SettlementRepo,
		c.TxManager,
		settlementService.NewBookingIDGenerator(cfg.Checkout.BookingPrefix, cfg.Checkout.BookingDigits),
		c.CourseReader,
		c.DiscountService,
		c.Reconciler,
		notifier.NewAsynqNotifier(c.AsynqClient, cfg.Job.NotificationQueueName, cfg.Job.NotificationMaxRetry),
		c.CheckoutService,
		settlementService.Config{},
	)

	c.PaymentService = paymentService.NewPaymentService(
		c.ReferenceRepo,
		c.WebhookRepo,
		c.CheckoutService,
		c.SettlementService,
		c.Reconciler,
		c.ContactReader,
		c.SnapGateway,
		c.TripayGateway,
		paymentService.Config{
			MaxWebhookRetries: cfg.Job.MaxWebhookRetries,
			RetryBatchSize:    cfg.Job.RetryWebhooksLimit,
			Location:          c.Location,
		},
	)

	c.RevenueService = revenueService.NewRevenueService(
		c.RevenueRepo,
		c.Storage,
		c.Location,
		cfg.Report.ExportTTL,
	)
}

func (c *Container) initHandlers() {
	c.SettingsHandler = settingsHandler.NewSettingsHandler(c.SettingsService)
	c.DiscountHandler = discountHandler.NewDiscountHandler(c.DiscountService)
	c.CheckoutHandler = checkoutHandler.NewCheckoutHandler(c.CheckoutService)
	c.SettlementHandler = settlementHandler.NewSettlementHandler(c.SettlementService)
	c.PaymentHandler = paymentHandler.NewPaymentHandler(c.PaymentService)
	c.WebhookHandler = paymentHandler.NewWebhookHandler(c.PaymentService)
	c.RevenueHandler = revenueHandler.NewRevenueHandler(c.RevenueService)
}

// Cleanup releases connections on shutdown.
func (c *Container) Cleanup() {
	log.Println("[CONTAINER] Cleaning up resources...")

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Printf("[CONTAINER] Failed to close asynq client: %v", err)
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Printf("[CONTAINER] Failed to close Redis: %v", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	log.Println("[CONTAINER] Cleanup completed")
}
