// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"

	"fieldworks-service/internal/config"
	"fieldworks-service/internal/crm"
	"fieldworks-service/internal/db"
	customerHandler "fieldworks-service/internal/handlers/customer"
	syncHandler "fieldworks-service/internal/handlers/sync"
	tenantHandler "fieldworks-service/internal/handlers/tenant"
	"fieldworks-service/internal/middleware"
	"fieldworks-service/internal/pkg/lock"
	"fieldworks-service/internal/repository/postgres"
	crmsyncUsecase "fieldworks-service/internal/service/crmsync"
	tenantUsecase "fieldworks-service/internal/service/tenant"
	"fieldworks-service/internal/ws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Println("[REDIS] connected")

	// ----- Repositories -----
	tenantRepo := postgres.NewTenantRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	jobRepo := postgres.NewJobRepository(pool)
	appointmentRepo := postgres.NewAppointmentRepository(pool)
	runRepo := postgres.NewSyncRunRepository(pool)

	// ----- CRM client -----
	crmClient := crm.NewClient(crm.Config{
		BaseURL:           s.cfg.CRMBaseURL,
		APIKey:            s.cfg.CRMAPIKey,
		RequestsPerSecond: s.cfg.CRMRequestsPerSecond,
		Burst:             s.cfg.CRMBurst,
		MaxAttempts:       s.cfg.CRMMaxAttempts,
		RetryBaseDelay:    s.cfg.CRMRetryBaseDelay,
		RetryMaxDelay:     s.cfg.CRMRetryMaxDelay,
		RequestTimeout:    s.cfg.CRMRequestTimeout,
	}, logger)

	// ----- Distributed lock -----
	locker := lock.NewRedisLocker(redisClient)

	// ----- WebSocket hub -----
	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	// ----- Services -----
	syncService := crmsyncUsecase.NewService(
		tenantRepo,
		customerRepo,
		jobRepo,
		appointmentRepo,
		runRepo,
		crmClient,
		locker,
		hub,
		crmsyncUsecase.Options{
			DefaultRegion: s.cfg.DefaultRegion,
			PageSize:      s.cfg.SyncPageSize,
			LockTTL:       s.cfg.SyncLockTTL,
		},
		logger,
	)
	tenantService := tenantUsecase.NewTenantService(tenantRepo, logger)

	// ----- Handlers -----
	syncHandlerInst := syncHandler.NewSyncHandler(syncService, logger)
	settingsHandlerInst := tenantHandler.NewSettingsHandler(tenantService, logger)
	customerHandlerInst := customerHandler.NewCustomerHandler(syncService, logger)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(s.cfg.JWTSecret)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		SyncHandler:     syncHandlerInst,
		SettingsHandler: settingsHandlerInst,
		CustomerHandler: customerHandlerInst,
		Hub:             hub,
		AuthMiddleware:  authMiddleware,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	log.Printf("server running on %s", s.cfg.HTTPAddr)
	return s.engine.Run(s.cfg.HTTPAddr)
}
