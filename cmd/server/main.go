package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	activityapp "github.com/investorcrm/backend/internal/application/activity"
	assistantapp "github.com/investorcrm/backend/internal/application/assistant"
	auditapp "github.com/investorcrm/backend/internal/application/audit"
	contactapp "github.com/investorcrm/backend/internal/application/contact"
	identityapp "github.com/investorcrm/backend/internal/application/identity"
	integrationapp "github.com/investorcrm/backend/internal/application/integration"
	investorapp "github.com/investorcrm/backend/internal/application/investor"
	"github.com/investorcrm/backend/internal/application/maintenance"
	meetingapp "github.com/investorcrm/backend/internal/application/meeting"
	networkapp "github.com/investorcrm/backend/internal/application/network"
	preferencesapp "github.com/investorcrm/backend/internal/application/preferences"
	reportapp "github.com/investorcrm/backend/internal/application/report"
	searchapp "github.com/investorcrm/backend/internal/application/search"
	taskapp "github.com/investorcrm/backend/internal/application/task"
	"github.com/investorcrm/backend/internal/infrastructure/auth"
	"github.com/investorcrm/backend/internal/infrastructure/cache"
	"github.com/investorcrm/backend/internal/infrastructure/config"
	"github.com/investorcrm/backend/internal/infrastructure/event"
	"github.com/investorcrm/backend/internal/infrastructure/integrations/google"
	"github.com/investorcrm/backend/internal/infrastructure/integrations/llm"
	"github.com/investorcrm/backend/internal/infrastructure/integrations/messaging"
	"github.com/investorcrm/backend/internal/infrastructure/integrations/news"
	"github.com/investorcrm/backend/internal/infrastructure/logger"
	"github.com/investorcrm/backend/internal/infrastructure/migration"
	"github.com/investorcrm/backend/internal/infrastructure/persistence"
	"github.com/investorcrm/backend/internal/infrastructure/realtime"
	"github.com/investorcrm/backend/internal/infrastructure/report"
	"github.com/investorcrm/backend/internal/infrastructure/scheduler"
	"github.com/investorcrm/backend/internal/infrastructure/search"
	"github.com/investorcrm/backend/internal/infrastructure/storage"
	"github.com/investorcrm/backend/internal/infrastructure/telemetry"
	"github.com/investorcrm/backend/internal/interfaces/http/handler"
	"github.com/investorcrm/backend/internal/interfaces/http/middleware"
	"github.com/investorcrm/backend/internal/interfaces/http/router"
	"github.com/investorcrm/backend/migrations"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.ForEnvironment(cfg.App.Env, cfg.Log.Level)
	if cfg.Log.Format != "" {
		logCfg.Format = cfg.Log.Format
	}
	if cfg.Log.Output != "" {
		logCfg.Output = cfg.Log.Output
	}
	logCfg.Service = cfg.App.Name
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting investor CRM",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	metrics := telemetry.NewMetrics()

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Database.SlowQuery)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.InstrumentDB(db.DB, telemetry.DBTracingConfig{
		TracingEnabled:  cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		WithVariables:   !cfg.App.IsProduction(),
		SlowQueryThresh: cfg.Database.SlowQuery,
		DBName:          cfg.Database.DBName,
	}, metrics, log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get database handle", zap.Error(err))
	}
	if err := metrics.RegisterDBStats(sqlDB, cfg.Database.DBName); err != nil {
		log.Warn("Failed to register database pool metrics", zap.Error(err))
	}
	if err := migrateSchema(cfg.Database.DSN(), log); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Cache, token revocation and rate limiting share Redis when it is available
	appCache, redisClient := cache.New(cfg.Redis, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	}

	// Repositories
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	investorRepo := persistence.NewGormInvestorRepository(db.DB)
	contactRepo := persistence.NewGormContactRepository(db.DB)
	activityRepo := persistence.NewGormActivityRepository(db.DB)
	taskRepo := persistence.NewGormTaskRepository(db.DB)
	meetingRepo := persistence.NewGormMeetingRepository(db.DB)
	linkedInRepo := persistence.NewGormLinkedInContactRepository(db.DB)
	relationshipRepo := persistence.NewGormRelationshipRepository(db.DB)
	filterRepo := persistence.NewGormSavedFilterRepository(db.DB)
	settingsRepo := persistence.NewGormUserPreferencesRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)
	conversationRepo := persistence.NewGormConversationRepository(db.DB)
	googleConnRepo := persistence.NewGormGoogleConnectionRepository(db.DB)

	eventBus := event.NewInMemoryEventBus(log)

	// External adapters
	objects := newObjectStorage(ctx, cfg.Storage, log)
	var index searchapp.Index
	var meili *search.Meili
	if cfg.Search.Enabled {
		meili = search.NewMeili(cfg.Search, log)
		index = meili
		defer meili.Close()
	}
	googleClient := google.NewClient(cfg.Google)
	llmClient := llm.NewClient(cfg.LLM, metrics)
	newsClient := news.NewClient(cfg.News)
	renderer := report.NewChromedpRenderer(report.ChromedpConfig{
		DefaultTimeout: cfg.Report.RenderTimeout,
		ExecPath:       cfg.Report.ChromePath,
		NoSandbox:      os.Geteuid() == 0,
	}, log)
	defer func() { _ = renderer.Close() }()

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(
		tenantRepo, userRepo, persistence.NewGormIdentityTransaction(db.DB),
		jwtService, blacklist, eventBus, identityapp.DefaultAuthServiceConfig(), log,
	)
	userService := identityapp.NewUserService(userRepo, blacklist, jwtService, eventBus, log)
	auditService := auditapp.NewAuditService(auditRepo, log)
	activityService := activityapp.NewActivityService(activityRepo, investorRepo, contactRepo, eventBus, log)
	investorService := investorapp.NewInvestorService(
		investorRepo, activityService, activityRepo, meetingRepo, taskRepo,
		appCache, cfg.Cache.PipelineTTL, eventBus, metrics, log,
	)
	contactService := contactapp.NewContactService(contactRepo, investorRepo, eventBus, log)
	taskService := taskapp.NewTaskService(taskRepo, investorRepo, contactRepo, eventBus, log)
	googleService := integrationapp.NewGoogleService(
		googleConnRepo, contactRepo, meetingRepo, activityService, googleClient,
		auth.NewStateSigner(cfg.Google.StateSecret, cfg.JWT.Issuer),
		integrationapp.GoogleServiceConfig{SyncLookback: cfg.Google.SyncLookback},
		eventBus, metrics, log,
	)
	meetingService := meetingapp.NewMeetingService(
		meetingRepo, investorRepo, taskRepo, activityService,
		meetingapp.MeetingServiceConfig{
			Objects:   objects,
			LLM:       llmClient,
			Calendar:  googleService,
			UploadTTL: cfg.Storage.UploadURLTTL,
		},
		eventBus, log,
	)
	networkService := networkapp.NewNetworkService(
		linkedInRepo, relationshipRepo, investorRepo, userRepo,
		networkapp.Config{
			Objects:   objects,
			Locks:     appCache,
			UploadTTL: cfg.Storage.UploadURLTTL,
		},
		eventBus, metrics, log,
	)
	preferencesService := preferencesapp.NewPreferencesService(filterRepo, settingsRepo, eventBus, log)
	messagingService := integrationapp.NewMessagingService(
		contactRepo, investorRepo, tenantRepo, activityService,
		messaging.NewGoogleChat(cfg.Messaging.GoogleChatWebhookURL), messaging.NewWhatsApp(cfg.Messaging),
		integrationapp.MessagingServiceConfig{WhatsAppTenantSlug: cfg.Messaging.WhatsAppTenantSlug},
		metrics, log,
	)
	newsService := integrationapp.NewNewsService(investorRepo, newsClient, appCache,
		integrationapp.NewsServiceConfig{CacheTTL: cfg.News.CacheTTL}, log)
	assistantService := assistantapp.NewAssistantService(
		conversationRepo, investorService, taskService, activityService, networkService,
		auditService, llmClient,
		assistantapp.Config{MaxToolRounds: cfg.LLM.MaxToolRounds, MaxTokens: cfg.LLM.MaxTokens},
		metrics, log,
	)
	reportService := reportapp.NewReportService(
		investorRepo, userRepo, tenantRepo, renderer, objects, auditService,
		reportapp.Config{DownloadTTL: cfg.Storage.DownloadURLTTL, RenderTimeout: cfg.Report.RenderTimeout},
		log,
	)
	indexer := searchapp.NewIndexer(index, investorRepo, contactRepo, log)
	searchService := searchapp.NewSearchService(index, investorRepo, contactRepo, log)
	purgeService := maintenance.NewPurgeService(log,
		maintenance.Target{Name: "activities", Purger: activityRepo},
		maintenance.Target{Name: "tasks", Purger: taskRepo},
		maintenance.Target{Name: "meetings", Purger: meetingRepo},
		maintenance.Target{Name: "contacts", Purger: contactRepo},
		maintenance.Target{Name: "saved_filters", Purger: filterRepo},
		maintenance.Target{Name: "investors", Purger: investorRepo},
	)

	// Event subscribers: audit is written inline, search and realtime fan out in the background
	hub := realtime.NewHub(cfg.Realtime, metrics, log)
	defer hub.Close()
	eventBus.Subscribe(auditService)
	if index != nil {
		eventBus.SubscribeAsync(indexer)
	}
	if cfg.Realtime.Enabled {
		eventBus.SubscribeAsync(realtime.NewEventForwarder(hub))
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Background jobs
	var jobs *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobs = scheduler.NewScheduler(scheduler.Config{JobTimeout: cfg.Scheduler.JobTimeout, Location: time.UTC}, metrics, log)
		tasks := scheduler.Tasks{Overdue: taskService, Purge: purgeService}
		if googleClient.Enabled() {
			tasks.GoogleSync = googleService
		}
		if newsClient.Enabled() {
			tasks.News = newsService
		}
		if err := jobs.RegisterTasks(cfg.Scheduler, tasks); err != nil {
			log.Fatal("Failed to register background jobs", zap.Error(err))
		}
		if err := jobs.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
	}

	// HTTP
	middleware.SetupValidator()
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	r := router.NewRouter(engine)
	uploadLimits := map[string]int64{
		r.BasePath() + "/network/import":          cfg.HTTP.MaxUploadSize,
		r.BasePath() + "/meetings/:id/transcript": cfg.HTTP.MaxUploadSize,
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.Telemetry.ServiceName, Enabled: cfg.Telemetry.Enabled}),
		middleware.Secure(),
		middleware.CORSWithConfig(corsCfg),
		middleware.HTTPMetrics(metrics),
		middleware.BodyLimitWithOverrides(cfg.HTTP.MaxBodySize, uploadLimits),
	)
	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(newWindowLimiter(redisClient, "ratelimit:api", cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow), log))
	}
	var authRateLimit gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitEnabled {
		authRateLimit = middleware.RateLimit(newWindowLimiter(redisClient, "ratelimit:auth", cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow), log)
	}

	var metricsHandler http.Handler
	if cfg.Telemetry.MetricsEnabled {
		metricsHandler = metrics.Handler()
	}
	checks := map[string]handler.ReadinessCheck{
		"database": func(ctx context.Context) error { return sqlDB.PingContext(ctx) },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	if meili != nil {
		checks["search"] = func(context.Context) error {
			if !meili.Healthy() {
				return search.ErrUnhealthy
			}
			return nil
		}
	}

	router.RegisterAPI(r, router.Handlers{
		System:      handler.NewSystemHandler(cfg.App.Name, version, checks, metricsHandler),
		Auth:        handler.NewAuthHandler(authService, handler.NewSessionCookies(cfg.Cookie)),
		User:        handler.NewUserHandler(userService),
		Investor:    handler.NewInvestorHandler(investorService),
		Contact:     handler.NewContactHandler(contactService),
		Activity:    handler.NewActivityHandler(activityService),
		Task:        handler.NewTaskHandler(taskService),
		Meeting:     handler.NewMeetingHandler(meetingService),
		Network:     handler.NewNetworkHandler(networkService),
		Preferences: handler.NewPreferencesHandler(preferencesService),
		Audit:       handler.NewAuditHandler(auditService),
		Integration: handler.NewIntegrationHandler(googleService, messagingService, newsService, cfg.App.BaseURL),
		Assistant:   handler.NewAssistantHandler(assistantService, searchService),
		Report:      handler.NewReportHandler(reportService),
		Realtime:    handler.NewRealtimeHandler(hub, cfg.Realtime),
	}, router.Guards{
		Auth:          middleware.Auth(middleware.AuthConfig{Authenticator: authService, Logger: log}),
		RealtimeAuth:  middleware.Auth(middleware.AuthConfig{Authenticator: authService, AllowQueryToken: true, Logger: log}),
		CSRF:          middleware.CSRF(cfg.HTTP.CSRFEnabled),
		AuthRateLimit: authRateLimit,
		LLMRateLimit:  middleware.PerUserRateLimit(middleware.NewUserLimiter(cfg.LLM.RequestsPerMinute, cfg.LLM.Burst)),
		AfterAuth:     []gin.HandlerFunc{middleware.TracingAttributeInjector(), middleware.SpanErrorMarker()},
	})
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if jobs != nil {
		if err := jobs.Stop(shutdownCtx); err != nil {
			log.Error("Scheduler did not stop cleanly", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus did not drain", zap.Error(err))
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// migrateSchema applies the embedded migrations before the server accepts traffic.
// It uses its own connection since closing the migrator closes the handle it was given.
func migrateSchema(dsn string, log *zap.Logger) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	m, err := migration.NewEmbedded(db, migrations.FS, log)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}

// newObjectStorage returns S3 storage when configured. A nil interface disables uploads and exports.
func newObjectStorage(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) storage.ObjectStorage {
	if !cfg.Enabled {
		log.Info("Object storage disabled, uploads and PDF downloads are unavailable")
		return nil
	}
	s3, err := storage.NewS3Storage(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		log.Warn("Could not verify storage bucket", zap.String("bucket", s3.Bucket()), zap.Error(err))
	}
	return s3
}

// newWindowLimiter shares counters through Redis when it is available
func newWindowLimiter(client *redis.Client, prefix string, limit int, window time.Duration) middleware.WindowLimiter {
	if client != nil {
		return middleware.NewRedisRateLimiter(client, prefix, limit, window)
	}
	return middleware.NewRateLimiter(limit, window)
}
