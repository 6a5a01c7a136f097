package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filingwatch/internal/catalog"
	"filingwatch/internal/config"
	cronrunner "filingwatch/internal/cron"
	"filingwatch/internal/db"
	"filingwatch/internal/handler"
	"filingwatch/internal/logger"
	"filingwatch/internal/notify"
	gormrepository "filingwatch/internal/repository/gorm"
	"filingwatch/internal/scheduler"
	"filingwatch/internal/service"
	"filingwatch/internal/source/edgar"
)

func main() {
	cfgPath := os.Getenv("FW_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("FW_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	edgarHTTP := &http.Client{Timeout: cfg.Edgar.Timeout}
	edgarClient := edgar.NewClient(edgarHTTP, cfg.Edgar.BaseURL, cfg.Edgar.ArchiveURL, cfg.Edgar.UserAgent, cfg.Edgar.Throttle)

	catalogHTTP := &http.Client{Timeout: 60 * time.Second}
	catalogLoader := catalog.NewLoader(catalogHTTP, cfg.Catalog.PrimaryURL, cfg.Catalog.ExchangeURL, cfg.Edgar.UserAgent)
	catalogService := &service.CatalogService{
		Repo:              store,
		Loader:            catalogLoader,
		Logger:            logger,
		LocalPath:         cfg.Catalog.LocalPath,
		LocalExchangePath: cfg.Catalog.LocalExchangePath,
	}

	syncService := &service.SyncService{
		Repo:             store,
		Source:           edgarClient,
		Logger:           logger,
		FilingsPerTicker: cfg.Edgar.FilingsPerTicker,
	}

	sched := scheduler.New(syncService, logger, cfg.Sync.Interval, cfg.Sync.RunTimeout)
	hub := notify.NewHub(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Catalog.Enabled {
		if err := catalogService.EnsureLoaded(ctx); err != nil {
			logger.Warn("initial catalog load failed (continuing)", zap.Error(err))
		}
	}

	if cfg.Sync.Enabled {
		go sched.Run(ctx)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case outcome := <-sched.Results():
					hub.Publish(outcome)
				}
			}
		}()
	}

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Catalog.Enabled {
		if _, err := cronRunner.Add("catalog-refresh", cfg.Catalog.Cron, func(ctx context.Context) error {
			_, err := catalogService.Reload(ctx)
			return err
		}); err != nil {
			logger.Warn("cron register catalog refresh failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	watchlistHandler := &handler.WatchlistHandler{Repo: store, Scheduler: sched, Logger: logger}
	watchlistHandler.Register(engine)
	tickersHandler := &handler.TickersHandler{Repo: store, Catalog: catalogService, Logger: logger}
	tickersHandler.Register(engine)
	filingsHandler := &handler.FilingsHandler{Repo: store}
	filingsHandler.Register(engine)
	alertsHandler := &handler.AlertsHandler{Repo: store, Logger: logger}
	alertsHandler.Register(engine)
	notesHandler := &handler.NotesHandler{Repo: store}
	notesHandler.Register(engine)
	syncHandler := &handler.SyncHandler{Repo: store, Scheduler: sched, Hub: hub, Logger: logger}
	syncHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
