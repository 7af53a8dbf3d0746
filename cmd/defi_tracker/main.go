package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"defi_tracker/internal/app/service"
	"defi_tracker/internal/app/store"
	"defi_tracker/internal/config"
	"defi_tracker/internal/domain/entity"
	"defi_tracker/internal/infrastructure/httpclient"
	"defi_tracker/internal/infrastructure/notify"
	"defi_tracker/internal/infrastructure/restapi"
	"defi_tracker/internal/infrastructure/scheduler"
	"defi_tracker/internal/infrastructure/session"
	"defi_tracker/internal/pkg/logger"
	"defi_tracker/internal/pkg/metrics"
	"defi_tracker/internal/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err == nil {
		logrus.Info("Loaded environment from .env")
	}

	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.InitZap(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("DeFi tracker starting", "config", cfgPath)
	metrics.MustRegisterMetrics()

	appLogger := logger.NewSlogAdapter()

	modules := make([]entity.Module, 0, len(cfg.Session.ActiveModules))
	for _, m := range cfg.Session.ActiveModules {
		modules = append(modules, entity.Module(m))
	}
	sessionState := session.NewState(cfg.Session.Premium, modules)
	messages := notify.NewQueue(cfg.Notifier.Capacity, logger.NewSlogAdapter("component", "notifier"))

	apiClient := httpclient.NewPortfolioClient(cfg.PortfolioAPI, zapLogger)
	logger.Info("Portfolio API client initialized", "baseURL", cfg.PortfolioAPI.BaseURL)

	assetService := service.NewAssetInfoService(
		apiClient,
		logger.NewSlogAdapter("component", "assets"),
		time.Duration(cfg.Assets.CacheTTLMinutes)*time.Minute,
		time.Duration(cfg.Assets.CleanupIntervalMinutes)*time.Minute,
	)

	controller := service.NewRefreshController(
		sessionState,
		service.NewStatusUpdater(),
		messages,
		assetService,
		logger.NewSlogAdapter("component", "refresh"),
	)
	balancerService := service.NewBalancerService(apiClient, store.NewBalancerStore(), controller, appLogger)
	ignoreService := service.NewIgnoreService(apiClient, messages, appLogger)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(ctx, cfg.Scheduler.Spec, cfg.PortfolioAPI.TaskTimeout(), balancerService,
			logger.NewSlogAdapter("component", "scheduler"))
		if err != nil {
			logger.Fatal("Failed to set up scheduler", "error", err)
		}
		sched.Start()
	}

	handler := restapi.NewHandler(balancerService, assetService, ignoreService, messages, sessionState,
		cfg.PortfolioAPI.TaskTimeout(), appLogger)
	router := restapi.SetupRouter(handler, cfg.Server.AllowOrigins, utils.ZapLoggerMiddleware(zapLogger.Named("http")))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start HTTP server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown signal received")

	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	} else {
		logger.Info("HTTP server stopped")
	}

	cancel()
	logger.Info("DeFi tracker stopped")
}
