package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "finhub/docs" // swagger docs

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"finhub/internal/auth"
	"finhub/internal/cache"
	"finhub/internal/config"
	"finhub/internal/db"
	"finhub/internal/handler"
	"finhub/internal/logger"
	"finhub/internal/repository"
	"finhub/internal/router"
	"finhub/internal/service"
)

// @title finhub API
// @version 1.0
// @description Multi-tenant finance and project tracker API: bank accounts, a balance-consistent transaction ledger, projects and tasks.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer func() { _ = zl.Sync() }()

	gormDB, err := db.Open(cfg.DatabaseURL, db.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
		LogLevel:     cfg.LogLevel,
	}, zl)
	if err != nil {
		zl.Fatal("database init", zap.Error(err))
	}

	if cfg.ResetDB {
		zl.Warn("RESET_DB=true detected, dropping all tables")
		db.Reset(gormDB, zl)
	}
	if err := db.Migrate(gormDB); err != nil {
		zl.Fatal("auto-migrate", zap.Error(err))
	}

	cacheClient := cache.New(cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB}, zl)
	defer func() { _ = cacheClient.Close() }()
	if err := cacheClient.Ping(context.Background()); err != nil {
		zl.Warn("redis unavailable, sessions cannot be revoked and stats are not cached", zap.Error(err))
	}

	store := repository.NewStore(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.SessionTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	money := service.NewMoneyFormatter(cfg.Currency)
	authService := service.NewAuthService(store, jwtService, tokenStore, zl)
	userService := service.NewUserService(store, zl)
	employeeService := service.NewEmployeeService(store, zl)
	bankService := service.NewBankService(store, zl)
	ledgerService := service.NewLedgerService(store, cacheClient, money, zl)
	projectService := service.NewProjectService(store, zl)
	taskService := service.NewTaskService(store, zl)
	dashboardService := service.NewDashboardService(store, cacheClient, money, zl)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Options{
		JWTSecret:    jwtService.Secret(),
		AllowOrigins: cfg.CORSAllowOrigin,
		Health: func(ctx context.Context) error {
			sqlDB, err := gormDB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}, zl, authService, router.Handlers{
		Auth:         handler.NewAuthHandler(authService, userService, cfg.CookieSecure || cfg.IsProduction()),
		Users:        handler.NewUserHandler(userService, employeeService),
		Banks:        handler.NewBankHandler(bankService),
		Transactions: handler.NewTransactionHandler(ledgerService),
		Projects:     handler.NewProjectHandler(projectService),
		Tasks:        handler.NewTaskHandler(taskService),
		Dashboard:    handler.NewDashboardHandler(dashboardService),
	})

	swaggerHost := cfg.SwaggerHost
	if swaggerHost == "" {
		swaggerHost = "http://localhost:" + cfg.ServerPort
	}
	zl.Info("swagger documentation available", zap.String("url", swaggerHost+"/swagger/index.html"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.ServerPort
		zl.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.AppEnv))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown", zap.Error(err))
	}
}
