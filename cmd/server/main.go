package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ErlanBelekov/stockbetting/config"
	"github.com/ErlanBelekov/stockbetting/internal/auth"
	"github.com/ErlanBelekov/stockbetting/internal/health"
	"github.com/ErlanBelekov/stockbetting/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/stockbetting/internal/log"
	"github.com/ErlanBelekov/stockbetting/internal/metrics"
	"github.com/ErlanBelekov/stockbetting/internal/pipeline"
	"github.com/ErlanBelekov/stockbetting/internal/predict"
	httptransport "github.com/ErlanBelekov/stockbetting/internal/transport/http"
	"github.com/ErlanBelekov/stockbetting/internal/transport/http/handler"
	"github.com/ErlanBelekov/stockbetting/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := ctxlog.New(os.Stdout, cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, pool); err != nil {
			stop()
			pool.Close()
			log.Fatalf("migrate: %v", err)
		}
		logger.Info("migrations applied")
	}

	tokens, err := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.JWTTTL)
	if err != nil {
		stop()
		pool.Close()
		log.Fatalf("token service: %v", err)
	}

	// Users
	userRepo := postgres.NewUserRepository(pool)
	authUsecase, err := usecase.NewAuthUsecase(userRepo, tokens)
	if err != nil {
		stop()
		pool.Close()
		log.Fatalf("auth usecase: %v", err)
	}
	authHandler := handler.NewAuthHandler(authUsecase, logger)

	// Stocks and predictions
	stockRepo := postgres.NewStockRepository(pool)
	cache := predict.NewCache(cfg.PredictionCacheTTL)
	sweeper, err := predict.NewSweeper(cache, cfg.CacheSweepSchedule, logger)
	if err != nil {
		stop()
		pool.Close()
		log.Fatalf("cache sweeper: %v", err)
	}
	stockUsecase := usecase.NewStockUsecase(stockRepo, predict.NewLogistic(predict.DefaultWeights), cache)
	stockHandler := handler.NewStockHandler(stockUsecase, logger)

	metrics.Register()
	metrics.ServerStartTime.SetToCurrentTime()
	checker := health.NewChecker(logger, prometheus.DefaultRegisterer,
		health.Dependency{Name: "postgres", Pinger: pool})

	p := pipeline.Default(logger, pipeline.WithMaxBody(cfg.MaxBodyBytes))
	logger.Info("request pipeline", "stages", p.Stages())

	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httptransport.NewRouter(p, authHandler, stockHandler, tokens),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Start(ctx)
	}()

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
	wg.Wait()
}
