package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	docs "bondscalc/docs"
	appbonds "bondscalc/internal/application/service/bonds"
	appcatalog "bondscalc/internal/application/service/catalog"
	"bondscalc/internal/config"
	"bondscalc/internal/domain/calculator"
	interfaces "bondscalc/internal/domain/interfaces"
	infrabonds "bondscalc/internal/infrastructure/bonds"
	"bondscalc/internal/infrastructure/broker"
	"bondscalc/internal/infrastructure/moex"
	"bondscalc/internal/infrastructure/tinvest"
	infrahttp "bondscalc/internal/interfaces/http"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Host = cfg.HTTP.Addr()

	bondsRepo, err := infrabonds.NewRepository(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("failed to init bonds repo: %v", err)
	}
	defer bondsRepo.Close()
	if err := bondsRepo.EnsureSchema(ctx); err != nil {
		logger.Fatalf("failed to prepare schema: %v", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	moexClient := moex.NewClient(cfg.Moex.BaseURL, cfg.Moex.Timeout, logger)
	priceSources := []interfaces.PriceSource{moexClient}
	if cfg.Invest.Enabled() {
		investPrices, err := tinvest.NewPriceSource(ctx, tinvest.Config{
			Token:         cfg.Invest.Token,
			Endpoint:      cfg.Invest.Endpoint,
			AppName:       cfg.Invest.AppName,
			SkipTLSVerify: cfg.Invest.SkipTLSVerify,
		}, logger)
		if err != nil {
			logger.Fatalf("failed to init invest api prices: %v", err)
		}
		defer func() {
			if err := investPrices.Close(); err != nil {
				logger.Errorf("stop invest api client: %v", err)
			}
		}()
		priceSources = append(priceSources, investPrices)
	}

	formatter := calculator.NewFormatter(calculator.ParseLocale(cfg.Locale))
	bondService := appbonds.NewService(bondsRepo, formatter, cfg.Search.Limit)
	catalogService := appcatalog.NewService(moexClient, bondsRepo, logger, priceSources...)

	handler := infrahttp.NewHandler(bondService, redisClient, cfg.Cache.TTL())
	server := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("HTTP server listening on %s", cfg.HTTP.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		if cfg.Sync.OnStart {
			if _, err := catalogService.Sync(gctx); err != nil && gctx.Err() == nil {
				logger.WithError(err).Error("initial catalog sync failed, serving stored catalog")
			}
		}
		return catalogService.Run(gctx, cfg.Sync.Interval)
	})

	if cfg.RabbitMQ.URL != "" {
		g.Go(func() error {
			consumer, err := broker.NewConsumer(cfg.RabbitMQ, bondsRepo, logger)
			if err != nil {
				return fmt.Errorf("init consumer: %w", err)
			}
			if err := consumer.Start(gctx); err != nil {
				return fmt.Errorf("start consumer: %w", err)
			}
			<-gctx.Done()
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer closeCancel()
			return consumer.Close(closeCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Errorf("server stopped with error: %v", err)
	}
	logger.Info("server stopped")
}
