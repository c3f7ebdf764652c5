package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/farellandr/ticketmart/config"
	"github.com/farellandr/ticketmart/internal/clock"
	"github.com/farellandr/ticketmart/internal/events"
	"github.com/farellandr/ticketmart/internal/gateway"
	"github.com/farellandr/ticketmart/internal/handlers"
	"github.com/farellandr/ticketmart/internal/helpers"
	"github.com/farellandr/ticketmart/internal/logger"
	"github.com/farellandr/ticketmart/internal/middleware"
	"github.com/farellandr/ticketmart/internal/repository"
	"github.com/farellandr/ticketmart/internal/server"
	"github.com/farellandr/ticketmart/internal/service"
	"github.com/farellandr/ticketmart/internal/telemetry"
	"github.com/farellandr/ticketmart/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	appLog := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			appLog.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	gw, err := gateway.NewPaymentGateway(cfg.Payment.Gateway, &gateway.GatewayConfig{
		SecretKey:   cfg.Payment.StripeSecretKey,
		Environment: cfg.Payment.StripeEnv,
		MockPending: !cfg.Payment.MockAutoSucceed,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize payment gateway: %w", err)
	}
	appLog.Info("payment gateway ready", zap.String("gateway", gw.Name()))

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		kafka, err := events.NewKafkaPublisher(ctx, &events.KafkaConfig{
			Brokers:  cfg.Kafka.Brokers,
			ClientID: cfg.Kafka.ClientID,
			Topic:    cfg.Kafka.Topic,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize kafka: %w", err)
		}
		defer kafka.Close()
		publisher = kafka
	}

	var idempotencyStore middleware.RedisClient
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			appLog.Warn("redis unreachable, idempotency keys will be ignored until it recovers", zap.Error(err))
		}
		idempotencyStore = rdb
	}

	clk := clock.NewSystem()
	tx := repository.NewTxManager(db)
	eventRepo := repository.NewEventRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)

	authService := service.NewAuthService(userRepo, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		TTL:    cfg.JWT.TTL,
		Issuer: cfg.JWT.Issuer,
	}, clk, appLog)
	userService := service.NewUserService(tx, userRepo, appLog)
	catalogService := service.NewCatalogService(tx, eventRepo, ticketRepo, appLog)
	cartService := service.NewCartService(tx, cartRepo, ticketRepo, clk, appLog)
	checkoutService := service.NewCheckoutService(tx, ticketRepo, eventRepo, cartRepo, orderRepo, gw, publisher, clk, appLog,
		service.CheckoutConfig{Currency: cfg.Payment.Currency})
	passService := service.NewPassService(orderRepo, eventRepo, helpers.NewPassSigner(cfg.Payment.PassSecret))

	if cfg.CartReaper.Enabled {
		reaper := worker.NewCartReaper(cartRepo, clk, cfg.CartReaper.Interval, appLog)
		if err := reaper.Start(ctx); err != nil {
			return err
		}
		defer reaper.Stop()
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	decimal.MarshalJSONWithoutQuotes = true

	router := server.NewRouter(server.Handlers{
		Auth:     handlers.NewAuthHandler(authService, userService),
		Event:    handlers.NewEventHandler(catalogService, helpers.ImageUploadConfig(cfg.Upload.Dir, cfg.Upload.MaxSizeBytes)),
		Ticket:   handlers.NewTicketHandler(catalogService, checkoutService),
		Cart:     handlers.NewCartHandler(cartService),
		Payment:  handlers.NewPaymentHandler(checkoutService),
		Purchase: handlers.NewPurchaseHandler(passService),
		Profile:  handlers.NewProfileHandler(userService),
	}, server.Options{
		Logger:         appLog,
		Tokens:         authService,
		CORSOrigins:    cfg.Server.CORSOrigins,
		UploadDir:      cfg.Upload.Dir,
		Version:        cfg.App.Version,
		Redis:          idempotencyStore,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		Ready:          sqlDB.PingContext,
	})

	return server.New(cfg.Server, router, appLog).Run(ctx)
}
