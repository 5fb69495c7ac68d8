package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/showgate/ticketd/internal/domain"
	"github.com/showgate/ticketd/internal/gateway"
	"github.com/showgate/ticketd/internal/handler"
	"github.com/showgate/ticketd/internal/notify"
	"github.com/showgate/ticketd/internal/repository"
	"github.com/showgate/ticketd/internal/service"
	"github.com/showgate/ticketd/internal/token"
	"github.com/showgate/ticketd/internal/worker"
	"github.com/showgate/ticketd/pkg/config"
	"github.com/showgate/ticketd/pkg/database"
	"github.com/showgate/ticketd/pkg/logger"
	"github.com/showgate/ticketd/pkg/redis"
	"github.com/showgate/ticketd/pkg/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ticketd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := "info"
	if cfg.App.Debug {
		logLevel = "debug"
	}
	log, err := logger.New(&logger.Config{
		Level:       logLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
	})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()
	log.Info("connected to postgres", zap.String("host", cfg.Database.Host))

	redisClient, err := redis.New(ctx, &redis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()
	log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr()))

	var dispatcher notify.Dispatcher = notify.NopDispatcher{}
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Brokers[0] != "" {
		kafkaDispatcher, err := notify.NewKafkaDispatcher(notify.KafkaConfig{
			Brokers:  cfg.Kafka.Brokers,
			ClientID: cfg.Kafka.ClientID,
			Topic:    cfg.Kafka.Topic,
		}, log)
		if err != nil {
			return fmt.Errorf("create kafka dispatcher: %w", err)
		}
		dispatcher = kafkaDispatcher
		log.Info("notification dispatcher ready", zap.Strings("brokers", cfg.Kafka.Brokers))
	}
	defer dispatcher.Close()

	var paymentGateway gateway.PaymentGateway
	switch cfg.Gateway.Provider {
	case "mock":
		paymentGateway = gateway.NewMockGateway()
	default:
		paymentGateway, err = gateway.NewStripeGateway(gateway.Config{
			Provider:  cfg.Gateway.Provider,
			SecretKey: cfg.Gateway.SecretKey,
		})
		if err != nil {
			return fmt.Errorf("create payment gateway: %w", err)
		}
	}
	log.Info("payment gateway ready", zap.String("provider", paymentGateway.Name()))

	issuer, err := token.NewIssuer(cfg.Token.Secret, 0)
	if err != nil {
		return err
	}

	pool := db.Pool()
	eventRepo := repository.NewPostgresEventRepository(pool)
	ticketRepo := repository.NewPostgresTicketRepository(pool)
	transactionRepo := repository.NewPostgresTransactionRepository(pool)
	walletRepo := repository.NewPostgresWalletRepository(pool)
	holdRepo := repository.NewRedisHoldRepository(redisClient.Client)

	clock := domain.SystemClock()
	capacityService := service.NewCapacityService(eventRepo, ticketRepo, holdRepo, log)
	eventStatusService := service.NewEventStatusService(eventRepo, ticketRepo, dispatcher, clock, log)
	purchaseService := service.NewPurchaseService(eventRepo, capacityService, transactionRepo, paymentGateway, issuer, eventStatusService, dispatcher, clock, log)
	refundService := service.NewRefundService(transactionRepo, ticketRepo, walletRepo, paymentGateway, dispatcher, clock, log)
	ticketService := service.NewTicketService(ticketRepo, eventRepo, issuer, dispatcher, clock, log)
	sweepService := service.NewSweepService(holdRepo, clock, log)
	reservationService := service.NewReservationService(holdRepo, capacityService, clock, log)

	sweepWorker := worker.NewSweepWorker(sweepService, ticketService, clock, log, &worker.SweepWorkerConfig{
		Interval:        cfg.Sweep.Interval,
		ExpiryThreshold: cfg.Sweep.ExpiryThreshold,
	})
	sweepWorker.Start()
	defer sweepWorker.Stop()

	router := handler.SetupRouter(&handler.Handlers{
		Purchases:    handler.NewPurchaseHandler(purchaseService),
		Refunds:      handler.NewRefundHandler(refundService),
		Tickets:      handler.NewTicketHandler(ticketService, ticketRepo),
		Events:       handler.NewEventHandler(capacityService),
		Reservations: handler.NewReservationHandler(reservationService),
		Wallets:      handler.NewWalletHandler(walletRepo),
		Admin:        handler.NewAdminHandler(sweepWorker),
	}, log, &handler.RouterConfig{
		JWTSecret: cfg.Token.Secret,
		Debug:     cfg.App.Debug,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
